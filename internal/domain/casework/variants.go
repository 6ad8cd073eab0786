package casework

import (
	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
)

// ConditionsAssessedUndetermined is a case where at least one condition is
// still unassessed or undetermined. New cases start here.
type ConditionsAssessedUndetermined struct {
	Common
}

// ConditionsAssessedApproved is a case where every condition is approved and
// the benefit can be calculated
type ConditionsAssessedApproved struct {
	Common
}

// ConditionsAssessedDenied is a case where at least one condition is denied
type ConditionsAssessedDenied struct {
	Common
}

// CalculatedApproved is a calculated case with a payable amount
type CalculatedApproved struct {
	Common
	Calculation calculation.Calculation
}

// CalculatedDenied is a calculated case whose amount is below what is paid out
type CalculatedDenied struct {
	Common
	Calculation calculation.Calculation
}

// Simulated is an approved calculation checked against the payment engine
type Simulated struct {
	Common
	Calculation calculation.Calculation
	Simulation  simulation.Simulation
}

// AwaitingAttestationApproved is an approval waiting for a second caseworker
type AwaitingAttestationApproved struct {
	Common
	Calculation calculation.Calculation
	Simulation  simulation.Simulation
	Preparer    Actor
}

// AwaitingAttestationDeniedWithCalculation is a denial by calculation waiting
// for a second caseworker
type AwaitingAttestationDeniedWithCalculation struct {
	Common
	Calculation calculation.Calculation
	Preparer    Actor
}

// AwaitingAttestationDeniedWithoutCalculation is a denial by conditions
// waiting for a second caseworker
type AwaitingAttestationDeniedWithoutCalculation struct {
	Common
	Preparer Actor
}

// ReturnedApproved is an approval sent back to the preparer
type ReturnedApproved struct {
	Common
	Calculation calculation.Calculation
	Simulation  simulation.Simulation
	Preparer    Actor
}

// ReturnedDeniedWithCalculation is a denial by calculation sent back to the preparer
type ReturnedDeniedWithCalculation struct {
	Common
	Calculation calculation.Calculation
	Preparer    Actor
}

// ReturnedDeniedWithoutCalculation is a denial by conditions sent back to the preparer
type ReturnedDeniedWithoutCalculation struct {
	Common
	Preparer Actor
}

// DecidedApproved is a final approval
type DecidedApproved struct {
	Common
	Calculation calculation.Calculation
	Simulation  simulation.Simulation
	Preparer    Actor
}

// DecidedDeniedWithCalculation is a final denial by calculation
type DecidedDeniedWithCalculation struct {
	Common
	Calculation calculation.Calculation
	Preparer    Actor
}

// DecidedDeniedWithoutCalculation is a final denial by conditions
type DecidedDeniedWithoutCalculation struct {
	Common
	Preparer Actor
}

func (ConditionsAssessedUndetermined) isCase()              {}
func (ConditionsAssessedApproved) isCase()                  {}
func (ConditionsAssessedDenied) isCase()                    {}
func (CalculatedApproved) isCase()                          {}
func (CalculatedDenied) isCase()                            {}
func (Simulated) isCase()                                   {}
func (AwaitingAttestationApproved) isCase()                 {}
func (AwaitingAttestationDeniedWithCalculation) isCase()    {}
func (AwaitingAttestationDeniedWithoutCalculation) isCase() {}
func (ReturnedApproved) isCase()                            {}
func (ReturnedDeniedWithCalculation) isCase()               {}
func (ReturnedDeniedWithoutCalculation) isCase()            {}
func (DecidedApproved) isCase()                             {}
func (DecidedDeniedWithCalculation) isCase()                {}
func (DecidedDeniedWithoutCalculation) isCase()             {}
