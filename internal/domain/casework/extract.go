package casework

import (
	"slices"

	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// StatusOf returns the status of a case
func StatusOf(c Case) workflow.Status {
	switch c.(type) {
	case ConditionsAssessedUndetermined:
		return workflow.StatusConditionsAssessedUndetermined
	case ConditionsAssessedApproved:
		return workflow.StatusConditionsAssessedApproved
	case ConditionsAssessedDenied:
		return workflow.StatusConditionsAssessedDenied
	case CalculatedApproved:
		return workflow.StatusCalculatedApproved
	case CalculatedDenied:
		return workflow.StatusCalculatedDenied
	case Simulated:
		return workflow.StatusSimulated
	case AwaitingAttestationApproved:
		return workflow.StatusAwaitingAttestationApproved
	case AwaitingAttestationDeniedWithCalculation:
		return workflow.StatusAwaitingAttestationDeniedWithCalculation
	case AwaitingAttestationDeniedWithoutCalculation:
		return workflow.StatusAwaitingAttestationDeniedWithoutCalculation
	case ReturnedApproved:
		return workflow.StatusReturnedApproved
	case ReturnedDeniedWithCalculation:
		return workflow.StatusReturnedDeniedWithCalculation
	case ReturnedDeniedWithoutCalculation:
		return workflow.StatusReturnedDeniedWithoutCalculation
	case DecidedApproved:
		return workflow.StatusDecidedApproved
	case DecidedDeniedWithCalculation:
		return workflow.StatusDecidedDeniedWithCalculation
	case DecidedDeniedWithoutCalculation:
		return workflow.StatusDecidedDeniedWithoutCalculation
	case Closed:
		return workflow.StatusClosed
	default:
		return ""
	}
}

// IsTerminal reports whether no transition accepts the case
func IsTerminal(c Case) bool {
	return StatusOf(c).IsTerminal()
}

// CalculationOf returns the calculation, if the state carries one
func CalculationOf(c Case) (calculation.Calculation, bool) {
	switch v := c.(type) {
	case CalculatedApproved:
		return v.Calculation, true
	case CalculatedDenied:
		return v.Calculation, true
	case Simulated:
		return v.Calculation, true
	case AwaitingAttestationApproved:
		return v.Calculation, true
	case AwaitingAttestationDeniedWithCalculation:
		return v.Calculation, true
	case ReturnedApproved:
		return v.Calculation, true
	case ReturnedDeniedWithCalculation:
		return v.Calculation, true
	case DecidedApproved:
		return v.Calculation, true
	case DecidedDeniedWithCalculation:
		return v.Calculation, true
	case Closed:
		return CalculationOf(v.Underlying)
	default:
		return calculation.Calculation{}, false
	}
}

// SimulationOf returns the simulation, if the state carries one
func SimulationOf(c Case) (simulation.Simulation, bool) {
	switch v := c.(type) {
	case Simulated:
		return v.Simulation, true
	case AwaitingAttestationApproved:
		return v.Simulation, true
	case ReturnedApproved:
		return v.Simulation, true
	case DecidedApproved:
		return v.Simulation, true
	case Closed:
		return SimulationOf(v.Underlying)
	default:
		return simulation.Simulation{}, false
	}
}

// PreparerOf returns the caseworker who sent the case for attestation
func PreparerOf(c Case) (Actor, bool) {
	switch v := c.(type) {
	case AwaitingAttestationApproved:
		return v.Preparer, true
	case AwaitingAttestationDeniedWithCalculation:
		return v.Preparer, true
	case AwaitingAttestationDeniedWithoutCalculation:
		return v.Preparer, true
	case ReturnedApproved:
		return v.Preparer, true
	case ReturnedDeniedWithCalculation:
		return v.Preparer, true
	case ReturnedDeniedWithoutCalculation:
		return v.Preparer, true
	case DecidedApproved:
		return v.Preparer, true
	case DecidedDeniedWithCalculation:
		return v.Preparer, true
	case DecidedDeniedWithoutCalculation:
		return v.Preparer, true
	case Closed:
		return PreparerOf(v.Underlying)
	default:
		return "", false
	}
}

// LatestApproverOf returns the approver of the most recent attestation
func LatestApproverOf(c Case) (Actor, bool) {
	latest, ok := c.Info().Attestations.Latest()
	if !ok {
		return "", false
	}
	return latest.Approver, true
}

// DenialGroundsOf returns the denial grounds of a denied case in letter order,
// or nil for any other state
func DenialGroundsOf(c Case) []condition.Ground {
	switch v := c.(type) {
	case ConditionsAssessedDenied:
		return DenialGrounds(v.Conditions, nil)
	case AwaitingAttestationDeniedWithoutCalculation:
		return DenialGrounds(v.Conditions, nil)
	case ReturnedDeniedWithoutCalculation:
		return DenialGrounds(v.Conditions, nil)
	case DecidedDeniedWithoutCalculation:
		return DenialGrounds(v.Conditions, nil)
	case CalculatedDenied:
		return DenialGrounds(v.Conditions, &v.Calculation)
	case AwaitingAttestationDeniedWithCalculation:
		return DenialGrounds(v.Conditions, &v.Calculation)
	case ReturnedDeniedWithCalculation:
		return DenialGrounds(v.Conditions, &v.Calculation)
	case DecidedDeniedWithCalculation:
		return DenialGrounds(v.Conditions, &v.Calculation)
	case Closed:
		return DenialGroundsOf(v.Underlying)
	default:
		return nil
	}
}

// DenialGrounds lists the grounds of every denied condition in letter order,
// followed by the calculation's ground when calc is below what is paid out
func DenialGrounds(conditions condition.Aggregate, calc *calculation.Calculation) []condition.Ground {
	grounds := slices.Clone(conditions.DenialGrounds())
	if calc != nil {
		if ground, ok := calc.DenialGround(); ok {
			grounds = append(grounds, ground)
		}
	}
	return grounds
}

// withCommon returns the same state with its common data replaced
func withCommon(c Case, common Common) (Case, bool) {
	switch v := c.(type) {
	case ConditionsAssessedUndetermined:
		return ConditionsAssessedUndetermined{Common: common}, true
	case ConditionsAssessedApproved:
		return ConditionsAssessedApproved{Common: common}, true
	case ConditionsAssessedDenied:
		return ConditionsAssessedDenied{Common: common}, true
	case CalculatedApproved:
		v.Common = common
		return v, true
	case CalculatedDenied:
		v.Common = common
		return v, true
	case Simulated:
		v.Common = common
		return v, true
	case AwaitingAttestationApproved:
		v.Common = common
		return v, true
	case AwaitingAttestationDeniedWithCalculation:
		v.Common = common
		return v, true
	case AwaitingAttestationDeniedWithoutCalculation:
		v.Common = common
		return v, true
	case ReturnedApproved:
		v.Common = common
		return v, true
	case ReturnedDeniedWithCalculation:
		v.Common = common
		return v, true
	case ReturnedDeniedWithoutCalculation:
		v.Common = common
		return v, true
	default:
		return nil, false
	}
}
