package casework

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// SimulationRequest is what the payment engine is asked to simulate
type SimulationRequest struct {
	CaseID      uuid.UUID
	SakID       uuid.UUID
	ApplicantID string
	Period      period.Period
	Calculation calculation.Calculation
}

// Simulator runs a payment dry-run. The caller supplies it and owns any I/O
// and cancellation behind it.
type Simulator interface {
	Simulate(req SimulationRequest) (simulation.Simulation, error)
}

// SimulatorFunc adapts a function to Simulator
type SimulatorFunc func(req SimulationRequest) (simulation.Simulation, error)

// Simulate calls f(req)
func (f SimulatorFunc) Simulate(req SimulationRequest) (simulation.Simulation, error) {
	return f(req)
}

// SimulateInput is the command to simulate the payout of a calculated case
type SimulateInput struct {
	Command
	Simulator Simulator
}

// Simulate checks an approved calculation against the payment engine
func Simulate(c Case, in SimulateInput) (Case, error) {
	const op = "Simulate"

	var calc calculation.Calculation
	switch v := c.(type) {
	case CalculatedApproved:
		calc = v.Calculation
	case Simulated:
		calc = v.Calculation
	case ReturnedApproved:
		calc = v.Calculation
	default:
		return nil, invalidTransition(c, workflow.ActionSimulate)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	common := c.Info()
	if in.Simulator == nil {
		return nil, invariant(common.ID, op, "no simulator")
	}

	sim, err := in.Simulator.Simulate(SimulationRequest{
		CaseID:      common.ID,
		SakID:       common.SakID,
		ApplicantID: common.ApplicantID,
		Period:      common.Period(),
		Calculation: calc,
	})
	if err != nil {
		return nil, &SimulationFailedError{Err: err}
	}
	if sim.Period != common.Period() {
		return nil, &SimulationFailedError{
			Err: fmt.Errorf("%w: got %s, want %s", ErrSimulationPeriodMismatch, sim.Period, common.Period()),
		}
	}

	return build(op, Simulated{
		Common:      common.record(in.Actor, in.At, workflow.ActionSimulate),
		Calculation: calc,
		Simulation:  sim,
	})
}
