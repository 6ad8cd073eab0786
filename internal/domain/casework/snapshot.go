package casework

import (
	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// Snapshot is the flat, serializable form of a case. Restore rebuilds the
// state from it and re-checks every construction invariant.
type Snapshot struct {
	Status      workflow.Status          `json:"status"`
	Common      Common                   `json:"common"`
	Calculation *calculation.Calculation `json:"calculation,omitempty"`
	Simulation  *simulation.Simulation   `json:"simulation,omitempty"`
	Preparer    Actor                    `json:"preparer,omitempty"`

	// Set on closed cases only
	Underlying    *Snapshot `json:"underlying,omitempty"`
	Closure       *Closure  `json:"closure,omitempty"`
	ClosedHistory History   `json:"closed_history,omitempty"`
}

// SnapshotOf flattens a case
func SnapshotOf(c Case) Snapshot {
	if closed, ok := c.(Closed); ok {
		underlying := SnapshotOf(closed.Underlying)
		closure := closed.Closure
		return Snapshot{
			Status:        workflow.StatusClosed,
			Common:        closed.Info(),
			Underlying:    &underlying,
			Closure:       &closure,
			ClosedHistory: closed.Info().History,
		}
	}

	s := Snapshot{Status: StatusOf(c), Common: c.Info()}
	if calc, ok := CalculationOf(c); ok {
		s.Calculation = &calc
	}
	if sim, ok := SimulationOf(c); ok {
		s.Simulation = &sim
	}
	if preparer, ok := PreparerOf(c); ok {
		s.Preparer = preparer
	}
	return s
}

// Restore rebuilds a case from a snapshot. A snapshot missing data its status
// requires, or violating an invariant, is fatal.
func Restore(s Snapshot) (Case, error) {
	const op = "Restore"

	c, err := restore(s)
	if err != nil {
		return nil, err
	}
	return build(op, c)
}

func restore(s Snapshot) (Case, error) {
	const op = "Restore"

	common := s.Common
	calc := func() (calculation.Calculation, error) {
		if s.Calculation == nil {
			return calculation.Calculation{}, invariant(common.ID, op, "status %s without calculation", s.Status)
		}
		return *s.Calculation, nil
	}
	sim := func() (simulation.Simulation, error) {
		if s.Simulation == nil {
			return simulation.Simulation{}, invariant(common.ID, op, "status %s without simulation", s.Status)
		}
		return *s.Simulation, nil
	}

	switch s.Status {
	case workflow.StatusConditionsAssessedUndetermined:
		return ConditionsAssessedUndetermined{Common: common}, nil
	case workflow.StatusConditionsAssessedApproved:
		return ConditionsAssessedApproved{Common: common}, nil
	case workflow.StatusConditionsAssessedDenied:
		return ConditionsAssessedDenied{Common: common}, nil
	case workflow.StatusCalculatedApproved, workflow.StatusCalculatedDenied:
		cl, err := calc()
		if err != nil {
			return nil, err
		}
		if s.Status == workflow.StatusCalculatedApproved {
			return CalculatedApproved{Common: common, Calculation: cl}, nil
		}
		return CalculatedDenied{Common: common, Calculation: cl}, nil
	case workflow.StatusSimulated, workflow.StatusAwaitingAttestationApproved,
		workflow.StatusReturnedApproved, workflow.StatusDecidedApproved:
		cl, err := calc()
		if err != nil {
			return nil, err
		}
		sm, err := sim()
		if err != nil {
			return nil, err
		}
		switch s.Status {
		case workflow.StatusSimulated:
			return Simulated{Common: common, Calculation: cl, Simulation: sm}, nil
		case workflow.StatusAwaitingAttestationApproved:
			return AwaitingAttestationApproved{Common: common, Calculation: cl, Simulation: sm, Preparer: s.Preparer}, nil
		case workflow.StatusReturnedApproved:
			return ReturnedApproved{Common: common, Calculation: cl, Simulation: sm, Preparer: s.Preparer}, nil
		default:
			return DecidedApproved{Common: common, Calculation: cl, Simulation: sm, Preparer: s.Preparer}, nil
		}
	case workflow.StatusAwaitingAttestationDeniedWithCalculation, workflow.StatusReturnedDeniedWithCalculation,
		workflow.StatusDecidedDeniedWithCalculation:
		cl, err := calc()
		if err != nil {
			return nil, err
		}
		switch s.Status {
		case workflow.StatusAwaitingAttestationDeniedWithCalculation:
			return AwaitingAttestationDeniedWithCalculation{Common: common, Calculation: cl, Preparer: s.Preparer}, nil
		case workflow.StatusReturnedDeniedWithCalculation:
			return ReturnedDeniedWithCalculation{Common: common, Calculation: cl, Preparer: s.Preparer}, nil
		default:
			return DecidedDeniedWithCalculation{Common: common, Calculation: cl, Preparer: s.Preparer}, nil
		}
	case workflow.StatusAwaitingAttestationDeniedWithoutCalculation:
		return AwaitingAttestationDeniedWithoutCalculation{Common: common, Preparer: s.Preparer}, nil
	case workflow.StatusReturnedDeniedWithoutCalculation:
		return ReturnedDeniedWithoutCalculation{Common: common, Preparer: s.Preparer}, nil
	case workflow.StatusDecidedDeniedWithoutCalculation:
		return DecidedDeniedWithoutCalculation{Common: common, Preparer: s.Preparer}, nil
	case workflow.StatusClosed:
		if s.Underlying == nil || s.Closure == nil {
			return nil, invariant(common.ID, op, "closed snapshot without underlying state")
		}
		underlying, err := restore(*s.Underlying)
		if err != nil {
			return nil, err
		}
		return Closed{Underlying: underlying, Closure: *s.Closure, History: s.ClosedHistory}, nil
	default:
		return nil, invariant(common.ID, op, "unknown status %q", s.Status)
	}
}
