package casework

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// build checks the construction invariants of a freshly produced state
func build(op string, c Case) (Case, error) {
	if err := checkInvariants(op, c); err != nil {
		return nil, err
	}
	return c, nil
}

func checkInvariants(op string, c Case) error {
	switch v := c.(type) {
	case ConditionsAssessedUndetermined:
		return checkConditionsVariant(op, v.Common, condition.VerdictUndetermined)
	case ConditionsAssessedApproved:
		return checkConditionsVariant(op, v.Common, condition.VerdictApproved)
	case ConditionsAssessedDenied:
		return checkConditionsVariant(op, v.Common, condition.VerdictDenied)
	case CalculatedApproved:
		return checkCalculated(op, v.Common, v.Calculation, false)
	case CalculatedDenied:
		return checkCalculated(op, v.Common, v.Calculation, true)
	case Simulated:
		return firstErr(
			checkCalculated(op, v.Common, v.Calculation, false),
			checkSimulation(op, v.Common, v.Simulation),
		)
	case AwaitingAttestationApproved:
		return firstErr(
			checkCalculated(op, v.Common, v.Calculation, false),
			checkSimulation(op, v.Common, v.Simulation),
			checkPreparer(op, v.Common, v.Preparer),
		)
	case AwaitingAttestationDeniedWithCalculation:
		return firstErr(
			checkCalculated(op, v.Common, v.Calculation, true),
			checkPreparer(op, v.Common, v.Preparer),
		)
	case AwaitingAttestationDeniedWithoutCalculation:
		return firstErr(
			checkConditionsVariant(op, v.Common, condition.VerdictDenied),
			checkPreparer(op, v.Common, v.Preparer),
		)
	case ReturnedApproved:
		return firstErr(
			checkCalculated(op, v.Common, v.Calculation, false),
			checkSimulation(op, v.Common, v.Simulation),
			checkPreparer(op, v.Common, v.Preparer),
			checkLatestAttestation(op, v.Common, AttestationRejected),
		)
	case ReturnedDeniedWithCalculation:
		return firstErr(
			checkCalculated(op, v.Common, v.Calculation, true),
			checkPreparer(op, v.Common, v.Preparer),
			checkLatestAttestation(op, v.Common, AttestationRejected),
		)
	case ReturnedDeniedWithoutCalculation:
		return firstErr(
			checkConditionsVariant(op, v.Common, condition.VerdictDenied),
			checkPreparer(op, v.Common, v.Preparer),
			checkLatestAttestation(op, v.Common, AttestationRejected),
		)
	case DecidedApproved:
		return firstErr(
			checkCalculated(op, v.Common, v.Calculation, false),
			checkSimulation(op, v.Common, v.Simulation),
			checkPreparer(op, v.Common, v.Preparer),
			checkLatestAttestation(op, v.Common, AttestationApproved),
		)
	case DecidedDeniedWithCalculation:
		return firstErr(
			checkCalculated(op, v.Common, v.Calculation, true),
			checkPreparer(op, v.Common, v.Preparer),
			checkLatestAttestation(op, v.Common, AttestationApproved),
		)
	case DecidedDeniedWithoutCalculation:
		return firstErr(
			checkConditionsVariant(op, v.Common, condition.VerdictDenied),
			checkPreparer(op, v.Common, v.Preparer),
			checkLatestAttestation(op, v.Common, AttestationApproved),
		)
	case Closed:
		return checkClosed(op, v)
	case nil:
		return invariant(uuid.Nil, op, "nil case")
	default:
		return invariant(c.Info().ID, op, "unhandled variant %T", c)
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// checkCommon verifies the data every state carries. Each assessed condition
// must be stored sorted and contiguous and cover exactly the benefit period.
func checkCommon(op string, c Common) error {
	if c.ID == uuid.Nil {
		return invariant(c.ID, op, "missing case id")
	}
	if c.Conditions.Category != c.Category {
		return invariant(c.ID, op, "conditions category %s does not match case category %s",
			c.Conditions.Category, c.Category)
	}
	target := c.Period()
	for _, cond := range c.Conditions.Conditions {
		periods := cond.Periods()
		if !period.IsSorted(periods) || !period.IsContiguous(periods) {
			return &InvariantError{
				CaseID: c.ID,
				Op:     op,
				Reason: fmt.Sprintf("condition %s periods are not sorted and contiguous", cond.Kind),
				Detail: fmt.Sprintf("periods=%v", periods),
			}
		}
		if !period.CoversExactly(periods, target) {
			return &InvariantError{
				CaseID: c.ID,
				Op:     op,
				Reason: fmt.Sprintf("condition %s does not match the benefit period", cond.Kind),
				Detail: fmt.Sprintf("periods=%v benefit_period=%s", periods, target),
			}
		}
		if !cond.HasSingleVerdict() {
			return invariant(c.ID, op, "condition %s has mixed verdicts", cond.Kind)
		}
	}
	return nil
}

func checkConditionsVariant(op string, c Common, want condition.Verdict) error {
	if err := checkCommon(op, c); err != nil {
		return err
	}
	if got := c.Conditions.Verdict(); got != want {
		return invariant(c.ID, op, "conditions verdict is %s, state requires %s", got, want)
	}
	return nil
}

func checkCalculated(op string, c Common, calc calculation.Calculation, denied bool) error {
	if err := checkConditionsVariant(op, c, condition.VerdictApproved); err != nil {
		return err
	}
	if calc.Period != c.Period() {
		return invariant(c.ID, op, "calculation period %s does not match benefit period %s", calc.Period, c.Period())
	}
	if _, below := calc.DenialGround(); below != denied {
		return &InvariantError{
			CaseID: c.ID,
			Op:     op,
			Reason: "calculation outcome does not match the state",
			Detail: fmt.Sprintf("denied_state=%t total=%d minimum=%d", denied, calc.Total(), calc.MinimumPayable),
		}
	}
	return nil
}

func checkSimulation(op string, c Common, sim simulation.Simulation) error {
	if sim.Period != c.Period() {
		return invariant(c.ID, op, "simulation period %s does not match benefit period %s", sim.Period, c.Period())
	}
	return nil
}

func checkPreparer(op string, c Common, preparer Actor) error {
	if preparer == "" {
		return invariant(c.ID, op, "missing preparer")
	}
	return nil
}

func checkLatestAttestation(op string, c Common, want AttestationVerdict) error {
	latest, ok := c.Attestations.Latest()
	if !ok || latest.Verdict != want {
		return invariant(c.ID, op, "latest attestation is not %s", want)
	}
	return nil
}

func checkClosed(op string, c Closed) error {
	switch c.Underlying.(type) {
	case nil:
		return invariant(uuid.Nil, op, "closed case without underlying state")
	case Closed:
		return invariant(c.Underlying.Info().ID, op, "closed case wraps a closed case")
	}
	if StatusOf(c.Underlying).IsTerminal() {
		return invariant(c.Underlying.Info().ID, op, "closed case wraps a decided case")
	}
	if err := checkInvariants(op, c.Underlying); err != nil {
		return err
	}
	if latest, ok := c.History.Latest(); !ok || latest.Action != workflow.ActionClose {
		return invariant(c.Underlying.Info().ID, op, "closed case history does not end with a closure")
	}
	return nil
}
