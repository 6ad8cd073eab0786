package casework

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
)

// checkAssessmentPeriods verifies that periods lie inside target and cover it
// without overlap. The input may be in any order.
func checkAssessmentPeriods(target period.Period, periods []period.Period) error {
	sorted := slices.Clone(periods)
	period.Sort(sorted)
	for _, p := range sorted {
		if err := p.Validate(); err != nil {
			return err
		}
		if !target.Contains(p) {
			return fmt.Errorf("%w: %s is not inside %s", ErrPeriodOutsideBenefitPeriod, p, target)
		}
	}
	if period.HasOverlap(sorted) {
		return ErrOverlappingPeriods
	}
	if !period.CoversExactly(sorted, target) {
		return fmt.Errorf("%w: %s", ErrIncompleteCoverage, target)
	}
	return nil
}

// checkCondition validates a condition before it enters the aggregate
func checkCondition(category condition.Category, target period.Period, cond condition.Condition) error {
	if !cond.Kind.AppliesTo(category) {
		return fmt.Errorf("%w: %s", ErrConditionNotApplicable, cond.Kind)
	}
	if len(cond.Assessments) == 0 {
		return ErrEmptyAssessment
	}
	for _, a := range cond.Assessments {
		if !a.Verdict.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidVerdict, a.Verdict)
		}
	}
	if !cond.HasSingleVerdict() {
		return fmt.Errorf("%w: %s", ErrMixedVerdicts, cond.Kind)
	}
	return checkAssessmentPeriods(target, cond.Periods())
}

// checkLivingSituations requires every living situation to be fully specified.
// A state carrying a calculation must also have the whole period covered.
func checkLivingSituations(c Case) error {
	common := c.Info()
	grounds := common.Grounds
	if len(grounds.LivingSituations) == 0 || !grounds.LivingSituationsComplete() {
		return ErrIncompleteLivingSituation
	}
	if _, ok := CalculationOf(c); ok {
		periods := grounds.LivingSituationPeriods()
		period.Sort(periods)
		if !period.CoversExactly(periods, common.Period()) {
			return ErrIncompleteLivingSituation
		}
	}
	return nil
}

// checkSimulationForSend rejects sending a case whose simulation shows an overpayment
func checkSimulationForSend(sim simulation.Simulation) error {
	if sim.HasOverpayment() {
		return ErrSimulationHasOverpayment
	}
	return nil
}

// checkNoOverpayment runs when a decision is finalized. An overpayment here
// means the send guard was bypassed.
func checkNoOverpayment(caseID uuid.UUID, op string, sim simulation.Simulation) error {
	if !sim.HasOverpayment() {
		return nil
	}
	return &InvariantError{
		CaseID: caseID,
		Op:     op,
		Reason: "simulation shows an overpayment at finalization",
		Detail: fmt.Sprintf("simulation=%s overpayment=%d gross=%d", sim.ID, sim.TotalOverpayment(), sim.TotalGross()),
	}
}

// checkOffset verifies that a pending offset can still be consumed by this
// case. Another case on the same sak may have consumed or annulled it.
func checkOffset(common Common, op string, rec *OffsetRecord) error {
	offset := common.Offset
	if offset == nil || offset.Status != OffsetPending {
		return nil
	}
	if rec == nil {
		return &InvariantError{
			CaseID: common.ID,
			Op:     op,
			Reason: "pending offset has no offset record",
			Detail: fmt.Sprintf("offset=%s amount=%d", offset.ID, offset.Amount),
		}
	}
	if rec.ID != offset.ID {
		return &InvariantError{
			CaseID: common.ID,
			Op:     op,
			Reason: "offset record does not match the pending offset",
			Detail: fmt.Sprintf("offset=%s record=%s", offset.ID, rec.ID),
		}
	}
	switch rec.Status {
	case OffsetRecordOpen:
		return nil
	case OffsetRecordConsumed, OffsetRecordAnnulled:
		return fmt.Errorf("%w: %s", ErrOffsetAlreadyResolved, rec.Status)
	default:
		return invariant(common.ID, op, "unknown offset record status %q", rec.Status)
	}
}
