package casework

import (
	"fmt"
	"slices"

	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// ConditionInput replaces the assessment of one or more conditions
type ConditionInput struct {
	Command
	Conditions []condition.Condition
}

// LivingSituationInput replaces every living situation
type LivingSituationInput struct {
	Command
	LivingSituations []condition.LivingSituation
}

// DeductionInput replaces every deduction
type DeductionInput struct {
	Command
	Deductions []condition.Deduction
}

// editable returns the common data of a state that accepts condition and
// grounds edits. Cases in attestation, decided or closed are not editable.
func editable(c Case) (Common, bool) {
	switch c.(type) {
	case ConditionsAssessedUndetermined, ConditionsAssessedApproved, ConditionsAssessedDenied,
		CalculatedApproved, CalculatedDenied, Simulated,
		ReturnedApproved, ReturnedDeniedWithCalculation, ReturnedDeniedWithoutCalculation:
		return c.Info(), true
	default:
		return Common{}, false
	}
}

// reassessed derives the conditions state from the aggregate verdict. Any
// calculation, simulation and pending offset are dropped; the case has to be
// calculated and simulated again.
func reassessed(op string, common Common, cmd Command, action workflow.Action) (Case, error) {
	common = common.record(cmd.Actor, cmd.At, action)
	common.Offset = nil

	switch verdict := common.Conditions.Verdict(); verdict {
	case condition.VerdictApproved:
		return build(op, ConditionsAssessedApproved{Common: common})
	case condition.VerdictDenied:
		return build(op, ConditionsAssessedDenied{Common: common})
	case condition.VerdictUndetermined:
		return build(op, ConditionsAssessedUndetermined{Common: common})
	default:
		return nil, invariant(common.ID, op, "unknown aggregate verdict %q", verdict)
	}
}

// AssessCondition records the assessment of one or more conditions as a
// single action
func AssessCondition(c Case, in ConditionInput) (Case, error) {
	common, ok := editable(c)
	if !ok {
		return nil, invalidTransition(c, workflow.ActionAssessCondition)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(in.Conditions) == 0 {
		return nil, ErrEmptyAssessment
	}

	aggregate := common.Conditions
	seen := make(map[condition.Kind]bool, len(in.Conditions))
	for _, cond := range in.Conditions {
		if seen[cond.Kind] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCondition, cond.Kind)
		}
		seen[cond.Kind] = true
		if err := checkCondition(common.Category, common.Period(), cond); err != nil {
			return nil, err
		}
		cond = cond.Clone()
		slices.SortFunc(cond.Assessments, func(a, b condition.Assessment) int {
			return a.Period.From.Compare(b.Period.From)
		})
		aggregate = aggregate.With(cond)
	}

	if _, ok := aggregate.Get(condition.KindDocumentationDuty); !ok {
		// The duty to provide documentation is met unless assessed otherwise
		aggregate = aggregate.With(condition.Condition{
			Kind: condition.KindDocumentationDuty,
			Assessments: []condition.Assessment{
				{Period: common.Period(), Verdict: condition.VerdictApproved},
			},
		})
	}
	common.Conditions = aggregate
	return reassessed("AssessCondition", common, in.Command, workflow.ActionAssessCondition)
}

// UpdateLivingSituations replaces the household composition
func UpdateLivingSituations(c Case, in LivingSituationInput) (Case, error) {
	common, ok := editable(c)
	if !ok {
		return nil, invalidTransition(c, workflow.ActionUpdateLivingSituations)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(in.LivingSituations) == 0 {
		return nil, ErrInvalidLivingSituation
	}

	periods := make([]period.Period, 0, len(in.LivingSituations))
	for _, l := range in.LivingSituations {
		if !l.Kind.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLivingSituation, l.Kind)
		}
		periods = append(periods, l.Period)
	}
	if err := checkAssessmentPeriods(common.Period(), periods); err != nil {
		return nil, err
	}

	situations := slices.Clone(in.LivingSituations)
	slices.SortFunc(situations, func(a, b condition.LivingSituation) int {
		return a.Period.From.Compare(b.Period.From)
	})
	common.Grounds.LivingSituations = situations
	return reassessed("UpdateLivingSituations", common, in.Command, workflow.ActionUpdateLivingSituations)
}

// UpdateDeductions replaces every deduction
func UpdateDeductions(c Case, in DeductionInput) (Case, error) {
	common, ok := editable(c)
	if !ok {
		return nil, invalidTransition(c, workflow.ActionUpdateDeductions)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	for _, d := range in.Deductions {
		if err := checkDeduction(common.Period(), d); err != nil {
			return nil, err
		}
	}

	common.Grounds.Deductions = slices.Clone(in.Deductions)
	return reassessed("UpdateDeductions", common, in.Command, workflow.ActionUpdateDeductions)
}

func checkDeduction(target period.Period, d condition.Deduction) error {
	switch d.Type {
	case condition.DeductionWorkIncome, condition.DeductionCapitalIncome, condition.DeductionPension,
		condition.DeductionSocialBenefits, condition.DeductionChildSupport, condition.DeductionOther:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidDeduction, d.Type)
	}
	if d.Owner != condition.OwnerApplicant && d.Owner != condition.OwnerSpouse {
		return fmt.Errorf("%w: owner %q", ErrInvalidDeduction, d.Owner)
	}
	if d.MonthlyAmount < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidDeduction)
	}
	if err := d.Period.Validate(); err != nil {
		return err
	}
	if !target.Contains(d.Period) {
		return fmt.Errorf("%w: %s is not inside %s", ErrPeriodOutsideBenefitPeriod, d.Period, target)
	}
	return nil
}
