package casework

import (
	"fmt"
	"time"

	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

const (
	maxPeriodMonths = 12

	minDisabilityAge = 18
	retirementAge    = 67
)

// EarliestMonth is the first month the benefit can be granted for
var EarliestMonth = period.NewMonth(2021, time.January)

// PeriodInput is the command to change the benefit period. BirthDate feeds the
// age assessment, ExistingPeriods are the sak's already decided periods.
type PeriodInput struct {
	Command
	Period          period.Period
	BirthDate       *time.Time
	ExistingPeriods []period.Period
}

// checkPeriodRules validates a benefit period against the sak's history
func checkPeriodRules(p period.Period, existing []period.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Length() > maxPeriodMonths {
		return fmt.Errorf("%w: %s", ErrPeriodTooLong, p)
	}
	if p.From.Before(EarliestMonth) {
		return fmt.Errorf("%w: %s", ErrPeriodTooEarly, p)
	}
	for _, e := range existing {
		if p.Overlaps(e) {
			return fmt.Errorf("%w: %s", ErrPeriodOverlapsExisting, e)
		}
	}
	return nil
}

// assessAge checks the applicant's age against the category's age rule for the
// whole period
func assessAge(category condition.Category, birth *time.Time, p period.Period) (AgeAssessment, error) {
	if birth == nil || birth.IsZero() {
		return AgeAssessment{}, ErrAgeUnknown
	}
	a := AgeAssessment{
		BirthDate:  *birth,
		AgeAtStart: ageAt(*birth, p.From.FirstDay()),
		AgeAtEnd:   ageAt(*birth, p.To.LastDay()),
	}
	switch category {
	case condition.CategoryDisability:
		a.Rule = AgeRuleDisability
		if a.AgeAtStart < minDisabilityAge || a.AgeAtEnd >= retirementAge {
			return AgeAssessment{}, fmt.Errorf("%w: %d-%d for %s", ErrAgeOutsideRange, a.AgeAtStart, a.AgeAtEnd, category)
		}
	case condition.CategoryAge:
		a.Rule = AgeRuleAge
		if a.AgeAtStart < retirementAge {
			return AgeAssessment{}, fmt.Errorf("%w: %d for %s", ErrAgeOutsideRange, a.AgeAtStart, category)
		}
	default:
		return AgeAssessment{}, ErrInvalidCategory
	}
	return a, nil
}

// ageAt returns the age in whole years on day
func ageAt(birth, day time.Time) int {
	age := day.Year() - birth.Year()
	if day.Month() < birth.Month() || (day.Month() == birth.Month() && day.Day() < birth.Day()) {
		age--
	}
	return age
}

// UpdateBenefitPeriod changes the period the application is processed for.
// Assessed conditions and grounds are re-fitted to the new period and the case
// drops back to a conditions state.
func UpdateBenefitPeriod(c Case, in PeriodInput) (Case, error) {
	common, ok := editable(c)
	if !ok {
		return nil, invalidTransition(c, workflow.ActionUpdateBenefitPeriod)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := checkPeriodRules(in.Period, in.ExistingPeriods); err != nil {
		return nil, err
	}
	age, err := assessAge(common.Category, in.BirthDate, in.Period)
	if err != nil {
		return nil, err
	}

	common.BenefitPeriod = BenefitPeriod{Period: in.Period, Age: age}
	common.Conditions = common.Conditions.WithPeriod(in.Period)
	common.Grounds = common.Grounds.WithPeriod(in.Period)
	return reassessed("UpdateBenefitPeriod", common, in.Command, workflow.ActionUpdateBenefitPeriod)
}
