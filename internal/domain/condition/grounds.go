package condition

import (
	"slices"

	"github.com/garyjia/benefit-casework/internal/domain/period"
)

// LivingKind describes who the applicant lives with
type LivingKind string

const (
	// Provisional kinds, registered before the household is fully known
	LivingUndecided       LivingKind = "UNDECIDED"
	LivingSpouseUndecided LivingKind = "SPOUSE_UNDECIDED"

	LivingAlone                 LivingKind = "ALONE"
	LivingSharesHousing         LivingKind = "SHARES_HOUSING"
	LivingSpouseUnder67         LivingKind = "SPOUSE_UNDER_67"
	LivingSpouse67OrOlder       LivingKind = "SPOUSE_67_OR_OLDER"
	LivingSpouseDisabledRefugee LivingKind = "SPOUSE_DISABLED_REFUGEE"
)

// IsValid returns true if the kind is a known value
func (k LivingKind) IsValid() bool {
	switch k {
	case LivingUndecided, LivingSpouseUndecided, LivingAlone, LivingSharesHousing,
		LivingSpouseUnder67, LivingSpouse67OrOlder, LivingSpouseDisabledRefugee:
		return true
	default:
		return false
	}
}

// LivingSituation is the household composition for a period
type LivingSituation struct {
	Period period.Period `json:"period"`
	Kind   LivingKind    `json:"kind"`
}

// Complete reports whether the living situation is fully specified
func (l LivingSituation) Complete() bool {
	return l.Kind != LivingUndecided && l.Kind != LivingSpouseUndecided
}

// HasSpouse reports whether the applicant has a spouse or partner
func (l LivingSituation) HasSpouse() bool {
	switch l.Kind {
	case LivingSpouseUndecided, LivingSpouseUnder67, LivingSpouse67OrOlder, LivingSpouseDisabledRefugee:
		return true
	default:
		return false
	}
}

// HighRate reports whether the high rate applies
func (l LivingSituation) HighRate() bool {
	return l.Kind == LivingAlone
}

// DeductionType classifies a deduction
type DeductionType string

const (
	DeductionWorkIncome     DeductionType = "WORK_INCOME"
	DeductionCapitalIncome  DeductionType = "CAPITAL_INCOME"
	DeductionPension        DeductionType = "PENSION"
	DeductionSocialBenefits DeductionType = "SOCIAL_BENEFITS"
	DeductionChildSupport   DeductionType = "CHILD_SUPPORT"
	DeductionOther          DeductionType = "OTHER"
)

// Owner identifies whose income a deduction is
type Owner string

const (
	OwnerApplicant Owner = "APPLICANT"
	OwnerSpouse    Owner = "SPOUSE"
)

// Deduction is a monthly income that reduces the benefit for a period
type Deduction struct {
	Type          DeductionType `json:"type"`
	MonthlyAmount int64         `json:"monthly_amount"`
	Period        period.Period `json:"period"`
	Owner         Owner         `json:"owner"`
}

// Grounds holds the data the calculation is based on
type Grounds struct {
	LivingSituations []LivingSituation `json:"living_situations"`
	Deductions       []Deduction       `json:"deductions"`
}

// LivingSituationsComplete reports whether every living situation is fully specified
func (g Grounds) LivingSituationsComplete() bool {
	for _, l := range g.LivingSituations {
		if !l.Complete() {
			return false
		}
	}
	return true
}

// LivingSituationPeriods returns the living situation periods in stored order
func (g Grounds) LivingSituationPeriods() []period.Period {
	periods := make([]period.Period, len(g.LivingSituations))
	for i, l := range g.LivingSituations {
		periods[i] = l.Period
	}
	return periods
}

// LivingSituationIn returns the living situation covering month m
func (g Grounds) LivingSituationIn(m period.Month) (LivingSituation, bool) {
	for _, l := range g.LivingSituations {
		if l.Period.ContainsMonth(m) {
			return l, true
		}
	}
	return LivingSituation{}, false
}

// DeductionsIn returns the deductions active in month m
func (g Grounds) DeductionsIn(m period.Month) []Deduction {
	var out []Deduction
	for _, d := range g.Deductions {
		if d.Period.ContainsMonth(m) {
			out = append(out, d)
		}
	}
	return out
}

// WithPeriod re-fits grounds to p. A single living situation is stretched to p,
// otherwise living situations are clipped. Deductions are clipped and dropped
// when they fall outside p.
func (g Grounds) WithPeriod(p period.Period) Grounds {
	out := Grounds{}
	if len(g.LivingSituations) == 1 {
		out.LivingSituations = []LivingSituation{{Period: p, Kind: g.LivingSituations[0].Kind}}
	} else {
		for _, l := range g.LivingSituations {
			if clipped, ok := l.Period.Intersect(p); ok {
				out.LivingSituations = append(out.LivingSituations, LivingSituation{Period: clipped, Kind: l.Kind})
			}
		}
	}
	for _, d := range g.Deductions {
		if clipped, ok := d.Period.Intersect(p); ok {
			d.Period = clipped
			out.Deductions = append(out.Deductions, d)
		}
	}
	return out
}

// Clone returns a deep copy
func (g Grounds) Clone() Grounds {
	return Grounds{
		LivingSituations: slices.Clone(g.LivingSituations),
		Deductions:       slices.Clone(g.Deductions),
	}
}
