// Package condition models the eligibility conditions of a case and the
// grounds (living situations and deductions) they are assessed against.
package condition

import (
	"slices"

	"github.com/garyjia/benefit-casework/internal/domain/period"
)

// Verdict is the outcome of assessing a condition
type Verdict string

const (
	VerdictApproved     Verdict = "APPROVED"
	VerdictDenied       Verdict = "DENIED"
	VerdictUndetermined Verdict = "UNDETERMINED"
)

// IsValid returns true if the verdict is a known value
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictApproved, VerdictDenied, VerdictUndetermined:
		return true
	default:
		return false
	}
}

// Category is the benefit category, each with its own rule set
type Category string

const (
	CategoryDisability Category = "DISABILITY"
	CategoryAge        Category = "AGE"
)

// IsValid returns true if the category is a known value
func (c Category) IsValid() bool {
	return c == CategoryDisability || c == CategoryAge
}

// Kind identifies an eligibility condition
type Kind string

const (
	KindDisability          Kind = "DISABILITY"
	KindRefugee             Kind = "REFUGEE"
	KindPension             Kind = "PENSION"
	KindFamilyReunification Kind = "FAMILY_REUNIFICATION"
	KindLawfulResidence     Kind = "LAWFUL_RESIDENCE"
	KindPermanentResidence  Kind = "PERMANENT_RESIDENCE"
	KindInstitution         Kind = "INSTITUTION"
	KindAbroad              Kind = "ABROAD"
	KindWealth              Kind = "WEALTH"
	KindPersonalAttendance  Kind = "PERSONAL_ATTENDANCE"
	KindDocumentationDuty   Kind = "DOCUMENTATION_DUTY"
)

// Conditions are listed in the order their denial grounds appear in letters.
var requiredKinds = map[Category][]Kind{
	CategoryDisability: {
		KindDisability,
		KindRefugee,
		KindLawfulResidence,
		KindPermanentResidence,
		KindInstitution,
		KindAbroad,
		KindWealth,
		KindPersonalAttendance,
		KindDocumentationDuty,
	},
	CategoryAge: {
		KindPension,
		KindFamilyReunification,
		KindLawfulResidence,
		KindPermanentResidence,
		KindInstitution,
		KindAbroad,
		KindWealth,
		KindPersonalAttendance,
		KindDocumentationDuty,
	},
}

// RequiredKinds returns the conditions assessed for a category, in letter order
func RequiredKinds(category Category) []Kind {
	return slices.Clone(requiredKinds[category])
}

// AppliesTo reports whether the condition is assessed for the category
func (k Kind) AppliesTo(category Category) bool {
	return slices.Contains(requiredKinds[category], k)
}

// Ground is a denial ground used in decision letters
type Ground string

const (
	GroundNotDisabled           Ground = "NOT_DISABLED"
	GroundNotRefugee            Ground = "NOT_REFUGEE"
	GroundNoPension             Ground = "NO_PENSION"
	GroundFamilyReunification   Ground = "FAMILY_REUNIFICATION"
	GroundNoLawfulResidence     Ground = "NO_LAWFUL_RESIDENCE"
	GroundNoPermanentResidence  Ground = "NO_PERMANENT_RESIDENCE"
	GroundInstitution           Ground = "INSTITUTION"
	GroundAbroad                Ground = "ABROAD"
	GroundWealthAboveLimit      Ground = "WEALTH_ABOVE_LIMIT"
	GroundNoPersonalAttendance  Ground = "NO_PERSONAL_ATTENDANCE"
	GroundDocumentationNotGiven Ground = "DOCUMENTATION_NOT_GIVEN"
	GroundTooHighIncome         Ground = "TOO_HIGH_INCOME"
	GroundBelowMinimumPayable   Ground = "BELOW_MINIMUM_PAYABLE"
)

var groundByKind = map[Kind]Ground{
	KindDisability:          GroundNotDisabled,
	KindRefugee:             GroundNotRefugee,
	KindPension:             GroundNoPension,
	KindFamilyReunification: GroundFamilyReunification,
	KindLawfulResidence:     GroundNoLawfulResidence,
	KindPermanentResidence:  GroundNoPermanentResidence,
	KindInstitution:         GroundInstitution,
	KindAbroad:              GroundAbroad,
	KindWealth:              GroundWealthAboveLimit,
	KindPersonalAttendance:  GroundNoPersonalAttendance,
	KindDocumentationDuty:   GroundDocumentationNotGiven,
}

// DenialGround returns the ground used when the condition is denied
func (k Kind) DenialGround() Ground {
	return groundByKind[k]
}

// Assessment is a verdict for one period of a condition
type Assessment struct {
	Period  period.Period `json:"period"`
	Verdict Verdict       `json:"verdict"`
}

// Condition is one eligibility condition with its period-scoped assessments
type Condition struct {
	Kind        Kind         `json:"kind"`
	Assessments []Assessment `json:"assessments"`
}

// Periods returns the assessment periods in stored order
func (c Condition) Periods() []period.Period {
	periods := make([]period.Period, len(c.Assessments))
	for i, a := range c.Assessments {
		periods[i] = a.Period
	}
	return periods
}

// HasSingleVerdict reports whether every assessment shares one verdict
func (c Condition) HasSingleVerdict() bool {
	for i := 1; i < len(c.Assessments); i++ {
		if c.Assessments[i].Verdict != c.Assessments[0].Verdict {
			return false
		}
	}
	return true
}

// Verdict returns the shared verdict, or undetermined when empty or mixed
func (c Condition) Verdict() Verdict {
	if len(c.Assessments) == 0 || !c.HasSingleVerdict() {
		return VerdictUndetermined
	}
	return c.Assessments[0].Verdict
}

// Clone returns a deep copy
func (c Condition) Clone() Condition {
	return Condition{Kind: c.Kind, Assessments: slices.Clone(c.Assessments)}
}

// Aggregate is the full set of assessed conditions for a case
type Aggregate struct {
	Category   Category    `json:"category"`
	Conditions []Condition `json:"conditions"`
}

// NewAggregate creates an empty aggregate for a category
func NewAggregate(category Category) Aggregate {
	return Aggregate{Category: category}
}

// IsEmpty reports whether no condition has been assessed
func (a Aggregate) IsEmpty() bool {
	return len(a.Conditions) == 0
}

// Get returns the condition of the given kind
func (a Aggregate) Get(kind Kind) (Condition, bool) {
	for _, c := range a.Conditions {
		if c.Kind == kind {
			return c, true
		}
	}
	return Condition{}, false
}

// With returns a copy where the condition replaces any existing one of the same
// kind. Conditions are kept in letter order.
func (a Aggregate) With(c Condition) Aggregate {
	out := Aggregate{Category: a.Category}
	for _, kind := range requiredKinds[a.Category] {
		if kind == c.Kind {
			out.Conditions = append(out.Conditions, c.Clone())
			continue
		}
		if existing, ok := a.Get(kind); ok {
			out.Conditions = append(out.Conditions, existing.Clone())
		}
	}
	return out
}

// Verdict derives the aggregate verdict: denied if any condition is denied,
// approved if every required condition is approved, otherwise undetermined
func (a Aggregate) Verdict() Verdict {
	approved := 0
	for _, kind := range requiredKinds[a.Category] {
		c, ok := a.Get(kind)
		if !ok {
			continue
		}
		switch c.Verdict() {
		case VerdictDenied:
			return VerdictDenied
		case VerdictApproved:
			approved++
		}
	}
	if approved == len(requiredKinds[a.Category]) {
		return VerdictApproved
	}
	return VerdictUndetermined
}

// DenialGrounds returns the grounds of every denied condition in letter order
func (a Aggregate) DenialGrounds() []Ground {
	var grounds []Ground
	for _, kind := range requiredKinds[a.Category] {
		if c, ok := a.Get(kind); ok && c.Verdict() == VerdictDenied {
			grounds = append(grounds, kind.DenialGround())
		}
	}
	return grounds
}

// Period returns the span of every assessment period
func (a Aggregate) Period() (period.Period, bool) {
	var all []period.Period
	for _, c := range a.Conditions {
		all = append(all, c.Periods()...)
	}
	return period.Span(all)
}

// WithPeriod re-fits every condition to p. A condition keeps its verdict and is
// assessed for the whole of p, so split assessments collapse into one. The
// result always covers p, including months past the old period.
func (a Aggregate) WithPeriod(p period.Period) Aggregate {
	out := Aggregate{Category: a.Category}
	for _, c := range a.Conditions {
		if len(c.Assessments) == 0 {
			continue
		}
		out.Conditions = append(out.Conditions, Condition{
			Kind:        c.Kind,
			Assessments: []Assessment{{Period: p, Verdict: c.Verdict()}},
		})
	}
	return out
}

// Clone returns a deep copy
func (a Aggregate) Clone() Aggregate {
	out := Aggregate{Category: a.Category, Conditions: make([]Condition, 0, len(a.Conditions))}
	for _, c := range a.Conditions {
		out.Conditions = append(out.Conditions, c.Clone())
	}
	return out
}
