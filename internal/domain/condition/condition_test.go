package condition

import (
	"reflect"
	"testing"
	"time"

	"github.com/garyjia/benefit-casework/internal/domain/period"
)

var year = period.Year(2024)

func assessed(kind Kind, verdicts ...Verdict) Condition {
	c := Condition{Kind: kind}
	if len(verdicts) == 1 {
		c.Assessments = []Assessment{{Period: year, Verdict: verdicts[0]}}
		return c
	}
	months := year.Months()
	step := len(months) / len(verdicts)
	for i, v := range verdicts {
		from := months[i*step]
		to := months[(i+1)*step-1]
		if i == len(verdicts)-1 {
			to = year.To
		}
		c.Assessments = append(c.Assessments, Assessment{Period: period.MustNew(from, to), Verdict: v})
	}
	return c
}

func allApproved(category Category) Aggregate {
	a := NewAggregate(category)
	for _, kind := range RequiredKinds(category) {
		a = a.With(assessed(kind, VerdictApproved))
	}
	return a
}

func TestCondition_Verdict(t *testing.T) {
	tests := []struct {
		name string
		c    Condition
		want Verdict
	}{
		{"empty", Condition{Kind: KindWealth}, VerdictUndetermined},
		{"single approved", assessed(KindWealth, VerdictApproved), VerdictApproved},
		{"split denied", assessed(KindWealth, VerdictDenied, VerdictDenied), VerdictDenied},
		{"mixed", assessed(KindWealth, VerdictApproved, VerdictDenied), VerdictUndetermined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Verdict(); got != tt.want {
				t.Errorf("Verdict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate_Verdict(t *testing.T) {
	approved := allApproved(CategoryDisability)
	if got := approved.Verdict(); got != VerdictApproved {
		t.Errorf("all approved: Verdict() = %v", got)
	}

	partial := NewAggregate(CategoryDisability).With(assessed(KindWealth, VerdictApproved))
	if got := partial.Verdict(); got != VerdictUndetermined {
		t.Errorf("partial: Verdict() = %v", got)
	}

	denied := approved.With(assessed(KindAbroad, VerdictDenied))
	if got := denied.Verdict(); got != VerdictDenied {
		t.Errorf("one denied: Verdict() = %v", got)
	}

	undetermined := approved.With(assessed(KindAbroad, VerdictUndetermined))
	if got := undetermined.Verdict(); got != VerdictUndetermined {
		t.Errorf("one undetermined: Verdict() = %v", got)
	}
}

func TestAggregate_WithKeepsLetterOrder(t *testing.T) {
	a := NewAggregate(CategoryAge).
		With(assessed(KindWealth, VerdictApproved)).
		With(assessed(KindPension, VerdictApproved)).
		With(assessed(KindAbroad, VerdictApproved)).
		With(assessed(KindPension, VerdictDenied))

	var kinds []Kind
	for _, c := range a.Conditions {
		kinds = append(kinds, c.Kind)
	}
	want := []Kind{KindPension, KindAbroad, KindWealth}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
	if c, _ := a.Get(KindPension); c.Verdict() != VerdictDenied {
		t.Error("With() did not replace the existing condition")
	}
}

func TestAggregate_DenialGrounds(t *testing.T) {
	a := allApproved(CategoryDisability).
		With(assessed(KindPersonalAttendance, VerdictDenied)).
		With(assessed(KindDisability, VerdictDenied)).
		With(assessed(KindInstitution, VerdictDenied))

	want := []Ground{GroundNotDisabled, GroundInstitution, GroundNoPersonalAttendance}
	for i := 0; i < 5; i++ {
		if got := a.DenialGrounds(); !reflect.DeepEqual(got, want) {
			t.Fatalf("DenialGrounds() = %v, want %v", got, want)
		}
	}
	if got := allApproved(CategoryDisability).DenialGrounds(); got != nil {
		t.Errorf("approved aggregate has grounds %v", got)
	}
}

func TestKind_AppliesTo(t *testing.T) {
	if !KindDisability.AppliesTo(CategoryDisability) || KindDisability.AppliesTo(CategoryAge) {
		t.Error("disability condition applies to the disability category only")
	}
	if !KindPension.AppliesTo(CategoryAge) || KindPension.AppliesTo(CategoryDisability) {
		t.Error("pension condition applies to the age category only")
	}
	if !KindWealth.AppliesTo(CategoryAge) || !KindWealth.AppliesTo(CategoryDisability) {
		t.Error("wealth condition applies to both categories")
	}
}

func TestAggregate_WithPeriod(t *testing.T) {
	a := NewAggregate(CategoryDisability).With(assessed(KindWealth, VerdictDenied, VerdictDenied))
	p := period.MustNew(period.NewMonth(2024, time.March), period.NewMonth(2024, time.May))

	out := a.WithPeriod(p)
	c, ok := out.Get(KindWealth)
	if !ok {
		t.Fatal("condition lost")
	}
	want := []Assessment{{Period: p, Verdict: VerdictDenied}}
	if !reflect.DeepEqual(c.Assessments, want) {
		t.Errorf("assessments = %v, want %v", c.Assessments, want)
	}
	if span, _ := out.Period(); span != p {
		t.Errorf("Period() = %v, want %v", span, p)
	}
	wider := period.MustNew(period.NewMonth(2023, time.July), period.NewMonth(2024, time.June))
	c, _ = a.WithPeriod(wider).Get(KindWealth)
	if want := []Assessment{{Period: wider, Verdict: VerdictDenied}}; !reflect.DeepEqual(c.Assessments, want) {
		t.Errorf("wider assessments = %v, want %v", c.Assessments, want)
	}
	// original untouched
	if got, _ := a.Get(KindWealth); len(got.Assessments) != 2 {
		t.Error("WithPeriod() mutated the aggregate")
	}
}

func TestGrounds_WithPeriod(t *testing.T) {
	first := period.MustNew(period.NewMonth(2024, time.January), period.NewMonth(2024, time.June))
	second := period.MustNew(period.NewMonth(2024, time.July), period.NewMonth(2024, time.December))
	g := Grounds{
		LivingSituations: []LivingSituation{{Period: first, Kind: LivingAlone}, {Period: second, Kind: LivingSpouseUnder67}},
		Deductions: []Deduction{
			{Type: DeductionPension, MonthlyAmount: 100, Period: first, Owner: OwnerApplicant},
			{Type: DeductionWorkIncome, MonthlyAmount: 200, Period: second, Owner: OwnerSpouse},
		},
	}
	p := period.MustNew(period.NewMonth(2024, time.August), period.NewMonth(2024, time.October))

	out := g.WithPeriod(p)
	if len(out.LivingSituations) != 1 || out.LivingSituations[0].Kind != LivingSpouseUnder67 || out.LivingSituations[0].Period != p {
		t.Errorf("living situations = %v", out.LivingSituations)
	}
	if len(out.Deductions) != 1 || out.Deductions[0].Period != p || out.Deductions[0].Owner != OwnerSpouse {
		t.Errorf("deductions = %v", out.Deductions)
	}
}

func TestLivingSituation(t *testing.T) {
	tests := []struct {
		kind      LivingKind
		complete  bool
		hasSpouse bool
		highRate  bool
	}{
		{LivingUndecided, false, false, false},
		{LivingSpouseUndecided, false, true, false},
		{LivingAlone, true, false, true},
		{LivingSharesHousing, true, false, false},
		{LivingSpouseUnder67, true, true, false},
		{LivingSpouse67OrOlder, true, true, false},
		{LivingSpouseDisabledRefugee, true, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			l := LivingSituation{Period: year, Kind: tt.kind}
			if l.Complete() != tt.complete || l.HasSpouse() != tt.hasSpouse || l.HighRate() != tt.highRate {
				t.Errorf("got complete=%v spouse=%v high=%v", l.Complete(), l.HasSpouse(), l.HighRate())
			}
		})
	}
}
