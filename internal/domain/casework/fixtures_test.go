package casework

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
)

const (
	preparerA Actor = "A123456"
	approverB Actor = "B654321"
)

var (
	year2024 = period.Year(2024)
	now      = time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)
)

func cmd(actor Actor) Command {
	return Command{Actor: actor, At: now}
}

func birthDate(year int) *time.Time {
	b := time.Date(year, time.May, 17, 0, 0, 0, 0, time.UTC)
	return &b
}

func newCaseInput() NewCase {
	return NewCase{
		Command:         cmd(preparerA),
		ID:              uuid.New(),
		Number:          2021000001,
		SakID:           uuid.New(),
		ApplicantID:     "12345678901",
		ApplicationID:   uuid.New(),
		TaskID:          "task-1",
		Category:        condition.CategoryDisability,
		Period:          year2024,
		BirthDate:       birthDate(1980),
		LivingSituation: condition.LivingAlone,
	}
}

func newCase(t *testing.T) Case {
	t.Helper()
	c, err := Create(newCaseInput())
	require.NoError(t, err)
	return c
}

// conditionsWith assesses every condition of the category over the whole
// period, with the given kinds overridden
func conditionsWith(category condition.Category, p period.Period, overrides map[condition.Kind]condition.Verdict) []condition.Condition {
	var out []condition.Condition
	for _, kind := range condition.RequiredKinds(category) {
		verdict := condition.VerdictApproved
		if v, ok := overrides[kind]; ok {
			verdict = v
		}
		out = append(out, condition.Condition{
			Kind:        kind,
			Assessments: []condition.Assessment{{Period: p, Verdict: verdict}},
		})
	}
	return out
}

func assessAll(t *testing.T, c Case, overrides map[condition.Kind]condition.Verdict) Case {
	t.Helper()
	out, err := AssessCondition(c, ConditionInput{
		Command:    cmd(preparerA),
		Conditions: conditionsWith(c.Info().Category, c.Info().Period(), overrides),
	})
	require.NoError(t, err)
	return out
}

// fixedCalculator pays the same amount every month
func fixedCalculator(amount int64) calculation.Calculator {
	return calculation.CalculatorFunc(func(req calculation.Request) (calculation.Calculation, error) {
		months := make([]calculation.MonthResult, 0, req.Period.Length())
		for _, m := range req.Period.Months() {
			months = append(months, calculation.MonthResult{Month: m, Rate: 25632, Amount: amount, HighRate: true})
		}
		return calculation.Calculation{
			ID:             uuid.New(),
			Period:         req.Period,
			Months:         months,
			MinimumPayable: 513,
			CreatedAt:      req.At,
		}, nil
	})
}

// paymentSimulator echoes the calculation, adding overpayment to every month
func paymentSimulator(overpayment int64) Simulator {
	return SimulatorFunc(func(req SimulationRequest) (simulation.Simulation, error) {
		months := make([]simulation.Month, 0, len(req.Calculation.Months))
		for _, m := range req.Calculation.Months {
			months = append(months, simulation.Month{Month: m.Month, Gross: m.Amount, Overpayment: overpayment})
		}
		return simulation.Simulation{ID: uuid.New(), Period: req.Period, Months: months, SimulatedAt: now}, nil
	})
}

func calculated(t *testing.T, amount int64) Case {
	t.Helper()
	c := assessAll(t, newCase(t), nil)
	out, err := Calculate(c, CalculateInput{Command: cmd(preparerA), Calculator: fixedCalculator(amount)})
	require.NoError(t, err)
	return out
}

func simulated(t *testing.T) Case {
	t.Helper()
	out, err := Simulate(calculated(t, 20000), SimulateInput{Command: cmd(preparerA), Simulator: paymentSimulator(0)})
	require.NoError(t, err)
	return out
}

func awaitingApproved(t *testing.T) Case {
	t.Helper()
	out, err := SendForAttestation(simulated(t), SendInput{Command: cmd(preparerA)})
	require.NoError(t, err)
	return out
}

func awaitingDeniedWithoutCalculation(t *testing.T) Case {
	t.Helper()
	c := assessAll(t, newCase(t), map[condition.Kind]condition.Verdict{condition.KindAbroad: condition.VerdictDenied})
	out, err := SendForAttestation(c, SendInput{Command: cmd(preparerA)})
	require.NoError(t, err)
	return out
}

func awaitingDeniedWithCalculation(t *testing.T) Case {
	t.Helper()
	out, err := SendForAttestation(calculated(t, 100), SendInput{Command: cmd(preparerA)})
	require.NoError(t, err)
	return out
}

func rejectReason() RejectionReason {
	return RejectionReason{Grounds: []ReworkGround{ReworkConditions}, Comment: "insufficient documentation"}
}
