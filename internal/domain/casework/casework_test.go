package casework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

func TestHappyPath(t *testing.T) {
	c := newCase(t)
	require.Equal(t, workflow.StatusConditionsAssessedUndetermined, StatusOf(c))
	assert.Empty(t, c.Info().History)

	c = assessAll(t, c, nil)
	require.Equal(t, workflow.StatusConditionsAssessedApproved, StatusOf(c))

	c, err := Calculate(c, CalculateInput{Command: cmd(preparerA), Calculator: fixedCalculator(20000)})
	require.NoError(t, err)
	require.Equal(t, workflow.StatusCalculatedApproved, StatusOf(c))

	c, err = Simulate(c, SimulateInput{Command: cmd(preparerA), Simulator: paymentSimulator(0)})
	require.NoError(t, err)
	require.Equal(t, workflow.StatusSimulated, StatusOf(c))

	c, err = SendForAttestation(c, SendInput{Command: cmd(preparerA)})
	require.NoError(t, err)
	require.Equal(t, workflow.StatusAwaitingAttestationApproved, StatusOf(c))

	c, err = Approve(c, ApproveInput{Command: cmd(approverB)})
	require.NoError(t, err)

	decided, ok := c.(DecidedApproved)
	require.True(t, ok, "got %T", c)
	assert.Len(t, decided.History, 5)
	assert.Equal(t, []workflow.Action{
		workflow.ActionAssessCondition,
		workflow.ActionCalculate,
		workflow.ActionSimulate,
		workflow.ActionSendForAttestation,
		workflow.ActionApprove,
	}, actions(decided.History))

	preparer, _ := PreparerOf(c)
	approver, _ := LatestApproverOf(c)
	assert.Equal(t, preparerA, preparer)
	assert.Equal(t, approverB, approver)
	assert.NotEqual(t, preparer, approver)
	assert.Equal(t, int64(12*20000), decided.Calculation.Total())
	assert.True(t, IsTerminal(c))
}

func TestSamePersonRejection(t *testing.T) {
	c := awaitingApproved(t)

	out, err := Approve(c, ApproveInput{Command: cmd(preparerA)})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrSamePreparerAndApprover)
	assert.Equal(t, workflow.StatusAwaitingAttestationApproved, StatusOf(c))
	assert.Len(t, c.Info().History, 4)
	assert.Empty(t, c.Info().Attestations)
}

func TestReworkLoop(t *testing.T) {
	c := awaitingApproved(t)
	before := c.(AwaitingAttestationApproved)

	returned, err := Reject(c, RejectInput{Command: cmd(approverB), Reason: rejectReason()})
	require.NoError(t, err)

	r, ok := returned.(ReturnedApproved)
	require.True(t, ok, "got %T", returned)
	assert.Equal(t, before.Conditions, r.Conditions)
	assert.Equal(t, before.Calculation, r.Calculation)
	assert.Equal(t, before.Simulation, r.Simulation)
	assert.Equal(t, preparerA, r.Preparer)

	latest, ok := r.Attestations.Latest()
	require.True(t, ok)
	assert.Equal(t, AttestationRejected, latest.Verdict)
	assert.Equal(t, "insufficient documentation", latest.Reason.Comment)

	edited, err := AssessCondition(returned, ConditionInput{
		Command: cmd(preparerA),
		Conditions: []condition.Condition{{
			Kind:        condition.KindWealth,
			Assessments: []condition.Assessment{{Period: year2024, Verdict: condition.VerdictApproved}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusConditionsAssessedApproved, StatusOf(edited))
	_, hasCalc := CalculationOf(edited)
	assert.False(t, hasCalc)
	// attestation log survives rework
	assert.Len(t, edited.Info().Attestations, 1)
}

func TestNoStaleDerivedData(t *testing.T) {
	deny := map[condition.Kind]condition.Verdict{condition.KindInstitution: condition.VerdictDenied}

	edits := map[string]func(Case) (Case, error){
		"assess": func(c Case) (Case, error) {
			return AssessCondition(c, ConditionInput{Command: cmd(preparerA), Conditions: conditionsWith(condition.CategoryDisability, year2024, deny)})
		},
		"living situations": func(c Case) (Case, error) {
			return UpdateLivingSituations(c, LivingSituationInput{
				Command:          cmd(preparerA),
				LivingSituations: []condition.LivingSituation{{Period: year2024, Kind: condition.LivingSharesHousing}},
			})
		},
		"deductions": func(c Case) (Case, error) {
			return UpdateDeductions(c, DeductionInput{
				Command: cmd(preparerA),
				Deductions: []condition.Deduction{{
					Type: condition.DeductionPension, MonthlyAmount: 1000, Period: year2024, Owner: condition.OwnerApplicant,
				}},
			})
		},
	}
	starts := map[string]func(*testing.T) Case{
		"calculated approved": func(t *testing.T) Case { return calculated(t, 20000) },
		"calculated denied":   func(t *testing.T) Case { return calculated(t, 0) },
		"simulated":           simulated,
		"returned": func(t *testing.T) Case {
			c, err := Reject(awaitingApproved(t), RejectInput{Command: cmd(approverB), Reason: rejectReason()})
			require.NoError(t, err)
			return c
		},
	}

	for startName, start := range starts {
		for editName, edit := range edits {
			t.Run(startName+"/"+editName, func(t *testing.T) {
				out, err := edit(start(t))
				require.NoError(t, err)

				_, hasCalc := CalculationOf(out)
				_, hasSim := SimulationOf(out)
				assert.False(t, hasCalc)
				assert.False(t, hasSim)
				assert.Nil(t, out.Info().Offset)

				switch out.(type) {
				case ConditionsAssessedUndetermined, ConditionsAssessedApproved, ConditionsAssessedDenied:
				default:
					t.Errorf("expected a conditions state, got %T", out)
				}
			})
		}
	}
}

func TestEditsRejectedWhileAwaitingAttestation(t *testing.T) {
	c := awaitingApproved(t)

	_, err := AssessCondition(c, ConditionInput{Command: cmd(preparerA), Conditions: conditionsWith(condition.CategoryDisability, year2024, nil)})
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, workflow.StatusAwaitingAttestationApproved, invalid.From)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	_, err = Calculate(c, CalculateInput{Command: cmd(preparerA), Calculator: fixedCalculator(20000)})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	_, err = UpdateLetterNote(c, "note")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestDenialGroundsAreOrdered(t *testing.T) {
	deny := map[condition.Kind]condition.Verdict{
		condition.KindWealth:     condition.VerdictDenied,
		condition.KindDisability: condition.VerdictDenied,
		condition.KindAbroad:     condition.VerdictDenied,
	}
	c := assessAll(t, newCase(t), deny)
	require.Equal(t, workflow.StatusConditionsAssessedDenied, StatusOf(c))

	want := []condition.Ground{
		condition.GroundNotDisabled,
		condition.GroundAbroad,
		condition.GroundWealthAboveLimit,
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, DenialGroundsOf(c))
	}
}

func TestDenialGroundsWithCalculation(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   []condition.Ground
	}{
		{"nothing left to pay", 0, []condition.Ground{condition.GroundTooHighIncome}},
		{"below minimum", 100, []condition.Ground{condition.GroundBelowMinimumPayable}},
		{"payable", 20000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := calculated(t, tt.amount)
			assert.Equal(t, tt.want, DenialGroundsOf(c))
			calc, ok := CalculationOf(c)
			require.True(t, ok)
			assert.Equal(t, DenialGroundsOf(c), DenialGrounds(c.Info().Conditions, &calc))
		})
	}
}

func TestCalculateRequiresApprovedConditions(t *testing.T) {
	tests := []struct {
		name string
		c    func(*testing.T) Case
	}{
		{"undetermined", newCase},
		{"denied", func(t *testing.T) Case {
			return assessAll(t, newCase(t), map[condition.Kind]condition.Verdict{condition.KindAbroad: condition.VerdictDenied})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.c(t), CalculateInput{Command: cmd(preparerA), Calculator: fixedCalculator(20000)})
			assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
		})
	}
}

func TestCalculateWrapsCalculatorError(t *testing.T) {
	c := assessAll(t, newCase(t), nil)
	boom := errors.New("boom")

	_, err := Calculate(c, CalculateInput{
		Command: cmd(preparerA),
		Calculator: calculation.CalculatorFunc(func(calculation.Request) (calculation.Calculation, error) {
			return calculation.Calculation{}, boom
		}),
	})

	var failed *CalculationFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsFatal(err))
}

func TestSimulateWrapsSimulatorError(t *testing.T) {
	boom := errors.New("payment engine unavailable")
	_, err := Simulate(calculated(t, 20000), SimulateInput{
		Command:   cmd(preparerA),
		Simulator: SimulatorFunc(func(SimulationRequest) (simulation.Simulation, error) {
			return simulation.Simulation{}, boom
		}),
	})

	var failed *SimulationFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, boom)
}

func TestSimulateRejectsDeniedCalculation(t *testing.T) {
	_, err := Simulate(calculated(t, 0), SimulateInput{Command: cmd(preparerA), Simulator: paymentSimulator(0)})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestPeriodCoverage(t *testing.T) {
	cases := map[string]Case{
		"calculated": calculated(t, 20000),
		"awaiting":   awaitingApproved(t),
	}
	decided, err := Approve(awaitingApproved(t), ApproveInput{Command: cmd(approverB)})
	require.NoError(t, err)
	cases["decided"] = decided

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			info := c.Info()
			for _, cond := range info.Conditions.Conditions {
				periods := cond.Periods()
				assert.True(t, period.CoversExactly(periods, info.Period()), "%s", cond.Kind)
			}
			span, ok := info.Conditions.Period()
			require.True(t, ok)
			assert.Equal(t, info.Period(), span)
		})
	}
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	c := simulated(t)
	before := SnapshotOf(c)

	_, err := SendForAttestation(c, SendInput{Command: cmd(preparerA)})
	require.NoError(t, err)
	_, err = AssessCondition(c, ConditionInput{Command: cmd(preparerA), Conditions: conditionsWith(condition.CategoryDisability, year2024, nil)})
	require.NoError(t, err)

	assert.Equal(t, before, SnapshotOf(c))
}

func TestUpdateLetterNoteAndTask(t *testing.T) {
	c := simulated(t)
	history := len(c.Info().History)

	out, err := UpdateLetterNote(c, "  Income from abroad was considered.  ")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSimulated, StatusOf(out))
	assert.Equal(t, "Income from abroad was considered.", out.Info().LetterNote)
	assert.Len(t, out.Info().History, history)

	awaiting := awaitingApproved(t)
	out, err = UpdateTask(awaiting, "task-2")
	require.NoError(t, err)
	assert.Equal(t, "task-2", out.Info().TaskID)
	assert.Equal(t, workflow.StatusAwaitingAttestationApproved, StatusOf(out))

	decided, err := Approve(awaiting, ApproveInput{Command: cmd(approverB)})
	require.NoError(t, err)
	_, err = UpdateTask(decided, "task-3")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func actions(h History) []workflow.Action {
	out := make([]workflow.Action, len(h))
	for i, e := range h {
		out[i] = e.Action
	}
	return out
}
