package casework

import (
	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// CalculateInput is the command to calculate a case. Offset is the sak's open
// overpayment offset, if any; it is attached to the case and deducted from the
// calculated amount.
type CalculateInput struct {
	Command
	Calculator calculation.Calculator
	Offset     *OffsetRecord
}

// Calculate derives the benefit amount. Only a case whose conditions are all
// approved can be calculated; any other conditions state must be assessed first.
func Calculate(c Case, in CalculateInput) (Case, error) {
	const op = "Calculate"

	switch c.(type) {
	case ConditionsAssessedApproved, CalculatedApproved, CalculatedDenied, Simulated,
		ReturnedApproved, ReturnedDeniedWithCalculation:
	default:
		return nil, invalidTransition(c, workflow.ActionCalculate)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	common := c.Info()
	if in.Calculator == nil {
		return nil, invariant(common.ID, op, "no calculator")
	}

	common.Offset = nil
	if rec := in.Offset; rec != nil && rec.Status == OffsetRecordOpen && rec.SakID == common.SakID {
		common.Offset = &Offset{ID: rec.ID, Amount: rec.Amount, Status: OffsetPending}
	}
	var offsetAmount int64
	if common.Offset != nil {
		offsetAmount = common.Offset.Amount
	}

	calc, err := in.Calculator.Calculate(calculation.Request{
		CaseID:       common.ID,
		Period:       common.Period(),
		Category:     common.Category,
		Grounds:      common.Grounds.Clone(),
		OffsetAmount: offsetAmount,
		At:           in.At,
	})
	if err != nil {
		return nil, &CalculationFailedError{Err: err}
	}

	common = common.record(in.Actor, in.At, workflow.ActionCalculate)
	if _, denied := calc.DenialGround(); denied {
		return build(op, CalculatedDenied{Common: common, Calculation: calc})
	}
	return build(op, CalculatedApproved{Common: common, Calculation: calc})
}
