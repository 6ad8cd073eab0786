package service

import (
	"context"
	"errors"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// ErrorKind groups errors by how a caller should react to them
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
	KindUnprocessable
	KindFatal
)

// Classification is the kind and stable code of an error
type Classification struct {
	Kind ErrorKind
	Code string
}

type rule struct {
	err  error
	kind ErrorKind
	code string
}

// Order matters: the first matching rule wins.
var rules = []rule{
	{port.ErrCaseNotFound, KindNotFound, "CASE_NOT_FOUND"},
	{port.ErrOffsetNotFound, KindNotFound, "OFFSET_NOT_FOUND"},

	{port.ErrConcurrentModification, KindConflict, "CONCURRENT_MODIFICATION"},
	{port.ErrDuplicateCase, KindConflict, "DUPLICATE_CASE"},
	{port.ErrOffsetNotOpen, KindConflict, "OFFSET_NOT_OPEN"},
	{port.ErrOpenOffsetExists, KindConflict, "OPEN_OFFSET_EXISTS"},
	{casework.ErrOffsetAlreadyResolved, KindConflict, "OFFSET_ALREADY_RESOLVED"},
	{casework.ErrAlreadyClosed, KindConflict, "ALREADY_CLOSED"},
	{casework.ErrAlreadyDecided, KindConflict, "ALREADY_DECIDED"},
	{casework.ErrClosePendingAttestation, KindConflict, "CLOSE_PENDING_ATTESTATION"},
	{domainwf.ErrInvalidTransition, KindConflict, "INVALID_TRANSITION"},
	{context.DeadlineExceeded, KindConflict, "CASE_BUSY"},

	{casework.ErrSamePreparerAndApprover, KindUnprocessable, "SAME_PREPARER_AND_APPROVER"},
	{casework.ErrIncompleteLivingSituation, KindUnprocessable, "INCOMPLETE_LIVING_SITUATION"},
	{casework.ErrSimulationHasOverpayment, KindUnprocessable, "SIMULATION_HAS_OVERPAYMENT"},
	{casework.ErrSimulationPeriodMismatch, KindUnprocessable, "SIMULATION_PERIOD_MISMATCH"},
	{casework.ErrIncompleteCoverage, KindUnprocessable, "INCOMPLETE_COVERAGE"},
	{casework.ErrAgeUnknown, KindUnprocessable, "AGE_UNKNOWN"},
	{casework.ErrAgeOutsideRange, KindUnprocessable, "AGE_OUTSIDE_RANGE"},
	{casework.ErrPeriodTooLong, KindUnprocessable, "PERIOD_TOO_LONG"},
	{casework.ErrPeriodTooEarly, KindUnprocessable, "PERIOD_TOO_EARLY"},
	{casework.ErrPeriodOverlapsExisting, KindUnprocessable, "PERIOD_OVERLAPS_EXISTING"},

	{casework.ErrMissingActor, KindInvalidInput, "MISSING_ACTOR"},
	{casework.ErrMissingID, KindInvalidInput, "MISSING_ID"},
	{casework.ErrInvalidCategory, KindInvalidInput, "INVALID_CATEGORY"},
	{casework.ErrMissingReason, KindInvalidInput, "MISSING_REASON"},
	{casework.ErrInvalidReworkGround, KindInvalidInput, "INVALID_REWORK_GROUND"},
	{casework.ErrInvalidClosure, KindInvalidInput, "INVALID_CLOSURE"},
	{casework.ErrConditionNotApplicable, KindInvalidInput, "CONDITION_NOT_APPLICABLE"},
	{casework.ErrEmptyAssessment, KindInvalidInput, "EMPTY_ASSESSMENT"},
	{casework.ErrInvalidVerdict, KindInvalidInput, "INVALID_VERDICT"},
	{casework.ErrMixedVerdicts, KindInvalidInput, "MIXED_VERDICTS"},
	{casework.ErrDuplicateCondition, KindInvalidInput, "DUPLICATE_CONDITION"},
	{casework.ErrPeriodOutsideBenefitPeriod, KindInvalidInput, "PERIOD_OUTSIDE_BENEFIT_PERIOD"},
	{casework.ErrOverlappingPeriods, KindInvalidInput, "OVERLAPPING_PERIODS"},
	{casework.ErrInvalidLivingSituation, KindInvalidInput, "INVALID_LIVING_SITUATION"},
	{casework.ErrInvalidDeduction, KindInvalidInput, "INVALID_DEDUCTION"},
	{period.ErrInvalidMonth, KindInvalidInput, "INVALID_MONTH"},
	{period.ErrEndBeforeStart, KindInvalidInput, "INVALID_PERIOD"},
	{ErrInvalidOffsetAmount, KindInvalidInput, "INVALID_OFFSET_AMOUNT"},
}

// Classify maps an error returned by the service to its kind and code
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}
	if casework.IsFatal(err) {
		return Classification{Kind: KindFatal, Code: "INVARIANT_VIOLATION"}
	}

	// the specific reason of an invalid transition decides before the generic one
	var invalid *casework.InvalidTransitionError
	if errors.As(err, &invalid) && invalid.Reason != nil {
		if c := Classify(invalid.Reason); c.Kind != KindInternal {
			return c
		}
	}

	var calcErr *casework.CalculationFailedError
	if errors.As(err, &calcErr) {
		if errors.Is(err, calculation.ErrMissingLivingSituation) || errors.Is(err, calculation.ErrNegativeDeduction) {
			return Classification{Kind: KindUnprocessable, Code: "CALCULATION_REJECTED"}
		}
		return Classification{Kind: KindUnprocessable, Code: "CALCULATION_FAILED"}
	}
	var simErr *casework.SimulationFailedError
	if errors.As(err, &simErr) {
		return Classification{Kind: KindUnprocessable, Code: "SIMULATION_FAILED"}
	}

	for _, r := range rules {
		if errors.Is(err, r.err) {
			return Classification{Kind: r.kind, Code: r.code}
		}
	}
	return Classification{Kind: KindInternal, Code: "INTERNAL"}
}

// IsRejection reports whether err is an expected refusal that the caller can act on
func IsRejection(err error) bool {
	switch Classify(err).Kind {
	case KindInternal, KindFatal:
		return false
	}
	return err != nil
}
