package casework

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// Rejections. These are expected in normal operation and are shown to the
// caseworker as actionable feedback.
var (
	ErrMissingActor              = errors.New("actor is required")
	ErrMissingID                 = errors.New("case id is required")
	ErrInvalidCategory           = errors.New("invalid benefit category")
	ErrSamePreparerAndApprover   = errors.New("approver cannot be the same person as the preparer")
	ErrIncompleteLivingSituation = errors.New("living situation is incomplete")
	ErrSimulationHasOverpayment  = errors.New("simulation shows an overpayment")
	ErrOffsetAlreadyResolved     = errors.New("overpayment offset already consumed or annulled")
	ErrMissingReason             = errors.New("a rejection needs at least one rework ground")
	ErrInvalidReworkGround       = errors.New("invalid rework ground")
	ErrInvalidClosure            = errors.New("invalid closure")

	ErrAlreadyClosed           = errors.New("case is already closed")
	ErrAlreadyDecided          = errors.New("case is already decided")
	ErrClosePendingAttestation = errors.New("case cannot be closed while attestation is pending")

	ErrConditionNotApplicable     = errors.New("condition does not apply to the benefit category")
	ErrEmptyAssessment            = errors.New("condition has no assessments")
	ErrInvalidVerdict             = errors.New("invalid verdict")
	ErrMixedVerdicts              = errors.New("condition has more than one verdict")
	ErrDuplicateCondition         = errors.New("condition is given more than once")
	ErrPeriodOutsideBenefitPeriod = errors.New("period lies outside the benefit period")
	ErrOverlappingPeriods         = errors.New("periods overlap")
	ErrIncompleteCoverage         = errors.New("periods do not cover the benefit period")
	ErrInvalidLivingSituation     = errors.New("invalid living situation")
	ErrInvalidDeduction           = errors.New("invalid deduction")

	ErrAgeUnknown             = errors.New("applicant birth date is unknown")
	ErrAgeOutsideRange        = errors.New("applicant age is outside the supported range")
	ErrPeriodTooLong          = errors.New("benefit period is longer than 12 months")
	ErrPeriodTooEarly         = errors.New("benefit period starts before the earliest supported month")
	ErrPeriodOverlapsExisting = errors.New("benefit period overlaps an already decided period")

	ErrSimulationPeriodMismatch = errors.New("simulation does not match the benefit period")
)

// InvalidTransitionError is returned when an action is not permitted from the
// case's current status
type InvalidTransitionError struct {
	From   workflow.Status
	Action workflow.Action
	Reason error
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("cannot %s from %s: %v", e.Action, e.From, e.Reason)
	}
	return fmt.Sprintf("cannot %s from %s", e.Action, e.From)
}

// Unwrap exposes both the generic and the specific reason
func (e *InvalidTransitionError) Unwrap() []error {
	if e.Reason != nil {
		return []error{workflow.ErrInvalidTransition, e.Reason}
	}
	return []error{workflow.ErrInvalidTransition}
}

// CalculationFailedError wraps an error from the calculator
type CalculationFailedError struct {
	Err error
}

func (e *CalculationFailedError) Error() string {
	return fmt.Sprintf("calculation failed: %v", e.Err)
}

func (e *CalculationFailedError) Unwrap() error {
	return e.Err
}

// SimulationFailedError wraps an error from the payment simulation
type SimulationFailedError struct {
	Err error
}

func (e *SimulationFailedError) Error() string {
	return fmt.Sprintf("simulation failed: %v", e.Err)
}

func (e *SimulationFailedError) Unwrap() error {
	return e.Err
}

// InvariantError reports a state that earlier validation should have made
// impossible. It is fatal: callers log it and abort instead of showing it to
// the caseworker. Detail may carry personal or financial data and must only be
// written to the secure log.
type InvariantError struct {
	CaseID uuid.UUID
	Op     string
	Reason string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s for case %s: %s", e.Op, e.CaseID, e.Reason)
}

// IsFatal reports whether err is an invariant violation
func IsFatal(err error) bool {
	var invariant *InvariantError
	return errors.As(err, &invariant)
}

func invariant(caseID uuid.UUID, op, format string, args ...any) *InvariantError {
	return &InvariantError{CaseID: caseID, Op: op, Reason: fmt.Sprintf(format, args...)}
}

func invalidTransition(c Case, action workflow.Action) error {
	return &InvalidTransitionError{From: StatusOf(c), Action: action}
}
