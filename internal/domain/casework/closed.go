package casework

import (
	"slices"
	"time"

	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// ClosureKind is why the application was closed before a decision
type ClosureKind string

const (
	ClosureWithdrawn          ClosureKind = "WITHDRAWN"
	ClosureInvalidApplication ClosureKind = "INVALID_APPLICATION"
)

// LetterChoice is whether the applicant is told about the closure
type LetterChoice string

const (
	LetterNone        LetterChoice = "NONE"
	LetterInformation LetterChoice = "INFORMATION_LETTER"
)

// Closure is the metadata recorded when an application is closed
type Closure struct {
	Kind         ClosureKind  `json:"kind"`
	LetterChoice LetterChoice `json:"letter_choice"`
	Actor        Actor        `json:"actor"`
	At           time.Time    `json:"at"`
}

func (c Closure) validate() error {
	switch c.Kind {
	case ClosureWithdrawn, ClosureInvalidApplication:
	default:
		return ErrInvalidClosure
	}
	switch c.LetterChoice {
	case LetterNone, LetterInformation:
	default:
		return ErrInvalidClosure
	}
	return nil
}

// Closed wraps the state a case was in when its application was closed. Every
// read goes to the wrapped state; nothing accepts a Closed case as input.
type Closed struct {
	Underlying Case
	Closure    Closure
	History    History
}

func (Closed) isCase() {}

// Info returns the wrapped state's data with the closed case's history
func (c Closed) Info() Common {
	common := c.Underlying.Info()
	common.History = slices.Clone(c.History)
	return common
}

// CloseInput is the command to close a case
type CloseInput struct {
	Command
	Kind         ClosureKind
	LetterChoice LetterChoice
}

// CloseCase closes a case that is neither decided nor in attestation
func CloseCase(c Case, in CloseInput) (Case, error) {
	const op = "CloseCase"

	switch c.(type) {
	case Closed:
		return nil, ErrAlreadyClosed
	case DecidedApproved, DecidedDeniedWithCalculation, DecidedDeniedWithoutCalculation:
		return nil, ErrAlreadyDecided
	case AwaitingAttestationApproved, AwaitingAttestationDeniedWithCalculation, AwaitingAttestationDeniedWithoutCalculation,
		ReturnedApproved, ReturnedDeniedWithCalculation, ReturnedDeniedWithoutCalculation:
		return nil, ErrClosePendingAttestation
	case ConditionsAssessedUndetermined, ConditionsAssessedApproved, ConditionsAssessedDenied,
		CalculatedApproved, CalculatedDenied, Simulated:
	default:
		return nil, invariant(c.Info().ID, op, "unhandled variant %T", c)
	}

	if err := in.validate(); err != nil {
		return nil, err
	}
	closure := Closure{Kind: in.Kind, LetterChoice: in.LetterChoice, Actor: in.Actor, At: in.At}
	if err := closure.validate(); err != nil {
		return nil, err
	}

	return build(op, Closed{
		Underlying: c,
		Closure:    closure,
		History:    c.Info().History.with(Entry{Actor: in.Actor, At: in.At, Action: workflow.ActionClose}),
	})
}
