package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// TransitionFunc computes the next state of a case. It must not write
// anything; it may call out to collaborators such as the payment simulation.
type TransitionFunc func(ctx context.Context, current casework.Case) (casework.Case, error)

// CommitFunc runs inside the transaction that stores the next state, after the
// version check has passed. Returning an error rolls everything back.
type CommitFunc func(txCtx context.Context, previous, next casework.Case) error

// Command is one action on a stored case
type Command struct {
	CaseID uuid.UUID
	Action domainwf.Action
	Actor  casework.Actor
	Apply  TransitionFunc
	Commit CommitFunc
}

// CaseEngine runs case transitions: it loads the case, applies the transition,
// checks the result against the lifecycle table and stores it together with
// the history rows. Transitions on the same case are serialized.
type CaseEngine interface {
	// Create stores a new case built from the allocated case number
	Create(ctx context.Context, build func(number int64) (casework.Case, error)) (*port.StoredCase, error)

	// Execute runs cmd against the stored case and returns the new state
	Execute(ctx context.Context, cmd Command) (*port.StoredCase, error)

	// Load returns the stored case
	Load(ctx context.Context, id uuid.UUID) (*port.StoredCase, error)

	// Permitted returns the actions the lifecycle table allows from the case's status
	Permitted(c casework.Case) []domainwf.Action
}
