package port

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/entity"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
)

var (
	// ErrCaseNotFound is returned when no case has the requested id
	ErrCaseNotFound = errors.New("case not found")

	// ErrDuplicateCase is returned when a case id or number is already taken
	ErrDuplicateCase = errors.New("case already exists")

	// ErrConcurrentModification is returned when the stored case changed since
	// it was loaded
	ErrConcurrentModification = errors.New("case was modified concurrently")

	// ErrOffsetNotFound is returned when no offset record has the requested id
	ErrOffsetNotFound = errors.New("offset record not found")

	// ErrOffsetNotOpen is returned when an offset record was already consumed or
	// annulled by the time it is resolved
	ErrOffsetNotOpen = errors.New("offset record is not open")

	// ErrOpenOffsetExists is returned when a sak already has an open offset record
	ErrOpenOffsetExists = errors.New("sak already has an open offset")
)

// StoredCase is a case together with the version it was stored at
type StoredCase struct {
	Case    casework.Case
	Version int64
}

// CaseRepository defines persistence operations for cases
type CaseRepository interface {
	// NextNumber allocates the next case number
	NextNumber(ctx context.Context) (int64, error)

	// Create stores a new case at version 1
	Create(ctx context.Context, c casework.Case) error

	// Get loads a case; ErrCaseNotFound if it does not exist
	Get(ctx context.Context, id uuid.UUID) (*StoredCase, error)

	// Update replaces the stored case if it is still at version and bumps the
	// version; ErrConcurrentModification otherwise
	Update(ctx context.Context, c casework.Case, version int64) error

	// DecidedPeriods returns the benefit periods of the sak's approved
	// decisions, leaving out the case with id exclude
	DecidedPeriods(ctx context.Context, sakID uuid.UUID, exclude uuid.UUID) ([]period.Period, error)

	// List returns case summaries, most recently updated first
	List(ctx context.Context, limit, offset int) ([]*entity.CaseSummary, error)
}

// HistoryRepository defines persistence operations for the case audit trail
type HistoryRepository interface {
	// Append writes entries as consecutive rows after the case's last row
	Append(ctx context.Context, caseID uuid.UUID, from, to domainwf.Status, entries []casework.Entry) error

	// GetByCaseID returns the rows of a case in sequence order
	GetByCaseID(ctx context.Context, caseID uuid.UUID) ([]*entity.CaseHistory, error)
}

// OffsetRepository defines persistence operations for the overpayment offset
// records shared by the cases of a sak
type OffsetRepository interface {
	// Create stores an open record; ErrOpenOffsetExists if the sak has one
	Create(ctx context.Context, rec *casework.OffsetRecord) error

	// GetByID returns ErrOffsetNotFound if the record does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*casework.OffsetRecord, error)

	// GetOpenBySakID returns the sak's open record, or nil if there is none
	GetOpenBySakID(ctx context.Context, sakID uuid.UUID) (*casework.OffsetRecord, error)

	// Consume marks an open record as consumed by caseID; ErrOffsetNotOpen if
	// it is no longer open
	Consume(ctx context.Context, id uuid.UUID, caseID uuid.UUID) error

	// Annul marks an open record as annulled; ErrOffsetNotOpen if it is no
	// longer open
	Annul(ctx context.Context, id uuid.UUID) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
