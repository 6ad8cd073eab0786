package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/entity"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
	"github.com/garyjia/benefit-casework/internal/infrastructure/persistence/sqlstore"
)

// CaseRepository implements port.CaseRepository. A case is stored as a JSON
// snapshot next to the columns needed for lookups.
type CaseRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *sqlstore.DB, logger *zap.Logger) port.CaseRepository {
	return &CaseRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NextNumber allocates the next case number
func (r *CaseRepository) NextNumber(ctx context.Context) (int64, error) {
	query := `UPDATE case_sequence SET last_number = last_number + 1 WHERE id = 1 RETURNING last_number`

	var number int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&number); err != nil {
		r.logger.Error("Failed to allocate case number", zap.Error(err))
		return 0, fmt.Errorf("failed to allocate case number: %w", err)
	}
	return number, nil
}

// Create stores a new case at version 1
func (r *CaseRepository) Create(ctx context.Context, c casework.Case) error {
	rec, err := r.toRecord(c)
	if err != nil {
		return err
	}
	p := c.Info().Period()

	query := `
		INSERT INTO cases (
			id, number, sak_id, applicant_id, status,
			period_from, period_to, version, snapshot, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
	`

	now := r.now()
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Number,
		rec.SakID,
		rec.ApplicantID,
		rec.Status,
		p.From.String(),
		p.To.String(),
		string(rec.Snapshot),
		now,
		now,
	)
	if err != nil {
		if sqlstore.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", port.ErrDuplicateCase, rec.ID)
		}
		r.logger.Error("Failed to create case", zap.String("case_id", rec.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create case: %w", err)
	}

	return nil
}

// Get loads and restores a case
func (r *CaseRepository) Get(ctx context.Context, id uuid.UUID) (*port.StoredCase, error) {
	query := `
		SELECT id, number, sak_id, applicant_id, status, version, snapshot,
			created_at, updated_at
		FROM cases
		WHERE id = ?
	`

	var rec entity.CaseRecord
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Number,
		&rec.SakID,
		&rec.ApplicantID,
		&rec.Status,
		&rec.Version,
		&rec.Snapshot,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", port.ErrCaseNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get case", zap.String("case_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	c, err := fromRecord(&rec)
	if err != nil {
		return nil, err
	}
	return &port.StoredCase{Case: c, Version: rec.Version}, nil
}

// Update replaces the stored case if it is still at version
func (r *CaseRepository) Update(ctx context.Context, c casework.Case, version int64) error {
	rec, err := r.toRecord(c)
	if err != nil {
		return err
	}
	p := c.Info().Period()

	query := `
		UPDATE cases
		SET status = ?, period_from = ?, period_to = ?, snapshot = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.Status,
		p.From.String(),
		p.To.String(),
		string(rec.Snapshot),
		r.now(),
		rec.ID,
		version,
	)
	if err != nil {
		if sqlstore.IsSerializationFailure(err) {
			return port.ErrConcurrentModification
		}
		r.logger.Error("Failed to update case", zap.String("case_id", rec.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update case: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM cases WHERE id = ?`, rec.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", port.ErrCaseNotFound, rec.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to check case: %w", err)
	}
	return fmt.Errorf("%w: %s at version %d", port.ErrConcurrentModification, rec.ID, version)
}

// DecidedPeriods returns the benefit periods of the sak's approved decisions
func (r *CaseRepository) DecidedPeriods(ctx context.Context, sakID uuid.UUID, exclude uuid.UUID) ([]period.Period, error) {
	query := `
		SELECT period_from, period_to
		FROM cases
		WHERE sak_id = ? AND id <> ? AND status = ?
		ORDER BY period_from
	`

	rows, err := r.db.QueryContext(ctx, query, sakID, exclude, domainwf.StatusDecidedApproved.String())
	if err != nil {
		r.logger.Error("Failed to get decided periods", zap.String("sak_id", sakID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get decided periods: %w", err)
	}
	defer rows.Close()

	var periods []period.Period
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		p, err := parsePeriod(from, to)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

// List returns case summaries, most recently updated first
func (r *CaseRepository) List(ctx context.Context, limit, offset int) ([]*entity.CaseSummary, error) {
	query := `
		SELECT id, number, sak_id, applicant_id, status, updated_at
		FROM cases
		ORDER BY updated_at DESC, number DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list cases", zap.Error(err))
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	summaries := []*entity.CaseSummary{}
	for rows.Next() {
		var s entity.CaseSummary
		if err := rows.Scan(&s.ID, &s.Number, &s.SakID, &s.ApplicantID, &s.Status, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan case summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

func (r *CaseRepository) toRecord(c casework.Case) (*entity.CaseRecord, error) {
	info := c.Info()
	snapshot, err := json.Marshal(casework.SnapshotOf(c))
	if err != nil {
		return nil, fmt.Errorf("failed to encode case %s: %w", info.ID, err)
	}
	return &entity.CaseRecord{
		ID:          info.ID,
		Number:      info.Number,
		SakID:       info.SakID,
		ApplicantID: info.ApplicantID,
		Status:      casework.StatusOf(c).String(),
		Snapshot:    snapshot,
	}, nil
}

// fromRecord restores the case held by a row. A snapshot that does not restore
// or disagrees with its row is an invariant violation.
func fromRecord(rec *entity.CaseRecord) (casework.Case, error) {
	var s casework.Snapshot
	if err := json.Unmarshal(rec.Snapshot, &s); err != nil {
		return nil, &casework.InvariantError{
			CaseID: rec.ID,
			Op:     "Load",
			Reason: "stored snapshot does not decode",
			Detail: err.Error(),
		}
	}

	c, err := casework.Restore(s)
	if err != nil {
		return nil, err
	}

	if status := casework.StatusOf(c).String(); status != rec.Status || c.Info().ID != rec.ID {
		return nil, &casework.InvariantError{
			CaseID: rec.ID,
			Op:     "Load",
			Reason: "stored row does not match its snapshot",
			Detail: fmt.Sprintf("row status=%s snapshot status=%s snapshot id=%s", rec.Status, status, c.Info().ID),
		}
	}
	return c, nil
}

func parsePeriod(from, to string) (period.Period, error) {
	f, err := period.ParseMonth(from)
	if err != nil {
		return period.Period{}, fmt.Errorf("failed to parse period start %q: %w", from, err)
	}
	t, err := period.ParseMonth(to)
	if err != nil {
		return period.Period{}, fmt.Errorf("failed to parse period end %q: %w", to, err)
	}
	return period.New(f, t)
}

// Verify interface compliance
var _ port.CaseRepository = (*CaseRepository)(nil)
