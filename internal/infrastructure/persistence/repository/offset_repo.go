package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/infrastructure/persistence/sqlstore"
)

// OffsetRepository implements port.OffsetRepository
type OffsetRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewOffsetRepository creates a new offset repository
func NewOffsetRepository(db *sqlstore.DB, logger *zap.Logger) port.OffsetRepository {
	return &OffsetRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new open offset record
func (r *OffsetRepository) Create(ctx context.Context, rec *casework.OffsetRecord) error {
	query := `
		INSERT INTO offset_records (id, sak_id, amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := r.now()
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.SakID, rec.Amount, string(casework.OffsetRecordOpen), now, now)
	if err != nil {
		if sqlstore.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", port.ErrOpenOffsetExists, rec.SakID)
		}
		r.logger.Error("Failed to create offset record", zap.String("sak_id", rec.SakID.String()), zap.Error(err))
		return fmt.Errorf("failed to create offset record: %w", err)
	}

	rec.Status = casework.OffsetRecordOpen
	rec.ResolvedBy = nil
	return nil
}

// GetByID retrieves an offset record by ID
func (r *OffsetRepository) GetByID(ctx context.Context, id uuid.UUID) (*casework.OffsetRecord, error) {
	query := `
		SELECT id, sak_id, amount, status, resolved_by
		FROM offset_records
		WHERE id = ?
	`

	rec, err := scanOffset(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", port.ErrOffsetNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get offset record", zap.String("offset_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get offset record: %w", err)
	}
	return rec, nil
}

// GetOpenBySakID returns the sak's open record, or nil
func (r *OffsetRepository) GetOpenBySakID(ctx context.Context, sakID uuid.UUID) (*casework.OffsetRecord, error) {
	query := `
		SELECT id, sak_id, amount, status, resolved_by
		FROM offset_records
		WHERE sak_id = ? AND status = 'OPEN'
	`

	rec, err := scanOffset(r.db.QueryRowContext(ctx, query, sakID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get open offset record", zap.String("sak_id", sakID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get open offset record: %w", err)
	}
	return rec, nil
}

// Consume marks an open record as consumed by caseID. The status condition
// makes the first of two racing cases win.
func (r *OffsetRepository) Consume(ctx context.Context, id uuid.UUID, caseID uuid.UUID) error {
	return r.resolve(ctx, id, casework.OffsetRecordConsumed, uuid.NullUUID{UUID: caseID, Valid: true})
}

// Annul marks an open record as annulled
func (r *OffsetRepository) Annul(ctx context.Context, id uuid.UUID) error {
	return r.resolve(ctx, id, casework.OffsetRecordAnnulled, uuid.NullUUID{})
}

func (r *OffsetRepository) resolve(ctx context.Context, id uuid.UUID, status casework.OffsetRecordStatus, by uuid.NullUUID) error {
	query := `
		UPDATE offset_records
		SET status = ?, resolved_by = ?, updated_at = ?
		WHERE id = ? AND status = 'OPEN'
	`

	result, err := r.db.ExecContext(ctx, query, string(status), by, r.now(), id)
	if err != nil {
		r.logger.Error("Failed to resolve offset record",
			zap.String("offset_id", id.String()),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to resolve offset record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", port.ErrOffsetNotOpen, id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOffset(row rowScanner) (*casework.OffsetRecord, error) {
	var rec casework.OffsetRecord
	var status string
	var resolvedBy uuid.NullUUID
	if err := row.Scan(&rec.ID, &rec.SakID, &rec.Amount, &status, &resolvedBy); err != nil {
		return nil, err
	}
	rec.Status = casework.OffsetRecordStatus(status)
	if resolvedBy.Valid {
		by := resolvedBy.UUID
		rec.ResolvedBy = &by
	}
	return &rec, nil
}

// Verify interface compliance
var _ port.OffsetRepository = (*OffsetRepository)(nil)
