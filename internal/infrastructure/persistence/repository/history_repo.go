package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/entity"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
	"github.com/garyjia/benefit-casework/internal/infrastructure/persistence/sqlstore"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlstore.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes entries after the case's last history row
func (r *HistoryRepository) Append(ctx context.Context, caseID uuid.UUID, from, to domainwf.Status, entries []casework.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var last int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM case_history WHERE case_id = ?`, caseID,
	).Scan(&last)
	if err != nil {
		r.logger.Error("Failed to read history sequence", zap.String("case_id", caseID.String()), zap.Error(err))
		return fmt.Errorf("failed to read history sequence: %w", err)
	}

	query := `
		INSERT INTO case_history (
			case_id, sequence, actor, action, previous_status, new_status, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for i, entry := range entries {
		_, err := r.db.ExecContext(ctx, query,
			caseID,
			last+i+1,
			string(entry.Actor),
			entry.Action.String(),
			from.String(),
			to.String(),
			entry.At.UTC(),
		)
		if err != nil {
			r.logger.Error("Failed to create history record", zap.String("case_id", caseID.String()), zap.Error(err))
			return fmt.Errorf("failed to create history: %w", err)
		}
	}

	return nil
}

// GetByCaseID retrieves all history records for a case
func (r *HistoryRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID) ([]*entity.CaseHistory, error) {
	query := `
		SELECT id, case_id, sequence, actor, action, previous_status, new_status, occurred_at
		FROM case_history
		WHERE case_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		r.logger.Error("Failed to get history by case ID", zap.String("case_id", caseID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.CaseHistory{}
	for rows.Next() {
		var record entity.CaseHistory
		err := rows.Scan(
			&record.ID,
			&record.CaseID,
			&record.Sequence,
			&record.Actor,
			&record.Action,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
