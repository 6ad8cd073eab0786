package entity

import (
	"time"

	"github.com/google/uuid"
)

// CaseHistory is one row of the case audit trail. Rows are written in the
// same transaction as the case they describe and are never updated.
type CaseHistory struct {
	ID             int64     `json:"id"`
	CaseID         uuid.UUID `json:"case_id"`
	Sequence       int       `json:"sequence"`
	Actor          string    `json:"actor"`
	Action         string    `json:"action"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	OccurredAt     time.Time `json:"occurred_at"`
}
