package entity

import (
	"time"

	"github.com/google/uuid"
)

// CaseRecord is the stored form of a case: a few indexed columns and the full
// snapshot
type CaseRecord struct {
	ID          uuid.UUID `json:"id"`
	Number      int64     `json:"number"`
	SakID       uuid.UUID `json:"sak_id"`
	ApplicantID string    `json:"applicant_id"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	Snapshot    []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CaseSummary is a row in a case listing
type CaseSummary struct {
	ID          uuid.UUID `json:"id"`
	Number      int64     `json:"number"`
	SakID       uuid.UUID `json:"sak_id"`
	ApplicantID string    `json:"applicant_id"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}
