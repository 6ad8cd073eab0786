package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/application/service"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// RegisterCaseRequest is the body of POST /api/cases
type RegisterCaseRequest struct {
	SakID           uuid.UUID            `json:"sak_id" binding:"required"`
	ApplicantID     string               `json:"applicant_id" binding:"required"`
	ApplicationID   uuid.UUID            `json:"application_id"`
	TaskID          string               `json:"task_id"`
	Category        condition.Category   `json:"category" binding:"required"`
	Period          period.Period        `json:"period"`
	BirthDate       *time.Time           `json:"birth_date,omitempty"`
	LivingSituation condition.LivingKind `json:"living_situation,omitempty"`
}

// ConditionsRequest is the body of PUT /api/cases/:id/conditions
type ConditionsRequest struct {
	Conditions []condition.Condition `json:"conditions" binding:"required"`
}

// LivingSituationsRequest is the body of PUT /api/cases/:id/living-situations
type LivingSituationsRequest struct {
	LivingSituations []condition.LivingSituation `json:"living_situations" binding:"required"`
}

// DeductionsRequest is the body of PUT /api/cases/:id/deductions
type DeductionsRequest struct {
	Deductions []condition.Deduction `json:"deductions"`
}

// BenefitPeriodRequest is the body of PUT /api/cases/:id/benefit-period
type BenefitPeriodRequest struct {
	Period period.Period `json:"period" binding:"required"`
}

// RejectRequest is the body of POST /api/cases/:id/reject
type RejectRequest struct {
	Grounds []casework.ReworkGround `json:"grounds" binding:"required"`
	Comment string                  `json:"comment"`
}

// CloseCaseRequest is the body of POST /api/cases/:id/close
type CloseCaseRequest struct {
	Kind         casework.ClosureKind  `json:"kind" binding:"required"`
	LetterChoice casework.LetterChoice `json:"letter_choice" binding:"required"`
}

// LetterNoteRequest is the body of PUT /api/cases/:id/letter-note
type LetterNoteRequest struct {
	Note string `json:"note"`
}

// TaskRequest is the body of PUT /api/cases/:id/task
type TaskRequest struct {
	TaskID string `json:"task_id" binding:"required"`
}

// RegisterOffsetRequest is the body of POST /api/offsets
type RegisterOffsetRequest struct {
	SakID  uuid.UUID `json:"sak_id" binding:"required"`
	Amount int64     `json:"amount" binding:"required"`
}

// ListCasesRequest represents query parameters for listing cases
type ListCasesRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// CaseResponse is a case with its stored version and the actions allowed next
type CaseResponse struct {
	Version   int64             `json:"version"`
	Permitted []workflow.Action `json:"permitted_actions"`
	casework.Snapshot
}

func toCaseResponse(view *service.CaseView) CaseResponse {
	permitted := view.Permitted
	if permitted == nil {
		permitted = []workflow.Action{}
	}
	return CaseResponse{
		Version:   view.Version,
		Permitted: permitted,
		Snapshot:  casework.SnapshotOf(view.Case),
	}
}
