package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/application/service"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/pkg/utils"
)

// ActorHeader carries the caseworker or approver performing a request
const ActorHeader = "X-Actor"

// Handlers contains all HTTP request handlers
type Handlers struct {
	cases   service.CaseService
	version string
	logger  Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(cases service.CaseService, version string, logger Logger) *Handlers {
	return &Handlers{
		cases:   cases,
		version: version,
		logger:  logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
		},
	})
}

// RegisterCase handles POST /api/cases
func (h *Handlers) RegisterCase(c *gin.Context) {
	var req RegisterCaseRequest
	if !h.bind(c, &req) {
		return
	}
	if err := utils.ValidateApplicantID(req.ApplicantID); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	view, err := h.cases.Register(c.Request.Context(), service.RegisterRequest{
		Actor:           actor(c),
		SakID:           req.SakID,
		ApplicantID:     req.ApplicantID,
		ApplicationID:   req.ApplicationID,
		TaskID:          req.TaskID,
		Category:        req.Category,
		Period:          req.Period,
		BirthDate:       req.BirthDate,
		LivingSituation: req.LivingSituation,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: toCaseResponse(view)})
}

// ListCases handles GET /api/cases
func (h *Handlers) ListCases(c *gin.Context) {
	var req ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	summaries, err := h.cases.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summaries})
}

// GetCase handles GET /api/cases/:id
func (h *Handlers) GetCase(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	view, err := h.cases.Get(c.Request.Context(), id)
	h.respondCase(c, view, err)
}

// GetHistory handles GET /api/cases/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	history, err := h.cases.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// AssessConditions handles PUT /api/cases/:id/conditions
func (h *Handlers) AssessConditions(c *gin.Context) {
	var req ConditionsRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.AssessConditions(c.Request.Context(), id, actor(c), req.Conditions)
	h.respondCase(c, view, err)
}

// UpdateLivingSituations handles PUT /api/cases/:id/living-situations
func (h *Handlers) UpdateLivingSituations(c *gin.Context) {
	var req LivingSituationsRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.UpdateLivingSituations(c.Request.Context(), id, actor(c), req.LivingSituations)
	h.respondCase(c, view, err)
}

// UpdateDeductions handles PUT /api/cases/:id/deductions
func (h *Handlers) UpdateDeductions(c *gin.Context) {
	var req DeductionsRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.UpdateDeductions(c.Request.Context(), id, actor(c), req.Deductions)
	h.respondCase(c, view, err)
}

// UpdateBenefitPeriod handles PUT /api/cases/:id/benefit-period
func (h *Handlers) UpdateBenefitPeriod(c *gin.Context) {
	var req BenefitPeriodRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.UpdateBenefitPeriod(c.Request.Context(), id, actor(c), req.Period)
	h.respondCase(c, view, err)
}

// Calculate handles POST /api/cases/:id/calculate
func (h *Handlers) Calculate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	view, err := h.cases.Calculate(c.Request.Context(), id, actor(c))
	h.respondCase(c, view, err)
}

// Simulate handles POST /api/cases/:id/simulate
func (h *Handlers) Simulate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	view, err := h.cases.Simulate(c.Request.Context(), id, actor(c))
	h.respondCase(c, view, err)
}

// SendForAttestation handles POST /api/cases/:id/send-for-attestation
func (h *Handlers) SendForAttestation(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	view, err := h.cases.SendForAttestation(c.Request.Context(), id, actor(c))
	h.respondCase(c, view, err)
}

// Approve handles POST /api/cases/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	view, err := h.cases.Approve(c.Request.Context(), id, actor(c))
	h.respondCase(c, view, err)
}

// Reject handles POST /api/cases/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	var req RejectRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.Reject(c.Request.Context(), id, actor(c), casework.RejectionReason{
		Grounds: req.Grounds,
		Comment: req.Comment,
	})
	h.respondCase(c, view, err)
}

// CloseCase handles POST /api/cases/:id/close
func (h *Handlers) CloseCase(c *gin.Context) {
	var req CloseCaseRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.Close(c.Request.Context(), id, actor(c), service.CloseRequest{
		Kind:         req.Kind,
		LetterChoice: req.LetterChoice,
	})
	h.respondCase(c, view, err)
}

// UpdateLetterNote handles PUT /api/cases/:id/letter-note
func (h *Handlers) UpdateLetterNote(c *gin.Context) {
	var req LetterNoteRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.UpdateLetterNote(c.Request.Context(), id, actor(c), req.Note)
	h.respondCase(c, view, err)
}

// UpdateTask handles PUT /api/cases/:id/task
func (h *Handlers) UpdateTask(c *gin.Context) {
	var req TaskRequest
	id, ok := h.caseRequest(c, &req)
	if !ok {
		return
	}
	view, err := h.cases.UpdateTask(c.Request.Context(), id, actor(c), req.TaskID)
	h.respondCase(c, view, err)
}

// RegisterOffset handles POST /api/offsets
func (h *Handlers) RegisterOffset(c *gin.Context) {
	var req RegisterOffsetRequest
	if !h.bind(c, &req) {
		return
	}
	record, err := h.cases.RegisterOffset(c.Request.Context(), req.SakID, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: record})
}

// GetOffset handles GET /api/offsets/:id
func (h *Handlers) GetOffset(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	record, err := h.cases.GetOffset(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: record})
}

// AnnulOffset handles POST /api/offsets/:id/annul
func (h *Handlers) AnnulOffset(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.cases.AnnulOffset(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func actor(c *gin.Context) casework.Actor {
	return casework.Actor(strings.TrimSpace(c.GetHeader(ActorHeader)))
}

// pathID parses the :id path parameter
func (h *Handlers) pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Info("Invalid ID", "id", raw, "error", err)
		h.badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) caseRequest(c *gin.Context, req interface{}) (uuid.UUID, bool) {
	id, ok := h.pathID(c)
	if !ok {
		return uuid.Nil, false
	}
	return id, h.bind(c, req)
}

func (h *Handlers) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Info("Invalid request body", "path", c.FullPath(), "error", err)
		h.badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg, Code: "INVALID_REQUEST"})
}

func (h *Handlers) respondCase(c *gin.Context, view *service.CaseView, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toCaseResponse(view)})
}

// fail writes the error with the status its classification maps to. Internal
// and fatal errors are not echoed to the client.
func (h *Handlers) fail(c *gin.Context, err error) {
	class := service.Classify(err)
	status := statusFor(class.Kind)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	if class.Kind == service.KindInternal {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, Response{Success: false, Error: msg, Code: class.Code})
}

func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindInvalidInput:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
