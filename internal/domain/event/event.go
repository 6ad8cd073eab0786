package event

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by the case events
const (
	KeyPreviousStatus = "previous_status"
	KeyNewStatus      = "new_status"
	KeyAction         = "action"
	KeyActor          = "actor"
	KeyCaseNumber     = "case_number"
)

// Event represents a domain event
type Event struct {
	ID            string         `json:"id"`
	Type          Type           `json:"type"`
	CaseID        uuid.UUID      `json:"case_id"`
	Payload       map[string]any `json:"payload"`
	Timestamp     time.Time      `json:"timestamp"`
	CorrelationID string         `json:"correlation_id"`
}

// NewEvent creates a new domain event with a generated ID and timestamp. The
// event starts its own correlation chain.
func NewEvent(eventType Type, caseID uuid.UUID, payload map[string]any) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		CaseID:        caseID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: id,
	}
}

// NewEventWithCorrelation creates an event linked to an existing correlation chain
func NewEventWithCorrelation(eventType Type, caseID uuid.UUID, payload map[string]any, correlationID string) *Event {
	evt := NewEvent(eventType, caseID, payload)
	evt.CorrelationID = correlationID
	return evt
}

// WithPayload returns a copy of the event with key set; e is left untouched
func (e *Event) WithPayload(key string, value any) *Event {
	payload := make(map[string]any, len(e.Payload)+1)
	maps.Copy(payload, e.Payload)
	payload[key] = value

	out := *e
	out.Payload = payload
	return &out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
