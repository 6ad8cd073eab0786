// Package casework is the state machine for processing an application for
// supplementary benefit. Every legal processing state is its own type; the
// transition functions are pure and return either the next state or an error.
package casework

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// Actor identifies a caseworker or approver
type Actor string

// Case is one of the processing states below. The set is closed: only types in
// this package implement it.
type Case interface {
	// Info returns the data present in every state
	Info() Common
	isCase()
}

// Common is the data carried by every state
type Common struct {
	ID            uuid.UUID           `json:"id"`
	Number        int64               `json:"number"`
	SakID         uuid.UUID           `json:"sak_id"`
	ApplicantID   string              `json:"applicant_id"`
	CreatedAt     time.Time           `json:"created_at"`
	ApplicationID uuid.UUID           `json:"application_id"`
	TaskID        string              `json:"task_id"`
	Category      condition.Category  `json:"category"`
	LetterNote    string              `json:"letter_note"`
	BenefitPeriod BenefitPeriod       `json:"benefit_period"`
	Conditions    condition.Aggregate `json:"conditions"`
	Grounds       condition.Grounds   `json:"grounds"`
	Offset        *Offset             `json:"offset,omitempty"`
	History       History             `json:"history"`
	Attestations  Attestations        `json:"attestations"`
}

// Info returns a copy of the common data
func (c Common) Info() Common {
	return c.clone()
}

// Period returns the benefit period
func (c Common) Period() period.Period {
	return c.BenefitPeriod.Period
}

func (c Common) clone() Common {
	out := c
	out.Conditions = c.Conditions.Clone()
	out.Grounds = c.Grounds.Clone()
	out.History = slices.Clone(c.History)
	out.Attestations = slices.Clone(c.Attestations)
	if c.Offset != nil {
		offset := *c.Offset
		out.Offset = &offset
	}
	return out
}

// record returns a copy with a history entry appended
func (c Common) record(actor Actor, at time.Time, action workflow.Action) Common {
	out := c.clone()
	out.History = out.History.with(Entry{Actor: actor, At: at, Action: action})
	return out
}

// AgeRule names the age requirement an assessment was made against
type AgeRule string

const (
	AgeRuleDisability AgeRule = "DISABILITY_18_TO_67"
	AgeRuleAge        AgeRule = "AGE_67_OR_OLDER"
)

// AgeAssessment records how the applicant's age was checked against the period
type AgeAssessment struct {
	BirthDate  time.Time `json:"birth_date"`
	AgeAtStart int       `json:"age_at_start"`
	AgeAtEnd   int       `json:"age_at_end"`
	Rule       AgeRule   `json:"rule"`
}

// BenefitPeriod is the period the application is processed for
type BenefitPeriod struct {
	Period period.Period `json:"period"`
	Age    AgeAssessment `json:"age"`
}

// OffsetStatus is the state of the offset decision on this case
type OffsetStatus string

const (
	OffsetPending  OffsetStatus = "PENDING"
	OffsetConsumed OffsetStatus = "CONSUMED"
)

// Offset is an overpayment from an earlier case that this case's payout is reduced by
type Offset struct {
	ID     uuid.UUID    `json:"id"`
	Amount int64        `json:"amount"`
	Status OffsetStatus `json:"status"`
}

// OffsetRecordStatus is the state of the shared offset record
type OffsetRecordStatus string

const (
	OffsetRecordOpen     OffsetRecordStatus = "OPEN"
	OffsetRecordConsumed OffsetRecordStatus = "CONSUMED"
	OffsetRecordAnnulled OffsetRecordStatus = "ANNULLED"
)

// OffsetRecord is the overpayment offset shared by every case on a sak. Another
// case may consume or annul it concurrently.
type OffsetRecord struct {
	ID         uuid.UUID          `json:"id"`
	SakID      uuid.UUID          `json:"sak_id"`
	Amount     int64              `json:"amount"`
	Status     OffsetRecordStatus `json:"status"`
	ResolvedBy *uuid.UUID         `json:"resolved_by,omitempty"`
}

// Command carries who performs an action and when
type Command struct {
	Actor Actor
	At    time.Time
}

func (c Command) validate() error {
	if c.Actor == "" {
		return ErrMissingActor
	}
	return nil
}
