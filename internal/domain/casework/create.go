package casework

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
)

// NewCase is the data registered with a new application
type NewCase struct {
	Command
	ID              uuid.UUID
	Number          int64
	SakID           uuid.UUID
	ApplicantID     string
	ApplicationID   uuid.UUID
	TaskID          string
	Category        condition.Category
	Period          period.Period
	BirthDate       *time.Time
	ExistingPeriods []period.Period

	// Household as declared in the application. Left empty, it is registered
	// as undecided.
	LivingSituation condition.LivingKind
}

// Create registers a case for a new application. The declared household covers
// the whole period. Creation is not recorded in the history.
func Create(in NewCase) (Case, error) {
	if in.ID == uuid.Nil || in.SakID == uuid.Nil || strings.TrimSpace(in.ApplicantID) == "" {
		return nil, ErrMissingID
	}
	if !in.Category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := checkPeriodRules(in.Period, in.ExistingPeriods); err != nil {
		return nil, err
	}
	living := in.LivingSituation
	if living == "" {
		living = condition.LivingUndecided
	}
	if !living.IsValid() {
		return nil, ErrInvalidLivingSituation
	}
	age, err := assessAge(in.Category, in.BirthDate, in.Period)
	if err != nil {
		return nil, err
	}

	return build("Create", ConditionsAssessedUndetermined{Common: Common{
		ID:            in.ID,
		Number:        in.Number,
		SakID:         in.SakID,
		ApplicantID:   in.ApplicantID,
		CreatedAt:     in.At,
		ApplicationID: in.ApplicationID,
		TaskID:        in.TaskID,
		Category:      in.Category,
		BenefitPeriod: BenefitPeriod{Period: in.Period, Age: age},
		Conditions:    condition.NewAggregate(in.Category),
		Grounds: condition.Grounds{
			LivingSituations: []condition.LivingSituation{{Period: in.Period, Kind: living}},
		},
	}})
}
