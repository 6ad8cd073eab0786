package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/application/workflow"
	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/entity"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

var (
	// ErrInvalidOffsetAmount is returned when an offset is registered without a positive amount
	ErrInvalidOffsetAmount = errors.New("offset amount must be positive")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RegisterRequest is a new application to open a case for
type RegisterRequest struct {
	Actor           casework.Actor
	SakID           uuid.UUID
	ApplicantID     string
	ApplicationID   uuid.UUID
	TaskID          string
	Category        condition.Category
	Period          period.Period
	BirthDate       *time.Time
	LivingSituation condition.LivingKind
}

// CloseRequest is a caseworker's request to close a case without a decision
type CloseRequest struct {
	Kind         casework.ClosureKind
	LetterChoice casework.LetterChoice
}

// CaseView is a case as returned to callers: the state, the version it is
// stored at and what can be done with it next
type CaseView struct {
	Case      casework.Case
	Version   int64
	Permitted []domainwf.Action
}

// CaseService runs caseworker and approver actions against stored cases
type CaseService interface {
	Register(ctx context.Context, req RegisterRequest) (*CaseView, error)
	Get(ctx context.Context, id uuid.UUID) (*CaseView, error)
	History(ctx context.Context, id uuid.UUID) ([]*entity.CaseHistory, error)
	List(ctx context.Context, limit, offset int) ([]*entity.CaseSummary, error)

	AssessConditions(ctx context.Context, id uuid.UUID, actor casework.Actor, conditions []condition.Condition) (*CaseView, error)
	UpdateLivingSituations(ctx context.Context, id uuid.UUID, actor casework.Actor, situations []condition.LivingSituation) (*CaseView, error)
	UpdateDeductions(ctx context.Context, id uuid.UUID, actor casework.Actor, deductions []condition.Deduction) (*CaseView, error)
	UpdateBenefitPeriod(ctx context.Context, id uuid.UUID, actor casework.Actor, p period.Period) (*CaseView, error)
	Calculate(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error)
	Simulate(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error)
	SendForAttestation(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error)
	Approve(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error)
	Reject(ctx context.Context, id uuid.UUID, actor casework.Actor, reason casework.RejectionReason) (*CaseView, error)
	Close(ctx context.Context, id uuid.UUID, actor casework.Actor, req CloseRequest) (*CaseView, error)
	UpdateLetterNote(ctx context.Context, id uuid.UUID, actor casework.Actor, note string) (*CaseView, error)
	UpdateTask(ctx context.Context, id uuid.UUID, actor casework.Actor, taskID string) (*CaseView, error)

	RegisterOffset(ctx context.Context, sakID uuid.UUID, amount int64) (*casework.OffsetRecord, error)
	GetOffset(ctx context.Context, id uuid.UUID) (*casework.OffsetRecord, error)
	AnnulOffset(ctx context.Context, id uuid.UUID) error
}

type caseServiceImpl struct {
	engine      workflow.CaseEngine
	caseRepo    port.CaseRepository
	historyRepo port.HistoryRepository
	offsetRepo  port.OffsetRepository
	calculator  calculation.Calculator
	simulator   port.SimulationClient
	clock       port.Clock
	logger      Logger
}

// NewCaseService creates a new CaseService
func NewCaseService(
	engine workflow.CaseEngine,
	caseRepo port.CaseRepository,
	historyRepo port.HistoryRepository,
	offsetRepo port.OffsetRepository,
	calculator calculation.Calculator,
	simulator port.SimulationClient,
	clock port.Clock,
	logger Logger,
) CaseService {
	if clock == nil {
		clock = port.SystemClock
	}
	return &caseServiceImpl{
		engine:      engine,
		caseRepo:    caseRepo,
		historyRepo: historyRepo,
		offsetRepo:  offsetRepo,
		calculator:  calculator,
		simulator:   simulator,
		clock:       clock,
		logger:      logger,
	}
}

// Register opens a case for a new application
func (s *caseServiceImpl) Register(ctx context.Context, req RegisterRequest) (*CaseView, error) {
	existing, err := s.caseRepo.DecidedPeriods(ctx, req.SakID, uuid.Nil)
	if err != nil {
		s.logger.Error("Failed to load decided periods", "error", err, "sak_id", req.SakID)
		return nil, fmt.Errorf("load decided periods: %w", err)
	}

	stored, err := s.engine.Create(ctx, func(number int64) (casework.Case, error) {
		return casework.Create(casework.NewCase{
			Command:         s.command(req.Actor),
			ID:              uuid.New(),
			Number:          number,
			SakID:           req.SakID,
			ApplicantID:     req.ApplicantID,
			ApplicationID:   req.ApplicationID,
			TaskID:          req.TaskID,
			Category:        req.Category,
			Period:          req.Period,
			BirthDate:       req.BirthDate,
			ExistingPeriods: existing,
			LivingSituation: req.LivingSituation,
		})
	})
	if err != nil {
		s.logFailure("Failed to register case", err, "sak_id", req.SakID)
		return nil, err
	}

	info := stored.Case.Info()
	s.logger.Info("Case registered", "case_id", info.ID, "number", info.Number, "sak_id", info.SakID)
	return s.view(stored), nil
}

// Get returns a case with its permitted actions
func (s *caseServiceImpl) Get(ctx context.Context, id uuid.UUID) (*CaseView, error) {
	stored, err := s.engine.Load(ctx, id)
	if err != nil {
		s.logFailure("Failed to get case", err, "case_id", id)
		return nil, err
	}
	return s.view(stored), nil
}

// History returns the audit trail of a case
func (s *caseServiceImpl) History(ctx context.Context, id uuid.UUID) ([]*entity.CaseHistory, error) {
	if _, err := s.engine.Load(ctx, id); err != nil {
		s.logFailure("Failed to get case", err, "case_id", id)
		return nil, err
	}
	rows, err := s.historyRepo.GetByCaseID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get history", "error", err, "case_id", id)
		return nil, fmt.Errorf("get history: %w", err)
	}
	return rows, nil
}

// List returns case summaries, most recently updated first
func (s *caseServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.CaseSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	cases, err := s.caseRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list cases", "error", err)
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// AssessConditions replaces the assessment of the given conditions
func (s *caseServiceImpl) AssessConditions(ctx context.Context, id uuid.UUID, actor casework.Actor, conditions []condition.Condition) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionAssessCondition,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.AssessCondition(current, casework.ConditionInput{
				Command:    s.command(actor),
				Conditions: conditions,
			})
		},
	})
}

// UpdateLivingSituations replaces the living situations of a case
func (s *caseServiceImpl) UpdateLivingSituations(ctx context.Context, id uuid.UUID, actor casework.Actor, situations []condition.LivingSituation) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionUpdateLivingSituations,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.UpdateLivingSituations(current, casework.LivingSituationInput{
				Command:          s.command(actor),
				LivingSituations: situations,
			})
		},
	})
}

// UpdateDeductions replaces the deductions of a case
func (s *caseServiceImpl) UpdateDeductions(ctx context.Context, id uuid.UUID, actor casework.Actor, deductions []condition.Deduction) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionUpdateDeductions,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.UpdateDeductions(current, casework.DeductionInput{
				Command:    s.command(actor),
				Deductions: deductions,
			})
		},
	})
}

// UpdateBenefitPeriod moves the benefit period. The age assessment is redone
// from the stored birth date and the period is checked against the sak's
// other decided cases.
func (s *caseServiceImpl) UpdateBenefitPeriod(ctx context.Context, id uuid.UUID, actor casework.Actor, p period.Period) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionUpdateBenefitPeriod,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			info := current.Info()
			existing, err := s.caseRepo.DecidedPeriods(ctx, info.SakID, info.ID)
			if err != nil {
				return nil, fmt.Errorf("load decided periods: %w", err)
			}
			var birthDate *time.Time
			if b := info.BenefitPeriod.Age.BirthDate; !b.IsZero() {
				birthDate = &b
			}
			return casework.UpdateBenefitPeriod(current, casework.PeriodInput{
				Command:         s.command(actor),
				Period:          p,
				BirthDate:       birthDate,
				ExistingPeriods: existing,
			})
		},
	})
}

// Calculate computes the benefit, taking the sak's open offset into account
func (s *caseServiceImpl) Calculate(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionCalculate,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			offset, err := s.offsetRepo.GetOpenBySakID(ctx, current.Info().SakID)
			if err != nil {
				return nil, fmt.Errorf("load open offset: %w", err)
			}
			return casework.Calculate(current, casework.CalculateInput{
				Command:    s.command(actor),
				Calculator: s.calculator,
				Offset:     offset,
			})
		},
	})
}

// Simulate asks the payment system what the calculation would pay out
func (s *caseServiceImpl) Simulate(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionSimulate,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			var simulator casework.Simulator
			if s.simulator != nil {
				simulator = casework.SimulatorFunc(func(req casework.SimulationRequest) (simulation.Simulation, error) {
					return s.simulator.Simulate(ctx, req)
				})
			}
			return casework.Simulate(current, casework.SimulateInput{
				Command:   s.command(actor),
				Simulator: simulator,
			})
		},
	})
}

// SendForAttestation hands the case to a second caseworker
func (s *caseServiceImpl) SendForAttestation(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionSendForAttestation,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.SendForAttestation(current, casework.SendInput{Command: s.command(actor)})
		},
	})
}

// Approve decides the case. A pending offset is consumed in the same
// transaction; losing that race to another case is a rejection.
func (s *caseServiceImpl) Approve(ctx context.Context, id uuid.UUID, actor casework.Actor) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionApprove,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			var record *casework.OffsetRecord
			if offset := current.Info().Offset; offset != nil {
				rec, err := s.offsetRepo.GetByID(ctx, offset.ID)
				switch {
				case errors.Is(err, port.ErrOffsetNotFound):
				case err != nil:
					return nil, fmt.Errorf("load offset: %w", err)
				default:
					record = rec
				}
			}
			return casework.Approve(current, casework.ApproveInput{
				Command: s.command(actor),
				Offset:  record,
			})
		},
		Commit: func(txCtx context.Context, previous, next casework.Case) error {
			offset := next.Info().Offset
			if offset == nil || offset.Status != casework.OffsetConsumed {
				return nil
			}
			err := s.offsetRepo.Consume(txCtx, offset.ID, next.Info().ID)
			if errors.Is(err, port.ErrOffsetNotOpen) {
				return casework.ErrOffsetAlreadyResolved
			}
			return err
		},
	})
}

// Reject returns the case to the preparer
func (s *caseServiceImpl) Reject(ctx context.Context, id uuid.UUID, actor casework.Actor, reason casework.RejectionReason) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionReject,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.Reject(current, casework.RejectInput{
				Command: s.command(actor),
				Reason:  reason,
			})
		},
	})
}

// Close closes the case without a decision
func (s *caseServiceImpl) Close(ctx context.Context, id uuid.UUID, actor casework.Actor, req CloseRequest) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionClose,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.CloseCase(current, casework.CloseInput{
				Command:      s.command(actor),
				Kind:         req.Kind,
				LetterChoice: req.LetterChoice,
			})
		},
	})
}

// UpdateLetterNote sets the free-text note printed in the decision letter
func (s *caseServiceImpl) UpdateLetterNote(ctx context.Context, id uuid.UUID, actor casework.Actor, note string) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionUpdateLetterNote,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.UpdateLetterNote(current, note)
		},
	})
}

// UpdateTask points the case at another task in the work queue
func (s *caseServiceImpl) UpdateTask(ctx context.Context, id uuid.UUID, actor casework.Actor, taskID string) (*CaseView, error) {
	return s.execute(ctx, workflow.Command{
		CaseID: id,
		Action: domainwf.ActionUpdateTask,
		Actor:  actor,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.UpdateTask(current, taskID)
		},
	})
}

// RegisterOffset records an overpayment to be offset against the sak's next payout
func (s *caseServiceImpl) RegisterOffset(ctx context.Context, sakID uuid.UUID, amount int64) (*casework.OffsetRecord, error) {
	if sakID == uuid.Nil {
		return nil, casework.ErrMissingID
	}
	if amount <= 0 {
		return nil, ErrInvalidOffsetAmount
	}

	open, err := s.offsetRepo.GetOpenBySakID(ctx, sakID)
	if err != nil {
		s.logger.Error("Failed to load open offset", "error", err, "sak_id", sakID)
		return nil, fmt.Errorf("load open offset: %w", err)
	}
	if open != nil {
		return nil, port.ErrOpenOffsetExists
	}

	rec := &casework.OffsetRecord{
		ID:     uuid.New(),
		SakID:  sakID,
		Amount: amount,
		Status: casework.OffsetRecordOpen,
	}
	if err := s.offsetRepo.Create(ctx, rec); err != nil {
		s.logFailure("Failed to create offset", err, "sak_id", sakID)
		return nil, err
	}

	s.logger.Info("Offset registered", "offset_id", rec.ID, "sak_id", sakID)
	return rec, nil
}

// GetOffset returns an offset record
func (s *caseServiceImpl) GetOffset(ctx context.Context, id uuid.UUID) (*casework.OffsetRecord, error) {
	rec, err := s.offsetRepo.GetByID(ctx, id)
	if err != nil {
		s.logFailure("Failed to get offset", err, "offset_id", id)
		return nil, err
	}
	return rec, nil
}

// AnnulOffset cancels an open offset
func (s *caseServiceImpl) AnnulOffset(ctx context.Context, id uuid.UUID) error {
	if err := s.offsetRepo.Annul(ctx, id); err != nil {
		s.logFailure("Failed to annul offset", err, "offset_id", id)
		return err
	}
	s.logger.Info("Offset annulled", "offset_id", id)
	return nil
}

func (s *caseServiceImpl) execute(ctx context.Context, cmd workflow.Command) (*CaseView, error) {
	stored, err := s.engine.Execute(ctx, cmd)
	if err != nil {
		s.logFailure("Command failed", err, "case_id", cmd.CaseID, "action", cmd.Action)
		return nil, err
	}
	return s.view(stored), nil
}

func (s *caseServiceImpl) view(stored *port.StoredCase) *CaseView {
	return &CaseView{
		Case:      stored.Case,
		Version:   stored.Version,
		Permitted: s.engine.Permitted(stored.Case),
	}
}

func (s *caseServiceImpl) command(actor casework.Actor) casework.Command {
	return casework.Command{Actor: actor, At: s.clock.Now()}
}

// logFailure logs rejections at info level. Invariant violations were already
// reported by the engine.
func (s *caseServiceImpl) logFailure(msg string, err error, keysAndValues ...interface{}) {
	if casework.IsFatal(err) {
		return
	}
	kv := append([]interface{}{"error", err}, keysAndValues...)
	if IsRejection(err) {
		s.logger.Info(msg, kv...)
		return
	}
	s.logger.Error(msg, kv...)
}
