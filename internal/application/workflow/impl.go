package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/application/dispatcher"
	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/event"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// engineImpl is the concrete implementation of CaseEngine
type engineImpl struct {
	caseRepo    port.CaseRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	table       domainwf.Table
	dispatcher  dispatcher.Dispatcher

	logger       Logger
	secureLogger Logger

	locks       *caseLocks
	lockTimeout time.Duration
}

// EngineOption configures the case engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the operational logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithSecureLogger sets the restricted logger that receives the full detail
// of invariant violations
func WithSecureLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.secureLogger = l
	}
}

// WithLockTimeout bounds how long a command waits for another command on the
// same case to finish
func WithLockTimeout(timeout time.Duration) EngineOption {
	return func(e *engineImpl) {
		e.lockTimeout = timeout
	}
}

// WithTable replaces the lifecycle table
func WithTable(t domainwf.Table) EngineOption {
	return func(e *engineImpl) {
		e.table = t
	}
}

// NewEngine creates a new case engine
func NewEngine(
	caseRepo port.CaseRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) CaseEngine {
	e := &engineImpl{
		caseRepo:     caseRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		table:        BuildCaseLifecycle(),
		logger:       nopLogger{},
		secureLogger: nopLogger{},
		locks:        newCaseLocks(),
		lockTimeout:  30 * time.Second,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create stores a new case built from the allocated case number
func (e *engineImpl) Create(ctx context.Context, build func(number int64) (casework.Case, error)) (*port.StoredCase, error) {
	var created casework.Case

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		number, err := e.caseRepo.NextNumber(txCtx)
		if err != nil {
			return fmt.Errorf("failed to allocate case number: %w", err)
		}

		c, err := build(number)
		if err != nil {
			return err
		}

		if err := e.caseRepo.Create(txCtx, c); err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		if casework.IsFatal(err) {
			e.reportFatal(ctx, "CREATE", err)
		}
		return nil, err
	}

	info := created.Info()
	e.emit(ctx, event.NewEvent(event.TypeCaseCreated, info.ID, map[string]interface{}{
		event.KeyCaseNumber: info.Number,
		event.KeyNewStatus:  casework.StatusOf(created).String(),
	}))

	return &port.StoredCase{Case: created, Version: 1}, nil
}

// Execute runs cmd against the stored case. The transition runs outside the
// database transaction; the version check on update catches writers that do
// not go through this engine.
func (e *engineImpl) Execute(ctx context.Context, cmd Command) (*port.StoredCase, error) {
	if cmd.Apply == nil {
		return nil, fmt.Errorf("command %s has no transition", cmd.Action)
	}

	unlock, err := e.lock(ctx, cmd.CaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock case %s: %w", cmd.CaseID, err)
	}
	defer unlock()

	stored, err := e.caseRepo.Get(ctx, cmd.CaseID)
	if err != nil {
		return nil, err
	}
	previous := stored.Case
	from := casework.StatusOf(previous)

	next, err := cmd.Apply(ctx, previous)
	if err != nil {
		if casework.IsFatal(err) {
			e.reportFatal(ctx, cmd.Action.String(), err)
		}
		return nil, err
	}
	to := casework.StatusOf(next)

	entries, err := e.verify(cmd, previous, next, from, to)
	if err != nil {
		e.reportFatal(ctx, cmd.Action.String(), err)
		return nil, err
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.caseRepo.Update(txCtx, next, stored.Version); err != nil {
			return fmt.Errorf("failed to update case: %w", err)
		}
		if cmd.Commit != nil {
			if err := cmd.Commit(txCtx, previous, next); err != nil {
				return err
			}
		}
		if len(entries) > 0 {
			if err := e.historyRepo.Append(txCtx, cmd.CaseID, from, to, entries); err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if casework.IsFatal(err) {
			e.reportFatal(ctx, cmd.Action.String(), err)
		}
		return nil, err
	}

	e.logger.Info("Case transitioned",
		"case_id", cmd.CaseID,
		"action", cmd.Action,
		"previous_status", from,
		"new_status", to,
	)
	e.emitTransition(ctx, cmd, from, to)

	return &port.StoredCase{Case: next, Version: stored.Version + 1}, nil
}

// verify checks the result of a transition against the lifecycle table and
// returns the history entries it added
func (e *engineImpl) verify(cmd Command, previous, next casework.Case, from, to domainwf.Status) ([]casework.Entry, error) {
	if next == nil {
		return nil, &casework.InvariantError{CaseID: cmd.CaseID, Op: "Execute", Reason: "transition returned no case"}
	}
	if id := next.Info().ID; id != cmd.CaseID {
		return nil, &casework.InvariantError{CaseID: cmd.CaseID, Op: "Execute", Reason: fmt.Sprintf("transition returned case %s", id)}
	}
	if err := e.table.Check(from, cmd.Action, to); err != nil {
		return nil, &casework.InvariantError{CaseID: cmd.CaseID, Op: "Execute", Reason: err.Error()}
	}

	before := previous.Info().History
	after := next.Info().History
	if len(after) < len(before) {
		return nil, &casework.InvariantError{CaseID: cmd.CaseID, Op: "Execute", Reason: "history shrank"}
	}
	entries := after[len(before):]

	want := 0
	if cmd.Action.IsRecorded() {
		want = 1
	}
	if len(entries) != want {
		return nil, &casework.InvariantError{
			CaseID: cmd.CaseID,
			Op:     "Execute",
			Reason: fmt.Sprintf("%s added %d history entries, want %d", cmd.Action, len(entries), want),
		}
	}
	return entries, nil
}

// Load returns the stored case
func (e *engineImpl) Load(ctx context.Context, id uuid.UUID) (*port.StoredCase, error) {
	stored, err := e.caseRepo.Get(ctx, id)
	if err != nil {
		if casework.IsFatal(err) {
			e.reportFatal(ctx, "LOAD", err)
		}
		return nil, err
	}
	return stored, nil
}

// Permitted returns the actions the lifecycle table allows from the case's status
func (e *engineImpl) Permitted(c casework.Case) []domainwf.Action {
	return e.table.Permitted(casework.StatusOf(c))
}

func (e *engineImpl) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	if e.lockTimeout <= 0 {
		return e.locks.Lock(ctx, id)
	}
	waitCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()
	return e.locks.Lock(waitCtx, id)
}

// reportFatal writes an invariant violation to the secure log in full and to
// the operational log without the detail
func (e *engineImpl) reportFatal(ctx context.Context, action string, err error) {
	var inv *casework.InvariantError
	if !errors.As(err, &inv) {
		return
	}

	e.secureLogger.Error("Invariant violated",
		"case_id", inv.CaseID,
		"op", inv.Op,
		"action", action,
		"reason", inv.Reason,
		"detail", inv.Detail,
	)
	e.logger.Error("Invariant violated, see secure log",
		"case_id", inv.CaseID,
		"op", inv.Op,
		"action", action,
	)

	e.emit(ctx, event.NewEvent(event.TypeFatalError, inv.CaseID, map[string]interface{}{
		event.KeyAction: action,
		"op":            inv.Op,
	}))
}

func (e *engineImpl) emitTransition(ctx context.Context, cmd Command, from, to domainwf.Status) {
	payload := map[string]interface{}{
		event.KeyPreviousStatus: from.String(),
		event.KeyNewStatus:      to.String(),
		event.KeyAction:         cmd.Action.String(),
		event.KeyActor:          string(cmd.Actor),
	}

	if !cmd.Action.IsRecorded() {
		e.emit(ctx, event.NewEvent(event.TypeCaseUpdated, cmd.CaseID, payload))
		return
	}

	changed := event.NewEvent(event.TypeStatusChanged, cmd.CaseID, payload)
	e.emit(ctx, changed)

	var follow event.Type
	switch {
	case to.IsAwaitingAttestation():
		follow = event.TypeCaseSent
	case to == domainwf.StatusClosed:
		follow = event.TypeCaseClosed
	case to.IsTerminal():
		follow = event.TypeCaseDecided
	case cmd.Action == domainwf.ActionReject:
		follow = event.TypeCaseReturned
	default:
		return
	}
	e.emit(ctx, event.NewEventWithCorrelation(follow, cmd.CaseID, payload, changed.CorrelationID))
}

// emit fires async to avoid blocking the caller
func (e *engineImpl) emit(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
}
