package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/benefit-casework/internal/application/dispatcher"
	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/entity"
	"github.com/garyjia/benefit-casework/internal/domain/event"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// Mock implementations

type mockCaseRepo struct {
	mu        sync.Mutex
	cases     map[uuid.UUID]*port.StoredCase
	number    int64
	updateErr error
	updates   int
}

func newMockCaseRepo() *mockCaseRepo {
	return &mockCaseRepo{cases: make(map[uuid.UUID]*port.StoredCase), number: 2024000000}
}

func (m *mockCaseRepo) NextNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.number++
	return m.number, nil
}

func (m *mockCaseRepo) Create(ctx context.Context, c casework.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := c.Info().ID
	if _, exists := m.cases[id]; exists {
		return port.ErrDuplicateCase
	}
	m.cases[id] = &port.StoredCase{Case: c, Version: 1}
	return nil
}

func (m *mockCaseRepo) Get(ctx context.Context, id uuid.UUID) (*port.StoredCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.cases[id]
	if !exists {
		return nil, port.ErrCaseNotFound
	}
	cp := *stored
	return &cp, nil
}

func (m *mockCaseRepo) Update(ctx context.Context, c casework.Case, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, exists := m.cases[c.Info().ID]
	if !exists {
		return port.ErrCaseNotFound
	}
	if stored.Version != version {
		return port.ErrConcurrentModification
	}
	m.cases[c.Info().ID] = &port.StoredCase{Case: c, Version: version + 1}
	m.updates++
	return nil
}

func (m *mockCaseRepo) DecidedPeriods(ctx context.Context, sakID, exclude uuid.UUID) ([]period.Period, error) {
	return nil, nil
}

func (m *mockCaseRepo) List(ctx context.Context, limit, offset int) ([]*entity.CaseSummary, error) {
	return nil, nil
}

type appendCall struct {
	caseID  uuid.UUID
	from    domainwf.Status
	to      domainwf.Status
	entries []casework.Entry
}

type mockHistoryRepo struct {
	mu        sync.Mutex
	calls     []appendCall
	appendErr error
}

func (m *mockHistoryRepo) Append(ctx context.Context, caseID uuid.UUID, from, to domainwf.Status, entries []casework.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.calls = append(m.calls, appendCall{caseID: caseID, from: from, to: to, entries: entries})
	return nil
}

func (m *mockHistoryRepo) GetByCaseID(ctx context.Context, caseID uuid.UUID) ([]*entity.CaseHistory, error) {
	return nil, nil
}

type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockDispatcher struct {
	dispatcher.Dispatcher
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, 0, len(m.events))
	for _, evt := range m.events {
		out = append(out, evt.Type)
	}
	return out
}

type logEntry struct {
	msg string
	kv  []interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) Info(msg string, keysAndValues ...interface{}) {
	l.record(msg, keysAndValues)
}

func (l *recordingLogger) Error(msg string, keysAndValues ...interface{}) {
	l.record(msg, keysAndValues)
}

func (l *recordingLogger) record(msg string, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{msg: msg, kv: kv})
}

// contains reports whether any logged value prints as s
func (l *recordingLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		for _, v := range e.kv {
			if fmt.Sprint(v) == s {
				return true
			}
		}
	}
	return false
}

// Fixtures

const (
	preparer casework.Actor = "A123456"
	approver casework.Actor = "B654321"
)

var (
	year2024 = period.Year(2024)
	now      = time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)
)

func command(actor casework.Actor) casework.Command {
	return casework.Command{Actor: actor, At: now}
}

type testEnv struct {
	engine     CaseEngine
	impl       *engineImpl
	cases      *mockCaseRepo
	history    *mockHistoryRepo
	dispatcher *mockDispatcher
	logger     *recordingLogger
	secure     *recordingLogger
}

func newTestEnv(opts ...EngineOption) *testEnv {
	env := &testEnv{
		cases:      newMockCaseRepo(),
		history:    &mockHistoryRepo{},
		dispatcher: &mockDispatcher{},
		logger:     &recordingLogger{},
		secure:     &recordingLogger{},
	}
	opts = append([]EngineOption{
		WithDispatcher(env.dispatcher),
		WithLogger(env.logger),
		WithSecureLogger(env.secure),
	}, opts...)
	env.engine = NewEngine(env.cases, env.history, mockTxManager{}, opts...)
	env.impl = env.engine.(*engineImpl)
	return env
}

func (env *testEnv) create(t *testing.T) casework.Case {
	t.Helper()
	birthDate := time.Date(1980, time.May, 17, 0, 0, 0, 0, time.UTC)
	stored, err := env.engine.Create(context.Background(), func(number int64) (casework.Case, error) {
		return casework.Create(casework.NewCase{
			Command:         command(preparer),
			ID:              uuid.New(),
			Number:          number,
			SakID:           uuid.New(),
			ApplicantID:     "12345678901",
			Category:        condition.CategoryDisability,
			Period:          year2024,
			BirthDate:       &birthDate,
			LivingSituation: condition.LivingAlone,
		})
	})
	require.NoError(t, err)
	return stored.Case
}

func approvedConditions() []condition.Condition {
	var out []condition.Condition
	for _, kind := range condition.RequiredKinds(condition.CategoryDisability) {
		out = append(out, condition.Condition{
			Kind:        kind,
			Assessments: []condition.Assessment{{Period: year2024, Verdict: condition.VerdictApproved}},
		})
	}
	return out
}

func assessCommand(id uuid.UUID) Command {
	return Command{
		CaseID: id,
		Action: domainwf.ActionAssessCondition,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.AssessCondition(current, casework.ConditionInput{
				Command:    command(preparer),
				Conditions: approvedConditions(),
			})
		},
	}
}

func letterNoteCommand(id uuid.UUID, note string) Command {
	return Command{
		CaseID: id,
		Action: domainwf.ActionUpdateLetterNote,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.UpdateLetterNote(current, note)
		},
	}
}

// Tests

func TestBuildCaseLifecycle(t *testing.T) {
	table := BuildCaseLifecycle()

	tests := []struct {
		from   domainwf.Status
		action domainwf.Action
		to     domainwf.Status
	}{
		{domainwf.StatusConditionsAssessedUndetermined, domainwf.ActionAssessCondition, domainwf.StatusConditionsAssessedApproved},
		{domainwf.StatusConditionsAssessedApproved, domainwf.ActionCalculate, domainwf.StatusCalculatedApproved},
		{domainwf.StatusConditionsAssessedApproved, domainwf.ActionCalculate, domainwf.StatusCalculatedDenied},
		{domainwf.StatusCalculatedApproved, domainwf.ActionSimulate, domainwf.StatusSimulated},
		{domainwf.StatusSimulated, domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationApproved},
		{domainwf.StatusConditionsAssessedDenied, domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationDeniedWithoutCalculation},
		{domainwf.StatusCalculatedDenied, domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationDeniedWithCalculation},
		{domainwf.StatusAwaitingAttestationApproved, domainwf.ActionApprove, domainwf.StatusDecidedApproved},
		{domainwf.StatusAwaitingAttestationApproved, domainwf.ActionReject, domainwf.StatusReturnedApproved},
		{domainwf.StatusAwaitingAttestationDeniedWithCalculation, domainwf.ActionApprove, domainwf.StatusDecidedDeniedWithCalculation},
		{domainwf.StatusAwaitingAttestationDeniedWithoutCalculation, domainwf.ActionReject, domainwf.StatusReturnedDeniedWithoutCalculation},
		{domainwf.StatusReturnedApproved, domainwf.ActionSimulate, domainwf.StatusSimulated},
		{domainwf.StatusReturnedDeniedWithCalculation, domainwf.ActionUpdateDeductions, domainwf.StatusConditionsAssessedApproved},
		{domainwf.StatusSimulated, domainwf.ActionClose, domainwf.StatusClosed},
		{domainwf.StatusSimulated, domainwf.ActionUpdateLetterNote, domainwf.StatusSimulated},
		{domainwf.StatusAwaitingAttestationApproved, domainwf.ActionUpdateTask, domainwf.StatusAwaitingAttestationApproved},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.from, tt.action), func(t *testing.T) {
			assert.NoError(t, table.Check(tt.from, tt.action, tt.to))
		})
	}

	for _, status := range domainwf.AllStatuses() {
		if status.IsTerminal() {
			assert.Empty(t, table.Permitted(status), "terminal status %s permits actions", status)
		}
	}

	// attestation freezes the case
	assert.False(t, table.Permits(domainwf.StatusAwaitingAttestationApproved, domainwf.ActionAssessCondition))
	assert.False(t, table.Permits(domainwf.StatusAwaitingAttestationApproved, domainwf.ActionClose))
	assert.False(t, table.Permits(domainwf.StatusReturnedApproved, domainwf.ActionClose))
	assert.False(t, table.Permits(domainwf.StatusConditionsAssessedUndetermined, domainwf.ActionCalculate))
}

func TestEngine_Create(t *testing.T) {
	env := newTestEnv()

	c := env.create(t)

	stored, err := env.engine.Load(context.Background(), c.Info().ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, int64(2024000001), stored.Case.Info().Number)
	assert.Equal(t, []event.Type{event.TypeCaseCreated}, env.dispatcher.types())
	assert.Empty(t, env.history.calls)
}

func TestEngine_CreateRejection(t *testing.T) {
	env := newTestEnv()

	_, err := env.engine.Create(context.Background(), func(number int64) (casework.Case, error) {
		return nil, casework.ErrMissingID
	})
	assert.ErrorIs(t, err, casework.ErrMissingID)
	assert.Empty(t, env.cases.cases)
	assert.Empty(t, env.dispatcher.types())
}

func TestEngine_Execute(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)
	id := c.Info().ID

	stored, err := env.engine.Execute(context.Background(), assessCommand(id))
	require.NoError(t, err)
	assert.Equal(t, domainwf.StatusConditionsAssessedApproved, casework.StatusOf(stored.Case))
	assert.Equal(t, int64(2), stored.Version)

	require.Len(t, env.history.calls, 1)
	call := env.history.calls[0]
	assert.Equal(t, id, call.caseID)
	assert.Equal(t, domainwf.StatusConditionsAssessedUndetermined, call.from)
	assert.Equal(t, domainwf.StatusConditionsAssessedApproved, call.to)
	require.Len(t, call.entries, 1)
	assert.Equal(t, domainwf.ActionAssessCondition, call.entries[0].Action)

	assert.Equal(t, []event.Type{event.TypeCaseCreated, event.TypeStatusChanged}, env.dispatcher.types())
	assert.Contains(t, env.engine.Permitted(stored.Case), domainwf.ActionCalculate)
}

func TestEngine_ExecuteUnrecordedAction(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)

	stored, err := env.engine.Execute(context.Background(), letterNoteCommand(c.Info().ID, "see attachment"))
	require.NoError(t, err)
	assert.Equal(t, "see attachment", stored.Case.Info().LetterNote)
	assert.Empty(t, env.history.calls)
	assert.Equal(t, []event.Type{event.TypeCaseCreated, event.TypeCaseUpdated}, env.dispatcher.types())
}

func TestEngine_ExecuteEmitsFollowUpEvents(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)
	id := c.Info().ID

	_, err := env.engine.Execute(context.Background(), assessCommand(id))
	require.NoError(t, err)

	// denied conditions go to attestation without a calculation
	_, err = env.engine.Execute(context.Background(), Command{
		CaseID: id,
		Action: domainwf.ActionAssessCondition,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.AssessCondition(current, casework.ConditionInput{
				Command: command(preparer),
				Conditions: []condition.Condition{{
					Kind:        condition.KindAbroad,
					Assessments: []condition.Assessment{{Period: year2024, Verdict: condition.VerdictDenied}},
				}},
			})
		},
	})
	require.NoError(t, err)

	stored, err := env.engine.Execute(context.Background(), Command{
		CaseID: id,
		Action: domainwf.ActionSendForAttestation,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.SendForAttestation(current, casework.SendInput{Command: command(preparer)})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StatusAwaitingAttestationDeniedWithoutCalculation, casework.StatusOf(stored.Case))

	env.dispatcher.mu.Lock()
	events := env.dispatcher.events
	env.dispatcher.mu.Unlock()
	require.Len(t, events, 5)
	changed, sent := events[3], events[4]
	assert.Equal(t, event.TypeStatusChanged, changed.Type)
	assert.Equal(t, event.TypeCaseSent, sent.Type)
	assert.Equal(t, changed.CorrelationID, sent.CorrelationID)
	assert.Equal(t, domainwf.StatusAwaitingAttestationDeniedWithoutCalculation.String(), sent.GetPayloadString(event.KeyNewStatus))
}

func TestEngine_ExecuteRejection(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)

	_, err := env.engine.Execute(context.Background(), Command{
		CaseID: c.Info().ID,
		Action: domainwf.ActionSendForAttestation,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.SendForAttestation(current, casework.SendInput{Command: command(preparer)})
		},
	})

	var invalid *casework.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.False(t, casework.IsFatal(err))
	assert.Zero(t, env.cases.updates)
	assert.Empty(t, env.secure.entries)
}

func TestEngine_ExecuteNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.engine.Execute(context.Background(), letterNoteCommand(uuid.New(), "x"))
	assert.ErrorIs(t, err, port.ErrCaseNotFound)
}

func TestEngine_ExecuteVersionConflict(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)
	env.cases.updateErr = port.ErrConcurrentModification

	_, err := env.engine.Execute(context.Background(), assessCommand(c.Info().ID))
	assert.ErrorIs(t, err, port.ErrConcurrentModification)
	assert.Empty(t, env.history.calls)
	assert.Equal(t, []event.Type{event.TypeCaseCreated}, env.dispatcher.types())
}

func TestEngine_ExecuteCommitError(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)

	cmd := assessCommand(c.Info().ID)
	cmd.Commit = func(txCtx context.Context, previous, next casework.Case) error {
		return casework.ErrOffsetAlreadyResolved
	}

	_, err := env.engine.Execute(context.Background(), cmd)
	assert.ErrorIs(t, err, casework.ErrOffsetAlreadyResolved)
	assert.Empty(t, env.history.calls)
}

func TestEngine_FatalErrorsAreRedacted(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)
	id := c.Info().ID

	_, err := env.engine.Execute(context.Background(), Command{
		CaseID: id,
		Action: domainwf.ActionCalculate,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return nil, &casework.InvariantError{
				CaseID: id,
				Op:     "Calculate",
				Reason: "calculation does not cover the period",
				Detail: "applicant 12345678901 income 40000",
			}
		},
	})

	require.True(t, casework.IsFatal(err))
	assert.True(t, env.secure.contains("applicant 12345678901 income 40000"))
	assert.False(t, env.logger.contains("applicant 12345678901 income 40000"))
	assert.True(t, env.logger.contains(id.String()))
	assert.Contains(t, env.dispatcher.types(), event.TypeFatalError)
	assert.Zero(t, env.cases.updates)
}

func TestEngine_TableMismatchIsFatal(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)

	// the transition claims to calculate but leaves the status unchanged
	_, err := env.engine.Execute(context.Background(), Command{
		CaseID: c.Info().ID,
		Action: domainwf.ActionCalculate,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return current, nil
		},
	})

	require.True(t, casework.IsFatal(err))
	assert.ErrorContains(t, err, domainwf.ErrInvalidTransition.Error())
	assert.Zero(t, env.cases.updates)
	assert.NotEmpty(t, env.secure.entries)
}

func TestEngine_HistoryDeltaIsChecked(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)

	// a recorded action that adds no history entry
	_, err := env.engine.Execute(context.Background(), Command{
		CaseID: c.Info().ID,
		Action: domainwf.ActionAssessCondition,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return casework.UpdateLetterNote(current, "note")
		},
	})
	require.True(t, casework.IsFatal(err))
	assert.ErrorContains(t, err, "added 0 history entries, want 1")

	// a transition returning another case
	other := env.create(t)
	_, err = env.engine.Execute(context.Background(), Command{
		CaseID: c.Info().ID,
		Action: domainwf.ActionUpdateLetterNote,
		Actor:  preparer,
		Apply: func(ctx context.Context, current casework.Case) (casework.Case, error) {
			return other, nil
		},
	})
	assert.True(t, casework.IsFatal(err))
	assert.Zero(t, env.cases.updates)
}

func TestEngine_SerializesCommandsPerCase(t *testing.T) {
	env := newTestEnv()
	c := env.create(t)
	id := c.Info().ID

	var active, maxActive int32
	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := letterNoteCommand(id, fmt.Sprintf("note %d", i))
			apply := cmd.Apply
			cmd.Apply = func(ctx context.Context, current casework.Case) (casework.Case, error) {
				cur := atomic.AddInt32(&active, 1)
				defer atomic.AddInt32(&active, -1)
				for {
					prev := atomic.LoadInt32(&maxActive)
					if cur <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				return apply(ctx, current)
			}
			_, err := env.engine.Execute(context.Background(), cmd)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, n, env.cases.updates)
	assert.Zero(t, env.impl.locks.size())

	stored, err := env.engine.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), stored.Version)
}

func TestEngine_LockTimeout(t *testing.T) {
	env := newTestEnv(WithLockTimeout(20 * time.Millisecond))
	c := env.create(t)
	id := c.Info().ID

	unlock, err := env.impl.locks.Lock(context.Background(), id)
	require.NoError(t, err)

	_, err = env.engine.Execute(context.Background(), letterNoteCommand(id, "blocked"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	unlock()
	assert.Zero(t, env.impl.locks.size())

	_, err = env.engine.Execute(context.Background(), letterNoteCommand(id, "free"))
	assert.NoError(t, err)
}

func TestCaseLocks_IndependentCases(t *testing.T) {
	locks := newCaseLocks()
	a, b := uuid.New(), uuid.New()

	unlockA, err := locks.Lock(context.Background(), a)
	require.NoError(t, err)
	unlockB, err := locks.Lock(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 2, locks.size())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Lock(ctx, a)
	assert.ErrorIs(t, err, context.Canceled)

	unlockA()
	unlockB()
	assert.Zero(t, locks.size())
}
