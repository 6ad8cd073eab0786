package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/benefit-casework/internal/domain/event"
)

const eventLog = "case-event-log"

type logRecorder struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *logRecorder) Info(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *logRecorder) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *logRecorder) errorMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// delivery is one handler call
type delivery struct {
	handler       string
	eventType     event.Type
	correlationID string
}

type deliveries struct {
	mu  sync.Mutex
	got []delivery
}

func (d *deliveries) handler(name string) Handler {
	return func(_ context.Context, evt *event.Event) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.got = append(d.got, delivery{handler: name, eventType: evt.Type, correlationID: evt.CorrelationID})
		return nil
	}
}

func (d *deliveries) by(name string) []delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []delivery
	for _, got := range d.got {
		if got.handler == name {
			out = append(out, got)
		}
	}
	return out
}

func (d *deliveries) order() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.got))
	for _, got := range d.got {
		out = append(out, got.handler)
	}
	return out
}

func transition(caseID uuid.UUID, from, to string) *event.Event {
	return event.NewEvent(event.TypeStatusChanged, caseID, map[string]any{
		event.KeyPreviousStatus: from,
		event.KeyNewStatus:      to,
	})
}

func TestDispatch_SpecificHandlersRunBeforeEventLog(t *testing.T) {
	d := NewDispatcher()
	rec := &deliveries{}

	// subscribed first, still runs last
	d.SubscribeAll(eventLog, rec.handler(eventLog))
	d.SubscribeNamed(event.TypeCaseDecided, "offset-settlement", rec.handler("offset-settlement"))

	decided := event.NewEvent(event.TypeCaseDecided, uuid.New(), nil)
	require.NoError(t, d.Dispatch(context.Background(), decided))
	assert.Equal(t, []string{"offset-settlement", eventLog}, rec.order())

	updated := event.NewEvent(event.TypeCaseUpdated, uuid.New(), nil)
	require.NoError(t, d.Dispatch(context.Background(), updated))
	assert.Equal(t, []string{"offset-settlement", eventLog, eventLog}, rec.order())
}

func TestDispatch_FailingHandlerStopsTheChain(t *testing.T) {
	log := &logRecorder{}
	d := NewDispatcher(WithLogger(log))
	rec := &deliveries{}
	errSettlement := errors.New("offset already annulled")

	d.SubscribeNamed(event.TypeCaseDecided, "offset-settlement", func(context.Context, *event.Event) error {
		return errSettlement
	})
	d.SubscribeAll(eventLog, rec.handler(eventLog))

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeCaseDecided, uuid.New(), nil))
	require.ErrorIs(t, err, errSettlement)
	assert.Contains(t, err.Error(), "offset-settlement")
	assert.Empty(t, rec.by(eventLog))
	assert.Contains(t, log.errorMessages(), "Handler error")
}

func TestDispatch_RecoversHandlerPanic(t *testing.T) {
	log := &logRecorder{}
	d := NewDispatcher(WithLogger(log))
	d.SubscribeNamed(event.TypeCaseClosed, "letter", func(context.Context, *event.Event) error {
		panic("no template for closure")
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeCaseClosed, uuid.New(), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic: no template for closure")
	assert.Contains(t, log.errorMessages(), "Handler panic recovered")
}

func TestUnsubscribe_EventLog(t *testing.T) {
	d := NewDispatcher()
	rec := &deliveries{}
	d.SubscribeAll(eventLog, rec.handler(eventLog))
	d.SubscribeNamed(event.TypeCaseSent, eventLog, rec.handler("sent-"+eventLog))

	// a typed unsubscribe leaves the catch-all subscriber alone
	d.Unsubscribe(event.TypeCaseSent, eventLog)
	handlers := d.ListHandlers(event.TypeCaseSent)
	require.Len(t, handlers, 1)
	assert.Equal(t, eventLog, handlers[0].Name)
	assert.Empty(t, handlers[0].EventType)

	d.Unsubscribe("", eventLog)
	assert.Empty(t, d.ListHandlers(event.TypeCaseSent))

	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeCaseSent, uuid.New(), nil)))
	assert.Empty(t, rec.order())
}

func TestDispatchAsync_TransitionAndFollowUpShareCorrelation(t *testing.T) {
	d := NewDispatcher()
	rec := &deliveries{}
	d.SubscribeAll(eventLog, rec.handler(eventLog))
	d.SubscribeNamed(event.TypeCaseSent, "attestation-queue", rec.handler("attestation-queue"))

	caseID := uuid.New()
	changed := transition(caseID, "SIMULATED", "AWAITING_ATTESTATION_APPROVED")
	sent := event.NewEventWithCorrelation(event.TypeCaseSent, caseID, changed.Payload, changed.CorrelationID)

	d.DispatchAsync(context.Background(), changed)
	d.DispatchAsync(context.Background(), sent)
	require.NoError(t, d.Close())

	logged := rec.by(eventLog)
	require.Len(t, logged, 2)
	for _, got := range logged {
		assert.Equal(t, changed.ID, got.correlationID)
	}
	assert.ElementsMatch(t, []event.Type{event.TypeStatusChanged, event.TypeCaseSent},
		[]event.Type{logged[0].eventType, logged[1].eventType})

	queued := rec.by("attestation-queue")
	require.Len(t, queued, 1)
	assert.Equal(t, event.TypeCaseSent, queued[0].eventType)
}

func TestClose(t *testing.T) {
	log := &logRecorder{}
	d := NewDispatcher(WithLogger(log))
	rec := &deliveries{}
	d.SubscribeAll(eventLog, rec.handler(eventLog))

	require.NoError(t, d.Close())
	assert.Error(t, d.Close())

	evt := event.NewEvent(event.TypeCaseCreated, uuid.New(), nil)
	assert.Error(t, d.Dispatch(context.Background(), evt))

	d.DispatchAsync(context.Background(), evt)
	assert.Empty(t, rec.order())
	assert.Contains(t, log.errorMessages(), "Cannot dispatch async event, dispatcher is closed")
}

func TestSubscribe_GeneratesNames(t *testing.T) {
	d := NewDispatcher()
	noop := func(context.Context, *event.Event) error { return nil }
	d.Subscribe(event.TypeCaseReturned, noop)
	d.Subscribe(event.TypeCaseReturned, noop)

	handlers := d.ListHandlers(event.TypeCaseReturned)
	require.Len(t, handlers, 2)
	assert.Equal(t, "handler-0", handlers[0].Name)
	assert.Equal(t, "handler-1", handlers[1].Name)
	assert.Nil(t, handlers[0].Handler)
}
