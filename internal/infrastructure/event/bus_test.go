package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	followed = "UserFollowed"
	sent     = "MessageSent"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New())}
}

type recorder struct {
	types []string
	err   error

	mu   sync.Mutex
	seen []shared.DomainEvent
}

func newRecorder(types ...string) *recorder { return &recorder{types: types} }

func (r *recorder) EventTypes() []string { return r.types }

func (r *recorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, event)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func TestInMemoryEventBus_Routing(t *testing.T) {
	tests := []struct {
		name      string
		subscribe []string // explicit types; nil uses the handler's own
		handles   []string
		publish   []string
		want      int
	}{
		{name: "own event types", handles: []string{followed}, publish: []string{followed, sent}, want: 1},
		{name: "explicit types win", subscribe: []string{sent}, handles: []string{followed}, publish: []string{followed, sent}, want: 1},
		{name: "catch-all", publish: []string{followed, sent, "Anything"}, want: 3},
		{name: "no match", handles: []string{followed}, publish: []string{sent}, want: 0},
		{name: "batch publish", handles: []string{sent}, publish: []string{sent, sent, sent}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewInMemoryEventBus(zap.NewNop())
			h := newRecorder(tt.handles...)
			bus.Subscribe(h, tt.subscribe...)

			events := make([]shared.DomainEvent, len(tt.publish))
			for i, et := range tt.publish {
				events[i] = newTestEvent(et)
			}
			require.NoError(t, bus.Publish(context.Background(), events...))
			assert.Equal(t, tt.want, h.count())
		})
	}
}

func TestInMemoryEventBus_SubscribeTwice(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecorder(followed)
	bus.Subscribe(h)
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent(followed)))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailingHandlersAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newRecorder(followed)
	failing.err = errors.New("db down")
	healthy := newRecorder(followed)
	bus.Subscribe(failing)
	bus.Subscribe(panicking{})
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		assert.NoError(t, bus.Publish(context.Background(), newTestEvent(followed)))
	})
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, healthy.count())
}

type panicking struct{}

func (panicking) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panicking) EventTypes() []string                            { return []string{followed} }

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecorder(followed, sent)
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent(followed)))
	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(followed), newTestEvent(sent)))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_AsyncDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch(16, 2))
	h := newRecorder(sent)
	bus.Subscribe(h)

	err := bus.Publish(context.Background(), newTestEvent(sent))
	assert.ErrorIs(t, err, ErrBusStopped, "async bus rejects events before Start")

	require.NoError(t, bus.Start(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	for range 5 {
		require.NoError(t, bus.Publish(ctx, newTestEvent(sent)))
	}
	cancel() // handlers keep running after the request context ends

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, 5, h.count(), "Stop drains the queue")

	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent(sent)), ErrBusStopped)
	assert.NoError(t, bus.Stop(stopCtx), "stopping twice is a no-op")
}

func TestIdempotentHandler(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()

	inner := newRecorder(followed)
	wrapped := NewIdempotentHandler("notify_follow", inner, store, time.Hour, zap.NewNop())
	assert.Equal(t, []string{followed}, wrapped.EventTypes())

	event := newTestEvent(followed)
	require.NoError(t, wrapped.Handle(context.Background(), event))
	require.NoError(t, wrapped.Handle(context.Background(), event))
	require.NoError(t, wrapped.Handle(context.Background(), newTestEvent(followed)))
	assert.Equal(t, 2, inner.count())

	other := newRecorder(followed)
	separate := NewIdempotentHandler("audit", other, store, time.Hour, zap.NewNop())
	require.NoError(t, separate.Handle(context.Background(), event))
	assert.Equal(t, 1, other.count(), "handler names keep idempotency keys apart")
}

func TestIdempotentHandler_FailedHandlingIsRetried(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()

	inner := newRecorder(followed)
	inner.err = errors.New("notification insert failed")
	wrapped := NewIdempotentHandler("notify_follow", inner, store, time.Hour, zap.NewNop())

	event := newTestEvent(followed)
	require.Error(t, wrapped.Handle(context.Background(), event))

	inner.err = nil
	require.NoError(t, wrapped.Handle(context.Background(), event))
	require.NoError(t, wrapped.Handle(context.Background(), event))
	assert.Equal(t, 2, inner.count(), "the failed attempt and one successful retry")
}
