package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHandler struct {
	eventTypes []string
	err        error
	panicWith  any

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func statusChanged() *purchasing.StatusChangedEvent {
	return purchasing.NewStatusChangedEvent(uuid.New(), purchasing.ActionApprove,
		purchasing.StatusPendingApproval, purchasing.StatusApproved, uuid.New(), "ok")
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	statusHandler := &recordingHandler{eventTypes: []string{purchasing.EventTypeStatusChanged}}
	paymentHandler := &recordingHandler{eventTypes: []string{purchasing.EventTypePaymentRecorded}}
	everything := &recordingHandler{}
	bus.Subscribe(statusHandler)
	bus.Subscribe(paymentHandler)
	bus.Subscribe(everything)

	require.NoError(t, bus.Publish(context.Background(), statusChanged(), statusChanged()))

	assert.Equal(t, 2, statusHandler.count())
	assert.Equal(t, 0, paymentHandler.count())
	assert.Equal(t, 2, everything.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{eventTypes: []string{purchasing.EventTypePaymentRecorded}}
	bus.Subscribe(h, purchasing.EventTypeStatusChanged)

	require.NoError(t, bus.Publish(context.Background(), statusChanged()))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{err: errors.New("downstream unavailable")}
	panicking := &recordingHandler{panicWith: "nil map"}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), statusChanged()))

	assert.Equal(t, 1, healthy.count())
	require.Len(t, recorded.All(), 2)
	assert.Contains(t, recorded.All()[1].ContextMap()["error"], "handler panicked: nil map")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{eventTypes: []string{purchasing.EventTypeStatusChanged}}
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), statusChanged())
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), statusChanged())

	assert.Equal(t, 1, h.count())
	assert.Empty(t, bus.registry.GetHandlers(purchasing.EventTypeStatusChanged))
}

func TestInMemoryEventBus_StopRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(ctx, statusChanged()), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, statusChanged()))
}
