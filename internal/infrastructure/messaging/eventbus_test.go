package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

type recordingHandler struct {
	name   string
	events []shared.Event
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, event shared.Event) error {
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) Name() string { return h.name }

func xpEvent() shared.Event {
	return progression.NewXPGainedEvent("acc-1", "entry-1", 10, progression.SourceCommit, false, 1, 10)
}

func TestEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	xp := &recordingHandler{name: "xp"}
	goals := &recordingHandler{name: "goals"}

	require.NoError(t, bus.Subscribe(shared.EventXPGained, xp))
	require.NoError(t, bus.Subscribe(shared.EventGoalUpdated, goals))

	require.NoError(t, bus.Publish(context.Background(), xpEvent()))

	assert.Len(t, xp.events, 1)
	assert.Empty(t, goals.events)
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	all := &recordingHandler{name: "observer"}
	require.NoError(t, bus.SubscribeAll(all))

	require.NoError(t, bus.Publish(context.Background(), xpEvent()))
	require.NoError(t, bus.Publish(context.Background(), xpEvent()))

	assert.Len(t, all.events, 2)
}

func TestEventBus_HandlerErrorsAreSwallowed(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	failing := &recordingHandler{name: "failing", err: errors.New("boom")}
	healthy := &recordingHandler{name: "healthy"}

	require.NoError(t, bus.Subscribe(shared.EventXPGained, failing))
	require.NoError(t, bus.Subscribe(shared.EventXPGained, healthy))

	// publish succeeds and the later handler still runs
	require.NoError(t, bus.Publish(context.Background(), xpEvent()))
	assert.Len(t, healthy.events, 1)
}

func TestEventBus_NilChecks(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	assert.Error(t, bus.Subscribe(shared.EventXPGained, nil))
	assert.Error(t, bus.SubscribeAll(nil))
	assert.Error(t, bus.Publish(context.Background(), nil))
}

func TestEventBus_Close(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventXPGained, &recordingHandler{name: "late"}), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(&recordingHandler{name: "late"}), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Publish(context.Background(), xpEvent()), ErrEventBusClosed)
}
