package eventhandler

import (
	"context"
	"log/slog"

	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON GOAL CHANGED HANDLER
// Mirrors goal lifecycle changes to the account's live connections. Goals
// have no unread backlog: a reconnecting client refetches its goal lists,
// so missed goal events are not a loss.
// ═══════════════════════════════════════════════════════════════════════════

// OnGoalChangedHandler handles goal created/updated/deleted events.
type OnGoalChangedHandler struct {
	hub    Broadcaster
	logger *slog.Logger
}

// NewOnGoalChangedHandler creates a new OnGoalChangedHandler.
func NewOnGoalChangedHandler(hub Broadcaster, logger *slog.Logger) *OnGoalChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnGoalChangedHandler{hub: hub, logger: logger}
}

// Name implements shared.EventHandler.
func (h *OnGoalChangedHandler) Name() string {
	return "on_goal_changed"
}

// Handle implements shared.EventHandler.
func (h *OnGoalChangedHandler) Handle(ctx context.Context, event shared.Event) error {
	switch event.EventType() {
	case shared.EventGoalCreated, shared.EventGoalUpdated, shared.EventGoalDeleted:
		h.hub.Publish(event.AccountID(), event.EventType(), event.Payload())
	default:
		h.logger.Warn("on_goal_changed received unexpected event", "type", event.EventType())
	}
	return nil
}
