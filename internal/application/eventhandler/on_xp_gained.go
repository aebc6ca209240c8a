// Package eventhandler contains domain event handlers: the bridge between
// committed mutations and the outside world (live streams, caches).
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// Broadcaster fans one event out to every live connection an account has
// open and reports whether anyone was listening. Implemented by the realtime
// hub; swappable for a distributed pub/sub without touching handlers.
type Broadcaster interface {
	Publish(accountID string, eventType shared.EventType, data map[string]interface{}) (delivered bool)
}

// CacheInvalidator drops externally cached read-models.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// ═══════════════════════════════════════════════════════════════════════════
// ON XP GAINED HANDLER
// Pushes the award to the account's live connections. When nobody is
// connected the ledger entry stays un-notified and becomes part of the
// reconnect backlog; when delivery succeeds the entry is flagged so the
// backlog only ever holds what the user truly missed.
// ═══════════════════════════════════════════════════════════════════════════

// OnXPGainedHandler handles progression.XPGainedEvent.
type OnXPGainedHandler struct {
	hub    Broadcaster
	ledger progression.LedgerRepository
	cache  CacheInvalidator
	logger *slog.Logger
}

// NewOnXPGainedHandler creates a new OnXPGainedHandler.
func NewOnXPGainedHandler(hub Broadcaster, ledger progression.LedgerRepository, cache CacheInvalidator, logger *slog.Logger) *OnXPGainedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnXPGainedHandler{hub: hub, ledger: ledger, cache: cache, logger: logger}
}

// Name implements shared.EventHandler.
func (h *OnXPGainedHandler) Name() string {
	return "on_xp_gained"
}

// Handle implements shared.EventHandler.
func (h *OnXPGainedHandler) Handle(ctx context.Context, event shared.Event) error {
	gained, ok := event.(progression.XPGainedEvent)
	if !ok {
		h.logger.Warn("on_xp_gained received unexpected event", "type", event.EventType())
		return nil
	}

	delivered := h.hub.Publish(gained.AccountID(), shared.EventXPGained, gained.Payload())
	if delivered && gained.EntryID != "" {
		if err := h.ledger.MarkNotified(ctx, gained.EntryID); err != nil {
			// The entry will resurface in the unread backlog; the client
			// may see the award twice, never zero times.
			h.logger.Warn("mark notified failed", "entry", gained.EntryID, "error", err)
		}
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, "account:summary:"+gained.AccountID()); err != nil {
			h.logger.Warn("summary cache invalidation failed", "account", gained.AccountID(), "error", err)
		}
	}

	return nil
}
