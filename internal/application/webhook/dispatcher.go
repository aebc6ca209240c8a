// Package webhook turns inbound third-party push notifications into domain
// events. A registry maps external event-type strings to handlers; the
// dispatcher verifies the payload signature, resolves the sending account,
// deduplicates deliveries, and runs the handler inside one transaction.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// OUTCOMES
// ══════════════════════════════════════════════════════════════════════════════

// Status classifies how a delivery was handled. Soft-ignores are expected
// third-party traffic and never errors.
type Status string

const (
	// StatusOK - a handler processed the delivery.
	StatusOK Status = "ok"

	// StatusIgnored - no handler is registered for the event type.
	StatusIgnored Status = "ignored"

	// StatusNoSender - the payload carries no resolvable sender identity.
	StatusNoSender Status = "no sender"

	// StatusUnknownAccount - the sender does not map to a known account.
	StatusUnknownAccount Status = "account not found"

	// StatusDuplicate - this delivery ID was already processed.
	StatusDuplicate Status = "duplicate"
)

// Outcome is the dispatch result reported back to the transport.
type Outcome struct {
	// Status classifies the result.
	Status Status

	// Detail is handler-specific context, e.g. commits processed.
	Detail map[string]interface{}

	// Events contains domain events collected by the handler. The
	// dispatcher publishes them after the transaction commits.
	Events []shared.Event

	// CacheKeys are read-model cache keys the handler wants invalidated
	// after commit.
	CacheKeys []string
}

// ErrInvalidSignature - the payload signature does not match the shared
// secret. Rejected before any parsing.
var ErrInvalidSignature = errors.New("webhook: invalid signature")

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Handler processes one verified delivery for one resolved account. Handlers
// run inside the dispatcher's transaction and return collected events rather
// than publishing.
type Handler interface {
	Handle(ctx context.Context, payload []byte, acc *account.Account) (*Outcome, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload []byte, acc *account.Account) (*Outcome, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, payload []byte, acc *account.Account) (*Outcome, error) {
	return f(ctx, payload, acc)
}

// DeliveryStore deduplicates webhook deliveries. Record returns
// shared.ErrAlreadyProcessed when the delivery ID was seen before; transport
// retries of the same delivery must not re-award XP.
type DeliveryStore interface {
	Record(ctx context.Context, deliveryID string) error
}

// CacheInvalidator drops externally cached read-models after mutations.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher verifies and routes inbound webhook deliveries.
type Dispatcher struct {
	secret     []byte
	handlers   map[string]Handler
	accounts   account.Repository
	deliveries DeliveryStore
	tx         shared.TxRunner
	publisher  shared.EventPublisher
	cache      CacheInvalidator
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher with an empty registry. Handlers are
// registered explicitly at startup; nothing registers itself on import.
func NewDispatcher(
	secret string,
	accounts account.Repository,
	deliveries DeliveryStore,
	tx shared.TxRunner,
	publisher shared.EventPublisher,
	cache CacheInvalidator,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		secret:     []byte(secret),
		handlers:   make(map[string]Handler),
		accounts:   accounts,
		deliveries: deliveries,
		tx:         tx,
		publisher:  publisher,
		cache:      cache,
		logger:     logger,
	}
}

// Register maps an external event-type string to a handler. Later
// registrations for the same type replace earlier ones.
func (d *Dispatcher) Register(eventType string, h Handler) {
	d.handlers[eventType] = h
}

// VerifySignature checks the sha256=<hex> HMAC header over the raw body.
// Constant-time comparison; an empty configured secret rejects everything.
func (d *Dispatcher) VerifySignature(body []byte, signature string) bool {
	if len(d.secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, d.secret)
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// senderEnvelope is the minimal payload slice needed to resolve the
// triggering account before the handler sees the body.
type senderEnvelope struct {
	Pusher struct {
		Name string `json:"name"`
	} `json:"pusher"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// Dispatch verifies, resolves, and routes one delivery. The handler runs
// inside a single transaction together with the delivery-ID dedup record;
// collected events and cache invalidations happen strictly after commit.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte, signature, eventType, deliveryID string) (*Outcome, error) {
	if !d.VerifySignature(body, signature) {
		return nil, ErrInvalidSignature
	}

	handler, ok := d.handlers[eventType]
	if !ok {
		d.logger.Debug("webhook event ignored", "event", eventType)
		return &Outcome{Status: StatusIgnored, Detail: map[string]interface{}{"event": eventType}}, nil
	}

	var env senderEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, shared.WrapError("webhook", "Dispatch", shared.ErrInvalidInput, "malformed payload", err)
	}

	sender := env.Pusher.Name
	if sender == "" {
		sender = env.Sender.Login
	}
	if sender == "" {
		return &Outcome{Status: StatusNoSender}, nil
	}

	acc, err := d.accounts.GetByHandle(ctx, account.Handle(sender))
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, account.ErrAccountNotFound) {
		// Unrelated third-party senders are expected traffic.
		return &Outcome{Status: StatusUnknownAccount}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("webhook: resolve sender %q: %w", sender, err)
	}

	var outcome *Outcome
	err = d.tx.WithinTx(ctx, func(ctx context.Context) error {
		if deliveryID != "" {
			if err := d.deliveries.Record(ctx, deliveryID); err != nil {
				return err
			}
		}
		var herr error
		outcome, herr = handler.Handle(ctx, body, acc)
		return herr
	})
	if errors.Is(err, shared.ErrAlreadyProcessed) {
		d.logger.Info("webhook delivery replayed", "delivery_id", deliveryID, "event", eventType)
		return &Outcome{Status: StatusDuplicate}, nil
	}
	if err != nil {
		return nil, err
	}

	d.afterCommit(ctx, outcome)
	return outcome, nil
}

// afterCommit publishes collected events and invalidates caches. Both are
// best-effort: the mutation is already durable.
func (d *Dispatcher) afterCommit(ctx context.Context, outcome *Outcome) {
	if outcome == nil {
		return
	}
	for _, event := range outcome.Events {
		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("webhook event publish failed", "type", event.EventType(), "error", err)
		}
	}
	if d.cache == nil {
		return
	}
	for _, key := range outcome.CacheKeys {
		if err := d.cache.Invalidate(ctx, key); err != nil {
			d.logger.Warn("cache invalidation failed", "key", key, "error", err)
		}
	}
}
