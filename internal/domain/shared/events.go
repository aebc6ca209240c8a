package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event. The values double as the
// envelope type delivered to live client connections.
type EventType string

const (
	// Progression events
	EventXPGained EventType = "xp_gained"

	// Goal events
	EventGoalCreated EventType = "goal_created"
	EventGoalUpdated EventType = "goal_updated"
	EventGoalDeleted EventType = "goal_deleted"

	// Connection events. Emitted by the stream itself, never by the domain.
	EventConnected EventType = "connected"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AccountID returns the ID of the account the event belongs to.
	AccountID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Account   string    `json:"account_id"`
}

// EventType implements Event.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AccountID implements Event.
func (e BaseEvent) AccountID() string {
	return e.Account
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, accountID string) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Account:   accountID,
	}
}

// EventHandler processes a single domain event.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error

	// Name returns a human-readable handler name for logging.
	Name() string
}

// EventPublisher publishes domain events to subscribers. Mutating operations
// collect events during their transaction and the caller publishes them only
// after the transaction has committed, so a client can never observe a
// notification for state that was rolled back.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// TxRunner supplies the ambient transaction boundary. All reads and writes
// performed inside fn share one transaction; fn returning an error rolls the
// whole unit back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
