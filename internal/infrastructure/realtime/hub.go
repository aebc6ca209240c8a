// Package realtime maintains the registry of live per-user connections and
// fans committed events out to them. One account may hold several concurrent
// connections (multiple tabs); an event is delivered at most once per
// connection and never blocks the publisher.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// Envelope is what travels down a live connection: a named event plus its
// JSON-ready payload.
type Envelope struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Connection is a single live subscription for one account. The receive
// channel is closed exactly once, when the connection is closed.
type Connection struct {
	hub       *Hub
	accountID string
	ch        chan Envelope
	closeOnce sync.Once
}

// Receive returns the channel the consumer reads envelopes from.
func (c *Connection) Receive() <-chan Envelope { return c.ch }

// Close removes the connection from the hub and closes its channel. Safe to
// call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.hub.remove(c)
		close(c.ch)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// HUB
// ══════════════════════════════════════════════════════════════════════════════

// Hub is the live connection registry. All methods are safe for concurrent
// use.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[*Connection]struct{}
	buffer int
	logger *slog.Logger
}

// NewHub creates a hub. buffer is the per-connection channel capacity; a
// consumer that falls further behind than this starts losing events rather
// than stalling publishers.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:  make(map[string]map[*Connection]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Open registers a new connection for the account and returns it.
func (h *Hub) Open(accountID string) *Connection {
	conn := &Connection{
		hub:       h,
		accountID: accountID,
		ch:        make(chan Envelope, h.buffer),
	}

	h.mu.Lock()
	set, ok := h.conns[accountID]
	if !ok {
		set = make(map[*Connection]struct{})
		h.conns[accountID] = set
	}
	set[conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("connection opened", "account_id", accountID)
	return conn
}

func (h *Hub) remove(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.accountID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, c.accountID)
	}
	h.logger.Debug("connection closed", "account_id", c.accountID)
}

// Publish sends the event to every live connection of the account without
// blocking. It reports whether at least one connection ACCEPTED the event,
// not merely whether the account had connections open: a connection whose
// buffer is full never sees the envelope, so it must not count as delivered.
// Callers use the result to decide whether the event still needs to land in
// the unread backlog.
func (h *Hub) Publish(accountID string, eventType shared.EventType, data map[string]interface{}) bool {
	env := Envelope{Type: string(eventType), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for conn := range h.conns[accountID] {
		select {
		case conn.ch <- env:
			delivered = true
		default:
			h.logger.Warn("dropping event for slow consumer",
				"account_id", accountID,
				"event_type", eventType,
			)
		}
	}
	return delivered
}

// ConnectionCount returns the total number of live connections across all
// accounts. Used by the metrics gauge.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, set := range h.conns {
		total += len(set)
	}
	return total
}
