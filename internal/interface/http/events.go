package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Tojustn/Shepherd/internal/application/command"
	"github.com/Tojustn/Shepherd/internal/application/query"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT STREAM
// ══════════════════════════════════════════════════════════════════════════════

// handleEventStream serves the per-account server-sent event stream. The
// connection stays open until the client disconnects; periodic comment lines
// keep intermediaries from timing it out.
// Route: GET /events/stream?token=<jwt>
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	id := accountID(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	conn := s.deps.Hub.Open(id)
	defer conn.Close()

	writeSSE(w, "connected", map[string]interface{}{
		"account_id":   id,
		"connected_at": time.Now().UTC().Format(time.RFC3339),
	})
	flusher.Flush()

	keepalive := s.config.KeepaliveInterval
	if keepalive <= 0 {
		keepalive = 25 * time.Second
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case env, open := <-conn.Receive():
			if !open {
				return
			}
			writeSSE(w, env.Type, env.Data)
			flusher.Flush()
			// Any write keeps the connection warm, so the keepalive
			// countdown restarts from the last delivered event.
			ticker.Reset(keepalive)
			if s.deps.Metrics != nil {
				s.deps.Metrics.FanoutDeliveredTotal.Inc()
			}

		case <-ticker.C:
			// SSE comment line; clients ignore it.
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSE writes one server-sent event frame.
func writeSSE(w http.ResponseWriter, eventType string, data map[string]interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}

// ══════════════════════════════════════════════════════════════════════════════
// UNREAD BACKLOG
// ══════════════════════════════════════════════════════════════════════════════

// entryView is the JSON shape of a ledger entry in the backlog.
type entryView struct {
	ID        string               `json:"id"`
	Source    string               `json:"source"`
	Amount    int                  `json:"amount"`
	Meta      progression.Metadata `json:"meta"`
	CreatedAt time.Time            `json:"created_at"`
}

// handleListUnreadEvents returns awards the account has not seen live.
// Route: GET /api/v1/events/unread
func (s *Server) handleListUnreadEvents(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.ListUnreadEvents.Handle(r.Context(), query.ListUnreadEventsQuery{
		AccountID: accountID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:        e.ID,
			Source:    string(e.Source),
			Amount:    e.Amount,
			Meta:      e.Meta,
			CreatedAt: e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": views})
}

// handleMarkEventsRead clears the account's backlog.
// Route: POST /api/v1/events/mark-read
func (s *Server) handleMarkEventsRead(w http.ResponseWriter, r *http.Request) {
	err := s.deps.MarkEventsRead.Handle(r.Context(), command.MarkEventsReadCommand{
		AccountID: accountID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"marked": true})
}
