package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/Tojustn/Shepherd/internal/application/webhook"
)

// maxWebhookBody caps inbound payloads at 5 MB; GitHub truncates push
// payloads well below that.
const maxWebhookBody = 5 << 20

// handleGitHubWebhook receives GitHub webhook deliveries.
// Route: POST /webhooks/github
func (s *Server) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	eventType := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")

	outcome, err := s.deps.Dispatcher.Dispatch(r.Context(), body, signature, eventType, deliveryID)
	if errors.Is(err, webhook.ErrInvalidSignature) {
		s.countWebhook(eventType, "invalid_signature")
		writeJSONError(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}
	if err != nil {
		s.countWebhook(eventType, "error")
		s.logger.Error("webhook dispatch failed",
			"event", eventType,
			"delivery_id", deliveryID,
			"error", err,
			"request_id", getRequestID(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, "dispatch_failed", "failed to process delivery")
		return
	}

	s.countWebhook(eventType, string(outcome.Status))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": string(outcome.Status),
		"detail": outcome.Detail,
	})
}

func (s *Server) countWebhook(eventType, status string) {
	if s.deps.Metrics == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	s.deps.Metrics.WebhooksTotal.WithLabelValues(eventType, status).Inc()
}
