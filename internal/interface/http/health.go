package http

import (
	"net/http"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth probes every backing store and reports per-dependency status.
// Route: GET /health, GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.deps.HealthCheckers))
	healthy := true

	for name, checker := range s.deps.HealthCheckers {
		if err := checker.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]interface{}{
		"healthy":    healthy,
		"checks":     checks,
		"checked_at": time.Now().UTC(),
	})
}

// handleReady reports whether the server can take traffic.
// Route: GET /ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
