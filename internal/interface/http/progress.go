package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Tojustn/Shepherd/internal/application/command"
	"github.com/Tojustn/Shepherd/internal/application/query"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress returns the account's XP standing.
// Route: GET /api/v1/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{
		AccountID: accountID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id":       res.AccountID,
		"display_name":     res.DisplayName,
		"total_xp":         res.TotalXP,
		"level":            res.Level,
		"next_level_xp":    res.NextLevelXP,
		"pending_level_up": res.PendingLevelUp,
	})
}

// handleAckLevelUp clears the pending level-up flag.
// Route: POST /api/v1/progress/level-up/ack
func (s *Server) handleAckLevelUp(w http.ResponseWriter, r *http.Request) {
	err := s.deps.AckLevelUp.Handle(r.Context(), command.AckLevelUpCommand{
		AccountID: accountID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true})
}

// handleGetStreak returns one streak. An account with no recorded activity
// of the kind gets a zero streak rather than a 404.
// Route: GET /api/v1/streaks/{kind}
func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	kind := progression.StreakKind(r.PathValue("kind"))

	res, err := s.deps.GetStreak.Handle(r.Context(), query.GetStreakQuery{
		AccountID: accountID(r.Context()),
		Kind:      kind,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body := map[string]interface{}{
		"kind":    string(kind),
		"current": 0,
		"longest": 0,
	}
	if res.Exists {
		body["current"] = res.Streak.Current
		body["longest"] = res.Streak.Longest
		body["last_activity_date"] = res.Streak.LastActivityDate.Format("2006-01-02")
	}
	body["multiplier"] = progression.StreakMultiplier(streakDays(res))

	writeJSON(w, http.StatusOK, body)
}

func streakDays(res *query.GetStreakResult) int {
	if !res.Exists {
		return 0
	}
	return res.Streak.Current
}

// handleRecordSolve records a solved problem reported by the client.
// Route: POST /api/v1/solves
func (s *Server) handleRecordSolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slug       string `json:"slug"`
		Difficulty string `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}

	var res *command.RecordSolveResult
	err := s.deps.Tx.WithinTx(r.Context(), func(ctx context.Context) error {
		var herr error
		res, herr = s.deps.RecordSolve.Handle(ctx, command.RecordSolveCommand{
			AccountID:  accountID(r.Context()),
			Slug:       req.Slug,
			Difficulty: req.Difficulty,
		})
		return herr
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.publishAll(r.Context(), res.Events)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"xp_awarded":      res.XPAwarded,
		"streak":          res.Streak.Current,
		"streak_extended": res.StreakExtended,
		"quest_completed": res.QuestCompleted,
	})
}
