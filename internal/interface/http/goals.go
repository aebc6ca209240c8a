package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Tojustn/Shepherd/internal/application/command"
	"github.com/Tojustn/Shepherd/internal/application/query"
	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOAL VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// goalView is the JSON shape of a goal.
type goalView struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Label       string     `json:"label"`
	Target      int        `json:"target"`
	Current     int        `json:"current"`
	Difficulty  int        `json:"difficulty"`
	Date        string     `json:"date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toGoalView(g *goal.Goal) goalView {
	v := goalView{
		ID:         g.ID,
		Kind:       string(g.Kind),
		Label:      g.Label,
		Target:     g.Target,
		Current:    g.Current,
		Difficulty: g.Difficulty,
		Completed:  g.Completed,
		CreatedAt:  g.CreatedAt,
	}
	if !g.Date.IsZero() {
		v.Date = g.Date.Format("2006-01-02")
	}
	if !g.CompletedAt.IsZero() {
		t := g.CompletedAt
		v.CompletedAt = &t
	}
	return v
}

func toGoalViews(goals []*goal.Goal) []goalView {
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, toGoalView(g))
	}
	return views
}

// publishAll delivers post-commit events. Failures are logged; the mutation
// already committed and must still report success.
func (s *Server) publishAll(ctx context.Context, events []shared.Event) {
	for _, e := range events {
		if err := s.deps.Publisher.Publish(ctx, e); err != nil {
			s.logger.Error("failed to publish event", "event_type", e.EventType(), "error", err)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListGoals returns the account's active custom goals.
// Route: GET /api/v1/goals
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.ListCustomGoals.Handle(r.Context(), query.ListCustomGoalsQuery{
		AccountID: accountID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": toGoalViews(goals)})
}

// handleDailyGoals materializes and returns today's daily quests.
// Route: GET /api/v1/goals/daily
func (s *Server) handleDailyGoals(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.EnsureDailyGoals.Handle(r.Context(), command.EnsureDailyGoalsCommand{
		AccountID: accountID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": toGoalViews(res.Goals)})
}

// handleCreateGoal creates a custom goal.
// Route: POST /api/v1/goals
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label      string `json:"label"`
		Target     int    `json:"target"`
		Difficulty int    `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}

	res, err := s.deps.CreateGoal.Handle(r.Context(), command.CreateGoalCommand{
		AccountID:  accountID(r.Context()),
		Label:      req.Label,
		Target:     req.Target,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.publishAll(r.Context(), res.Events)
	writeJSON(w, http.StatusCreated, toGoalView(res.Goal))
}

// handleIncrementGoal adds progress to a goal, awarding completion XP when
// the target is reached.
// Route: POST /api/v1/goals/{id}/increment
func (s *Server) handleIncrementGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
			return
		}
	}

	var res *command.IncrementGoalResult
	err := s.deps.Tx.WithinTx(r.Context(), func(ctx context.Context) error {
		var herr error
		res, herr = s.deps.IncrementGoal.Handle(ctx, command.IncrementGoalCommand{
			AccountID: accountID(r.Context()),
			GoalID:    r.PathValue("id"),
			Delta:     req.Delta,
		})
		return herr
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.publishAll(r.Context(), res.Events)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"goal":       toGoalView(res.Goal),
		"completed":  res.Completed,
		"xp_awarded": res.XPAwarded,
	})
}

// handleCompleteGoal completes a single-target custom goal directly.
// Route: POST /api/v1/goals/{id}/complete
func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	var res *command.CompleteGoalResult
	err := s.deps.Tx.WithinTx(r.Context(), func(ctx context.Context) error {
		var herr error
		res, herr = s.deps.CompleteGoal.Handle(ctx, command.CompleteGoalCommand{
			AccountID: accountID(r.Context()),
			GoalID:    r.PathValue("id"),
		})
		return herr
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.publishAll(r.Context(), res.Events)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"goal":       toGoalView(res.Goal),
		"completed":  res.Completed,
		"xp_awarded": res.XPAwarded,
	})
}

// handleDeleteGoal removes a custom goal.
// Route: DELETE /api/v1/goals/{id}
func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.DeleteGoal.Handle(r.Context(), command.DeleteGoalCommand{
		AccountID: accountID(r.Context()),
		GoalID:    r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.publishAll(r.Context(), res.Events)
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
