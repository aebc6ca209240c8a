package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE GOAL COMMAND
// Checkbox-style shortcut for target-1 custom goals. Same idempotence rule as
// increment: a second completion returns the goal unchanged and awards nothing.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteGoalCommand contains the data to complete a goal directly.
type CompleteGoalCommand struct {
	AccountID string
	GoalID    string
}

// CompleteGoalResult contains the result.
type CompleteGoalResult struct {
	Goal *goal.Goal

	// Completed indicates this call completed the goal.
	Completed bool

	// XPAwarded is the completion XP, zero unless Completed.
	XPAwarded int

	// Events contains domain events to publish after commit.
	Events []shared.Event
}

// CompleteGoalHandler handles CompleteGoalCommand.
type CompleteGoalHandler struct {
	goals goal.Repository
	award *AwardXPHandler

	now func() time.Time
}

// NewCompleteGoalHandler creates a new CompleteGoalHandler.
func NewCompleteGoalHandler(goals goal.Repository, award *AwardXPHandler) *CompleteGoalHandler {
	return &CompleteGoalHandler{goals: goals, award: award, now: time.Now}
}

// Handle completes the goal. Must run inside the caller's transaction.
func (h *CompleteGoalHandler) Handle(ctx context.Context, cmd CompleteGoalCommand) (*CompleteGoalResult, error) {
	if cmd.AccountID == "" || cmd.GoalID == "" {
		return nil, shared.NewDomainError("goal", "Complete", shared.ErrInvalidInput, "account_id and goal_id are required")
	}

	g, err := h.goals.GetForUpdate(ctx, cmd.AccountID, cmd.GoalID)
	if err != nil {
		return nil, err
	}

	if g.Kind != goal.KindCustom {
		// Daily quests complete through recorded activity, not clicks.
		return nil, shared.NewDomainError("goal", "Complete", shared.ErrInvalidOperation,
			"only custom goals can be completed directly")
	}

	justCompleted, err := g.Complete(h.now())
	if err != nil {
		return nil, shared.WrapError("goal", "Complete", shared.ErrInvalidOperation, "direct completion rejected", err)
	}
	if !justCompleted {
		return &CompleteGoalResult{Goal: g}, nil
	}

	if err := h.goals.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("complete_goal: update: %w", err)
	}

	awardRes, err := h.award.Handle(ctx, AwardXPCommand{
		AccountID: cmd.AccountID,
		Source:    progression.SourceGoalComplete,
		Meta: progression.Metadata{
			Goal: &progression.GoalMetadata{GoalID: g.ID, Difficulty: g.Difficulty},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("complete_goal: completion award: %w", err)
	}

	events := append(awardRes.Events, goal.NewUpdatedEvent(g, awardRes.Amount))
	return &CompleteGoalResult{
		Goal:      g,
		Completed: true,
		XPAwarded: awardRes.Amount,
		Events:    events,
	}, nil
}
