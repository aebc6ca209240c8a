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
// INCREMENT GOAL COMMAND
// Adds progress and, when the goal crosses its target for the first time,
// awards completion XP through the award pipeline. The completed flag is the
// idempotence boundary: incrementing a completed goal never re-awards.
// ══════════════════════════════════════════════════════════════════════════════

// IncrementGoalCommand contains the data to progress a goal.
type IncrementGoalCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// GoalID is the goal to progress.
	GoalID string

	// Delta is the progress to add. Zero defaults to 1; negative is invalid.
	Delta int
}

// Validate validates the command.
func (c IncrementGoalCommand) Validate() error {
	if c.AccountID == "" || c.GoalID == "" {
		return shared.NewDomainError("goal", "Increment", shared.ErrInvalidInput, "account_id and goal_id are required")
	}
	if c.Delta < 0 {
		return shared.NewDomainError("goal", "Increment", shared.ErrInvalidInput, "delta cannot be negative")
	}
	return nil
}

// IncrementGoalResult contains the result.
type IncrementGoalResult struct {
	Goal *goal.Goal

	// Completed indicates this call completed the goal.
	Completed bool

	// XPAwarded is the completion XP, zero unless Completed.
	XPAwarded int

	// Events contains domain events to publish after commit.
	Events []shared.Event
}

// IncrementGoalHandler handles IncrementGoalCommand.
type IncrementGoalHandler struct {
	goals goal.Repository
	award *AwardXPHandler

	now func() time.Time
}

// NewIncrementGoalHandler creates a new IncrementGoalHandler.
func NewIncrementGoalHandler(goals goal.Repository, award *AwardXPHandler) *IncrementGoalHandler {
	return &IncrementGoalHandler{goals: goals, award: award, now: time.Now}
}

// Handle progresses the goal. Must run inside the caller's transaction: the
// row lock taken by GetForUpdate serializes concurrent increments of the same
// goal, and the progress update plus completion award commit as one unit.
func (h *IncrementGoalHandler) Handle(ctx context.Context, cmd IncrementGoalCommand) (*IncrementGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	delta := cmd.Delta
	if delta == 0 {
		delta = 1
	}

	g, err := h.goals.GetForUpdate(ctx, cmd.AccountID, cmd.GoalID)
	if err != nil {
		return nil, err
	}

	if g.Completed {
		// Already done: return the goal unchanged, award nothing.
		return &IncrementGoalResult{Goal: g}, nil
	}

	justCompleted := g.ApplyProgress(delta, h.now())
	if err := h.goals.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("increment_goal: update: %w", err)
	}

	result := &IncrementGoalResult{Goal: g, Completed: justCompleted}

	if justCompleted {
		awardRes, err := h.award.Handle(ctx, AwardXPCommand{
			AccountID: cmd.AccountID,
			Source:    progression.SourceGoalComplete,
			Meta: progression.Metadata{
				Goal: &progression.GoalMetadata{GoalID: g.ID, Difficulty: g.Difficulty},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("increment_goal: completion award: %w", err)
		}
		result.XPAwarded = awardRes.Amount
		result.Events = append(result.Events, awardRes.Events...)
	}

	result.Events = append(result.Events, goal.NewUpdatedEvent(g, result.XPAwarded))
	return result, nil
}
