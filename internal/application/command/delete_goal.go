package command

import (
	"context"
	"fmt"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE GOAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteGoalCommand contains the data to delete a custom goal.
type DeleteGoalCommand struct {
	AccountID string
	GoalID    string
}

// DeleteGoalResult contains the result.
type DeleteGoalResult struct {
	// Events contains domain events to publish after commit.
	Events []shared.Event
}

// DeleteGoalHandler handles DeleteGoalCommand.
type DeleteGoalHandler struct {
	goals goal.Repository
}

// NewDeleteGoalHandler creates a new DeleteGoalHandler.
func NewDeleteGoalHandler(goals goal.Repository) *DeleteGoalHandler {
	return &DeleteGoalHandler{goals: goals}
}

// Handle deletes the goal. Daily quests are retained for audit: deleting one
// is an invalid operation, deactivation is the only way to hide them.
func (h *DeleteGoalHandler) Handle(ctx context.Context, cmd DeleteGoalCommand) (*DeleteGoalResult, error) {
	if cmd.AccountID == "" || cmd.GoalID == "" {
		return nil, shared.NewDomainError("goal", "Delete", shared.ErrInvalidInput, "account_id and goal_id are required")
	}

	g, err := h.goals.GetByID(ctx, cmd.AccountID, cmd.GoalID)
	if err != nil {
		return nil, err
	}

	if g.Kind != goal.KindCustom {
		return nil, shared.WrapError("goal", "Delete", shared.ErrInvalidOperation,
			"daily quests cannot be deleted", goal.ErrGoalNotDeletable)
	}

	if err := h.goals.Delete(ctx, cmd.AccountID, cmd.GoalID); err != nil {
		return nil, fmt.Errorf("delete_goal: %w", err)
	}

	return &DeleteGoalResult{
		Events: []shared.Event{goal.NewDeletedEvent(cmd.AccountID, cmd.GoalID)},
	}, nil
}
