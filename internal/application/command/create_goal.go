package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE GOAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateGoalCommand contains the data for a new custom goal.
type CreateGoalCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// Label is the display text.
	Label string

	// Target is the numeric target, >= 1.
	Target int

	// Difficulty is the tier 1-5. Zero defaults to 1.
	Difficulty int
}

// CreateGoalResult contains the result.
type CreateGoalResult struct {
	Goal *goal.Goal

	// Events contains domain events to publish after commit.
	Events []shared.Event
}

// CreateGoalHandler handles CreateGoalCommand.
type CreateGoalHandler struct {
	goals goal.Repository
	newID func() string
}

// NewCreateGoalHandler creates a new CreateGoalHandler.
func NewCreateGoalHandler(goals goal.Repository) *CreateGoalHandler {
	return &CreateGoalHandler{goals: goals, newID: uuid.NewString}
}

// Handle creates the goal.
func (h *CreateGoalHandler) Handle(ctx context.Context, cmd CreateGoalCommand) (*CreateGoalResult, error) {
	if cmd.AccountID == "" {
		return nil, shared.NewDomainError("goal", "Create", shared.ErrInvalidInput, "account_id is required")
	}

	difficulty := cmd.Difficulty
	if difficulty == 0 {
		difficulty = 1
	}

	g, err := goal.NewCustomGoal(goal.NewCustomGoalParams{
		ID:         h.newID(),
		AccountID:  cmd.AccountID,
		Label:      cmd.Label,
		Target:     cmd.Target,
		Difficulty: difficulty,
	})
	if err != nil {
		return nil, shared.WrapError("goal", "Create", shared.ErrValidation, "invalid goal", err)
	}

	if err := h.goals.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create_goal: %w", err)
	}

	return &CreateGoalResult{
		Goal:   g,
		Events: []shared.Event{goal.NewCreatedEvent(g)},
	}, nil
}
