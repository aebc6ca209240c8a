package query

import (
	"context"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ListCustomGoalsQuery asks for an account's active custom goals.
type ListCustomGoalsQuery struct {
	AccountID string
}

// ListCustomGoalsHandler handles ListCustomGoalsQuery.
type ListCustomGoalsHandler struct {
	goals goal.Repository
}

// NewListCustomGoalsHandler creates a new ListCustomGoalsHandler.
func NewListCustomGoalsHandler(goals goal.Repository) *ListCustomGoalsHandler {
	return &ListCustomGoalsHandler{goals: goals}
}

// Handle executes the query, newest goals first.
func (h *ListCustomGoalsHandler) Handle(ctx context.Context, q ListCustomGoalsQuery) ([]*goal.Goal, error) {
	if q.AccountID == "" {
		return nil, shared.NewDomainError("goal", "ListCustom", shared.ErrInvalidInput, "account_id is required")
	}
	return h.goals.ListCustom(ctx, q.AccountID)
}
