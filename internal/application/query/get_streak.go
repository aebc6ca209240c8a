// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// GetStreakQuery asks for one account's streak of one kind.
type GetStreakQuery struct {
	AccountID string
	Kind      progression.StreakKind
}

// GetStreakResult distinguishes "no activity yet" from a zero-length streak:
// both render as current=0 but Exists differs.
type GetStreakResult struct {
	Exists bool
	Streak *progression.Streak
}

// GetStreakHandler handles GetStreakQuery.
type GetStreakHandler struct {
	streaks progression.StreakRepository
}

// NewGetStreakHandler creates a new GetStreakHandler.
func NewGetStreakHandler(streaks progression.StreakRepository) *GetStreakHandler {
	return &GetStreakHandler{streaks: streaks}
}

// Handle executes the query.
func (h *GetStreakHandler) Handle(ctx context.Context, q GetStreakQuery) (*GetStreakResult, error) {
	if q.AccountID == "" {
		return nil, shared.NewDomainError("progression", "GetStreak", shared.ErrInvalidInput, "account_id is required")
	}
	if !q.Kind.IsValid() {
		return nil, shared.NewDomainError("progression", "GetStreak", shared.ErrInvalidInput, "unknown streak kind")
	}

	s, err := h.streaks.Get(ctx, q.AccountID, q.Kind)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &GetStreakResult{Exists: false}, nil
	}
	return &GetStreakResult{Exists: true, Streak: s}, nil
}
