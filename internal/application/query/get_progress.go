package query

import (
	"context"

	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// GetProgressQuery asks for an account's XP standing.
type GetProgressQuery struct {
	AccountID string
}

// GetProgressResult is the account's current standing plus the XP still
// needed for the next level.
type GetProgressResult struct {
	AccountID      string
	DisplayName    string
	TotalXP        int
	Level          int
	NextLevelXP    int
	PendingLevelUp bool
}

// GetProgressHandler handles GetProgressQuery.
type GetProgressHandler struct {
	accounts account.Repository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(accounts account.Repository) *GetProgressHandler {
	return &GetProgressHandler{accounts: accounts}
}

// Handle executes the query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*GetProgressResult, error) {
	if q.AccountID == "" {
		return nil, shared.NewDomainError("account", "GetProgress", shared.ErrInvalidInput, "account_id is required")
	}

	acc, err := h.accounts.GetByID(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}

	return &GetProgressResult{
		AccountID:      acc.ID,
		DisplayName:    acc.DisplayName,
		TotalXP:        int(acc.XP),
		Level:          acc.Level,
		NextLevelXP:    progression.XPThreshold(acc.Level + 1),
		PendingLevelUp: acc.PendingLevelUp,
	}, nil
}
