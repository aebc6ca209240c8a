package goal

import (
	"context"
	"time"
)

// Repository defines the storage contract for goals.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create inserts a new goal. For daily quests the storage layer
	// enforces uniqueness on (account, kind, date); a concurrent duplicate
	// insert surfaces as shared.ErrAlreadyExists.
	Create(ctx context.Context, g *Goal) error

	// GetByID returns a goal owned by the account.
	// Returns ErrGoalNotFound when missing or owned by someone else.
	GetByID(ctx context.Context, accountID, goalID string) (*Goal, error)

	// GetForUpdate is GetByID with a row lock, serializing concurrent
	// mutations of the same goal so the completion idempotence invariant
	// holds under rapid double-clicks. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, accountID, goalID string) (*Goal, error)

	// ListDaily returns the account's daily quests for a normalized date.
	ListDaily(ctx context.Context, accountID string, date time.Time) ([]*Goal, error)

	// ListCustom returns the account's active custom goals, newest first.
	ListCustom(ctx context.Context, accountID string) ([]*Goal, error)

	// Update persists changes to an existing goal.
	Update(ctx context.Context, g *Goal) error

	// Delete removes a goal row. Only called for custom goals; daily
	// quests are deactivated via Update.
	Delete(ctx context.Context, accountID, goalID string) error
}
