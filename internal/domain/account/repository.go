package account

import "context"

// Repository defines the storage contract for accounts.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create creates a new account.
	// Returns ErrAccountAlreadyExists if the handle is taken.
	Create(ctx context.Context, acc *Account) error

	// GetByID returns an account by internal ID.
	// Returns ErrAccountNotFound if no account exists.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByHandle returns an account by its external identity.
	// Returns ErrAccountNotFound if no account exists.
	GetByHandle(ctx context.Context, handle Handle) (*Account, error)

	// Update persists changes to an existing account.
	// Returns ErrAccountNotFound if no account exists.
	Update(ctx context.Context, acc *Account) error
}
