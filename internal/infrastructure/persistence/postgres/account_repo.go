package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/account"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AccountRepository implements account.Repository for PostgreSQL.
type AccountRepository struct {
	conn *Connection
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(conn *Connection) *AccountRepository {
	return &AccountRepository{conn: conn}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (
			id, handle, display_name, xp, level, pending_level_up,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		acc.ID,
		string(acc.Handle),
		acc.DisplayName,
		int(acc.XP),
		acc.Level,
		acc.PendingLevelUp,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return account.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID returns an account by internal ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT id, handle, display_name, xp, level, pending_level_up,
			   created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	row := r.conn.querier(ctx).QueryRow(ctx, query, id)
	return r.scanAccount(row)
}

// GetByHandle returns an account by its external identity.
func (r *AccountRepository) GetByHandle(ctx context.Context, handle account.Handle) (*account.Account, error) {
	query := `
		SELECT id, handle, display_name, xp, level, pending_level_up,
			   created_at, updated_at
		FROM accounts
		WHERE handle = $1
	`

	row := r.conn.querier(ctx).QueryRow(ctx, query, string(handle))
	return r.scanAccount(row)
}

// Update persists changes to an existing account.
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts SET
			display_name = $1,
			xp = $2,
			level = $3,
			pending_level_up = $4,
			updated_at = $5
		WHERE id = $6
	`

	result, err := r.conn.querier(ctx).Exec(ctx, query,
		acc.DisplayName,
		int(acc.XP),
		acc.Level,
		acc.PendingLevelUp,
		time.Now().UTC(),
		acc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	var handle string
	var xp int

	err := row.Scan(
		&acc.ID,
		&handle,
		&acc.DisplayName,
		&xp,
		&acc.Level,
		&acc.PendingLevelUp,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acc.Handle = account.Handle(handle)
	acc.XP = account.XP(xp)
	return &acc, nil
}
