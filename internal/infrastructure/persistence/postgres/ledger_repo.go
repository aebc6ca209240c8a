package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements progression.LedgerRepository for PostgreSQL.
// The ledger is append-only; nothing here issues UPDATE except the notified
// flag, which is delivery state rather than award state.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// Append writes a new immutable entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *progression.Entry) error {
	query := `
		INSERT INTO xp_ledger (id, account_id, source, amount, metadata, day, notified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger metadata: %w", err)
	}

	_, err = r.conn.querier(ctx).Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		string(entry.Source),
		entry.Amount,
		metaJSON,
		entry.Day,
		entry.Notified,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// CountForDay returns how many entries of the source the account has dated
// the given normalized calendar date. Compares the stored day column, not
// created_at: in a non-UTC reference zone an entry's wall-clock timestamp can
// fall on a different UTC date than the calendar day it was awarded for.
func (r *LedgerRepository) CountForDay(ctx context.Context, accountID string, source progression.Source, day time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM xp_ledger
		WHERE account_id = $1
		  AND source = $2
		  AND day = $3
	`

	var count int
	err := r.conn.querier(ctx).QueryRow(ctx, query,
		accountID,
		string(source),
		day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

// ListUnnotified returns entries the account has not yet seen live, oldest
// first.
func (r *LedgerRepository) ListUnnotified(ctx context.Context, accountID string) ([]*progression.Entry, error) {
	query := `
		SELECT id, account_id, source, amount, metadata, day, notified, created_at
		FROM xp_ledger
		WHERE account_id = $1 AND notified = FALSE
		ORDER BY created_at ASC
	`

	rows, err := r.conn.querier(ctx).Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unnotified entries: %w", err)
	}
	defer rows.Close()

	var entries []*progression.Entry
	for rows.Next() {
		var e progression.Entry
		var source string
		var metaJSON []byte

		if err := rows.Scan(&e.ID, &e.AccountID, &source, &e.Amount, &metaJSON, &e.Day, &e.Notified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		e.Source = progression.Source(source)
		if err := json.Unmarshal(metaJSON, &e.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// MarkNotified flags a single entry as delivered.
func (r *LedgerRepository) MarkNotified(ctx context.Context, entryID string) error {
	_, err := r.conn.querier(ctx).Exec(ctx,
		`UPDATE xp_ledger SET notified = TRUE WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("failed to mark entry notified: %w", err)
	}
	return nil
}

// MarkAllNotified flags every entry of the account as seen.
func (r *LedgerRepository) MarkAllNotified(ctx context.Context, accountID string) error {
	_, err := r.conn.querier(ctx).Exec(ctx,
		`UPDATE xp_ledger SET notified = TRUE WHERE account_id = $1 AND notified = FALSE`, accountID)
	if err != nil {
		return fmt.Errorf("failed to mark entries notified: %w", err)
	}
	return nil
}
