package progression

import (
	"context"
	"time"
)

// StreakRepository defines the storage contract for streak records.
// Implementations live in infrastructure/persistence.
type StreakRepository interface {
	// Get returns the streak for (account, kind), or nil when no activity
	// of that kind has ever been recorded. Callers must distinguish absent
	// from a zero-length streak.
	Get(ctx context.Context, accountID string, kind StreakKind) (*Streak, error)

	// Save inserts or updates a streak record. Uniqueness on
	// (account, kind) is enforced at the storage boundary.
	Save(ctx context.Context, s *Streak) error
}

// LedgerRepository defines the storage contract for XP ledger entries.
type LedgerRepository interface {
	// Append writes a new immutable entry.
	Append(ctx context.Context, entry *Entry) error

	// CountForDay returns how many entries of the source the account has
	// dated the given normalized calendar date. Compares Entry.Day, not
	// CreatedAt. Used for daily-cap enforcement.
	CountForDay(ctx context.Context, accountID string, source Source, day time.Time) (int, error)

	// ListUnnotified returns entries the account has not yet seen live,
	// oldest first. This is the reconnect backlog.
	ListUnnotified(ctx context.Context, accountID string) ([]*Entry, error)

	// MarkNotified flags a single entry as delivered.
	MarkNotified(ctx context.Context, entryID string) error

	// MarkAllNotified flags every entry of the account as seen.
	MarkAllNotified(ctx context.Context, accountID string) error
}
