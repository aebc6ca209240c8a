package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/progression"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements progression.StreakRepository for PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

// Get returns the streak for (account, kind), or nil when no activity of
// that kind has ever been recorded.
func (r *StreakRepository) Get(ctx context.Context, accountID string, kind progression.StreakKind) (*progression.Streak, error) {
	query := `
		SELECT account_id, kind, current, longest, last_activity_date, updated_at
		FROM streaks
		WHERE account_id = $1 AND kind = $2
	`

	var s progression.Streak
	var kindStr string

	err := r.conn.querier(ctx).QueryRow(ctx, query, accountID, string(kind)).Scan(
		&s.AccountID,
		&kindStr,
		&s.Current,
		&s.Longest,
		&s.LastActivityDate,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	s.Kind = progression.StreakKind(kindStr)
	// DATE columns must stay normalized to midnight UTC for day arithmetic.
	s.LastActivityDate = s.LastActivityDate.UTC()
	return &s, nil
}

// Save inserts or updates a streak record.
func (r *StreakRepository) Save(ctx context.Context, s *progression.Streak) error {
	query := `
		INSERT INTO streaks (account_id, kind, current, longest, last_activity_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id, kind) DO UPDATE SET
			current = EXCLUDED.current,
			longest = EXCLUDED.longest,
			last_activity_date = EXCLUDED.last_activity_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		s.AccountID,
		string(s.Kind),
		s.Current,
		s.Longest,
		s.LastActivityDate,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}

	return nil
}
