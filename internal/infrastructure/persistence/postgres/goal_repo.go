package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOAL REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GoalRepository implements goal.Repository for PostgreSQL.
type GoalRepository struct {
	conn *Connection
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(conn *Connection) *GoalRepository {
	return &GoalRepository{conn: conn}
}

const goalColumns = `id, account_id, kind, label, target, current, difficulty,
	   active, goal_date, completed, completed_at, created_at`

// Create inserts a new goal. A concurrent duplicate daily quest trips the
// partial unique index and surfaces as shared.ErrAlreadyExists.
func (r *GoalRepository) Create(ctx context.Context, g *goal.Goal) error {
	query := `
		INSERT INTO goals (
			id, account_id, kind, label, target, current, difficulty,
			active, goal_date, completed, completed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		g.ID,
		g.AccountID,
		string(g.Kind),
		g.Label,
		g.Target,
		g.Current,
		g.Difficulty,
		g.Active,
		nullableTime(g.Date),
		g.Completed,
		nullableTime(g.CompletedAt),
		g.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create goal: %w", err)
	}

	return nil
}

// GetByID returns a goal owned by the account.
func (r *GoalRepository) GetByID(ctx context.Context, accountID, goalID string) (*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND account_id = $2`

	row := r.conn.querier(ctx).QueryRow(ctx, query, goalID, accountID)
	return r.scanGoal(row)
}

// GetForUpdate is GetByID with a row lock. Must run inside a transaction;
// outside one the lock releases immediately and serializes nothing.
func (r *GoalRepository) GetForUpdate(ctx context.Context, accountID, goalID string) (*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND account_id = $2 FOR UPDATE`

	row := r.conn.querier(ctx).QueryRow(ctx, query, goalID, accountID)
	return r.scanGoal(row)
}

// ListDaily returns the account's daily quests for a normalized date.
func (r *GoalRepository) ListDaily(ctx context.Context, accountID string, date time.Time) ([]*goal.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE account_id = $1 AND goal_date = $2 AND active = TRUE
		ORDER BY kind ASC
	`

	return r.queryGoals(ctx, query, accountID, date)
}

// ListCustom returns the account's active custom goals, newest first.
func (r *GoalRepository) ListCustom(ctx context.Context, accountID string) ([]*goal.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE account_id = $1 AND kind = $2 AND active = TRUE
		ORDER BY created_at DESC
	`

	return r.queryGoals(ctx, query, accountID, string(goal.KindCustom))
}

// Update persists changes to an existing goal.
func (r *GoalRepository) Update(ctx context.Context, g *goal.Goal) error {
	query := `
		UPDATE goals SET
			label = $1,
			target = $2,
			current = $3,
			difficulty = $4,
			active = $5,
			completed = $6,
			completed_at = $7
		WHERE id = $8 AND account_id = $9
	`

	result, err := r.conn.querier(ctx).Exec(ctx, query,
		g.Label,
		g.Target,
		g.Current,
		g.Difficulty,
		g.Active,
		g.Completed,
		nullableTime(g.CompletedAt),
		g.ID,
		g.AccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return goal.ErrGoalNotFound
	}

	return nil
}

// Delete removes a goal row.
func (r *GoalRepository) Delete(ctx context.Context, accountID, goalID string) error {
	result, err := r.conn.querier(ctx).Exec(ctx,
		`DELETE FROM goals WHERE id = $1 AND account_id = $2`, goalID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return goal.ErrGoalNotFound
	}

	return nil
}

func (r *GoalRepository) queryGoals(ctx context.Context, query string, args ...interface{}) ([]*goal.Goal, error) {
	rows, err := r.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g, err := r.scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

func (r *GoalRepository) scanGoal(row pgx.Row) (*goal.Goal, error) {
	var g goal.Goal
	var kind string
	var goalDate, completedAt *time.Time

	err := row.Scan(
		&g.ID,
		&g.AccountID,
		&kind,
		&g.Label,
		&g.Target,
		&g.Current,
		&g.Difficulty,
		&g.Active,
		&goalDate,
		&g.Completed,
		&completedAt,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goal.ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}

	g.Kind = goal.Kind(kind)
	if goalDate != nil {
		g.Date = goalDate.UTC()
	}
	if completedAt != nil {
		g.CompletedAt = *completedAt
	}
	return &g, nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
