package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENSURE DAILY GOALS COMMAND
// Lazily creates any missing catalog quest for the given date and returns the
// full set. Safe to call concurrently: the storage layer's uniqueness
// constraint on (account, kind, date) wins races, not this handler.
// ══════════════════════════════════════════════════════════════════════════════

// EnsureDailyGoalsCommand contains the data to materialize today's quests.
type EnsureDailyGoalsCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// Today is the pre-resolved calendar date.
	// Zero means "resolve from the handler's clock".
	Today time.Time
}

// Validate validates the command.
func (c EnsureDailyGoalsCommand) Validate() error {
	if c.AccountID == "" {
		return shared.NewDomainError("goal", "EnsureDaily", shared.ErrInvalidInput, "account_id is required")
	}
	return nil
}

// EnsureDailyGoalsResult contains the result.
type EnsureDailyGoalsResult struct {
	// Goals is the full set of daily quests for the date, existing and
	// freshly created, in catalog order.
	Goals []*goal.Goal

	// Created is how many quests this call created.
	Created int
}

// EnsureDailyGoalsHandler handles EnsureDailyGoalsCommand.
type EnsureDailyGoalsHandler struct {
	goals goal.Repository

	now   func() time.Time
	loc   *time.Location
	newID func() string
}

// NewEnsureDailyGoalsHandler creates a new EnsureDailyGoalsHandler.
func NewEnsureDailyGoalsHandler(goals goal.Repository, loc *time.Location) *EnsureDailyGoalsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EnsureDailyGoalsHandler{
		goals: goals,
		now:   time.Now,
		loc:   loc,
		newID: uuid.NewString,
	}
}

// Handle materializes the quests. Existing goals are left untouched.
func (h *EnsureDailyGoalsHandler) Handle(ctx context.Context, cmd EnsureDailyGoalsCommand) (*EnsureDailyGoalsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	today := cmd.Today
	if today.IsZero() {
		today = dayOf(h.now(), h.loc)
	}

	existing, err := h.goals.ListDaily(ctx, cmd.AccountID, today)
	if err != nil {
		return nil, fmt.Errorf("ensure_daily: list: %w", err)
	}

	byKind := make(map[goal.Kind]*goal.Goal, len(existing))
	for _, g := range existing {
		byKind[g.Kind] = g
	}

	result := &EnsureDailyGoalsResult{}
	for _, item := range goal.DailyCatalog {
		if g, ok := byKind[item.Kind]; ok {
			result.Goals = append(result.Goals, g)
			continue
		}

		g := goal.NewDailyGoal(h.newID(), cmd.AccountID, item, today)
		err := h.goals.Create(ctx, g)
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost a race with a concurrent ensure; the winner's row is
			// the quest.
			fresh, lerr := h.goals.ListDaily(ctx, cmd.AccountID, today)
			if lerr != nil {
				return nil, fmt.Errorf("ensure_daily: reread after race: %w", lerr)
			}
			g = nil
			for _, f := range fresh {
				if f.Kind == item.Kind {
					g = f
					break
				}
			}
			if g == nil {
				return nil, fmt.Errorf("ensure_daily: quest %s vanished after race", item.Kind)
			}
			result.Goals = append(result.Goals, g)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ensure_daily: create %s: %w", item.Kind, err)
		}

		result.Goals = append(result.Goals, g)
		result.Created++
	}

	return result, nil
}
