package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
	"github.com/Tojustn/Shepherd/pkg/dateutil"
)

// dayOf resolves a wall-clock instant to the reference-zone calendar date the
// domain operates on. Handlers never pass raw timestamps down.
func dayOf(t time.Time, loc *time.Location) time.Time {
	return dateutil.DayOf(t, loc)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADVANCE STREAK COMMAND
// One qualifying activity of one kind on one calendar date. Idempotent within
// a day; resets after a gap of two or more days.
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceStreakCommand contains the data to advance a streak.
type AdvanceStreakCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// Kind is the activity kind.
	Kind progression.StreakKind

	// Today is the pre-resolved calendar date of the activity.
	// Zero means "resolve from the handler's clock".
	Today time.Time
}

// Validate validates the command.
func (c AdvanceStreakCommand) Validate() error {
	if c.AccountID == "" {
		return shared.NewDomainError("progression", "Advance", shared.ErrInvalidInput, "account_id is required")
	}
	if !c.Kind.IsValid() {
		return shared.NewDomainError("progression", "Advance", shared.ErrInvalidInput,
			fmt.Sprintf("unknown streak kind %q", c.Kind))
	}
	return nil
}

// AdvanceStreakResult contains the result of advancing a streak.
type AdvanceStreakResult struct {
	// Streak is the record after the transition.
	Streak *progression.Streak

	// Extended indicates the run grew or started today. False when the
	// account already had activity of this kind today.
	Extended bool

	// Created indicates this was the first activity of this kind ever.
	Created bool
}

// AdvanceStreakHandler handles AdvanceStreakCommand.
type AdvanceStreakHandler struct {
	streaks progression.StreakRepository

	now func() time.Time
	loc *time.Location
}

// NewAdvanceStreakHandler creates a new AdvanceStreakHandler.
func NewAdvanceStreakHandler(streaks progression.StreakRepository, loc *time.Location) *AdvanceStreakHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdvanceStreakHandler{
		streaks: streaks,
		now:     time.Now,
		loc:     loc,
	}
}

// Handle executes the streak transition. Must run inside the caller's
// transaction when composed with awards.
func (h *AdvanceStreakHandler) Handle(ctx context.Context, cmd AdvanceStreakCommand) (*AdvanceStreakResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	today := cmd.Today
	if today.IsZero() {
		today = dayOf(h.now(), h.loc)
	}

	streak, err := h.streaks.Get(ctx, cmd.AccountID, cmd.Kind)
	if err != nil {
		return nil, fmt.Errorf("advance_streak: lookup: %w", err)
	}

	if streak == nil {
		streak = progression.NewStreak(cmd.AccountID, cmd.Kind, today)
		if err := h.streaks.Save(ctx, streak); err != nil {
			return nil, fmt.Errorf("advance_streak: create: %w", err)
		}
		return &AdvanceStreakResult{Streak: streak, Extended: true, Created: true}, nil
	}

	changed := streak.Advance(today)
	if changed {
		if err := h.streaks.Save(ctx, streak); err != nil {
			return nil, fmt.Errorf("advance_streak: save: %w", err)
		}
	}

	return &AdvanceStreakResult{Streak: streak, Extended: changed}, nil
}
