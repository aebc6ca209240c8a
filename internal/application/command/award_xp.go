// Package command contains write operations (CQRS - Commands).
//
// Handlers mutate state through repository interfaces and assume the caller
// supplies the ambient transaction boundary (shared.TxRunner). Domain events
// are returned on the result, never published here, so the interface layer
// can publish strictly after commit.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP COMMAND
// The core scoring pipeline: base amount by source, daily cap, commit-streak
// multiplier, ledger append, level recompute, level-up detection.
// ══════════════════════════════════════════════════════════════════════════════

// AwardXPCommand contains the data for one XP award.
type AwardXPCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// Source is what earned the XP.
	Source progression.Source

	// Meta is the source-specific metadata stored on the ledger entry.
	Meta progression.Metadata

	// Today is the pre-resolved calendar date used for cap counting.
	// Zero means "resolve from the handler's clock".
	Today time.Time
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	if c.AccountID == "" {
		return shared.NewDomainError("progression", "Award", shared.ErrInvalidInput, "account_id is required")
	}
	if !c.Source.IsValid() {
		// Unknown sources are a wiring bug, not user input: fail fast so a
		// misconfigured caller cannot corrupt the ledger's auditability.
		return shared.NewDomainError("progression", "Award", shared.ErrConfiguration,
			fmt.Sprintf("unknown xp source %q", c.Source))
	}
	return nil
}

// AwardXPResult contains the result of an award.
type AwardXPResult struct {
	// Amount is the XP awarded. Zero means the daily cap was hit and
	// nothing was written.
	Amount int

	// Capped indicates the award was dropped by the daily cap.
	Capped bool

	// LevelUp indicates the award pushed the account over a threshold.
	LevelUp bool

	// NewLevel is the account's level after the award.
	NewLevel int

	// TotalXP is the account's cumulative XP after the award.
	TotalXP int

	// Entry is the ledger entry written, nil when capped.
	Entry *progression.Entry

	// Events contains domain events to publish after commit.
	Events []shared.Event
}

// AwardXPHandler handles AwardXPCommand.
type AwardXPHandler struct {
	accounts account.Repository
	ledger   progression.LedgerRepository
	streaks  progression.StreakRepository
	caps     progression.DailyCaps

	now   func() time.Time
	loc   *time.Location
	newID func() string
}

// NewAwardXPHandler creates a new AwardXPHandler.
func NewAwardXPHandler(
	accounts account.Repository,
	ledger progression.LedgerRepository,
	streaks progression.StreakRepository,
	caps progression.DailyCaps,
	loc *time.Location,
) *AwardXPHandler {
	if caps == nil {
		caps = progression.DefaultDailyCaps()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AwardXPHandler{
		accounts: accounts,
		ledger:   ledger,
		streaks:  streaks,
		caps:     caps,
		now:      time.Now,
		loc:      loc,
		newID:    uuid.NewString,
	}
}

// Handle executes the award. Must run inside the caller's transaction: the
// ledger append, XP increment, and level recompute are one atomic unit.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	today := cmd.Today
	if today.IsZero() {
		today = dayOf(h.now(), h.loc)
	}

	acc, err := h.accounts.GetByID(ctx, cmd.AccountID)
	if errors.Is(err, account.ErrAccountNotFound) {
		return nil, shared.WrapError("progression", "Award", shared.ErrNotFound, "account lookup failed", err)
	}
	if err != nil {
		return nil, fmt.Errorf("award: load account: %w", err)
	}

	base, err := progression.BaseAmount(cmd.Source, cmd.Meta)
	if err != nil {
		return nil, shared.WrapError("progression", "Award", shared.ErrInvalidInput, "scoring failed", err)
	}

	// Daily cap: capped awards are dropped entirely, no zero-amount rows.
	if cap, ok := h.caps.For(cmd.Source); ok {
		count, err := h.ledger.CountForDay(ctx, acc.ID, cmd.Source, today)
		if err != nil {
			return nil, fmt.Errorf("award: count today's %s entries: %w", cmd.Source, err)
		}
		if count >= cap {
			return &AwardXPResult{
				Capped:   true,
				NewLevel: acc.Level,
				TotalXP:  int(acc.XP),
			}, nil
		}
	}

	amount := base
	if cmd.Source == progression.SourceCommit {
		// Only commits ride the streak multiplier.
		streak, err := h.streaks.Get(ctx, acc.ID, progression.StreakCommit)
		if err != nil {
			return nil, fmt.Errorf("award: commit streak lookup: %w", err)
		}
		days := 0
		if streak != nil {
			days = streak.Current
		}
		amount = int(float64(base) * progression.StreakMultiplier(days))
	}

	entry, err := progression.NewEntry(h.newID(), acc.ID, cmd.Source, amount, cmd.Meta, today)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("award: append ledger entry: %w", err)
	}

	levelUp, err := acc.GainXP(amount)
	if err != nil {
		return nil, err
	}
	if err := h.accounts.Update(ctx, acc); err != nil {
		return nil, fmt.Errorf("award: update account: %w", err)
	}

	return &AwardXPResult{
		Amount:   amount,
		LevelUp:  levelUp,
		NewLevel: acc.Level,
		TotalXP:  int(acc.XP),
		Entry:    entry,
		Events: []shared.Event{
			progression.NewXPGainedEvent(acc.ID, entry.ID, amount, cmd.Source, levelUp, acc.Level, int(acc.XP)),
		},
	}, nil
}
