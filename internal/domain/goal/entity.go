// Package goal contains the goal domain model: recurring daily quests bound
// to a calendar date and user-authored custom goals that persist until
// deleted. No external dependencies.
package goal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOAL KINDS
// ══════════════════════════════════════════════════════════════════════════════

// Kind classifies a goal. Daily kinds come from a fixed catalog and are
// recreated each day; custom goals are authored by the user.
type Kind string

const (
	// KindDailyCommit - push at least one commit today.
	KindDailyCommit Kind = "daily_commit"

	// KindDailySolve - solve at least one practice problem today.
	KindDailySolve Kind = "daily_solve"

	// KindCustom - user-authored goal with its own label and target.
	KindCustom Kind = "custom"
)

// IsValid checks that the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindDailyCommit, KindDailySolve, KindCustom:
		return true
	default:
		return false
	}
}

// IsDaily reports whether the kind is a recurring daily quest.
func (k Kind) IsDaily() bool {
	return k == KindDailyCommit || k == KindDailySolve
}

// CatalogItem describes one recurring daily quest.
type CatalogItem struct {
	Kind       Kind
	Label      string
	Target     int
	Difficulty int
}

// DailyCatalog is the fixed set of daily quests every account gets.
var DailyCatalog = []CatalogItem{
	{Kind: KindDailyCommit, Label: "Push a commit", Target: 1, Difficulty: 1},
	{Kind: KindDailySolve, Label: "Solve a problem", Target: 1, Difficulty: 1},
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrGoalNotFound - goal missing or not owned by the caller.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrGoalNotDeletable - daily quests may be deactivated, never deleted.
	ErrGoalNotDeletable = errors.New("daily quests cannot be deleted")

	// ErrGoalNotCompletable - direct completion is reserved for
	// checkbox-style goals; counter goals must be incremented.
	ErrGoalNotCompletable = errors.New("goal must be incremented, not completed directly")

	// ErrInvalidLabel - label fails length constraints.
	ErrInvalidLabel = errors.New("invalid label: must be 1-256 chars")

	// ErrInvalidTarget - target must be at least 1.
	ErrInvalidTarget = errors.New("invalid target: must be >= 1")

	// ErrInvalidDifficulty - difficulty tier must be 1-5.
	ErrInvalidDifficulty = errors.New("invalid difficulty: must be 1-5")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: GOAL
// ══════════════════════════════════════════════════════════════════════════════

// Goal is one quest or custom goal. Completed is monotone: once true it never
// reverts, and completion XP is awarded at most once. Callers must consult
// Completed before awarding, never re-derive it from Current >= Target.
type Goal struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// AccountID - owning account.
	AccountID string

	// Kind - daily catalog kind or custom.
	Kind Kind

	// Label - display text.
	Label string

	// Target - numeric target, >= 1.
	Target int

	// Current - progress counter, clamped to [0, Target].
	Current int

	// Difficulty - tier 1-5, drives completion XP.
	Difficulty int

	// Active - soft-delete marker. Daily quests are deactivated instead of
	// deleted for audit retention.
	Active bool

	// Date - the calendar date a daily quest belongs to. Zero for custom.
	Date time.Time

	// Completed - monotone completion flag.
	Completed bool

	// CompletedAt - set once on completion, never cleared.
	CompletedAt time.Time

	// CreatedAt - record creation time.
	CreatedAt time.Time
}

// NewDailyGoal creates a quest from the catalog for a given date.
func NewDailyGoal(id, accountID string, item CatalogItem, date time.Time) *Goal {
	return &Goal{
		ID:         id,
		AccountID:  accountID,
		Kind:       item.Kind,
		Label:      item.Label,
		Target:     item.Target,
		Difficulty: item.Difficulty,
		Active:     true,
		Date:       date,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewCustomGoalParams contains the parameters for a user-authored goal.
type NewCustomGoalParams struct {
	ID         string
	AccountID  string
	Label      string
	Target     int
	Difficulty int
}

// NewCustomGoal creates a custom goal with validation.
func NewCustomGoal(params NewCustomGoalParams) (*Goal, error) {
	if params.ID == "" || params.AccountID == "" {
		return nil, errors.New("goal requires id and account id")
	}

	label := strings.TrimSpace(params.Label)
	if len(label) == 0 || len(label) > 256 {
		return nil, ErrInvalidLabel
	}
	if params.Target < 1 {
		return nil, ErrInvalidTarget
	}
	if params.Difficulty < 1 || params.Difficulty > 5 {
		return nil, ErrInvalidDifficulty
	}

	return &Goal{
		ID:         params.ID,
		AccountID:  params.AccountID,
		Kind:       KindCustom,
		Label:      label,
		Target:     params.Target,
		Difficulty: params.Difficulty,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// ApplyProgress adds delta to the counter and reports whether this call
// transitioned the goal to completed. Calls on an already-completed goal are
// no-ops. This is the idempotence boundary that prevents double awards.
func (g *Goal) ApplyProgress(delta int, now time.Time) (justCompleted bool) {
	if g.Completed || delta <= 0 {
		return false
	}

	g.Current += delta
	if g.Current > g.Target {
		g.Current = g.Target
	}

	if g.Current >= g.Target {
		g.Completed = true
		g.CompletedAt = now.UTC()
		return true
	}
	return false
}

// Complete marks a checkbox-style goal done directly. Counter goals with a
// target above 1 must be incremented instead.
func (g *Goal) Complete(now time.Time) (justCompleted bool, err error) {
	if g.Target > 1 {
		return false, ErrGoalNotCompletable
	}
	if g.Completed {
		return false, nil
	}

	g.Current = g.Target
	g.Completed = true
	g.CompletedAt = now.UTC()
	return true, nil
}

// Deactivate soft-deletes the goal.
func (g *Goal) Deactivate() {
	g.Active = false
}

// String returns a string representation for logging.
func (g *Goal) String() string {
	return fmt.Sprintf("Goal{ID: %s, Kind: %s, Progress: %d/%d, Completed: %t}",
		g.ID, g.Kind, g.Current, g.Target, g.Completed)
}

// Clone creates a shallow copy of the goal.
func (g *Goal) Clone() *Goal {
	if g == nil {
		return nil
	}
	clone := *g
	return &clone
}
