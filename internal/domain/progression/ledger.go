package progression

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP SOURCES
// ══════════════════════════════════════════════════════════════════════════════

// Source identifies what earned an XP award. The ledger is the audit trail,
// so unknown sources fail fast instead of defaulting silently.
type Source string

const (
	// SourceCommit - a pushed commit. Base 10 + 2 per changed file,
	// multiplied by the commit-streak step function.
	SourceCommit Source = "commit"

	// SourceProblemSolve - a solved practice problem, scored by difficulty.
	SourceProblemSolve Source = "problem_solve"

	// SourceStreakBonus - flat bonus for extending a streak.
	SourceStreakBonus Source = "streak_bonus"

	// SourceGoalComplete - a completed goal, scored by difficulty tier.
	SourceGoalComplete Source = "goal_complete"
)

// IsValid checks that the source is known.
func (s Source) IsValid() bool {
	switch s {
	case SourceCommit, SourceProblemSolve, SourceStreakBonus, SourceGoalComplete:
		return true
	default:
		return false
	}
}

var (
	// ErrUnknownSource - award attempted for a source with no scoring rule.
	ErrUnknownSource = errors.New("unknown xp source")

	// ErrMetadataMismatch - metadata variant does not match the source.
	ErrMetadataMismatch = errors.New("metadata does not match source")
)

// ══════════════════════════════════════════════════════════════════════════════
// METADATA
// ══════════════════════════════════════════════════════════════════════════════

// CommitMetadata describes a commit award.
type CommitMetadata struct {
	SHA          string `json:"sha"`
	Repo         string `json:"repo,omitempty"`
	FilesChanged int    `json:"files_changed"`
}

// SolveMetadata describes a problem-solve award. Difficulty is one of
// easy/medium/hard; anything else scores as easy.
type SolveMetadata struct {
	Slug       string `json:"slug,omitempty"`
	Difficulty string `json:"difficulty"`
}

// GoalMetadata describes a goal-completion award.
type GoalMetadata struct {
	GoalID     string `json:"goal_id"`
	Difficulty int    `json:"difficulty"`
}

// StreakMetadata describes a streak-bonus award.
type StreakMetadata struct {
	Kind string `json:"kind"`
	Days int    `json:"days"`
}

// Metadata is the tagged variant attached to a ledger entry. Exactly one
// field matching the entry's source is set; Validate enforces the pairing
// before the award pipeline reads from it.
type Metadata struct {
	Commit *CommitMetadata `json:"commit,omitempty"`
	Solve  *SolveMetadata  `json:"solve,omitempty"`
	Goal   *GoalMetadata   `json:"goal,omitempty"`
	Streak *StreakMetadata `json:"streak,omitempty"`
}

// Validate checks that the variant set matches the source. Commit metadata is
// optional for commit awards (files_changed defaults to 0), but a variant for
// a different source is always a mismatch.
func (m Metadata) Validate(source Source) error {
	set := 0
	var tag Source
	if m.Commit != nil {
		set++
		tag = SourceCommit
	}
	if m.Solve != nil {
		set++
		tag = SourceProblemSolve
	}
	if m.Goal != nil {
		set++
		tag = SourceGoalComplete
	}
	if m.Streak != nil {
		set++
		tag = SourceStreakBonus
	}

	if set == 0 {
		if source == SourceGoalComplete {
			// Goal completions always know their difficulty.
			return fmt.Errorf("%w: %s requires goal metadata", ErrMetadataMismatch, source)
		}
		return nil
	}
	if set > 1 || tag != source {
		return fmt.Errorf("%w: source %s", ErrMetadataMismatch, source)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORING
// ══════════════════════════════════════════════════════════════════════════════

// Per-difficulty base XP for problem solves.
var solveXP = map[string]int{
	"easy":   20,
	"medium": 40,
	"hard":   80,
}

const (
	defaultSolveXP  = 20
	streakBonusXP   = 5
	commitBaseXP    = 10
	commitPerFileXP = 2
	goalTierXP      = 10 // per difficulty star, tiers 1-5
)

// BaseAmount computes the pre-multiplier XP for an award. Returns
// ErrUnknownSource for sources with no scoring rule and ErrMetadataMismatch
// when meta is tagged for a different source.
func BaseAmount(source Source, meta Metadata) (int, error) {
	if err := meta.Validate(source); err != nil {
		return 0, err
	}

	switch source {
	case SourceCommit:
		files := 0
		if meta.Commit != nil && meta.Commit.FilesChanged > 0 {
			files = meta.Commit.FilesChanged
		}
		return commitBaseXP + commitPerFileXP*files, nil

	case SourceProblemSolve:
		difficulty := ""
		if meta.Solve != nil {
			difficulty = strings.ToLower(meta.Solve.Difficulty)
		}
		if xp, ok := solveXP[difficulty]; ok {
			return xp, nil
		}
		return defaultSolveXP, nil

	case SourceGoalComplete:
		tier := meta.Goal.Difficulty
		if tier < 1 {
			tier = 1
		}
		if tier > 5 {
			tier = 5
		}
		return goalTierXP * tier, nil

	case SourceStreakBonus:
		return streakBonusXP, nil

	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

// DailyCaps limits ledger entries per source per calendar day. A zero or
// missing value means uncapped. Capped awards are dropped entirely, never
// recorded as zero-amount entries.
type DailyCaps map[Source]int

// DefaultDailyCaps returns the stock cap policy: one streak bonus per day,
// everything else uncapped.
func DefaultDailyCaps() DailyCaps {
	return DailyCaps{
		SourceStreakBonus: 1,
	}
}

// For returns the cap for a source and whether one is set.
func (c DailyCaps) For(source Source) (int, bool) {
	cap, ok := c[source]
	if !ok || cap <= 0 {
		return 0, false
	}
	return cap, true
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one immutable XP award. Entries are append-only: they are the
// source of truth for totals and the basis for daily-cap counting, and are
// never updated or deleted. Notified tracks whether a live client saw the
// award; un-notified entries form the reconnect backlog.
//
// Day is the normalized reference-zone calendar date the award counts
// against, resolved by the caller like streak dates (see dateutil.DayOf).
// Caps count on Day, never on the CreatedAt wall clock: in a non-UTC
// reference zone the two can name different dates.
type Entry struct {
	ID        string
	AccountID string
	Source    Source
	Amount    int
	Meta      Metadata
	Day       time.Time
	Notified  bool
	CreatedAt time.Time
}

// NewEntry creates a ledger entry for an award. day must be the normalized
// calendar date of the award.
func NewEntry(id, accountID string, source Source, amount int, meta Metadata, day time.Time) (*Entry, error) {
	if id == "" || accountID == "" {
		return nil, errors.New("ledger entry requires id and account id")
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if amount < 0 {
		return nil, errors.New("ledger entry amount cannot be negative")
	}
	if day.IsZero() {
		return nil, errors.New("ledger entry requires a calendar date")
	}

	return &Entry{
		ID:        id,
		AccountID: accountID,
		Source:    source,
		Amount:    amount,
		Meta:      meta,
		Day:       day,
		CreatedAt: time.Now().UTC(),
	}, nil
}
