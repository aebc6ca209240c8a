package progression

import (
	"errors"
	"time"

	"github.com/Tojustn/Shepherd/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAKS
// ══════════════════════════════════════════════════════════════════════════════

// StreakKind identifies the activity a streak counts. Extensible: new kinds
// only need a constant and a storage row.
type StreakKind string

const (
	// StreakCommit counts consecutive days with at least one pushed commit.
	StreakCommit StreakKind = "commit"

	// StreakSolve counts consecutive days with at least one solved problem.
	StreakSolve StreakKind = "solve"
)

// IsValid checks that the kind is known.
func (k StreakKind) IsValid() bool {
	switch k {
	case StreakCommit, StreakSolve:
		return true
	default:
		return false
	}
}

// ErrInvalidStreakKind - unknown streak kind.
var ErrInvalidStreakKind = errors.New("invalid streak kind")

// Streak tracks consecutive calendar days of one activity kind for one
// account. Created lazily on first activity. Invariant: Longest >= Current.
type Streak struct {
	// AccountID - owning account.
	AccountID string

	// Kind - the counted activity.
	Kind StreakKind

	// Current - length of the running streak in days.
	Current int

	// Longest - longest run ever observed.
	Longest int

	// LastActivityDate - normalized calendar date of the last qualifying
	// activity. Zero only before the first activity.
	LastActivityDate time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// NewStreak creates a streak record for the first qualifying activity.
func NewStreak(accountID string, kind StreakKind, today time.Time) *Streak {
	return &Streak{
		AccountID:        accountID,
		Kind:             kind,
		Current:          1,
		Longest:          1,
		LastActivityDate: today,
		UpdatedAt:        time.Now().UTC(),
	}
}

// Advance applies one qualifying activity on the given calendar date and
// reports whether the record changed. The transition is idempotent within a
// day: a second activity on the same date is a no-op, so repeated calls never
// inflate the streak.
//
// today must be a normalized date (see dateutil.DayOf); the domain never
// consults the wall clock here.
func (s *Streak) Advance(today time.Time) (changed bool) {
	if dateutil.SameDay(s.LastActivityDate, today) {
		return false
	}

	if !s.LastActivityDate.IsZero() && dateutil.DaysBetween(s.LastActivityDate, today) == 1 {
		s.Current++
	} else {
		// Gap of two or more days breaks the run.
		s.Current = 1
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivityDate = today
	s.UpdatedAt = time.Now().UTC()

	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK MULTIPLIER
// ══════════════════════════════════════════════════════════════════════════════

// StreakMultiplier maps a commit-streak length to the XP multiplier applied to
// commit awards. Non-decreasing step function; only the commit source uses it.
func StreakMultiplier(days int) float64 {
	switch {
	case days >= 30:
		return 3.0
	case days >= 14:
		return 2.0
	case days >= 7:
		return 1.5
	default:
		return 1.0
	}
}
