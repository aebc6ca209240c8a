package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tojustn/Shepherd/pkg/dateutil"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewStreak(t *testing.T) {
	s := NewStreak("acc-1", StreakCommit, day("2026-03-10"))

	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
	assert.True(t, dateutil.SameDay(day("2026-03-10"), s.LastActivityDate))
}

func TestStreakAdvanceSameDayIsNoOp(t *testing.T) {
	s := NewStreak("acc-1", StreakCommit, day("2026-03-10"))

	changed := s.Advance(day("2026-03-10"))

	assert.False(t, changed)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
}

func TestStreakAdvanceConsecutiveDay(t *testing.T) {
	s := NewStreak("acc-1", StreakCommit, day("2026-03-10"))

	changed := s.Advance(day("2026-03-11"))

	assert.True(t, changed)
	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 2, s.Longest)
	assert.True(t, dateutil.SameDay(day("2026-03-11"), s.LastActivityDate))
}

func TestStreakAdvanceGapResets(t *testing.T) {
	s := NewStreak("acc-1", StreakCommit, day("2026-03-10"))
	s.Advance(day("2026-03-11"))
	s.Advance(day("2026-03-12"))
	assert.Equal(t, 3, s.Current)

	// Two-day gap breaks the run but keeps the longest.
	changed := s.Advance(day("2026-03-15"))

	assert.True(t, changed)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Longest)
}

func TestStreakAdvanceLongestTracksNewRecord(t *testing.T) {
	s := NewStreak("acc-1", StreakSolve, day("2026-01-01"))
	for i := 1; i <= 9; i++ {
		s.Advance(dateutil.AddDays(day("2026-01-01"), i))
	}

	assert.Equal(t, 10, s.Current)
	assert.Equal(t, 10, s.Longest)
}

func TestStreakAdvanceRepeatedCallsNeverInflate(t *testing.T) {
	s := NewStreak("acc-1", StreakCommit, day("2026-03-10"))
	next := day("2026-03-11")

	s.Advance(next)
	s.Advance(next)
	s.Advance(next)

	assert.Equal(t, 2, s.Current)
}

func TestStreakMultiplier(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{0, 1.0},
		{1, 1.0},
		{6, 1.0},
		{7, 1.5},
		{13, 1.5},
		{14, 2.0},
		{29, 2.0},
		{30, 3.0},
		{365, 3.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StreakMultiplier(tt.days), "days=%d", tt.days)
	}
}
