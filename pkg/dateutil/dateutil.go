// Package dateutil provides calendar-day arithmetic in a single reference
// timezone. Streaks, daily quests, and daily XP caps are all keyed on calendar
// dates, not timestamps, so every boundary resolves "today" through this
// package before the domain sees it. The domain itself is timezone-agnostic.
// No external dependencies - uses only standard library.
package dateutil

import "time"

// DayOf truncates t to its calendar date in loc. The result is normalized to
// midnight UTC so dates compare with Equal and round-trip through a SQL DATE
// column unchanged.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) time.Time {
	return DayOf(time.Now(), loc)
}

// SameDay reports whether a and b fall on the same normalized calendar date.
func SameDay(a, b time.Time) bool {
	return a.Equal(b)
}

// DaysBetween returns the number of whole days from a to b (b - a).
// Both arguments must already be normalized dates.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// AddDays returns the normalized date n days after d.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// Format renders a normalized date as YYYY-MM-DD.
func Format(d time.Time) string {
	return d.Format("2006-01-02")
}
