package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPThreshold(t *testing.T) {
	assert.Equal(t, 0, XPThreshold(1))
	assert.Equal(t, 100, XPThreshold(2))
	assert.Equal(t, 200, XPThreshold(3))
	assert.Equal(t, 900, XPThreshold(10))

	// Levels below 1 have no threshold.
	assert.Equal(t, 0, XPThreshold(0))
	assert.Equal(t, 0, XPThreshold(-3))
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		totalXP int
		level   int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{101, 2},
		{199, 2},
		{200, 3},
		{950, 10},
		{1000, 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFor(tt.totalXP), "totalXP=%d", tt.totalXP)
	}
}

func TestLevelForMatchesThresholdRoundTrip(t *testing.T) {
	// Sitting exactly on a threshold means having that level; one XP less
	// means the level below.
	for level := 2; level <= 50; level++ {
		threshold := XPThreshold(level)
		assert.Equal(t, level, LevelFor(threshold))
		assert.Equal(t, level-1, LevelFor(threshold-1))
	}
}
