// Package progression contains the pure gamification rules: the leveling
// curve, streak arithmetic, and the XP ledger with its source-specific
// scoring. No external dependencies.
package progression

// XPThreshold returns the cumulative XP required to reach level. Level 1
// starts at 0; every level after that costs another 100 XP.
func XPThreshold(level int) int {
	if level < 1 {
		return 0
	}
	return 100 * (level - 1)
}

// LevelFor returns the largest level whose threshold does not exceed totalXP.
// totalXP of 0 maps to level 1. The curve is monotone so an upward scan is
// enough; a closed form exists but the scan keeps the function honest against
// any future curve change.
func LevelFor(totalXP int) int {
	level := 1
	for totalXP >= XPThreshold(level+1) {
		level++
	}
	return level
}
