// Package progression holds the level curve and XP accounting: a
// monotonically increasing per-level XP table, multi-level grants, and
// the group split policy (equal shares, remainder to the killer).
package progression

// MaxLevel caps player level.
const MaxLevel = 20

// XpForLevel returns the XP needed to advance from level n to n+1. The
// curve grows quadratically so early levels come fast.
func XpForLevel(n int) int {
	if n < 1 {
		n = 1
	}
	return n * n * 100
}

// TotalXpForLevel returns the cumulative XP needed to reach level n from
// level 1 (TotalXpForLevel(1) == 0).
func TotalXpForLevel(n int) int {
	total := 0
	for i := 1; i < n; i++ {
		total += XpForLevel(i)
	}
	return total
}

// Apply grants amount XP on top of (xpTotal, level) and returns the new
// totals. It may level up multiple times per call; level never exceeds
// MaxLevel and XP keeps accumulating at the cap.
func Apply(xpTotal, level, amount int) (newXpTotal, newLevel int) {
	newXpTotal = xpTotal + amount
	newLevel = level
	for newLevel < MaxLevel && newXpTotal >= TotalXpForLevel(newLevel+1) {
		newLevel++
	}
	return newXpTotal, newLevel
}

// GroupShares splits total XP across memberCount recipients: each member
// receives share, and the killer additionally receives remainder.
func GroupShares(total, memberCount int) (share, remainder int) {
	if memberCount <= 0 {
		return 0, total
	}
	return total / memberCount, total % memberCount
}
