// Package clock provides the injectable time source used throughout the
// engine. Production code reads SystemClock; tests substitute a
// MutableClock so scheduler and cooldown behavior is deterministic.
//
// Nothing in the engine core calls time.Now() directly.
package clock

import "time"

// Clock is the sole source of time for the engine core.
type Clock interface {
	// NowMs returns the current time in epoch milliseconds.
	NowMs() int64
}

// SystemClock reads the real monotonic-backed wall clock: epoch
// milliseconds at process start plus the monotonic time elapsed since,
// so it never steps backwards when the wall clock is adjusted.
type SystemClock struct{}

// processStart anchors SystemClock to the wall clock once.
var processStart = time.Now()

// NowMs implements Clock.
func (SystemClock) NowMs() int64 {
	return processStart.UnixMilli() + time.Since(processStart).Milliseconds()
}

// MutableClock is a test double whose time only advances when told to.
type MutableClock struct {
	nowMs int64
}

// NewMutableClock creates a MutableClock starting at the given time.
func NewMutableClock(startMs int64) *MutableClock {
	return &MutableClock{nowMs: startMs}
}

// NowMs implements Clock.
func (c *MutableClock) NowMs() int64 {
	return c.nowMs
}

// Advance moves the clock forward by deltaMs (deltaMs must be >= 0).
func (c *MutableClock) Advance(deltaMs int64) {
	c.nowMs += deltaMs
}

// Set pins the clock to an absolute time.
func (c *MutableClock) Set(nowMs int64) {
	c.nowMs = nowMs
}

// gameDayMs is the length of one in-game day: two real hours.
const gameDayMs = 2 * 60 * 60 * 1000

// AmbientDescription maps the clock onto a short day-phase line for
// room descriptions. Display flavor only.
func AmbientDescription(c Clock) string {
	frac := float64(c.NowMs()%gameDayMs) / float64(gameDayMs)
	switch {
	case frac < 0.25:
		return "Pale morning light filters in."
	case frac < 0.5:
		return "The sun hangs high overhead."
	case frac < 0.75:
		return "Long evening shadows stretch across the ground."
	default:
		return "Darkness has settled over the world."
	}
}
