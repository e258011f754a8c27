package clock

import "testing"

func TestMutableClockAdvance(t *testing.T) {
	c := NewMutableClock(1000)
	if c.NowMs() != 1000 {
		t.Fatalf("NowMs() = %d, want 1000", c.NowMs())
	}
	c.Advance(500)
	if c.NowMs() != 1500 {
		t.Fatalf("NowMs() = %d, want 1500", c.NowMs())
	}
	c.Set(42)
	if c.NowMs() != 42 {
		t.Fatalf("NowMs() = %d, want 42", c.NowMs())
	}
}

func TestAmbientDescriptionCyclesThroughPhases(t *testing.T) {
	c := NewMutableClock(0)
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		seen[AmbientDescription(c)] = true
		c.Advance(gameDayMs / 4)
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct day phases, got %d", len(seen))
	}
	// A full cycle wraps back to the first phase.
	c.Set(0)
	first := AmbientDescription(c)
	c.Advance(gameDayMs)
	if AmbientDescription(c) != first {
		t.Fatal("day cycle should wrap")
	}
}

func TestSystemClockMonotonicallyMovesForward(t *testing.T) {
	var c Clock = SystemClock{}
	a := c.NowMs()
	b := c.NowMs()
	if b < a {
		t.Fatalf("system clock went backwards: %d -> %d", a, b)
	}
}
