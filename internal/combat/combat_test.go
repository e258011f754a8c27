package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhollow/engine/internal/ids"
)

// fixedRand always returns the same value from Intn.
type fixedRand struct{ n int }

func (f fixedRand) Intn(int) int { return f.n }

func TestEngageSchedulesFirstSwing(t *testing.T) {
	sys := NewSystem(Config{MinDamage: 2, MaxDamage: 8, SwingIntervalMs: 2000}, fixedRand{0})

	state := sys.Engage(1, "mob-1", 10_000, 3)
	require.NotNil(t, state)
	assert.Equal(t, int64(12_000), state.NextSwingDueAtMs)
	assert.Equal(t, 3, state.Defense)
	assert.True(t, sys.Engaged(1))

	sys.Disengage(1)
	assert.False(t, sys.Engaged(1))
	assert.Nil(t, sys.State(1))
}

func TestRollPlayerDamageRange(t *testing.T) {
	sys := NewSystem(Config{MinDamage: 2, MaxDamage: 8, SwingIntervalMs: 2000}, NewRand(7))
	for i := 0; i < 200; i++ {
		dmg := sys.RollPlayerDamage(0)
		require.GreaterOrEqual(t, dmg, 2)
		require.LessOrEqual(t, dmg, 8)
	}
}

func TestDamageReducedByDefenseFloorsAtOne(t *testing.T) {
	// Intn always 0 -> raw roll = MinDamage.
	sys := NewSystem(Config{MinDamage: 2, MaxDamage: 8, SwingIntervalMs: 2000}, fixedRand{0})
	assert.Equal(t, 1, sys.RollPlayerDamage(10))
	assert.Equal(t, 1, sys.RollMobDamage(1, 1, 99))
}

func TestRefreshDefense(t *testing.T) {
	sys := NewSystem(Config{MinDamage: 2, MaxDamage: 8, SwingIntervalMs: 2000}, fixedRand{0})
	sys.Engage(1, "mob-1", 0, 1)
	sys.RefreshDefense(1, 5)
	assert.Equal(t, 5, sys.State(1).Defense)
	// Refresh on a non-engaged session is a no-op.
	sys.RefreshDefense(2, 5)
}

func TestAdvanceSwingRegardlessOfOutcome(t *testing.T) {
	sys := NewSystem(Config{MinDamage: 2, MaxDamage: 8, SwingIntervalMs: 1500}, fixedRand{0})
	state := sys.Engage(1, "mob-1", 0, 0)
	sys.AdvanceSwing(state)
	assert.Equal(t, int64(3000), state.NextSwingDueAtMs)
}

func TestFleeCoinFlip(t *testing.T) {
	assert.True(t, NewSystem(Config{}, fixedRand{49}).FleeSucceeds())
	assert.False(t, NewSystem(Config{}, fixedRand{50}).FleeSucceeds())
}

func TestEngagementTracksTarget(t *testing.T) {
	sys := NewSystem(Config{MinDamage: 1, MaxDamage: 1, SwingIntervalMs: 1000}, fixedRand{0})
	state := sys.Engage(1, ids.MobId("rat-1"), 0, 0)
	assert.Equal(t, ids.MobId("rat-1"), state.TargetMobId)
}
