// Package combat tracks per-session combat engagement and the damage
// math: uniform rolls in a configured range, defense derived from
// equipped armor, and the flee coin-flip. The swing loop itself is driven
// by the scheduler; this package only owns the state and the dice.
package combat

import (
	"math/rand"

	"github.com/duskhollow/engine/internal/ids"
)

// FleeChancePercent is the fixed chance a flee attempt succeeds.
const FleeChancePercent = 50

// Rand is the injectable dice source; tests pin outcomes with a
// deterministic implementation.
type Rand interface {
	Intn(n int) int
}

// NewRand returns the production dice source.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// Config sets the player damage roll range and swing cadence.
type Config struct {
	MinDamage       int
	MaxDamage       int
	SwingIntervalMs int64
}

// State is one session's active engagement.
type State struct {
	TargetMobId      ids.MobId
	NextSwingDueAtMs int64
	Defense          int
}

// System owns all combat state on this engine.
type System struct {
	cfg    Config
	rng    Rand
	states map[ids.SessionId]*State
}

// NewSystem creates a combat system with the given config and dice.
func NewSystem(cfg Config, rng Rand) *System {
	return &System{cfg: cfg, rng: rng, states: make(map[ids.SessionId]*State)}
}

// Config returns the configured damage range and cadence.
func (s *System) Config() Config { return s.cfg }

// Engage binds sessionId to target and schedules the first swing one
// interval out. Defense is cached from the current equipped armor sum.
func (s *System) Engage(sessionId ids.SessionId, target ids.MobId, nowMs int64, defense int) *State {
	state := &State{
		TargetMobId:      target,
		NextSwingDueAtMs: nowMs + s.cfg.SwingIntervalMs,
		Defense:          defense,
	}
	s.states[sessionId] = state
	return state
}

// Disengage clears sessionId's combat state.
func (s *System) Disengage(sessionId ids.SessionId) {
	delete(s.states, sessionId)
}

// State returns sessionId's engagement, nil if not fighting.
func (s *System) State(sessionId ids.SessionId) *State {
	return s.states[sessionId]
}

// Engaged reports whether sessionId is in combat.
func (s *System) Engaged(sessionId ids.SessionId) bool {
	return s.states[sessionId] != nil
}

// RefreshDefense re-caches the defense stat after equipment changes.
func (s *System) RefreshDefense(sessionId ids.SessionId, defense int) {
	if state := s.states[sessionId]; state != nil {
		state.Defense = defense
	}
}

// RollPlayerDamage rolls uniform in [MinDamage, MaxDamage], reduced by
// the mob's defense, floored at 1.
func (s *System) RollPlayerDamage(mobDefense int) int {
	return s.roll(s.cfg.MinDamage, s.cfg.MaxDamage, mobDefense)
}

// RollMobDamage rolls the mob's uniform range reduced by the player's
// cached defense, floored at 1.
func (s *System) RollMobDamage(minDamage, maxDamage, playerDefense int) int {
	return s.roll(minDamage, maxDamage, playerDefense)
}

// Intn exposes the dice for callers that need an auxiliary roll (flee
// direction, loot weighting) without owning a second RNG.
func (s *System) Intn(n int) int {
	return s.rng.Intn(n)
}

// FleeSucceeds rolls the flee coin-flip.
func (s *System) FleeSucceeds() bool {
	return s.rng.Intn(100) < FleeChancePercent
}

// AdvanceSwing moves the next-swing deadline forward one interval,
// regardless of the swing's outcome.
func (s *System) AdvanceSwing(state *State) {
	state.NextSwingDueAtMs += s.cfg.SwingIntervalMs
}

func (s *System) roll(min, max, defense int) int {
	if max < min {
		max = min
	}
	dmg := min
	if span := max - min; span > 0 {
		dmg += s.rng.Intn(span + 1)
	}
	dmg -= defense
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}
