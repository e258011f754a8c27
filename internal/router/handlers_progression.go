package router

import (
	"strings"

	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
)

// Spell is one castable ability, unlocked by level.
type Spell struct {
	Name     string
	MinLevel int
	// HealHp restores hp on the caster.
	HealHp int
	// Damage strikes a targeted mob in the room.
	Damage int
	// DefenseBonus applies a timed defense buff.
	DefenseBonus int
	DurationMs   int64
}

var spellTable = []Spell{
	{Name: "heal", MinLevel: 2, HealHp: 10},
	{Name: "firebolt", MinLevel: 3, Damage: 8},
	{Name: "shield", MinLevel: 4, DefenseBonus: 2, DurationMs: 60_000},
}

// ProgressionHandler covers the ability surface: cast, the spell list,
// active effects, and dispel. Effects are transient engine state and
// never persist.
type ProgressionHandler struct {
	deps *Deps
}

// activeEffect is one running buff.
type activeEffect struct {
	Name         string
	DefenseBonus int
	ExpiresAtMs  int64
}

func (h *ProgressionHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.Cast:
		h.cast(sessionId, cmd.Arg, cmd.Arg2)
	case command.Spells:
		d.text(sessionId, "You know:")
		known := 0
		for _, spell := range spellTable {
			if p.Level >= spell.MinLevel {
				d.text(sessionId, "  %s", spell.Name)
				known++
			}
		}
		if known == 0 {
			d.text(sessionId, "  nothing yet")
		}
	case command.Effects:
		h.effects(sessionId)
	case command.Dispel:
		h.dispel(sessionId, cmd.Arg)
	}
	d.prompt(sessionId)
}

func findSpell(name string) *Spell {
	for i := range spellTable {
		if strings.EqualFold(spellTable[i].Name, name) {
			return &spellTable[i]
		}
	}
	return nil
}

func (h *ProgressionHandler) cast(sessionId ids.SessionId, name, target string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	spell := findSpell(name)
	if spell == nil {
		d.errorf(sessionId, "You don't know that spell.")
		return
	}
	if p.Level < spell.MinLevel {
		d.errorf(sessionId, "You are not experienced enough to cast %s.", spell.Name)
		return
	}

	switch {
	case spell.HealHp > 0:
		before := p.Hp
		p.Hp += spell.HealHp
		if p.Hp > p.MaxHp {
			p.Hp = p.MaxHp
		}
		d.text(sessionId, "A warm glow knits your wounds (%d hp).", p.Hp-before)

	case spell.Damage > 0:
		if target == "" {
			d.errorf(sessionId, "Cast %s at what?", spell.Name)
			return
		}
		mob := d.Mobs.FindInRoom(p.RoomId, target)
		if mob == nil {
			d.errorf(sessionId, "There is no %s here.", target)
			return
		}
		mob.Hp -= spell.Damage
		d.text(sessionId, "Your %s scorches %s for %d!", spell.Name, mob.Name, spell.Damage)
		d.broadcastRoom(p.RoomId, title(p.Name)+"'s "+spell.Name+" scorches "+mob.Name+"!", sessionId)
		if mob.Hp <= 0 {
			d.text(sessionId, "%s is dead!", mob.Name)
			d.broadcastRoom(mob.RoomId, mob.Name+" is dead!", sessionId)
			d.Players.GrantXp(sessionId, mob.Template.XPReward)
			d.info(sessionId, "You gain %d experience.", mob.Template.XPReward)
			d.Mobs.Remove(mob.Id)
			if state := d.Combat.State(sessionId); state != nil && state.TargetMobId == mob.Id {
				d.Combat.Disengage(sessionId)
			}
		}

	case spell.DefenseBonus > 0:
		effect := &activeEffect{
			Name:         spell.Name,
			DefenseBonus: spell.DefenseBonus,
			ExpiresAtMs:  d.Clock.NowMs() + spell.DurationMs,
		}
		d.setEffects(sessionId, append(d.effectsFor(sessionId), effect))
		d.refreshBuffedDefense(sessionId)
		d.text(sessionId, "A shimmering %s surrounds you.", spell.Name)
		d.Sched.ScheduleIn(spell.DurationMs, func() {
			h.expireEffect(sessionId, effect)
		})
	}
}

func (h *ProgressionHandler) expireEffect(sessionId ids.SessionId, effect *activeEffect) {
	d := h.deps
	list := d.effectsFor(sessionId)
	for i, e := range list {
		if e == effect {
			d.setEffects(sessionId, append(list[:i], list[i+1:]...))
			break
		}
	}
	if d.Players.Get(sessionId) == nil {
		d.setEffects(sessionId, nil)
		return
	}
	d.refreshBuffedDefense(sessionId)
	d.info(sessionId, "Your %s fades.", effect.Name)
	d.prompt(sessionId)
}

func (h *ProgressionHandler) effects(sessionId ids.SessionId) {
	d := h.deps
	now := d.Clock.NowMs()
	list := d.effectsFor(sessionId)
	if len(list) == 0 {
		d.text(sessionId, "You are not affected by anything.")
		return
	}
	d.text(sessionId, "Active effects:")
	for _, e := range list {
		secs := (e.ExpiresAtMs - now + 999) / 1000
		d.text(sessionId, "  %s (%ds remaining)", e.Name, secs)
	}
}

func (h *ProgressionHandler) dispel(sessionId ids.SessionId, name string) {
	d := h.deps
	list := d.effectsFor(sessionId)
	for i, e := range list {
		if strings.EqualFold(e.Name, name) {
			d.setEffects(sessionId, append(list[:i], list[i+1:]...))
			d.refreshBuffedDefense(sessionId)
			d.text(sessionId, "You dispel your %s.", e.Name)
			return
		}
	}
	d.errorf(sessionId, "No such effect.")
}

// refreshBuffedDefense re-derives defense as equipped armor plus any
// active buff bonuses.
func (d *Deps) refreshBuffedDefense(sessionId ids.SessionId) {
	defense := d.Items.EquippedArmorSum(sessionId)
	for _, e := range d.effectsFor(sessionId) {
		defense += e.DefenseBonus
	}
	d.Combat.RefreshDefense(sessionId, defense)
}
