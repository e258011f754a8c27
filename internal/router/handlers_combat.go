package router

import (
	"sort"

	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/mobs"
	"github.com/duskhollow/engine/internal/players"
	"github.com/duskhollow/engine/internal/progression"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// CombatHandler covers engagement and flight. Swings are scheduler
// actions: each resolves against the registries at execution time, so a
// target that died or moved since scheduling makes the swing a no-op.
type CombatHandler struct {
	deps *Deps
}

func (h *CombatHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.Kill:
		h.kill(sessionId, cmd.Arg)
	case command.Flee:
		h.flee(sessionId)
	}
	d.prompt(sessionId)
}

func (h *CombatHandler) kill(sessionId ids.SessionId, keyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if d.Combat.Engaged(sessionId) {
		d.errorf(sessionId, "You are already fighting.")
		return
	}
	mob := d.Mobs.FindInRoom(p.RoomId, keyword)
	if mob == nil {
		d.errorf(sessionId, "There is no %s here.", keyword)
		return
	}

	d.clearDialogue(p)
	now := d.Clock.NowMs()
	state := d.Combat.Engage(sessionId, mob.Id, now, d.Items.EquippedArmorSum(sessionId))
	d.text(sessionId, "You attack %s!", mob.Name)
	d.broadcastRoom(p.RoomId, title(p.Name)+" attacks "+mob.Name+"!", sessionId)

	d.Sched.ScheduleAt(state.NextSwingDueAtMs, h.playerSwing(sessionId))
	d.Sched.ScheduleAt(now+mob.Template.SwingMs, h.mobSwing(sessionId, mob.Id))
}

// playerSwing returns the scheduled action for one of the player's
// swings. It reschedules itself while the engagement holds.
func (h *CombatHandler) playerSwing(sessionId ids.SessionId) func() {
	return func() {
		d := h.deps
		p := d.Players.Get(sessionId)
		state := d.Combat.State(sessionId)
		if p == nil || state == nil {
			return
		}
		mob := d.Mobs.Get(state.TargetMobId)
		if mob == nil || mob.RoomId != p.RoomId {
			d.Combat.Disengage(sessionId)
			return
		}

		dmg := d.Combat.RollPlayerDamage(mob.Template.Defense)
		mob.Hp -= dmg
		d.text(sessionId, "You hit %s for %d.", mob.Name, dmg)

		if mob.Hp <= 0 {
			h.mobDeath(sessionId, mob)
			return
		}

		d.Combat.AdvanceSwing(state)
		d.Sched.ScheduleAt(state.NextSwingDueAtMs, h.playerSwing(sessionId))
		d.prompt(sessionId)
	}
}

// mobSwing returns the scheduled action for one mob counter-swing.
func (h *CombatHandler) mobSwing(sessionId ids.SessionId, mobId ids.MobId) func() {
	return func() {
		d := h.deps
		p := d.Players.Get(sessionId)
		state := d.Combat.State(sessionId)
		if p == nil || state == nil || state.TargetMobId != mobId {
			return
		}
		mob := d.Mobs.Get(mobId)
		if mob == nil || mob.RoomId != p.RoomId {
			return
		}

		dmg := d.Combat.RollMobDamage(mob.Template.MinDamage, mob.Template.MaxDamage, state.Defense)
		p.Hp -= dmg
		d.text(sessionId, "%s hits you for %d.", mob.Name, dmg)

		if p.Hp <= 0 {
			h.playerDeath(sessionId)
			return
		}
		d.Sched.ScheduleAt(d.Clock.NowMs()+mob.Template.SwingMs, h.mobSwing(sessionId, mobId))
		d.prompt(sessionId)
	}
}

func (h *CombatHandler) mobDeath(sessionId ids.SessionId, mob *mobs.MobState) {
	d := h.deps
	p := d.Players.Get(sessionId)

	d.text(sessionId, "%s is dead!", mob.Name)
	d.broadcastRoom(mob.RoomId, mob.Name+" is dead!", sessionId)

	// Loot drops onto the floor.
	for _, ref := range mob.Template.LootTable {
		if tmpl := d.World.ItemTemplates[ref.TemplateId]; tmpl != nil {
			inst := d.Items.SpawnInRoom(tmpl, mob.RoomId)
			d.broadcastRoom(mob.RoomId, rarityName(&inst.Item)+" drops to the ground.")
		}
	}

	h.awardKillXp(p, mob.Template.XPReward)

	d.Mobs.Remove(mob.Id)
	d.Combat.Disengage(sessionId)
	d.prompt(sessionId)
}

// awardKillXp splits kill XP across the killer's group members in the
// same zone, remainder to the killer.
func (h *CombatHandler) awardKillXp(killer *players.PlayerState, total int) {
	d := h.deps
	g := d.Groups.Of(killer.SessionId)
	if g == nil {
		h.grant(killer.SessionId, total)
		return
	}

	recipients := []ids.SessionId{}
	for _, member := range g.MembersOf() {
		mp := d.Players.Get(member)
		if mp != nil && mp.RoomId.Zone() == killer.RoomId.Zone() {
			recipients = append(recipients, member)
		}
	}
	if len(recipients) == 0 {
		h.grant(killer.SessionId, total)
		return
	}
	share, remainder := progression.GroupShares(total, len(recipients))
	for _, member := range recipients {
		amount := share
		if member == killer.SessionId {
			amount += remainder
		}
		h.grant(member, amount)
	}
}

func (h *CombatHandler) grant(sessionId ids.SessionId, amount int) {
	d := h.deps
	if amount <= 0 {
		return
	}
	levels := d.Players.GrantXp(sessionId, amount)
	d.info(sessionId, "You gain %d experience.", amount)
	if levels > 0 {
		p := d.Players.Get(sessionId)
		d.info(sessionId, "You are now level %d!", p.Level)
	}
}

func (h *CombatHandler) playerDeath(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)

	d.Combat.Disengage(sessionId)
	p.Hp = 1
	respawn := p.RecallRoomId
	if respawn == "" {
		respawn = d.startRoomFor(p)
	}
	d.broadcastRoom(p.RoomId, title(p.Name)+" falls to the ground, lifeless.", sessionId)
	d.Players.MoveTo(sessionId, respawn)
	d.text(sessionId, "Darkness takes you... and then a divine light pulls you back.")
	d.broadcastRoom(respawn, title(p.Name)+" appears, pale and shaken.", sessionId)
	d.sendRoomView(sessionId, respawn)
	d.prompt(sessionId)
}

func (h *CombatHandler) flee(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if !d.Combat.Engaged(sessionId) {
		d.errorf(sessionId, "You are not fighting anyone.")
		return
	}
	if !d.Combat.FleeSucceeds() {
		d.text(sessionId, "You fail to flee.")
		return
	}

	room := d.room(p)
	if room == nil || len(room.Exits) == 0 {
		d.text(sessionId, "There is nowhere to run!")
		return
	}
	d.Combat.Disengage(sessionId)
	exit := randomExit(d, room)
	d.broadcastRoom(p.RoomId, title(p.Name)+" flees!", sessionId)
	d.Players.MoveTo(sessionId, exit.To)
	d.text(sessionId, "You flee %s!", exit.Direction)
	d.broadcastRoom(exit.To, title(p.Name)+" runs in, panting.", sessionId)
	d.sendRoomView(sessionId, exit.To)
}

// randomExit picks a flee direction with the combat dice, stable across
// runs by sorting directions first.
func randomExit(d *Deps, room *worldstatic.Room) worldstatic.ExitDef {
	dirs := make([]ids.Direction, 0, len(room.Exits))
	for dir := range room.Exits {
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })
	return room.Exits[dirs[d.Combat.Intn(len(dirs))]]
}
