package router

import (
	"github.com/duskhollow/engine/internal/bus"
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/phase"
	"github.com/duskhollow/engine/internal/progression"
	"github.com/duskhollow/engine/pkg/logging"
)

// AdminHandler covers the staff-gated surface: goto, transfer, spawn,
// shutdown, smite, kick, setlevel, and phase.
type AdminHandler struct {
	deps *Deps
}

func (h *AdminHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}
	if !p.IsStaff {
		d.errorf(sessionId, "You are not staff.")
		d.prompt(sessionId)
		return
	}

	switch cmd.Kind {
	case command.Goto:
		h.goTo(sessionId, cmd.Arg)
	case command.Transfer:
		h.transfer(sessionId, cmd.Arg, cmd.Arg2)
	case command.Spawn:
		h.spawn(sessionId, cmd.Arg)
	case command.Shutdown:
		h.shutdown(sessionId)
	case command.Smite:
		h.smite(sessionId, cmd.Arg)
	case command.KickPlayer:
		h.kick(sessionId, cmd.Arg)
	case command.SetLevel:
		h.setLevel(sessionId, cmd.Arg, cmd.N)
	case command.Phase:
		h.phase(sessionId, cmd.Arg)
	}
	d.prompt(sessionId)
}

func (h *AdminHandler) goTo(sessionId ids.SessionId, spec string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	target, ok := d.resolveRoomSpec(spec, p.RoomId)
	if !ok {
		d.errorf(sessionId, "No such room.")
		return
	}
	d.clearDialogue(p)
	d.broadcastRoom(p.RoomId, title(p.Name)+" vanishes.", sessionId)
	d.Players.MoveTo(sessionId, target)
	d.broadcastRoom(target, title(p.Name)+" appears out of thin air.", sessionId)
	d.sendRoomView(sessionId, target)
}

func (h *AdminHandler) transfer(sessionId ids.SessionId, targetName, roomSpec string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	roomId, ok := d.resolveRoomSpec(roomSpec, p.RoomId)
	if !ok {
		d.errorf(sessionId, "No such room.")
		return
	}

	target := d.Players.ByName(targetName)
	if target == nil {
		if d.Bus == nil {
			d.errorf(sessionId, "No such player.")
			return
		}
		msg := bus.NewMessage(bus.TypeTransferRequest, d.EngineId)
		msg.StaffName = p.Name
		msg.TargetPlayerName = targetName
		msg.TargetRoomId = roomId
		_ = d.Bus.Broadcast(msg)
		d.info(sessionId, "Transfer request sent for %s.", title(targetName))
		return
	}

	d.broadcastRoom(target.RoomId, title(target.Name)+" vanishes.", target.SessionId)
	d.Players.MoveTo(target.SessionId, roomId)
	d.broadcastRoom(roomId, title(target.Name)+" appears out of thin air.", target.SessionId)
	d.text(target.SessionId, "A greater power moves you.")
	d.sendRoomView(target.SessionId, roomId)
	d.prompt(target.SessionId)
	d.text(sessionId, "You transfer %s to %s.", title(target.Name), roomId)
}

func (h *AdminHandler) spawn(sessionId ids.SessionId, templateId string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	tmpl := d.World.MobTemplates[templateId]
	if tmpl == nil {
		d.errorf(sessionId, "No such template.")
		return
	}
	mob := d.Mobs.Spawn(tmpl, p.RoomId)
	d.text(sessionId, "You conjure %s.", mob.Name)
	d.broadcastRoom(p.RoomId, mob.Name+" appears out of thin air.", sessionId)
}

func (h *AdminHandler) shutdown(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)

	d.broadcastAll("The world shudders: the realm is shutting down.")
	log := logging.WithSession(int64(sessionId))
	log.Warn().Str("staff", p.Name).Msg("shutdown ordered")
	if d.Bus != nil {
		msg := bus.NewMessage(bus.TypeGlobalBroadcast, d.EngineId)
		msg.Broadcast = bus.BroadcastShutdown
		msg.SenderName = title(p.Name)
		msg.Text = "The realm is shutting down."
		_ = d.Bus.Broadcast(msg)
	}
	if d.OnShutdown != nil {
		d.OnShutdown()
	}
}

func (h *AdminHandler) smite(sessionId ids.SessionId, targetName string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if target := d.Players.ByName(targetName); target != nil {
		target.Hp = 1
		d.Combat.Disengage(target.SessionId)
		respawn := d.startRoomFor(target)
		d.broadcastRoom(target.RoomId, "Lightning strikes "+title(target.Name)+"!", target.SessionId)
		d.Players.MoveTo(target.SessionId, respawn)
		d.text(target.SessionId, "A divine bolt hurls you across the world.")
		d.sendRoomView(target.SessionId, respawn)
		d.prompt(target.SessionId)
		d.text(sessionId, "You smite %s.", title(target.Name))
		return
	}

	if mob := d.Mobs.FindInRoom(p.RoomId, targetName); mob != nil {
		d.broadcastRoom(p.RoomId, "Lightning strikes "+mob.Name+"!", sessionId)
		d.Mobs.Remove(mob.Id)
		if d.OnMobSmited != nil {
			d.OnMobSmited(mob.Id)
		}
		d.text(sessionId, "You smite %s.", mob.Name)
		return
	}
	d.errorf(sessionId, "No such target.")
}

func (h *AdminHandler) kick(sessionId ids.SessionId, targetName string) {
	d := h.deps

	target := d.Players.ByName(targetName)
	if target == nil {
		if d.Bus != nil {
			msg := bus.NewMessage(bus.TypeKickRequest, d.EngineId)
			msg.TargetPlayerName = targetName
			_ = d.Bus.Broadcast(msg)
			d.info(sessionId, "Kick request sent for %s.", title(targetName))
			return
		}
		d.errorf(sessionId, "No such player.")
		return
	}
	if target.SessionId == sessionId {
		d.errorf(sessionId, "You cannot kick yourself.")
		return
	}
	targetSession := target.SessionId
	d.text(targetSession, "You have been removed from the realm.")
	d.Combat.Disengage(targetSession)
	d.Players.Logout(targetSession)
	d.Items.DropSession(targetSession)
	d.Out.Push(targetSession, outbound.Close())
	d.text(sessionId, "You kick %s.", title(targetName))
}

func (h *AdminHandler) setLevel(sessionId ids.SessionId, targetName string, level int) {
	d := h.deps

	target := d.Players.ByName(targetName)
	if target == nil {
		d.errorf(sessionId, "No such player.")
		return
	}
	if level < 1 {
		level = 1
	}
	if level > progression.MaxLevel {
		level = progression.MaxLevel
	}
	target.Level = level
	target.XpTotal = progression.TotalXpForLevel(level)
	d.Players.Persist(target.SessionId)
	d.info(target.SessionId, "You are now level %d.", level)
	d.prompt(target.SessionId)
	d.text(sessionId, "%s is now level %d.", title(target.Name), level)
}

func (h *AdminHandler) phase(sessionId ids.SessionId, target string) {
	d := h.deps

	result := d.Phase.Switch(target, d.Combat.Engaged(sessionId))
	switch result.Kind {
	case phase.ResultInstanceList:
		d.text(sessionId, "Instances:")
		for _, inst := range result.Instances {
			marker := "  "
			if inst.Current {
				marker = "* "
			}
			d.text(sessionId, "%s%s %s (%d players)", marker, inst.EngineId, inst.ZoneId, inst.PlayerCount)
		}
	case phase.ResultBlocked:
		d.text(sessionId, "%s", result.Reason)
	case phase.ResultNoOp:
		d.text(sessionId, "%s", result.Reason)
	case phase.ResultInitiated:
		d.info(sessionId, "Shifting you to %s...", result.TargetId)
		if d.OnPhaseSwitch != nil {
			d.OnPhaseSwitch(sessionId, result.TargetId)
		}
	}
}
