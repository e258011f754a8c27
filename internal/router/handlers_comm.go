package router

import (
	"strings"

	"github.com/duskhollow/engine/internal/bus"
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/players"
)

// CommunicationHandler covers the chat surface: say, tell, gossip,
// whisper, shout, ooc, and pose. Tells and gossips ride the inter-engine
// bus when one is configured.
type CommunicationHandler struct {
	deps *Deps
}

func (h *CommunicationHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.Say:
		d.broadcastRoom(p.RoomId, title(p.Name)+" says: "+cmd.Text, sessionId)
		d.text(sessionId, "You say: %s", cmd.Text)

	case command.Tell:
		h.tell(p, cmd.Arg, cmd.Text)

	case command.Gossip:
		d.broadcastAll("[GOSSIP] "+title(p.Name)+": "+cmd.Text, sessionId)
		d.text(sessionId, "[GOSSIP] You: %s", cmd.Text)
		if d.Bus != nil {
			msg := bus.NewMessage(bus.TypeGlobalBroadcast, d.EngineId)
			msg.Broadcast = bus.BroadcastGossip
			msg.SenderName = title(p.Name)
			msg.Text = cmd.Text
			_ = d.Bus.Broadcast(msg)
		}

	case command.Whisper:
		h.whisper(p, cmd.Arg, cmd.Text)

	case command.Shout:
		d.broadcastZone(p.RoomId, "[SHOUT] "+title(p.Name)+": "+cmd.Text, sessionId)
		d.text(sessionId, "[SHOUT] You: %s", cmd.Text)

	case command.OOC:
		d.broadcastAll("[OOC] "+title(p.Name)+": "+cmd.Text, sessionId)
		d.text(sessionId, "[OOC] You: %s", cmd.Text)
		if d.Bus != nil {
			msg := bus.NewMessage(bus.TypeGlobalBroadcast, d.EngineId)
			msg.Broadcast = bus.BroadcastOOC
			msg.SenderName = title(p.Name)
			msg.Text = cmd.Text
			_ = d.Bus.Broadcast(msg)
		}

	case command.Pose:
		if !strings.Contains(cmd.Text, title(p.Name)) && !strings.Contains(cmd.Text, p.Name) {
			d.errorf(sessionId, "A pose must include your own name.")
			break
		}
		d.broadcastRoom(p.RoomId, cmd.Text, sessionId)
		d.text(sessionId, "%s", cmd.Text)
	}
	d.prompt(sessionId)
}

func (h *CommunicationHandler) tell(p *players.PlayerState, targetName, text string) {
	d := h.deps
	sessionId := p.SessionId

	if target := d.Players.ByName(targetName); target != nil {
		if target.SessionId == sessionId {
			d.info(sessionId, "You mutter to yourself.")
			return
		}
		d.text(target.SessionId, "%s tells you: %s", title(p.Name), text)
		d.text(sessionId, "You tell %s: %s", title(target.Name), text)
		return
	}

	if d.Bus == nil {
		d.errorf(sessionId, "No such player.")
		return
	}

	msg := bus.NewMessage(bus.TypeTell, d.EngineId)
	msg.FromName = title(p.Name)
	msg.ToName = targetName
	msg.Text = text
	if d.Location != nil {
		if engineId, ok := d.Location.LookupEngineId(targetName); ok && engineId != d.EngineId {
			_ = d.Bus.SendTo(engineId, msg)
			d.text(sessionId, "You tell %s: %s", title(targetName), text)
			return
		}
	}
	_ = d.Bus.Broadcast(msg)
	d.text(sessionId, "You tell %s: %s", title(targetName), text)
}

func (h *CommunicationHandler) whisper(p *players.PlayerState, targetName, text string) {
	d := h.deps
	sessionId := p.SessionId

	target := d.Players.ByName(targetName)
	if target == nil || target.RoomId != p.RoomId {
		d.errorf(sessionId, "They are not here.")
		return
	}
	if target.SessionId == sessionId {
		d.info(sessionId, "You find yourself talking to yourself.")
		return
	}
	d.text(target.SessionId, "%s whispers: %s", title(p.Name), text)
	d.text(sessionId, "You whisper to %s: %s", title(target.Name), text)
}
