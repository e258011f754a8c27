package router

import (
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/players"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// RecallCooldownMs is the minimum gap between recalls.
const RecallCooldownMs = 300_000

// NavigationHandler covers movement, directional looks, and recall.
type NavigationHandler struct {
	deps *Deps
}

func (h *NavigationHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.Move:
		if h.move(p, cmd.Dir) {
			// Session handed off to another engine; no prompt here.
			return
		}

	case command.LookDir:
		room := d.room(p)
		exit, ok := exitFor(room, cmd.Dir)
		if !ok {
			d.errorf(sessionId, "There is nothing that way.")
			break
		}
		if target := d.World.Rooms[exit.To]; target != nil {
			d.text(sessionId, "%s", target.Title)
		} else {
			d.errorf(sessionId, "There is nothing that way.")
		}

	case command.Recall:
		h.recall(p)
	}
	d.prompt(sessionId)
}

func exitFor(room *worldstatic.Room, dir ids.Direction) (worldstatic.ExitDef, bool) {
	if room == nil {
		return worldstatic.ExitDef{}, false
	}
	exit, ok := room.Exits[dir]
	return exit, ok
}

// move walks p through the exit. Returns true if the session was handed
// off cross-zone (the caller must not prompt).
func (h *NavigationHandler) move(p *players.PlayerState, dir ids.Direction) bool {
	d := h.deps
	sessionId := p.SessionId

	if d.Combat.Engaged(sessionId) {
		d.errorf(sessionId, "You are in combat.")
		return false
	}

	room := d.room(p)
	exit, ok := exitFor(room, dir)
	if !ok {
		d.text(sessionId, "You can't go that way.")
		return false
	}

	if exit.To.Zone() != p.RoomId.Zone() && d.OnCrossZoneMove != nil {
		d.clearDialogue(p)
		d.OnCrossZoneMove(sessionId, exit.To)
		return true
	}

	if exit.DoorLocal != "" {
		featureId := ids.NewFeatureId(p.RoomId, exit.DoorLocal)
		def := findDoorDef(room, exit.DoorLocal)
		switch d.Features.Door(featureId, def) {
		case ids.DoorLocked:
			d.errorf(sessionId, "The door is locked.")
			return false
		case ids.DoorClosed:
			d.errorf(sessionId, "The door is closed.")
			return false
		}
	}

	d.clearDialogue(p)
	d.broadcastRoom(p.RoomId, title(p.Name)+" leaves.", sessionId)
	d.Players.MoveTo(sessionId, exit.To)
	d.broadcastRoom(exit.To, title(p.Name)+" enters.", sessionId)
	d.sendRoomView(sessionId, exit.To)
	return false
}

func findDoorDef(room *worldstatic.Room, local string) *worldstatic.FeatureDef {
	for i := range room.Features {
		if room.Features[i].Local == local {
			return &room.Features[i]
		}
	}
	return nil
}

func (h *NavigationHandler) recall(p *players.PlayerState) {
	d := h.deps
	sessionId := p.SessionId

	if d.Combat.Engaged(sessionId) {
		d.errorf(sessionId, "You are in combat.")
		return
	}

	now := d.Clock.NowMs()
	if p.RecallLastMs > 0 {
		endAt := p.RecallLastMs + RecallCooldownMs
		if now < endAt {
			secs := (endAt - now + 999) / 1000
			d.errorf(sessionId, "%d seconds remaining", secs)
			return
		}
	}

	target := p.RecallRoomId
	if target == "" {
		target = d.startRoomFor(p)
	}
	p.RecallLastMs = now
	d.clearDialogue(p)
	d.broadcastRoom(p.RoomId, title(p.Name)+" vanishes in a flash of light.", sessionId)
	d.Players.MoveTo(sessionId, target)
	d.broadcastRoom(target, title(p.Name)+" appears in a flash of light.", sessionId)
	d.sendRoomView(sessionId, target)
}
