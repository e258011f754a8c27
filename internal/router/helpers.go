package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/duskhollow/engine/internal/clock"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/players"
	"github.com/duskhollow/engine/internal/worldstatic"
	gameerrors "github.com/duskhollow/engine/pkg/errors"
)

func (d *Deps) text(sessionId ids.SessionId, format string, args ...any) {
	d.Out.Push(sessionId, outbound.SendText(fmt.Sprintf(format, args...)))
}

func (d *Deps) info(sessionId ids.SessionId, format string, args ...any) {
	d.Out.Push(sessionId, outbound.SendInfo(fmt.Sprintf(format, args...)))
}

func (d *Deps) errorf(sessionId ids.SessionId, format string, args ...any) {
	d.Out.Push(sessionId, outbound.SendError(fmt.Sprintf(format, args...)))
}

// sendFailure surfaces err to the session per the error taxonomy:
// economic and blocked outcomes read as narration, everything else as
// an error event.
func (d *Deps) sendFailure(sessionId ids.SessionId, err error) {
	if gameerrors.SurfaceOf(err) == gameerrors.SurfaceText {
		d.text(sessionId, "%s", err.Error())
		return
	}
	d.errorf(sessionId, "%s", err.Error())
}

func (d *Deps) prompt(sessionId ids.SessionId) {
	d.Out.Push(sessionId, outbound.SendPrompt())
}

// broadcastRoom sends text to every player in roomId except the excluded
// sessions. Non-essential broadcasts degrade past the queue high-water
// mark; errors and prompts never route through here.
func (d *Deps) broadcastRoom(roomId ids.RoomId, text string, exclude ...ids.SessionId) {
	for _, p := range d.Players.PlayersInRoom(roomId) {
		if contains(exclude, p.SessionId) {
			continue
		}
		if d.Out.Depth(p.SessionId) >= outbound.HighWaterMark {
			continue
		}
		d.Out.Push(p.SessionId, outbound.SendText(text))
	}
}

// broadcastAll sends text to every online session on this engine.
func (d *Deps) broadcastAll(text string, exclude ...ids.SessionId) {
	for _, p := range d.Players.All() {
		if contains(exclude, p.SessionId) {
			continue
		}
		if d.Out.Depth(p.SessionId) >= outbound.HighWaterMark {
			continue
		}
		d.Out.Push(p.SessionId, outbound.SendText(text))
	}
}

// broadcastZone sends text to every online session whose room shares the
// zone of roomId.
func (d *Deps) broadcastZone(roomId ids.RoomId, text string, exclude ...ids.SessionId) {
	zone := roomId.Zone()
	for _, p := range d.Players.All() {
		if contains(exclude, p.SessionId) || p.RoomId.Zone() != zone {
			continue
		}
		if d.Out.Depth(p.SessionId) >= outbound.HighWaterMark {
			continue
		}
		d.Out.Push(p.SessionId, outbound.SendText(text))
	}
}

// room resolves the static room a player stands in, nil if the world has
// no such room.
func (d *Deps) room(p *players.PlayerState) *worldstatic.Room {
	return d.World.Rooms[p.RoomId]
}

// sendRoomView pushes the full room rendering: title, description,
// exits, other players, mobs, and floor items.
func (d *Deps) sendRoomView(sessionId ids.SessionId, roomId ids.RoomId) {
	room := d.World.Rooms[roomId]
	if room == nil {
		d.errorf(sessionId, "You are nowhere.")
		return
	}
	d.text(sessionId, "%s", room.Title)
	if room.Description != "" {
		d.text(sessionId, "%s", room.Description)
	}
	d.text(sessionId, "%s", clock.AmbientDescription(d.Clock))
	d.text(sessionId, "Exits: %s", exitList(room))

	for _, other := range d.Players.PlayersInRoom(roomId) {
		if other.SessionId != sessionId {
			d.text(sessionId, "%s is here.", title(other.Name))
		}
	}
	for _, mob := range d.Mobs.InRoom(roomId) {
		d.text(sessionId, "%s is here.", title(mob.Name))
	}
	for _, inst := range d.Items.InRoom(roomId) {
		d.text(sessionId, "%s lies here.", rarityName(&inst.Item))
	}
}

func exitList(room *worldstatic.Room) string {
	if len(room.Exits) == 0 {
		return "none"
	}
	names := make([]string, 0, len(room.Exits))
	for dir := range room.Exits {
		names = append(names, dir.String())
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

var rarityTints = []string{"", "uncommon ", "rare ", "legendary "}

// rarityName prefixes a display name with its rarity tint, display-only.
func rarityName(item *worldstatic.ItemTemplate) string {
	if item.Rarity > 0 && item.Rarity < len(rarityTints) {
		return rarityTints[item.Rarity] + item.DisplayName
	}
	return item.DisplayName
}

// applyArmorDelta shifts a player's maxHp and hp by an equipment armor
// change, keeping 0 < hp <= maxHp. The floor is 1, not 0: removing
// armor never kills, death is resolved only by the combat path.
func applyArmorDelta(p *players.PlayerState, delta int) {
	p.MaxHp += delta
	p.Hp += delta
	if p.Hp > p.MaxHp {
		p.Hp = p.MaxHp
	}
	if p.Hp < 1 {
		p.Hp = 1
	}
}

// clearDialogue drops any active conversation, per the movement/look
// clearing rule.
func (d *Deps) clearDialogue(p *players.PlayerState) {
	p.Dialogue = nil
}

// startRoomFor returns where a player respawns or recalls to by default:
// class start room if configured, else the world start room.
func (d *Deps) startRoomFor(p *players.PlayerState) ids.RoomId {
	if roomId, ok := d.World.ClassStartRoom[p.Class]; ok {
		return roomId
	}
	return d.World.StartRoom
}

// resolveRoomSpec resolves "zone:local", "local" (caller's zone), or
// "zone:" (any room in that zone) against the static world.
func (d *Deps) resolveRoomSpec(spec string, callerRoom ids.RoomId) (ids.RoomId, bool) {
	if strings.HasSuffix(spec, ":") {
		zone := strings.TrimSuffix(spec, ":")
		for roomId := range d.World.Rooms {
			if roomId.Zone() == zone {
				return roomId, true
			}
		}
		return "", false
	}
	if strings.Contains(spec, ":") {
		roomId := ids.RoomId(spec)
		_, ok := d.World.Rooms[roomId]
		return roomId, ok
	}
	roomId := ids.NewRoomId(callerRoom.Zone(), spec)
	_, ok := d.World.Rooms[roomId]
	return roomId, ok
}

// title uppercases the first letter of a player name for display.
func title(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func contains(list []ids.SessionId, sessionId ids.SessionId) bool {
	for _, s := range list {
		if s == sessionId {
			return true
		}
	}
	return false
}
