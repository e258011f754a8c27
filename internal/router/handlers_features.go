package router

import (
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/worldstate"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// WorldFeaturesHandler covers doors, containers, levers, and signs: the
// small state machines layered over the static room features.
type WorldFeaturesHandler struct {
	deps *Deps
}

func (h *WorldFeaturesHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}
	room := d.room(p)
	if room == nil {
		d.errorf(sessionId, "You are nowhere.")
		d.prompt(sessionId)
		return
	}

	switch cmd.Kind {
	case command.Open:
		h.open(sessionId, room, cmd.Arg)
	case command.CloseFeature:
		h.close(sessionId, room, cmd.Arg)
	case command.Unlock:
		h.unlock(sessionId, room, cmd.Arg)
	case command.Search:
		h.search(sessionId, room, cmd.Arg)
	case command.GetFrom:
		h.getFrom(sessionId, room, cmd.Arg, cmd.Arg2)
	case command.PutIn:
		h.putIn(sessionId, room, cmd.Arg, cmd.Arg2)
	case command.Pull:
		h.pull(sessionId, room, cmd.Arg)
	case command.ReadSign:
		h.read(sessionId, room, cmd.Arg)
	}
	d.prompt(sessionId)
}

// resolveDoor finds a door feature by name, or by direction (the door on
// that exit).
func (h *WorldFeaturesHandler) resolveDoor(room *worldstatic.Room, name string) (*worldstatic.FeatureDef, ids.FeatureId, bool) {
	if dir, ok := ids.ParseDirection(name); ok {
		if exit, ok := room.Exits[dir]; ok && exit.DoorLocal != "" {
			def := findDoorDef(room, exit.DoorLocal)
			return def, ids.NewFeatureId(room.Id, exit.DoorLocal), def != nil
		}
		return nil, "", false
	}
	def := worldstate.FindFeatureOfKind(room, name, worldstatic.FeatureDoor)
	if def == nil {
		return nil, "", false
	}
	return def, ids.NewFeatureId(room.Id, def.Local), true
}

func (h *WorldFeaturesHandler) open(sessionId ids.SessionId, room *worldstatic.Room, name string) {
	d := h.deps

	if def, featureId, ok := h.resolveDoor(room, name); ok {
		switch d.Features.Door(featureId, def) {
		case ids.DoorLocked:
			d.errorf(sessionId, "It's locked.")
		case ids.DoorOpen:
			d.errorf(sessionId, "It's already open.")
		default:
			d.Features.SetDoor(featureId, ids.DoorOpen)
			d.text(sessionId, "You open the %s.", def.Local)
			d.broadcastRoom(room.Id, title(d.Players.Get(sessionId).Name)+" opens the "+def.Local+".", sessionId)
		}
		return
	}

	if def := worldstate.FindFeatureOfKind(room, name, worldstatic.FeatureContainer); def != nil {
		featureId := ids.NewFeatureId(room.Id, def.Local)
		if d.Features.Container(featureId) == ids.ContainerOpen {
			d.errorf(sessionId, "It's already open.")
			return
		}
		d.Features.SetContainer(featureId, ids.ContainerOpen)
		d.text(sessionId, "You open the %s.", def.Local)
		return
	}
	d.errorf(sessionId, "There is no %s to open here.", name)
}

func (h *WorldFeaturesHandler) close(sessionId ids.SessionId, room *worldstatic.Room, name string) {
	d := h.deps

	if def, featureId, ok := h.resolveDoor(room, name); ok {
		if d.Features.Door(featureId, def) != ids.DoorOpen {
			d.errorf(sessionId, "It's not open.")
			return
		}
		d.Features.SetDoor(featureId, ids.DoorClosed)
		d.text(sessionId, "You close the %s.", def.Local)
		return
	}

	if def := worldstate.FindFeatureOfKind(room, name, worldstatic.FeatureContainer); def != nil {
		featureId := ids.NewFeatureId(room.Id, def.Local)
		if d.Features.Container(featureId) != ids.ContainerOpen {
			d.errorf(sessionId, "It's not open.")
			return
		}
		d.Features.SetContainer(featureId, ids.ContainerClosed)
		d.text(sessionId, "You close the %s.", def.Local)
		return
	}
	d.errorf(sessionId, "There is no %s to close here.", name)
}

func (h *WorldFeaturesHandler) unlock(sessionId ids.SessionId, room *worldstatic.Room, name string) {
	d := h.deps

	def, featureId, ok := h.resolveDoor(room, name)
	if !ok {
		d.errorf(sessionId, "There is no %s to unlock here.", name)
		return
	}
	if d.Features.Door(featureId, def) != ids.DoorLocked {
		d.errorf(sessionId, "It's not locked.")
		return
	}
	if def.RequiresKey != "" && !h.holdsKey(sessionId, def.RequiresKey) {
		d.errorf(sessionId, "You don't have the key.")
		return
	}
	d.Features.SetDoor(featureId, ids.DoorClosed)
	d.text(sessionId, "You unlock the %s.", def.Local)
}

// holdsKey reports whether the player carries an instance minted from
// the key template.
func (h *WorldFeaturesHandler) holdsKey(sessionId ids.SessionId, key ids.ItemId) bool {
	for _, inst := range h.deps.Items.Inventory(sessionId) {
		if inst.Item.Id == string(key) {
			return true
		}
	}
	return false
}

// openContainer resolves a container feature and requires it OPEN.
func (h *WorldFeaturesHandler) openContainer(sessionId ids.SessionId, room *worldstatic.Room, name string) (ids.FeatureId, bool) {
	d := h.deps
	def := worldstate.FindFeatureOfKind(room, name, worldstatic.FeatureContainer)
	if def == nil {
		d.errorf(sessionId, "There is no %s here.", name)
		return "", false
	}
	featureId := ids.NewFeatureId(room.Id, def.Local)
	if d.Features.Container(featureId) != ids.ContainerOpen {
		d.errorf(sessionId, "The %s is closed.", def.Local)
		return "", false
	}
	return featureId, true
}

func (h *WorldFeaturesHandler) search(sessionId ids.SessionId, room *worldstatic.Room, name string) {
	d := h.deps
	featureId, ok := h.openContainer(sessionId, room, name)
	if !ok {
		return
	}
	contents := d.Items.InContainer(featureId)
	if len(contents) == 0 {
		d.text(sessionId, "It is empty.")
		return
	}
	d.text(sessionId, "Inside you find:")
	for _, inst := range contents {
		d.text(sessionId, "  %s", rarityName(&inst.Item))
	}
}

func (h *WorldFeaturesHandler) getFrom(sessionId ids.SessionId, room *worldstatic.Room, keyword, containerName string) {
	d := h.deps
	featureId, ok := h.openContainer(sessionId, room, containerName)
	if !ok {
		return
	}
	inst := d.Items.FindInContainer(featureId, keyword)
	if inst == nil {
		d.errorf(sessionId, "There is no %s in there.", keyword)
		return
	}
	d.Items.MoveContainerToInventory(inst, featureId, sessionId)
	d.text(sessionId, "You take %s.", rarityName(&inst.Item))
}

func (h *WorldFeaturesHandler) putIn(sessionId ids.SessionId, room *worldstatic.Room, keyword, containerName string) {
	d := h.deps
	featureId, ok := h.openContainer(sessionId, room, containerName)
	if !ok {
		return
	}
	inst := d.Items.FindInInventory(sessionId, keyword)
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}
	d.Items.MoveInventoryToContainer(inst, sessionId, featureId)
	d.text(sessionId, "You put %s inside.", rarityName(&inst.Item))
}

func (h *WorldFeaturesHandler) pull(sessionId ids.SessionId, room *worldstatic.Room, name string) {
	d := h.deps
	def := worldstate.FindFeatureOfKind(room, name, worldstatic.FeatureLever)
	if def == nil {
		d.errorf(sessionId, "There is no %s to pull here.", name)
		return
	}
	featureId := ids.NewFeatureId(room.Id, def.Local)
	state := d.Features.PullLever(featureId)
	position := "up"
	if state == ids.LeverDown {
		position = "down"
	}
	d.text(sessionId, "You pull the %s. It clanks %s.", def.Local, position)
	d.broadcastRoom(room.Id, title(d.Players.Get(sessionId).Name)+" pulls the "+def.Local+".", sessionId)

	// A linked door opens when the lever goes down and shuts when it goes
	// back up, relocking if the door takes a key.
	if def.LinkedLocal != "" {
		linkedId := ids.NewFeatureId(room.Id, def.LinkedLocal)
		linkedDef := findDoorDef(room, def.LinkedLocal)
		if state == ids.LeverDown {
			d.Features.SetDoor(linkedId, ids.DoorOpen)
			d.text(sessionId, "Something grinds open nearby.")
		} else {
			if linkedDef != nil && linkedDef.RequiresKey != "" {
				d.Features.SetDoor(linkedId, ids.DoorLocked)
			} else {
				d.Features.SetDoor(linkedId, ids.DoorClosed)
			}
			d.text(sessionId, "Something slams shut nearby.")
		}
	}
}

func (h *WorldFeaturesHandler) read(sessionId ids.SessionId, room *worldstatic.Room, name string) {
	d := h.deps
	def := worldstate.FindFeatureOfKind(room, name, worldstatic.FeatureSign)
	if def == nil {
		d.errorf(sessionId, "There is no %s to read here.", name)
		return
	}
	d.text(sessionId, "%s", def.SignText)
}
