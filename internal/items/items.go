// Package items owns every live ItemInstance and enforces the ownership
// invariant: an instance resides in exactly one place; a room floor, a
// player's inventory, a player's equipment slot, a world-feature
// container, or an auction listing. All transfers go through this
// registry so an instance can never be duplicated or orphaned.
package items

import (
	"strings"

	"github.com/google/uuid"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// Instance is one live item: a unique id plus a private copy of its
// template. The copy is mutable only for charge decrement.
type Instance struct {
	Id   ids.ItemId
	Item worldstatic.ItemTemplate
}

// Registry owns all live item instances on this engine.
type Registry struct {
	rooms       map[ids.RoomId][]*Instance
	inventories map[ids.SessionId][]*Instance
	equipment   map[ids.SessionId]map[ids.ItemSlot]*Instance
	containers  map[ids.FeatureId][]*Instance
	listings    map[string]*Instance
}

// NewRegistry returns an empty item registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[ids.RoomId][]*Instance),
		inventories: make(map[ids.SessionId][]*Instance),
		equipment:   make(map[ids.SessionId]map[ids.ItemSlot]*Instance),
		containers:  make(map[ids.FeatureId][]*Instance),
		listings:    make(map[string]*Instance),
	}
}

// NewInstance mints a fresh instance from a template. The instance is
// unowned until placed; callers must immediately place it.
func NewInstance(tmpl *worldstatic.ItemTemplate) *Instance {
	return &Instance{Id: ids.ItemId(uuid.NewString()), Item: *tmpl}
}

// SpawnInRoom mints an instance from tmpl directly onto a room floor.
func (r *Registry) SpawnInRoom(tmpl *worldstatic.ItemTemplate, roomId ids.RoomId) *Instance {
	inst := NewInstance(tmpl)
	r.rooms[roomId] = append(r.rooms[roomId], inst)
	return inst
}

// SpawnInInventory mints an instance from tmpl directly into a player's
// inventory (shop purchase, dialogue grant).
func (r *Registry) SpawnInInventory(tmpl *worldstatic.ItemTemplate, sessionId ids.SessionId) *Instance {
	inst := NewInstance(tmpl)
	r.inventories[sessionId] = append(r.inventories[sessionId], inst)
	return inst
}

// InRoom returns the floor items of roomId in drop order.
func (r *Registry) InRoom(roomId ids.RoomId) []*Instance {
	return r.rooms[roomId]
}

// FindInRoom returns the first floor item whose keyword matches
// (case-insensitive, exact), or nil.
func (r *Registry) FindInRoom(roomId ids.RoomId, keyword string) *Instance {
	return findByKeyword(r.rooms[roomId], keyword)
}

// Inventory returns a player's carried items in pickup order.
func (r *Registry) Inventory(sessionId ids.SessionId) []*Instance {
	return r.inventories[sessionId]
}

// FindInInventory returns the first carried item matching keyword, or nil.
func (r *Registry) FindInInventory(sessionId ids.SessionId, keyword string) *Instance {
	return findByKeyword(r.inventories[sessionId], keyword)
}

// FindWearable returns the carried item to equip for keyword: among
// matches, those with a slot win; ties break on inventory order.
func (r *Registry) FindWearable(sessionId ids.SessionId, keyword string) *Instance {
	var fallback *Instance
	for _, inst := range r.inventories[sessionId] {
		if !strings.EqualFold(inst.Item.Keyword, keyword) {
			continue
		}
		if inst.Item.Slot != ids.SlotNone {
			return inst
		}
		if fallback == nil {
			fallback = inst
		}
	}
	return fallback
}

// Equipment returns the slot map for sessionId (may be nil).
func (r *Registry) Equipment(sessionId ids.SessionId) map[ids.ItemSlot]*Instance {
	return r.equipment[sessionId]
}

// Equipped returns the instance in a specific slot, or nil.
func (r *Registry) Equipped(sessionId ids.SessionId, slot ids.ItemSlot) *Instance {
	return r.equipment[sessionId][slot]
}

// EquippedArmorSum sums armor across all equipped instances; the derived
// defense and maxHp contribution.
func (r *Registry) EquippedArmorSum(sessionId ids.SessionId) int {
	total := 0
	for _, inst := range r.equipment[sessionId] {
		total += inst.Item.Armor
	}
	return total
}

// MoveRoomToInventory transfers a floor item into a player's inventory.
// Returns false if the instance is not on that room's floor.
func (r *Registry) MoveRoomToInventory(inst *Instance, roomId ids.RoomId, sessionId ids.SessionId) bool {
	removed, ok := removeInstance(r.rooms[roomId], inst.Id)
	if !ok {
		return false
	}
	r.rooms[roomId] = removed
	r.inventories[sessionId] = append(r.inventories[sessionId], inst)
	return true
}

// MoveInventoryToRoom transfers a carried item onto a room floor.
func (r *Registry) MoveInventoryToRoom(inst *Instance, sessionId ids.SessionId, roomId ids.RoomId) bool {
	removed, ok := removeInstance(r.inventories[sessionId], inst.Id)
	if !ok {
		return false
	}
	r.inventories[sessionId] = removed
	r.rooms[roomId] = append(r.rooms[roomId], inst)
	return true
}

// MoveInventoryToInventory transfers a carried item between players (give,
// trade). Returns false if the giver does not carry it.
func (r *Registry) MoveInventoryToInventory(inst *Instance, from, to ids.SessionId) bool {
	removed, ok := removeInstance(r.inventories[from], inst.Id)
	if !ok {
		return false
	}
	r.inventories[from] = removed
	r.inventories[to] = append(r.inventories[to], inst)
	return true
}

// Equip moves a carried item into its slot, returning the previously
// equipped instance (already moved back to inventory), if any. Returns
// ok=false if the instance is not carried or has no slot.
func (r *Registry) Equip(sessionId ids.SessionId, inst *Instance) (prior *Instance, ok bool) {
	if inst.Item.Slot == ids.SlotNone {
		return nil, false
	}
	removed, found := removeInstance(r.inventories[sessionId], inst.Id)
	if !found {
		return nil, false
	}
	r.inventories[sessionId] = removed

	slots := r.equipment[sessionId]
	if slots == nil {
		slots = make(map[ids.ItemSlot]*Instance)
		r.equipment[sessionId] = slots
	}
	if prior = slots[inst.Item.Slot]; prior != nil {
		r.inventories[sessionId] = append(r.inventories[sessionId], prior)
	}
	slots[inst.Item.Slot] = inst
	return prior, true
}

// Unequip moves the instance in slot back to inventory. Nil if empty.
func (r *Registry) Unequip(sessionId ids.SessionId, slot ids.ItemSlot) *Instance {
	inst := r.equipment[sessionId][slot]
	if inst == nil {
		return nil
	}
	delete(r.equipment[sessionId], slot)
	r.inventories[sessionId] = append(r.inventories[sessionId], inst)
	return inst
}

// InContainer returns a container's contents in insertion order.
func (r *Registry) InContainer(featureId ids.FeatureId) []*Instance {
	return r.containers[featureId]
}

// FindInContainer returns the first contained item matching keyword.
func (r *Registry) FindInContainer(featureId ids.FeatureId, keyword string) *Instance {
	return findByKeyword(r.containers[featureId], keyword)
}

// MoveContainerToInventory transfers a contained item to a player.
func (r *Registry) MoveContainerToInventory(inst *Instance, featureId ids.FeatureId, sessionId ids.SessionId) bool {
	removed, ok := removeInstance(r.containers[featureId], inst.Id)
	if !ok {
		return false
	}
	r.containers[featureId] = removed
	r.inventories[sessionId] = append(r.inventories[sessionId], inst)
	return true
}

// MoveInventoryToContainer transfers a carried item into a container.
func (r *Registry) MoveInventoryToContainer(inst *Instance, sessionId ids.SessionId, featureId ids.FeatureId) bool {
	removed, ok := removeInstance(r.inventories[sessionId], inst.Id)
	if !ok {
		return false
	}
	r.inventories[sessionId] = removed
	r.containers[featureId] = append(r.containers[featureId], inst)
	return true
}

// SpawnInContainer mints an instance directly into a container (world
// boot seeding).
func (r *Registry) SpawnInContainer(tmpl *worldstatic.ItemTemplate, featureId ids.FeatureId) *Instance {
	inst := NewInstance(tmpl)
	r.containers[featureId] = append(r.containers[featureId], inst)
	return inst
}

// MoveInventoryToListing escrows a carried item under an auction listing
// id. The listing becomes the instance's sole owner.
func (r *Registry) MoveInventoryToListing(inst *Instance, sessionId ids.SessionId, listingId string) bool {
	removed, ok := removeInstance(r.inventories[sessionId], inst.Id)
	if !ok {
		return false
	}
	r.inventories[sessionId] = removed
	r.listings[listingId] = inst
	return true
}

// MoveListingToInventory releases an escrowed item to a player (buyout
// win or listing cancel).
func (r *Registry) MoveListingToInventory(listingId string, sessionId ids.SessionId) *Instance {
	inst := r.listings[listingId]
	if inst == nil {
		return nil
	}
	delete(r.listings, listingId)
	r.inventories[sessionId] = append(r.inventories[sessionId], inst)
	return inst
}

// Destroy removes an instance from wherever it lives (consumable used
// up). Returns true if found.
func (r *Registry) Destroy(inst *Instance) bool {
	for roomId, list := range r.rooms {
		if removed, ok := removeInstance(list, inst.Id); ok {
			r.rooms[roomId] = removed
			return true
		}
	}
	for sessionId, list := range r.inventories {
		if removed, ok := removeInstance(list, inst.Id); ok {
			r.inventories[sessionId] = removed
			return true
		}
	}
	for _, slots := range r.equipment {
		for slot, equipped := range slots {
			if equipped.Id == inst.Id {
				delete(slots, slot)
				return true
			}
		}
	}
	for featureId, list := range r.containers {
		if removed, ok := removeInstance(list, inst.Id); ok {
			r.containers[featureId] = removed
			return true
		}
	}
	for listingId, escrowed := range r.listings {
		if escrowed.Id == inst.Id {
			delete(r.listings, listingId)
			return true
		}
	}
	return false
}

// RebindSession moves a player's inventory and equipment to a new
// session id (login takeover).
func (r *Registry) RebindSession(from, to ids.SessionId) {
	if inv, ok := r.inventories[from]; ok {
		r.inventories[to] = inv
		delete(r.inventories, from)
	}
	if eq, ok := r.equipment[from]; ok {
		r.equipment[to] = eq
		delete(r.equipment, from)
	}
}

// DropSession discards a departing session's inventory and equipment.
// Persistence snapshots template ids before this runs.
func (r *Registry) DropSession(sessionId ids.SessionId) {
	delete(r.inventories, sessionId)
	delete(r.equipment, sessionId)
}

// Count returns the total number of live instances across every
// location, for the conservation invariant.
func (r *Registry) Count() int {
	n := len(r.listings)
	for _, list := range r.rooms {
		n += len(list)
	}
	for _, list := range r.inventories {
		n += len(list)
	}
	for _, slots := range r.equipment {
		n += len(slots)
	}
	for _, list := range r.containers {
		n += len(list)
	}
	return n
}

func findByKeyword(list []*Instance, keyword string) *Instance {
	for _, inst := range list {
		if strings.EqualFold(inst.Item.Keyword, keyword) {
			return inst
		}
	}
	return nil
}

func removeInstance(list []*Instance, id ids.ItemId) ([]*Instance, bool) {
	for i, inst := range list {
		if inst.Id == id {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}
