package router

import (
	"strings"

	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/items"
)

// ItemHandler covers carrying and wearing: get, drop, give, use, wear,
// and remove. Every transfer routes through the item registry so the
// single-owner invariant holds, and every equipment change flows into
// hp/maxHp and cached combat defense.
type ItemHandler struct {
	deps *Deps
}

func (h *ItemHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.Get:
		h.get(sessionId, cmd.Arg)
	case command.Drop:
		h.drop(sessionId, cmd.Arg)
	case command.Give:
		h.give(sessionId, cmd.Arg, cmd.Arg2)
	case command.Use:
		h.use(sessionId, cmd.Arg)
	case command.Wear:
		h.wear(sessionId, cmd.Arg)
	case command.RemoveSlot:
		h.remove(sessionId, cmd.Slot)
	}
	d.prompt(sessionId)
}

func (h *ItemHandler) get(sessionId ids.SessionId, keyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	inst := d.Items.FindInRoom(p.RoomId, keyword)
	if inst == nil {
		d.errorf(sessionId, "There is no %s here.", keyword)
		return
	}
	d.Items.MoveRoomToInventory(inst, p.RoomId, sessionId)
	d.text(sessionId, "You pick up %s.", rarityName(&inst.Item))
	d.broadcastRoom(p.RoomId, title(p.Name)+" picks up "+rarityName(&inst.Item)+".", sessionId)
}

func (h *ItemHandler) drop(sessionId ids.SessionId, keyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	inst := d.Items.FindInInventory(sessionId, keyword)
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}
	d.Items.MoveInventoryToRoom(inst, sessionId, p.RoomId)
	d.text(sessionId, "You drop %s.", rarityName(&inst.Item))
	d.broadcastRoom(p.RoomId, title(p.Name)+" drops "+rarityName(&inst.Item)+".", sessionId)
}

func (h *ItemHandler) give(sessionId ids.SessionId, keyword, targetName string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	target := d.Players.ByName(targetName)
	if target == nil || target.RoomId != p.RoomId {
		d.errorf(sessionId, "They are not here.")
		return
	}
	if target.SessionId == sessionId {
		d.errorf(sessionId, "You already have it.")
		return
	}

	inst := d.Items.FindInInventory(sessionId, keyword)
	if inst == nil {
		// An equipped match is unequipped first, with stat updates.
		inst = h.unequipByKeyword(sessionId, keyword)
	}
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}

	d.Items.MoveInventoryToInventory(inst, sessionId, target.SessionId)
	d.text(sessionId, "You give %s to %s.", rarityName(&inst.Item), title(target.Name))
	d.text(target.SessionId, "%s gives you %s.", title(p.Name), rarityName(&inst.Item))
	d.prompt(target.SessionId)
}

// unequipByKeyword finds an equipped instance by keyword and unequips it
// (stat-adjusted), returning it now carried, or nil.
func (h *ItemHandler) unequipByKeyword(sessionId ids.SessionId, keyword string) *items.Instance {
	d := h.deps
	for slot, inst := range d.Items.Equipment(sessionId) {
		if equalKeyword(inst, keyword) {
			return h.doUnequip(sessionId, slot)
		}
	}
	return nil
}

func equalKeyword(inst *items.Instance, keyword string) bool {
	return strings.EqualFold(inst.Item.Keyword, keyword)
}

func (h *ItemHandler) wear(sessionId ids.SessionId, keyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	inst := d.Items.FindWearable(sessionId, keyword)
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}
	if inst.Item.Slot == ids.SlotNone {
		d.errorf(sessionId, "You can't wear that.")
		return
	}

	prior, ok := d.Items.Equip(sessionId, inst)
	if !ok {
		d.errorf(sessionId, "You can't wear that.")
		return
	}
	if prior != nil {
		applyArmorDelta(p, -prior.Item.Armor)
		d.text(sessionId, "You remove %s.", rarityName(&prior.Item))
	}
	applyArmorDelta(p, inst.Item.Armor)
	d.refreshBuffedDefense(sessionId)
	d.text(sessionId, "You wear %s.", rarityName(&inst.Item))
}

func (h *ItemHandler) remove(sessionId ids.SessionId, slot ids.ItemSlot) {
	d := h.deps
	inst := h.doUnequip(sessionId, slot)
	if inst == nil {
		d.errorf(sessionId, "You have nothing equipped there.")
		return
	}
	d.text(sessionId, "You remove %s.", rarityName(&inst.Item))
}

// doUnequip moves the slot's instance back to inventory with stat and
// defense updates, nil if the slot is empty.
func (h *ItemHandler) doUnequip(sessionId ids.SessionId, slot ids.ItemSlot) *items.Instance {
	d := h.deps
	inst := d.Items.Unequip(sessionId, slot)
	if inst == nil {
		return nil
	}
	applyArmorDelta(d.Players.Get(sessionId), -inst.Item.Armor)
	d.refreshBuffedDefense(sessionId)
	return inst
}

func (h *ItemHandler) use(sessionId ids.SessionId, keyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	inst := d.Items.FindInInventory(sessionId, keyword)
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}

	if inst.Item.HealHp > 0 {
		before := p.Hp
		p.Hp += inst.Item.HealHp
		if p.Hp > p.MaxHp {
			p.Hp = p.MaxHp
		}
		d.text(sessionId, "You use %s and recover %d hp.", rarityName(&inst.Item), p.Hp-before)
	} else {
		d.text(sessionId, "You use %s. Nothing obvious happens.", rarityName(&inst.Item))
	}

	if inst.Item.Consumable {
		inst.Item.Charges--
		if inst.Item.Charges <= 0 {
			d.Items.Destroy(inst)
			d.refreshBuffedDefense(sessionId)
			d.text(sessionId, "%s crumbles to dust.", rarityName(&inst.Item))
		}
	}
}
