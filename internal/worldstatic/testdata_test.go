package worldstatic

import "github.com/duskhollow/engine/internal/ids"

// newTestWorld builds a small two-room world in-process, without touching
// the filesystem, for use by this package's tests.
func newTestWorld() *World {
	start := ids.NewRoomId("town", "square")
	south := ids.NewRoomId("town", "armory")

	w := &World{
		Rooms: map[ids.RoomId]*Room{
			start: {
				Id:          start,
				Title:       "Town Square",
				Description: "A cobbled square at the heart of the town.",
				Exits: map[ids.Direction]ExitDef{
					ids.DirSouth: {Direction: ids.DirSouth, To: south},
				},
			},
			south: {
				Id:          south,
				Title:       "Armory",
				Description: "Racks of well-oiled weapons line the walls.",
				Exits: map[ids.Direction]ExitDef{
					ids.DirNorth: {Direction: ids.DirNorth, To: start},
				},
			},
		},
		MobTemplates: map[string]*MobTemplate{
			"rat": {Id: "rat", Name: "giant rat", MaxHp: 10, Defense: 0, MinDamage: 1, MaxDamage: 3, SwingMs: 2000, XPReward: 5},
		},
		ItemTemplates: map[string]*ItemTemplate{
			"cap":    {Id: "cap", Keyword: "cap", DisplayName: "leather cap", Slot: ids.SlotHead, Armor: 1, BasePrice: 20},
			"potion": {Id: "potion", Keyword: "potion", DisplayName: "healing potion", Consumable: true, Charges: 1, HealHp: 10, BasePrice: 10},
		},
		ShopsByRoom: map[ids.RoomId]*ShopDefinition{
			south: {Room: south, Name: "The Armory", Stock: []ShopStockEntry{{TemplateId: "cap"}}},
		},
		StartRoom: start,
	}
	return w
}
