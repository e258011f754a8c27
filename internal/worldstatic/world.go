// Package worldstatic holds the immutable world definition: rooms, mob and
// item templates, shop definitions, and item spawns. A World is loaded
// once at boot and never mutated afterward; all runtime mutation lives in
// the worldstate, players, mobs, and items registries, which overlay this
// static data.
//
// The boot-time loader format is YAML (see Load). The loading mechanism
// is boot-only glue; the rest of the engine consumes the resulting
// immutable World and never re-reads the file.
package worldstatic

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duskhollow/engine/internal/ids"
)

// ExitDef is a static exit: a direction, its destination room, and an
// optional door feature-local name (resolved against worldstate.Registry
// at runtime).
type ExitDef struct {
	Direction   ids.Direction
	To          ids.RoomId
	DoorLocal   string     // "" if the exit has no door
	RequiresKey ids.ItemId // key item id required to unlock, if any
}

// FeatureKind tags what kind of world feature a FeatureDef describes.
type FeatureKind int

const (
	FeatureDoor FeatureKind = iota
	FeatureContainer
	FeatureLever
	FeatureSign
)

// FeatureDef is the immutable half of a world feature: its kind and its
// static text/linkage. Mutable state (locked/open, contents, up/down)
// lives in worldstate.Registry, keyed by ids.FeatureId.
type FeatureDef struct {
	Local       string
	Kind        FeatureKind
	Keywords    []string
	SignText    string     // FeatureSign only
	RequiresKey ids.ItemId // FeatureDoor only: key item id required to unlock, if any
	LinkedLocal string     // FeatureLever only: feature toggled by pulling this lever
}

// Room is immutable static room data.
type Room struct {
	Id          ids.RoomId
	Title       string
	Description string
	Exits       map[ids.Direction]ExitDef
	Features    []FeatureDef
}

// MobTemplate is the immutable definition a MobState is spawned from.
type MobTemplate struct {
	Id        string
	Name      string
	MaxHp     int
	Defense   int
	MinDamage int
	MaxDamage int
	SwingMs   int64
	XPReward  int
	LootTable []ItemTemplateRef
}

// ItemTemplateRef is a weighted reference into the ItemTemplates table,
// used by mob loot tables and room spawns.
type ItemTemplateRef struct {
	TemplateId string
	Weight     int
}

// ItemTemplate is an immutable item template. Runtime-mutable fields (Charges)
// are copied into an items.Instance at spawn time.
type ItemTemplate struct {
	Id          string
	Keyword     string
	DisplayName string
	Slot        ids.ItemSlot
	Armor       int
	Damage      int
	Consumable  bool
	Charges     int
	BasePrice   int
	HealHp      int // onUse effect: amount healed, 0 if none
	Rarity      int // 0=Common .. 3=Legendary, display only
}

// ItemSpawn places a template instance in a room at world-load time.
type ItemSpawn struct {
	Room       ids.RoomId
	TemplateId string
}

// ShopStockEntry is one line of a shop's sell list.
type ShopStockEntry struct {
	TemplateId string
}

// ShopDefinition is a static shop bound to a room.
type ShopDefinition struct {
	Room  ids.RoomId
	Name  string
	Stock []ShopStockEntry
}

// World is the complete immutable static world, loaded once at boot.
type World struct {
	Rooms          map[ids.RoomId]*Room
	MobTemplates   map[string]*MobTemplate
	ItemTemplates  map[string]*ItemTemplate
	ShopsByRoom    map[ids.RoomId]*ShopDefinition
	ItemSpawns     []ItemSpawn
	MobSpawns      []MobSpawn
	StartRoom      ids.RoomId
	ClassStartRoom map[string]ids.RoomId
}

// MobSpawn places a mob template instance in a room at world-load time /
// respawn tick.
type MobSpawn struct {
	Room       ids.RoomId
	TemplateId string
}

// yamlDoc is the on-disk shape consumed by Load.
type yamlDoc struct {
	StartRoom      string            `yaml:"start_room"`
	ClassStartRoom map[string]string `yaml:"class_start_room"`
	Rooms          []yamlRoom        `yaml:"rooms"`
	MobTemplates   []yamlMobTemplate `yaml:"mob_templates"`
	ItemTemplates  []yamlItem        `yaml:"item_templates"`
	Shops          []yamlShop        `yaml:"shops"`
	ItemSpawns     []yamlItemSpawn   `yaml:"item_spawns"`
	MobSpawns      []yamlMobSpawn    `yaml:"mob_spawns"`
}

type yamlExit struct {
	Direction   string `yaml:"direction"`
	To          string `yaml:"to"`
	Door        string `yaml:"door"`
	RequiresKey string `yaml:"requires_key"`
}

type yamlFeature struct {
	Local       string   `yaml:"local"`
	Kind        string   `yaml:"kind"`
	Keywords    []string `yaml:"keywords"`
	SignText    string   `yaml:"sign_text"`
	RequiresKey string   `yaml:"requires_key"`
	LinkedLocal string   `yaml:"linked_local"`
}

type yamlRoom struct {
	Zone        string        `yaml:"zone"`
	Local       string        `yaml:"local"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Exits       []yamlExit    `yaml:"exits"`
	Features    []yamlFeature `yaml:"features"`
}

type yamlLootRef struct {
	TemplateId string `yaml:"template_id"`
	Weight     int    `yaml:"weight"`
}

type yamlMobTemplate struct {
	Id        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	MaxHp     int           `yaml:"max_hp"`
	Defense   int           `yaml:"defense"`
	MinDamage int           `yaml:"min_damage"`
	MaxDamage int           `yaml:"max_damage"`
	SwingMs   int64         `yaml:"swing_ms"`
	XPReward  int           `yaml:"xp_reward"`
	LootTable []yamlLootRef `yaml:"loot_table"`
}

type yamlItem struct {
	Id          string `yaml:"id"`
	Keyword     string `yaml:"keyword"`
	DisplayName string `yaml:"display_name"`
	Slot        string `yaml:"slot"`
	Armor       int    `yaml:"armor"`
	Damage      int    `yaml:"damage"`
	Consumable  bool   `yaml:"consumable"`
	Charges     int    `yaml:"charges"`
	BasePrice   int    `yaml:"base_price"`
	HealHp      int    `yaml:"heal_hp"`
	Rarity      int    `yaml:"rarity"`
}

type yamlShop struct {
	Zone  string   `yaml:"zone"`
	Local string   `yaml:"local"`
	Name  string   `yaml:"name"`
	Stock []string `yaml:"stock"`
}

type yamlItemSpawn struct {
	Zone       string `yaml:"zone"`
	Local      string `yaml:"local"`
	TemplateId string `yaml:"template_id"`
}

type yamlMobSpawn struct {
	Zone       string `yaml:"zone"`
	Local      string `yaml:"local"`
	TemplateId string `yaml:"template_id"`
}

func parseFeatureKind(s string) FeatureKind {
	switch s {
	case "container":
		return FeatureContainer
	case "lever":
		return FeatureLever
	case "sign":
		return FeatureSign
	default:
		return FeatureDoor
	}
}

// Load parses a YAML world file into an immutable World. Boot-only; it
// is never called again once the engine is running.
func Load(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromDoc(&doc), nil
}

func fromDoc(doc *yamlDoc) *World {
	w := &World{
		Rooms:          make(map[ids.RoomId]*Room),
		MobTemplates:   make(map[string]*MobTemplate),
		ItemTemplates:  make(map[string]*ItemTemplate),
		ShopsByRoom:    make(map[ids.RoomId]*ShopDefinition),
		StartRoom:      ids.RoomId(doc.StartRoom),
		ClassStartRoom: make(map[string]ids.RoomId),
	}

	for class, room := range doc.ClassStartRoom {
		w.ClassStartRoom[class] = ids.RoomId(room)
	}

	for _, r := range doc.Rooms {
		roomId := ids.NewRoomId(r.Zone, r.Local)
		room := &Room{
			Id:          roomId,
			Title:       r.Title,
			Description: r.Description,
			Exits:       make(map[ids.Direction]ExitDef),
		}
		for _, e := range r.Exits {
			dir, ok := ids.ParseDirection(e.Direction)
			if !ok {
				continue
			}
			room.Exits[dir] = ExitDef{
				Direction:   dir,
				To:          ids.RoomId(e.To),
				DoorLocal:   e.Door,
				RequiresKey: ids.ItemId(e.RequiresKey),
			}
		}
		for _, f := range r.Features {
			room.Features = append(room.Features, FeatureDef{
				Local:       f.Local,
				Kind:        parseFeatureKind(f.Kind),
				Keywords:    f.Keywords,
				SignText:    f.SignText,
				RequiresKey: ids.ItemId(f.RequiresKey),
				LinkedLocal: f.LinkedLocal,
			})
		}
		w.Rooms[roomId] = room
	}

	for _, m := range doc.MobTemplates {
		tmpl := &MobTemplate{
			Id:        m.Id,
			Name:      m.Name,
			MaxHp:     m.MaxHp,
			Defense:   m.Defense,
			MinDamage: m.MinDamage,
			MaxDamage: m.MaxDamage,
			SwingMs:   m.SwingMs,
			XPReward:  m.XPReward,
		}
		for _, l := range m.LootTable {
			tmpl.LootTable = append(tmpl.LootTable, ItemTemplateRef{TemplateId: l.TemplateId, Weight: l.Weight})
		}
		w.MobTemplates[m.Id] = tmpl
	}

	for _, it := range doc.ItemTemplates {
		slot, _ := ids.ParseItemSlot(it.Slot)
		w.ItemTemplates[it.Id] = &ItemTemplate{
			Id:          it.Id,
			Keyword:     it.Keyword,
			DisplayName: it.DisplayName,
			Slot:        slot,
			Armor:       it.Armor,
			Damage:      it.Damage,
			Consumable:  it.Consumable,
			Charges:     it.Charges,
			BasePrice:   it.BasePrice,
			HealHp:      it.HealHp,
			Rarity:      it.Rarity,
		}
	}

	for _, s := range doc.Shops {
		roomId := ids.NewRoomId(s.Zone, s.Local)
		shop := &ShopDefinition{Room: roomId, Name: s.Name}
		for _, stockId := range s.Stock {
			shop.Stock = append(shop.Stock, ShopStockEntry{TemplateId: stockId})
		}
		w.ShopsByRoom[roomId] = shop
	}

	for _, is := range doc.ItemSpawns {
		w.ItemSpawns = append(w.ItemSpawns, ItemSpawn{
			Room:       ids.NewRoomId(is.Zone, is.Local),
			TemplateId: is.TemplateId,
		})
	}

	for _, ms := range doc.MobSpawns {
		w.MobSpawns = append(w.MobSpawns, MobSpawn{
			Room:       ids.NewRoomId(ms.Zone, ms.Local),
			TemplateId: ms.TemplateId,
		})
	}

	return w
}
