// Package repo defines the persistence boundary: the PlayerRepository and
// GuildRepository contracts the engine core depends on, plus the record
// shapes they exchange. Concrete drivers live in subpackages; the core
// never imports database/sql directly.
package repo

import (
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/mail"
)

// PlayerRecord is the persisted shape of a player. Inventory and
// equipment are stored as item template ids; live ItemInstance identity
// is transient and re-minted on login.
type PlayerRecord struct {
	Name         string
	PasswordHash string
	Class        string
	Level        int
	XpTotal      int
	Hp           int
	BaseMaxHp    int
	Gold         int
	IsStaff      bool
	RoomId       ids.RoomId
	RecallRoomId ids.RoomId
	GuildId      string
	GuildRank    ids.GuildRank
	Inventory    []string // item template ids, inventory order
	Equipment    map[ids.ItemSlot]string
	Inbox        []mail.Message
}

// GuildRecord is the persisted shape of a guild.
type GuildRecord struct {
	Id          string // slug
	DisplayName string
	Tag         string
	Motd        string
	Roster      map[string]ids.GuildRank // player name (lowercase) -> rank
}

// PlayerRepository is the storage contract for players. Lookups are by
// exact lowercase name; the registry owns case-insensitivity.
type PlayerRepository interface {
	FindByName(name string) (*PlayerRecord, error)
	Save(record *PlayerRecord) error
	Delete(name string) error
}

// GuildRepository is the storage contract for guilds, keyed by slug.
type GuildRepository interface {
	FindById(slug string) (*GuildRecord, error)
	Save(record *GuildRecord) error
	Delete(slug string) error
}
