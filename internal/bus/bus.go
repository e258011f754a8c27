// Package bus implements the inter-engine message fabric: best-effort
// pub/sub between engine processes, with an optional targeted sendTo.
// Delivery is at-most-once; ordering across engines is undefined;
// self-origin messages are dropped before they reach the engine loop.
//
// Two transports implement the contract: NATS for multi-engine
// deployments and an in-process hub for single-engine boots and tests.
package bus

import (
	"strings"

	"github.com/google/uuid"

	"github.com/duskhollow/engine/internal/ids"
)

// MessageType tags the InterEngineMessage sum type.
type MessageType int

const (
	TypeGlobalBroadcast MessageType = iota
	TypeTell
	TypeKickRequest
	TypeTransferRequest
	TypeZoneHandoff
)

// BroadcastKind narrows a GlobalBroadcast.
type BroadcastKind int

const (
	BroadcastGossip BroadcastKind = iota
	BroadcastShutdown
	BroadcastOOC
)

// PlayerSnapshot carries everything a receiving engine needs to
// materialize a handed-off player.
type PlayerSnapshot struct {
	Name         string            `json:"name"`
	Hp           int               `json:"hp"`
	BaseMaxHp    int               `json:"base_max_hp"`
	Level        int               `json:"level"`
	XpTotal      int               `json:"xp_total"`
	Gold         int               `json:"gold"`
	IsStaff      bool              `json:"is_staff"`
	Class        string            `json:"class"`
	GuildId      string            `json:"guild_id"`
	GuildRank    int               `json:"guild_rank"`
	GroupId      string            `json:"group_id"`
	RecallRoomId string            `json:"recall_room_id"`
	Inventory    []string          `json:"inventory"` // template ids
	Equipment    map[string]string `json:"equipment"` // slot name -> template id
	InboxJSON    []byte            `json:"inbox_json,omitempty"`
}

// Message is the wire shape for every inter-engine message. Fields are
// populated per Type; SourceEngineId lets receivers discard self-origin
// broadcasts.
type Message struct {
	Type           MessageType `json:"type"`
	CorrelationId  string      `json:"correlation_id"`
	SourceEngineId string      `json:"source_engine_id"`

	// GlobalBroadcast
	Broadcast  BroadcastKind `json:"broadcast,omitempty"`
	SenderName string        `json:"sender_name,omitempty"`
	Text       string        `json:"text,omitempty"`

	// Tell
	FromName string `json:"from_name,omitempty"`
	ToName   string `json:"to_name,omitempty"`

	// KickRequest / TransferRequest / ZoneHandoff
	TargetPlayerName string          `json:"target_player_name,omitempty"`
	StaffName        string          `json:"staff_name,omitempty"`
	TargetRoomId     ids.RoomId      `json:"target_room_id,omitempty"`
	Snapshot         *PlayerSnapshot `json:"snapshot,omitempty"`
}

// NewMessage stamps a message with its type, origin, and correlation id.
func NewMessage(msgType MessageType, sourceEngineId string) Message {
	return Message{
		Type:           msgType,
		CorrelationId:  uuid.NewString(),
		SourceEngineId: sourceEngineId,
	}
}

// Bus is the inter-engine transport contract. Implementations: NatsBus
// for multi-engine deployments, LocalBus for single-engine boots and
// tests.
type Bus interface {
	// SendTo delivers msg to exactly one engine, best effort.
	SendTo(targetEngineId string, msg Message) error
	// Broadcast delivers msg to all engines; the sender's own copy is
	// filtered out before Incoming yields it.
	Broadcast(msg Message) error
	// Incoming is the stream of messages for the local engine.
	Incoming() <-chan Message
	// Close tears the transport down.
	Close()
}

// LocationIndex optionally maps a player name to the engine hosting it.
// A nil or always-miss index forces broadcast fallback.
type LocationIndex interface {
	LookupEngineId(name string) (engineId string, ok bool)
}

// MapLocationIndex is the in-memory LocationIndex.
type MapLocationIndex struct {
	byName map[string]string
}

// NewMapLocationIndex returns an empty index.
func NewMapLocationIndex() *MapLocationIndex {
	return &MapLocationIndex{byName: make(map[string]string)}
}

// Set records name as hosted on engineId.
func (i *MapLocationIndex) Set(name, engineId string) {
	i.byName[strings.ToLower(name)] = engineId
}

// Remove forgets name.
func (i *MapLocationIndex) Remove(name string) {
	delete(i.byName, strings.ToLower(name))
}

// LookupEngineId implements LocationIndex.
func (i *MapLocationIndex) LookupEngineId(name string) (string, bool) {
	engineId, ok := i.byName[strings.ToLower(name)]
	return engineId, ok
}

