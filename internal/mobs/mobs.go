// Package mobs holds the authoritative registry of live mobs: MobId ->
// MobState plus a per-room index kept in insertion order, so "kill rat"
// always targets the first matching mob that entered the room.
package mobs

import (
	"strings"

	"github.com/google/uuid"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// MobState is one live mob. The registry is the sole owner; other
// components hold only the MobId.
type MobState struct {
	Id       ids.MobId
	Name     string
	RoomId   ids.RoomId
	Hp       int
	MaxHp    int
	Threat   int
	Template *worldstatic.MobTemplate
}

// Registry owns all live mobs on this engine.
type Registry struct {
	mobs   map[ids.MobId]*MobState
	byRoom map[ids.RoomId][]ids.MobId
}

// NewRegistry returns an empty mob registry.
func NewRegistry() *Registry {
	return &Registry{
		mobs:   make(map[ids.MobId]*MobState),
		byRoom: make(map[ids.RoomId][]ids.MobId),
	}
}

// Spawn instantiates template in roomId and returns the new mob.
func (r *Registry) Spawn(template *worldstatic.MobTemplate, roomId ids.RoomId) *MobState {
	mob := &MobState{
		Id:       ids.MobId(uuid.NewString()),
		Name:     template.Name,
		RoomId:   roomId,
		Hp:       template.MaxHp,
		MaxHp:    template.MaxHp,
		Template: template,
	}
	r.mobs[mob.Id] = mob
	r.byRoom[roomId] = append(r.byRoom[roomId], mob.Id)
	return mob
}

// Get resolves a mob by id, nil if it no longer exists.
func (r *Registry) Get(id ids.MobId) *MobState {
	return r.mobs[id]
}

// InRoom returns the live mobs in roomId in room-insertion order.
func (r *Registry) InRoom(roomId ids.RoomId) []*MobState {
	mobIds := r.byRoom[roomId]
	out := make([]*MobState, 0, len(mobIds))
	for _, id := range mobIds {
		if mob := r.mobs[id]; mob != nil {
			out = append(out, mob)
		}
	}
	return out
}

// FindInRoom returns the first mob in roomId whose name contains keyword
// (case-insensitive), in room-insertion order. Nil if none match.
func (r *Registry) FindInRoom(roomId ids.RoomId, keyword string) *MobState {
	kw := strings.ToLower(keyword)
	for _, mob := range r.InRoom(roomId) {
		if strings.Contains(strings.ToLower(mob.Name), kw) {
			return mob
		}
	}
	return nil
}

// MoveTo re-indexes the mob into a new room.
func (r *Registry) MoveTo(id ids.MobId, roomId ids.RoomId) {
	mob := r.mobs[id]
	if mob == nil {
		return
	}
	r.byRoom[mob.RoomId] = removeId(r.byRoom[mob.RoomId], id)
	mob.RoomId = roomId
	r.byRoom[roomId] = append(r.byRoom[roomId], id)
}

// Remove deletes the mob entirely (death or smite).
func (r *Registry) Remove(id ids.MobId) {
	mob := r.mobs[id]
	if mob == nil {
		return
	}
	r.byRoom[mob.RoomId] = removeId(r.byRoom[mob.RoomId], id)
	delete(r.mobs, id)
}

func removeId(list []ids.MobId, id ids.MobId) []ids.MobId {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
