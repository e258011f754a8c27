// Package worldstate overlays mutable per-feature state on the immutable
// world: door lock/open state, container open state, and lever positions,
// with a dirty flag per changed feature that DirtyFeatures drains. The
// engine's periodic flush tick drains the set and logs its size; feature
// state is not written to any repository. Container contents live in the items
// registry; this package tracks only the open/closed state machine.
package worldstate

import (
	"strings"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// Registry holds all mutable feature state for one engine.
type Registry struct {
	doors      map[ids.FeatureId]ids.DoorState
	containers map[ids.FeatureId]ids.ContainerState
	levers     map[ids.FeatureId]ids.LeverState
	dirty      map[ids.FeatureId]bool
}

// NewRegistry returns an empty feature-state registry. Feature state is
// lazily defaulted: a door with a key requirement starts LOCKED,
// otherwise CLOSED; containers start CLOSED; levers start UP.
func NewRegistry() *Registry {
	return &Registry{
		doors:      make(map[ids.FeatureId]ids.DoorState),
		containers: make(map[ids.FeatureId]ids.ContainerState),
		levers:     make(map[ids.FeatureId]ids.LeverState),
		dirty:      make(map[ids.FeatureId]bool),
	}
}

// Door returns the current state of the door feature, defaulting from the
// static definition on first access.
func (r *Registry) Door(featureId ids.FeatureId, def *worldstatic.FeatureDef) ids.DoorState {
	if state, ok := r.doors[featureId]; ok {
		return state
	}
	state := ids.DoorClosed
	if def != nil && def.RequiresKey != "" {
		state = ids.DoorLocked
	}
	r.doors[featureId] = state
	return state
}

// SetDoor transitions the door and marks it dirty.
func (r *Registry) SetDoor(featureId ids.FeatureId, state ids.DoorState) {
	r.doors[featureId] = state
	r.dirty[featureId] = true
}

// Container returns the current open/closed state of a container.
func (r *Registry) Container(featureId ids.FeatureId) ids.ContainerState {
	if state, ok := r.containers[featureId]; ok {
		return state
	}
	r.containers[featureId] = ids.ContainerClosed
	return ids.ContainerClosed
}

// SetContainer transitions the container and marks it dirty.
func (r *Registry) SetContainer(featureId ids.FeatureId, state ids.ContainerState) {
	r.containers[featureId] = state
	r.dirty[featureId] = true
}

// Lever returns the current lever position.
func (r *Registry) Lever(featureId ids.FeatureId) ids.LeverState {
	if state, ok := r.levers[featureId]; ok {
		return state
	}
	r.levers[featureId] = ids.LeverUp
	return ids.LeverUp
}

// PullLever toggles the lever, marks it dirty, and returns the new state.
func (r *Registry) PullLever(featureId ids.FeatureId) ids.LeverState {
	state := r.Lever(featureId).Toggled()
	r.levers[featureId] = state
	r.dirty[featureId] = true
	return state
}

// DirtyFeatures drains and returns the set of features changed since the
// last call, for the persistence flush tick.
func (r *Registry) DirtyFeatures() []ids.FeatureId {
	if len(r.dirty) == 0 {
		return nil
	}
	out := make([]ids.FeatureId, 0, len(r.dirty))
	for featureId := range r.dirty {
		out = append(out, featureId)
	}
	r.dirty = make(map[ids.FeatureId]bool)
	return out
}

// FindFeature resolves a feature in room by its local name or one of its
// keywords (case-insensitive).
func FindFeature(room *worldstatic.Room, name string) *worldstatic.FeatureDef {
	for i := range room.Features {
		def := &room.Features[i]
		if strings.EqualFold(def.Local, name) {
			return def
		}
		for _, kw := range def.Keywords {
			if strings.EqualFold(kw, name) {
				return def
			}
		}
	}
	return nil
}

// FindFeatureOfKind is FindFeature restricted to one feature kind.
func FindFeatureOfKind(room *worldstatic.Room, name string, kind worldstatic.FeatureKind) *worldstatic.FeatureDef {
	def := FindFeature(room, name)
	if def == nil || def.Kind != kind {
		return nil
	}
	return def
}
