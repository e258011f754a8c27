// Package group implements transient player groups: pending invites, the
// roster, and leader-only kicks. Groups live only in memory; they
// dissolve when empty and never persist.
package group

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/duskhollow/engine/internal/ids"
)

// MaxSize caps group membership.
const MaxSize = 5

// Group is one active group.
type Group struct {
	Id             string
	LeaderSession  ids.SessionId
	Members        map[ids.SessionId]bool
	PendingInvites map[string]bool // invitee names, lowercase
}

// System owns all active groups on this engine.
type System struct {
	groups    map[string]*Group
	bySession map[ids.SessionId]string
}

// NewSystem returns an empty group system.
func NewSystem() *System {
	return &System{
		groups:    make(map[string]*Group),
		bySession: make(map[ids.SessionId]string),
	}
}

// Of returns the group a session belongs to, nil if none.
func (s *System) Of(sessionId ids.SessionId) *Group {
	groupId, ok := s.bySession[sessionId]
	if !ok {
		return nil
	}
	return s.groups[groupId]
}

// Invite records a pending invite from leaderSession's group (creating a
// fresh group if the inviter has none) to inviteeName.
func (s *System) Invite(inviter ids.SessionId, inviteeName string) (*Group, error) {
	g := s.Of(inviter)
	if g == nil {
		g = &Group{
			Id:             uuid.NewString(),
			LeaderSession:  inviter,
			Members:        map[ids.SessionId]bool{inviter: true},
			PendingInvites: make(map[string]bool),
		}
		s.groups[g.Id] = g
		s.bySession[inviter] = g.Id
	}
	if g.LeaderSession != inviter {
		return nil, fmt.Errorf("only the group leader can invite")
	}
	if len(g.Members) >= MaxSize {
		return nil, fmt.Errorf("the group is full")
	}
	g.PendingInvites[strings.ToLower(inviteeName)] = true
	return g, nil
}

// Accept joins sessionId (named inviteeName) to the group holding their
// pending invite. Returns the joined group or an error.
func (s *System) Accept(sessionId ids.SessionId, inviteeName string) (*Group, error) {
	if s.Of(sessionId) != nil {
		return nil, fmt.Errorf("you are already in a group")
	}
	lower := strings.ToLower(inviteeName)
	for _, g := range s.groups {
		if g.PendingInvites[lower] {
			if len(g.Members) >= MaxSize {
				return nil, fmt.Errorf("the group is full")
			}
			delete(g.PendingInvites, lower)
			g.Members[sessionId] = true
			s.bySession[sessionId] = g.Id
			return g, nil
		}
	}
	return nil, fmt.Errorf("you have no pending group invite")
}

// Leave removes sessionId from its group. If the leader leaves, the
// group promotes an arbitrary remaining member; an empty group
// dissolves. Returns the group left, nil if the session had none.
func (s *System) Leave(sessionId ids.SessionId) *Group {
	g := s.Of(sessionId)
	if g == nil {
		return nil
	}
	s.remove(g, sessionId)
	return g
}

// Kick removes targetSession from kicker's group. Only the leader may
// kick, and not themselves.
func (s *System) Kick(kicker, target ids.SessionId) (*Group, error) {
	g := s.Of(kicker)
	if g == nil {
		return nil, fmt.Errorf("you are not in a group")
	}
	if g.LeaderSession != kicker {
		return nil, fmt.Errorf("only the group leader can kick")
	}
	if kicker == target {
		return nil, fmt.Errorf("leave the group instead")
	}
	if !g.Members[target] {
		return nil, fmt.Errorf("they are not in your group")
	}
	s.remove(g, target)
	return g, nil
}

// Rebind moves a session's membership to a new session id (login
// takeover).
func (s *System) Rebind(from, to ids.SessionId) {
	groupId, ok := s.bySession[from]
	if !ok {
		return
	}
	g := s.groups[groupId]
	delete(s.bySession, from)
	delete(g.Members, from)
	g.Members[to] = true
	s.bySession[to] = groupId
	if g.LeaderSession == from {
		g.LeaderSession = to
	}
}

// MembersOf returns the member sessions of g in unspecified order.
func (g *Group) MembersOf() []ids.SessionId {
	out := make([]ids.SessionId, 0, len(g.Members))
	for sessionId := range g.Members {
		out = append(out, sessionId)
	}
	return out
}

func (s *System) remove(g *Group, sessionId ids.SessionId) {
	delete(g.Members, sessionId)
	delete(s.bySession, sessionId)
	if len(g.Members) == 0 {
		delete(s.groups, g.Id)
		return
	}
	if g.LeaderSession == sessionId {
		for member := range g.Members {
			g.LeaderSession = member
			break
		}
	}
}
