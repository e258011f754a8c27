package router

import (
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
)

// GroupHandler covers transient groups: invites, the roster, leader
// kicks, and gtell fan-out.
type GroupHandler struct {
	deps *Deps
}

func (h *GroupHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.GroupInvite:
		h.invite(sessionId, cmd.Arg)
	case command.GroupAccept:
		h.accept(sessionId)
	case command.GroupLeave:
		h.leave(sessionId)
	case command.GroupKick:
		h.kick(sessionId, cmd.Arg)
	case command.GroupList:
		h.list(sessionId)
	case command.Gtell:
		h.gtell(sessionId, cmd.Text)
	}
	d.prompt(sessionId)
}

func (h *GroupHandler) invite(sessionId ids.SessionId, targetName string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	target := d.Players.ByName(targetName)
	if target == nil {
		d.errorf(sessionId, "No such player.")
		return
	}
	if target.SessionId == sessionId {
		d.errorf(sessionId, "You are already with yourself.")
		return
	}
	if d.Groups.Of(target.SessionId) != nil {
		d.errorf(sessionId, "They are already in a group.")
		return
	}
	if _, err := d.Groups.Invite(sessionId, target.Name); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	d.text(sessionId, "You invite %s to your group.", title(target.Name))
	d.info(target.SessionId, "%s invites you to a group. Type: group accept", title(p.Name))
	d.prompt(target.SessionId)
}

func (h *GroupHandler) accept(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)

	g, err := d.Groups.Accept(sessionId, p.Name)
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	p.GroupId = g.Id
	d.text(sessionId, "You join the group.")
	for _, member := range g.MembersOf() {
		if member == sessionId {
			continue
		}
		d.text(member, "%s joins your group.", title(p.Name))
		d.prompt(member)
	}
}

func (h *GroupHandler) leave(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)

	g := d.Groups.Leave(sessionId)
	if g == nil {
		d.errorf(sessionId, "You are not in a group.")
		return
	}
	p.GroupId = ""
	d.text(sessionId, "You leave the group.")
	for _, member := range g.MembersOf() {
		d.text(member, "%s leaves your group.", title(p.Name))
		d.prompt(member)
	}
}

func (h *GroupHandler) kick(sessionId ids.SessionId, targetName string) {
	d := h.deps

	target := d.Players.ByName(targetName)
	if target == nil {
		d.errorf(sessionId, "No such player.")
		return
	}
	if _, err := d.Groups.Kick(sessionId, target.SessionId); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	target.GroupId = ""
	d.text(sessionId, "You remove %s from the group.", title(target.Name))
	d.text(target.SessionId, "You have been removed from the group.")
	d.prompt(target.SessionId)
}

func (h *GroupHandler) list(sessionId ids.SessionId) {
	d := h.deps
	g := d.Groups.Of(sessionId)
	if g == nil {
		d.errorf(sessionId, "You are not in a group.")
		return
	}
	d.text(sessionId, "Your group:")
	for _, member := range g.MembersOf() {
		mp := d.Players.Get(member)
		if mp == nil {
			continue
		}
		marker := ""
		if member == g.LeaderSession {
			marker = " (leader)"
		}
		d.text(sessionId, "  %s%s", title(mp.Name), marker)
	}
}

func (h *GroupHandler) gtell(sessionId ids.SessionId, text string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	g := d.Groups.Of(sessionId)
	if g == nil {
		d.errorf(sessionId, "You are not in a group.")
		return
	}
	for _, member := range g.MembersOf() {
		if member == sessionId {
			continue
		}
		d.text(member, "[GROUP] %s: %s", title(p.Name), text)
		d.prompt(member)
	}
	d.text(sessionId, "[GROUP] You: %s", text)
}
