package router

import (
	"sort"

	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/guild"
	"github.com/duskhollow/engine/internal/ids"
)

// GuildHandler covers persistent guilds: lifecycle, rank transitions,
// MOTD, roster display, and guild chat.
type GuildHandler struct {
	deps *Deps
}

func (h *GuildHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.GuildCreate:
		h.create(sessionId, cmd.Arg)
	case command.GuildInvite:
		h.invite(sessionId, cmd.Arg)
	case command.GuildAccept:
		h.accept(sessionId)
	case command.GuildLeave:
		h.leave(sessionId)
	case command.GuildKick:
		h.kick(sessionId, cmd.Arg)
	case command.GuildPromote:
		h.shiftRank(sessionId, cmd.Arg, true)
	case command.GuildDemote:
		h.shiftRank(sessionId, cmd.Arg, false)
	case command.GuildDisband:
		h.disband(sessionId)
	case command.GuildMotd:
		h.motd(sessionId, cmd.Text)
	case command.GuildRoster:
		h.roster(sessionId)
	case command.GuildInfo:
		h.guildInfo(sessionId)
	case command.Gchat:
		h.gchat(sessionId, cmd.Text)
	}
	d.prompt(sessionId)
}

// guildOf resolves the caller's guild, erroring to the session if none.
func (h *GuildHandler) guildOf(sessionId ids.SessionId) *guild.Guild {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p.GuildId == "" {
		d.errorf(sessionId, "You are not in a guild.")
		return nil
	}
	g := d.Guilds.Get(p.GuildId)
	if g == nil {
		d.errorf(sessionId, "Your guild no longer exists.")
		p.GuildId = ""
		return nil
	}
	return g
}

func (h *GuildHandler) create(sessionId ids.SessionId, name string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if p.GuildId != "" {
		d.errorf(sessionId, "You are already in a guild.")
		return
	}
	g, err := d.Guilds.Create(p.Name, name, "")
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	p.GuildId = g.Id
	p.GuildRank = ids.RankLeader
	d.Players.Persist(sessionId)
	d.text(sessionId, "You found %s.", g.DisplayName)
}

func (h *GuildHandler) invite(sessionId ids.SessionId, targetName string) {
	d := h.deps
	p := d.Players.Get(sessionId)
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	target := d.Players.ByName(targetName)
	if target == nil {
		d.errorf(sessionId, "No such player.")
		return
	}
	if target.GuildId != "" {
		d.errorf(sessionId, "They already belong to a guild.")
		return
	}
	if err := d.Guilds.Invite(g, p.Name, target.Name); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	d.text(sessionId, "You invite %s to %s.", title(target.Name), g.DisplayName)
	d.info(target.SessionId, "%s invites you to %s. Type: guild accept", title(p.Name), g.DisplayName)
	d.prompt(target.SessionId)
}

func (h *GuildHandler) accept(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if p.GuildId != "" {
		d.errorf(sessionId, "You are already in a guild.")
		return
	}
	g, err := d.Guilds.Accept(p.Name)
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	p.GuildId = g.Id
	p.GuildRank = ids.RankMember
	d.Players.Persist(sessionId)
	d.text(sessionId, "You join %s.", g.DisplayName)
	if g.Motd != "" {
		d.info(sessionId, "[%s] %s", g.DisplayName, g.Motd)
	}
}

func (h *GuildHandler) leave(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	if err := d.Guilds.Leave(g, p.Name); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	p.GuildId = ""
	p.GuildRank = ids.RankMember
	d.Players.Persist(sessionId)
	d.text(sessionId, "You leave %s.", g.DisplayName)
}

func (h *GuildHandler) kick(sessionId ids.SessionId, targetName string) {
	d := h.deps
	p := d.Players.Get(sessionId)
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	if err := d.Guilds.Kick(g, p.Name, targetName); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	if target := d.Players.ByName(targetName); target != nil {
		target.GuildId = ""
		target.GuildRank = ids.RankMember
		d.Players.Persist(target.SessionId)
		d.text(target.SessionId, "You have been removed from %s.", g.DisplayName)
		d.prompt(target.SessionId)
	}
	d.text(sessionId, "You remove %s from %s.", title(targetName), g.DisplayName)
}

func (h *GuildHandler) shiftRank(sessionId ids.SessionId, targetName string, up bool) {
	d := h.deps
	p := d.Players.Get(sessionId)
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	var rank ids.GuildRank
	var err error
	if up {
		rank, err = d.Guilds.Promote(g, p.Name, targetName)
	} else {
		rank, err = d.Guilds.Demote(g, p.Name, targetName)
	}
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	if target := d.Players.ByName(targetName); target != nil {
		target.GuildRank = rank
		d.info(target.SessionId, "You are now %s of %s.", rank, g.DisplayName)
		d.prompt(target.SessionId)
	}
	d.text(sessionId, "%s is now %s.", title(targetName), rank)
}

func (h *GuildHandler) disband(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	members := g.Members()
	if err := d.Guilds.Disband(g, p.Name); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	for _, name := range members {
		if online := d.Players.ByName(name); online != nil {
			online.GuildId = ""
			online.GuildRank = ids.RankMember
			d.Players.Persist(online.SessionId)
			if online.SessionId != sessionId {
				d.text(online.SessionId, "%s has been disbanded.", g.DisplayName)
				d.prompt(online.SessionId)
			}
		}
	}
	d.text(sessionId, "You disband %s.", g.DisplayName)
}

func (h *GuildHandler) motd(sessionId ids.SessionId, text string) {
	d := h.deps
	p := d.Players.Get(sessionId)
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	if text == "" {
		if g.Motd == "" {
			d.text(sessionId, "No message of the day.")
		} else {
			d.text(sessionId, "[%s] %s", g.DisplayName, g.Motd)
		}
		return
	}
	if err := d.Guilds.SetMotd(g, p.Name, text); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	d.text(sessionId, "Message of the day updated.")
}

func (h *GuildHandler) roster(sessionId ids.SessionId) {
	d := h.deps
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	names := g.Members()
	sort.Strings(names)
	d.text(sessionId, "%s roster:", g.DisplayName)
	for _, name := range names {
		online := ""
		if d.Players.ByName(name) != nil {
			online = " *"
		}
		d.text(sessionId, "  %s (%s)%s", title(name), g.Roster[name], online)
	}
}

func (h *GuildHandler) guildInfo(sessionId ids.SessionId) {
	d := h.deps
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	d.text(sessionId, "%s [%s], %d members", g.DisplayName, g.Tag, len(g.Roster))
	if g.Motd != "" {
		d.text(sessionId, "MOTD: %s", g.Motd)
	}
}

func (h *GuildHandler) gchat(sessionId ids.SessionId, text string) {
	d := h.deps
	p := d.Players.Get(sessionId)
	g := h.guildOf(sessionId)
	if g == nil {
		return
	}
	for name := range g.Roster {
		member := d.Players.ByName(name)
		if member == nil || member.SessionId == sessionId {
			continue
		}
		d.text(member.SessionId, "[%s] %s: %s", g.DisplayName, title(p.Name), text)
		d.prompt(member.SessionId)
	}
	d.info(sessionId, "[%s] You: %s", g.DisplayName, text)
}
