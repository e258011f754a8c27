// Package guild implements persistent player guilds: creation with slug
// identity, rank transitions, MOTD, invites, and roster persistence via
// the GuildRepository.
package guild

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/repo"
	gameerrors "github.com/duskhollow/engine/pkg/errors"
	"github.com/duskhollow/engine/pkg/logging"
)

// Name length bounds for guild display names.
const (
	MinNameLen = 3
	MaxNameLen = 32
)

// Guild is one loaded guild. The system is the sole owner of the live
// copy; the repository holds the durable one.
type Guild struct {
	Id          string // slug
	DisplayName string
	Tag         string
	Motd        string
	Roster      map[string]ids.GuildRank // player name (lowercase) -> rank
}

// System owns all guilds loaded on this engine.
type System struct {
	repo    repo.GuildRepository
	guilds  map[string]*Guild
	invites map[string]string // invitee name (lowercase) -> guild slug
}

// NewSystem creates a guild system persisting through rp.
func NewSystem(rp repo.GuildRepository) *System {
	return &System{
		repo:    rp,
		guilds:  make(map[string]*Guild),
		invites: make(map[string]string),
	}
}

// Slug derives a guild id from its display name.
func Slug(displayName string) string {
	slug := strings.ToLower(strings.TrimSpace(displayName))
	slug = strings.Join(strings.Fields(slug), "-")
	var b strings.Builder
	for _, c := range slug {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Get loads a guild by slug, consulting the repository on a miss.
func (s *System) Get(slug string) *Guild {
	if g, ok := s.guilds[slug]; ok {
		return g
	}
	rec, err := s.repo.FindById(slug)
	if err != nil {
		logging.Error().Err(err).Str("guild", slug).Msg("guild load failed")
		return nil
	}
	if rec == nil {
		return nil
	}
	g := &Guild{
		Id:          rec.Id,
		DisplayName: rec.DisplayName,
		Tag:         rec.Tag,
		Motd:        rec.Motd,
		Roster:      rec.Roster,
	}
	if g.Roster == nil {
		g.Roster = make(map[string]ids.GuildRank)
	}
	s.guilds[slug] = g
	return g
}

// Create founds a new guild with founderName as LEADER. The display name
// is validated for length; a slug collision against an existing guild
// gets a short uuid suffix.
func (s *System) Create(founderName, displayName, tag string) (*Guild, error) {
	trimmed := strings.TrimSpace(displayName)
	if len(trimmed) < MinNameLen || len(trimmed) > MaxNameLen {
		return nil, fmt.Errorf("guild names must be %d to %d characters", MinNameLen, MaxNameLen)
	}
	slug := Slug(trimmed)
	if slug == "" {
		return nil, fmt.Errorf("guild names must contain letters or digits")
	}
	if s.Get(slug) != nil {
		slug = slug + "-" + uuid.NewString()[:8]
	}

	g := &Guild{
		Id:          slug,
		DisplayName: trimmed,
		Tag:         tag,
		Roster:      map[string]ids.GuildRank{strings.ToLower(founderName): ids.RankLeader},
	}
	s.guilds[slug] = g
	if err := s.persist(g); err != nil {
		delete(s.guilds, slug)
		return nil, err
	}
	return g, nil
}

// Invite records a pending invite to inviteeName. Only OFFICER and above
// may invite.
func (s *System) Invite(g *Guild, inviterName, inviteeName string) error {
	if g.Roster[strings.ToLower(inviterName)] < ids.RankOfficer {
		return fmt.Errorf("only officers can invite")
	}
	lower := strings.ToLower(inviteeName)
	if _, ok := g.Roster[lower]; ok {
		return fmt.Errorf("%s is already a member", inviteeName)
	}
	s.invites[lower] = g.Id
	return nil
}

// Accept joins playerName to the guild holding their pending invite.
func (s *System) Accept(playerName string) (*Guild, error) {
	lower := strings.ToLower(playerName)
	slug, ok := s.invites[lower]
	if !ok {
		return nil, fmt.Errorf("you have no pending guild invite")
	}
	g := s.Get(slug)
	if g == nil {
		delete(s.invites, lower)
		return nil, fmt.Errorf("that guild no longer exists")
	}
	delete(s.invites, lower)
	g.Roster[lower] = ids.RankMember
	return g, s.persist(g)
}

// Leave removes playerName from g. The last LEADER cannot leave while
// other members remain.
func (s *System) Leave(g *Guild, playerName string) error {
	lower := strings.ToLower(playerName)
	rank, ok := g.Roster[lower]
	if !ok {
		return fmt.Errorf("you are not a member")
	}
	if rank == ids.RankLeader && len(g.Roster) > 1 && s.leaderCount(g) == 1 {
		return fmt.Errorf("promote a new leader before leaving")
	}
	delete(g.Roster, lower)
	if len(g.Roster) == 0 {
		return s.deleteGuild(g)
	}
	return s.persist(g)
}

// Kick removes targetName. Only LEADER may kick, and never themselves.
func (s *System) Kick(g *Guild, kickerName, targetName string) error {
	if g.Roster[strings.ToLower(kickerName)] != ids.RankLeader {
		return fmt.Errorf("only the guild leader can kick")
	}
	lower := strings.ToLower(targetName)
	if strings.EqualFold(kickerName, targetName) {
		return fmt.Errorf("you cannot kick yourself")
	}
	if _, ok := g.Roster[lower]; !ok {
		return fmt.Errorf("%s is not a member", targetName)
	}
	delete(g.Roster, lower)
	return s.persist(g)
}

// Promote raises targetName one rank (MEMBER -> OFFICER -> LEADER).
// Only LEADER may promote.
func (s *System) Promote(g *Guild, actorName, targetName string) (ids.GuildRank, error) {
	return s.shiftRank(g, actorName, targetName, +1)
}

// Demote lowers targetName one rank. Only LEADER may demote.
func (s *System) Demote(g *Guild, actorName, targetName string) (ids.GuildRank, error) {
	return s.shiftRank(g, actorName, targetName, -1)
}

func (s *System) shiftRank(g *Guild, actorName, targetName string, delta int) (ids.GuildRank, error) {
	if g.Roster[strings.ToLower(actorName)] != ids.RankLeader {
		return 0, fmt.Errorf("only the guild leader can change ranks")
	}
	lower := strings.ToLower(targetName)
	rank, ok := g.Roster[lower]
	if !ok {
		return 0, fmt.Errorf("%s is not a member", targetName)
	}
	next := ids.GuildRank(int(rank) + delta)
	if next < ids.RankMember || next > ids.RankLeader {
		return 0, fmt.Errorf("cannot change that rank further")
	}
	g.Roster[lower] = next
	return next, s.persist(g)
}

// SetMotd updates the message of the day. OFFICER and above only.
func (s *System) SetMotd(g *Guild, actorName, motd string) error {
	if g.Roster[strings.ToLower(actorName)] < ids.RankOfficer {
		return fmt.Errorf("only officers can set the motd")
	}
	g.Motd = motd
	return s.persist(g)
}

// Disband deletes the guild entirely. LEADER only. The caller clears
// guild membership from any online members.
func (s *System) Disband(g *Guild, actorName string) error {
	if g.Roster[strings.ToLower(actorName)] != ids.RankLeader {
		return fmt.Errorf("only the guild leader can disband")
	}
	g.Roster = map[string]ids.GuildRank{}
	return s.deleteGuild(g)
}

// Members returns the roster names in unspecified order.
func (g *Guild) Members() []string {
	out := make([]string, 0, len(g.Roster))
	for name := range g.Roster {
		out = append(out, name)
	}
	return out
}

func (s *System) leaderCount(g *Guild) int {
	n := 0
	for _, rank := range g.Roster {
		if rank == ids.RankLeader {
			n++
		}
	}
	return n
}

func (s *System) persist(g *Guild) error {
	rec := &repo.GuildRecord{
		Id:          g.Id,
		DisplayName: g.DisplayName,
		Tag:         g.Tag,
		Motd:        g.Motd,
		Roster:      g.Roster,
	}
	if err := s.repo.Save(rec); err != nil {
		gerr := gameerrors.Wrap("GuildSystem.persist", g.Id, err)
		logging.Error().Err(gerr).Msg("guild persist failed")
		return gerr
	}
	return nil
}

func (s *System) deleteGuild(g *Guild) error {
	delete(s.guilds, g.Id)
	if err := s.repo.Delete(g.Id); err != nil {
		gerr := gameerrors.Wrap("GuildSystem.delete", g.Id, err)
		logging.Error().Err(gerr).Msg("guild delete failed")
		return gerr
	}
	return nil
}
