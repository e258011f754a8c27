// Package players owns all online player state: the session map, the
// case-insensitive name index, the per-room membership index, the login
// state machine outcomes, and the persistence sync against the
// PlayerRepository. Other components reference players only by SessionId.
package players

import (
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	gameerrors "github.com/duskhollow/engine/pkg/errors"

	"github.com/duskhollow/engine/internal/dialogue"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/mail"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/progression"
	"github.com/duskhollow/engine/internal/repo"
	"github.com/duskhollow/engine/pkg/logging"
)

// HistorySize bounds the per-session command history ring.
const HistorySize = 20

// PlayerState is the authoritative in-memory state of one online player.
type PlayerState struct {
	Name         string
	SessionId    ids.SessionId
	RoomId       ids.RoomId
	Hp           int
	MaxHp        int
	BaseMaxHp    int
	Level        int
	XpTotal      int
	Gold         int
	IsStaff      bool
	Class        string
	GuildId      string
	GuildRank    ids.GuildRank
	GroupId      string
	RecallRoomId ids.RoomId
	RecallLastMs int64
	Inbox        []mail.Message
	MailCompose  *mail.Compose
	Dialogue     *dialogue.State
	PromptFormat string
	History      []string

	loginSeq uint64
}

// PushHistory appends line to the command history ring.
func (p *PlayerState) PushHistory(line string) {
	p.History = append(p.History, line)
	if len(p.History) > HistorySize {
		p.History = p.History[len(p.History)-HistorySize:]
	}
}

// LoginResult is the outcome of a login attempt.
type LoginResult int

const (
	LoginOk LoginResult = iota
	LoginBadPassword
	LoginTakeover
	LoginNameInvalid
	LoginFailed // repository error
)

// LoginOutcome carries the result plus what the caller needs to finish
// materializing the player: the persisted record (nil for a brand-new
// player) and, on Takeover, the session that was displaced.
type LoginOutcome struct {
	Result       LoginResult
	Record       *repo.PlayerRecord
	PriorSession ids.SessionId
}

// Registry owns every online player on this engine.
type Registry struct {
	repo     repo.PlayerRepository
	out      *outbound.Bus
	sessions map[ids.SessionId]*PlayerState
	byName   map[string]ids.SessionId
	byRoom   map[ids.RoomId]map[ids.SessionId]bool
	seq      uint64

	// PersistHook builds the full PlayerRecord for a state, letting the
	// engine fold in item-registry contents the players package cannot
	// see. Nil falls back to a record without inventory.
	PersistHook func(*PlayerState) *repo.PlayerRecord
}

// NewRegistry creates a registry persisting through rp and emitting
// takeover notices through out.
func NewRegistry(rp repo.PlayerRepository, out *outbound.Bus) *Registry {
	return &Registry{
		repo:     rp,
		out:      out,
		sessions: make(map[ids.SessionId]*PlayerState),
		byName:   make(map[string]ids.SessionId),
		byRoom:   make(map[ids.RoomId]map[ids.SessionId]bool),
	}
}

// ValidName reports whether name is acceptable: 2..16 letters.
func ValidName(name string) bool {
	if len(name) < 2 || len(name) > 16 {
		return false
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// Login runs the login state machine's final step: verify (or create)
// the named player and bind it to sessionId. On Takeover the prior
// session gets a disconnect notice and a Close, and the player state is
// rebound to the new session in place.
func (r *Registry) Login(sessionId ids.SessionId, name, password string, startRoom ids.RoomId, baseMaxHp int) LoginOutcome {
	if !ValidName(name) {
		return LoginOutcome{Result: LoginNameInvalid}
	}
	lower := strings.ToLower(name)

	record, err := r.repo.FindByName(lower)
	if err != nil {
		logging.Error().Err(gameerrors.Wrap("PlayerRegistry.Login", lower, err)).Msg("login lookup failed")
		return LoginOutcome{Result: LoginFailed}
	}

	if record == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return LoginOutcome{Result: LoginFailed}
		}
		record = &repo.PlayerRecord{
			Name:         lower,
			PasswordHash: string(hash),
			Level:        1,
			Hp:           baseMaxHp,
			BaseMaxHp:    baseMaxHp,
			RoomId:       startRoom,
		}
		if err := r.repo.Save(record); err != nil {
			logging.Error().Err(err).Str("name", lower).Msg("new player save failed")
			return LoginOutcome{Result: LoginFailed}
		}
	} else if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return LoginOutcome{Result: LoginBadPassword}
	}

	outcome := LoginOutcome{Result: LoginOk, Record: record}

	if prior, online := r.byName[lower]; online {
		outcome.Result = LoginTakeover
		outcome.PriorSession = prior
		state := r.sessions[prior]
		delete(r.sessions, prior)
		state.SessionId = sessionId
		r.sessions[sessionId] = state
		r.byName[lower] = sessionId
		if members := r.byRoom[state.RoomId]; members != nil {
			delete(members, prior)
			members[sessionId] = true
		}
		r.out.Push(prior, outbound.SendText("You have been disconnected."))
		r.out.Push(prior, outbound.Close())
		log := logging.WithSession(int64(sessionId))
		log.Info().Str("name", lower).Msg("session takeover")
		return outcome
	}

	roomId := record.RoomId
	if roomId == "" {
		roomId = startRoom
	}
	state := &PlayerState{
		Name:         record.Name,
		SessionId:    sessionId,
		RoomId:       roomId,
		Hp:           record.Hp,
		MaxHp:        record.BaseMaxHp,
		BaseMaxHp:    record.BaseMaxHp,
		Level:        record.Level,
		XpTotal:      record.XpTotal,
		Gold:         record.Gold,
		IsStaff:      record.IsStaff,
		Class:        record.Class,
		GuildId:      record.GuildId,
		GuildRank:    record.GuildRank,
		RecallRoomId: record.RecallRoomId,
		Inbox:        record.Inbox,
		loginSeq:     r.nextSeq(),
	}
	if state.Hp <= 0 || state.Hp > state.MaxHp {
		state.Hp = state.MaxHp
	}
	r.sessions[sessionId] = state
	r.byName[lower] = sessionId
	r.indexRoom(sessionId, roomId)
	log := logging.WithSession(int64(sessionId))
	log.Info().Str("name", lower).Msg("login")
	return outcome
}

func (r *Registry) nextSeq() uint64 {
	r.seq++
	return r.seq
}

// Logout persists and removes sessionId's player. Pending mail compose
// is discarded; combat teardown is the caller's responsibility.
func (r *Registry) Logout(sessionId ids.SessionId) {
	state := r.sessions[sessionId]
	if state == nil {
		return
	}
	state.MailCompose = nil
	state.Dialogue = nil
	r.Persist(sessionId)
	delete(r.byName, strings.ToLower(state.Name))
	r.unindexRoom(sessionId, state.RoomId)
	delete(r.sessions, sessionId)
	log := logging.WithSession(int64(sessionId))
	log.Info().Str("name", state.Name).Msg("logout")
}

// Remove drops the player without persisting; used when a handoff has
// already snapshotted the state onto the bus.
func (r *Registry) Remove(sessionId ids.SessionId) {
	state := r.sessions[sessionId]
	if state == nil {
		return
	}
	delete(r.byName, strings.ToLower(state.Name))
	r.unindexRoom(sessionId, state.RoomId)
	delete(r.sessions, sessionId)
}

// Persist writes the player's current state through the repository.
func (r *Registry) Persist(sessionId ids.SessionId) {
	state := r.sessions[sessionId]
	if state == nil {
		return
	}
	var record *repo.PlayerRecord
	if r.PersistHook != nil {
		record = r.PersistHook(state)
	} else {
		record = BaseRecord(state)
	}
	if record.PasswordHash == "" {
		if existing, err := r.repo.FindByName(state.Name); err == nil && existing != nil {
			record.PasswordHash = existing.PasswordHash
		}
	}
	if err := r.repo.Save(record); err != nil {
		logging.Error().Err(gameerrors.Wrap("PlayerRegistry.Persist", state.Name, err)).Msg("player persist failed")
	}
}

// BaseRecord builds a PlayerRecord from state alone, without inventory
// or equipment (the engine's PersistHook layers those in).
func BaseRecord(state *PlayerState) *repo.PlayerRecord {
	rec := &repo.PlayerRecord{
		Name:         state.Name,
		Class:        state.Class,
		Level:        state.Level,
		XpTotal:      state.XpTotal,
		Hp:           state.Hp,
		BaseMaxHp:    state.BaseMaxHp,
		Gold:         state.Gold,
		IsStaff:      state.IsStaff,
		RoomId:       state.RoomId,
		RecallRoomId: state.RecallRoomId,
		GuildId:      state.GuildId,
		GuildRank:    state.GuildRank,
		Inbox:        state.Inbox,
	}
	return rec
}

// Materialize registers an already-built PlayerState (zone handoff
// arrival). The caller owns room/item placement.
func (r *Registry) Materialize(state *PlayerState) {
	state.loginSeq = r.nextSeq()
	r.sessions[state.SessionId] = state
	r.byName[strings.ToLower(state.Name)] = state.SessionId
	r.indexRoom(state.SessionId, state.RoomId)
}

// Get resolves a player by session, nil if not online.
func (r *Registry) Get(sessionId ids.SessionId) *PlayerState {
	return r.sessions[sessionId]
}

// ByName resolves a player by name, case-insensitively.
func (r *Registry) ByName(name string) *PlayerState {
	sessionId, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return r.sessions[sessionId]
}

// MoveTo re-indexes the player into roomId. It does not validate exits
// and does not broadcast; both are the navigation handler's job.
func (r *Registry) MoveTo(sessionId ids.SessionId, roomId ids.RoomId) {
	state := r.sessions[sessionId]
	if state == nil {
		return
	}
	r.unindexRoom(sessionId, state.RoomId)
	state.RoomId = roomId
	r.indexRoom(sessionId, roomId)
}

// PlayersInRoom returns the players in roomId ordered by login time
// ascending, for stable roster display.
func (r *Registry) PlayersInRoom(roomId ids.RoomId) []*PlayerState {
	members := r.byRoom[roomId]
	out := make([]*PlayerState, 0, len(members))
	for sessionId := range members {
		if state := r.sessions[sessionId]; state != nil {
			out = append(out, state)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].loginSeq < out[j].loginSeq })
	return out
}

// All returns every online player ordered by login time ascending.
func (r *Registry) All() []*PlayerState {
	out := make([]*PlayerState, 0, len(r.sessions))
	for _, state := range r.sessions {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].loginSeq < out[j].loginSeq })
	return out
}

// GrantXp adds amount XP, applying the progression curve. It returns the
// number of levels gained.
func (r *Registry) GrantXp(sessionId ids.SessionId, amount int) int {
	state := r.sessions[sessionId]
	if state == nil || amount <= 0 {
		return 0
	}
	before := state.Level
	state.XpTotal, state.Level = progression.Apply(state.XpTotal, state.Level, amount)
	return state.Level - before
}

func (r *Registry) indexRoom(sessionId ids.SessionId, roomId ids.RoomId) {
	members := r.byRoom[roomId]
	if members == nil {
		members = make(map[ids.SessionId]bool)
		r.byRoom[roomId] = members
	}
	members[sessionId] = true
}

func (r *Registry) unindexRoom(sessionId ids.SessionId, roomId ids.RoomId) {
	if members := r.byRoom[roomId]; members != nil {
		delete(members, sessionId)
		if len(members) == 0 {
			delete(r.byRoom, roomId)
		}
	}
}
