package players

import (
	"testing"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/progression"
	"github.com/duskhollow/engine/internal/repo"
)

const (
	startRoom = ids.RoomId("town:square")
	baseHp    = 10
)

func newTestRegistry() (*Registry, *outbound.Bus) {
	out := outbound.New()
	return NewRegistry(repo.NewMemoryPlayerRepository(), out), out
}

func login(t *testing.T, r *Registry, out *outbound.Bus, sessionId ids.SessionId, name string) *PlayerState {
	t.Helper()
	out.Register(sessionId)
	outcome := r.Login(sessionId, name, "secret", startRoom, baseHp)
	if outcome.Result != LoginOk {
		t.Fatalf("login %s: result %v", name, outcome.Result)
	}
	return r.Get(sessionId)
}

func TestLoginCreatesPlayer(t *testing.T) {
	r, out := newTestRegistry()
	state := login(t, r, out, 1, "Alice")

	if state.Name != "alice" {
		t.Errorf("name = %q, want alice", state.Name)
	}
	if state.RoomId != startRoom || state.Hp != baseHp || state.MaxHp != baseHp {
		t.Errorf("fresh state = %+v", state)
	}
	if r.ByName("ALICE") != state {
		t.Error("name index lookup must be case-insensitive")
	}
}

func TestLoginBadPassword(t *testing.T) {
	r, out := newTestRegistry()
	login(t, r, out, 1, "Alice")
	r.Logout(1)

	outcome := r.Login(2, "Alice", "wrong", startRoom, baseHp)
	if outcome.Result != LoginBadPassword {
		t.Errorf("result = %v, want BadPassword", outcome.Result)
	}
}

func TestLoginNameInvalid(t *testing.T) {
	r, _ := newTestRegistry()
	for _, name := range []string{"x", "has space", "d1git", "waaaaaaaaaaaaaaaytoolong"} {
		if got := r.Login(1, name, "secret", startRoom, baseHp); got.Result != LoginNameInvalid {
			t.Errorf("Login(%q) = %v, want NameInvalid", name, got.Result)
		}
	}
}

func TestTakeoverClosesPriorSession(t *testing.T) {
	r, out := newTestRegistry()
	login(t, r, out, 1, "Alice")
	out.Register(2)

	outcome := r.Login(2, "alice", "secret", startRoom, baseHp)
	if outcome.Result != LoginTakeover {
		t.Fatalf("result = %v, want Takeover", outcome.Result)
	}
	if outcome.PriorSession != 1 {
		t.Errorf("prior session = %d, want 1", outcome.PriorSession)
	}
	if r.Get(1) != nil {
		t.Error("prior session should be unbound")
	}
	if state := r.Get(2); state == nil || state.Name != "alice" {
		t.Error("state should be rebound to the new session")
	}

	events := out.Drain(1)
	if len(events) != 2 {
		t.Fatalf("prior session events = %d, want notice + close", len(events))
	}
	if events[0].Kind != outbound.KindSendText || events[0].Text != "You have been disconnected." {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != outbound.KindClose {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestRoomIndexConsistency(t *testing.T) {
	r, out := newTestRegistry()
	alice := login(t, r, out, 1, "Alice")
	login(t, r, out, 2, "Bob")

	other := ids.RoomId("town:gate")
	r.MoveTo(1, other)
	if alice.RoomId != other {
		t.Errorf("roomId = %s", alice.RoomId)
	}
	if got := r.PlayersInRoom(startRoom); len(got) != 1 || got[0].Name != "bob" {
		t.Errorf("start room roster = %v", names(got))
	}
	if got := r.PlayersInRoom(other); len(got) != 1 || got[0].Name != "alice" {
		t.Errorf("other room roster = %v", names(got))
	}
}

func TestRosterOrderedByLoginTime(t *testing.T) {
	r, out := newTestRegistry()
	login(t, r, out, 5, "Cara")
	login(t, r, out, 2, "Alice")
	login(t, r, out, 9, "Bob")

	got := names(r.PlayersInRoom(startRoom))
	want := []string{"cara", "alice", "bob"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roster = %v, want %v", got, want)
		}
	}
}

func TestLogoutPersists(t *testing.T) {
	rp := repo.NewMemoryPlayerRepository()
	out := outbound.New()
	r := NewRegistry(rp, out)
	out.Register(1)
	if outcome := r.Login(1, "Alice", "secret", startRoom, baseHp); outcome.Result != LoginOk {
		t.Fatal(outcome.Result)
	}
	r.Get(1).Gold = 42
	r.Logout(1)

	if r.Get(1) != nil || r.ByName("alice") != nil {
		t.Error("indices should clear on logout")
	}
	rec, err := rp.FindByName("alice")
	if err != nil || rec == nil {
		t.Fatalf("record missing: %v", err)
	}
	if rec.Gold != 42 {
		t.Errorf("persisted gold = %d, want 42", rec.Gold)
	}
}

func TestGrantXpLevelsUp(t *testing.T) {
	r, out := newTestRegistry()
	state := login(t, r, out, 1, "Alice")

	gained := r.GrantXp(1, progression.TotalXpForLevel(3))
	if gained != 2 {
		t.Errorf("levels gained = %d, want 2", gained)
	}
	if state.Level != 3 {
		t.Errorf("level = %d, want 3", state.Level)
	}
}

func TestPushHistoryRing(t *testing.T) {
	p := &PlayerState{}
	for i := 0; i < HistorySize+5; i++ {
		p.PushHistory("cmd")
	}
	if len(p.History) != HistorySize {
		t.Errorf("history length = %d, want %d", len(p.History), HistorySize)
	}
}

func names(states []*PlayerState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.Name
	}
	return out
}
