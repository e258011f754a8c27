package guild

import (
	"testing"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/repo"
)

func newTestSystem() (*System, *repo.MemoryGuildRepository) {
	rp := repo.NewMemoryGuildRepository()
	return NewSystem(rp), rp
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Night Watch", "night-watch"},
		{"  The  Nine!  ", "the-nine"},
		{"Order of 7", "order-of-7"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreatePersistsWithLeader(t *testing.T) {
	s, rp := newTestSystem()
	g, err := s.Create("Alice", "Night Watch", "NW")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.Id != "night-watch" {
		t.Errorf("slug = %q", g.Id)
	}
	if g.Roster["alice"] != ids.RankLeader {
		t.Error("founder should be LEADER")
	}
	rec, _ := rp.FindById("night-watch")
	if rec == nil {
		t.Fatal("guild not persisted")
	}
}

func TestCreateNameValidation(t *testing.T) {
	s, _ := newTestSystem()
	if _, err := s.Create("Alice", "ab", ""); err == nil {
		t.Error("short name should fail")
	}
	if _, err := s.Create("Alice", "!!!", ""); err == nil {
		t.Error("symbol-only name should fail")
	}
}

func TestCreateSlugCollision(t *testing.T) {
	s, _ := newTestSystem()
	if _, err := s.Create("Alice", "Night Watch", ""); err != nil {
		t.Fatal(err)
	}
	g2, err := s.Create("Bob", "Night Watch", "")
	if err != nil {
		t.Fatal(err)
	}
	if g2.Id == "night-watch" {
		t.Error("collision should get a suffixed slug")
	}
}

func TestInviteAcceptFlow(t *testing.T) {
	s, _ := newTestSystem()
	g, _ := s.Create("Alice", "Night Watch", "")

	if err := s.Invite(g, "alice", "Bob"); err != nil {
		t.Fatalf("Invite: %v", err)
	}
	joined, err := s.Accept("bob")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if joined.Id != g.Id || joined.Roster["bob"] != ids.RankMember {
		t.Errorf("roster = %v", joined.Roster)
	}
	if _, err := s.Accept("bob"); err == nil {
		t.Error("second accept should fail")
	}
}

func TestMemberCannotInvite(t *testing.T) {
	s, _ := newTestSystem()
	g, _ := s.Create("Alice", "Night Watch", "")
	s.Invite(g, "alice", "Bob")
	s.Accept("bob")

	if err := s.Invite(g, "bob", "Cara"); err == nil {
		t.Error("MEMBER invite should fail")
	}
}

func TestPromoteDemote(t *testing.T) {
	s, _ := newTestSystem()
	g, _ := s.Create("Alice", "Night Watch", "")
	s.Invite(g, "alice", "Bob")
	s.Accept("bob")

	rank, err := s.Promote(g, "alice", "bob")
	if err != nil || rank != ids.RankOfficer {
		t.Fatalf("Promote = %v, %v", rank, err)
	}
	rank, err = s.Demote(g, "alice", "bob")
	if err != nil || rank != ids.RankMember {
		t.Fatalf("Demote = %v, %v", rank, err)
	}
	if _, err := s.Demote(g, "alice", "bob"); err == nil {
		t.Error("demote below MEMBER should fail")
	}
	if _, err := s.Promote(g, "bob", "alice"); err == nil {
		t.Error("non-leader promote should fail")
	}
}

func TestLeaderCannotAbandon(t *testing.T) {
	s, _ := newTestSystem()
	g, _ := s.Create("Alice", "Night Watch", "")
	s.Invite(g, "alice", "Bob")
	s.Accept("bob")

	if err := s.Leave(g, "alice"); err == nil {
		t.Error("sole leader leaving a populated guild should fail")
	}
	s.Promote(g, "alice", "bob")
	s.Promote(g, "alice", "bob") // officer -> leader
	if err := s.Leave(g, "alice"); err != nil {
		t.Errorf("leave after promoting a new leader: %v", err)
	}
}

func TestDisbandDeletes(t *testing.T) {
	s, rp := newTestSystem()
	g, _ := s.Create("Alice", "Night Watch", "")
	if err := s.Disband(g, "alice"); err != nil {
		t.Fatalf("Disband: %v", err)
	}
	rec, _ := rp.FindById("night-watch")
	if rec != nil {
		t.Error("guild record should be deleted")
	}
	if s.Get("night-watch") != nil {
		t.Error("guild should not reload after disband")
	}
}

func TestLastMemberLeaveDeletes(t *testing.T) {
	s, rp := newTestSystem()
	g, _ := s.Create("Alice", "Night Watch", "")
	if err := s.Leave(g, "alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	rec, _ := rp.FindById("night-watch")
	if rec != nil {
		t.Error("empty guild should be deleted")
	}
}
