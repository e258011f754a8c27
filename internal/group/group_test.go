package group

import (
	"testing"

	"github.com/duskhollow/engine/internal/ids"
)

func TestInviteAccept(t *testing.T) {
	s := NewSystem()

	g, err := s.Invite(1, "Bob")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if !g.PendingInvites["bob"] {
		t.Error("invite should be pending, lowercased")
	}

	joined, err := s.Accept(2, "bob")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if joined.Id != g.Id {
		t.Error("accept joined the wrong group")
	}
	if g.PendingInvites["bob"] {
		t.Error("pending invite should clear on accept")
	}
	if !g.Members[1] || !g.Members[2] {
		t.Errorf("members = %v", g.Members)
	}
}

func TestAcceptWithoutInvite(t *testing.T) {
	s := NewSystem()
	if _, err := s.Accept(2, "bob"); err == nil {
		t.Error("accept with no pending invite should fail")
	}
}

func TestOnlyLeaderInvites(t *testing.T) {
	s := NewSystem()
	if _, err := s.Invite(1, "Bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Accept(2, "bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Invite(2, "Cara"); err == nil {
		t.Error("non-leader invite should fail")
	}
}

func TestKickRules(t *testing.T) {
	s := NewSystem()
	s.Invite(1, "Bob")
	s.Accept(2, "bob")

	if _, err := s.Kick(2, 1); err == nil {
		t.Error("non-leader kick should fail")
	}
	if _, err := s.Kick(1, 1); err == nil {
		t.Error("self-kick should fail")
	}
	if _, err := s.Kick(1, 9); err == nil {
		t.Error("kicking a non-member should fail")
	}
	g, err := s.Kick(1, 2)
	if err != nil {
		t.Fatalf("Kick: %v", err)
	}
	if g.Members[2] {
		t.Error("kicked member still present")
	}
	if s.Of(2) != nil {
		t.Error("kicked session still indexed")
	}
}

func TestLeaveDissolvesEmptyGroup(t *testing.T) {
	s := NewSystem()
	s.Invite(1, "Bob")
	s.Accept(2, "bob")

	s.Leave(2)
	g := s.Leave(1)
	if g == nil {
		t.Fatal("leader leave should return the group")
	}
	if s.Of(1) != nil {
		t.Error("session still indexed after dissolve")
	}
}

func TestLeaderLeavePromotes(t *testing.T) {
	s := NewSystem()
	s.Invite(1, "Bob")
	s.Accept(2, "bob")

	g := s.Leave(1)
	if g.LeaderSession != 2 {
		t.Errorf("leader = %d, want 2", g.LeaderSession)
	}
}

func TestGroupSizeCap(t *testing.T) {
	s := NewSystem()
	for i := 2; i <= MaxSize; i++ {
		name := string(rune('a' + i))
		if _, err := s.Invite(1, name); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Accept(ids.SessionId(i), name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Invite(1, "late"); err == nil {
		t.Error("invite past the size cap should fail")
	}
}
