package outbound

import (
	"testing"

	"github.com/duskhollow/engine/internal/ids"
)

func TestPushOrderPreserved(t *testing.T) {
	b := New()
	sid := ids.SessionId(1)
	b.Register(sid)

	b.Push(sid, SendText("one"))
	b.Push(sid, SendText("two"))
	b.Push(sid, SendPrompt())

	got := b.Drain(sid)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got[0].Text != "one" || got[1].Text != "two" || got[2].Kind != KindSendPrompt {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestCloseAfterPendingEventsStillDeliveredAfter(t *testing.T) {
	b := New()
	sid := ids.SessionId(2)
	b.Register(sid)

	b.Push(sid, SendText("last words"))
	b.Push(sid, Close())
	b.Push(sid, SendText("too late")) // dropped: queue closed

	got := b.Drain(sid)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Text != "last words" || got[1].Kind != KindClose {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestPushToUnregisteredSessionIsNoop(t *testing.T) {
	b := New()
	b.Push(ids.SessionId(99), SendText("nobody home"))
	if got := b.Drain(ids.SessionId(99)); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestDepthAndDrainResets(t *testing.T) {
	b := New()
	sid := ids.SessionId(3)
	b.Register(sid)
	b.Push(sid, SendText("x"))
	b.Push(sid, SendText("y"))

	if d := b.Depth(sid); d != 2 {
		t.Fatalf("Depth() = %d, want 2", d)
	}
	b.Drain(sid)
	if d := b.Depth(sid); d != 0 {
		t.Fatalf("Depth() after drain = %d, want 0", d)
	}
}
