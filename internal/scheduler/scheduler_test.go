package scheduler

import (
	"testing"

	"github.com/duskhollow/engine/internal/clock"
)

func TestRunDueCapsAndDefers(t *testing.T) {
	c := clock.NewMutableClock(0)
	s := New(c)

	ran := 0
	for i := 0; i < 5; i++ {
		s.ScheduleAt(0, func() { ran++ })
	}
	for i := 0; i < 3; i++ {
		s.ScheduleAt(1000, func() { ran++ })
	}

	gotRan, gotDeferred := s.RunDue(3)
	if gotRan != 3 || gotDeferred != 2 {
		t.Fatalf("RunDue(3) = (%d, %d), want (3, 2)", gotRan, gotDeferred)
	}
	if s.Size() != 5 {
		t.Fatalf("Size() = %d, want 5 (3 were executed, not just dequeued and requeued)", s.Size())
	}
	if ran != 3 {
		t.Fatalf("executed %d actions, want 3", ran)
	}

	c.Set(1000)
	gotRan, gotDeferred = s.RunDue(10)
	if gotRan != 5 || gotDeferred != 0 {
		t.Fatalf("RunDue(10) after advance = (%d, %d), want (5, 0)", gotRan, gotDeferred)
	}
	if s.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", s.Size())
	}
}

func TestRunDueNeverRunsFutureEntries(t *testing.T) {
	c := clock.NewMutableClock(0)
	s := New(c)

	ran := false
	s.ScheduleAt(500, func() { ran = true })

	gotRan, gotDeferred := s.RunDue(10)
	if gotRan != 0 || gotDeferred != 0 {
		t.Fatalf("RunDue = (%d, %d), want (0, 0) since entry is future-due", gotRan, gotDeferred)
	}
	if ran {
		t.Fatal("future-due action should not have run")
	}
}

func TestRunDueOrdersByDueTimeThenInsertionOrder(t *testing.T) {
	c := clock.NewMutableClock(100)
	s := New(c)

	var order []int
	s.ScheduleAt(100, func() { order = append(order, 1) })
	s.ScheduleAt(50, func() { order = append(order, 2) })
	s.ScheduleAt(50, func() { order = append(order, 3) })

	s.RunDue(10)

	want := []int{2, 3, 1}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestScheduleInUsesClock(t *testing.T) {
	c := clock.NewMutableClock(1000)
	s := New(c)

	fired := false
	s.ScheduleIn(500, func() { fired = true })

	s.RunDue(10)
	if fired {
		t.Fatal("action scheduled 500ms out should not fire yet")
	}

	c.Advance(500)
	s.RunDue(10)
	if !fired {
		t.Fatal("action should have fired once due time passed")
	}
}

func TestActionsScheduledDuringRunDueDoNotRunInSameCall(t *testing.T) {
	c := clock.NewMutableClock(0)
	s := New(c)

	rescheduled := false
	s.ScheduleAt(0, func() {
		s.ScheduleAt(0, func() { rescheduled = true })
	})

	ran, _ := s.RunDue(10)
	if ran != 1 {
		t.Fatalf("ran = %d, want 1", ran)
	}
	if rescheduled {
		t.Fatal("newly scheduled same-tick action should not run within the same RunDue call")
	}

	ran, _ = s.RunDue(10)
	if ran != 1 || !rescheduled {
		t.Fatal("rescheduled action should run on the next RunDue call")
	}
}
