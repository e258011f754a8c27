// Package scheduler implements the deterministic tick scheduler: a
// min-heap of (dueAtMs, insertionSeq, action) entries drained by
// runDue(maxActions), which never executes more actions than the cap and
// never executes a future-due action.
package scheduler

import (
	"container/heap"

	"github.com/duskhollow/engine/internal/clock"
)

// Action is a unit of deferred work. Actions may themselves call
// ScheduleIn/ScheduleAt on the same Scheduler; newly scheduled actions are
// not executed within the same runDue call unless their due time has
// already passed and the cap still has slack.
type Action func()

type entry struct {
	dueAtMs int64
	seq     uint64
	action  Action
	index   int
}

// entryHeap is a min-heap ordered by (dueAtMs, seq).
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].dueAtMs != h[j].dueAtMs {
		return h[i].dueAtMs < h[j].dueAtMs
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is a single-threaded min-heap of due actions, driven by an
// injected Clock. It is not safe for concurrent use; the engine task is
// the only caller.
type Scheduler struct {
	clock clock.Clock
	heap  entryHeap
	seq   uint64
}

// New creates a Scheduler backed by the given clock.
func New(c clock.Clock) *Scheduler {
	return &Scheduler{clock: c, heap: entryHeap{}}
}

// ScheduleAt schedules action to run no earlier than dueAtMs.
func (s *Scheduler) ScheduleAt(dueAtMs int64, action Action) {
	e := &entry{dueAtMs: dueAtMs, seq: s.seq, action: action}
	s.seq++
	heap.Push(&s.heap, e)
}

// ScheduleIn schedules action to run no earlier than delayMs from now.
func (s *Scheduler) ScheduleIn(delayMs int64, action Action) {
	s.ScheduleAt(s.clock.NowMs()+delayMs, action)
}

// Size returns the number of pending (not yet executed) entries.
func (s *Scheduler) Size() int {
	return s.heap.Len()
}

// RunDue executes up to maxActions ready entries (dueAtMs <= now) in heap
// order, earliest due first, ties broken by insertion order. It returns
// ran (the count executed) and deferred (the count of still-ready entries
// left in the heap, whether held back by the cap or scheduled during this
// call). Future-due entries are never counted in deferred.
func (s *Scheduler) RunDue(maxActions int) (ran int, deferred int) {
	now := s.clock.NowMs()
	firstNew := s.seq

	for ran < maxActions && s.heap.Len() > 0 && s.heap[0].dueAtMs <= now {
		// An entry scheduled during this call runs now only if it was
		// already overdue; one due exactly now waits for the next call.
		if s.heap[0].seq >= firstNew && s.heap[0].dueAtMs == now {
			break
		}
		e := heap.Pop(&s.heap).(*entry)
		e.action()
		ran++
	}

	for _, e := range s.heap {
		if e.dueAtMs <= now {
			deferred++
		}
	}
	return ran, deferred
}
