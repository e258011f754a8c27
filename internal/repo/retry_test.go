package repo

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// flakyRepo fails the first failCount saves, then succeeds.
type flakyRepo struct {
	mu        sync.Mutex
	failCount int
	saves     int
	saved     *PlayerRecord
}

func (f *flakyRepo) FindByName(string) (*PlayerRecord, error) { return nil, nil }
func (f *flakyRepo) Delete(string) error                      { return nil }

func (f *flakyRepo) Save(record *PlayerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saves <= f.failCount {
		return errors.New("disk on fire")
	}
	cp := *record
	f.saved = &cp
	return nil
}

func (f *flakyRepo) snapshot() (int, *PlayerRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves, f.saved
}

func TestRetrySucceedsInline(t *testing.T) {
	inner := &flakyRepo{}
	r := NewRetryingPlayerRepository(inner)
	if err := r.Save(&PlayerRecord{Name: "alice"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saves, saved := inner.snapshot()
	if saves != 1 || saved == nil {
		t.Errorf("saves = %d, saved = %v", saves, saved)
	}
}

func TestRetryRecoversInBackground(t *testing.T) {
	inner := &flakyRepo{failCount: 2}
	r := NewRetryingPlayerRepository(inner)
	r.Backoff = time.Millisecond

	if err := r.Save(&PlayerRecord{Name: "alice", Gold: 9}); err != nil {
		t.Fatalf("Save should hand off to the worker, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, saved := inner.snapshot(); saved != nil {
			if saved.Gold != 9 {
				t.Errorf("saved record = %+v", saved)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background retry never succeeded")
}

func TestMemoryRepositoriesCopyRecords(t *testing.T) {
	players := NewMemoryPlayerRepository()
	rec := &PlayerRecord{Name: "alice", Gold: 5}
	if err := players.Save(rec); err != nil {
		t.Fatal(err)
	}
	rec.Gold = 99
	got, _ := players.FindByName("alice")
	if got.Gold != 5 {
		t.Errorf("stored record aliased the caller's: gold = %d", got.Gold)
	}
}
