package repo

import (
	"time"

	"github.com/duskhollow/engine/pkg/logging"
)

// RetryingPlayerRepository decorates a PlayerRepository so a failed Save
// retries with bounded exponential backoff on a worker goroutine. The
// caller's in-memory state stays authoritative until a flush succeeds,
// so Save reports success once the retry worker has taken over.
type RetryingPlayerRepository struct {
	Inner    PlayerRepository
	Attempts int
	Backoff  time.Duration
}

// NewRetryingPlayerRepository wraps inner with the default retry policy.
func NewRetryingPlayerRepository(inner PlayerRepository) *RetryingPlayerRepository {
	return &RetryingPlayerRepository{Inner: inner, Attempts: 5, Backoff: 250 * time.Millisecond}
}

// FindByName implements PlayerRepository.
func (r *RetryingPlayerRepository) FindByName(name string) (*PlayerRecord, error) {
	return r.Inner.FindByName(name)
}

// Save implements PlayerRepository. The first attempt runs inline; on
// failure the remaining attempts run on a worker with doubling backoff.
func (r *RetryingPlayerRepository) Save(record *PlayerRecord) error {
	err := r.Inner.Save(record)
	if err == nil {
		return nil
	}
	logging.Warn().Err(err).Str("player", record.Name).Msg("player save failed, retrying in background")

	cp := *record
	go func() {
		backoff := r.Backoff
		for attempt := 1; attempt < r.Attempts; attempt++ {
			time.Sleep(backoff)
			if r.Inner.Save(&cp) == nil {
				return
			}
			backoff *= 2
		}
		logging.Error().Str("player", cp.Name).Int("attempts", r.Attempts).Msg("player save abandoned")
	}()
	return nil
}

// Delete implements PlayerRepository.
func (r *RetryingPlayerRepository) Delete(name string) error {
	return r.Inner.Delete(name)
}
