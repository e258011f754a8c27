package repo

import (
	"strings"
	"sync"
)

// MemoryPlayerRepository is the in-memory PlayerRepository used by tests
// and by single-engine development boots with no database configured.
type MemoryPlayerRepository struct {
	mu      sync.Mutex
	records map[string]*PlayerRecord
}

// NewMemoryPlayerRepository returns an empty in-memory repository.
func NewMemoryPlayerRepository() *MemoryPlayerRepository {
	return &MemoryPlayerRepository{records: make(map[string]*PlayerRecord)}
}

// FindByName implements PlayerRepository.
func (r *MemoryPlayerRepository) FindByName(name string) (*PlayerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[strings.ToLower(name)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// Save implements PlayerRepository.
func (r *MemoryPlayerRepository) Save(record *PlayerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[strings.ToLower(record.Name)] = &cp
	return nil
}

// Delete implements PlayerRepository.
func (r *MemoryPlayerRepository) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, strings.ToLower(name))
	return nil
}

// MemoryGuildRepository is the in-memory GuildRepository counterpart.
type MemoryGuildRepository struct {
	mu      sync.Mutex
	records map[string]*GuildRecord
}

// NewMemoryGuildRepository returns an empty in-memory repository.
func NewMemoryGuildRepository() *MemoryGuildRepository {
	return &MemoryGuildRepository{records: make(map[string]*GuildRecord)}
}

// FindById implements GuildRepository.
func (r *MemoryGuildRepository) FindById(slug string) (*GuildRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[slug]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// Save implements GuildRepository.
func (r *MemoryGuildRepository) Save(record *GuildRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[record.Id] = &cp
	return nil
}

// Delete implements GuildRepository.
func (r *MemoryGuildRepository) Delete(slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, slug)
	return nil
}
