package store

import (
	"context"
	"sync"
)

// MemoryStore is a non-durable JobStore for tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]JobRecord
	saves   int
	failErr error
}

// Compile-time interface check.
var _ JobStore = (*MemoryStore)(nil)

// NewMemoryStore returns a MemoryStore seeded with a copy of records.
func NewMemoryStore(records map[string]JobRecord) *MemoryStore {
	if records == nil {
		records = map[string]JobRecord{}
	}
	return &MemoryStore{records: cloneAll(records)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.records), nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (JobRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return JobRecord{}, false, nil
	}
	return rec.Clone(), true, nil
}

func (s *MemoryStore) SaveAll(ctx context.Context, records map[string]JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	for id, rec := range records {
		s.records[id] = rec.Clone()
	}
	s.saves++
	return nil
}

// FailWith makes subsequent SaveAll calls return err (nil restores saving).
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.failErr = err
	s.mu.Unlock()
}

// Saves returns the number of successful SaveAll calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
