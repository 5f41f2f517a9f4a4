package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for tests and local
// development. Unlike the durable stores it survives nothing, but the
// semantics (write-once, duplicate detection) are identical.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]Event
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]Event),
	}
}

// Exists reports whether an event ID has already been recorded.
func (s *MemoryStore) Exists(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[eventID]
	return ok, nil
}

// Append records a processed event, rejecting duplicates.
func (s *MemoryStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return ErrDuplicateEvent
	}
	s.events[event.ID] = event
	return nil
}

// Close is a no-op for the in-memory ledger.
func (s *MemoryStore) Close() error {
	return nil
}
