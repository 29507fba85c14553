package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore is an in-process session store with TTL expiry. Used in tests
// and as a single-node fallback when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithNowFunc overrides the time source for tests.
func (s *MemoryStore) WithNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get loads a session's state. Expired entries are removed on access.
func (s *MemoryStore) Get(ctx context.Context, id string) (*State, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return nil, ErrNotFound
	}
	state := entry.state
	return &state, nil
}

// Save stores a copy of the state and refreshes its expiry.
func (s *MemoryStore) Save(ctx context.Context, state *State) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[state.ID] = memoryEntry{
		state:     *state,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Delete removes a session's state.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
