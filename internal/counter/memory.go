package counter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
//
// State is local to the process, so it does not enforce a global limit
// across replicas. Expiry is checked lazily on access, which keeps tests
// deterministic; there is no background sweeper.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	// now is swappable in tests.
	now func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time // zero means no TTL set
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Incr atomically increments the counter at key.
func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(key)
	if entry == nil {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}
	entry.count++
	return entry.count, nil
}

// Get returns the current counter value, or ok=false for an absent key.
func (s *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(key)
	if entry == nil {
		return 0, false, nil
	}
	return entry.count, true, nil
}

// Expire sets a TTL on the key. Expiring an absent key is a no-op.
func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry := s.live(key); entry != nil {
		entry.expiresAt = s.now().Add(ttl)
	}
	return nil
}

// live returns the entry at key, dropping it first if its TTL has lapsed.
// Caller must hold mu.
func (s *MemoryStore) live(key string) *memoryEntry {
	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return entry
}
