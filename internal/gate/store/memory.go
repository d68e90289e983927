package store

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Max-age is enforced when reading.
type MemoryStore struct {
	// Now defaults to time.Now.
	Now func() time.Time

	mu      sync.RWMutex
	entries map[Key]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Now: time.Now, entries: map[Key]memoryEntry{}}
}

func (s *MemoryStore) Get(key Key) (string, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Set(key Key, value string, maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxAge <= 0 {
		delete(s.entries, key)
		return
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(maxAge)}
}

func (s *MemoryStore) Clear(key Key) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *MemoryStore) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
