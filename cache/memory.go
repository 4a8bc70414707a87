package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with a background janitor sweeping
// expired entries.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a memory store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Get returns the cached bytes for key, or ErrMiss.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return nil, ErrMiss
	}
	return entry.value, nil
}

// Set stores value under key for ttl; ttl <= 0 means no expiry.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// janitor periodically sweeps expired entries.
func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
