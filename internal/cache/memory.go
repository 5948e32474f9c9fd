package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// memoryEntry holds a cached value with its expiry deadline.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-lifetime cache backend. TTL is enforced lazily:
// expired entries are removed when read, not by a background sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is replaceable in tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key, deleting it first if it has expired.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; the entry may have been replaced.
		if current, ok := m.entries[key]; ok && m.now().After(current.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key. Writing an existing key replaces the entry.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// DeleteMatching removes all keys matching the glob pattern.
func (m *MemoryStore) DeleteMatching(_ context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key := range m.entries {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return deleted, err
		}
		if matched {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// Kind identifies this backend.
func (m *MemoryStore) Kind() string {
	return KindMemory
}

// Entries counts unexpired entries matching the glob pattern.
func (m *MemoryStore) Entries(_ context.Context, pattern string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for key, entry := range m.entries {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return 0, err
		}
		if matched && !m.now().After(entry.expiresAt) {
			count++
		}
	}
	return count, nil
}
