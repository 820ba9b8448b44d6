package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	memoryStoreMaxSize = 60000 // maximum number of items to store in memory
	entryMaxSize       = 64 * 1024
)

type memoryStore struct {
	maxSize       int
	entries       map[string]*entry
	evictionQueue []string
	mu            sync.Mutex

	now func() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func NewMemoryStore() *memoryStore {
	return &memoryStore{
		maxSize: memoryStoreMaxSize,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.expired(m.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *memoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if size := len(key) + len(value); size > entryMaxSize {
		return fmt.Errorf("entry size exceeds maximum of %d bytes: %d", entryMaxSize, size)
	}

	m.mu.Lock()
	defer func() { m.collectGarbage(); m.mu.Unlock() }()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}

	// Overwrites keep their place in the eviction queue.
	if e, ok := m.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		return nil
	}

	// Enforce maximum size.
	for len(m.entries) >= m.maxSize && len(m.evictionQueue) > 0 {
		oldest := m.evictionQueue[0]
		m.evictionQueue = m.evictionQueue[1:]
		delete(m.entries, oldest)
	}

	m.entries[key] = &entry{value: value, expiresAt: expiresAt}
	m.evictionQueue = append(m.evictionQueue, key)
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.collectGarbage()
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) collectGarbage() {
	now := m.now()
	var evictionQueue []string
	for _, key := range m.evictionQueue {
		e, ok := m.entries[key]
		if !ok {
			continue
		}
		if e.expired(now) {
			delete(m.entries, key)
			continue
		}
		evictionQueue = append(evictionQueue, key)
	}
	m.evictionQueue = evictionQueue
}
