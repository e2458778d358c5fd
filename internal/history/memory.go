package history

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps the last capacity entries in a ring buffer
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewMemoryStore creates a ring buffer holding up to capacity entries
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = MaxLimit
	}
	return &MemoryStore{entries: make([]Entry, capacity)}
}

// Record stores entry, evicting the oldest one when the buffer is full
func (m *MemoryStore) Record(_ context.Context, entry Entry) error {
	entry.Categories = maps.Clone(entry.Categories)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = entry
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.entries)
	}
	limit = min(limit, size)

	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		entry := m.entries[idx]
		entry.Categories = maps.Clone(entry.Categories)
		out = append(out, entry)
	}
	return out, nil
}

// Backend reports the store type
func (m *MemoryStore) Backend() string {
	return "memory"
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
