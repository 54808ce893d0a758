package store

import (
	"context"
	"strings"
	"sync"

	"chordbook/internal/chordbook"
)

// MemoryStore keeps records in a map. Nothing survives the process, which
// makes it the store for tests and throwaway sessions.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return clone(v), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = clone(value)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]chordbook.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []chordbook.Record
	for k, v := range m.records {
		if strings.HasPrefix(k, prefix) {
			out = append(out, chordbook.Record{Key: k, Value: clone(v)})
		}
	}
	sortRecords(out)
	return out, nil
}

func (m *MemoryStore) Replace(_ context.Context, oldKey, newKey string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, oldKey)
	m.records[newKey] = clone(value)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
