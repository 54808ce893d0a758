package testutil

import (
	"testing"

	"chordbook/internal/chordbook"
	"chordbook/internal/store"
)

// NewTestCache creates a Cache over a fresh in-memory record store. The
// store is returned too so tests can plant raw records.
func NewTestCache(t *testing.T) (*chordbook.Cache, *store.MemoryStore) {
	t.Helper()
	records := store.NewMemoryStore()
	t.Cleanup(func() { records.Close() })
	return chordbook.NewCache(records, nil), records
}
