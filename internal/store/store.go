// Package store provides the RecordStore backends the cache persists into.
package store

import (
	"slices"
	"strings"

	"chordbook/internal/chordbook"
)

// Sealer encrypts record values before they reach disk.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

var (
	_ chordbook.RecordStore = (*MemoryStore)(nil)
	_ chordbook.RecordStore = (*FileSystemStore)(nil)
	_ chordbook.RecordStore = (*SQLiteStore)(nil)
	_ chordbook.RecordStore = (*RedisStore)(nil)
)

// unreadable stands in for a value a backend holds but cannot hand back
// intact. It is non-nil so it is not mistaken for an absent key, and it does
// not decode, so the cache skips it like any other malformed record.
func unreadable() []byte { return []byte{} }

func sortRecords(records []chordbook.Record) {
	slices.SortFunc(records, func(a, b chordbook.Record) int {
		return strings.Compare(a.Key, b.Key)
	})
}
