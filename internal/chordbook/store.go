package chordbook

import "context"

// Kind names an entity collection. It is the key prefix in the record store
// and the resource name on the server.
type Kind string

const (
	KindPlaybook Kind = "playbook"
	KindSong     Kind = "song"
)

// Prefix returns the record-store key prefix for the collection.
func (k Kind) Prefix() string { return string(k) + ":" }

// Key returns the record-store key of one entity.
func (k Kind) Key(id EntityID) string { return k.Prefix() + id.String() }

// Record is a raw key/value pair held by a RecordStore.
type Record struct {
	Key   string
	Value []byte
}

// RecordStore is durable key/value storage for cached entities. Keys are
// "<kind>:<id>" and values are JSON documents. Implementations must be safe
// for concurrent use.
type RecordStore interface {
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
	// List returns every record whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Record, error)
	// Replace writes value under newKey and removes oldKey as one operation.
	Replace(ctx context.Context, oldKey, newKey string, value []byte) error
	Close() error
}
