package chordbook

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Cache is the typed view of a RecordStore: the device's mirror of the
// server's playbooks and songs, including records that exist only locally.
type Cache struct {
	records RecordStore
	logger  Logger
}

func NewCache(records RecordStore, logger Logger) *Cache {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Cache{records: records, logger: logger}
}

func (c *Cache) Playbook(ctx context.Context, id EntityID) (*Playbook, error) {
	return load[Playbook](ctx, c, KindPlaybook, id)
}

// Playbooks returns every cached playbook of every owner, tombstones included.
// Undecodable records are logged and skipped.
func (c *Cache) Playbooks(ctx context.Context) ([]*Playbook, error) {
	return loadAll[Playbook](ctx, c, KindPlaybook)
}

func (c *Cache) PutPlaybook(ctx context.Context, pb *Playbook) error {
	return save(ctx, c, KindPlaybook, pb)
}

func (c *Cache) RemovePlaybook(ctx context.Context, id EntityID) error {
	return c.remove(ctx, KindPlaybook, id)
}

// MigratePlaybook replaces the record stored under the local id from with pb,
// which must carry a server id.
func (c *Cache) MigratePlaybook(ctx context.Context, from EntityID, pb *Playbook) error {
	return migrate(ctx, c, KindPlaybook, from, pb)
}

func (c *Cache) Song(ctx context.Context, id EntityID) (*Song, error) {
	return load[Song](ctx, c, KindSong, id)
}

// Songs returns every cached song of every owner, tombstones included.
func (c *Cache) Songs(ctx context.Context) ([]*Song, error) {
	return loadAll[Song](ctx, c, KindSong)
}

func (c *Cache) PutSong(ctx context.Context, s *Song) error {
	return save(ctx, c, KindSong, s)
}

func (c *Cache) RemoveSong(ctx context.Context, id EntityID) error {
	return c.remove(ctx, KindSong, id)
}

func (c *Cache) MigrateSong(ctx context.Context, from EntityID, s *Song) error {
	return migrate(ctx, c, KindSong, from, s)
}

func (c *Cache) exists(ctx context.Context, kind Kind, id EntityID) (bool, error) {
	data, err := c.records.Get(ctx, kind.Key(id))
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", kind.Key(id), err)
	}
	return data != nil, nil
}

func (c *Cache) remove(ctx context.Context, kind Kind, id EntityID) error {
	if err := c.records.Delete(ctx, kind.Key(id)); err != nil {
		return fmt.Errorf("removing %s: %w", kind.Key(id), err)
	}
	return nil
}

// load returns nil, nil for absent keys. A record that fails to decode is
// logged and treated as absent.
func load[T any, P interface {
	*T
	document
}](ctx context.Context, c *Cache, kind Kind, id EntityID) (P, error) {
	key := kind.Key(id)
	data, err := c.records.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if data == nil {
		return nil, nil
	}
	rec, err := decode[T, P](kind, key, data)
	if err != nil {
		c.logger.Warn("ignoring unreadable record", "key", key, "error", err)
		return nil, nil
	}
	return rec, nil
}

func loadAll[T any, P interface {
	*T
	document
}](ctx context.Context, c *Cache, kind Kind) ([]P, error) {
	records, err := c.records.List(ctx, kind.Prefix())
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", kind, err)
	}

	out := make([]P, 0, len(records))
	for _, r := range records {
		rec, err := decode[T, P](kind, r.Key, r.Value)
		if err != nil {
			c.logger.Warn("skipping unreadable record", "key", r.Key, "error", err)
			continue
		}
		out = append(out, rec)
	}

	slices.SortStableFunc(out, func(a, b P) int {
		if n := a.meta().CreatedAt.Compare(b.meta().CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.meta().ID.String(), b.meta().ID.String())
	})
	return out, nil
}

func decode[T any, P interface {
	*T
	document
}](kind Kind, key string, data []byte) (P, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &CorruptRecordError{Key: key, Err: err}
	}
	rec := P(&v)
	// The key is authoritative for the id.
	keyID := ParseEntityID(strings.TrimPrefix(key, kind.Prefix()))
	if keyID.IsZero() {
		return nil, &CorruptRecordError{Key: key, Err: fmt.Errorf("key carries no id")}
	}
	rec.meta().ID = keyID
	return rec, nil
}

func save[P document](ctx context.Context, c *Cache, kind Kind, rec P) error {
	id := rec.meta().ID
	if id.IsZero() {
		return fmt.Errorf("saving %s: entity has no id", kind)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind.Key(id), err)
	}
	if err := c.records.Set(ctx, kind.Key(id), data); err != nil {
		return fmt.Errorf("writing %s: %w", kind.Key(id), err)
	}
	return nil
}

func migrate[P document](ctx context.Context, c *Cache, kind Kind, from EntityID, rec P) error {
	to := rec.meta().ID
	if err := migrationTarget(from, to); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind.Key(to), err)
	}
	if err := c.records.Replace(ctx, kind.Key(from), kind.Key(to), data); err != nil {
		return fmt.Errorf("migrating %s to %s: %w", kind.Key(from), kind.Key(to), err)
	}
	return nil
}
