package chordbook

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultPlaybookName is the playbook synthesized for a user who has none
// while offline.
const DefaultPlaybookName = "My Songs"

// Engine decides, per call, whether to serve and mutate the server or the
// local cache. Every read and write works offline; offline writes are left
// for the Replayer.
type Engine struct {
	cache  *Cache
	remote Gateway
	conn   Connectivity
	logger Logger
	clock  Clock
	idgen  IDGenerator

	// mu serializes local id allocation and default playbook creation.
	mu sync.Mutex
}

// NewEngine creates an Engine. logger, clock and idgen may be nil.
func NewEngine(cache *Cache, remote Gateway, conn Connectivity, logger Logger, clock Clock, idgen IDGenerator) *Engine {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &Engine{
		cache:  cache,
		remote: remote,
		conn:   conn,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Playbooks returns the user's playbooks with song references resolved
// against the cached songs.
//
// Online, the server list replaces the user's cached playbooks. Offline, or
// when the server call fails, the cache is served; if the user has no
// playbooks there, a single default playbook is created and persisted.
func (e *Engine) Playbooks(ctx context.Context, userID string) ([]*Playbook, error) {
	playbooks, fromServer, err := readAll[Playbook](ctx, e, KindPlaybook, userID, e.remote.ListPlaybooks)
	if err != nil {
		return nil, err
	}
	if !fromServer && len(playbooks) == 0 {
		def, err := e.ensureDefaultPlaybook(ctx, userID)
		if err != nil {
			return nil, err
		}
		playbooks = []*Playbook{def}
	}

	idx, err := e.songIndex(ctx)
	if err != nil {
		return nil, err
	}
	for _, pb := range playbooks {
		resolveSongs(pb, idx)
	}
	return playbooks, nil
}

// Songs returns the user's songs, from the server when reachable and from
// the cache otherwise.
func (e *Engine) Songs(ctx context.Context, userID string) ([]*Song, error) {
	songs, _, err := readAll[Song](ctx, e, KindSong, userID, e.remote.ListSongs)
	return songs, err
}

// Playbook returns one playbook, or nil when it is known neither locally nor
// to the server.
func (e *Engine) Playbook(ctx context.Context, id EntityID) (*Playbook, error) {
	pb, err := readOne[Playbook](ctx, e, KindPlaybook, id, e.remote.GetPlaybook)
	if err != nil || pb == nil {
		return nil, err
	}
	idx, err := e.songIndex(ctx)
	if err != nil {
		return nil, err
	}
	resolveSongs(pb, idx)
	return pb, nil
}

// Song returns one song, or nil when it is unknown.
func (e *Engine) Song(ctx context.Context, id EntityID) (*Song, error) {
	return readOne[Song](ctx, e, KindSong, id, e.remote.GetSong)
}

// PendingChange describes one cached record the server has not acknowledged.
type PendingChange struct {
	Kind      Kind
	ID        EntityID
	OwnerID   string
	Label     string
	Status    SyncStatus
	Deleted   bool
	UpdatedAt time.Time
}

// Unsynced lists every record that is not synced or is awaiting deletion,
// playbooks first.
func (e *Engine) Unsynced(ctx context.Context) ([]PendingChange, error) {
	var out []PendingChange

	playbooks, err := e.cache.Playbooks(ctx)
	if err != nil {
		return nil, err
	}
	for _, pb := range playbooks {
		if pb.NeedsSync() {
			out = append(out, pendingChange(KindPlaybook, &pb.Entity, pb.Name))
		}
	}

	songs, err := e.cache.Songs(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range songs {
		if s.NeedsSync() {
			out = append(out, pendingChange(KindSong, &s.Entity, s.Title))
		}
	}
	return out, nil
}

func pendingChange(kind Kind, m *Entity, label string) PendingChange {
	return PendingChange{
		Kind:      kind,
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Label:     label,
		Status:    m.SyncStatus,
		Deleted:   m.MarkedForDeletion,
		UpdatedAt: m.UpdatedAt,
	}
}

func (e *Engine) ensureDefaultPlaybook(ctx context.Context, userID string) (*Playbook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Another caller may have created it while we waited.
	cached, err := loadAll[Playbook](ctx, e.cache, KindPlaybook)
	if err != nil {
		return nil, err
	}
	if existing := live(cached, userID); len(existing) > 0 {
		return existing[0], nil
	}

	now := e.clock.Now().UTC()
	pb := &Playbook{
		Entity: Entity{
			OwnerID:    userID,
			SyncStatus: StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Name:  DefaultPlaybookName,
		Songs: []SongRef{},
	}
	if err := e.putLocalLocked(ctx, KindPlaybook, pb); err != nil {
		return nil, err
	}
	e.logger.Info("created default playbook", "user", userID, "id", pb.ID.String())
	return pb, nil
}

func readAll[T any, P interface {
	*T
	document
}](ctx context.Context, e *Engine, kind Kind, userID string, list func(context.Context, string) ([]P, error)) ([]P, bool, error) {
	if e.conn.CheckNow(ctx) {
		fresh, err := list(ctx, userID)
		if err == nil {
			recs, err := refresh[T, P](ctx, e.cache, kind, userID, fresh)
			return recs, true, err
		}
		e.logger.Warn("server list failed, serving cache", "kind", string(kind), "user", userID, "error", err)
	}

	cached, err := loadAll[T, P](ctx, e.cache, kind)
	if err != nil {
		return nil, false, err
	}
	return live(cached, userID), false, nil
}

// refresh replaces the owner's cached collection with the server's list.
// Synced records the server no longer has are dropped. Records carrying
// unacknowledged local work are kept and win over the server copy; local
// creations are appended to the result, tombstones are left out.
func refresh[T any, P interface {
	*T
	document
}](ctx context.Context, c *Cache, kind Kind, owner string, fresh []P) ([]P, error) {
	cached, err := loadAll[T, P](ctx, c, kind)
	if err != nil {
		return nil, err
	}

	onServer := make(map[EntityID]bool, len(fresh))
	for _, rec := range fresh {
		onServer[rec.meta().ID] = true
	}

	dirty := make(map[EntityID]P)
	var dirtyOrder []EntityID
	for _, rec := range cached {
		m := rec.meta()
		if m.OwnerID != owner {
			continue
		}
		if m.NeedsSync() {
			dirty[m.ID] = rec
			dirtyOrder = append(dirtyOrder, m.ID)
			continue
		}
		if !onServer[m.ID] {
			if err := c.remove(ctx, kind, m.ID); err != nil {
				return nil, err
			}
		}
	}

	out := make([]P, 0, len(fresh)+len(dirty))
	for _, rec := range fresh {
		m := rec.meta()
		if mine, ok := dirty[m.ID]; ok {
			delete(dirty, m.ID)
			if !mine.meta().MarkedForDeletion {
				out = append(out, mine)
			}
			continue
		}
		m.SyncStatus = StatusSynced
		m.MarkedForDeletion = false
		if m.OwnerID == "" {
			m.OwnerID = owner
		}
		if err := save(ctx, c, kind, rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	for _, id := range dirtyOrder {
		if rec, ok := dirty[id]; ok && !rec.meta().MarkedForDeletion {
			out = append(out, rec)
		}
	}
	return out, nil
}

func readOne[T any, P interface {
	*T
	document
}](ctx context.Context, e *Engine, kind Kind, id EntityID, get func(context.Context, string) (P, error)) (P, error) {
	cached, err := load[T, P](ctx, e.cache, kind, id)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.meta().NeedsSync() {
		if cached.meta().MarkedForDeletion {
			return nil, nil
		}
		return cached, nil
	}

	if remoteID, ok := id.Remote(); ok && e.conn.CheckNow(ctx) {
		rec, err := get(ctx, remoteID)
		switch {
		case err == nil:
			m := rec.meta()
			m.SyncStatus = StatusSynced
			if m.OwnerID == "" && cached != nil {
				m.OwnerID = cached.meta().OwnerID
			}
			if err := save(ctx, e.cache, kind, rec); err != nil {
				return nil, err
			}
			return rec, nil
		case errors.Is(err, ErrNotFound):
			if cached != nil {
				if err := e.cache.remove(ctx, kind, id); err != nil {
					return nil, err
				}
			}
			return nil, nil
		default:
			e.logger.Warn("server read failed, serving cache", "key", kind.Key(id), "error", err)
		}
	}
	return cached, nil
}

// live keeps the owner's records that are not awaiting deletion.
func live[P document](recs []P, owner string) []P {
	out := make([]P, 0, len(recs))
	for _, rec := range recs {
		m := rec.meta()
		if m.OwnerID == owner && !m.MarkedForDeletion {
			out = append(out, rec)
		}
	}
	return out
}
