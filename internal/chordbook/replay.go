package chordbook

import (
	"context"
	"sync"
)

// Replayer pushes the cache's unacknowledged work to the server: deletions,
// local creations and local edits. A run scans the whole cache, playbooks
// before songs, and every record is handled on its own; a failure leaves that
// record as it was for the next run.
type Replayer struct {
	cache  *Cache
	remote Gateway
	conn   Connectivity
	logger Logger

	// mu allows one run at a time.
	mu sync.Mutex
}

func NewReplayer(cache *Cache, remote Gateway, conn Connectivity, logger Logger) *Replayer {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Replayer{cache: cache, remote: remote, conn: conn, logger: logger}
}

type replayStats struct {
	created, updated, deleted, failed int
}

// Run performs one replay. It does nothing when offline and never fails;
// problems are logged and the affected records are retried next time.
func (r *Replayer) Run(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.conn.CheckNow(ctx) {
		r.logger.Info("replay skipped, offline")
		return
	}

	var stats replayStats
	playbookOps := r.playbookOps()

	playbooks, err := r.cache.Playbooks(ctx)
	if err != nil {
		r.logger.Error("replay: listing playbooks", "error", err)
	} else {
		replayRecords(ctx, r, KindPlaybook, playbooks, playbookOps, &stats)
	}

	songs, err := r.cache.Songs(ctx)
	if err != nil {
		r.logger.Error("replay: listing songs", "error", err)
	} else {
		migrated := replayRecords(ctx, r, KindSong, songs, r.songOps(), &stats)
		if len(migrated) > 0 {
			if relinked := r.relinkPlaybooks(ctx, migrated); len(relinked) > 0 {
				replayRecords(ctx, r, KindPlaybook, relinked, playbookOps, &stats)
			}
		}
	}

	r.logger.Info("replay finished",
		"created", stats.created,
		"updated", stats.updated,
		"deleted", stats.deleted,
		"failed", stats.failed,
	)
}

// Watch runs a replay after every transition to online until stop is
// called. Transitions that arrive during a run are coalesced into one
// follow-up run.
func (r *Replayer) Watch(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	trigger := make(chan struct{}, 1)
	unsubscribe := r.conn.Subscribe(func(online bool) {
		if !online {
			return
		}
		select {
		case trigger <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				r.Run(ctx)
			}
		}
	}()

	return func() {
		unsubscribe()
		cancel()
		<-done
	}
}

type remoteOps[P document] struct {
	create func(context.Context, P) (P, error)
	update func(context.Context, string, P) (P, error)
	delete func(context.Context, string) error
}

func (r *Replayer) playbookOps() remoteOps[*Playbook] {
	return remoteOps[*Playbook]{
		create: r.remote.CreatePlaybook,
		update: func(ctx context.Context, id string, pb *Playbook) (*Playbook, error) {
			return r.remote.UpdatePlaybook(ctx, id, PlaybookPatchOf(pb))
		},
		delete: r.remote.DeletePlaybook,
	}
}

func (r *Replayer) songOps() remoteOps[*Song] {
	return remoteOps[*Song]{
		create: r.remote.CreateSong,
		update: func(ctx context.Context, id string, s *Song) (*Song, error) {
			return r.remote.UpdateSong(ctx, id, SongPatchOf(s))
		},
		delete: r.remote.DeleteSong,
	}
}

// replayRecords returns the local ids that were migrated to server ids.
func replayRecords[P document](ctx context.Context, r *Replayer, kind Kind, recs []P, ops remoteOps[P], stats *replayStats) map[EntityID]EntityID {
	migrated := make(map[EntityID]EntityID)
	for _, rec := range recs {
		if ctx.Err() != nil {
			r.logger.Warn("replay interrupted", "kind", string(kind), "error", ctx.Err())
			return migrated
		}

		m := rec.meta()
		key := kind.Key(m.ID)
		switch {
		case m.MarkedForDeletion:
			// One attempt per run; the local copy goes either way.
			if remoteID, ok := m.ID.Remote(); ok {
				if err := ops.delete(ctx, remoteID); err != nil {
					r.logger.Warn("replay: remote delete failed, dropping local copy", "key", key, "error", err)
				}
			}
			if err := r.cache.remove(ctx, kind, m.ID); err != nil {
				r.logger.Error("replay: removing deleted record", "key", key, "error", err)
				stats.failed++
				continue
			}
			stats.deleted++

		case m.SyncStatus == StatusSynced:
			// nothing to push

		case m.ID.IsLocal():
			created, err := ops.create(ctx, rec)
			if err != nil {
				r.logger.Warn("replay: create failed", "key", key, "error", err)
				stats.failed++
				continue
			}
			cm := created.meta()
			cm.SyncStatus = StatusSynced
			if cm.OwnerID == "" {
				cm.OwnerID = m.OwnerID
			}
			if err := migrate(ctx, r.cache, kind, m.ID, created); err != nil {
				r.logger.Error("replay: migrating id", "key", key, "error", err)
				stats.failed++
				continue
			}
			r.logger.Debug("replay: created", "key", key, "id", cm.ID.String())
			migrated[m.ID] = cm.ID
			stats.created++

		default:
			remoteID, _ := m.ID.Remote()
			updated, err := ops.update(ctx, remoteID, rec)
			if err != nil {
				r.logger.Warn("replay: update failed", "key", key, "error", err)
				stats.failed++
				continue
			}
			um := updated.meta()
			um.SyncStatus = StatusSynced
			if um.OwnerID == "" {
				um.OwnerID = m.OwnerID
			}
			if err := save(ctx, r.cache, kind, updated); err != nil {
				r.logger.Error("replay: storing update", "key", key, "error", err)
				stats.failed++
				continue
			}
			stats.updated++
		}
	}
	return migrated
}

// relinkPlaybooks points cached playbooks at the server ids of migrated
// songs and returns the ones that changed, now pending.
func (r *Replayer) relinkPlaybooks(ctx context.Context, migrated map[EntityID]EntityID) []*Playbook {
	playbooks, err := r.cache.Playbooks(ctx)
	if err != nil {
		r.logger.Error("replay: listing playbooks for relink", "error", err)
		return nil
	}

	var changed []*Playbook
	for _, pb := range playbooks {
		if pb.MarkedForDeletion || !relinkSongs(pb, migrated) {
			continue
		}
		pb.SyncStatus = StatusPending
		if err := r.cache.PutPlaybook(ctx, pb); err != nil {
			r.logger.Error("replay: relinking playbook", "key", KindPlaybook.Key(pb.ID), "error", err)
			continue
		}
		changed = append(changed, pb)
	}
	return changed
}
