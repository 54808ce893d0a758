package chordbook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// CreatePlaybook creates a playbook on the server when reachable. Otherwise,
// or if the server call fails, it is stored under a fresh local id and left
// for replay.
func (e *Engine) CreatePlaybook(ctx context.Context, userID string, in PlaybookInput) (*Playbook, error) {
	songs, err := e.storedSongRefs(ctx, in.Songs)
	if err != nil {
		return nil, err
	}
	if songs == nil {
		songs = []SongRef{}
	}
	now := e.clock.Now().UTC()
	pb := &Playbook{
		Entity:      Entity{OwnerID: userID, CreatedAt: now, UpdatedAt: now},
		Name:        in.Name,
		Description: in.Description,
		Songs:       songs,
	}
	if err := ValidatePlaybook(pb); err != nil {
		return nil, err
	}
	return create(ctx, e, KindPlaybook, pb, e.remote.CreatePlaybook)
}

// UpdatePlaybook applies patch to a playbook. See UpdateSong.
func (e *Engine) UpdatePlaybook(ctx context.Context, id EntityID, patch PlaybookPatch) (*Playbook, error) {
	if patch.Songs != nil {
		songs, err := e.storedSongRefs(ctx, *patch.Songs)
		if err != nil {
			return nil, err
		}
		patch.Songs = &songs
	}
	return update[Playbook](ctx, e, KindPlaybook, id, patch, PlaybookPatchOf, ValidatePlaybook, e.remote.UpdatePlaybook)
}

// DeletePlaybook deletes a playbook on the server, or marks it for deletion
// when that is not possible right now.
func (e *Engine) DeletePlaybook(ctx context.Context, id EntityID) error {
	return remove[Playbook](ctx, e, KindPlaybook, id, e.remote.DeletePlaybook)
}

// CreateSong creates a song, online or under a local id.
func (e *Engine) CreateSong(ctx context.Context, userID string, in SongInput) (*Song, error) {
	now := e.clock.Now().UTC()
	s := &Song{
		Entity:   Entity{OwnerID: userID, CreatedAt: now, UpdatedAt: now},
		Title:    in.Title,
		Key:      in.Key,
		Sections: e.withSectionIDs(in.Sections),
	}
	if err := ValidateSong(s); err != nil {
		return nil, err
	}
	return create(ctx, e, KindSong, s, e.remote.CreateSong)
}

// UpdateSong merges patch into the song. Online with a server id, the patch
// goes to the server and its answer is cached as synced. Otherwise the merge
// happens locally and the song becomes pending, or error when the server
// rejected the change. Unknown ids yield ErrNotFound.
func (e *Engine) UpdateSong(ctx context.Context, id EntityID, patch SongPatch) (*Song, error) {
	if patch.Sections != nil {
		sections := e.withSectionIDs(*patch.Sections)
		patch.Sections = &sections
	}
	return update[Song](ctx, e, KindSong, id, patch, SongPatchOf, ValidateSong, e.remote.UpdateSong)
}

// DeleteSong deletes a song. Playbooks that reference it keep the bare id.
func (e *Engine) DeleteSong(ctx context.Context, id EntityID) error {
	return remove[Song](ctx, e, KindSong, id, e.remote.DeleteSong)
}

func (e *Engine) withSectionIDs(sections []Section) []Section {
	if sections == nil {
		return []Section{}
	}
	out := make([]Section, len(sections))
	for i, sec := range sections {
		if sec.ID == "" {
			sec.ID = e.idgen.New()
		}
		lines := make([]Line, len(sec.Lines))
		for j, ln := range sec.Lines {
			if ln.ID == "" {
				ln.ID = e.idgen.New()
			}
			lines[j] = ln
		}
		sec.Lines = lines
		out[i] = sec
	}
	return out
}

func create[P document](ctx context.Context, e *Engine, kind Kind, rec P, push func(context.Context, P) (P, error)) (P, error) {
	var zero P
	status := StatusPending

	if e.conn.CheckNow(ctx) {
		created, err := push(ctx, rec)
		if err == nil {
			m := created.meta()
			m.SyncStatus = StatusSynced
			if m.OwnerID == "" {
				m.OwnerID = rec.meta().OwnerID
			}
			if err := save(ctx, e.cache, kind, created); err != nil {
				return zero, err
			}
			return created, nil
		}
		e.logger.Warn("server create failed, storing locally", "kind", string(kind), "error", err)
		status = failureStatus(err)
	}

	rec.meta().SyncStatus = status
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.putLocalLocked(ctx, kind, rec); err != nil {
		return zero, err
	}
	return rec, nil
}

// putLocalLocked stores rec under local_<unix millis>, moving to the next
// millisecond while the id is taken. e.mu must be held.
func (e *Engine) putLocalLocked(ctx context.Context, kind Kind, rec document) error {
	token := e.clock.Now().UnixMilli()
	for {
		id := LocalID(strconv.FormatInt(token, 10))
		taken, err := e.cache.exists(ctx, kind, id)
		if err != nil {
			return err
		}
		if !taken {
			rec.meta().ID = id
			return save(ctx, e.cache, kind, rec)
		}
		token++
	}
}

type patcher[P any] interface {
	apply(P)
}

func update[T any, P interface {
	*T
	document
}, X patcher[P]](
	ctx context.Context,
	e *Engine,
	kind Kind,
	id EntityID,
	patch X,
	whole func(P) X,
	validate func(P) error,
	push func(context.Context, string, X) (P, error),
) (P, error) {
	cached, err := load[T, P](ctx, e.cache, kind, id)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.meta().MarkedForDeletion {
		return nil, notFound(kind, id)
	}

	send := patch
	if cached != nil {
		// Unacknowledged earlier edits go out with this one.
		dirty := cached.meta().NeedsSync()
		patch.apply(cached)
		if err := validate(cached); err != nil {
			return nil, err
		}
		if dirty {
			send = whole(cached)
		}
	}

	status := StatusPending
	if remoteID, ok := id.Remote(); ok && e.conn.CheckNow(ctx) {
		updated, err := push(ctx, remoteID, send)
		if err == nil {
			m := updated.meta()
			m.SyncStatus = StatusSynced
			if m.OwnerID == "" && cached != nil {
				m.OwnerID = cached.meta().OwnerID
			}
			if err := save(ctx, e.cache, kind, updated); err != nil {
				return nil, err
			}
			return updated, nil
		}
		e.logger.Warn("server update failed", "key", kind.Key(id), "error", err)
		status = failureStatus(err)
	}

	if cached == nil {
		return nil, notFound(kind, id)
	}
	m := cached.meta()
	m.SyncStatus = status
	m.UpdatedAt = e.clock.Now().UTC()
	if err := save(ctx, e.cache, kind, cached); err != nil {
		return nil, err
	}
	return cached, nil
}

func remove[T any, P interface {
	*T
	document
}](ctx context.Context, e *Engine, kind Kind, id EntityID, push func(context.Context, string) error) error {
	cached, err := load[T, P](ctx, e.cache, kind, id)
	if err != nil {
		return err
	}
	if cached != nil && cached.meta().MarkedForDeletion {
		return notFound(kind, id)
	}

	if e.conn.CheckNow(ctx) {
		remoteID, isRemote := id.Remote()
		switch {
		case isRemote:
			err := push(ctx, remoteID)
			switch {
			case err == nil, errors.Is(err, ErrNotFound) && cached != nil:
				return e.cache.remove(ctx, kind, id)
			case errors.Is(err, ErrNotFound):
				return notFound(kind, id)
			case cached == nil:
				return fmt.Errorf("deleting %s: %w", kind.Key(id), err)
			}
			e.logger.Warn("server delete failed, deferring", "key", kind.Key(id), "error", err)
		case cached != nil:
			// Never reached the server.
			return e.cache.remove(ctx, kind, id)
		}
	}

	if cached == nil {
		return notFound(kind, id)
	}
	m := cached.meta()
	m.MarkedForDeletion = true
	m.SyncStatus = StatusPending
	m.UpdatedAt = e.clock.Now().UTC()
	return save(ctx, e.cache, kind, cached)
}
