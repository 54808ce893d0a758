package chordbook

import "context"

// songIndex maps the id of every cached song that is not awaiting deletion.
func (e *Engine) songIndex(ctx context.Context) (map[EntityID]*Song, error) {
	songs, err := e.cache.Songs(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[EntityID]*Song, len(songs))
	for _, s := range songs {
		if !s.MarkedForDeletion {
			idx[s.ID] = s
		}
	}
	return idx, nil
}

// resolveSongs replaces bare ids with the cached song. Ids with no cached
// song stay as they are, in place.
func resolveSongs(pb *Playbook, idx map[EntityID]*Song) {
	for i, ref := range pb.Songs {
		id, ok := ref.Ref()
		if !ok {
			continue
		}
		if s, ok := idx[id]; ok {
			pb.Songs[i] = Embedded(s)
		}
	}
}

// storedSongRefs turns embedded songs that also live in the song collection
// back into bare ids, so a resolved playbook can be written back unchanged.
// Embedded songs with no cached counterpart are kept embedded.
func (e *Engine) storedSongRefs(ctx context.Context, refs []SongRef) ([]SongRef, error) {
	if len(refs) == 0 {
		return refs, nil
	}
	idx, err := e.songIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SongRef, len(refs))
	for i, ref := range refs {
		if s, ok := ref.Song(); ok && !s.ID.IsZero() {
			if _, cached := idx[s.ID]; cached {
				out[i] = RefID(s.ID)
				continue
			}
		}
		out[i] = ref
	}
	return out, nil
}

// relinkSongs rewrites bare or embedded references to migrated song ids.
// It reports whether anything changed.
func relinkSongs(pb *Playbook, migrated map[EntityID]EntityID) bool {
	changed := false
	for i, ref := range pb.Songs {
		if to, ok := migrated[ref.ID()]; ok {
			pb.Songs[i] = RefID(to)
			changed = true
		}
	}
	return changed
}
