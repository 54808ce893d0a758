package chordbook

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SongRef is one entry of a playbook's song list: either a bare id or an
// embedded song. Reads resolve bare ids against the cached songs; ids that
// cannot be resolved stay bare.
type SongRef struct {
	id   EntityID
	song *Song
}

// RefID references a song by id.
func RefID(id EntityID) SongRef { return SongRef{id: id} }

// Embedded wraps a full song object.
func Embedded(song *Song) SongRef { return SongRef{song: song} }

// ID returns the referenced song's id; for an embedded song, its own id.
func (r SongRef) ID() EntityID {
	if r.song != nil {
		return r.song.ID
	}
	return r.id
}

// Ref returns the id when r is a bare reference.
func (r SongRef) Ref() (EntityID, bool) {
	if r.song != nil {
		return EntityID{}, false
	}
	return r.id, true
}

// Song returns the embedded song, if any.
func (r SongRef) Song() (*Song, bool) {
	return r.song, r.song != nil
}

func (r SongRef) MarshalJSON() ([]byte, error) {
	if r.song != nil {
		return json.Marshal(r.song)
	}
	return json.Marshal(r.id)
}

func (r *SongRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty song reference")
	}
	switch data[0] {
	case '"':
		var id EntityID
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decoding song id: %w", err)
		}
		*r = RefID(id)
	case '{':
		var s Song
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding embedded song: %w", err)
		}
		*r = Embedded(&s)
	default:
		return fmt.Errorf("song reference must be a string or object, got %s", data)
	}
	return nil
}
