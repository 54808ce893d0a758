package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"chordbook/internal/chordbook"
)

// The server names ids "_id" and knows nothing of sync status or deletion
// marks. These types are the request and response bodies.

type wirePlaybook struct {
	ID          string        `json:"_id,omitempty"`
	OwnerID     string        `json:"ownerId,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Songs       []wireSongRef `json:"songs"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

type wireSong struct {
	ID        string              `json:"_id,omitempty"`
	OwnerID   string              `json:"ownerId,omitempty"`
	Title     string              `json:"title"`
	Key       string              `json:"key,omitempty"`
	Sections  []chordbook.Section `json:"sections"`
	CreatedAt *time.Time          `json:"createdAt,omitempty"`
	UpdatedAt *time.Time          `json:"updatedAt,omitempty"`
}

// wireSongRef is a bare id string or an embedded song object.
type wireSongRef struct {
	id   string
	song *wireSong
}

func (r wireSongRef) MarshalJSON() ([]byte, error) {
	if r.song != nil {
		return json.Marshal(r.song)
	}
	return json.Marshal(r.id)
}

func (r *wireSongRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var s wireSong
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.song = &s
		return nil
	}
	if err := json.Unmarshal(data, &r.id); err != nil {
		return fmt.Errorf("song reference must be a string or object: %w", err)
	}
	return nil
}

type wirePlaybookPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Songs       *[]wireSongRef `json:"songs,omitempty"`
}

type wireSongPatch struct {
	Title    *string               `json:"title,omitempty"`
	Key      *string               `json:"key,omitempty"`
	Sections *[]chordbook.Section `json:"sections,omitempty"`
}

// serverID drops local ids: the server assigns its own.
func serverID(id chordbook.EntityID) string {
	s, _ := id.Remote()
	return s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func orZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func toWirePlaybook(pb *chordbook.Playbook) wirePlaybook {
	return wirePlaybook{
		ID:          serverID(pb.ID),
		OwnerID:     pb.OwnerID,
		Name:        pb.Name,
		Description: pb.Description,
		Songs:       toWireRefs(pb.Songs),
		CreatedAt:   timePtr(pb.CreatedAt),
		UpdatedAt:   timePtr(pb.UpdatedAt),
	}
}

func toWireSong(s *chordbook.Song) wireSong {
	sections := s.Sections
	if sections == nil {
		sections = []chordbook.Section{}
	}
	return wireSong{
		ID:        serverID(s.ID),
		OwnerID:   s.OwnerID,
		Title:     s.Title,
		Key:       s.Key,
		Sections:  sections,
		CreatedAt: timePtr(s.CreatedAt),
		UpdatedAt: timePtr(s.UpdatedAt),
	}
}

func toWireRefs(refs []chordbook.SongRef) []wireSongRef {
	out := make([]wireSongRef, len(refs))
	for i, ref := range refs {
		if s, ok := ref.Song(); ok {
			ws := toWireSong(s)
			out[i] = wireSongRef{song: &ws}
			continue
		}
		out[i] = wireSongRef{id: ref.ID().String()}
	}
	return out
}

func toWirePlaybookPatch(p chordbook.PlaybookPatch) wirePlaybookPatch {
	w := wirePlaybookPatch{Name: p.Name, Description: p.Description}
	if p.Songs != nil {
		refs := toWireRefs(*p.Songs)
		w.Songs = &refs
	}
	return w
}

func toWireSongPatch(p chordbook.SongPatch) wireSongPatch {
	return wireSongPatch{Title: p.Title, Key: p.Key, Sections: p.Sections}
}

func fromWirePlaybook(w wirePlaybook) (*chordbook.Playbook, error) {
	if w.ID == "" {
		return nil, fmt.Errorf("playbook without _id")
	}
	songs := make([]chordbook.SongRef, len(w.Songs))
	for i, ref := range w.Songs {
		if ref.song != nil {
			s := fromWireSongLoose(*ref.song)
			songs[i] = chordbook.Embedded(s)
			continue
		}
		songs[i] = chordbook.RefID(chordbook.ParseEntityID(ref.id))
	}
	return &chordbook.Playbook{
		Entity:      fromWireEntity(w.ID, w.OwnerID, w.CreatedAt, w.UpdatedAt),
		Name:        w.Name,
		Description: w.Description,
		Songs:       songs,
	}, nil
}

func fromWireSong(w wireSong) (*chordbook.Song, error) {
	if w.ID == "" {
		return nil, fmt.Errorf("song without _id")
	}
	return fromWireSongLoose(w), nil
}

// fromWireSongLoose accepts embedded songs, which may lack an id.
func fromWireSongLoose(w wireSong) *chordbook.Song {
	sections := w.Sections
	if sections == nil {
		sections = []chordbook.Section{}
	}
	s := &chordbook.Song{
		Entity:   fromWireEntity(w.ID, w.OwnerID, w.CreatedAt, w.UpdatedAt),
		Title:    w.Title,
		Key:      w.Key,
		Sections: sections,
	}
	if w.ID == "" {
		s.ID = chordbook.EntityID{}
	}
	return s
}

func fromWireEntity(id, owner string, created, updated *time.Time) chordbook.Entity {
	return chordbook.Entity{
		ID:         chordbook.RemoteID(id),
		OwnerID:    owner,
		SyncStatus: chordbook.StatusSynced,
		CreatedAt:  orZero(created).UTC(),
		UpdatedAt:  orZero(updated).UTC(),
	}
}
