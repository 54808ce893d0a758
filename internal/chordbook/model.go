package chordbook

import (
	"time"
)

// SyncStatus records whether a cached entity matches the server.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSynced  SyncStatus = "synced"
	StatusError   SyncStatus = "error"
)

// Entity holds the fields shared by playbooks and songs. SyncStatus and
// MarkedForDeletion exist only on the device and are never sent to the server.
type Entity struct {
	ID                EntityID   `json:"id"`
	OwnerID           string     `json:"ownerId" validate:"required"`
	SyncStatus        SyncStatus `json:"syncStatus,omitempty"`
	MarkedForDeletion bool       `json:"markedForDeletion,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (e *Entity) meta() *Entity { return e }

// NeedsSync reports whether the entity carries local work the server has not
// acknowledged.
func (e *Entity) NeedsSync() bool {
	return e.MarkedForDeletion || e.SyncStatus != StatusSynced
}

// document is implemented by *Playbook and *Song through the embedded Entity.
type document interface {
	meta() *Entity
}

// Playbook is a named, ordered collection of songs.
type Playbook struct {
	Entity
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	Songs       []SongRef `json:"songs"`
}

// Song is a chord chart: ordered sections of ordered lines of chords.
type Song struct {
	Entity
	Title    string    `json:"title" validate:"required,max=200"`
	Key      string    `json:"key,omitempty" validate:"max=8"`
	Sections []Section `json:"sections" validate:"dive"`
}

type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"max=100"`
	Lines []Line `json:"lines" validate:"dive"`
}

type Line struct {
	ID     string  `json:"id"`
	Chords []Chord `json:"chords" validate:"dive"`
}

// Chord is a single chord symbol. Timing is the number of beats it is held,
// nil when unspecified.
type Chord struct {
	Root     string `json:"root" validate:"required,chordroot"`
	Quality  string `json:"quality" validate:"required,oneof=maj min dim aug sus2 sus4"`
	Interval string `json:"interval,omitempty" validate:"omitempty,oneof=none 7 maj7 6 9 11 13 add9 add11"`
	Timing   *int   `json:"timing,omitempty" validate:"omitempty,min=1"`
	Bass     string `json:"bass,omitempty" validate:"omitempty,chordroot"`
}

// PlaybookInput carries the caller-supplied fields of a new playbook.
type PlaybookInput struct {
	Name        string
	Description string
	Songs       []SongRef
}

// SongInput carries the caller-supplied fields of a new song.
type SongInput struct {
	Title    string
	Key      string
	Sections []Section
}

// PlaybookPatch is a shallow update: every non-nil field replaces the
// stored value wholesale.
type PlaybookPatch struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Songs       *[]SongRef `json:"songs,omitempty"`
}

func (p PlaybookPatch) apply(pb *Playbook) {
	if p.Name != nil {
		pb.Name = *p.Name
	}
	if p.Description != nil {
		pb.Description = *p.Description
	}
	if p.Songs != nil {
		pb.Songs = append([]SongRef(nil), (*p.Songs)...)
	}
}

// PlaybookPatchOf returns a patch that sets every field of pb.
func PlaybookPatchOf(pb *Playbook) PlaybookPatch {
	songs := append([]SongRef{}, pb.Songs...)
	return PlaybookPatch{Name: &pb.Name, Description: &pb.Description, Songs: &songs}
}

// SongPatch is a shallow update of a song.
type SongPatch struct {
	Title    *string    `json:"title,omitempty"`
	Key      *string    `json:"key,omitempty"`
	Sections *[]Section `json:"sections,omitempty"`
}

func (p SongPatch) apply(s *Song) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Key != nil {
		s.Key = *p.Key
	}
	if p.Sections != nil {
		s.Sections = append([]Section(nil), (*p.Sections)...)
	}
}

// SongPatchOf returns a patch that sets every field of s.
func SongPatchOf(s *Song) SongPatch {
	sections := append([]Section{}, s.Sections...)
	return SongPatch{Title: &s.Title, Key: &s.Key, Sections: &sections}
}

var qualitySuffix = map[string]string{
	"maj": "", "min": "m", "dim": "dim", "aug": "aug", "sus2": "sus2", "sus4": "sus4",
}

// String renders the chord symbol, e.g. "Em7" or "C/G".
func (c Chord) String() string {
	s := c.Root + qualitySuffix[c.Quality]
	if c.Interval != "" && c.Interval != "none" {
		s += c.Interval
	}
	if c.Bass != "" {
		s += "/" + c.Bass
	}
	return s
}
