package chordbook_test

import (
	"encoding/json"
	"testing"

	"chordbook/internal/chordbook"
)

func TestParseEntityID(t *testing.T) {
	tests := []struct {
		in         string
		wantLocal  bool
		wantRemote bool
	}{
		{in: "local_1705314600000", wantLocal: true},
		{in: "65a4f0c2e4b0a1b2c3d4e5f6", wantRemote: true},
		{in: "local_", wantRemote: true}, // no token, so not a local id
		{in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id := chordbook.ParseEntityID(tt.in)
			if id.IsLocal() != tt.wantLocal || id.IsRemote() != tt.wantRemote {
				t.Errorf("ParseEntityID(%q) local=%v remote=%v, want local=%v remote=%v",
					tt.in, id.IsLocal(), id.IsRemote(), tt.wantLocal, tt.wantRemote)
			}
			if id.String() != tt.in {
				t.Errorf("String() = %q, want %q", id.String(), tt.in)
			}
		})
	}
}

func TestEntityID_Remote(t *testing.T) {
	if _, ok := chordbook.LocalID("1").Remote(); ok {
		t.Error("LocalID.Remote() ok = true")
	}
	got, ok := chordbook.RemoteID("abc").Remote()
	if !ok || got != "abc" {
		t.Errorf("RemoteID.Remote() = %q, %v", got, ok)
	}
}

func TestSongRefJSON(t *testing.T) {
	t.Run("bare id is a string", func(t *testing.T) {
		data, err := json.Marshal(chordbook.RefID(chordbook.LocalID("42")))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `"local_42"` {
			t.Errorf("Marshal() = %s", data)
		}

		var ref chordbook.SongRef
		if err := json.Unmarshal(data, &ref); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		id, ok := ref.Ref()
		if !ok || !id.IsLocal() || id.String() != "local_42" {
			t.Errorf("Ref() = %v, %v", id, ok)
		}
	})

	t.Run("object is an embedded song", func(t *testing.T) {
		var ref chordbook.SongRef
		if err := json.Unmarshal([]byte(`{"id":"s1","title":"Wonderwall","sections":[]}`), &ref); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		s, ok := ref.Song()
		if !ok {
			t.Fatal("Song() ok = false")
		}
		if s.Title != "Wonderwall" || ref.ID().String() != "s1" {
			t.Errorf("embedded song = %+v", s)
		}
	})

	t.Run("other shapes are rejected", func(t *testing.T) {
		var ref chordbook.SongRef
		if err := json.Unmarshal([]byte(`12`), &ref); err == nil {
			t.Error("Unmarshal(12) expected error")
		}
	})
}
