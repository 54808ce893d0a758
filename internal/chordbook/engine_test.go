package chordbook_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"chordbook/internal/chordbook"
	"chordbook/internal/testutil"
)

func TestEngine_Playbooks(t *testing.T) {
	ctx := context.Background()

	t.Run("online list replaces the cache", func(t *testing.T) {
		h := newHarness(t, true)
		h.seedPlaybook("Gigs")
		h.seedPlaybook("Practice")
		stale := &chordbook.Playbook{
			Entity: chordbook.Entity{ID: chordbook.RemoteID("gone"), OwnerID: testUser, SyncStatus: chordbook.StatusSynced},
			Name:   "Deleted elsewhere",
		}
		if err := h.cache.PutPlaybook(ctx, stale); err != nil {
			t.Fatalf("PutPlaybook() error = %v", err)
		}

		got, err := h.engine.Playbooks(ctx, testUser)
		if err != nil {
			t.Fatalf("Playbooks() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Playbooks() returned %d, want 2", len(got))
		}
		for _, pb := range got {
			if pb.SyncStatus != chordbook.StatusSynced || !pb.ID.IsRemote() {
				t.Errorf("playbook %q: status=%s id=%s", pb.Name, pb.SyncStatus, pb.ID)
			}
		}
		if pb, _ := h.cache.Playbook(ctx, chordbook.RemoteID("gone")); pb != nil {
			t.Error("stale synced playbook was not dropped from the cache")
		}
		if n := len(h.keys(t, "playbook:")); n != 2 {
			t.Errorf("cached playbooks = %d, want 2", n)
		}
	})

	t.Run("online list keeps unsynced local work", func(t *testing.T) {
		h := newHarness(t, false)
		if _, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{Name: "Offline"}); err != nil {
			t.Fatalf("CreatePlaybook() error = %v", err)
		}
		h.seedPlaybook("Server")
		h.conn.Set(true)

		got, err := h.engine.Playbooks(ctx, testUser)
		if err != nil {
			t.Fatalf("Playbooks() error = %v", err)
		}
		if len(got) != 2 || got[0].Name != "Server" || got[1].Name != "Offline" {
			t.Fatalf("Playbooks() = %v, want [Server Offline]", names(got))
		}
		if !got[1].ID.IsLocal() || got[1].SyncStatus != chordbook.StatusPending {
			t.Errorf("local playbook = %s %s", got[1].ID, got[1].SyncStatus)
		}
	})

	t.Run("offline filters by owner and hides deletions", func(t *testing.T) {
		h := newHarness(t, false)
		for _, pb := range []*chordbook.Playbook{
			{Entity: chordbook.Entity{ID: chordbook.RemoteID("mine"), OwnerID: testUser, SyncStatus: chordbook.StatusSynced}, Name: "Mine"},
			{Entity: chordbook.Entity{ID: chordbook.RemoteID("theirs"), OwnerID: "someone-else", SyncStatus: chordbook.StatusSynced}, Name: "Theirs"},
			{Entity: chordbook.Entity{ID: chordbook.RemoteID("doomed"), OwnerID: testUser, SyncStatus: chordbook.StatusPending, MarkedForDeletion: true}, Name: "Doomed"},
		} {
			if err := h.cache.PutPlaybook(ctx, pb); err != nil {
				t.Fatalf("PutPlaybook() error = %v", err)
			}
		}

		got, err := h.engine.Playbooks(ctx, testUser)
		if err != nil {
			t.Fatalf("Playbooks() error = %v", err)
		}
		if len(got) != 1 || got[0].Name != "Mine" {
			t.Errorf("Playbooks() = %v, want [Mine]", names(got))
		}
		if h.remote.Calls(http.MethodGet, "/playbooks") != 0 {
			t.Error("offline read reached the server")
		}
	})

	t.Run("server failure falls back to the cache", func(t *testing.T) {
		h := newHarness(t, true)
		h.remote.FailAlways(http.MethodGet, "/playbooks", http.StatusInternalServerError)
		cached := &chordbook.Playbook{
			Entity: chordbook.Entity{ID: chordbook.RemoteID("p1"), OwnerID: testUser, SyncStatus: chordbook.StatusSynced},
			Name:   "Cached",
		}
		if err := h.cache.PutPlaybook(ctx, cached); err != nil {
			t.Fatalf("PutPlaybook() error = %v", err)
		}

		got, err := h.engine.Playbooks(ctx, testUser)
		if err != nil {
			t.Fatalf("Playbooks() error = %v", err)
		}
		if len(got) != 1 || got[0].Name != "Cached" {
			t.Errorf("Playbooks() = %v, want [Cached]", names(got))
		}
	})
}

func TestEngine_DefaultPlaybookIsCreatedOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	for i := 0; i < 2; i++ {
		got, err := h.engine.Playbooks(ctx, testUser)
		if err != nil {
			t.Fatalf("Playbooks() #%d error = %v", i+1, err)
		}
		if len(got) != 1 || got[0].Name != chordbook.DefaultPlaybookName {
			t.Fatalf("Playbooks() #%d = %v, want [%s]", i+1, names(got), chordbook.DefaultPlaybookName)
		}
		if !got[0].ID.IsLocal() || got[0].SyncStatus != chordbook.StatusPending {
			t.Errorf("default playbook id=%s status=%s", got[0].ID, got[0].SyncStatus)
		}
	}
	if keys := h.keys(t, "playbook:"); len(keys) != 1 {
		t.Errorf("stored playbooks = %v, want exactly one", keys)
	}

	// Other users get their own.
	other, err := h.engine.Playbooks(ctx, "user-2")
	if err != nil {
		t.Fatalf("Playbooks(user-2) error = %v", err)
	}
	if len(other) != 1 || other[0].OwnerID != "user-2" {
		t.Errorf("Playbooks(user-2) = %+v", other)
	}
}

func TestEngine_ResolvesSongReferences(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	song, err := h.engine.CreateSong(ctx, testUser, chordbook.SongInput{Title: "Yellow", Key: "B", Sections: sampleSections()})
	if err != nil {
		t.Fatalf("CreateSong() error = %v", err)
	}
	pb := &chordbook.Playbook{
		Entity: chordbook.Entity{ID: chordbook.RemoteID("p1"), OwnerID: testUser, SyncStatus: chordbook.StatusSynced},
		Name:   "Set",
		Songs:  []chordbook.SongRef{chordbook.RefID(song.ID), chordbook.RefID(chordbook.RemoteID("missing"))},
	}
	if err := h.cache.PutPlaybook(ctx, pb); err != nil {
		t.Fatalf("PutPlaybook() error = %v", err)
	}

	got, err := h.engine.Playbook(ctx, pb.ID)
	if err != nil {
		t.Fatalf("Playbook() error = %v", err)
	}
	if len(got.Songs) != 2 {
		t.Fatalf("Songs = %d refs, want 2", len(got.Songs))
	}

	embedded, ok := got.Songs[0].Song()
	if !ok {
		t.Fatal("first reference was not resolved")
	}
	if embedded.Title != "Yellow" || len(embedded.Sections) != 2 ||
		embedded.Sections[0].Name != "Verse" || embedded.Sections[1].Name != "Chorus" {
		t.Errorf("embedded song = %+v, want sections [Verse Chorus]", embedded)
	}

	id, ok := got.Songs[1].Ref()
	if !ok || id.String() != "missing" {
		t.Errorf("unresolved reference = %v, %v; want bare id \"missing\"", id, ok)
	}

	// The store keeps bare ids.
	stored, _ := h.cache.Playbook(ctx, pb.ID)
	if _, ok := stored.Songs[0].Ref(); !ok {
		t.Error("resolution leaked an embedded song into the store")
	}
}

func TestEngine_CreatePlaybook(t *testing.T) {
	ctx := context.Background()

	t.Run("online", func(t *testing.T) {
		h := newHarness(t, true)
		pb, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{Name: "Gigs"})
		if err != nil {
			t.Fatalf("CreatePlaybook() error = %v", err)
		}
		if !pb.ID.IsRemote() || pb.SyncStatus != chordbook.StatusSynced {
			t.Errorf("created id=%s status=%s", pb.ID, pb.SyncStatus)
		}
		remoteID, _ := pb.ID.Remote()
		doc, ok := h.remote.Doc("playbooks", remoteID)
		if !ok || doc["name"] != "Gigs" || doc["ownerId"] != testUser {
			t.Errorf("server doc = %v", doc)
		}
		if keys := h.localKeys(t); len(keys) != 0 {
			t.Errorf("local keys = %v", keys)
		}
	})

	t.Run("offline", func(t *testing.T) {
		h := newHarness(t, false)
		pb, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{Name: "Gigs"})
		if err != nil {
			t.Fatalf("CreatePlaybook() error = %v", err)
		}
		if pb.ID.String() != "local_1705314600000" {
			t.Errorf("id = %s, want local_1705314600000", pb.ID)
		}
		if pb.SyncStatus != chordbook.StatusPending || pb.Songs == nil || len(pb.Songs) != 0 {
			t.Errorf("created = %+v", pb)
		}
		if h.remote.Count("playbooks") != 0 {
			t.Error("offline create reached the server")
		}
	})

	t.Run("same millisecond gets distinct ids", func(t *testing.T) {
		h := newHarness(t, false)
		a, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{Name: "A"})
		if err != nil {
			t.Fatalf("CreatePlaybook(A) error = %v", err)
		}
		b, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{Name: "B"})
		if err != nil {
			t.Fatalf("CreatePlaybook(B) error = %v", err)
		}
		if a.ID == b.ID {
			t.Errorf("both playbooks got %s", a.ID)
		}
	})

	t.Run("server failure stores locally", func(t *testing.T) {
		tests := []struct {
			status int
			want   chordbook.SyncStatus
		}{
			{status: http.StatusInternalServerError, want: chordbook.StatusPending},
			{status: http.StatusTooManyRequests, want: chordbook.StatusPending},
			{status: http.StatusUnprocessableEntity, want: chordbook.StatusError},
		}
		for _, tt := range tests {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				h := newHarness(t, true)
				h.remote.FailNext(http.MethodPost, "/playbooks", tt.status)

				pb, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{Name: "Gigs"})
				if err != nil {
					t.Fatalf("CreatePlaybook() error = %v", err)
				}
				if !pb.ID.IsLocal() || pb.SyncStatus != tt.want {
					t.Errorf("id=%s status=%s, want local id and %s", pb.ID, pb.SyncStatus, tt.want)
				}
			})
		}
	})

	t.Run("invalid input stores nothing", func(t *testing.T) {
		h := newHarness(t, false)
		_, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{})
		if !errors.Is(err, chordbook.ErrInvalid) {
			t.Fatalf("CreatePlaybook() error = %v, want ErrInvalid", err)
		}
		if h.records.Len() != 0 {
			t.Errorf("store has %d records", h.records.Len())
		}
	})
}

func TestEngine_CreateSongAssignsSectionIDs(t *testing.T) {
	h := newHarness(t, true)
	s, err := h.engine.CreateSong(context.Background(), testUser, chordbook.SongInput{Title: "Creep", Sections: sampleSections()})
	if err != nil {
		t.Fatalf("CreateSong() error = %v", err)
	}
	for _, sec := range s.Sections {
		if sec.ID == "" {
			t.Errorf("section %q has no id", sec.Name)
		}
		for _, ln := range sec.Lines {
			if ln.ID == "" {
				t.Errorf("line in %q has no id", sec.Name)
			}
		}
	}
	if s.Sections[1].Lines[0].Chords[0].Bass != "G" {
		t.Errorf("chord did not survive the round trip: %+v", s.Sections[1].Lines[0].Chords[0])
	}
}

func TestEngine_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("offline merge keeps unpatched fields", func(t *testing.T) {
		h := newHarness(t, false)
		s, err := h.engine.CreateSong(ctx, testUser, chordbook.SongInput{Title: "Old", Key: "G", Sections: sampleSections()})
		if err != nil {
			t.Fatalf("CreateSong() error = %v", err)
		}
		h.clock.Advance(time.Second)

		got, err := h.engine.UpdateSong(ctx, s.ID, chordbook.SongPatch{Title: strPtr("New")})
		if err != nil {
			t.Fatalf("UpdateSong() error = %v", err)
		}
		if got.Title != "New" || got.Key != "G" || len(got.Sections) != 2 {
			t.Errorf("merged song = %+v", got)
		}
		if got.SyncStatus != chordbook.StatusPending || !got.UpdatedAt.After(got.CreatedAt) {
			t.Errorf("status=%s updated=%v created=%v", got.SyncStatus, got.UpdatedAt, got.CreatedAt)
		}
	})

	t.Run("online update of a server record", func(t *testing.T) {
		h := newHarness(t, true)
		id := h.seedPlaybook("Before")
		if _, err := h.engine.Playbooks(ctx, testUser); err != nil {
			t.Fatalf("Playbooks() error = %v", err)
		}

		got, err := h.engine.UpdatePlaybook(ctx, chordbook.RemoteID(id), chordbook.PlaybookPatch{Name: strPtr("After")})
		if err != nil {
			t.Fatalf("UpdatePlaybook() error = %v", err)
		}
		if got.Name != "After" || got.SyncStatus != chordbook.StatusSynced {
			t.Errorf("updated = %s %s", got.Name, got.SyncStatus)
		}
		if doc, _ := h.remote.Doc("playbooks", id); doc["name"] != "After" {
			t.Errorf("server name = %v", doc["name"])
		}
	})

	t.Run("rejected update is marked error", func(t *testing.T) {
		h := newHarness(t, true)
		id := h.seedPlaybook("Before")
		if _, err := h.engine.Playbooks(ctx, testUser); err != nil {
			t.Fatalf("Playbooks() error = %v", err)
		}
		h.remote.FailNext(http.MethodPut, "/playbooks/", http.StatusBadRequest)

		got, err := h.engine.UpdatePlaybook(ctx, chordbook.RemoteID(id), chordbook.PlaybookPatch{Name: strPtr("After")})
		if err != nil {
			t.Fatalf("UpdatePlaybook() error = %v", err)
		}
		if got.Name != "After" || got.SyncStatus != chordbook.StatusError {
			t.Errorf("updated = %s %s, want After error", got.Name, got.SyncStatus)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		for _, online := range []bool{false, true} {
			h := newHarness(t, online)
			_, err := h.engine.UpdateSong(ctx, chordbook.RemoteID("nope"), chordbook.SongPatch{Title: strPtr("x")})
			if !errors.Is(err, chordbook.ErrNotFound) {
				t.Errorf("online=%v: UpdateSong() error = %v, want ErrNotFound", online, err)
			}
		}
	})

	t.Run("record awaiting deletion", func(t *testing.T) {
		h := newHarness(t, false)
		s, err := h.engine.CreateSong(ctx, testUser, chordbook.SongInput{Title: "Gone"})
		if err != nil {
			t.Fatalf("CreateSong() error = %v", err)
		}
		if err := h.engine.DeleteSong(ctx, s.ID); err != nil {
			t.Fatalf("DeleteSong() error = %v", err)
		}
		_, err = h.engine.UpdateSong(ctx, s.ID, chordbook.SongPatch{Title: strPtr("x")})
		if !errors.Is(err, chordbook.ErrNotFound) {
			t.Errorf("UpdateSong() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("invalid patch is refused", func(t *testing.T) {
		h := newHarness(t, false)
		s, err := h.engine.CreateSong(ctx, testUser, chordbook.SongInput{Title: "Fine"})
		if err != nil {
			t.Fatalf("CreateSong() error = %v", err)
		}
		_, err = h.engine.UpdateSong(ctx, s.ID, chordbook.SongPatch{Title: strPtr("")})
		if !errors.Is(err, chordbook.ErrInvalid) {
			t.Errorf("UpdateSong() error = %v, want ErrInvalid", err)
		}
		stored, _ := h.cache.Song(ctx, s.ID)
		if stored.Title != "Fine" {
			t.Errorf("stored title = %q", stored.Title)
		}
	})
}

func TestEngine_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("online removes everywhere", func(t *testing.T) {
		h := newHarness(t, true)
		id := h.seedSong("Bye")
		if _, err := h.engine.Songs(ctx, testUser); err != nil {
			t.Fatalf("Songs() error = %v", err)
		}
		if err := h.engine.DeleteSong(ctx, chordbook.RemoteID(id)); err != nil {
			t.Fatalf("DeleteSong() error = %v", err)
		}
		if h.remote.Count("songs") != 0 || h.records.Len() != 0 {
			t.Errorf("server=%d cache=%d, want both empty", h.remote.Count("songs"), h.records.Len())
		}
	})

	t.Run("offline marks for deletion", func(t *testing.T) {
		h := newHarness(t, true)
		id := h.seedSong("Bye")
		if _, err := h.engine.Songs(ctx, testUser); err != nil {
			t.Fatalf("Songs() error = %v", err)
		}
		h.conn.Set(false)

		if err := h.engine.DeleteSong(ctx, chordbook.RemoteID(id)); err != nil {
			t.Fatalf("DeleteSong() error = %v", err)
		}
		stored, err := h.cache.Song(ctx, chordbook.RemoteID(id))
		if err != nil || stored == nil {
			t.Fatalf("cached song = %v, %v; want it kept", stored, err)
		}
		if !stored.MarkedForDeletion || stored.SyncStatus != chordbook.StatusPending {
			t.Errorf("tombstone = deleted:%v status:%s", stored.MarkedForDeletion, stored.SyncStatus)
		}
		songs, _ := h.engine.Songs(ctx, testUser)
		if len(songs) != 0 {
			t.Errorf("Songs() = %d, want deleted song hidden", len(songs))
		}
		if got, _ := h.engine.Song(ctx, chordbook.RemoteID(id)); got != nil {
			t.Error("Song() returned a record awaiting deletion")
		}
		if err := h.engine.DeleteSong(ctx, chordbook.RemoteID(id)); !errors.Is(err, chordbook.ErrNotFound) {
			t.Errorf("second DeleteSong() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("online delete of a local record never calls the server", func(t *testing.T) {
		h := newHarness(t, false)
		s, err := h.engine.CreateSong(ctx, testUser, chordbook.SongInput{Title: "Draft"})
		if err != nil {
			t.Fatalf("CreateSong() error = %v", err)
		}
		h.conn.Set(true)
		if err := h.engine.DeleteSong(ctx, s.ID); err != nil {
			t.Fatalf("DeleteSong() error = %v", err)
		}
		if h.records.Len() != 0 || h.remote.Calls(http.MethodDelete, "/songs") != 0 {
			t.Errorf("records=%d deletes=%d", h.records.Len(), h.remote.Calls(http.MethodDelete, "/songs"))
		}
	})

	t.Run("server failure defers", func(t *testing.T) {
		h := newHarness(t, true)
		id := h.seedPlaybook("Keep trying")
		if _, err := h.engine.Playbooks(ctx, testUser); err != nil {
			t.Fatalf("Playbooks() error = %v", err)
		}
		h.remote.FailNext(http.MethodDelete, "/playbooks/", http.StatusServiceUnavailable)

		if err := h.engine.DeletePlaybook(ctx, chordbook.RemoteID(id)); err != nil {
			t.Fatalf("DeletePlaybook() error = %v", err)
		}
		pb, _ := h.cache.Playbook(ctx, chordbook.RemoteID(id))
		if pb == nil || !pb.MarkedForDeletion {
			t.Errorf("cached playbook = %+v, want a tombstone", pb)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		for _, online := range []bool{false, true} {
			h := newHarness(t, online)
			err := h.engine.DeletePlaybook(ctx, chordbook.RemoteID("nope"))
			if !errors.Is(err, chordbook.ErrNotFound) {
				t.Errorf("online=%v: DeletePlaybook() error = %v, want ErrNotFound", online, err)
			}
		}
	})
}

func TestEngine_Unsynced(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	if _, err := h.engine.CreateSong(ctx, testUser, chordbook.SongInput{Title: "Draft"}); err != nil {
		t.Fatalf("CreateSong() error = %v", err)
	}
	if _, err := h.engine.CreatePlaybook(ctx, testUser, chordbook.PlaybookInput{Name: "Draft set"}); err != nil {
		t.Fatalf("CreatePlaybook() error = %v", err)
	}
	synced := &chordbook.Song{Entity: chordbook.Entity{ID: chordbook.RemoteID("s"), OwnerID: testUser, SyncStatus: chordbook.StatusSynced}, Title: "Done"}
	if err := h.cache.PutSong(ctx, synced); err != nil {
		t.Fatalf("PutSong() error = %v", err)
	}

	changes, err := h.engine.Unsynced(ctx)
	if err != nil {
		t.Fatalf("Unsynced() error = %v", err)
	}
	if len(changes) != 2 || changes[0].Kind != chordbook.KindPlaybook || changes[1].Label != "Draft" {
		t.Errorf("Unsynced() = %+v", changes)
	}
}

func TestEngine_ReadsConsultConnectivity(t *testing.T) {
	h := newHarness(t, false)
	if _, err := h.engine.Songs(context.Background(), testUser); err != nil {
		t.Fatalf("Songs() error = %v", err)
	}
	if h.conn.Checks() == 0 {
		t.Error("reads must consult connectivity")
	}
}

func names(pbs []*chordbook.Playbook) []string {
	out := make([]string, len(pbs))
	for i, pb := range pbs {
		out[i] = pb.Name
	}
	return out
}

var _ chordbook.Connectivity = (*testutil.StubConnectivity)(nil)
