package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordbook/internal/chordbook"
	"chordbook/internal/testutil"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

type recorder struct {
	mu   sync.Mutex
	req  capturedRequest
	hits int
}

func (r *recorder) last() capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.req
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits
}

// newRecordingServer answers every request with status and response and
// remembers the last request.
func newRecordingServer(t *testing.T, status int, response string) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := capturedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &req.body))
		}
		rec.mu.Lock()
		rec.req = req
		rec.hits++
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, "tok", 5*time.Second), rec
}

func TestClient_CreatePlaybook_WireShape(t *testing.T) {
	client, rec := newRecordingServer(t, http.StatusCreated,
		`{"_id":"65a4f0c2e4b0a1b2c3d4e5f6","ownerId":"user-1","name":"Gigs","songs":["s1",{"_id":"s2","title":"Embedded","sections":[]}],"createdAt":"2024-01-15T10:30:00Z"}`)

	in := &chordbook.Playbook{
		Entity: chordbook.Entity{
			ID:                chordbook.LocalID("1705314600000"),
			OwnerID:           "user-1",
			SyncStatus:        chordbook.StatusPending,
			MarkedForDeletion: true,
		},
		Name:  "Gigs",
		Songs: []chordbook.SongRef{chordbook.RefID(chordbook.RemoteID("s1"))},
	}
	got, err := client.CreatePlaybook(context.Background(), in)
	require.NoError(t, err)

	req := rec.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/playbooks", req.path)
	assert.Equal(t, "Bearer tok", req.auth)
	for _, field := range []string{"_id", "id", "syncStatus", "markedForDeletion"} {
		assert.NotContains(t, req.body, field)
	}
	assert.Equal(t, "Gigs", req.body["name"])
	assert.Equal(t, []any{"s1"}, req.body["songs"])

	assert.Equal(t, "65a4f0c2e4b0a1b2c3d4e5f6", got.ID.String())
	assert.True(t, got.ID.IsRemote())
	assert.Equal(t, chordbook.StatusSynced, got.SyncStatus)
	assert.False(t, got.MarkedForDeletion)
	require.Len(t, got.Songs, 2)
	id, ok := got.Songs[0].Ref()
	assert.True(t, ok)
	assert.Equal(t, "s1", id.String())
	embedded, ok := got.Songs[1].Song()
	require.True(t, ok)
	assert.Equal(t, "Embedded", embedded.Title)
}

func TestClient_UpdateSong_SendsOnlyPatchedFields(t *testing.T) {
	client, rec := newRecordingServer(t, http.StatusOK,
		`{"_id":"s1","ownerId":"user-1","title":"New","key":"G","sections":[]}`)

	title := "New"
	got, err := client.UpdateSong(context.Background(), "s1", chordbook.SongPatch{Title: &title})
	require.NoError(t, err)

	req := rec.last()
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/songs/s1", req.path)
	assert.Equal(t, map[string]any{"title": "New"}, req.body)
	assert.Equal(t, "G", got.Key)
}

func TestClient_ListSongs_FiltersByOwner(t *testing.T) {
	client, rec := newRecordingServer(t, http.StatusOK,
		`[{"_id":"a","ownerId":"user-1","title":"A","sections":[{"id":"sec","name":"Verse","lines":[]}]}]`)

	songs, err := client.ListSongs(context.Background(), "user-1")
	require.NoError(t, err)

	req := rec.last()
	assert.Equal(t, "userId=user-1", req.query)
	require.Len(t, songs, 1)
	assert.Equal(t, "Verse", songs[0].Sections[0].Name)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantNotFound bool
		wantRejected bool
	}{
		{name: "not found", status: http.StatusNotFound, wantNotFound: true, wantRejected: true},
		{name: "bad request", status: http.StatusBadRequest, wantRejected: true},
		{name: "rate limited", status: http.StatusTooManyRequests},
		{name: "server error", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rec := newRecordingServer(t, tt.status, `{"error":"nope"}`)

			err := client.DeletePlaybook(context.Background(), "p1")
			require.Error(t, err)

			var re *chordbook.RemoteError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.Status)
			assert.Contains(t, re.Body, "nope")
			assert.Equal(t, tt.wantNotFound, errors.Is(err, chordbook.ErrNotFound))
			assert.Equal(t, tt.wantRejected, re.Rejected())
			assert.Equal(t, 1, rec.count(), "client must not retry")
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "", time.Second).GetSong(context.Background(), "s1")
	require.Error(t, err)
	var re *chordbook.RemoteError
	assert.False(t, errors.As(err, &re))
}

func TestClient_RejectsResponseWithoutID(t *testing.T) {
	client, _ := newRecordingServer(t, http.StatusOK, `{"name":"anonymous","songs":[]}`)
	_, err := client.GetPlaybook(context.Background(), "p1")
	assert.Error(t, err)
}

func TestClient_AgainstFakeRemote(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewFakeRemote(t)
	client := New(remote.URL(), "", 5*time.Second)

	timing := 4
	created, err := client.CreateSong(ctx, &chordbook.Song{
		Entity: chordbook.Entity{OwnerID: "user-1", SyncStatus: chordbook.StatusPending},
		Title:  "Let It Be",
		Key:    "C",
		Sections: []chordbook.Section{{ID: "sec-1", Name: "Verse", Lines: []chordbook.Line{{ID: "ln-1", Chords: []chordbook.Chord{
			{Root: "C", Quality: "maj", Timing: &timing},
			{Root: "G", Quality: "maj", Bass: "B"},
		}}}}},
	})
	require.NoError(t, err)
	remoteID, ok := created.ID.Remote()
	require.True(t, ok)

	fetched, err := client.GetSong(ctx, remoteID)
	require.NoError(t, err)
	assert.Equal(t, created.Sections, fetched.Sections)
	assert.Equal(t, 4, *fetched.Sections[0].Lines[0].Chords[0].Timing)

	list, err := client.ListSongs(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, client.DeleteSong(ctx, remoteID))
	err = client.DeleteSong(ctx, remoteID)
	assert.ErrorIs(t, err, chordbook.ErrNotFound)
}
