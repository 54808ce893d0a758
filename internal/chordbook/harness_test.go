package chordbook_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"chordbook/internal/chordbook"
	"chordbook/internal/gateway"
	"chordbook/internal/store"
	"chordbook/internal/testutil"
)

const testUser = "user-1"

// harness wires an Engine and Replayer to a fake server over real HTTP.
type harness struct {
	engine   *chordbook.Engine
	replayer *chordbook.Replayer
	cache    *chordbook.Cache
	records  *store.MemoryStore
	remote   *testutil.FakeRemote
	conn     *testutil.StubConnectivity
	clock    *testutil.StubClock
}

func newHarness(t *testing.T, online bool) *harness {
	t.Helper()
	remote := testutil.NewFakeRemote(t)
	cache, records := testutil.NewTestCache(t)
	conn := testutil.NewStubConnectivity(online)
	clock := testutil.FixedClock()
	client := gateway.New(remote.URL(), "", 5*time.Second)

	return &harness{
		engine:   chordbook.NewEngine(cache, client, conn, nil, clock, testutil.NewStubIDGenerator()),
		replayer: chordbook.NewReplayer(cache, client, conn, nil),
		cache:    cache,
		records:  records,
		remote:   remote,
		conn:     conn,
		clock:    clock,
	}
}

// keys returns every raw store key with the given prefix.
func (h *harness) keys(t *testing.T, prefix string) []string {
	t.Helper()
	recs, err := h.records.List(context.Background(), prefix)
	if err != nil {
		t.Fatalf("List(%q) error = %v", prefix, err)
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Key
	}
	return out
}

func (h *harness) localKeys(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, k := range h.keys(t, "") {
		_, id, _ := strings.Cut(k, ":")
		if strings.HasPrefix(id, "local_") {
			out = append(out, k)
		}
	}
	return out
}

func (h *harness) seedPlaybook(name string, songs ...string) string {
	refs := make([]any, len(songs))
	for i, s := range songs {
		refs[i] = s
	}
	return h.remote.Seed("playbooks", testutil.Doc{
		"ownerId":   testUser,
		"name":      name,
		"songs":     refs,
		"createdAt": "2024-01-01T00:00:00Z",
		"updatedAt": "2024-01-01T00:00:00Z",
	})
}

func (h *harness) seedSong(title string) string {
	return h.remote.Seed("songs", testutil.Doc{
		"ownerId":   testUser,
		"title":     title,
		"sections":  []any{},
		"createdAt": "2024-01-01T00:00:00Z",
		"updatedAt": "2024-01-01T00:00:00Z",
	})
}

func strPtr(s string) *string { return &s }

func sampleSections() []chordbook.Section {
	timing := 2
	return []chordbook.Section{
		{Name: "Verse", Lines: []chordbook.Line{{Chords: []chordbook.Chord{
			{Root: "G", Quality: "maj"},
			{Root: "E", Quality: "min", Interval: "7", Timing: &timing},
		}}}},
		{Name: "Chorus", Lines: []chordbook.Line{{Chords: []chordbook.Chord{
			{Root: "C", Quality: "maj", Bass: "G"},
		}}}},
	}
}
