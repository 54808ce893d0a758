package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Doc is a server-side document as the fake stores it.
type Doc map[string]any

type injectedFailure struct {
	method string
	prefix string
	status int
	once   bool
}

// FakeRemote is an in-memory chordbook server speaking the real wire
// contract. It rejects bodies that carry local-only fields, records every
// call, and can be told to fail requests or go down entirely.
type FakeRemote struct {
	mu       sync.Mutex
	docs     map[string]map[string]Doc // resource -> _id -> doc
	seq      int
	calls    []string // "METHOD /path"
	failures []injectedFailure
	down     bool

	server *httptest.Server
}

// NewFakeRemote starts a FakeRemote on a local port. It is closed when the
// test ends.
func NewFakeRemote(t *testing.T) *FakeRemote {
	t.Helper()
	f := &FakeRemote{
		docs: map[string]map[string]Doc{"playbooks": {}, "songs": {}},
	}
	f.server = httptest.NewServer(f.Handler())
	t.Cleanup(f.server.Close)
	return f
}

func (f *FakeRemote) URL() string { return f.server.URL }

// Handler returns the fake's routes.
func (f *FakeRemote) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(f.intercept)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Doc{"status": "ok"})
	})
	for _, res := range []string{"playbooks", "songs"} {
		r.Route("/"+res, func(r chi.Router) {
			r.Get("/", f.list(res))
			r.Post("/", f.create(res))
			r.Get("/{id}", f.get(res))
			r.Put("/{id}", f.update(res))
			r.Delete("/{id}", f.remove(res))
		})
	}
	return r
}

func (f *FakeRemote) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		if f.down {
			f.mu.Unlock()
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		for i, fl := range f.failures {
			if fl.method == r.Method && strings.HasPrefix(r.URL.Path, fl.prefix) {
				if fl.once {
					f.failures = append(f.failures[:i], f.failures[i+1:]...)
				}
				f.mu.Unlock()
				http.Error(w, "injected failure", fl.status)
				return
			}
		}
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// SetDown makes every request, health checks included, answer 503.
func (f *FakeRemote) SetDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

// FailNext makes the next method request under pathPrefix answer status.
func (f *FakeRemote) FailNext(method, pathPrefix string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, injectedFailure{method: method, prefix: pathPrefix, status: status, once: true})
}

// FailAlways makes every method request under pathPrefix answer status.
func (f *FakeRemote) FailAlways(method, pathPrefix string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, injectedFailure{method: method, prefix: pathPrefix, status: status})
}

// ClearFailures drops every injected failure.
func (f *FakeRemote) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = nil
}

// Calls counts recorded requests with the given method whose path starts
// with pathPrefix.
func (f *FakeRemote) Calls(method, pathPrefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		m, p, _ := strings.Cut(c, " ")
		if m == method && strings.HasPrefix(p, pathPrefix) {
			n++
		}
	}
	return n
}

// Seed stores doc directly and returns its _id.
func (f *FakeRemote) Seed(resource string, doc Doc) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID()
	stored := Doc{}
	for k, v := range doc {
		stored[k] = v
	}
	stored["_id"] = id
	f.docs[resource][id] = stored
	return id
}

// Doc returns a copy of a stored document.
func (f *FakeRemote) Doc(resource, id string) (Doc, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[resource][id]
	if !ok {
		return nil, false
	}
	out := Doc{}
	for k, v := range d {
		out[k] = v
	}
	return out, true
}

// Count returns the number of stored documents of a resource.
func (f *FakeRemote) Count(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs[resource])
}

func (f *FakeRemote) nextID() string {
	f.seq++
	return fmt.Sprintf("%024x", f.seq)
}

func (f *FakeRemote) list(res string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.URL.Query().Get("userId")
		f.mu.Lock()
		out := []Doc{}
		for _, d := range f.docs[res] {
			if d["ownerId"] == owner {
				out = append(out, d)
			}
		}
		f.mu.Unlock()
		sort.Slice(out, func(i, j int) bool { return out[i]["_id"].(string) < out[j]["_id"].(string) })
		writeJSON(w, http.StatusOK, out)
	}
}

func (f *FakeRemote) get(res string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := f.Doc(res, chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func (f *FakeRemote) create(res string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		if _, has := body["_id"]; has {
			http.Error(w, "_id is assigned by the server", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		id := f.nextID()
		body["_id"] = id
		f.docs[res][id] = body
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, body)
	}
}

func (f *FakeRemote) update(res string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		f.mu.Lock()
		d, found := f.docs[res][id]
		if !found {
			f.mu.Unlock()
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		for k, v := range body {
			if k != "_id" {
				d[k] = v
			}
		}
		out := Doc{}
		for k, v := range d {
			out[k] = v
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func (f *FakeRemote) remove(res string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		f.mu.Lock()
		_, found := f.docs[res][id]
		delete(f.docs[res], id)
		f.mu.Unlock()
		if !found {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// readBody decodes a JSON object and rejects local-only fields on it and on
// any embedded song it carries.
func readBody(w http.ResponseWriter, r *http.Request) (Doc, bool) {
	var body Doc
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return nil, false
	}
	if field := localField(body); field != "" {
		http.Error(w, "unexpected field "+field, http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func localField(doc map[string]any) string {
	for _, k := range []string{"id", "syncStatus", "markedForDeletion"} {
		if _, ok := doc[k]; ok {
			return k
		}
	}
	songs, _ := doc["songs"].([]any)
	for _, ref := range songs {
		if embedded, ok := ref.(map[string]any); ok {
			if f := localField(embedded); f != "" {
				return f
			}
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
