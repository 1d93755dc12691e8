package test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// Route is a canned response served by Server.
type Route struct {
	Status      int
	ContentType string
	Body        string
}

// Server is an httptest server serving canned routes and counting hits per
// path.
type Server struct {
	*httptest.Server

	sync.Mutex
	routes map[string]Route
	hits   map[string]int

	// gate, when set, blocks every request until it is closed.
	gate chan struct{}
}

// NewServer starts a server for the given routes. It is closed by t.Cleanup.
func NewServer(t testing.TB, routes map[string]Route) *Server {
	s := &Server{
		routes: routes,
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Hold makes requests block until the returned release func is called.
func (s *Server) Hold() (release func()) {
	s.Lock()
	defer s.Unlock()
	s.gate = make(chan struct{})
	gate := s.gate
	return func() { close(gate) }
}

// Hits returns how many requests were made for path.
func (s *Server) Hits(path string) int {
	s.Lock()
	defer s.Unlock()
	return s.hits[path]
}

// URLFor returns the absolute URL for path.
func (s *Server) URLFor(path string) string {
	return s.Server.URL + path
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	s.hits[r.URL.Path]++
	route, ok := s.routes[r.URL.Path]
	gate := s.gate
	s.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	if route.ContentType != "" {
		w.Header().Set("Content-Type", route.ContentType)
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write([]byte(route.Body))
}

// WriteFiles creates the given files, keyed by path relative to dir, and
// returns dir.
func WriteFiles(t testing.TB, dir string, files map[string]string) string {
	t.Helper()
	for name, contents := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
