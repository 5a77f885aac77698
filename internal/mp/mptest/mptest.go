// Package mptest runs an in-process fake of the materials summary API for
// tests: canned records per formula, API key checks, and injectable
// transient failures.
package mptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/crysfetch/internal/structure"
)

// Record is one canned summary entry served for a formula.
type Record struct {
	MaterialID string
	Volume     float64
	BandGap    float64
	Structure  *structure.Structure
}

// Request captures what a client sent, for assertions.
type Request struct {
	Formula string
	APIKey  string
}

// Server is the running fake. All methods are safe for concurrent use.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	records  map[string]Record
	requests []Request
	failures int
}

// NewServer starts a fake API accepting the given key. It shuts down with
// the test.
func NewServer(t *testing.T, apiKey string) *Server {
	t.Helper()

	s := &Server{records: make(map[string]Record)}

	r := chi.NewRouter()
	r.Use(s.recordRequests)
	r.Use(requireAPIKey(apiKey))
	r.Get("/materials/summary", s.handleSummary)

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) URL() string {
	return s.srv.URL
}

// Add serves rec for the given formula.
func (s *Server) Add(formula string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[formula] = rec
}

// FailNext makes the next n summary requests fail with status 503.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

// Requests returns every request seen so far, including rejected ones.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Formula: r.URL.Query().Get("formula"),
			APIKey:  r.Header.Get("X-API-KEY"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-KEY") != key {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
		return
	}
	formula := r.URL.Query().Get("formula")
	rec, ok := s.records[formula]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, map[string]any{"data": []any{}})
		return
	}
	writeJSON(w, map[string]any{"data": []any{summaryPayload(formula, rec)}})
}

// summaryPayload builds the wire document by hand so the fake stays
// independent of the client's decode types.
func summaryPayload(formula string, rec Record) map[string]any {
	doc := map[string]any{
		"material_id":    rec.MaterialID,
		"formula_pretty": formula,
		"volume":         rec.Volume,
		"band_gap":       rec.BandGap,
	}
	if rec.Structure != nil {
		sites := make([]map[string]any, 0, len(rec.Structure.Sites))
		for _, site := range rec.Structure.Sites {
			sites = append(sites, map[string]any{
				"element": site.Element,
				"abc":     []float64{site.X, site.Y, site.Z},
			})
		}
		doc["structure"] = map[string]any{
			"lattice": map[string]any{
				"a":     rec.Structure.Lattice.A,
				"b":     rec.Structure.Lattice.B,
				"c":     rec.Structure.Lattice.C,
				"alpha": rec.Structure.Lattice.Alpha,
				"beta":  rec.Structure.Lattice.Beta,
				"gamma": rec.Structure.Lattice.Gamma,
			},
			"sites": sites,
		}
	}
	return doc
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
