// Package httpapi serves the daemon's snapshot over HTTP for a web
// front-end: a small goji.io mux exposing a fixed set of routes for
// the latest decoded values, their CRC-32, and the bus signal state.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"goji.io"
	"goji.io/pat"
	"golang.org/x/time/rate"

	"github.com/go-ebus/ebusd/snapshot"
)

// pollRateLimit caps how often the snapshot routes are served, with
// one limiter shared by all clients; a front-end polling faster than
// the bus itself updates gains nothing and just adds load.
const pollRateLimit = 20 // requests per second, burst 20

// Server exposes a snapshot.Store over HTTP: the latest decoded
// values, their CRC-32 for integrity checking without re-parsing, and
// the bus signal state.
type Server struct {
	mux     *goji.Mux
	store   *snapshot.Store
	signal  int32 // atomic bool: 0 = no signal, 1 = signal
	limiter *rate.Limiter
	lock    *locker
}

// New builds a Server backed by store. /snapshot and /snapshot.crc32
// start out locked (423) until the first SetSignal(true), since
// nothing useful has been decoded yet.
func New(store *snapshot.Store) *Server {
	s := &Server{
		mux:     goji.NewMux(),
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(pollRateLimit), pollRateLimit),
		lock:    newLocker("signal", "route-graph"),
	}
	s.mux.HandleFunc(pat.Get("/snapshot"), s.lock.check(s.rateLimited(s.handleSnapshot)))
	s.mux.HandleFunc(pat.Get("/snapshot.crc32"), s.lock.check(s.rateLimited(s.handleChecksum)))
	s.mux.HandleFunc(pat.Get("/signal"), s.handleSignal)
	s.mux.HandleFunc(pat.Get("/route-graph"), s.handleRouteGraph)
	return s
}

// rateLimited wraps h so repeated snapshot polling beyond
// pollRateLimit gets a 429 instead of repeatedly re-marshaling the
// store.
func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		h(w, r)
	}
}

// SetSignal records the bus signal state; an arbitration.Listener
// adapter calls this from OnSignal so /signal reflects reality, and
// so the snapshot routes unlock once the bus has synced.
func (s *Server) SetSignal(hasSignal bool) {
	v := int32(0)
	if hasSignal {
		v = 1
	}
	atomic.StoreInt32(&s.signal, v)
	s.lock.setLocked(!hasSignal)
}

// ListenAndServe starts the HTTP server on addr; it blocks like
// http.ListenAndServe.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP makes Server itself an http.Handler, for tests and for
// embedding in a larger mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleChecksum(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(s.store)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "%08x", snapshot.Checksum(data))
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	hasSignal := atomic.LoadInt32(&s.signal) == 1
	json.NewEncoder(w).Encode(map[string]bool{"signal": hasSignal})
}

func (s *Server) handleRouteGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	graph := map[string][]string{
		"/": {"/snapshot", "/snapshot.crc32", "/signal", "/route-graph"},
	}
	json.NewEncoder(w).Encode(graph)
}
