// Package server exposes a live coverage monitor: an HTTP API for
// reading the current coverage snapshot and campaign ledger, an ingest
// endpoint for a long-running watch process fed by an external frame
// pipeline, and a dependency-free websocket feed that broadcasts a fresh
// snapshot to connected dashboards after every ingest.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"gamecov/internal/coverage"
	"gamecov/internal/session"
	"gamecov/internal/storage"
)

//go:embed static/*
var staticFiles embed.FS

// Server is the live coverage monitor's HTTP + websocket frontend.
type Server struct {
	tracker     *coverage.Tracker
	store       *storage.Storage
	port        int
	idleTimeout time.Duration
	httpServer  *http.Server

	mu           sync.Mutex
	lastActivity time.Time
	clients      map[string]*wsConn
	shutdownChan chan struct{}
}

// New creates a Server backed by a ledger at dbPath and an in-memory
// Tracker seeded from radius and warmed with every path-ID the ledger
// has already recorded, so a restarted watch process does not re-ingest
// sessions it has already seen.
func New(dbPath string, radius uint8, port int, idleTimeout time.Duration) (*Server, error) {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return nil, err
	}

	tracker := coverage.New(radius)
	seen, err := store.SeenPathIDs()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to warm path-seen set: %w", err)
	}
	for _, id := range seen {
		tracker.AddPath(id)
	}

	return &Server{
		tracker:      tracker,
		store:        store,
		port:         port,
		idleTimeout:  idleTimeout,
		lastActivity: time.Now(),
		clients:      make(map[string]*wsConn),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start runs the HTTP server until it is shut down by a signal or idle
// timeout.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/coverage", s.handleCoverage)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/ingest", s.handleIngest)
	mux.HandleFunc("/ws", s.handleWebSocket)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	if s.idleTimeout > 0 {
		go s.idleTimeoutChecker()
	}
	go s.handleShutdownSignals()

	err = s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleShutdownSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		fmt.Println("\nShutting down server...")
	case <-s.shutdownChan:
		fmt.Println("\nIdle timeout reached. Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.httpServer.Shutdown(ctx)
	s.store.Close()
}

func (s *Server) idleTimeoutChecker() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if len(s.clients) > 0 {
				s.lastActivity = time.Now()
				s.mu.Unlock()
				continue
			}
			idle := time.Since(s.lastActivity)
			s.mu.Unlock()

			if idle >= s.idleTimeout {
				close(s.shutdownChan)
				return
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *Server) recordActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// coverageSnapshot is the JSON shape of the current coverage metric.
type coverageSnapshot struct {
	DistinctCount  int    `json:"distinct_count"`
	ComponentCount int    `json:"component_count"`
	Radius         uint8  `json:"radius"`
}

func (s *Server) snapshot() coverageSnapshot {
	return coverageSnapshot{
		DistinctCount:  s.tracker.DistinctCount(),
		ComponentCount: s.tracker.ComponentCount(),
		Radius:         s.tracker.Radius(),
	}
}

// API handlers

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.snapshot())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()

	records, err := s.store.Sessions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.recordActivity()

	var req struct {
		PathID       string   `json:"path_id"`
		Source       string   `json:"source"`
		Fingerprints []uint64 `json:"fingerprints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pathID := req.PathID
	if pathID == "" {
		pathID = session.PathID(req.Fingerprints)
	}

	// The tracker is single-writer; concurrent requests are serialized here.
	s.mu.Lock()
	added, skipped := session.Ingest(s.tracker, pathID, req.Fingerprints)
	snap := s.snapshot()
	s.mu.Unlock()
	if !skipped {
		rec := storage.SessionRecord{
			PathID:          pathID,
			Source:          req.Source,
			FrameCount:      len(req.Fingerprints),
			DistinctAfter:   snap.DistinctCount,
			ComponentsAfter: snap.ComponentCount,
			Radius:          int(snap.Radius),
		}
		if err := s.store.RecordSession(rec); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.broadcastSnapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"added":   added,
		"skipped": skipped,
	})
}

// broadcastSnapshot pushes the current coverage snapshot to every
// connected websocket client.
func (s *Server) broadcastSnapshot() {
	body, err := json.Marshal(s.snapshot())
	if err != nil {
		return
	}

	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.sendText(string(body))
	}
}

func (s *Server) addClient(id string, c *wsConn) {
	s.mu.Lock()
	s.clients[id] = c
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Server) removeClient(id string) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// newClientID tags a connecting websocket client for the activity log.
func newClientID() string {
	return uuid.NewString()
}
