// Package ws streams world snapshots to remote viewers over websockets.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"rigidsim/internal/physics"

	"github.com/gorilla/websocket"
)

const (
	DefaultUpdateInterval = 50 * time.Millisecond
	writeTimeout          = 5 * time.Second
)

// SnapshotSource is anything that publishes snapshots, usually a
// *physics.World.
type SnapshotSource interface {
	Snapshot() *physics.Snapshot
}

// Stats is the body of GET /stats.
type Stats struct {
	Step      uint64            `json:"step"`
	SimTimeMs float64           `json:"simTimeMs"`
	Bodies    int               `json:"bodies"`
	Clients   int               `json:"clients"`
	Last      physics.StepStats `json:"last"`
}

// Server pushes the latest snapshot to every connected client at a fixed
// interval. Clients only receive; anything they send is discarded.
type Server struct {
	Logger         *log.Logger
	UpdateInterval time.Duration

	source   SnapshotSource
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*SafeWriter]struct{}
	done    chan struct{}
	closed  bool
}

func NewServer(source SnapshotSource) *Server {
	return &Server{
		Logger:         log.Default(),
		UpdateInterval: DefaultUpdateInterval,
		source:         source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*SafeWriter]struct{}),
		done:    make(chan struct{}),
	}
}

// Handler routes /snapshots and /stats.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshots", s.HandleSnapshots)
	mux.HandleFunc("/stats", s.HandleStats)
	return mux
}

// HandleSnapshots upgrades the request and streams snapshots until the
// client leaves or the server closes.
func (s *Server) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("Stream: websocket upgrade error: %v", err)
		return
	}
	safeConn := NewSafeWriter(conn)
	if !s.addClient(safeConn) {
		safeConn.WriteClose(websocket.CloseGoingAway, "server closing")
		safeConn.Close()
		return
	}
	defer func() {
		s.removeClient(safeConn)
		safeConn.Close()
	}()
	s.logf("Stream: client connected from %s", conn.RemoteAddr())

	// Control frames are only processed while reading
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logf("Stream: read error: %v", err)
				}
				return
			}
		}
	}()

	interval := s.UpdateInterval
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *physics.Snapshot
	send := func() bool {
		snap := s.source.Snapshot()
		if snap == nil || snap == last {
			return true
		}
		last = snap
		if err := safeConn.WriteJSON(snap, writeTimeout); err != nil {
			s.logf("Stream: write error: %v", err)
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-gone:
			s.logf("Stream: client %s disconnected", conn.RemoteAddr())
			return
		case <-s.done:
			safeConn.WriteClose(websocket.CloseGoingAway, "server closing")
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// HandleStats reports the latest step statistics as JSON.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats := Stats{Clients: s.Clients()}
	if snap := s.source.Snapshot(); snap != nil {
		stats.Step = snap.Step
		stats.SimTimeMs = snap.SimTimeMs
		stats.Bodies = len(snap.Bodies)
		stats.Last = snap.Stats
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.logf("Stream: encode stats: %v", err)
	}
}

// Clients returns the number of connected stream clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client. Later connections are refused.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

func (s *Server) addClient(c *SafeWriter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) removeClient(c *SafeWriter) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *Server) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
