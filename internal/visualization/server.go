package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nvandessel/spikeloop/internal/topology"
)

// Server exposes the board and topology over HTTP while a simulation runs.
type Server struct {
	board      *Board
	spec       *topology.Spec
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a visualization server over a board and topology.
func NewServer(board *Board, spec *topology.Spec) *Server {
	return &Server{board: board, spec: spec}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server on an OS-assigned port and blocks
// until the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/select", s.handleSelect)
	mux.HandleFunc("/api/dot", s.handleDOT)
	mux.HandleFunc("/api/graph", s.handleGraph)

	// Let the OS pick a free port.
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleSnapshot returns the latest published network snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"paused":   s.board.Paused(),
		"selected": s.board.Selected(),
		"snapshot": snap,
	})
}

// handlePause sets or clears the pause flag polled by the simulation loop.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.board.SetPaused(req.Paused)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"paused": req.Paused})
}

// handleSelect records which layer the UI is focused on.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Layer string `json:"layer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Layer != "" {
		found := false
		for i := range s.spec.Layers {
			if s.spec.LayerName(i) == req.Layer {
				found = true
				break
			}
		}
		if !found {
			http.Error(w, "unknown layer: "+req.Layer, http.StatusNotFound)
			return
		}
	}

	s.board.Select(req.Layer)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"selected": req.Layer})
}

// handleDOT renders the topology as Graphviz DOT, live-annotated when a
// snapshot is available.
func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	dot := RenderDOT(s.spec, s.board.Snapshot())
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(dot))
}

// handleGraph returns the JSON graph representation.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	graph := RenderJSON(s.spec, s.board.Snapshot())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(graph)
}
