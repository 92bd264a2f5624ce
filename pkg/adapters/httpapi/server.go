// Package httpapi exposes a document build over HTTP: read-only views of
// the tree and its holds, plus release and finalize endpoints.
//
// The document builder is single-threaded, so the server serializes every
// request that touches it behind one mutex.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document defines the interface for the document build behind the API.
type Document interface {
	DocID() string
	CursorID() domain.NodeID
	Snapshot() []domain.NodeInfo
	Stats() domain.TreeStats
	Holds() []string
	Release(ctx context.Context, handle string) (bool, error)
	Finalize(ctx context.Context) error
	Finalized() bool
}

// Server handles the HTTP surface of a single document build.
type Server struct {
	mu  sync.Mutex
	Doc Document
}

// NewHandler creates a new HTTP handler for the document.
func NewHandler(doc Document) http.Handler {
	server := &Server{Doc: doc}
	r := chi.NewRouter()

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/tree", server.GetTree)
	r.Get("/waiting", server.GetWaiting)
	r.Get("/mermaid", server.GetMermaid)
	r.Post("/finalize", server.Finalize)
	r.Post("/release/{handle}", server.Release)
	r.Handle("/metrics", promhttp.Handler())

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.Doc.Stats()
	s.mu.Unlock()

	resp := map[string]any{
		"app":       "canopy-http",
		"version":   strings.TrimSpace(canopy.Version),
		"doc_id":    stats.DocID,
		"finalized": stats.Finalized,
		"nodes":     stats.Nodes,
		"committed": stats.Committed,
		"waiting":   stats.Waiting,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetTree handles the GET /tree request.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	infos := s.Doc.Snapshot()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		slog.Error("GetTree response encode failed", "error", err)
	}
}

// GetWaiting handles the GET /waiting request.
func (s *Server) GetWaiting(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	holds := s.Doc.Holds()
	s.mu.Unlock()

	resp := map[string]any{
		"holds": holds,
		"count": len(holds),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("GetWaiting response encode failed", "error", err)
	}
}

// GetMermaid handles the GET /mermaid request.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	infos := s.Doc.Snapshot()
	cursor := s.Doc.CursorID()
	s.mu.Unlock()

	diagram := graph.GenerateMermaid(infos, &graph.Overlay{CursorNode: cursor})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, diagram)
}

// Finalize handles the POST /finalize request.
func (s *Server) Finalize(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.Doc.Finalize(r.Context())
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, domain.ErrFinalized) {
			http.Error(w, "Document already finalized", http.StatusConflict)
			return
		}
		http.Error(w, fmt.Sprintf("Finalize error: %v", err), http.StatusInternalServerError)
		slog.Error("Finalize failed", "error", err)
		return
	}

	resp := map[string]any{"finalized": true}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Release handles the POST /release/{handle} request.
func (s *Server) Release(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	s.mu.Lock()
	released, err := s.Doc.Release(r.Context(), handle)
	s.mu.Unlock()

	if err != nil {
		http.Error(w, fmt.Sprintf("Release error: %v", err), http.StatusInternalServerError)
		slog.Error("Release failed", "error", err, "handle", handle)
		return
	}
	if !released {
		http.Error(w, fmt.Sprintf("Unknown hold: %s", handle), http.StatusNotFound)
		return
	}

	resp := map[string]any{"released": true, "handle": handle}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func init() {
	// Configure default slog to output JSON to stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)
}
