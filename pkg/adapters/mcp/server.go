// Package mcp exposes a document build as an MCP server, so agent hosts can
// grow, hold, and flush document trees over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// BuildState is the unified tool response: where the cursor sits and what
// the document looks like after the call.
type BuildState struct {
	DocID     string           `json:"doc_id" jsonschema_description:"The document's unique identifier"`
	Cursor    domain.NodeID    `json:"cursor" jsonschema_description:"ID of the element the cursor points at"`
	Role      domain.Role      `json:"role" jsonschema_description:"Role of the element the cursor points at"`
	Holds     []string         `json:"holds" jsonschema_description:"Currently held handles"`
	Stats     domain.TreeStats `json:"stats" jsonschema_description:"Node/commit/waiting counts"`
	Released  *bool            `json:"released,omitempty" jsonschema_description:"Whether release_section found the handle"`
	Finalized bool             `json:"finalized" jsonschema_description:"Whether the document is complete"`
}

// Document defines the builder surface the MCP server drives.
type Document interface {
	DocID() string
	CursorID() domain.NodeID
	CursorRole() domain.Role
	Open(role domain.Role) error
	Close() error
	AddText(text string) error
	SetTitle(title string) error
	SetAttr(key, value string) error
	Hold(handle string) error
	Release(ctx context.Context, handle string) (bool, error)
	Flush(ctx context.Context) error
	Finalize(ctx context.Context) error
	Finalized() bool
	Holds() []string
	Snapshot() []domain.NodeInfo
	Stats() domain.TreeStats
}

// Server wraps a document build and exposes it as an MCP Server. The build
// is single-threaded, so every tool call serializes on one mutex.
type Server struct {
	mu        sync.Mutex
	doc       Document
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance around the document.
func NewServer(doc Document) *Server {
	s := &Server{
		doc:       doc,
		mcpServer: server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: open_section
	openTool := mcp.NewTool("open_section",
		mcp.WithDescription("Open a child element under the cursor and move into it."),
		mcp.WithString("role", mcp.Required(), mcp.Description("Element role (section, paragraph, heading, ...)")),
		mcp.WithString("title", mcp.Description("Optional element title")),
		mcp.WithOutputSchema[BuildState](),
	)
	s.mcpServer.AddTool(openTool, mcp.NewStructuredToolHandler(s.handleOpenSection))

	// TOOL: add_content
	contentTool := mcp.NewTool("add_content",
		mcp.WithDescription("Append a text payload to the element under the cursor."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Content text")),
		mcp.WithOutputSchema[BuildState](),
	)
	s.mcpServer.AddTool(contentTool, mcp.NewStructuredToolHandler(s.handleAddContent))

	// TOOL: close_section
	closeTool := mcp.NewTool("close_section",
		mcp.WithDescription("Move the cursor back to the parent element."),
		mcp.WithOutputSchema[BuildState](),
	)
	s.mcpServer.AddTool(closeTool, mcp.NewStructuredToolHandler(s.handleCloseSection))

	// TOOL: hold_section
	holdTool := mcp.NewTool("hold_section",
		mcp.WithDescription("Park the element under the cursor: no flush commits it (or its subtree) until the handle is released."),
		mcp.WithString("handle", mcp.Required(), mcp.Description("Hold handle name")),
		mcp.WithOutputSchema[BuildState](),
	)
	s.mcpServer.AddTool(holdTool, mcp.NewStructuredToolHandler(s.handleHoldSection))

	// TOOL: release_section
	releaseTool := mcp.NewTool("release_section",
		mcp.WithDescription("Release a held element. If its parent already committed, the element and its subtree commit now."),
		mcp.WithString("handle", mcp.Required(), mcp.Description("Hold handle name")),
		mcp.WithOutputSchema[BuildState](),
	)
	s.mcpServer.AddTool(releaseTool, mcp.NewStructuredToolHandler(s.handleReleaseSection))

	// TOOL: flush_section
	flushTool := mcp.NewTool("flush_section",
		mcp.WithDescription("Commit the element under the cursor and its finished subtree, then move to its parent. Held elements stay back."),
		mcp.WithOutputSchema[BuildState](),
	)
	s.mcpServer.AddTool(flushTool, mcp.NewStructuredToolHandler(s.handleFlushSection))

	// TOOL: finalize
	finalizeTool := mcp.NewTool("finalize",
		mcp.WithDescription("Release every hold and commit the whole remaining document, root included."),
		mcp.WithOutputSchema[BuildState](),
	)
	s.mcpServer.AddTool(finalizeTool, mcp.NewStructuredToolHandler(s.handleFinalize))

	// TOOL: get_tree
	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Get the full document tree for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		infos := s.doc.Snapshot()
		s.mu.Unlock()

		jsonBytes, _ := json.Marshal(infos)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleOpenSection(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BuildState, error) {
	role, _ := args["role"].(string)
	title, _ := args["title"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.Open(domain.Role(role)); err != nil {
		return BuildState{}, fmt.Errorf("open failed: %w", err)
	}
	if title != "" {
		if err := s.doc.SetTitle(title); err != nil {
			return BuildState{}, fmt.Errorf("set title failed: %w", err)
		}
	}
	return s.buildState(), nil
}

func (s *Server) handleAddContent(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BuildState, error) {
	text, _ := args["text"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.AddText(text); err != nil {
		return BuildState{}, fmt.Errorf("add content failed: %w", err)
	}
	return s.buildState(), nil
}

func (s *Server) handleCloseSection(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BuildState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.Close(); err != nil {
		return BuildState{}, fmt.Errorf("close failed: %w", err)
	}
	return s.buildState(), nil
}

func (s *Server) handleHoldSection(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BuildState, error) {
	handle, _ := args["handle"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.Hold(handle); err != nil {
		return BuildState{}, fmt.Errorf("hold failed: %w", err)
	}
	return s.buildState(), nil
}

func (s *Server) handleReleaseSection(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BuildState, error) {
	handle, _ := args["handle"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	released, err := s.doc.Release(ctx, handle)
	if err != nil {
		return BuildState{}, fmt.Errorf("release failed: %w", err)
	}
	state := s.buildState()
	state.Released = &released
	return state, nil
}

func (s *Server) handleFlushSection(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BuildState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.Flush(ctx); err != nil {
		return BuildState{}, fmt.Errorf("flush failed: %w", err)
	}
	return s.buildState(), nil
}

func (s *Server) handleFinalize(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BuildState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.Finalize(ctx); err != nil {
		return BuildState{}, fmt.Errorf("finalize failed: %w", err)
	}
	return s.buildState(), nil
}

// buildState snapshots the cursor and counters. Callers hold s.mu.
func (s *Server) buildState() BuildState {
	return BuildState{
		DocID:     s.doc.DocID(),
		Cursor:    s.doc.CursorID(),
		Role:      s.doc.CursorRole(),
		Holds:     s.doc.Holds(),
		Stats:     s.doc.Stats(),
		Finalized: s.doc.Finalized(),
	}
}

func (s *Server) registerResources() {
	// EXPOSE: canopy://tree
	s.mcpServer.AddResource(mcp.NewResource("canopy://tree", "Current Document Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		infos := s.doc.Snapshot()
		s.mu.Unlock()

		jsonBytes, err := json.Marshal(infos)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tree: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "canopy://tree",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
