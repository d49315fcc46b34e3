package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/taskboard/internal/depgraph"
	"github.com/alfredjeanlab/taskboard/internal/layout"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/board", s.handleGetBoard)
	mux.HandleFunc("GET /v1/tree", s.handleGetTree)
	mux.HandleFunc("POST /v1/rescan", s.handleRescan)
	mux.HandleFunc("POST /v1/layout", s.handleLayout)
	mux.HandleFunc("POST /v1/relations", s.handleLink)
	mux.HandleFunc("DELETE /v1/relations", s.handleUnlink)
	mux.HandleFunc("PATCH /v1/relations", s.handleRetype)
	mux.HandleFunc("POST /v1/nodes", s.handleAddNode)
	mux.HandleFunc("POST /v1/lanes", s.handleAddLane)
	mux.HandleFunc("PATCH /v1/nodes/{id}", s.handleUpdateNode)
	mux.HandleFunc("DELETE /v1/nodes/{id}", s.handleDeleteNode)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /v1/tasks/{id}/archive", s.handleArchiveTask)
	mux.HandleFunc("POST /v1/tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return RecoveryMiddleware(s.logger, LoggingMiddleware(s.logger, AuthMiddleware(authToken, mux)))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetBoard handles GET /v1/board.
func (s *Server) handleGetBoard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot().Board)
}

// handleGetTree handles GET /v1/tree.
func (s *Server) handleGetTree(w http.ResponseWriter, _ *http.Request) {
	roots := s.session.Forest()
	if roots == nil {
		roots = []*depgraph.Tree{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roots": roots})
}

// handleRescan handles POST /v1/rescan.
func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Rescan(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// layoutRequest is the JSON body for POST /v1/layout. Omitted options use
// the session defaults.
type layoutRequest struct {
	IDs         []string          `json:"ids"`
	Orientation model.Orientation `json:"orientation"`
	SpacingA    float64           `json:"spacing_a"`
	SpacingB    float64           `json:"spacing_b"`
}

// handleLayout handles POST /v1/layout.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Orientation != "" && !req.Orientation.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid orientation")
		return
	}
	if req.SpacingA < 0 || req.SpacingB < 0 {
		writeError(w, http.StatusBadRequest, "spacing must not be negative")
		return
	}
	opts := layout.Options{Orientation: req.Orientation, SpacingA: req.SpacingA, SpacingB: req.SpacingB}
	positions, err := s.session.Layout(r.Context(), req.IDs, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
