package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/session"
)

// handleListTasks handles GET /v1/tasks.
// Optional query params: path (document), completed (true/false).
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var completed *bool
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid completed value")
			return
		}
		completed = &b
	}
	path := q.Get("path")

	tasks := []*model.Task{}
	for _, t := range s.session.Snapshot().Tasks {
		if path != "" && t.Location.Path != path {
			continue
		}
		if completed != nil && t.Completed != *completed {
			continue
		}
		tasks = append(tasks, t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "total": len(tasks)})
}

// handleGetTask handles GET /v1/tasks/{id}.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.session.Task(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// createTaskRequest is the JSON body for POST /v1/tasks.
type createTaskRequest struct {
	Path  string `json:"path"`
	Title string `json:"title"`

	session.Placement
}

// handleCreateTask handles POST /v1/tasks.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, err := s.session.CreateTask(r.Context(), req.Path, req.Title, req.Placement)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// handleDeleteTask handles DELETE /v1/tasks/{id}.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleArchiveTask handles POST /v1/tasks/{id}/archive.
func (s *Server) handleArchiveTask(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ArchiveTask(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// completeTaskRequest is the optional JSON body for
// POST /v1/tasks/{id}/complete. An empty body marks the task done.
type completeTaskRequest struct {
	Completed *bool `json:"completed"`
}

// handleCompleteTask handles POST /v1/tasks/{id}/complete.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	done := true
	if req.Completed != nil {
		done = *req.Completed
	}
	changed, err := s.session.SetCompleted(r.Context(), r.PathValue("id"), done)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed, "completed": done})
}
