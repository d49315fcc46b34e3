package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/session"
)

// addNodeRequest is the JSON body for POST /v1/nodes. Which of the content
// fields are read depends on Type.
type addNodeRequest struct {
	Type    model.NodeType `json:"type"`
	TaskID  string         `json:"task_id,omitempty"`
	Path    string         `json:"path,omitempty"`
	Content string         `json:"content,omitempty"`
	Name    string         `json:"name,omitempty"`
	Members []string       `json:"members,omitempty"`

	session.Placement
}

// handleAddNode handles POST /v1/nodes.
func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	var (
		n   *model.Node
		err error
	)
	switch req.Type {
	case "", model.NodeTask:
		if req.TaskID == "" {
			err = inputError("task_id is required")
			break
		}
		n, err = s.session.AddTaskNode(ctx, req.TaskID, req.Placement)
	case model.NodeNote:
		n, err = s.session.AddNote(ctx, req.Path, req.Placement)
	case model.NodePostIt:
		n, err = s.session.AddPostIt(ctx, req.Content, req.Placement)
	case model.NodeBoard:
		n, err = s.session.AddBoardRef(ctx, req.Path, req.Placement)
	case model.NodeGroup:
		n, err = s.session.CreateGroup(ctx, req.Name, req.Members, req.Placement)
	default:
		err = inputError(fmt.Sprintf("unsupported node type %q", req.Type))
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// addLaneRequest is the JSON body for POST /v1/lanes.
type addLaneRequest struct {
	Label       string            `json:"label"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	W           float64           `json:"w"`
	H           float64           `json:"h"`
	Orientation model.Orientation `json:"orientation,omitempty"`
}

// handleAddLane handles POST /v1/lanes.
func (s *Server) handleAddLane(w http.ResponseWriter, r *http.Request) {
	var req addLaneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lane, err := s.session.AddLane(r.Context(), req.Label, model.Rect{X: req.X, Y: req.Y, W: req.W, H: req.H}, req.Orientation)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lane)
}

// updateNodeRequest is the JSON body for PATCH /v1/nodes/{id}. Only the
// fields present are applied.
type updateNodeRequest struct {
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	W         *float64 `json:"w,omitempty"`
	H         *float64 `json:"h,omitempty"`
	Collapsed *bool    `json:"collapsed,omitempty"`
}

// handleUpdateNode handles PATCH /v1/nodes/{id}.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		writeError(w, http.StatusBadRequest, "x and y must be given together")
		return
	}
	if (req.W == nil) != (req.H == nil) {
		writeError(w, http.StatusBadRequest, "w and h must be given together")
		return
	}

	ctx := r.Context()
	snap := s.session.Snapshot()
	n, ok := snap.Board.Node(id)
	if !ok {
		s.fail(w, r, fmt.Errorf("%s: %w", id, session.ErrUnknownNode))
		return
	}
	var err error
	if req.Collapsed != nil {
		if err = s.session.SetGroupCollapsed(ctx, id, *req.Collapsed); err != nil {
			s.fail(w, r, err)
			return
		}
		if g, ok := n.Payload.(model.GroupPayload); ok {
			g.Collapsed = *req.Collapsed
			n.Payload = g
		}
	}
	if req.W != nil {
		if n, err = s.session.ResizeNode(ctx, id, *req.W, *req.H); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if req.X != nil {
		if n, err = s.session.MoveNode(ctx, id, *req.X, *req.Y); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, n)
}

// handleDeleteNode handles DELETE /v1/nodes/{id}.
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteNode(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
