package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// relationRequest is the JSON body for POST and PATCH /v1/relations.
type relationRequest struct {
	From    string             `json:"from"`
	To      string             `json:"to"`
	Type    model.RelationKind `json:"type"`
	NewType model.RelationKind `json:"new_type,omitempty"`
	Swap    bool               `json:"swap,omitempty"`
}

func (req relationRequest) validate() error {
	switch {
	case req.From == "":
		return inputError("from is required")
	case req.To == "":
		return inputError("to is required")
	case req.Type == "":
		return inputError("type is required")
	}
	return nil
}

// handleLink handles POST /v1/relations.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req relationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	edge, err := s.session.Link(r.Context(), req.From, req.To, req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// handleUnlink handles DELETE /v1/relations.
// from, to and type are taken from query parameters.
func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := relationRequest{From: q.Get("from"), To: q.Get("to"), Type: model.RelationKind(q.Get("type"))}
	if err := req.validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	removed, err := s.session.Unlink(r.Context(), req.From, req.To, req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// handleRetype handles PATCH /v1/relations.
func (s *Server) handleRetype(w http.ResponseWriter, r *http.Request) {
	var req relationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	newType := req.NewType
	if newType == "" {
		newType = req.Type
	}
	edge, err := s.session.Retype(r.Context(), req.From, req.To, req.Type, newType, req.Swap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edge)
}
