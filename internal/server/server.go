// Package server exposes a board session over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/session"
)

// Server serves one board session.
type Server struct {
	session *session.Session
	hub     *Hub
	logger  *slog.Logger
}

// New returns a server for sess. Events published to hub reach the event
// stream; a nil hub gets a private one.
func New(sess *session.Session, hub *Hub, logger *slog.Logger) *Server {
	if hub == nil {
		hub = NewHub()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{session: sess, hub: hub, logger: logger}
}

// inputError indicates invalid user input.
// The HTTP layer maps this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }

// statusOf maps a session error to an HTTP status.
func statusOf(err error) int {
	var ie inputError
	switch {
	case errors.As(err, &ie), errors.Is(err, session.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnknownTask),
		errors.Is(err, session.ErrUnknownNode),
		errors.Is(err, session.ErrUnknownEdge),
		errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docstore.ErrExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err with the status it maps to. Server errors are logged and
// their details withheld.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
