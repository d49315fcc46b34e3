package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateBoard checks the committed-state invariants of a board.
// It returns a *ValidationError if any rules fail, or nil if the board is valid.
func ValidateBoard(b *Board) error {
	var ve ValidationError

	if b.Version <= 0 {
		ve.add("version", "must be positive, got %d", b.Version)
	}
	if !b.Orientation.IsValid() {
		ve.add("orientation", "invalid value %q", b.Orientation)
	}

	for id, n := range b.Nodes {
		if n.ID != id {
			ve.add("nodes."+id, "id mismatch %q", n.ID)
		}
		if !n.Type().IsValid() {
			ve.add("nodes."+id, "invalid type %q", n.Type())
		}
		if n.LaneID != "" {
			if _, ok := b.Lanes[n.LaneID]; !ok {
				ve.add("nodes."+id, "unknown lane %q", n.LaneID)
			}
		}
		if g, ok := n.Payload.(GroupPayload); ok {
			for _, m := range g.Members {
				if !b.HasNode(m) {
					ve.add("nodes."+id, "unknown group member %q", m)
				}
			}
		}
	}

	seen := make(map[Signature]bool, len(b.Edges))
	for i, e := range b.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		if !e.Type.IsValid() {
			ve.add(field, "invalid type %q", e.Type)
		}
		if !b.HasNode(e.From) {
			ve.add(field, "unknown source %q", e.From)
		}
		if !b.HasNode(e.To) {
			ve.add(field, "unknown target %q", e.To)
		}
		if seen[e.Signature()] {
			ve.add(field, "duplicate edge %s -> %s (%s)", e.From, e.To, e.Type)
		}
		seen[e.Signature()] = true
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
