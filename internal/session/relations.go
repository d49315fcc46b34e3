package session

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/taskboard/internal/events"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Link draws an edge from -> to of the given kind. When the kind is stored
// in text and to is a task, the token referencing from is written into to's
// line as well. Linking an existing edge is a no-op.
func (s *Session) Link(ctx context.Context, from, to string, kind model.RelationKind) (model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge := model.Edge{From: from, To: to, Type: kind}
	if err := s.checkEdge(edge); err != nil {
		return edge, err
	}
	if kind.HasToken() && s.tasks.Has(to) {
		if _, err := s.mutator.ApplyRelation(ctx, kind, from, to); err != nil {
			return edge, err
		}
	}
	if !s.board.AddEdge(edge) {
		return edge, nil
	}
	if err := s.save(ctx); err != nil {
		return edge, err
	}
	s.publish(ctx, events.TopicRelationApplied, events.RelationApplied{Board: s.opts.Name, Edge: edge})
	return edge, nil
}

// Unlink removes the edge from -> to of the given kind together with its
// text token. It reports whether anything changed.
func (s *Session) Unlink(ctx context.Context, from, to string, kind model.RelationKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge := model.Edge{From: from, To: to, Type: kind}
	if !kind.IsValid() {
		return false, invalidf("relation kind %q", kind)
	}
	textChanged := false
	if kind.HasToken() && s.tasks.Has(to) {
		changed, err := s.mutator.RemoveRelation(ctx, kind, from, to)
		if err != nil {
			return false, err
		}
		textChanged = changed
	}
	if !s.board.RemoveEdge(edge.Signature()) {
		return textChanged, nil
	}
	if err := s.save(ctx); err != nil {
		return true, err
	}
	s.publish(ctx, events.TopicRelationRemoved, events.RelationRemoved{Board: s.opts.Name, Edge: edge})
	return true, nil
}

// Retype changes the kind of the edge from -> to, optionally reversing it.
// The old token is removed from the old target and the new one written to
// the new target, whichever ends are tasks. The edge keeps its position in
// the edge list and its label.
func (s *Session) Retype(ctx context.Context, from, to string, oldKind, newKind model.RelationKind, swap bool) (model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := model.Edge{From: from, To: to, Type: oldKind}
	idx := -1
	for i, e := range s.board.Edges {
		if e.Signature() == old.Signature() {
			idx = i
			old = e
			break
		}
	}
	if idx < 0 {
		return old, fmt.Errorf("%s -> %s (%s): %w", from, to, oldKind, ErrUnknownEdge)
	}
	if !newKind.IsValid() {
		return old, invalidf("relation kind %q", newKind)
	}

	edge, err := s.mutator.Retype(ctx, old.From, old.To, oldKind, newKind, swap)
	if err != nil {
		return old, err
	}
	next := model.Edge{From: edge.From, To: edge.To, Type: newKind, Label: old.Label}
	if next.Signature() != old.Signature() && s.board.HasEdge(next.Signature()) {
		// The new edge already exists; the old one just goes away.
		s.board.Edges = append(s.board.Edges[:idx], s.board.Edges[idx+1:]...)
	} else {
		s.board.Edges[idx] = next
	}
	if err := s.save(ctx); err != nil {
		return next, err
	}
	s.publish(ctx, events.TopicRelationRetyped, events.RelationRetyped{Board: s.opts.Name, Old: old, New: next})
	return next, nil
}

func (s *Session) checkEdge(e model.Edge) error {
	if !e.Type.IsValid() {
		return invalidf("relation kind %q", e.Type)
	}
	if e.From == e.To {
		return invalidf("cannot relate %s to itself", e.From)
	}
	if _, err := s.node(e.From); err != nil {
		return err
	}
	_, err := s.node(e.To)
	return err
}
