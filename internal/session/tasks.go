package session

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/events"
	"github.com/alfredjeanlab/taskboard/internal/layout"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// CreateTask appends a checklist line to the document at path and places
// the new task on the board.
func (s *Session) CreateTask(ctx context.Context, path, title string, at Placement) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.LaneID != "" {
		if _, ok := s.board.Lanes[at.LaneID]; !ok {
			return nil, invalidf("unknown lane %s", at.LaneID)
		}
	}
	title = strings.TrimSpace(title)
	if title == "" || strings.ContainsAny(title, "\r\n") {
		return nil, invalidf("task title must be a single non-empty line")
	}
	if strings.TrimSpace(path) == "" {
		return nil, invalidf("document path is required")
	}
	t, err := s.mutator.AppendTask(ctx, path, title)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicTaskCreated, events.TaskCreated{Board: s.opts.Name, Task: t.Clone()})
	if _, err := s.addNode(ctx, t.ID, model.TaskPayload{}, at); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// DeleteTask removes the task's line from its document and its node from
// the board.
func (s *Session) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks.Get(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownTask)
	}
	path := t.Location.Path
	changed, err := s.mutator.DeleteLine(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.dropNode(ctx, id)
	if err := s.save(ctx); err != nil {
		return err
	}
	s.publish(ctx, events.TopicTaskDeleted, events.TaskDeleted{Board: s.opts.Name, TaskID: id, Path: path})
	return nil
}

// ArchiveTask tombstones the task's line and removes its node. The line
// stays in the document.
func (s *Session) ArchiveTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.mutator.Tombstone(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.dropNode(ctx, id)
	if err := s.save(ctx); err != nil {
		return err
	}
	s.publish(ctx, events.TopicTaskArchived, events.TaskArchived{Board: s.opts.Name, TaskID: id})
	return nil
}

// SetCompleted ticks or clears a task's checkbox.
func (s *Session) SetCompleted(ctx context.Context, id string, done bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.mutator.SetCompleted(ctx, id, done)
	if err != nil || !changed {
		return changed, err
	}
	if s.refreshBoardRefs(ctx) {
		if err := s.save(ctx); err != nil {
			return true, err
		}
	}
	s.publish(ctx, events.TopicTaskCompleted, events.TaskCompleted{Board: s.opts.Name, TaskID: id, Completed: done})
	return true, nil
}

// Layout arranges ids and persists the new positions. An empty or unknown
// set is a no-op. Zero options fall back to the session's layout options.
func (s *Session) Layout(ctx context.Context, ids []string, opts layout.Options) (map[string]layout.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if opts == (layout.Options{}) {
		opts = s.opts.Layout
	}
	positions := layout.Arrange(s.board, ids, opts)
	if len(positions) == 0 {
		return positions, nil
	}
	moved := layout.Apply(s.board, positions)
	if moved > 0 {
		if err := s.save(ctx); err != nil {
			return nil, err
		}
	}
	placed := make([]string, 0, len(positions))
	for _, id := range ids {
		if _, ok := positions[id]; ok && !slices.Contains(placed, id) {
			placed = append(placed, id)
		}
	}
	s.publish(ctx, events.TopicLayoutApplied, events.LayoutApplied{Board: s.opts.Name, Nodes: placed, Moved: moved})
	return positions, nil
}

func (s *Session) dropNode(ctx context.Context, id string) {
	if s.board.RemoveNode(id) {
		s.publish(ctx, events.TopicNodeRemoved, events.NodeRemoved{Board: s.opts.Name, NodeID: id})
	}
}
