package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/events"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Placement positions a new node. LaneID and Color are optional.
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	LaneID string  `json:"lane_id,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// AddTaskNode puts an existing task on the board. Edges derivable from text
// whose other end is already on the board are drawn at the same time. If the
// task is already on the board its node is returned unchanged.
func (s *Session) AddTaskNode(ctx context.Context, taskID string, at Placement) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tasks.Has(taskID) {
		return nil, fmt.Errorf("%s: %w", taskID, ErrUnknownTask)
	}
	if n, ok := s.board.Node(taskID); ok {
		return n.Clone(), nil
	}
	return s.addNode(ctx, taskID, model.TaskPayload{}, at)
}

// AddNote puts a node linked to the document at path on the board. The path
// may omit its markdown extension.
func (s *Session) AddNote(ctx context.Context, path string, at Placement) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(path) == "" {
		return nil, invalidf("note path is required")
	}
	if resolved, err := docstore.Resolve(ctx, s.docs, path); err == nil {
		path = resolved
	}
	return s.addNode(ctx, "", model.NotePayload{Path: path}, at)
}

// AddPostIt puts a free-text node on the board.
func (s *Session) AddPostIt(ctx context.Context, content string, at Placement) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNode(ctx, "", model.PostItPayload{Content: content}, at)
}

// AddBoardRef puts a reference to another board on the board. Its cached
// summary is filled in immediately when the target can be read.
func (s *Session) AddBoardRef(ctx context.Context, path string, at Placement) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(path) == "" {
		return nil, invalidf("board path is required")
	}
	if path == s.opts.BoardPath {
		return nil, invalidf("a board cannot reference itself")
	}
	payload, err := s.boardSummary(ctx, path)
	if err != nil {
		s.logger.Warn("board reference unreadable", "path", path, "err", err)
		payload = model.BoardPayload{Path: path}
	}
	return s.addNode(ctx, "", payload, at)
}

// CreateGroup adds a group node containing members, which must all be nodes.
func (s *Session) CreateGroup(ctx context.Context, name string, members []string, at Placement) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(members))
	var kept []string
	for _, m := range members {
		if _, err := s.node(m); err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			kept = append(kept, m)
		}
	}
	return s.addNode(ctx, "", model.GroupPayload{Name: name, Members: kept}, at)
}

// SetGroupCollapsed folds or unfolds a group node.
func (s *Session) SetGroupCollapsed(ctx context.Context, id string, collapsed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(id)
	if err != nil {
		return err
	}
	g, ok := n.Payload.(model.GroupPayload)
	if !ok {
		return invalidf("node %s is not a group", id)
	}
	if g.Collapsed == collapsed {
		return nil
	}
	g.Collapsed = collapsed
	n.Payload = g
	return s.save(ctx)
}

// AddLane adds a lane rectangle to the board.
func (s *Session) AddLane(ctx context.Context, label string, r model.Rect, orientation model.Orientation) (*model.Lane, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.W <= 0 || r.H <= 0 {
		return nil, invalidf("lane size must be positive")
	}
	if orientation != "" && !orientation.IsValid() {
		return nil, invalidf("orientation %q", orientation)
	}
	id, err := s.newNodeID()
	if err != nil {
		return nil, err
	}
	lane := &model.Lane{ID: id, Label: label, X: r.X, Y: r.Y, W: r.W, H: r.H, Orientation: orientation}
	s.board.Lanes[id] = lane
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	c := *lane
	return &c, nil
}

// DeleteNode removes a node and every edge touching it from the board. The
// documents are left alone, so a deleted task node only leaves the board.
func (s *Session) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.board.RemoveNode(id) {
		return fmt.Errorf("%s: %w", id, ErrUnknownNode)
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	s.publish(ctx, events.TopicNodeRemoved, events.NodeRemoved{Board: s.opts.Name, NodeID: id})
	return nil
}

// MoveNode sets a node's position. The stored position may differ from
// (x, y) after grid snapping and lane clamping.
func (s *Session) MoveNode(ctx context.Context, id string, x, y float64) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.board.MoveNode(id, x, y) {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownNode)
	}
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	n := s.board.Nodes[id]
	s.publish(ctx, events.TopicNodeMoved, events.NodeMoved{Board: s.opts.Name, NodeID: id, X: n.X, Y: n.Y})
	return n.Clone(), nil
}

// ResizeNode sets a node's size. Zero keeps the default for its type.
func (s *Session) ResizeNode(ctx context.Context, id string, w, h float64) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w < 0 || h < 0 {
		return nil, invalidf("size must not be negative")
	}
	if !s.board.ResizeNode(id, w, h) {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownNode)
	}
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	return s.board.Nodes[id].Clone(), nil
}

// addNode inserts a node, mints an id when none is given, draws derivable
// edges and persists the board.
func (s *Session) addNode(ctx context.Context, id string, payload model.Payload, at Placement) (*model.Node, error) {
	if id == "" {
		var err error
		if id, err = s.newNodeID(); err != nil {
			return nil, err
		}
	}
	n := &model.Node{ID: id, X: at.X, Y: at.Y, LaneID: at.LaneID, Color: at.Color, Payload: payload}
	if err := s.board.AddNode(n); err != nil {
		return nil, invalidf("%v", err)
	}
	if n.Type() == model.NodeTask {
		s.linkDerived()
	}
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicNodeAdded, events.NodeAdded{Board: s.opts.Name, Node: n.Clone()})
	return n.Clone(), nil
}
