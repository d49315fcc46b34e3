package model

import (
	"fmt"
	"sort"
)

// CurrentVersion is the board schema version written by this package.
const CurrentVersion = 1

// Orientation selects the primary layout axis.
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

// IsValid checks whether the orientation is a known value.
func (o Orientation) IsValid() bool {
	return o == OrientationVertical || o == OrientationHorizontal
}

// Lane is a rectangular region that constrains its member nodes.
type Lane struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	W           float64     `json:"w"`
	H           float64     `json:"h"`
	Orientation Orientation `json:"orientation,omitempty"`
}

// Rect returns the lane's rectangle.
func (l *Lane) Rect() Rect {
	return Rect{X: l.X, Y: l.Y, W: l.W, H: l.H}
}

// Board is the persisted graph.
type Board struct {
	Version     int              `json:"version"`
	Nodes       map[string]*Node `json:"nodes"`
	Edges       []Edge           `json:"edges"`
	Lanes       map[string]*Lane `json:"lanes"`
	Orientation Orientation      `json:"orientation"`
	SnapToGrid  bool             `json:"snapToGrid"`
	Title       string           `json:"title"`
}

// NewBoard returns an empty board with default fields.
func NewBoard(title string) *Board {
	return &Board{
		Version:     CurrentVersion,
		Nodes:       make(map[string]*Node),
		Edges:       []Edge{},
		Lanes:       make(map[string]*Lane),
		Orientation: OrientationVertical,
		Title:       title,
	}
}

// Normalize fills in defaults after decoding: nil collections, missing
// version and orientation, and node/lane ids taken from their map keys.
func (b *Board) Normalize() {
	if b.Version == 0 {
		b.Version = CurrentVersion
	}
	if b.Nodes == nil {
		b.Nodes = make(map[string]*Node)
	}
	if b.Lanes == nil {
		b.Lanes = make(map[string]*Lane)
	}
	if b.Edges == nil {
		b.Edges = []Edge{}
	}
	if !b.Orientation.IsValid() {
		b.Orientation = OrientationVertical
	}
	for id, n := range b.Nodes {
		if n == nil {
			delete(b.Nodes, id)
			continue
		}
		n.ID = id
		if n.Payload == nil {
			n.Payload = TaskPayload{}
		}
	}
	for id, l := range b.Lanes {
		if l == nil {
			delete(b.Lanes, id)
			continue
		}
		l.ID = id
	}
}

// Node returns the node with the given id.
func (b *Board) Node(id string) (*Node, bool) {
	n, ok := b.Nodes[id]
	return n, ok
}

// HasNode reports whether id is a node on the board.
func (b *Board) HasNode(id string) bool {
	_, ok := b.Nodes[id]
	return ok
}

// NodeIDs returns the node ids in sorted order.
func (b *Board) NodeIDs() []string {
	ids := make([]string, 0, len(b.Nodes))
	for id := range b.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddNode inserts a node. Lane members are clamped into their lane.
func (b *Board) AddNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("node id is required")
	}
	if _, exists := b.Nodes[n.ID]; exists {
		return fmt.Errorf("node %s already exists", n.ID)
	}
	if n.LaneID != "" {
		if _, ok := b.Lanes[n.LaneID]; !ok {
			return fmt.Errorf("node %s: unknown lane %s", n.ID, n.LaneID)
		}
	}
	if n.Payload == nil {
		n.Payload = TaskPayload{}
	}
	b.Nodes[n.ID] = n
	b.place(n, n.X, n.Y)
	return nil
}

// RemoveNode deletes a node together with every edge touching it and its
// membership in any group.
func (b *Board) RemoveNode(id string) bool {
	if _, ok := b.Nodes[id]; !ok {
		return false
	}
	delete(b.Nodes, id)
	b.RemoveEdgesOf(id)
	for _, n := range b.Nodes {
		g, ok := n.Payload.(GroupPayload)
		if !ok {
			continue
		}
		kept := g.Members[:0:0]
		for _, m := range g.Members {
			if m != id {
				kept = append(kept, m)
			}
		}
		g.Members = kept
		n.Payload = g
	}
	return true
}

// HasEdge reports whether an edge with the given signature exists.
func (b *Board) HasEdge(sig Signature) bool {
	for _, e := range b.Edges {
		if e.Signature() == sig {
			return true
		}
	}
	return false
}

// AddEdge appends e unless an edge with the same signature exists.
func (b *Board) AddEdge(e Edge) bool {
	if b.HasEdge(e.Signature()) {
		return false
	}
	b.Edges = append(b.Edges, e)
	return true
}

// RemoveEdge deletes the edge with the given signature.
func (b *Board) RemoveEdge(sig Signature) bool {
	for i, e := range b.Edges {
		if e.Signature() == sig {
			b.Edges = append(b.Edges[:i], b.Edges[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveEdgesOf deletes every edge touching id and returns how many went.
func (b *Board) RemoveEdgesOf(id string) int {
	kept := b.Edges[:0]
	removed := 0
	for _, e := range b.Edges {
		if e.Touches(id) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	b.Edges = kept
	return removed
}

// MoveNode sets a node's position, snapping to the grid and clamping into
// the node's lane as configured.
func (b *Board) MoveNode(id string, x, y float64) bool {
	n, ok := b.Nodes[id]
	if !ok {
		return false
	}
	b.place(n, x, y)
	return true
}

// ResizeNode sets a node's size and re-clamps it into its lane.
func (b *Board) ResizeNode(id string, w, h float64) bool {
	n, ok := b.Nodes[id]
	if !ok {
		return false
	}
	n.W, n.H = w, h
	b.place(n, n.X, n.Y)
	return true
}

func (b *Board) place(n *Node, x, y float64) {
	if b.SnapToGrid {
		x, y = Snap(x), Snap(y)
	}
	if lane, ok := b.Lanes[n.LaneID]; ok && n.LaneID != "" {
		w, h := n.Size()
		x, y = lane.Rect().ClampPoint(x, y, w, h)
	}
	n.X, n.Y = x, y
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{
		Version:     b.Version,
		Nodes:       make(map[string]*Node, len(b.Nodes)),
		Edges:       append([]Edge{}, b.Edges...),
		Lanes:       make(map[string]*Lane, len(b.Lanes)),
		Orientation: b.Orientation,
		SnapToGrid:  b.SnapToGrid,
		Title:       b.Title,
	}
	for id, n := range b.Nodes {
		c.Nodes[id] = n.Clone()
	}
	for id, l := range b.Lanes {
		lc := *l
		c.Lanes[id] = &lc
	}
	return c
}

// Summary counts task nodes on the board and how many of them are completed
// according to tasks.
func (b *Board) Summary(tasks *TaskSet) (total, done int) {
	for id, n := range b.Nodes {
		if n.Type() != NodeTask {
			continue
		}
		total++
		if t, ok := tasks.Get(id); ok && t.Completed {
			done++
		}
	}
	return total, done
}
