// Package layout positions a subset of board nodes as a forest that avoids
// every node outside the subset.
//
// The primary axis A runs across siblings and the secondary axis B runs from
// parent to child. A vertical board maps A to x and B to y; a horizontal
// board swaps them.
package layout

import (
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Default spacing between nodes.
const (
	DefaultSpacingA = 40
	DefaultSpacingB = 60
)

// Options controls a layout run. Zero spacings fall back to the defaults and
// an empty orientation uses the board's.
type Options struct {
	Orientation model.Orientation
	SpacingA    float64
	SpacingB    float64
}

// Point is a node position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// engine holds the state of one run in axis space.
type engine struct {
	board      *model.Board
	horizontal bool
	spacingA   float64
	spacingB   float64

	children  map[string][]string
	obstacles []model.Rect
	visited   map[string]bool
	out       map[string]Point
}

// Arrange computes new positions for ids without touching the board. Ids
// that are not nodes are ignored; an empty set yields an empty result.
// Identical inputs always produce identical positions.
func Arrange(b *model.Board, ids []string, opts Options) map[string]Point {
	out := make(map[string]Point)
	set := make(map[string]bool, len(ids))
	var order []string
	for _, id := range ids {
		if b.HasNode(id) && !set[id] {
			set[id] = true
			order = append(order, id)
		}
	}
	if len(order) == 0 {
		return out
	}

	orientation := opts.Orientation
	if !orientation.IsValid() {
		orientation = b.Orientation
	}
	e := &engine{
		board:      b,
		horizontal: orientation == model.OrientationHorizontal,
		spacingA:   opts.SpacingA,
		spacingB:   opts.SpacingB,
		children:   make(map[string][]string),
		visited:    make(map[string]bool),
		out:        out,
	}
	if e.spacingA <= 0 {
		e.spacingA = DefaultSpacingA
	}
	if e.spacingB <= 0 {
		e.spacingB = DefaultSpacingB
	}

	indegree := make(map[string]int)
	seen := make(map[[2]string]bool)
	for _, edge := range b.Edges {
		if !set[edge.From] || !set[edge.To] || edge.From == edge.To {
			continue
		}
		k := [2]string{edge.From, edge.To}
		if seen[k] {
			continue
		}
		seen[k] = true
		e.children[edge.From] = append(e.children[edge.From], edge.To)
		indegree[edge.To]++
	}

	for _, id := range b.NodeIDs() {
		if !set[id] {
			e.obstacles = append(e.obstacles, b.Nodes[id].Rect())
		}
	}

	startA, startB := e.axes(b.Nodes[order[0]].X, b.Nodes[order[0]].Y)
	for _, id := range order[1:] {
		a, bb := e.axes(b.Nodes[id].X, b.Nodes[id].Y)
		startA = min(startA, a)
		startB = min(startB, bb)
	}

	cursor := startA
	for _, id := range order {
		if indegree[id] == 0 && !e.visited[id] {
			e.visited[id] = true
			e.place(id, cursor, startB)
			sa, _ := e.size(id)
			cursor += sa + e.spacingA
		}
	}
	for _, id := range order {
		if !e.visited[id] {
			e.visited[id] = true
			e.place(id, cursor, startB)
			sa, _ := e.size(id)
			cursor += sa + e.spacingA
		}
	}

	for id, p := range out {
		out[id] = e.finish(b.Nodes[id], p)
	}
	return out
}

// Apply writes positions onto the board and returns how many nodes moved.
func Apply(b *model.Board, positions map[string]Point) int {
	moved := 0
	for id, p := range positions {
		n, ok := b.Nodes[id]
		if !ok {
			continue
		}
		if n.X != p.X || n.Y != p.Y {
			moved++
		}
		n.X, n.Y = p.X, p.Y
	}
	return moved
}

// place commits id at the first clear spot at or below (a, b) along B, then
// centers its unplaced children beneath it.
func (e *engine) place(id string, a, b float64) {
	sa, sb := e.size(id)
	for e.blocked(a, b, sa, sb) {
		next := b + e.spacingB
		if next == b {
			// Too far out for spacingB to move the node.
			break
		}
		b = next
	}
	rect := e.rect(a, b, sa, sb)
	e.obstacles = append(e.obstacles, rect)
	e.out[id] = Point{X: rect.X, Y: rect.Y}

	var kids []string
	for _, c := range e.children[id] {
		if !e.visited[c] {
			e.visited[c] = true
			kids = append(kids, c)
		}
	}
	if len(kids) == 0 {
		return
	}

	block := e.spacingA * float64(len(kids)-1)
	for _, c := range kids {
		ca, _ := e.size(c)
		block += ca
	}
	cursor := a + sa/2 - block/2
	childB := b + sb + e.spacingB
	for _, c := range kids {
		e.place(c, cursor, childB)
		ca, _ := e.size(c)
		cursor += ca + e.spacingA
	}
}

func (e *engine) blocked(a, b, sa, sb float64) bool {
	r := e.rect(a, b, sa, sb)
	for _, o := range e.obstacles {
		if r.Intersects(o) {
			return true
		}
	}
	return false
}

// axes converts a board point to (A, B).
func (e *engine) axes(x, y float64) (float64, float64) {
	if e.horizontal {
		return y, x
	}
	return x, y
}

// size returns the node's extent along A and B.
func (e *engine) size(id string) (float64, float64) {
	w, h := e.board.Nodes[id].Size()
	return e.axes(w, h)
}

// rect converts an axis-space box back to board coordinates.
func (e *engine) rect(a, b, sa, sb float64) model.Rect {
	if e.horizontal {
		return model.Rect{X: b, Y: a, W: sb, H: sa}
	}
	return model.Rect{X: a, Y: b, W: sa, H: sb}
}

// finish applies grid snapping and lane clamping to a computed position.
func (e *engine) finish(n *model.Node, p Point) Point {
	if e.board.SnapToGrid {
		p.X, p.Y = model.Snap(p.X), model.Snap(p.Y)
	}
	if lane, ok := e.board.Lanes[n.LaneID]; ok && n.LaneID != "" {
		w, h := n.Size()
		p.X, p.Y = lane.Rect().ClampPoint(p.X, p.Y, w, h)
	}
	return p
}
