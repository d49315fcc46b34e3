package model

import (
	"encoding/json"
	"fmt"
)

// NodeType is the variant tag of a board node.
type NodeType string

const (
	NodeTask   NodeType = "task"
	NodeGroup  NodeType = "group"
	NodeLane   NodeType = "lane"
	NodeNote   NodeType = "note"
	NodePostIt NodeType = "post-it"
	NodeBoard  NodeType = "board"
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	return string(t)
}

// IsValid checks whether the node type is a known value.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTask, NodeGroup, NodeLane, NodeNote, NodePostIt, NodeBoard:
		return true
	}
	return false
}

// IsStructural reports whether nodes of this type exist independently of
// any task. Structural nodes are never pruned by reconciliation.
func (t NodeType) IsStructural() bool {
	return t != NodeTask
}

// Payload is the variant-specific part of a node.
type Payload interface {
	Type() NodeType
	payload()
}

// TaskPayload marks a node backed by a task with the same id.
type TaskPayload struct{}

// GroupPayload holds a named set of member node ids.
type GroupPayload struct {
	Name      string
	Members   []string
	Collapsed bool
}

// LanePayload marks a node that belongs to a lane without backing a task.
type LanePayload struct{}

// NotePayload links a node to a document.
type NotePayload struct {
	Path string
}

// PostItPayload holds free text.
type PostItPayload struct {
	Content string
}

// BoardPayload references another board and caches its summary.
type BoardPayload struct {
	Path      string
	Title     string
	TaskCount int
	DoneCount int
}

func (TaskPayload) Type() NodeType   { return NodeTask }
func (GroupPayload) Type() NodeType  { return NodeGroup }
func (LanePayload) Type() NodeType   { return NodeLane }
func (NotePayload) Type() NodeType   { return NodeNote }
func (PostItPayload) Type() NodeType { return NodePostIt }
func (BoardPayload) Type() NodeType  { return NodeBoard }

func (TaskPayload) payload()   {}
func (GroupPayload) payload()  {}
func (LanePayload) payload()   {}
func (NotePayload) payload()   {}
func (PostItPayload) payload() {}
func (BoardPayload) payload()  {}

// Node is a positioned entity on the board. A zero W or H means the default
// size for the node's type.
type Node struct {
	ID      string
	X, Y    float64
	W, H    float64
	LaneID  string
	Color   string
	Payload Payload
}

// Type returns the node's variant. A nil payload is a task node.
func (n *Node) Type() NodeType {
	if n.Payload == nil {
		return NodeTask
	}
	return n.Payload.Type()
}

// IsStructural reports whether the node is not backed by a task.
func (n *Node) IsStructural() bool {
	return n.Type().IsStructural()
}

// Size returns the effective width and height.
func (n *Node) Size() (float64, float64) {
	w, h := n.W, n.H
	if n.Type() == NodeGroup {
		if w <= 0 {
			w = DefaultGroupSize
		}
		if h <= 0 {
			h = DefaultGroupSize
		}
		return w, h
	}
	if w <= 0 {
		w = DefaultNodeWidth
	}
	if h <= 0 {
		h = DefaultNodeHeight
	}
	return w, h
}

// Rect returns the node's bounding rectangle at its current position.
func (n *Node) Rect() Rect {
	w, h := n.Size()
	return Rect{X: n.X, Y: n.Y, W: w, H: h}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	if g, ok := n.Payload.(GroupPayload); ok {
		g.Members = append([]string(nil), g.Members...)
		c.Payload = g
	}
	return &c
}

// nodeRecord is the persisted, flattened form of a node.
type nodeRecord struct {
	ID         string   `json:"id"`
	Type       NodeType `json:"type,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	W          float64  `json:"w,omitempty"`
	H          float64  `json:"h,omitempty"`
	LaneID     string   `json:"laneId,omitempty"`
	Color      string   `json:"color,omitempty"`
	Name       string   `json:"name,omitempty"`
	Members    []string `json:"members,omitempty"`
	Collapsed  bool     `json:"collapsed,omitempty"`
	BoardPath  string   `json:"boardPath,omitempty"`
	BoardTitle string   `json:"boardTitle,omitempty"`
	TaskCount  int      `json:"taskCount,omitempty"`
	DoneCount  int      `json:"doneCount,omitempty"`
	NotePath   string   `json:"notePath,omitempty"`
	Content    string   `json:"content,omitempty"`
}

// MarshalJSON writes the node as a flat record keyed by "type". Task nodes
// omit the type field.
func (n Node) MarshalJSON() ([]byte, error) {
	rec := nodeRecord{
		ID:     n.ID,
		X:      n.X,
		Y:      n.Y,
		W:      n.W,
		H:      n.H,
		LaneID: n.LaneID,
		Color:  n.Color,
	}
	switch p := n.Payload.(type) {
	case nil, TaskPayload:
	case GroupPayload:
		rec.Type = NodeGroup
		rec.Name = p.Name
		rec.Members = p.Members
		rec.Collapsed = p.Collapsed
	case LanePayload:
		rec.Type = NodeLane
	case NotePayload:
		rec.Type = NodeNote
		rec.NotePath = p.Path
	case PostItPayload:
		rec.Type = NodePostIt
		rec.Content = p.Content
	case BoardPayload:
		rec.Type = NodeBoard
		rec.BoardPath = p.Path
		rec.BoardTitle = p.Title
		rec.TaskCount = p.TaskCount
		rec.DoneCount = p.DoneCount
	default:
		return nil, fmt.Errorf("node %s: unsupported payload %T", n.ID, n.Payload)
	}
	return json.Marshal(rec)
}

// UnmarshalJSON reads a flat node record.
func (n *Node) UnmarshalJSON(data []byte) error {
	var rec nodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*n = Node{
		ID:     rec.ID,
		X:      rec.X,
		Y:      rec.Y,
		W:      rec.W,
		H:      rec.H,
		LaneID: rec.LaneID,
		Color:  rec.Color,
	}
	switch rec.Type {
	case "", NodeTask:
		n.Payload = TaskPayload{}
	case NodeGroup:
		n.Payload = GroupPayload{Name: rec.Name, Members: rec.Members, Collapsed: rec.Collapsed}
	case NodeLane:
		n.Payload = LanePayload{}
	case NodeNote:
		n.Payload = NotePayload{Path: rec.NotePath}
	case NodePostIt:
		n.Payload = PostItPayload{Content: rec.Content}
	case NodeBoard:
		n.Payload = BoardPayload{
			Path:      rec.BoardPath,
			Title:     rec.BoardTitle,
			TaskCount: rec.TaskCount,
			DoneCount: rec.DoneCount,
		}
	default:
		return fmt.Errorf("node %s: unknown type %q", rec.ID, rec.Type)
	}
	return nil
}
