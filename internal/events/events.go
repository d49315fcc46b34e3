package events

import (
	"context"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Event topic constants
const (
	TopicBoardReconciled = "taskboard.board.reconciled"
	TopicLayoutApplied   = "taskboard.layout.applied"

	TopicRelationApplied = "taskboard.relation.applied"
	TopicRelationRemoved = "taskboard.relation.removed"
	TopicRelationRetyped = "taskboard.relation.retyped"

	TopicTaskCreated   = "taskboard.task.created"
	TopicTaskDeleted   = "taskboard.task.deleted"
	TopicTaskArchived  = "taskboard.task.archived"
	TopicTaskCompleted = "taskboard.task.completed"

	TopicNodeAdded   = "taskboard.node.added"
	TopicNodeRemoved = "taskboard.node.removed"
	TopicNodeMoved   = "taskboard.node.moved"
)

// Topics lists every concrete topic, grouped as above.
var Topics = []string{
	TopicBoardReconciled, TopicLayoutApplied,
	TopicRelationApplied, TopicRelationRemoved, TopicRelationRetyped,
	TopicTaskCreated, TopicTaskDeleted, TopicTaskArchived, TopicTaskCompleted,
	TopicNodeAdded, TopicNodeRemoved, TopicNodeMoved,
}

// TopicAll matches every taskboard topic.
const TopicAll = "taskboard.>"

// Event types

type BoardReconciled struct {
	Board       string   `json:"board"`
	Tasks       int      `json:"tasks"`
	PrunedNodes []string `json:"pruned_nodes,omitempty"`
	PrunedEdges int      `json:"pruned_edges"`
	AddedEdges  int      `json:"added_edges"`
}

type LayoutApplied struct {
	Board string   `json:"board"`
	Nodes []string `json:"nodes"`
	Moved int      `json:"moved"`
}

type RelationApplied struct {
	Board string     `json:"board"`
	Edge  model.Edge `json:"edge"`
}

type RelationRemoved struct {
	Board string     `json:"board"`
	Edge  model.Edge `json:"edge"`
}

type RelationRetyped struct {
	Board string     `json:"board"`
	Old   model.Edge `json:"old"`
	New   model.Edge `json:"new"`
}

type TaskCreated struct {
	Board string      `json:"board"`
	Task  *model.Task `json:"task"`
}

type TaskDeleted struct {
	Board  string `json:"board"`
	TaskID string `json:"task_id"`
	Path   string `json:"path"`
}

type TaskArchived struct {
	Board  string `json:"board"`
	TaskID string `json:"task_id"`
}

type TaskCompleted struct {
	Board     string `json:"board"`
	TaskID    string `json:"task_id"`
	Completed bool   `json:"completed"`
}

type NodeAdded struct {
	Board string      `json:"board"`
	Node  *model.Node `json:"node"`
}

type NodeRemoved struct {
	Board  string `json:"board"`
	NodeID string `json:"node_id"`
}

type NodeMoved struct {
	Board  string  `json:"board"`
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
