// Package client provides a transport-agnostic interface for a running
// taskboard server and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/alfredjeanlab/taskboard/internal/depgraph"
	"github.com/alfredjeanlab/taskboard/internal/layout"
	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/reconcile"
)

// BoardClient is the interface the remote CLI commands use to drive a board
// served by `tb serve`. It is implemented by HTTPClient.
type BoardClient interface {
	// Board
	GetBoard(ctx context.Context) (*model.Board, error)
	GetTree(ctx context.Context) ([]*depgraph.Tree, error)
	Rescan(ctx context.Context) (*reconcile.Result, error)
	Layout(ctx context.Context, req *LayoutRequest) (map[string]layout.Point, error)

	// Relations
	Link(ctx context.Context, from, to string, kind model.RelationKind) (*model.Edge, error)
	Unlink(ctx context.Context, from, to string, kind model.RelationKind) (bool, error)
	Retype(ctx context.Context, req *RetypeRequest) (*model.Edge, error)

	// Nodes
	AddNode(ctx context.Context, req *AddNodeRequest) (*model.Node, error)
	MoveNode(ctx context.Context, id string, x, y float64) (*model.Node, error)
	DeleteNode(ctx context.Context, id string) error

	// Tasks
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ArchiveTask(ctx context.Context, id string) error
	SetCompleted(ctx context.Context, id string, completed bool) (bool, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// Placement positions a new node. LaneID and Color are optional.
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	LaneID string  `json:"lane_id,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// AddNodeRequest holds parameters for putting a node on the board. Which of
// the content fields are used depends on Type.
type AddNodeRequest struct {
	Type    model.NodeType `json:"type"`
	TaskID  string         `json:"task_id,omitempty"`
	Path    string         `json:"path,omitempty"`
	Content string         `json:"content,omitempty"`
	Name    string         `json:"name,omitempty"`
	Members []string       `json:"members,omitempty"`

	Placement
}

// RetypeRequest holds parameters for changing a relation's kind.
type RetypeRequest struct {
	From    string             `json:"from"`
	To      string             `json:"to"`
	Type    model.RelationKind `json:"type"`
	NewType model.RelationKind `json:"new_type"`
	Swap    bool               `json:"swap,omitempty"`
}

// LayoutRequest holds parameters for arranging nodes. Zero options use the
// server's defaults.
type LayoutRequest struct {
	IDs         []string          `json:"ids"`
	Orientation model.Orientation `json:"orientation,omitempty"`
	SpacingA    float64           `json:"spacing_a,omitempty"`
	SpacingB    float64           `json:"spacing_b,omitempty"`
}

// ListTasksRequest holds filters for listing tasks.
type ListTasksRequest struct {
	Path      string
	Completed *bool
}

// ListTasksResponse is the response from ListTasks.
type ListTasksResponse struct {
	Tasks []*model.Task `json:"tasks"`
	Total int           `json:"total"`
}

// CreateTaskRequest holds parameters for appending a task to a document.
type CreateTaskRequest struct {
	Path  string `json:"path"`
	Title string `json:"title"`

	Placement
}
