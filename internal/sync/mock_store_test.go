package sync

import (
	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/session"
)

// mockSource serves a fixed snapshot.
type mockSource struct {
	board *model.Board
	tasks []*model.Task
}

func newMockSource() *mockSource {
	return &mockSource{board: model.NewBoard("Plan")}
}

func (m *mockSource) Snapshot() session.Snapshot {
	return session.Snapshot{Board: m.board.Clone(), Tasks: m.tasks}
}

// sampleSource is a small board with one of every record type.
func sampleSource() *mockSource {
	m := newMockSource()
	m.board.Nodes["t-b"] = &model.Node{ID: "t-b", X: 10, Payload: model.TaskPayload{}}
	m.board.Nodes["t-a"] = &model.Node{ID: "t-a", Payload: model.TaskPayload{}}
	m.board.Nodes["n-1"] = &model.Node{ID: "n-1", Payload: model.PostItPayload{Content: "<ship it>"}}
	m.board.Edges = []model.Edge{
		{From: "t-a", To: "t-b", Type: model.KindDepends},
		{From: "n-1", To: "t-a", Type: model.KindLink, Label: "note"},
	}
	m.board.Lanes["l-1"] = &model.Lane{ID: "l-1", Label: "Doing", W: 400, H: 200}
	m.tasks = []*model.Task{
		{ID: "t-b", Location: model.Location{Path: "plan.md", Line: 1}, Text: "Build [depends:: t-a] ^t-b"},
		{ID: "t-a", Location: model.Location{Path: "plan.md", Line: 2}, Text: "Design ^t-a", Completed: true},
	}
	return m
}
