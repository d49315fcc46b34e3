package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleBoard() *model.Board {
	b := model.NewBoard("Plan")
	b.Nodes["t-1"] = &model.Node{ID: "t-1", X: 10, Y: 20}
	b.Nodes["n-1"] = &model.Node{ID: "n-1", Payload: model.NotePayload{Path: "notes/a.md"}}
	b.Edges = append(b.Edges, model.Edge{From: "n-1", To: "t-1", Type: model.KindLink, Label: "see"})
	return b
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(sampleBoard())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"snapToGrid": false`) {
		t.Fatalf("unexpected encoding:\n%s", data)
	}
	b, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if b.Title != "Plan" || len(b.Nodes) != 2 || len(b.Edges) != 1 || b.Edges[0].Label != "see" {
		t.Fatalf("decoded = %+v", b)
	}
	if n := b.Nodes["n-1"]; n.Type() != model.NodeNote || n.ID != "n-1" {
		t.Fatalf("note node = %+v", n)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "{not json", `{"nodes": 3}`} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%q) should fail", in)
		}
	}
}

func TestDecode_FillsDefaults(t *testing.T) {
	b, err := Decode([]byte(`{"nodes":{"a":{"x":1}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if b.Version != model.CurrentVersion || b.Orientation != model.OrientationVertical || b.Edges == nil || b.Lanes == nil {
		t.Fatalf("defaults not applied: %+v", b)
	}
	if b.Nodes["a"].ID != "a" {
		t.Fatal("node id not taken from key")
	}
}

func TestDocumentStore_LoadMissingAndMalformed(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory(map[string]string{"broken.board": "{{{"})

	b, err := NewDocumentStore(docs, "boards/missing.board", quietLogger()).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if b.Title != "missing" || len(b.Nodes) != 0 {
		t.Fatalf("missing board = %+v", b)
	}

	b, err = NewDocumentStore(docs, "broken.board", quietLogger()).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if b.Title != "broken" || b.Version != model.CurrentVersion {
		t.Fatalf("malformed board = %+v", b)
	}
}

// unreadableDocs fails every read with a transport error.
type unreadableDocs struct {
	docstore.Store
}

func (unreadableDocs) Read(context.Context, string) (string, error) {
	return "", errors.New("connection reset")
}

func TestDocumentStore_LoadReadErrorSurfaces(t *testing.T) {
	docs := docstore.NewMemory(map[string]string{"plan.board": "{}"})
	s := NewDocumentStore(unreadableDocs{docs}, "plan.board", quietLogger())

	if _, err := s.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("err = %v", err)
	}
	if docs.Writes() != 0 {
		t.Fatal("board was overwritten after a failed read")
	}
}

func TestDocumentStore_SaveCreatesThenModifies(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory(nil)
	s := NewDocumentStore(docs, "plan.board", quietLogger())

	b := sampleBoard()
	if err := s.Save(ctx, b); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	b.Title = "Renamed"
	if err := s.Save(ctx, b); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if docs.Writes() != 2 {
		t.Fatalf("writes = %d, want 2", docs.Writes())
	}
	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Title != "Renamed" || len(loaded.Nodes) != 2 {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestDocumentStore_CreateRaceLoadsExisting(t *testing.T) {
	ctx := context.Background()
	existing, _ := Encode(sampleBoard())
	docs := docstore.NewMemory(map[string]string{"plan.board": string(existing)})
	s := NewDocumentStore(docs, "plan.board", quietLogger())

	got, err := s.Create(ctx, model.NewBoard("Other"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Title != "Plan" || len(got.Nodes) != 2 {
		t.Fatalf("expected existing board, got %+v", got)
	}
	if docs.Writes() != 0 {
		t.Fatal("existing board was overwritten")
	}
}

func TestDocumentStore_Create(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory(nil)
	s := NewDocumentStore(docs, "new.board", quietLogger())
	b := model.NewBoard("New")
	got, err := s.Create(ctx, b)
	if err != nil || got != b {
		t.Fatalf("Create = %v, %v", got, err)
	}
	if !strings.Contains(docs.Content("new.board"), `"title": "New"`) {
		t.Fatalf("content = %s", docs.Content("new.board"))
	}
}

func TestTitleFromPath(t *testing.T) {
	for in, want := range map[string]string{
		"plan.board":        "plan",
		"boards/Q3.board":   "Q3",
		"noext":             "noext",
		"a/b/c.tasks.board": "c.tasks",
	} {
		if got := TitleFromPath(in); got != want {
			t.Errorf("TitleFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
