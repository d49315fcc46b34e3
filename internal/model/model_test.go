package model

import (
	"encoding/json"
	"testing"
)

func TestRelationKind_IsValid(t *testing.T) {
	for _, tc := range []struct {
		kind RelationKind
		want bool
	}{
		{KindDepends, true},
		{KindSubtask, true},
		{KindSequence, true},
		{KindLink, true},
		{RelationKind(""), false},
		{RelationKind("blocks"), false},
	} {
		if got := tc.kind.IsValid(); got != tc.want {
			t.Errorf("RelationKind(%q).IsValid() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestRelationKind_HasToken(t *testing.T) {
	for _, tc := range []struct {
		kind RelationKind
		want bool
	}{
		{KindDepends, true},
		{KindSubtask, true},
		{KindSequence, true},
		{KindLink, false},
	} {
		if got := tc.kind.HasToken(); got != tc.want {
			t.Errorf("RelationKind(%q).HasToken() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestNodeType_IsStructural(t *testing.T) {
	for _, tc := range []struct {
		typ  NodeType
		want bool
	}{
		{NodeTask, false},
		{NodeGroup, true},
		{NodeLane, true},
		{NodeNote, true},
		{NodePostIt, true},
		{NodeBoard, true},
	} {
		if got := tc.typ.IsStructural(); got != tc.want {
			t.Errorf("NodeType(%q).IsStructural() = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestNode_Size(t *testing.T) {
	for _, tc := range []struct {
		name  string
		node  Node
		wantW float64
		wantH float64
	}{
		{"TaskDefault", Node{}, 120, 40},
		{"GroupDefault", Node{Payload: GroupPayload{}}, 80, 80},
		{"Explicit", Node{W: 200, H: 90, Payload: NotePayload{}}, 200, 90},
		{"PartialExplicit", Node{W: 60}, 60, 40},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, h := tc.node.Size()
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("Size() = (%v, %v), want (%v, %v)", w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestNode_JSONVariants(t *testing.T) {
	for _, tc := range []struct {
		name     string
		node     Node
		wantType string
	}{
		{"Task", Node{ID: "t1", X: 1, Y: 2, Payload: TaskPayload{}}, ""},
		{"Group", Node{ID: "g1", Payload: GroupPayload{Name: "G", Members: []string{"t1"}, Collapsed: true}}, "group"},
		{"Note", Node{ID: "n1", Payload: NotePayload{Path: "notes/a.md"}}, "note"},
		{"PostIt", Node{ID: "p1", Payload: PostItPayload{Content: "hello"}}, "post-it"},
		{"Board", Node{ID: "b1", Payload: BoardPayload{Path: "other.board", Title: "Other", TaskCount: 3, DoneCount: 1}}, "board"},
		{"Lane", Node{ID: "l1", LaneID: "lane-a", Payload: LanePayload{}}, "lane"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.node)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var raw map[string]any
			if err := json.Unmarshal(data, &raw); err != nil {
				t.Fatalf("unmarshal raw: %v", err)
			}
			gotType, _ := raw["type"].(string)
			if gotType != tc.wantType {
				t.Errorf("type field = %q, want %q (json=%s)", gotType, tc.wantType, data)
			}

			var back Node
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if back.Type() != tc.node.Type() {
				t.Errorf("Type() after decode = %q, want %q", back.Type(), tc.node.Type())
			}
		})
	}
}

func TestNode_UnmarshalUnknownType(t *testing.T) {
	var n Node
	if err := json.Unmarshal([]byte(`{"id":"x","type":"spaceship"}`), &n); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestBoard_AddEdgeDeduplicates(t *testing.T) {
	b := NewBoard("t")
	e := Edge{From: "a", To: "b", Type: KindDepends}
	if !b.AddEdge(e) {
		t.Fatal("first AddEdge returned false")
	}
	if b.AddEdge(Edge{From: "a", To: "b", Type: KindDepends, Label: "other"}) {
		t.Fatal("duplicate AddEdge returned true")
	}
	if !b.AddEdge(Edge{From: "a", To: "b", Type: KindSubtask}) {
		t.Fatal("AddEdge with different kind returned false")
	}
	if len(b.Edges) != 2 {
		t.Fatalf("len(Edges) = %d, want 2", len(b.Edges))
	}
}

func TestBoard_RemoveNodeCascades(t *testing.T) {
	b := NewBoard("t")
	for _, id := range []string{"a", "b", "c"} {
		if err := b.AddNode(&Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	if err := b.AddNode(&Node{ID: "g", Payload: GroupPayload{Name: "G", Members: []string{"a", "b"}}}); err != nil {
		t.Fatalf("AddNode(g): %v", err)
	}
	b.AddEdge(Edge{From: "a", To: "b", Type: KindDepends})
	b.AddEdge(Edge{From: "b", To: "c", Type: KindSequence})
	b.AddEdge(Edge{From: "a", To: "c", Type: KindLink})

	if !b.RemoveNode("b") {
		t.Fatal("RemoveNode returned false")
	}
	if len(b.Edges) != 1 || b.Edges[0].Signature() != (Signature{From: "a", To: "c", Type: KindLink}) {
		t.Fatalf("unexpected edges after removal: %+v", b.Edges)
	}
	g := b.Nodes["g"].Payload.(GroupPayload)
	if len(g.Members) != 1 || g.Members[0] != "a" {
		t.Fatalf("group members = %v, want [a]", g.Members)
	}
	if err := ValidateBoard(b); err != nil {
		t.Fatalf("board invalid after removal: %v", err)
	}
}

func TestBoard_MoveNodeClampsToLane(t *testing.T) {
	b := NewBoard("t")
	b.Lanes["lane"] = &Lane{ID: "lane", Label: "Doing", X: 0, Y: 0, W: 300, H: 100}
	if err := b.AddNode(&Node{ID: "a", LaneID: "lane", Payload: LanePayload{}}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	b.MoveNode("a", 500, -20)
	n := b.Nodes["a"]
	if n.X != 180 || n.Y != 0 {
		t.Fatalf("position = (%v, %v), want (180, 0)", n.X, n.Y)
	}
}

func TestBoard_MoveNodeSnaps(t *testing.T) {
	b := NewBoard("t")
	b.SnapToGrid = true
	if err := b.AddNode(&Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	b.MoveNode("a", 14, 26)
	if n := b.Nodes["a"]; n.X != 10 || n.Y != 30 {
		t.Fatalf("position = (%v, %v), want (10, 30)", n.X, n.Y)
	}
}

func TestBoard_NormalizeDefaults(t *testing.T) {
	var b Board
	if err := json.Unmarshal([]byte(`{"nodes":{"a":{"x":1,"y":2}}}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b.Normalize()
	if b.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", b.Version, CurrentVersion)
	}
	if b.Orientation != OrientationVertical {
		t.Errorf("Orientation = %q, want vertical", b.Orientation)
	}
	if b.Nodes["a"].ID != "a" {
		t.Errorf("node id = %q, want a", b.Nodes["a"].ID)
	}
	if b.Edges == nil || b.Lanes == nil {
		t.Error("expected non-nil edges and lanes")
	}
}

func TestBoard_CloneIsDeep(t *testing.T) {
	b := NewBoard("t")
	_ = b.AddNode(&Node{ID: "g", Payload: GroupPayload{Members: []string{"x"}}})
	c := b.Clone()
	c.Nodes["g"].X = 99
	g := c.Nodes["g"].Payload.(GroupPayload)
	g.Members[0] = "changed"
	if b.Nodes["g"].X != 0 {
		t.Error("clone shares node pointer")
	}
	if b.Nodes["g"].Payload.(GroupPayload).Members[0] != "x" {
		t.Error("clone shares group members")
	}
}

func TestTaskSet_Reindex(t *testing.T) {
	s := NewTaskSet()
	s.Put(&Task{ID: "a", Location: Location{Path: "doc.md", Line: 1}})
	s.Put(&Task{ID: "b", Location: Location{Path: "doc.md", Line: 3}})
	s.Put(&Task{ID: "c", Location: Location{Path: "doc.md", Line: 5}})
	s.Put(&Task{ID: "d", Location: Location{Path: "other.md", Line: 5}})

	if moved := s.Reindex("doc.md", 3); moved != 1 {
		t.Fatalf("Reindex moved %d tasks, want 1", moved)
	}
	for id, want := range map[string]int{"a": 1, "b": 3, "c": 4, "d": 5} {
		got, _ := s.Get(id)
		if got.Location.Line != want {
			t.Errorf("task %s line = %d, want %d", id, got.Location.Line, want)
		}
	}
}

func TestTaskSet_SortedOrder(t *testing.T) {
	s := NewTaskSet()
	s.Put(&Task{ID: "z", Location: Location{Path: "a.md", Line: 2}})
	s.Put(&Task{ID: "y", Location: Location{Path: "b.md", Line: 0}})
	s.Put(&Task{ID: "x", Location: Location{Path: "a.md", Line: 0}})
	var got []string
	for _, task := range s.Sorted() {
		got = append(got, task.ID)
	}
	want := []string{"x", "z", "y"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sorted() = %v, want %v", got, want)
		}
	}
}

func TestRect_Intersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	for _, tc := range []struct {
		name string
		b    Rect
		want bool
	}{
		{"Overlap", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"Contained", Rect{X: 2, Y: 2, W: 2, H: 2}, true},
		{"TouchingEdge", Rect{X: 10, Y: 0, W: 10, H: 10}, false},
		{"Apart", Rect{X: 20, Y: 20, W: 5, H: 5}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Intersects(tc.b); got != tc.want {
				t.Errorf("Intersects(%+v) = %v, want %v", tc.b, got, tc.want)
			}
		})
	}
}
