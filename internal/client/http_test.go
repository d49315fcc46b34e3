package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	rawPath     string // URL-encoded path (for testing PathEscape)
	query       string
	body        string
	contentType string
	auth        string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.rawPath = r.URL.RawPath
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(h http.Handler) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewHTTPClient(srv.URL, "")
	return c, srv
}

func decodeRequest(t *testing.T, body string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("request body %q: %v", body, err)
	}
	return m
}

// --- Board ---

func TestHTTPClient_GetBoard(t *testing.T) {
	h := &testHandler{
		responseBody: `{
			"version": 1,
			"nodes": {"a": {"id": "a", "x": 10, "y": 20}, "n1": {"id": "n1", "type": "post-it", "x": 0, "y": 0, "content": "hi"}},
			"edges": [{"from": "a", "to": "n1", "type": "link"}],
			"lanes": {},
			"orientation": "vertical",
			"title": "Plan"
		}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	b, err := c.GetBoard(context.Background())
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if h.method != http.MethodGet || h.path != "/v1/board" {
		t.Errorf("request = %s %s, want GET /v1/board", h.method, h.path)
	}
	if b.Title != "Plan" || len(b.Nodes) != 2 || len(b.Edges) != 1 {
		t.Fatalf("board = %+v", b)
	}
	if p, ok := b.Nodes["n1"].Payload.(model.PostItPayload); !ok || p.Content != "hi" {
		t.Errorf("n1 payload = %#v", b.Nodes["n1"].Payload)
	}
}

func TestHTTPClient_GetTree(t *testing.T) {
	h := &testHandler{responseBody: `{"roots": [{"id": "a", "children": [{"id": "c"}]}, {"id": "b"}]}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	roots, err := c.GetTree(context.Background())
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}
	if len(roots) != 2 || roots[0].ID != "a" || len(roots[0].Children) != 1 || roots[0].Children[0].ID != "c" {
		t.Errorf("roots = %+v", roots)
	}
}

func TestHTTPClient_Rescan(t *testing.T) {
	h := &testHandler{responseBody: `{"changed": true, "pruned_nodes": ["b"], "kept": 2, "preserved": 1}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	res, err := c.Rescan(context.Background())
	if err != nil {
		t.Fatalf("Rescan() error = %v", err)
	}
	if h.method != http.MethodPost || h.path != "/v1/rescan" {
		t.Errorf("request = %s %s, want POST /v1/rescan", h.method, h.path)
	}
	if !res.Changed || len(res.PrunedNodes) != 1 || res.Kept != 2 || res.Preserved != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestHTTPClient_Layout(t *testing.T) {
	h := &testHandler{responseBody: `{"positions": {"a": {"x": 0, "y": 0}, "c": {"x": 0, "y": 120}}}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	pos, err := c.Layout(context.Background(), &LayoutRequest{IDs: []string{"a", "c"}, Orientation: model.OrientationVertical})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	body := decodeRequest(t, h.body)
	if body["orientation"] != "vertical" {
		t.Errorf("orientation = %v", body["orientation"])
	}
	if _, ok := body["spacing_a"]; ok {
		t.Error("zero spacing_a should be omitted")
	}
	if pos["c"].Y != 120 {
		t.Errorf("positions = %v", pos)
	}
}

// --- Relations ---

func TestHTTPClient_Link(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusCreated,
		responseBody: `{"from": "a", "to": "b", "type": "subtask"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	edge, err := c.Link(context.Background(), "a", "b", model.KindSubtask)
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if h.method != http.MethodPost || h.path != "/v1/relations" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.contentType != "application/json" {
		t.Errorf("content-type = %q", h.contentType)
	}
	body := decodeRequest(t, h.body)
	if body["from"] != "a" || body["to"] != "b" || body["type"] != "subtask" {
		t.Errorf("body = %v", body)
	}
	if edge.Type != model.KindSubtask {
		t.Errorf("edge = %+v", edge)
	}
}

func TestHTTPClient_Unlink(t *testing.T) {
	h := &testHandler{responseBody: `{"removed": true}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	removed, err := c.Unlink(context.Background(), "a", "b c", model.KindDepends)
	if err != nil {
		t.Fatalf("Unlink() error = %v", err)
	}
	if h.method != http.MethodDelete || h.path != "/v1/relations" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.query != "from=a&to=b+c&type=depends" {
		t.Errorf("query = %q", h.query)
	}
	if h.body != "" {
		t.Errorf("body = %q, want empty", h.body)
	}
	if !removed {
		t.Error("removed = false, want true")
	}
}

func TestHTTPClient_Retype(t *testing.T) {
	h := &testHandler{responseBody: `{"from": "c", "to": "a", "type": "sequence"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	edge, err := c.Retype(context.Background(), &RetypeRequest{From: "a", To: "c", Type: model.KindDepends, NewType: model.KindSequence, Swap: true})
	if err != nil {
		t.Fatalf("Retype() error = %v", err)
	}
	if h.method != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", h.method)
	}
	body := decodeRequest(t, h.body)
	if body["new_type"] != "sequence" || body["swap"] != true {
		t.Errorf("body = %v", body)
	}
	if edge.From != "c" {
		t.Errorf("edge = %+v", edge)
	}
}

// --- Nodes ---

func TestHTTPClient_AddNode(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusCreated,
		responseBody: `{"id": "n1", "type": "group", "x": 5, "y": 6, "name": "Sprint", "members": ["a"]}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	n, err := c.AddNode(context.Background(), &AddNodeRequest{
		Type:      model.NodeGroup,
		Name:      "Sprint",
		Members:   []string{"a"},
		Placement: Placement{X: 5, Y: 6},
	})
	if err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	body := decodeRequest(t, h.body)
	if body["type"] != "group" || body["x"] != float64(5) || body["name"] != "Sprint" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["task_id"]; ok {
		t.Error("empty task_id should be omitted")
	}
	if n.Type() != model.NodeGroup {
		t.Errorf("node type = %q", n.Type())
	}
}

func TestHTTPClient_MoveNode(t *testing.T) {
	h := &testHandler{responseBody: `{"id": "a/b", "x": 30, "y": 40}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	n, err := c.MoveNode(context.Background(), "a/b", 30, 40)
	if err != nil {
		t.Fatalf("MoveNode() error = %v", err)
	}
	if h.method != http.MethodPatch || h.rawPath != "/v1/nodes/a%2Fb" {
		t.Errorf("request = %s %s", h.method, h.rawPath)
	}
	if n.X != 30 || n.Y != 40 {
		t.Errorf("node = %+v", n)
	}
}

// --- Tasks ---

func TestHTTPClient_ListTasks(t *testing.T) {
	done := false
	tests := []struct {
		name  string
		req   *ListTasksRequest
		query string
	}{
		{"no filters", nil, ""},
		{"path", &ListTasksRequest{Path: "plan.md"}, "path=plan.md"},
		{"completed", &ListTasksRequest{Completed: &done}, "completed=false"},
		{"both", &ListTasksRequest{Path: "a b.md", Completed: &done}, "completed=false&path=a+b.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &testHandler{responseBody: `{"tasks": [{"id": "a", "text": "Design ^a", "location": {"path": "plan.md", "line": 1}}], "total": 1}`}
			c, srv := newTestClient(h)
			defer srv.Close()

			resp, err := c.ListTasks(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("ListTasks() error = %v", err)
			}
			if h.query != tt.query {
				t.Errorf("query = %q, want %q", h.query, tt.query)
			}
			if resp.Total != 1 || resp.Tasks[0].Location.Path != "plan.md" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestHTTPClient_CreateTask(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusCreated,
		responseBody: `{"id": "x1", "text": "Write docs ^x1", "location": {"path": "plan.md", "line": 4}}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	task, err := c.CreateTask(context.Background(), &CreateTaskRequest{Path: "plan.md", Title: "Write docs", Placement: Placement{LaneID: "l1"}})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	body := decodeRequest(t, h.body)
	if body["path"] != "plan.md" || body["title"] != "Write docs" || body["lane_id"] != "l1" {
		t.Errorf("body = %v", body)
	}
	if task.ID != "x1" {
		t.Errorf("task = %+v", task)
	}
}

func TestHTTPClient_SetCompleted(t *testing.T) {
	h := &testHandler{responseBody: `{"changed": true, "completed": false}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	changed, err := c.SetCompleted(context.Background(), "a", false)
	if err != nil {
		t.Fatalf("SetCompleted() error = %v", err)
	}
	if h.method != http.MethodPost || h.path != "/v1/tasks/a/complete" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if body := decodeRequest(t, h.body); body["completed"] != false {
		t.Errorf("body = %v", body)
	}
	if !changed {
		t.Error("changed = false, want true")
	}
}

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{
		responseBody: `{"status": "ok"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.method != http.MethodGet {
		t.Errorf("method = %q, want GET", h.method)
	}
	if h.path != "/v1/health" {
		t.Errorf("path = %q, want /v1/health", h.path)
	}
	if status != "ok" {
		t.Errorf("status = %q, want 'ok'", status)
	}
}

func TestHTTPClient_Token(t *testing.T) {
	h := &testHandler{responseBody: `{"status": "ok"}`}
	srv := httptest.NewServer(h)
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "s3cret").Health(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", h.auth)
	}

	if _, err := NewHTTPClient(srv.URL, "").Health(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.auth != "" {
		t.Errorf("Authorization = %q, want none", h.auth)
	}
}

// --- Error handling ---

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMessage string
	}{
		{"json body", http.StatusBadRequest, "application/json", `{"error": "from is required"}`, "from is required"},
		{"not found", http.StatusNotFound, "application/json", `{"error": "zz: unknown task"}`, "zz: unknown task"},
		{"plain text", http.StatusInternalServerError, "text/plain", "internal server error", "internal server error"},
		{"empty error field", http.StatusUnprocessableEntity, "application/json", `{"error": ""}`, `{"error": ""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "").GetTask(context.Background(), "zz")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestHTTPClient_Error_FormatString(t *testing.T) {
	apiErr := &APIError{StatusCode: 403, Message: "forbidden"}
	want := "HTTP 403: forbidden"
	if apiErr.Error() != want {
		t.Errorf("Error() = %q, want %q", apiErr.Error(), want)
	}
}

func TestHTTPClient_Error_CanceledContext(t *testing.T) {
	h := &testHandler{
		responseBody: `{"status": "ok"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Health(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context, got nil")
	}
	if !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("error = %q, want to contain 'context canceled'", err.Error())
	}
}

func TestHTTPClient_204NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	ctx := context.Background()
	if err := c.DeleteNode(ctx, "n1"); err != nil {
		t.Fatalf("DeleteNode() with 204 error = %v", err)
	}
	if err := c.DeleteTask(ctx, "a"); err != nil {
		t.Fatalf("DeleteTask() with 204 error = %v", err)
	}
	if err := c.ArchiveTask(ctx, "a"); err != nil {
		t.Fatalf("ArchiveTask() with 204 error = %v", err)
	}
}

func TestHTTPClient_Close(t *testing.T) {
	c := NewHTTPClient("http://localhost:9999", "")
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestNewHTTPClient_TrimsTrailingSlash(t *testing.T) {
	for _, base := range []string{"http://localhost:8080/", "http://localhost:8080"} {
		if c := NewHTTPClient(base, ""); c.baseURL != "http://localhost:8080" {
			t.Errorf("NewHTTPClient(%q).baseURL = %q", base, c.baseURL)
		}
	}
}

func TestHTTPClient_ImplementsBoardClient(t *testing.T) {
	var _ BoardClient = (*HTTPClient)(nil)
}

func TestHTTPClient_ConcurrentRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := c.Health(context.Background())
			errs <- err
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Health() error = %v", err)
		}
	}
	if got := calls.Load(); got != 10 {
		t.Errorf("server saw %d calls, want 10", got)
	}
}
