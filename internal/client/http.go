package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/depgraph"
	"github.com/alfredjeanlab/taskboard/internal/layout"
	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/reconcile"
)

// HTTPClient implements BoardClient using the taskboard HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Board ---

func (c *HTTPClient) GetBoard(ctx context.Context) (*model.Board, error) {
	var b model.Board
	if err := c.doJSON(ctx, http.MethodGet, "/v1/board", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *HTTPClient) GetTree(ctx context.Context) ([]*depgraph.Tree, error) {
	var resp struct {
		Roots []*depgraph.Tree `json:"roots"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tree", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Roots, nil
}

func (c *HTTPClient) Rescan(ctx context.Context) (*reconcile.Result, error) {
	var res reconcile.Result
	if err := c.doJSON(ctx, http.MethodPost, "/v1/rescan", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Layout(ctx context.Context, req *LayoutRequest) (map[string]layout.Point, error) {
	var resp struct {
		Positions map[string]layout.Point `json:"positions"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/layout", req, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

// --- Relations ---

func (c *HTTPClient) Link(ctx context.Context, from, to string, kind model.RelationKind) (*model.Edge, error) {
	body := map[string]string{"from": from, "to": to, "type": string(kind)}
	var edge model.Edge
	if err := c.doJSON(ctx, http.MethodPost, "/v1/relations", body, &edge); err != nil {
		return nil, err
	}
	return &edge, nil
}

func (c *HTTPClient) Unlink(ctx context.Context, from, to string, kind model.RelationKind) (bool, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("type", string(kind))
	var resp struct {
		Removed bool `json:"removed"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/v1/relations?"+q.Encode(), nil, &resp); err != nil {
		return false, err
	}
	return resp.Removed, nil
}

func (c *HTTPClient) Retype(ctx context.Context, req *RetypeRequest) (*model.Edge, error) {
	var edge model.Edge
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/relations", req, &edge); err != nil {
		return nil, err
	}
	return &edge, nil
}

// --- Nodes ---

func (c *HTTPClient) AddNode(ctx context.Context, req *AddNodeRequest) (*model.Node, error) {
	var n model.Node
	if err := c.doJSON(ctx, http.MethodPost, "/v1/nodes", req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) MoveNode(ctx context.Context, id string, x, y float64) (*model.Node, error) {
	body := map[string]float64{"x": x, "y": y}
	var n model.Node
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/nodes/"+url.PathEscape(id), body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) DeleteNode(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/nodes/"+url.PathEscape(id), nil, nil)
}

// --- Tasks ---

func (c *HTTPClient) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	q := url.Values{}
	if req != nil {
		if req.Path != "" {
			q.Set("path", req.Path)
		}
		if req.Completed != nil {
			q.Set("completed", strconv.FormatBool(*req.Completed))
		}
	}
	path := "/v1/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp ListTasksResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error) {
	var t model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) ArchiveTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/archive", nil, nil)
}

func (c *HTTPClient) SetCompleted(ctx context.Context, id string, completed bool) (bool, error) {
	body := map[string]bool{"completed": completed}
	var resp struct {
		Changed bool `json:"changed"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/complete", body, &resp); err != nil {
		return false, err
	}
	return resp.Changed, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
