// Package session ties one open board to the documents it is built from.
// Every exported method runs as a single unit under the session lock, so a
// rescan never interleaves with a mutation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/taskboard/internal/codec"
	"github.com/alfredjeanlab/taskboard/internal/depgraph"
	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/events"
	"github.com/alfredjeanlab/taskboard/internal/extract"
	"github.com/alfredjeanlab/taskboard/internal/idgen"
	"github.com/alfredjeanlab/taskboard/internal/layout"
	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/mutate"
	"github.com/alfredjeanlab/taskboard/internal/reconcile"
	"github.com/alfredjeanlab/taskboard/internal/store"
)

var (
	// ErrUnknownTask is returned when an id is not a live task.
	ErrUnknownTask = mutate.ErrUnknownTask
	// ErrUnknownNode is returned when an id is not a node on the board.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownEdge is returned when no edge matches a signature.
	ErrUnknownEdge = errors.New("unknown edge")
	// ErrInvalid wraps rejected arguments.
	ErrInvalid = errors.New("invalid argument")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Options configures a session.
type Options struct {
	Name      string // board name used in events; defaults to BoardPath
	BoardPath string // board document path, ignored by change notifications
	Filter    extract.Filter
	IDStyle   codec.IDStyle
	Layout    layout.Options
}

// Session holds the board, the live task map and the collaborators needed to
// keep them in step with the documents.
type Session struct {
	mu sync.Mutex

	docs      docstore.Store
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
	opts      Options

	board   *model.Board
	tasks   *model.TaskSet
	mutator *mutate.Mutator

	newNodeID func() (string, error)
}

// Open loads the board from st, scans docs and reconciles the two. The board
// is persisted only when the pass changed it.
func Open(ctx context.Context, docs docstore.Store, st store.Store, opts Options, pub events.Publisher, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if !opts.IDStyle.IsValid() {
		opts.IDStyle = codec.IDStyleCaret
	}
	if opts.Name == "" {
		opts.Name = opts.BoardPath
	}
	b, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	s := &Session{
		docs:      docs,
		store:     st,
		publisher: pub,
		logger:    logger,
		opts:      opts,
		board:     b,
		tasks:     model.NewTaskSet(),
		newNodeID: idgen.Node,
	}
	if _, err := s.rescan(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the board name used in events.
func (s *Session) Name() string {
	return s.opts.Name
}

// Rescan re-extracts every document and reconciles the board.
func (s *Session) Rescan(ctx context.Context) (reconcile.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rescan(ctx)
}

// HandleDocumentChange rescans when any of paths is a document other than
// the board itself. It reports whether a rescan ran.
func (s *Session) HandleDocumentChange(ctx context.Context, paths []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	relevant := false
	for _, p := range paths {
		if p != s.opts.BoardPath {
			relevant = true
			break
		}
	}
	if !relevant {
		return false, nil
	}
	s.logger.Debug("documents changed", "paths", paths)
	_, err := s.rescan(ctx)
	return err == nil, err
}

func (s *Session) rescan(ctx context.Context) (reconcile.Result, error) {
	ex := extract.New(s.docs, s.opts.Filter, s.opts.IDStyle, s.logger)
	tasks, stats, err := ex.ScanAll(ctx)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("scan: %w", err)
	}
	s.tasks = tasks
	s.mutator = mutate.New(s.docs, tasks, s.opts.IDStyle, s.logger)

	res := reconcile.Reconcile(s.board, tasks, depgraph.Build(tasks))
	refs := s.refreshBoardRefs(ctx)
	if res.Changed || refs {
		if err := s.store.Save(ctx, s.board); err != nil {
			return res, err
		}
	}
	s.logger.Info("board reconciled",
		"board", s.opts.Name,
		"documents", stats.Documents,
		"tasks", stats.Tasks,
		"minted", stats.Minted,
		"pruned_nodes", len(res.PrunedNodes),
		"pruned_edges", len(res.PrunedEdges),
		"added_edges", len(res.AddedEdges))
	s.publish(ctx, events.TopicBoardReconciled, events.BoardReconciled{
		Board:       s.opts.Name,
		Tasks:       stats.Tasks,
		PrunedNodes: res.PrunedNodes,
		PrunedEdges: len(res.PrunedEdges),
		AddedEdges:  len(res.AddedEdges),
	})
	return res, nil
}

// refreshBoardRefs updates the cached title and counts of every board
// reference node. Completion is judged against the current task map.
func (s *Session) refreshBoardRefs(ctx context.Context) bool {
	changed := false
	for _, id := range s.board.NodeIDs() {
		n := s.board.Nodes[id]
		ref, ok := n.Payload.(model.BoardPayload)
		if !ok {
			continue
		}
		next, err := s.boardSummary(ctx, ref.Path)
		if err != nil {
			s.logger.Warn("board reference unreadable", "node", id, "path", ref.Path, "err", err)
			continue
		}
		if next != ref {
			n.Payload = next
			changed = true
		}
	}
	return changed
}

func (s *Session) boardSummary(ctx context.Context, p string) (model.BoardPayload, error) {
	data, err := s.docs.Read(ctx, p)
	if err != nil {
		return model.BoardPayload{}, err
	}
	other, err := store.Decode([]byte(data))
	if err != nil {
		return model.BoardPayload{}, err
	}
	title := other.Title
	if title == "" {
		title = store.TitleFromPath(p)
	}
	total, done := other.Summary(s.tasks)
	return model.BoardPayload{Path: p, Title: title, TaskCount: total, DoneCount: done}, nil
}

// Snapshot is a detached copy of the session state.
type Snapshot struct {
	Board *model.Board  `json:"board"`
	Tasks []*model.Task `json:"tasks"`
}

// Snapshot returns a deep copy of the board and the tasks in location order.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := s.tasks.Sorted()
	tasks := make([]*model.Task, len(sorted))
	for i, t := range sorted {
		tasks[i] = t.Clone()
	}
	return Snapshot{Board: s.board.Clone(), Tasks: tasks}
}

// Task returns a copy of the live task with the given id.
func (s *Session) Task(id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownTask)
	}
	return t.Clone(), nil
}

// Forest arranges the live tasks into parent/child trees using the edges
// derived from text together with those drawn on the board.
func (s *Session) Forest() []*depgraph.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, t := range s.tasks.Sorted() {
		ids = append(ids, t.ID)
	}
	edges := append(depgraph.Build(s.tasks), s.board.Edges...)
	return depgraph.BuildForest(ids, edges)
}

func (s *Session) save(ctx context.Context) error {
	return s.store.Save(ctx, s.board)
}

// publish emits an event. Failures are logged and never fail the caller.
func (s *Session) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func (s *Session) node(id string) (*model.Node, error) {
	n, ok := s.board.Node(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownNode)
	}
	return n, nil
}

// linkDerived adds any derivable edge whose endpoints are both on the board.
func (s *Session) linkDerived() reconcile.Result {
	return reconcile.Reconcile(s.board, s.tasks, depgraph.Build(s.tasks))
}
