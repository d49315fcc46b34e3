// Package mutate rewrites single checklist lines: relation tokens, checkbox
// marks and line removal. A line that no longer matches what the task map
// expects is left alone and reported as a warning, never as an error.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/codec"
	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/idgen"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

var (
	// ErrUnknownTask is returned when an id is not in the task map.
	ErrUnknownTask = errors.New("unknown task")
	// ErrNoToken is returned for relation kinds that are not stored in text.
	ErrNoToken = errors.New("relation kind has no text token")
)

// Mutator applies line-level edits to the documents backing tasks.
type Mutator struct {
	docs   docstore.Store
	tasks  *model.TaskSet
	style  codec.IDStyle
	logger *slog.Logger
	newID  func() (string, error)
}

// New returns a mutator over tasks. Locations in tasks are kept current as
// lines are removed.
func New(docs docstore.Store, tasks *model.TaskSet, style codec.IDStyle, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	if !style.IsValid() {
		style = codec.IDStyleCaret
	}
	return &Mutator{docs: docs, tasks: tasks, style: style, logger: logger, newID: idgen.Task}
}

func (m *Mutator) task(id string) (*model.Task, error) {
	t, ok := m.tasks.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownTask)
	}
	return t, nil
}

// ApplyRelation adds the token for kind referencing source to target's line,
// just before its identifier. It reports whether the document changed.
func (m *Mutator) ApplyRelation(ctx context.Context, kind model.RelationKind, source, target string) (bool, error) {
	if !kind.HasToken() {
		return false, fmt.Errorf("%s: %w", kind, ErrNoToken)
	}
	t, err := m.task(target)
	if err != nil {
		return false, err
	}
	token := codec.RelationToken(kind, source)
	return m.rewrite(ctx, t, func(item codec.Checklist) (string, bool) {
		if codec.HasToken(item.Text, token) {
			return "", false
		}
		return item.WithText(codec.InsertToken(item.Text, token)), true
	})
}

// RemoveRelation deletes the token for kind referencing source from target's
// line. A missing token is a no-op.
func (m *Mutator) RemoveRelation(ctx context.Context, kind model.RelationKind, source, target string) (bool, error) {
	if !kind.HasToken() {
		return false, fmt.Errorf("%s: %w", kind, ErrNoToken)
	}
	t, err := m.task(target)
	if err != nil {
		return false, err
	}
	token := codec.RelationToken(kind, source)
	return m.rewrite(ctx, t, func(item codec.Checklist) (string, bool) {
		if !codec.HasToken(item.Text, token) {
			return "", false
		}
		return item.WithText(codec.RemoveToken(item.Text, token)), true
	})
}

// Retype changes the kind of the relation from -> to. The old token is
// removed from to's line first. When swap is set the endpoints trade places,
// so the new token lands on from's line instead. Either step is skipped when
// its target is not a task, and link relations never touch text. The
// resulting edge is returned.
func (m *Mutator) Retype(ctx context.Context, from, to string, oldKind, newKind model.RelationKind, swap bool) (model.Edge, error) {
	if oldKind.HasToken() && m.tasks.Has(to) {
		if _, err := m.RemoveRelation(ctx, oldKind, from, to); err != nil {
			return model.Edge{}, err
		}
	}
	if swap {
		from, to = to, from
	}
	edge := model.Edge{From: from, To: to, Type: newKind}
	if newKind.HasToken() && m.tasks.Has(to) {
		if _, err := m.ApplyRelation(ctx, newKind, from, to); err != nil {
			return edge, err
		}
	}
	return edge, nil
}

// SetCompleted ticks or clears the checkbox of a task.
func (m *Mutator) SetCompleted(ctx context.Context, id string, done bool) (bool, error) {
	t, err := m.task(id)
	if err != nil {
		return false, err
	}
	mark := codec.MarkOpen
	if done {
		mark = codec.MarkDone
	}
	changed, err := m.rewrite(ctx, t, func(item codec.Checklist) (string, bool) {
		if item.Completed() == done {
			return "", false
		}
		return item.WithMark(mark), true
	})
	if changed {
		t.Completed = done
	}
	return changed, err
}

// Tombstone soft-deletes a task: the line stays but its checkbox becomes the
// tombstone mark and the task leaves the map.
func (m *Mutator) Tombstone(ctx context.Context, id string) (bool, error) {
	t, err := m.task(id)
	if err != nil {
		return false, err
	}
	changed, err := m.rewrite(ctx, t, func(item codec.Checklist) (string, bool) {
		return item.WithMark(codec.MarkTombstone), true
	})
	if changed {
		m.tasks.Delete(id)
	}
	return changed, err
}

// DeleteLine removes a task's line from its document, drops the task, and
// then reindexes the tasks below it.
func (m *Mutator) DeleteLine(ctx context.Context, id string) (bool, error) {
	t, err := m.task(id)
	if err != nil {
		return false, err
	}
	loc := t.Location
	lines, eol, ok, err := m.load(ctx, t)
	if err != nil || !ok {
		return false, err
	}
	lines = append(lines[:loc.Line], lines[loc.Line+1:]...)
	if err := m.docs.Modify(ctx, loc.Path, codec.JoinLines(lines, eol)); err != nil {
		return false, fmt.Errorf("write %s: %w", loc.Path, err)
	}
	m.tasks.Delete(id)
	m.tasks.Reindex(loc.Path, loc.Line)
	return true, nil
}

// AppendTask adds a new open checklist line with a fresh identifier at the
// end of the document at path, creating the document when it is missing.
func (m *Mutator) AppendTask(ctx context.Context, path, title string) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.ContainsAny(title, "\r\n") {
		return nil, fmt.Errorf("task title must be a single non-empty line")
	}
	id, err := m.newID()
	if err != nil {
		return nil, err
	}
	text := codec.AppendIdentifier(title, id, m.style)
	line := codec.FormatChecklist(text)

	content, err := m.docs.Read(ctx, path)
	missing := errors.Is(err, docstore.ErrNotFound)
	if err != nil && !missing {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	lines, eol := codec.SplitLines(content)
	idx := len(lines)
	if lines[idx-1] == "" {
		idx--
	}
	lines = append(lines[:idx:idx], line, "")

	if missing {
		err = m.docs.Create(ctx, path, codec.JoinLines(lines, eol))
		if errors.Is(err, docstore.ErrExists) {
			// Lost a creation race; append to what the other writer made.
			return m.AppendTask(ctx, path, title)
		}
	} else {
		err = m.docs.Modify(ctx, path, codec.JoinLines(lines, eol))
	}
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	t := &model.Task{ID: id, Location: model.Location{Path: path, Line: idx}, Text: text}
	m.tasks.Put(t)
	return t, nil
}

// rewrite replaces t's line with the result of fn and keeps t.Text current.
func (m *Mutator) rewrite(ctx context.Context, t *model.Task, fn func(codec.Checklist) (string, bool)) (bool, error) {
	lines, eol, ok, err := m.load(ctx, t)
	if err != nil || !ok {
		return false, err
	}
	item, _ := codec.ParseChecklist(lines[t.Location.Line])
	updated, changed := fn(item)
	if !changed {
		return false, nil
	}
	lines[t.Location.Line] = updated
	if err := m.docs.Modify(ctx, t.Location.Path, codec.JoinLines(lines, eol)); err != nil {
		return false, fmt.Errorf("write %s: %w", t.Location.Path, err)
	}
	if next, ok := codec.ParseChecklist(updated); ok {
		t.Text = next.Text
	}
	return true, nil
}

// load reads t's document and checks that t's line is still its checklist
// item. ok is false when the line has moved or changed shape.
func (m *Mutator) load(ctx context.Context, t *model.Task) ([]string, string, bool, error) {
	content, err := m.docs.Read(ctx, t.Location.Path)
	if errors.Is(err, docstore.ErrNotFound) {
		m.logger.Warn("task document missing, skipping edit", "task", t.ID, "path", t.Location.Path)
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("read %s: %w", t.Location.Path, err)
	}
	lines, eol := codec.SplitLines(content)
	line := t.Location.Line
	if line < 0 || line >= len(lines) {
		m.logger.Warn("task line out of range, skipping edit", "task", t.ID, "path", t.Location.Path, "line", line)
		return nil, "", false, nil
	}
	item, ok := codec.ParseChecklist(lines[line])
	if !ok || codec.Decode(item.Text).ID != t.ID {
		m.logger.Warn("task line changed, skipping edit", "task", t.ID, "path", t.Location.Path, "line", line)
		return nil, "", false, nil
	}
	return lines, eol, true, nil
}
