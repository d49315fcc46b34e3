// Package extract scans documents for checklist lines and turns them into
// tasks, minting identifiers for lines that lack one.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/codec"
	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/idgen"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Filter restricts which checklist lines become tasks. Empty lists match
// everything.
type Filter struct {
	Tags    []string // task must carry at least one of these tags
	Folders []string // document must live under one of these folders
}

// MatchesDocument reports whether path passes the folder filter.
func (f Filter) MatchesDocument(path string) bool {
	if len(f.Folders) == 0 {
		return true
	}
	for _, folder := range f.Folders {
		folder = strings.Trim(folder, "/")
		if folder == "" || path == folder || strings.HasPrefix(path, folder+"/") {
			return true
		}
	}
	return false
}

// MatchesTask reports whether parsed text passes the tag filter.
func (f Filter) MatchesTask(p codec.Parsed) bool {
	if len(f.Tags) == 0 {
		return true
	}
	for _, tag := range f.Tags {
		if p.HasTag(tag) {
			return true
		}
	}
	return false
}

// Stats summarizes one scan.
type Stats struct {
	Documents  int `json:"documents"`
	Tasks      int `json:"tasks"`
	Minted     int `json:"minted"`
	Writes     int `json:"writes"`
	Duplicates int `json:"duplicates"`
}

// Extractor turns checklist lines into tasks.
type Extractor struct {
	docs   docstore.Store
	filter Filter
	style  codec.IDStyle
	logger *slog.Logger
	newID  func() (string, error)
}

// New creates an extractor that reads and rewrites documents in docs.
func New(docs docstore.Store, filter Filter, style codec.IDStyle, logger *slog.Logger) *Extractor {
	if !style.IsValid() {
		style = codec.IDStyleCaret
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		docs:   docs,
		filter: filter,
		style:  style,
		logger: logger,
		newID:  idgen.Task,
	}
}

// ScanAll lists the store and scans every markdown document.
func (e *Extractor) ScanAll(ctx context.Context) (*model.TaskSet, Stats, error) {
	docs, err := e.docs.List(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("list documents: %w", err)
	}
	return e.Scan(ctx, docs)
}

// Scan extracts tasks from docs in order. Lines without an identifier get a
// new one, and each such document is rewritten once. Scanning unchanged text
// a second time performs no writes.
func (e *Extractor) Scan(ctx context.Context, docs []docstore.Document) (*model.TaskSet, Stats, error) {
	tasks := model.NewTaskSet()
	var stats Stats
	notes := make(map[string]noteResult)

	for _, doc := range docs {
		if !doc.IsMarkdown() || !e.filter.MatchesDocument(doc.Path) {
			continue
		}
		stats.Documents++
		if err := e.scanDocument(ctx, doc.Path, tasks, &stats, notes); err != nil {
			return nil, stats, err
		}
	}
	stats.Tasks = tasks.Len()
	return tasks, stats, nil
}

type noteResult struct {
	path        string
	description string
}

func (e *Extractor) scanDocument(ctx context.Context, path string, tasks *model.TaskSet, stats *Stats, notes map[string]noteResult) error {
	content, err := e.docs.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	lines, eol := codec.SplitLines(content)

	dirty := false
	fence := ""
	for i, line := range lines {
		if f := fenceMarker(line); f != "" {
			switch {
			case fence == "":
				fence = f
			case strings.HasPrefix(f, fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}

		item, ok := codec.ParseChecklist(line)
		if !ok || item.Tombstoned() {
			continue
		}
		parsed := codec.Decode(item.Text)
		if !e.filter.MatchesTask(parsed) {
			continue
		}

		text := item.Text
		id := parsed.ID
		if id == "" {
			id, err = e.newID()
			if err != nil {
				return fmt.Errorf("mint id for %s:%d: %w", path, i, err)
			}
			text = codec.AppendIdentifier(item.Text, id, e.style)
			lines[i] = item.WithText(text)
			dirty = true
			stats.Minted++
		}

		if prev, dup := tasks.Get(id); dup {
			stats.Duplicates++
			e.logger.Warn("duplicate task id",
				"id", id,
				"path", path, "line", i,
				"first_path", prev.Location.Path, "first_line", prev.Location.Line)
			continue
		}

		task := &model.Task{
			ID:        id,
			Location:  model.Location{Path: path, Line: i},
			Text:      text,
			Completed: item.Completed(),
			Indent:    item.IndentWidth(),
		}
		if ref := noteRef(parsed.Metadata); ref != "" {
			e.attachNote(ctx, task, ref, notes)
		}
		tasks.Put(task)
	}

	if !dirty {
		return nil
	}
	if err := e.docs.Modify(ctx, path, codec.JoinLines(lines, eol)); err != nil {
		return fmt.Errorf("write ids to %s: %w", path, err)
	}
	stats.Writes++
	return nil
}

// attachNote resolves a note reference into the task's description. A note
// that cannot be resolved leaves the description unset.
func (e *Extractor) attachNote(ctx context.Context, task *model.Task, ref string, cache map[string]noteResult) {
	res, ok := cache[ref]
	if !ok {
		p, desc, err := e.resolveNote(ctx, ref)
		if err != nil {
			e.logger.Debug("note not resolved", "task", task.ID, "note", ref, "err", err)
		}
		res = noteResult{path: p, description: desc}
		cache[ref] = res
	}
	if res.path == "" {
		task.NotePath = ref
		return
	}
	task.NotePath = res.path
	task.Description = res.description
}

// fenceMarker returns the fence run opening or closing a code block, or "".
func fenceMarker(line string) string {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 {
		return ""
	}
	for _, ch := range []string{"`", "~"} {
		if strings.HasPrefix(t, ch+ch+ch) {
			n := 0
			for n < len(t) && string(t[n]) == ch {
				n++
			}
			return t[:n]
		}
	}
	return ""
}
