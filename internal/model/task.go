package model

import "sort"

// Location addresses a checklist line inside a document. Line is zero-based
// and shifts when lines above it are removed.
type Location struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// Task is a checklist line extracted from a document.
type Task struct {
	ID          string   `json:"id"`
	Location    Location `json:"location"`
	Text        string   `json:"text"` // line content after the checkbox marker
	Completed   bool     `json:"completed"`
	Indent      int      `json:"indent"`
	Description string   `json:"description,omitempty"`
	NotePath    string   `json:"note_path,omitempty"`
}

// Clone returns a copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// TaskSet is the live task map for one board, keyed by task id.
// All line-index bookkeeping goes through it.
type TaskSet struct {
	tasks map[string]*Task
}

// NewTaskSet returns an empty set.
func NewTaskSet() *TaskSet {
	return &TaskSet{tasks: make(map[string]*Task)}
}

// Len returns the number of tasks.
func (s *TaskSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tasks)
}

// Get returns the task with the given id.
func (s *TaskSet) Get(id string) (*Task, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.tasks[id]
	return t, ok
}

// Has reports whether id is a live task.
func (s *TaskSet) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Put inserts or replaces a task.
func (s *TaskSet) Put(t *Task) {
	s.tasks[t.ID] = t
}

// Delete removes a task. Deleting a missing id is a no-op.
func (s *TaskSet) Delete(id string) {
	delete(s.tasks, id)
}

// Sorted returns all tasks ordered by document path, then line, then id.
func (s *TaskSet) Sorted() []*Task {
	if s == nil {
		return nil
	}
	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Location, out[j].Location
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IDs returns the task ids in sorted order.
func (s *TaskSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InDocument returns the tasks located in path, ordered by line.
func (s *TaskSet) InDocument(path string) []*Task {
	var out []*Task
	for _, t := range s.Sorted() {
		if t.Location.Path == path {
			out = append(out, t)
		}
	}
	return out
}

// Reindex must run after a line is removed from a document: every task in
// the same document below the removed line moves up by one. It returns the
// number of tasks that moved.
func (s *TaskSet) Reindex(path string, removedLine int) int {
	if s == nil {
		return 0
	}
	moved := 0
	for _, t := range s.tasks {
		if t.Location.Path == path && t.Location.Line > removedLine {
			t.Location.Line--
			moved++
		}
	}
	return moved
}

// Completed returns the number of completed tasks.
func (s *TaskSet) Completed() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, t := range s.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}
