package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process store. It counts writes so callers can assert
// that an operation touched nothing.
type Memory struct {
	mu     sync.Mutex
	docs   map[string]memDoc
	writes int
	clock  time.Time
}

type memDoc struct {
	content string
	modTime time.Time
}

// NewMemory returns a store seeded with files (path → content).
func NewMemory(files map[string]string) *Memory {
	m := &Memory{
		docs:  make(map[string]memDoc),
		clock: time.Unix(0, 0).UTC(),
	}
	for p, content := range files {
		m.docs[p] = memDoc{content: content, modTime: m.tick()}
	}
	return m
}

func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// Writes returns the number of successful Modify and Create calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Content returns a document's content, or "" when absent.
func (m *Memory) Content(p string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[p].content
}

// Put sets a document without counting it as a write.
func (m *Memory) Put(p, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p] = memDoc{content: content, modTime: m.tick()}
}

func (m *Memory) List(_ context.Context) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make([]Document, 0, len(m.docs))
	for p, d := range m.docs {
		docs = append(docs, Document{Path: p, Size: int64(len(d.content)), ModTime: d.modTime})
	}
	sortDocuments(docs)
	return docs, nil
}

func (m *Memory) Read(_ context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[p]
	if !ok {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return d.content, nil
}

func (m *Memory) Modify(_ context.Context, p string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[p]; !ok {
		return fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	m.docs[p] = memDoc{content: content, modTime: m.tick()}
	m.writes++
	return nil
}

func (m *Memory) Create(_ context.Context, p string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[p]; ok {
		return fmt.Errorf("%s: %w", p, ErrExists)
	}
	m.docs[p] = memDoc{content: content, modTime: m.tick()}
	m.writes++
	return nil
}
