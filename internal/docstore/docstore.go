// Package docstore abstracts the text documents that tasks live in and that
// the board file is persisted to. Paths are slash-separated and relative to
// the store root.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

var (
	// ErrExists is returned by Create when the path is already taken.
	ErrExists = errors.New("document already exists")
	// ErrNotFound is returned when a path does not name a document.
	ErrNotFound = errors.New("document not found")
)

// MarkdownExt is the extension of documents that can hold tasks.
const MarkdownExt = ".md"

// Document describes a stored document.
type Document struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// IsMarkdown reports whether the document can hold checklist tasks.
func (d Document) IsMarkdown() bool {
	return strings.EqualFold(path.Ext(d.Path), MarkdownExt)
}

// Folder returns the directory part of the path, or "" at the root.
func (d Document) Folder() string {
	dir := path.Dir(d.Path)
	if dir == "." {
		return ""
	}
	return dir
}

// Store reads and writes documents.
type Store interface {
	// List returns every document sorted by path.
	List(ctx context.Context) ([]Document, error)
	// Read returns a document's full content.
	Read(ctx context.Context, p string) (string, error)
	// Modify replaces the content of an existing document.
	Modify(ctx context.Context, p string, content string) error
	// Create writes a new document and fails with ErrExists when p is taken.
	Create(ctx context.Context, p string, content string) error
}

// Resolve maps a document reference to a stored path. The reference is tried
// verbatim and then with the markdown extension appended.
func Resolve(ctx context.Context, s Store, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}
	p, err := Clean(ref)
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{p, p + MarkdownExt} {
		if _, err := s.Read(ctx, candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", ErrNotFound
}

// Clean normalizes p and rejects paths that leave the store root.
func Clean(p string) (string, error) {
	c := path.Clean(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
	c = strings.TrimPrefix(c, "/")
	if c == "." || c == "" || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("invalid document path %q", p)
	}
	return c, nil
}

func sortDocuments(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
}
