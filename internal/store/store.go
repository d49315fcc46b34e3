// Package store persists boards. A board that is missing or cannot be decoded
// loads as an empty default board.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Store defines the persistence interface for one board.
type Store interface {
	// Load returns the persisted board, or a default board when there is
	// none or it is malformed.
	Load(ctx context.Context) (*model.Board, error)
	// Save persists the board, creating it when needed.
	Save(ctx context.Context, b *model.Board) error
	// Create persists b as a new board. If another writer created the board
	// first, the existing board is returned instead.
	Create(ctx context.Context, b *model.Board) (*model.Board, error)
	// Close releases resources held by the store.
	Close() error
}

// Encode renders a board in its persisted JSON form.
func Encode(b *model.Board) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a persisted board and fills in defaults.
func Decode(data []byte) (*model.Board, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty board data")
	}
	var b model.Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	b.Normalize()
	return &b, nil
}

// TitleFromPath derives a default board title from its file name.
func TitleFromPath(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
