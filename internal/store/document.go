package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// DocumentStore keeps a board as a JSON document in a document store.
type DocumentStore struct {
	docs   docstore.Store
	path   string
	logger *slog.Logger
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore returns a store for the board file at path.
func NewDocumentStore(docs docstore.Store, path string, logger *slog.Logger) *DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentStore{docs: docs, path: path, logger: logger}
}

// Path returns the board file path.
func (s *DocumentStore) Path() string { return s.path }

func (s *DocumentStore) Load(ctx context.Context) (*model.Board, error) {
	data, err := s.docs.Read(ctx, s.path)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.NewBoard(TitleFromPath(s.path)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read board %s: %w", s.path, err)
	}
	b, err := Decode([]byte(data))
	if err != nil {
		s.logger.Warn("board unreadable, starting empty", "path", s.path, "err", err)
		return model.NewBoard(TitleFromPath(s.path)), nil
	}
	return b, nil
}

func (s *DocumentStore) Save(ctx context.Context, b *model.Board) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}
	err = s.docs.Modify(ctx, s.path, string(data))
	if !errors.Is(err, docstore.ErrNotFound) {
		return wrapSave(s.path, err)
	}
	err = s.docs.Create(ctx, s.path, string(data))
	if errors.Is(err, docstore.ErrExists) {
		err = s.docs.Modify(ctx, s.path, string(data))
	}
	return wrapSave(s.path, err)
}

func (s *DocumentStore) Create(ctx context.Context, b *model.Board) (*model.Board, error) {
	data, err := Encode(b)
	if err != nil {
		return nil, err
	}
	err = s.docs.Create(ctx, s.path, string(data))
	if errors.Is(err, docstore.ErrExists) {
		s.logger.Debug("board already exists, loading", "path", s.path)
		return s.Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("create board %s: %w", s.path, err)
	}
	return b, nil
}

func (s *DocumentStore) Close() error { return nil }

func wrapSave(p string, err error) error {
	if err != nil {
		return fmt.Errorf("save board %s: %w", p, err)
	}
	return nil
}
