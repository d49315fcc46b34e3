// Package postgres implements the store.Store interface backed by PostgreSQL.
// Each board is one row holding the persisted JSON as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// BoardStore implements store.Store for one named board.
type BoardStore struct {
	db     *sql.DB
	name   string
	logger *slog.Logger
}

// Compile-time check that BoardStore implements store.Store.
var _ store.Store = (*BoardStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL, name string, logger *slog.Logger) (*BoardStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db, name, logger), nil
}

// NewWithDB wraps an open database without running migrations.
func NewWithDB(db *sql.DB, name string, logger *slog.Logger) *BoardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardStore{db: db, name: name, logger: logger}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *BoardStore) Close() error {
	return s.db.Close()
}

// Name returns the board's row key.
func (s *BoardStore) Name() string { return s.name }

func (s *BoardStore) Load(ctx context.Context) (*model.Board, error) {
	data, err := queryLoadBoard(ctx, s.db, s.name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewBoard(store.TitleFromPath(s.name)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", s.name, err)
	}
	b, err := store.Decode(data)
	if err != nil {
		s.logger.Warn("board unreadable, starting empty", "board", s.name, "err", err)
		return model.NewBoard(store.TitleFromPath(s.name)), nil
	}
	return b, nil
}

func (s *BoardStore) Save(ctx context.Context, b *model.Board) error {
	data, err := store.Encode(b)
	if err != nil {
		return err
	}
	if err := queryUpsertBoard(ctx, s.db, s.name, b.Title, data); err != nil {
		return fmt.Errorf("save board %s: %w", s.name, err)
	}
	return nil
}

func (s *BoardStore) Create(ctx context.Context, b *model.Board) (*model.Board, error) {
	data, err := store.Encode(b)
	if err != nil {
		return nil, err
	}
	created, err := queryInsertBoard(ctx, s.db, s.name, b.Title, data)
	if err != nil {
		return nil, fmt.Errorf("create board %s: %w", s.name, err)
	}
	if !created {
		s.logger.Debug("board already exists, loading", "board", s.name)
		return s.Load(ctx)
	}
	return b, nil
}

// List returns a summary of every stored board, most recently updated first.
func (s *BoardStore) List(ctx context.Context) ([]Summary, error) {
	return queryListBoards(ctx, s.db)
}
