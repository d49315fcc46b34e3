package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func newTestStore(t *testing.T, name string) (*BoardStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewWithDB(db, name, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

const boardJSON = `{"version":1,"nodes":{"t-1":{"id":"t-1","x":10,"y":20}},"edges":[],"lanes":{},"orientation":"horizontal","snapToGrid":true,"title":"Plan"}`

func TestLoad(t *testing.T) {
	s, mock := newTestStore(t, "plan")
	mock.ExpectQuery("SELECT data FROM boards WHERE name = \\$1").WithArgs("plan").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(boardJSON)))

	b, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Title != "Plan" || b.Orientation != model.OrientationHorizontal || !b.SnapToGrid {
		t.Fatalf("board = %+v", b)
	}
	if n := b.Nodes["t-1"]; n == nil || n.X != 10 || n.Y != 20 {
		t.Fatalf("node = %+v", n)
	}
}

func TestLoad_Missing(t *testing.T) {
	s, mock := newTestStore(t, "boards/q3.board")
	mock.ExpectQuery("SELECT data FROM boards").WithArgs("boards/q3.board").
		WillReturnError(sql.ErrNoRows)

	b, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Title != "q3" || len(b.Nodes) != 0 || b.Version != model.CurrentVersion {
		t.Fatalf("board = %+v", b)
	}
}

func TestLoad_Malformed(t *testing.T) {
	s, mock := newTestStore(t, "plan")
	mock.ExpectQuery("SELECT data FROM boards").WithArgs("plan").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"nodes":[`)))

	b, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Title != "plan" || len(b.Nodes) != 0 {
		t.Fatalf("board = %+v", b)
	}
}

func TestLoad_QueryError(t *testing.T) {
	s, mock := newTestStore(t, "plan")
	mock.ExpectQuery("SELECT data FROM boards").WithArgs("plan").
		WillReturnError(errors.New("connection reset"))

	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSave(t *testing.T) {
	s, mock := newTestStore(t, "plan")
	mock.ExpectExec("INSERT INTO boards .+ ON CONFLICT \\(name\\) DO UPDATE").
		WithArgs("plan", "Plan", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Save(context.Background(), model.NewBoard("Plan")); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestCreate(t *testing.T) {
	s, mock := newTestStore(t, "plan")
	mock.ExpectExec("INSERT INTO boards .+ ON CONFLICT \\(name\\) DO NOTHING").
		WithArgs("plan", "Fresh", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := model.NewBoard("Fresh")
	got, err := s.Create(context.Background(), b)
	if err != nil || got != b {
		t.Fatalf("Create = %v, %v", got, err)
	}
}

func TestCreate_ExistingIsLoaded(t *testing.T) {
	s, mock := newTestStore(t, "plan")
	mock.ExpectExec("INSERT INTO boards .+ ON CONFLICT \\(name\\) DO NOTHING").
		WithArgs("plan", "Fresh", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT data FROM boards").WithArgs("plan").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(boardJSON)))

	got, err := s.Create(context.Background(), model.NewBoard("Fresh"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Title != "Plan" {
		t.Fatalf("expected existing board, got title %q", got.Title)
	}
}

func TestList(t *testing.T) {
	s, mock := newTestStore(t, "plan")
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT name, title, updated_at FROM boards").
		WillReturnRows(sqlmock.NewRows([]string{"name", "title", "updated_at"}).
			AddRow("plan", "Plan", now).
			AddRow("old", nil, now.Add(-time.Hour)))

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Name != "plan" || got[1].Title != "" {
		t.Fatalf("List = %+v", got)
	}
}

func TestJSONBBytes(t *testing.T) {
	if jsonbBytes(nil) != nil || jsonbBytes([]byte("  ")) != nil {
		t.Error("empty input should map to nil")
	}
	if string(jsonbBytes([]byte(`{}`))) != `{}` {
		t.Error("non-empty input should pass through")
	}
}
