package postgres

import (
	"context"
	"database/sql"
	"time"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Summary describes a stored board without decoding it.
type Summary struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

func queryLoadBoard(ctx context.Context, db executor, name string) ([]byte, error) {
	var data []byte
	err := db.QueryRowContext(ctx, `SELECT data FROM boards WHERE name = $1`, name).Scan(&data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func queryUpsertBoard(ctx context.Context, db executor, name, title string, data []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO boards (name, title, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET title = EXCLUDED.title, data = EXCLUDED.data, updated_at = now()`,
		name, title, jsonbBytes(data),
	)
	return err
}

// queryInsertBoard inserts a new board row and reports whether it did; a
// row that already exists is left untouched.
func queryInsertBoard(ctx context.Context, db executor, name, title string, data []byte) (bool, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO boards (name, title, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`,
		name, title, jsonbBytes(data),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func queryListBoards(ctx context.Context, db executor) ([]Summary, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, title, updated_at FROM boards ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
