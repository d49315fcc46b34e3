package postgres

import (
	"bytes"
	"database/sql"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanSummary scans name, title and updated_at into a Summary.
func scanSummary(row scannable) (Summary, error) {
	var (
		s     Summary
		title sql.NullString
	)
	if err := row.Scan(&s.Name, &title, &s.UpdatedAt); err != nil {
		return Summary{}, err
	}
	s.Title = title.String
	return s, nil
}

// jsonbBytes maps empty input to NULL.
func jsonbBytes(data []byte) []byte {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return data
}
