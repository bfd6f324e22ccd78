package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded row store used when no Postgres URL is set.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS collection_rows (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    site_name TEXT NOT NULL,
    cells TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_collection_rows_date ON collection_rows(date);
CREATE INDEX IF NOT EXISTS idx_collection_rows_site ON collection_rows(site_name);
`

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, row []string) error {
	date, site, err := rowMeta(row)
	if err != nil {
		return err
	}
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collection_rows (date, site_name, cells) VALUES (?, ?, ?)`,
		date, site, string(cells))
	if err != nil {
		return fmt.Errorf("failed to append row for %s: %w", site, err)
	}
	return nil
}

func (s *SQLiteStore) ReadAll(ctx context.Context) (string, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT cells FROM collection_rows ORDER BY id`)
	if err != nil {
		return "", fmt.Errorf("failed to query rows: %w", err)
	}
	defer rs.Close()

	var rows [][]string
	for rs.Next() {
		var raw string
		if err := rs.Scan(&raw); err != nil {
			return "", fmt.Errorf("failed to scan row: %w", err)
		}
		var row []string
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return "", fmt.Errorf("failed to decode row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return "", err
	}
	return encodeSheet(rows)
}
