// Package db holds the append-only row stores behind the collector and the
// dashboard endpoints.
package db

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"vitalsboard/internal/collector"
	"vitalsboard/internal/config"
)

var (
	// ErrNoStore means no row store is configured.
	ErrNoStore = errors.New("no row store configured")
	// ErrReadOnly is returned by stores that only serve reads.
	ErrReadOnly = errors.New("row store is read-only")
)

// RowReader returns the whole sheet as CSV text, header row first.
type RowReader interface {
	ReadAll(ctx context.Context) (string, error)
}

// RowStore is the durable, append-only sheet. One call appends one row.
type RowStore interface {
	RowReader
	Append(ctx context.Context, row []string) error
	Close() error
}

// Open picks the write store: Postgres when APP_DATABASE_URL is set, the
// embedded SQLite file otherwise.
func Open(cfg *config.Config) (RowStore, error) {
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		s, err := Connect(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.TrimSpace(cfg.SQLitePath) != "":
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrNoStore
	}
}

// Reader picks where the dashboard reads from. A published sheet wins over
// the local store so an existing spreadsheet can keep feeding the dashboard.
func Reader(cfg *config.Config, local RowReader) RowReader {
	if cfg.SheetCSVURL != "" {
		return NewSheetSource(cfg.SheetCSVURL, cfg.HTTPTimeout)
	}
	return local
}

// encodeSheet renders rows under the standard header.
func encodeSheet(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(collector.Columns); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	return buf.String(), nil
}

func rowMeta(row []string) (date, site string, err error) {
	if len(row) != len(collector.Columns) {
		return "", "", fmt.Errorf("row has %d cells, want %d", len(row), len(collector.Columns))
	}
	return row[0], row[1], nil
}
