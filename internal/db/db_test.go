package db

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vitalsboard/internal/collector"
	"vitalsboard/internal/config"
)

func sampleRow(date, site, title string) []string {
	row := make([]string, len(collector.Columns))
	for i := range row {
		row[i] = "-"
	}
	row[0], row[1], row[2], row[3] = date, site, "https://"+strings.ToLower(site)+".example/", "85"
	row[22] = title
	return row
}

func readBack(t *testing.T, s RowReader) [][]string {
	t.Helper()
	text, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	recs, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	return recs
}

func exerciseStore(t *testing.T, s RowStore) {
	ctx := context.Background()
	rows := [][]string{
		sampleRow("2024-11-14", "Alpha", "Plain title"),
		sampleRow("2024-11-14", "Beta", "Title, with comma"),
		sampleRow("2024-11-15", "Alpha", "Newer"),
	}
	for _, r := range rows {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got := readBack(t, s)
	if len(got) != len(rows)+1 {
		t.Fatalf("got %d records, want %d", len(got), len(rows)+1)
	}
	if got[0][0] != "Date" || len(got[0]) != len(collector.Columns) {
		t.Fatalf("bad header: %v", got[0])
	}
	for i, r := range rows {
		if strings.Join(got[i+1], "|") != strings.Join(r, "|") {
			t.Fatalf("row %d = %v, want %v", i, got[i+1], r)
		}
	}

	if err := s.Append(ctx, []string{"short"}); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rows.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStoreEmpty(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rows.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if got := readBack(t, s); len(got) != 1 {
		t.Fatalf("empty store returned %d records", len(got))
	}
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("APP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("APP_TEST_DATABASE_URL not set")
	}
	s, err := Connect(&config.Config{DatabaseURL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	if err := s.db.Exec("DELETE FROM collection_rows").Error; err != nil {
		t.Fatalf("reset: %v", err)
	}
	exerciseStore(t, s)
}

func TestConnectRejectsBadURL(t *testing.T) {
	for _, dsn := range []string{"", "mysql://x"} {
		if _, err := Connect(&config.Config{DatabaseURL: dsn}); err == nil {
			t.Errorf("Connect(%q) succeeded", dsn)
		}
	}
}

func TestOpenWithoutStore(t *testing.T) {
	if _, err := Open(&config.Config{}); !errors.Is(err, ErrNoStore) {
		t.Fatalf("err = %v, want ErrNoStore", err)
	}
}

func TestSheetSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pub" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Date,Site Name\n2024-11-15,Alpha\n"))
	}))
	defer srv.Close()

	s := NewSheetSource(srv.URL+"/pub", time.Second)
	text, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(text, "2024-11-15,Alpha") {
		t.Fatalf("unexpected body %q", text)
	}
	if err := s.Append(context.Background(), nil); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("append err = %v", err)
	}

	missing := NewSheetSource(srv.URL+"/nope", time.Second)
	if _, err := missing.ReadAll(context.Background()); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestReaderPrefersSheet(t *testing.T) {
	local := &SQLiteStore{}
	if r := Reader(&config.Config{}, local); r != RowReader(local) {
		t.Fatal("expected local store")
	}
	if _, ok := Reader(&config.Config{SheetCSVURL: "http://x/pub"}, local).(*SheetSource); !ok {
		t.Fatal("expected sheet source")
	}
}
