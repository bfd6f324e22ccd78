package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vitalsboard/internal/config"
)

// PostgresStore keeps rows in the collection_rows table.
type PostgresStore struct {
	db *gorm.DB
}

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL).
func Connect(cfg *config.Config) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&CollectionRow{}); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, row []string) error {
	date, site, err := rowMeta(row)
	if err != nil {
		return err
	}
	rec := &CollectionRow{Date: date, SiteName: site, Cells: append([]string(nil), row...)}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("append row for %s: %w", site, err)
	}
	return nil
}

// ReadAll returns every row in append order.
func (s *PostgresStore) ReadAll(ctx context.Context) (string, error) {
	var recs []CollectionRow
	if err := s.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return "", fmt.Errorf("read rows: %w", err)
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.Cells)
	}
	return encodeSheet(rows)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
