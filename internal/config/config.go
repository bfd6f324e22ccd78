package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate.
type Config struct {
	ListenAddr string

	// DatabaseURL selects the Postgres row store when set.
	DatabaseURL string
	// SQLitePath is used for the embedded row store when DatabaseURL is empty.
	SQLitePath string
	// SheetCSVURL is a published CSV export. When set, the dashboard endpoints
	// read from it instead of the local row store.
	SheetCSVURL string

	PSIAPIKey      string
	GA4Credentials string

	// CollectHour is the local hour (0-23) of the daily run. Negative disables
	// the in-process scheduler.
	CollectHour int

	// CollectTokenHash is a bcrypt hash of the bearer token accepted by the
	// manual collection trigger. Empty disables the trigger.
	CollectTokenHash string

	HTTPTimeout    time.Duration
	FieldPause     time.Duration
	LabPause       time.Duration
	SitePause      time.Duration
	LabRetryPause  time.Duration
	LabMaxAttempts int

	Sites []Site
}

// Load reads configuration from environment variables and applies defaults.
// The site list comes from APP_SITES_FILE when set, otherwise DefaultSites.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:       getenv("APP_LISTEN_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("APP_DATABASE_URL"),
		SQLitePath:       getenv("APP_SQLITE_PATH", "vitalsboard.db"),
		SheetCSVURL:      os.Getenv("APP_SHEET_CSV_URL"),
		PSIAPIKey:        os.Getenv("APP_PSI_API_KEY"),
		GA4Credentials:   os.Getenv("APP_GA4_CREDENTIALS"),
		CollectHour:      4,
		CollectTokenHash: os.Getenv("APP_COLLECT_TOKEN_HASH"),
		HTTPTimeout:      getduration("APP_HTTP_TIMEOUT", 30*time.Second),
		FieldPause:       getduration("APP_FIELD_PAUSE", 500*time.Millisecond),
		LabPause:         getduration("APP_LAB_PAUSE", time.Second),
		SitePause:        getduration("APP_SITE_PAUSE", time.Second),
		LabRetryPause:    getduration("APP_LAB_RETRY_PAUSE", 2*time.Second),
		LabMaxAttempts:   3,
	}

	if v := os.Getenv("APP_COLLECT_HOUR"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h > 23 {
			return nil, fmt.Errorf("APP_COLLECT_HOUR must be an hour between 0 and 23 or negative, got %q", v)
		}
		cfg.CollectHour = h
	}

	sites := DefaultSites()
	if path := os.Getenv("APP_SITES_FILE"); path != "" {
		loaded, err := LoadSites(path)
		if err != nil {
			return nil, err
		}
		sites = loaded
	}
	if err := ValidateSites(sites); err != nil {
		return nil, err
	}
	cfg.Sites = sites

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return def
}
