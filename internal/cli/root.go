package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vitalsboard/internal/config"
)

var (
	envFile  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vitalsboard",
	Short: "Daily web-vitals collection and dashboard API for a fixed set of sites",
	Long: `vitalsboard collects field, lab and analytics data for every configured
site once a day, appends one row per site to the row store, and serves the
ingested records to the dashboard.

Running without a subcommand starts the server (same as 'vitalsboard serve').`,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
	SilenceUsage:      true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading APP_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", getEnvOrDefault("APP_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load(envFile)

	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = c
	return nil
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
