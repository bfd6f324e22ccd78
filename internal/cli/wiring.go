package cli

import (
	"context"
	"fmt"
	"log/slog"

	"vitalsboard/internal/collector"
	"vitalsboard/internal/config"
	"vitalsboard/internal/pace"
	"vitalsboard/internal/sources"
)

// newCollector builds the collector and its provider clients from cfg.
func newCollector(ctx context.Context, cfg *config.Config, store collector.RowAppender, logger *slog.Logger, tel *collector.Telemetry) (*collector.Collector, error) {
	if cfg.PSIAPIKey == "" {
		return nil, fmt.Errorf("APP_PSI_API_KEY is required for collection")
	}
	tokens, err := sources.AnalyticsTokens(ctx, cfg.GA4Credentials)
	if err != nil {
		return nil, fmt.Errorf("analytics credentials: %w", err)
	}

	transport := sources.NewHTTP(cfg.HTTPTimeout)
	pacer := pace.Sleep{}

	return &collector.Collector{
		Sites: cfg.Sites,
		Field: &sources.FieldClient{
			HTTP:   transport,
			APIKey: cfg.PSIAPIKey,
			Logger: logger.With("source", "field"),
		},
		Lab: &sources.LabClient{
			HTTP:        transport,
			APIKey:      cfg.PSIAPIKey,
			MaxAttempts: cfg.LabMaxAttempts,
			RetryPause:  cfg.LabRetryPause,
			Pacer:       pacer,
			Logger:      logger.With("source", "lab"),
		},
		Analytics: &sources.AnalyticsClient{
			HTTP:   transport,
			Tokens: tokens,
			Titles: &sources.TitleFetcher{HTTP: transport},
			Logger: logger.With("source", "analytics"),
		},
		Store: store,
		Pacer: pacer,
		Pauses: collector.Pauses{
			Field: cfg.FieldPause,
			Lab:   cfg.LabPause,
			Site:  cfg.SitePause,
		},
		Logger:    logger,
		Telemetry: tel,
	}, nil
}
