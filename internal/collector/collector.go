// Package collector runs the daily fetch-merge-append pass over the tracked
// sites. Calls are strictly sequential with fixed pauses between them so the
// third-party rate limits are respected.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vitalsboard/internal/config"
	"vitalsboard/internal/pace"
	"vitalsboard/internal/vitals"
)

// ErrRunning is returned when a run is requested while another is active.
var ErrRunning = errors.New("collection run already in progress")

type FieldSource interface {
	Fetch(ctx context.Context, pageURL string, device vitals.Device) vitals.FieldSample
}

type LabSource interface {
	Fetch(ctx context.Context, pageURL string, device vitals.Device) vitals.LabSample
}

type AnalyticsSource interface {
	TopArticle(ctx context.Context, propertyID, origin string) vitals.TopArticle
	GlobalAnalytics(ctx context.Context, propertyID string) vitals.GlobalAnalytics
}

// RowAppender is the write side of the row store.
type RowAppender interface {
	Append(ctx context.Context, row []string) error
}

// Pauses are the fixed waits inserted between external calls.
type Pauses struct {
	Field time.Duration // between field-data calls
	Lab   time.Duration // before the second lab call
	Site  time.Duration // after each site's row is appended
}

// Collector is built once from configuration and reused for every run.
type Collector struct {
	Sites     []config.Site
	Field     FieldSource
	Lab       LabSource
	Analytics AnalyticsSource
	Store     RowAppender
	Pacer     pace.Pacer
	Pauses    Pauses
	Now       func() time.Time
	Logger    *slog.Logger
	Telemetry *Telemetry

	mu sync.Mutex
}

// Summary reports what one run did.
type Summary struct {
	Date     string
	Appended []string
	Dropped  []string
}

// Run processes every configured site once. A site whose row cannot be
// appended is logged and skipped; only context cancellation stops the run
// early. Returns ErrRunning if another run holds the collector.
func (c *Collector) Run(ctx context.Context) (Summary, error) {
	if !c.mu.TryLock() {
		return Summary{}, ErrRunning
	}
	defer c.mu.Unlock()
	return c.run(ctx)
}

// Start begins a run in the background and returns at once. done, if not
// nil, receives the outcome. Returns ErrRunning if a run is active.
func (c *Collector) Start(ctx context.Context, done func(Summary, error)) error {
	if !c.mu.TryLock() {
		return ErrRunning
	}
	go func() {
		defer c.mu.Unlock()
		sum, err := c.run(ctx)
		if err != nil {
			c.Logger.Error("collection run aborted", "error", err)
		}
		if done != nil {
			done(sum, err)
		}
	}()
	return nil
}

func (c *Collector) run(ctx context.Context) (Summary, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	sum := Summary{Date: now().Format(DateLayout)}
	c.Logger.Info("collection run started", "date", sum.Date, "sites", len(c.Sites))

	for _, site := range c.Sites {
		snap, err := c.collectSite(ctx, sum.Date, site)
		if err != nil {
			return sum, err
		}
		c.Telemetry.observeSnapshot(snap)

		err = c.Store.Append(ctx, snap.Row())
		c.Telemetry.observeAppend(site.Name, err)
		if err != nil {
			c.Logger.Error("row append failed", "site", site.Name, "error", err)
			sum.Dropped = append(sum.Dropped, site.Name)
		} else {
			c.Logger.Info("row saved", "site", site.Name)
			sum.Appended = append(sum.Appended, site.Name)
		}

		if err := c.Pacer.Pause(ctx, c.Pauses.Site); err != nil {
			return sum, err
		}
	}

	c.Telemetry.observeRunEnd(now())
	c.Logger.Info("collection run finished", "appended", len(sum.Appended), "dropped", len(sum.Dropped))
	return sum, nil
}

// collectSite gathers one site's snapshot. It only fails when ctx is done.
func (c *Collector) collectSite(ctx context.Context, date string, site config.Site) (SiteSnapshot, error) {
	c.Logger.Info("processing site", "site", site.Name)
	snap := SiteSnapshot{Date: date, Site: site}

	snap.Home = c.field(ctx, site.URL, vitals.Mobile)
	if err := c.Pacer.Pause(ctx, c.Pauses.Field); err != nil {
		return snap, err
	}
	snap.Desktop = c.field(ctx, site.URL, vitals.Desktop)

	snap.Lab = c.lab(ctx, site.URL, vitals.Mobile)
	if err := c.Pacer.Pause(ctx, c.Pauses.Lab); err != nil {
		return snap, err
	}
	snap.LabDesktop = c.lab(ctx, site.URL, vitals.Desktop)

	start := time.Now()
	snap.Article = c.Analytics.TopArticle(ctx, site.PropertyID, site.Origin())
	c.Telemetry.observeFetch("top_article", "", snap.Article.Outcome, start)

	if snap.Article.URL != "" {
		snap.StoryCollected = true
		snap.Story = c.field(ctx, snap.Article.URL, vitals.Mobile)
		if err := c.Pacer.Pause(ctx, c.Pauses.Field); err != nil {
			return snap, err
		}
		snap.StoryDesktop = c.field(ctx, snap.Article.URL, vitals.Desktop)
		if err := c.Pacer.Pause(ctx, c.Pauses.Field); err != nil {
			return snap, err
		}
	}

	start = time.Now()
	snap.Analytics = c.Analytics.GlobalAnalytics(ctx, site.PropertyID)
	c.Telemetry.observeFetch("global_analytics", "", snap.Analytics.Outcome, start)

	return snap, ctx.Err()
}

func (c *Collector) field(ctx context.Context, pageURL string, device vitals.Device) vitals.FieldSample {
	start := time.Now()
	s := c.Field.Fetch(ctx, pageURL, device)
	c.Telemetry.observeFetch("field", device, s.Outcome, start)
	return s
}

func (c *Collector) lab(ctx context.Context, pageURL string, device vitals.Device) vitals.LabSample {
	start := time.Now()
	s := c.Lab.Fetch(ctx, pageURL, device)
	c.Telemetry.observeFetch("lab", device, s.Outcome, start)
	return s
}

