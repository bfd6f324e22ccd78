package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"vitalsboard/internal/vitals"
)

// DefaultGA4Endpoint is the GA4 Data API base; the property path is appended.
const DefaultGA4Endpoint = "https://analyticsdata.googleapis.com/v1beta"

const topArticleCandidates = 20

// Error pages are recognised by title text or by a path segment.
var (
	titleMarkers = []string{"404", "error", "not found", "página no encontrada"}
	pathMarkers  = []string{"/404", "/error", "/500"}
)

var errNoRows = errors.New("report returned no rows")

// AnalyticsClient runs GA4 reports for the previous full day. Reports are not
// retried; any failure yields the empty result.
type AnalyticsClient struct {
	HTTP     *HTTP
	Endpoint string
	Tokens   oauth2.TokenSource
	// Titles backfills article titles GA4 reports as "(not set)". Optional.
	Titles *TitleFetcher
	Logger *slog.Logger
}

type ga4Name struct {
	Name string `json:"name"`
}

type ga4DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type ga4OrderBy struct {
	Metric struct {
		MetricName string `json:"metricName"`
	} `json:"metric"`
	Desc bool `json:"desc"`
}

type ga4Request struct {
	Dimensions []ga4Name      `json:"dimensions,omitempty"`
	Metrics    []ga4Name      `json:"metrics"`
	DateRanges []ga4DateRange `json:"dateRanges"`
	OrderBys   []ga4OrderBy   `json:"orderBys,omitempty"`
	Limit      int            `json:"limit,omitempty"`
}

type ga4Value struct {
	Value string `json:"value"`
}

type ga4Row struct {
	DimensionValues []ga4Value `json:"dimensionValues"`
	MetricValues    []ga4Value `json:"metricValues"`
}

type ga4Response struct {
	Rows []ga4Row `json:"rows"`
}

var yesterday = []ga4DateRange{{StartDate: "yesterday", EndDate: "yesterday"}}

func names(ns ...string) []ga4Name {
	out := make([]ga4Name, len(ns))
	for i, n := range ns {
		out[i] = ga4Name{Name: n}
	}
	return out
}

func (c *AnalyticsClient) runReport(ctx context.Context, propertyID string, req ga4Request) ([]ga4Row, error) {
	tok, err := c.Tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("analytics token: %w", err)
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultGA4Endpoint
	}
	uri := fmt.Sprintf("%s/properties/%s:runReport", strings.TrimRight(endpoint, "/"), propertyID)
	headers := map[string]string{"Authorization": tok.Type() + " " + tok.AccessToken}

	resp, err := c.HTTP.postJSON(ctx, uri, headers, req)
	if err != nil {
		return nil, err
	}
	if resp.status != 200 {
		return nil, fmt.Errorf("runReport status %d: %s", resp.status, snippet(resp.body, 200))
	}
	var body ga4Response
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return body.Rows, nil
}

// TopArticle returns the most viewed article page of yesterday. Home, error
// pages and single-segment (section) paths are skipped. Finding nothing is a
// normal outcome and yields an empty URL. origin is the site URL without a
// trailing slash; article paths are appended to it.
func (c *AnalyticsClient) TopArticle(ctx context.Context, propertyID, origin string) vitals.TopArticle {
	req := ga4Request{
		Dimensions: names("pagePath", "pageTitle"),
		Metrics:    names("screenPageViews"),
		DateRanges: yesterday,
		Limit:      topArticleCandidates,
	}
	order := ga4OrderBy{Desc: true}
	order.Metric.MetricName = "screenPageViews"
	req.OrderBys = []ga4OrderBy{order}

	rows, err := c.runReport(ctx, propertyID, req)
	if err != nil {
		c.Logger.Error("top article report failed", "property", propertyID, "error", err)
		return vitals.TopArticle{Outcome: vitals.Failed, Cause: err}
	}
	if len(rows) == 0 {
		c.Logger.Warn("no analytics rows", "property", propertyID)
		return vitals.TopArticle{Outcome: vitals.Unavailable, Cause: errNoRows}
	}

	for _, row := range rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 1 {
			continue
		}
		path := row.DimensionValues[0].Value
		title := row.DimensionValues[1].Value
		if !IsArticlePath(path, title) {
			continue
		}
		views, _ := strconv.ParseInt(row.MetricValues[0].Value, 10, 64)
		article := vitals.TopArticle{Outcome: vitals.OK, URL: origin + path, Title: title, Views: views}
		if c.Titles != nil && (title == "" || title == "(not set)") {
			if t, err := c.Titles.Title(ctx, article.URL); err == nil && t != "" {
				article.Title = t
			} else if err != nil {
				c.Logger.Warn("title backfill failed", "url", article.URL, "error", err)
			}
		}
		c.Logger.Info("top article", "site", origin, "title", article.Title, "views", views)
		return article
	}

	c.Logger.Warn("no qualifying article", "site", origin)
	return vitals.TopArticle{Outcome: vitals.Unavailable}
}

// IsArticlePath reports whether a GA4 page row looks like an article: not the
// home page, not an error page and at least two non-empty path segments.
func IsArticlePath(path, title string) bool {
	if path == "" || path == "/" {
		return false
	}
	lowerTitle := strings.ToLower(title)
	lowerPath := strings.ToLower(path)
	for _, m := range titleMarkers {
		if strings.Contains(lowerTitle, m) {
			return false
		}
	}
	for _, m := range pathMarkers {
		if strings.Contains(lowerPath, m) {
			return false
		}
	}
	segments := 0
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments++
		}
	}
	return segments >= 2
}

// GlobalAnalytics returns yesterday's traffic totals. Each metric is parsed
// on its own; a malformed value becomes zero without affecting the others.
func (c *AnalyticsClient) GlobalAnalytics(ctx context.Context, propertyID string) vitals.GlobalAnalytics {
	req := ga4Request{
		Metrics:    names("activeUsers", "screenPageViews", "bounceRate", "averageSessionDuration", "sessions"),
		DateRanges: yesterday,
	}
	rows, err := c.runReport(ctx, propertyID, req)
	if err != nil {
		c.Logger.Error("global analytics report failed", "property", propertyID, "error", err)
		return vitals.GlobalAnalytics{Outcome: vitals.Failed, Cause: err}
	}
	if len(rows) == 0 {
		c.Logger.Warn("no global analytics rows", "property", propertyID)
		return vitals.GlobalAnalytics{Outcome: vitals.Unavailable, Cause: errNoRows}
	}

	mv := rows[0].MetricValues
	at := func(i int) string {
		if i < len(mv) {
			return mv[i].Value
		}
		return ""
	}
	return vitals.GlobalAnalytics{
		Outcome:            vitals.OK,
		ActiveUsers:        parseCount(at(0)),
		Views:              parseCount(at(1)),
		BounceRate:         parseFloat(at(2)),
		AvgSessionDuration: parseFloat(at(3)),
		Sessions:           parseCount(at(4)),
	}
}

func parseCount(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return int64(parseFloat(s))
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
