// Package diagnosis turns a site's display metrics into a short health
// verdict with one issue per metric over its threshold.
package diagnosis

import (
	"errors"
	"fmt"

	"vitalsboard/internal/ingest"
)

type Status string

const (
	Excellent Status = "excellent"
	Warning   Status = "warning"
	Critical  Status = "critical"
)

// Metrics are display strings as stored in the sheet ("2.5s", "150ms").
type Metrics struct {
	Score int
	LCP   string
	CLS   string
	INP   string
	FCP   string
	TTFB  string
}

type Issue struct {
	Metric   string `json:"metric"`
	Text     string `json:"text"`
	Severity Status `json:"severity"`
}

type Result struct {
	Status  Status  `json:"status"`
	Summary string  `json:"summary"`
	Issues  []Issue `json:"issues"`
}

type rule struct {
	metric   string
	warn     float64
	critical float64
	text     string
}

// Checked in display order. TTFB and INP are in ms, LCP and FCP in seconds.
var rules = []rule{
	{"TTFB", 800, 1800, "Server takes %s to respond. Check CDN caching and server configuration; ad scripts can make this worse."},
	{"FCP", 1.8, 3.0, "First content takes %s to appear. Third-party ad and tracking scripts block the initial render."},
	{"LCP", 2.5, 4.0, "Main content takes %s to load. Ad slots compete with editorial content for network and CPU."},
	{"CLS", 0.1, 0.25, "Layout shifts unexpectedly (CLS: %s). Dynamic modules are injected without reserved space."},
	{"INP", 200, 500, "Interaction is sluggish (%s). Concurrent commercial scripts block the main thread."},
}

// Evaluate flags every metric above its warning threshold. Unparseable values
// ("-", "") are skipped.
func Evaluate(m Metrics) Result {
	values := map[string]string{"LCP": m.LCP, "CLS": m.CLS, "INP": m.INP, "FCP": m.FCP, "TTFB": m.TTFB}

	issues := []Issue{}
	critical := 0
	for _, r := range rules {
		raw := values[r.metric]
		v, ok := ingest.Number(raw)
		if !ok || v <= r.warn {
			continue
		}
		sev := Warning
		if v > r.critical {
			sev = Critical
			critical++
		}
		issues = append(issues, Issue{Metric: r.metric, Text: fmt.Sprintf(r.text, raw), Severity: sev})
	}

	switch {
	case len(issues) == 0:
		return Result{Status: Excellent, Summary: "Optimal user experience. Every metric is within the recommended range.", Issues: issues}
	case critical > 0:
		return Result{Status: Critical, Summary: fmt.Sprintf("%d critical %s. Needs attention and monitoring.", critical, plural(critical, "metric")), Issues: issues}
	default:
		return Result{Status: Warning, Summary: fmt.Sprintf("%d %s with room for improvement.", len(issues), plural(len(issues), "area")), Issues: issues}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// ErrUnknownView is returned by ForRecord for views other than home, article
// and desktop.
var ErrUnknownView = errors.New("unknown view")

// ForRecord evaluates one view of an ingested site.
func ForRecord(rec ingest.SiteRecord, view string) (Result, error) {
	switch view {
	case "", "home":
		h := rec.Home
		return Evaluate(Metrics{Score: h.Score, LCP: h.LCP, CLS: h.CLS, INP: h.INP, FCP: h.FCP, TTFB: h.TTFB}), nil
	case "article":
		a := rec.Article
		return Evaluate(Metrics{Score: a.Score, LCP: a.LCP, CLS: a.CLS, INP: a.INP}), nil
	case "desktop":
		d := rec.Desktop
		return Evaluate(Metrics{Score: d.Score, LCP: d.LCP, CLS: d.CLS, INP: d.INP, FCP: d.FCP, TTFB: d.TTFB}), nil
	default:
		return Result{}, fmt.Errorf("%w %q", ErrUnknownView, view)
	}
}
