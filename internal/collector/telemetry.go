package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vitalsboard/internal/vitals"
)

// Telemetry holds the collector's Prometheus metrics. Use NewTelemetry with a
// private registry in tests.
type Telemetry struct {
	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	rowsAppended   *prometheus.CounterVec
	appendFailures *prometheus.CounterVec
	siteScore      *prometheus.GaugeVec
	lastRun        prometheus.Gauge
}

// NewTelemetry creates and registers the collector metrics on reg.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vitalsboard",
				Name:      "source_fetches_total",
				Help:      "External source calls by outcome.",
			},
			[]string{"source", "device", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vitalsboard",
				Name:      "source_fetch_duration_seconds",
				Help:      "Duration of external source calls in seconds, retries included.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"source"},
		),
		rowsAppended: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vitalsboard",
				Name:      "rows_appended_total",
				Help:      "Collection rows appended to the row store.",
			},
			[]string{"site"},
		),
		appendFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vitalsboard",
				Name:      "row_append_failures_total",
				Help:      "Collection rows dropped because the append failed.",
			},
			[]string{"site"},
		),
		siteScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "vitalsboard",
				Name:      "site_score",
				Help:      "Latest collected score per site, device and kind (field or lab).",
			},
			[]string{"site", "device", "kind"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vitalsboard",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last collection run finished.",
		}),
	}
	reg.MustRegister(t.fetches, t.fetchDuration, t.rowsAppended, t.appendFailures, t.siteScore, t.lastRun)
	return t
}

func (t *Telemetry) observeFetch(source string, device vitals.Device, outcome vitals.Outcome, start time.Time) {
	if t == nil {
		return
	}
	t.fetches.WithLabelValues(source, string(device), outcome.String()).Inc()
	t.fetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func (t *Telemetry) observeSnapshot(s SiteSnapshot) {
	if t == nil {
		return
	}
	set := func(device vitals.Device, kind string, ok bool, score int) {
		if ok {
			t.siteScore.WithLabelValues(s.Site.Name, string(device), kind).Set(float64(score))
		}
	}
	set(vitals.Mobile, "field", s.Home.Outcome == vitals.OK, s.Home.Score)
	set(vitals.Desktop, "field", s.Desktop.Outcome == vitals.OK, s.Desktop.Score)
	set(vitals.Mobile, "lab", s.Lab.Outcome == vitals.OK, s.Lab.Score)
	set(vitals.Desktop, "lab", s.LabDesktop.Outcome == vitals.OK, s.LabDesktop.Score)
}

func (t *Telemetry) observeAppend(site string, err error) {
	if t == nil {
		return
	}
	if err != nil {
		t.appendFailures.WithLabelValues(site).Inc()
		return
	}
	t.rowsAppended.WithLabelValues(site).Inc()
}

func (t *Telemetry) observeRunEnd(at time.Time) {
	if t == nil {
		return
	}
	t.lastRun.Set(float64(at.Unix()))
}
