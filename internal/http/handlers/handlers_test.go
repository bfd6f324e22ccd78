package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"vitalsboard/internal/collector"
	"vitalsboard/internal/config"
	"vitalsboard/internal/diagnosis"
	"vitalsboard/internal/ingest"
	"vitalsboard/internal/vitals"
	"vitalsboard/web"
)

type fakeReader struct {
	text string
	err  error
}

func (f fakeReader) ReadAll(context.Context) (string, error) { return f.text, f.err }

func sheet(rows ...[]string) string {
	lines := []string{strings.Join(collector.Columns, ",")}
	for _, r := range rows {
		lines = append(lines, strings.Join(r, ","))
	}
	return strings.Join(lines, "\n") + "\n"
}

func cells(date, site string, home, desktop, lab int, homeLCP string) []string {
	r := make([]string, len(collector.Columns))
	for i := range r {
		r[i] = "-"
	}
	r[0], r[1] = date, site
	r[3], r[4] = strconv.Itoa(home), homeLCP
	r[13], r[24] = strconv.Itoa(lab), strconv.Itoa(desktop)
	return r
}

func serve(h fasthttp.RequestHandler, uri string, values map[string]string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI(uri)
	for k, v := range values {
		ctx.SetUserValue(k, v)
	}
	h(&ctx)
	return &ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), v); err != nil {
		t.Fatalf("decode %q: %v", ctx.Response.Body(), err)
	}
}

func liveDataset() *Dataset {
	return &Dataset{
		Reader: fakeReader{text: sheet(
			cells("2024-11-14", "Metro PR", 40, 50, 30, "5.0s"),
			cells("2024-11-15", "Metro Puerto Rico", 60, 70, 55, "4.5s"),
			cells("2024-11-15", "Alpha", 90, 40, 80, "1.9s"),
		)},
		Fallback: web.FallbackCSV(),
	}
}

func TestListSitesLive(t *testing.T) {
	ctx := serve(ListSites(liveDataset()), "/v1/sites", nil)
	var body struct {
		Source string              `json:"source"`
		Sites  []ingest.SiteRecord `json:"sites"`
	}
	decode(t, ctx, &body)
	if body.Source != "live" || len(body.Sites) != 2 {
		t.Fatalf("source=%s sites=%d", body.Source, len(body.Sites))
	}
	if len(body.Sites[0].History) != 2 {
		t.Fatalf("legacy rows not merged: %+v", body.Sites[0].History)
	}
}

func TestListSitesFallback(t *testing.T) {
	for name, reader := range map[string]fakeReader{
		"empty":  {text: sheet()},
		"failed": {err: errors.New("down")},
	} {
		t.Run(name, func(t *testing.T) {
			d := &Dataset{Reader: reader, Fallback: web.FallbackCSV()}
			ctx := serve(ListSites(d), "/v1/sites", nil)
			var body struct {
				Source string              `json:"source"`
				Sites  []ingest.SiteRecord `json:"sites"`
			}
			decode(t, ctx, &body)
			if body.Source != "fallback" || len(body.Sites) == 0 {
				t.Fatalf("source=%s sites=%d", body.Source, len(body.Sites))
			}
		})
	}
}

func TestSiteDetail(t *testing.T) {
	d := liveDataset()
	ctx := serve(SiteDetail(d), "/v1/sites/Metro%20PR", map[string]string{"name": "Metro PR"})
	var body struct {
		Site ingest.SiteRecord `json:"site"`
	}
	decode(t, ctx, &body)
	if body.Site.SiteName != "Metro Puerto Rico" || body.Site.Home.Score != 60 {
		t.Fatalf("site = %+v", body.Site)
	}

	ctx = serve(SiteDetail(d), "/v1/sites/Nope", map[string]string{"name": "Nope"})
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestSiteDiagnosis(t *testing.T) {
	d := liveDataset()
	ctx := serve(SiteDiagnosis(d), "/v1/sites/Metro/diagnosis?view=home", map[string]string{"name": "Metro Puerto Rico"})
	var body struct {
		Diagnosis struct {
			Status string `json:"status"`
		} `json:"diagnosis"`
	}
	decode(t, ctx, &body)
	if body.Diagnosis.Status != "critical" {
		t.Fatalf("status = %s", body.Diagnosis.Status)
	}

	ctx = serve(SiteDiagnosis(d), "/v1/sites/Alpha/diagnosis?view=history", map[string]string{"name": "Alpha"})
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestRanking(t *testing.T) {
	d := liveDataset()
	cases := []struct {
		by    string
		first string
	}{
		{"", "Alpha"},
		{"desktop", "Metro Puerto Rico"},
		{"lab", "Alpha"},
	}
	for _, tc := range cases {
		ctx := serve(Ranking(d), "/v1/ranking?by="+tc.by, nil)
		var body struct {
			Ranking []rankEntry `json:"ranking"`
		}
		decode(t, ctx, &body)
		if len(body.Ranking) != 2 || body.Ranking[0].SiteName != tc.first || body.Ranking[0].Rank != 1 {
			t.Fatalf("by=%q ranking = %+v", tc.by, body.Ranking)
		}
	}
	ctx := serve(Ranking(d), "/v1/ranking?by=bogus", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestSummary(t *testing.T) {
	d := liveDataset()
	ctx := serve(Summary(d), "/v1/summary", nil)
	var body struct {
		Source  string            `json:"source"`
		Summary diagnosis.Summary `json:"summary"`
	}
	decode(t, ctx, &body)
	sum := body.Summary
	if body.Source != "live" || sum.Device != "mobile" || sum.Average != 75 || sum.Evaluated != 2 {
		t.Fatalf("unexpected summary: %+v", body)
	}
	if sum.OtherAverage == nil || *sum.OtherAverage != 55 {
		t.Fatalf("other average = %v", sum.OtherAverage)
	}
	if sum.Trend == nil || *sum.Trend != 20 {
		t.Fatalf("trend = %v", sum.Trend)
	}
	if len(sum.Worst) != 2 || sum.Worst[0].SiteName != "Metro Puerto Rico" {
		t.Fatalf("worst = %+v", sum.Worst)
	}

	ctx = serve(Summary(d), "/v1/summary?device=desktop", nil)
	body.Summary = diagnosis.Summary{}
	decode(t, ctx, &body)
	if body.Summary.Average != 55 || body.Summary.Critical != 1 || body.Summary.Regular != 1 {
		t.Fatalf("desktop summary = %+v", body.Summary)
	}

	ctx = serve(Summary(d), "/v1/summary?device=tablet", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestExport(t *testing.T) {
	d := liveDataset()
	ctx := serve(Export(d), "/v1/export.csv", nil)
	if !strings.HasPrefix(string(ctx.Response.Body()), "Date,Site Name") {
		t.Fatalf("body = %q", ctx.Response.Body())
	}
	if ct := string(ctx.Response.Header.ContentType()); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %s", ct)
	}

	d.Reader = fakeReader{err: errors.New("down")}
	ctx = serve(Export(d), "/v1/export.csv", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusBadGateway {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestMetricsHandlerFiltersBySite(t *testing.T) {
	reg := prometheus.NewRegistry()
	scores := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "test_site_score"}, []string{"site"})
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_runs_total"})
	reg.MustRegister(scores, runs)
	scores.WithLabelValues("Alpha").Set(90)
	scores.WithLabelValues("Beta").Set(40)
	runs.Inc()

	ctx := serve(MetricsHandler(reg), "/metrics?site=Alpha", nil)
	body := string(ctx.Response.Body())
	if !strings.Contains(body, `test_site_score{site="Alpha"} 90`) {
		t.Fatalf("missing Alpha series:\n%s", body)
	}
	if strings.Contains(body, "Beta") {
		t.Fatalf("Beta not filtered:\n%s", body)
	}
	if !strings.Contains(body, "test_runs_total 1") {
		t.Fatalf("unlabeled family dropped:\n%s", body)
	}
}

type nopField struct{}

func (nopField) Fetch(context.Context, string, vitals.Device) vitals.FieldSample {
	return vitals.UnavailableField(nil)
}

type nopLab struct{}

func (nopLab) Fetch(context.Context, string, vitals.Device) vitals.LabSample {
	return vitals.EmptyLab()
}

type nopAnalytics struct{}

func (nopAnalytics) TopArticle(context.Context, string, string) vitals.TopArticle {
	return vitals.TopArticle{Outcome: vitals.Unavailable}
}

func (nopAnalytics) GlobalAnalytics(context.Context, string) vitals.GlobalAnalytics {
	return vitals.GlobalAnalytics{Outcome: vitals.Unavailable}
}

type gatePacer struct{ release chan struct{} }

func (p gatePacer) Pause(ctx context.Context, _ time.Duration) error {
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type discardStore struct{}

func (discardStore) Append(context.Context, []string) error { return nil }

func TestTriggerCollection(t *testing.T) {
	p := gatePacer{release: make(chan struct{})}
	c := &collector.Collector{
		Sites:     []config.Site{{Name: "Alpha", URL: "https://alpha.example/", PropertyID: "1"}},
		Field:     nopField{},
		Lab:       nopLab{},
		Analytics: nopAnalytics{},
		Store:     discardStore{},
		Pacer:     p,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := TriggerCollection(ctx, c)

	first := serve(h, "/v1/collect", nil)
	if first.Response.StatusCode() != fasthttp.StatusAccepted {
		t.Fatalf("first status = %d", first.Response.StatusCode())
	}
	second := serve(h, "/v1/collect", nil)
	if second.Response.StatusCode() != fasthttp.StatusConflict {
		t.Fatalf("second status = %d", second.Response.StatusCode())
	}
	close(p.release)
}
