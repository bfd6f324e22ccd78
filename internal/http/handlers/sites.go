package handlers

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/valyala/fasthttp"

	"vitalsboard/internal/db"
	"vitalsboard/internal/diagnosis"
	"vitalsboard/internal/ingest"
)

// Dataset loads site records for the read endpoints. Every load re-reads and
// re-parses the row store.
type Dataset struct {
	Reader   db.RowReader
	Fallback string
	Timeout  time.Duration
}

const (
	sourceLive     = "live"
	sourceFallback = "fallback"
)

// Load returns the ingested records and where they came from. An empty or
// unreadable store switches to the offline dataset.
func (d *Dataset) Load() ([]ingest.SiteRecord, string) {
	text, err := d.raw()
	if err != nil {
		log.Printf("row store read failed, serving fallback: %v", err)
		return ingest.Parse(d.Fallback), sourceFallback
	}
	recs := ingest.Parse(text)
	if len(recs) == 0 {
		return ingest.Parse(d.Fallback), sourceFallback
	}
	return recs, sourceLive
}

func (d *Dataset) raw() (string, error) {
	if d.Reader == nil {
		return "", db.ErrNoStore
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return d.Reader.ReadAll(ctx)
}

func (d *Dataset) find(name string) (ingest.SiteRecord, string, bool) {
	recs, source := d.Load()
	name = ingest.CanonicalName(name)
	for _, r := range recs {
		if r.SiteName == name {
			return r, source, true
		}
	}
	return ingest.SiteRecord{}, source, false
}

func ListSites(d *Dataset) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		recs, source := d.Load()
		jsonResponse(ctx, map[string]any{"source": source, "sites": recs})
	}
}

func SiteDetail(d *Dataset) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		name, _ := ctx.UserValue("name").(string)
		rec, source, ok := d.find(name)
		if !ok {
			errResponse(ctx, fasthttp.StatusNotFound, "site not found")
			return
		}
		jsonResponse(ctx, map[string]any{"source": source, "site": rec})
	}
}

func SiteDiagnosis(d *Dataset) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		name, _ := ctx.UserValue("name").(string)
		rec, _, ok := d.find(name)
		if !ok {
			errResponse(ctx, fasthttp.StatusNotFound, "site not found")
			return
		}
		view := string(ctx.QueryArgs().Peek("view"))
		res, err := diagnosis.ForRecord(rec, view)
		if errors.Is(err, diagnosis.ErrUnknownView) {
			errResponse(ctx, fasthttp.StatusBadRequest, "view must be home, article or desktop")
			return
		}
		jsonResponse(ctx, map[string]any{"site": rec.SiteName, "view": viewName(view), "diagnosis": res})
	}
}

func viewName(v string) string {
	if v == "" {
		return "home"
	}
	return v
}

// Summary serves the cross-site health summary for one device.
func Summary(d *Dataset) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		recs, source := d.Load()
		sum, err := diagnosis.Summarize(recs, string(ctx.QueryArgs().Peek("device")))
		if errors.Is(err, diagnosis.ErrUnknownDevice) {
			errResponse(ctx, fasthttp.StatusBadRequest, "device must be mobile or desktop")
			return
		}
		jsonResponse(ctx, map[string]any{"source": source, "summary": sum})
	}
}

type rankEntry struct {
	Rank     int    `json:"rank"`
	SiteName string `json:"siteName"`
	Score    int    `json:"score"`
	Date     string `json:"date"`
}

var rankScores = map[string]func(ingest.SiteRecord) int{
	"home":    func(r ingest.SiteRecord) int { return r.Home.Score },
	"desktop": func(r ingest.SiteRecord) int { return r.Desktop.Score },
	"lab":     func(r ingest.SiteRecord) int { return r.Lab.Score },
	"article": func(r ingest.SiteRecord) int { return r.Article.Score },
}

// Ranking orders sites by the chosen current score, best first. Ties keep
// ingestion order.
func Ranking(d *Dataset) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		by := string(ctx.QueryArgs().Peek("by"))
		if by == "" {
			by = "home"
		}
		score, ok := rankScores[by]
		if !ok {
			errResponse(ctx, fasthttp.StatusBadRequest, "by must be home, desktop, lab or article")
			return
		}

		recs, source := d.Load()
		sort.SliceStable(recs, func(i, j int) bool { return score(recs[i]) > score(recs[j]) })
		out := make([]rankEntry, 0, len(recs))
		for i, r := range recs {
			out = append(out, rankEntry{Rank: i + 1, SiteName: r.SiteName, Score: score(r), Date: r.Date})
		}
		jsonResponse(ctx, map[string]any{"source": source, "by": by, "ranking": out})
	}
}

// Export returns the row store text as-is.
func Export(d *Dataset) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		text, err := d.raw()
		if err != nil {
			log.Printf("export failed: %v", err)
			errResponse(ctx, fasthttp.StatusBadGateway, "failed to read row store")
			return
		}
		ctx.SetContentType("text/csv; charset=utf-8")
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="vitalsboard-export.csv"`)
		ctx.SetBodyString(text)
	}
}
