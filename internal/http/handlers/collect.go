package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/valyala/fasthttp"

	"vitalsboard/internal/collector"
)

// TriggerCollection starts a run in the background on base, which should
// live as long as the server.
func TriggerCollection(base context.Context, c *collector.Collector) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		err := c.Start(base, func(sum collector.Summary, err error) {
			log.Printf("manual collection finished: appended=%d dropped=%d err=%v", len(sum.Appended), len(sum.Dropped), err)
		})
		if errors.Is(err, collector.ErrRunning) {
			ctx.SetStatusCode(fasthttp.StatusConflict)
			jsonResponse(ctx, map[string]any{"status": "running"})
			return
		}
		ctx.SetStatusCode(fasthttp.StatusAccepted)
		jsonResponse(ctx, map[string]any{"status": "started"})
	}
}
