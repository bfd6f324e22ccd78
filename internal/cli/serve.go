package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"vitalsboard/internal/collector"
	"vitalsboard/internal/db"
	"vitalsboard/internal/http/handlers"
	appmw "vitalsboard/internal/http/middleware"
	"vitalsboard/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the daily collection worker",
	Long: `Start the vitalsboard HTTP server.

The server provides:
  - Site records, ranking, health summary, diagnosis and CSV export
  - A token-protected manual collection trigger
  - Prometheus metrics
  - The daily collection worker (APP_COLLECT_HOUR, negative disables)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	store, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open row store: %w", err)
	}
	defer store.Close()

	tel := collector.NewTelemetry(prometheus.DefaultRegisterer)
	handlers.InitPrometheusMetrics(prometheus.DefaultRegisterer)

	dataset := &handlers.Dataset{
		Reader:   db.Reader(cfg, store),
		Fallback: web.FallbackCSV(),
		Timeout:  cfg.HTTPTimeout,
	}

	r := router.New()
	r.SaveMatchedRoutePath = true

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.GET("/v1/sites", handlers.ListSites(dataset))
	r.GET("/v1/sites/{name}", handlers.SiteDetail(dataset))
	r.GET("/v1/sites/{name}/diagnosis", handlers.SiteDiagnosis(dataset))
	r.GET("/v1/ranking", handlers.Ranking(dataset))
	r.GET("/v1/summary", handlers.Summary(dataset))
	r.GET("/v1/export.csv", handlers.Export(dataset))
	r.GET("/metrics", handlers.MetricsHandler(prometheus.DefaultGatherer))

	c, err := newCollector(ctx, cfg, store, logger, tel)
	if err != nil {
		log.Printf("collection disabled: %v", err)
	} else {
		collector.StartDailyWorker(ctx, c, cfg.CollectHour)
		r.POST("/v1/collect", appmw.BearerAuth(cfg.CollectTokenHash)(handlers.TriggerCollection(ctx, c)))
	}

	srv := &fasthttp.Server{
		Handler: handlers.RequestLogger(r.Handler),
		Name:    "vitalsboard",
	}

	go func() {
		<-ctx.Done()
		log.Printf("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("vitalsboard listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
