package handlers

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
)

// MetricsHandler serves the Prometheus text format. With ?site=NAME, series
// carrying a site label are limited to that site; unlabeled families pass
// through unchanged.
func MetricsHandler(g prometheus.Gatherer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		metricFamilies, err := g.Gather()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to gather metrics")
			return
		}

		if site := string(ctx.QueryArgs().Peek("site")); site != "" {
			metricFamilies = filterBySite(metricFamilies, site)
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range metricFamilies {
			if err := encoder.Encode(mf); err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.FmtText))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}

func filterBySite(families []*dto.MetricFamily, site string) []*dto.MetricFamily {
	filtered := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		hasSiteLabel := false
		for _, m := range mf.GetMetric() {
			if siteLabel(m) != nil {
				hasSiteLabel = true
				break
			}
		}

		if !hasSiteLabel {
			filtered = append(filtered, mf)
			continue
		}

		var kept []*dto.Metric
		for _, m := range mf.GetMetric() {
			if l := siteLabel(m); l != nil && l.GetValue() == site {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			continue
		}

		filtered = append(filtered, &dto.MetricFamily{
			Name:   mf.Name,
			Help:   mf.Help,
			Type:   mf.Type,
			Metric: kept,
		})
	}
	return filtered
}

func siteLabel(m *dto.Metric) *dto.LabelPair {
	for _, l := range m.GetLabel() {
		if l.GetName() == "site" {
			return l
		}
	}
	return nil
}
