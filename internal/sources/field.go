package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"vitalsboard/internal/vitals"
)

// DefaultCrUXEndpoint is the Chrome UX Report record query endpoint.
const DefaultCrUXEndpoint = "https://chromeuxreport.googleapis.com/v1/records:queryRecord"

var cruxMetrics = []string{
	"largest_contentful_paint",
	"cumulative_layout_shift",
	"interaction_to_next_paint",
	"first_contentful_paint",
	"experimental_time_to_first_byte",
}

// ErrNoRecord is the cause attached to field samples the provider had no data for.
var ErrNoRecord = errors.New("no field record")

// FieldClient fetches real-user p75 percentiles. It makes exactly one request
// per call; pacing between calls is the caller's job.
type FieldClient struct {
	HTTP     *HTTP
	Endpoint string
	APIKey   string
	Logger   *slog.Logger
}

type cruxRequest struct {
	Origin     string   `json:"origin,omitempty"`
	URL        string   `json:"url,omitempty"`
	FormFactor string   `json:"formFactor"`
	Metrics    []string `json:"metrics"`
}

type cruxResponse struct {
	Record *struct {
		Metrics map[string]struct {
			Percentiles struct {
				P75 json.RawMessage `json:"p75"`
			} `json:"percentiles"`
		} `json:"metrics"`
	} `json:"record"`
}

// Fetch returns the field sample for pageURL on the given device. A home page
// (empty path or "/") is queried as an origin, anything deeper as a URL.
func (c *FieldClient) Fetch(ctx context.Context, pageURL string, device vitals.Device) vitals.FieldSample {
	sample, err := c.fetch(ctx, pageURL, device)
	if err != nil {
		c.Logger.Warn("field fetch failed", "url", pageURL, "device", device, "error", err)
		return vitals.FailedField(err)
	}
	return sample
}

func (c *FieldClient) fetch(ctx context.Context, pageURL string, device vitals.Device) (vitals.FieldSample, error) {
	req := cruxRequest{FormFactor: device.FormFactor(), Metrics: cruxMetrics}
	if isOrigin(pageURL) {
		req.Origin = strings.TrimRight(pageURL, "/")
	} else {
		req.URL = pageURL
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultCrUXEndpoint
	}
	resp, err := c.HTTP.postJSON(ctx, endpoint+"?key="+url.QueryEscape(c.APIKey), nil, req)
	if err != nil {
		return vitals.FieldSample{}, err
	}
	if resp.status != 200 {
		c.Logger.Info("no field data", "url", pageURL, "device", device, "status", resp.status)
		return vitals.UnavailableField(fmt.Errorf("%w: status %d", ErrNoRecord, resp.status)), nil
	}

	var body cruxResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return vitals.FieldSample{}, fmt.Errorf("decode field response: %w", err)
	}
	if body.Record == nil || len(body.Record.Metrics) == 0 {
		return vitals.UnavailableField(ErrNoRecord), nil
	}

	var p vitals.Percentiles
	cls := vitals.Placeholder
	for name, m := range body.Record.Metrics {
		v, text, ok, err := parsePercentile(m.Percentiles.P75)
		if err != nil {
			return vitals.FieldSample{}, fmt.Errorf("metric %s: %w", name, err)
		}
		if !ok {
			continue
		}
		switch name {
		case "largest_contentful_paint":
			p.LCP = &v
		case "cumulative_layout_shift":
			p.CLS = &v
			cls = text
		case "interaction_to_next_paint":
			p.INP = &v
		case "first_contentful_paint":
			p.FCP = &v
		case "experimental_time_to_first_byte":
			p.TTFB = &v
		}
	}
	if p.LCP == nil && p.CLS == nil && p.INP == nil && p.FCP == nil && p.TTFB == nil {
		return vitals.UnavailableField(ErrNoRecord), nil
	}

	return vitals.FieldSample{
		Outcome: vitals.OK,
		Score:   vitals.Score(p),
		LCP:     seconds(p.LCP),
		CLS:     cls,
		INP:     millis(p.INP),
		FCP:     seconds(p.FCP),
		TTFB:    millis(p.TTFB),
	}, nil
}

// parsePercentile accepts both numeric and string p75 values; the provider
// reports CLS as a string. text is the value as the provider wrote it.
func parsePercentile(raw json.RawMessage) (v float64, text string, ok bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, "", false, nil
	}
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, string(raw), true, nil
	}
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, "", false, fmt.Errorf("p75 is neither number nor string: %s", raw)
	}
	v, err = strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, "", false, fmt.Errorf("p75 %q: %w", text, err)
	}
	return v, text, true, nil
}

func isOrigin(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return u.Path == "" || u.Path == "/"
}

func seconds(ms *float64) string {
	if ms == nil {
		return vitals.Placeholder
	}
	return strconv.FormatFloat(*ms/1000, 'f', 2, 64) + "s"
}

func millis(ms *float64) string {
	if ms == nil {
		return vitals.Placeholder
	}
	return strconv.FormatInt(int64(math.Round(*ms)), 10) + "ms"
}
