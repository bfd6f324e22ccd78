package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"vitalsboard/internal/pace"
	"vitalsboard/internal/vitals"
)

// DefaultPSIEndpoint is the PageSpeed Insights v5 endpoint.
const DefaultPSIEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// LabClient runs synthetic performance audits. Non-200 answers are retried
// with a fixed pause; transport and decode errors end the call at once.
type LabClient struct {
	HTTP        *HTTP
	Endpoint    string
	APIKey      string
	MaxAttempts int
	RetryPause  time.Duration
	Pacer       pace.Pacer
	Logger      *slog.Logger
}

type psiAudit struct {
	DisplayValue string `json:"displayValue"`
}

type psiResponse struct {
	LighthouseResult *struct {
		Categories struct {
			Performance *struct {
				Score *float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
		Audits map[string]psiAudit `json:"audits"`
	} `json:"lighthouseResult"`
}

// Fetch audits pageURL with the device's strategy.
func (c *LabClient) Fetch(ctx context.Context, pageURL string, device vitals.Device) vitals.LabSample {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	uri := c.requestURI(pageURL, device)
	for attempt := 1; ; attempt++ {
		resp, err := c.HTTP.get(ctx, uri)
		if err != nil {
			c.Logger.Error("lab fetch failed", "url", pageURL, "device", device, "attempt", attempt, "error", err)
			return vitals.FailedLab(err)
		}
		if resp.status == 200 {
			sample, err := decodeLab(resp.body)
			if err != nil {
				c.Logger.Error("lab response unusable", "url", pageURL, "device", device, "error", err)
				return vitals.FailedLab(err)
			}
			return sample
		}

		if attempt >= attempts {
			err := fmt.Errorf("status %d after %d attempts", resp.status, attempt)
			c.Logger.Error("lab fetch gave up", "url", pageURL, "device", device, "error", err, "body", snippet(resp.body, 100))
			return vitals.FailedLab(err)
		}
		c.Logger.Warn("retrying lab fetch", "url", pageURL, "device", device, "attempt", attempt, "of", attempts, "status", resp.status)
		pacer := c.Pacer
		if pacer == nil {
			pacer = pace.Sleep{}
		}
		if err := pacer.Pause(ctx, c.RetryPause); err != nil {
			return vitals.FailedLab(err)
		}
	}
}

func (c *LabClient) requestURI(pageURL string, device vitals.Device) string {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultPSIEndpoint
	}
	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("category", "PERFORMANCE")
	q.Set("strategy", device.Strategy())
	if c.APIKey != "" {
		q.Set("key", c.APIKey)
	}
	return endpoint + "?" + q.Encode()
}

func decodeLab(body []byte) (vitals.LabSample, error) {
	var r psiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return vitals.LabSample{}, fmt.Errorf("decode lab response: %w", err)
	}
	lh := r.LighthouseResult
	if lh == nil {
		return vitals.EmptyLab(), nil
	}
	if lh.Categories.Performance == nil || lh.Categories.Performance.Score == nil {
		return vitals.LabSample{}, errors.New("performance category has no score")
	}

	required := func(id string) (string, error) {
		a, ok := lh.Audits[id]
		if !ok {
			return "", fmt.Errorf("audit %s missing", id)
		}
		return a.DisplayValue, nil
	}
	optional := func(id string) string {
		if a, ok := lh.Audits[id]; ok && a.DisplayValue != "" {
			return a.DisplayValue
		}
		return vitals.Placeholder
	}

	lcp, err := required("largest-contentful-paint")
	if err != nil {
		return vitals.LabSample{}, err
	}
	cls, err := required("cumulative-layout-shift")
	if err != nil {
		return vitals.LabSample{}, err
	}
	tbt, err := required("total-blocking-time")
	if err != nil {
		return vitals.LabSample{}, err
	}

	return vitals.LabSample{
		Outcome:    vitals.OK,
		Score:      int(math.Round(*lh.Categories.Performance.Score * 100)),
		LCP:        lcp,
		CLS:        cls,
		TBT:        tbt,
		FCP:        optional("first-contentful-paint"),
		SpeedIndex: optional("speed-index"),
		TTFB:       optional("server-response-time"),
	}, nil
}
