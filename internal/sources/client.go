// Package sources talks to the external providers: Chrome UX Report (field
// data), PageSpeed Insights (lab data) and the GA4 Data API (analytics).
//
// Clients never return errors to their caller. Every result carries a
// vitals.Outcome so one flaky provider cannot abort a collection run.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultTimeout = 30 * time.Second

// HTTP is the transport shared by the provider clients. Every call gets a
// deadline: the earlier of the context deadline and now+Timeout.
type HTTP struct {
	Client  *fasthttp.Client
	Timeout time.Duration
}

// NewHTTP returns a transport with the given per-call timeout.
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTP{
		Client: &fasthttp.Client{
			Name:                "vitalsboard",
			MaxResponseBodySize: 16 << 20,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
		Timeout: timeout,
	}
}

// response is a copied status/body pair; fasthttp responses are pooled.
type response struct {
	status int
	body   []byte
}

func (h *HTTP) do(ctx context.Context, method, uri string, headers map[string]string, body []byte) (response, error) {
	if err := ctx.Err(); err != nil {
		return response{}, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(h.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := h.Client.DoDeadline(req, resp, deadline); err != nil {
		return response{}, fmt.Errorf("%s %s: %w", method, redact(uri), err)
	}
	return response{status: resp.StatusCode(), body: append([]byte(nil), resp.Body()...)}, nil
}

func (h *HTTP) postJSON(ctx context.Context, uri string, headers map[string]string, payload any) (response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encode request: %w", err)
	}
	return h.do(ctx, fasthttp.MethodPost, uri, headers, body)
}

func (h *HTTP) get(ctx context.Context, uri string) (response, error) {
	return h.do(ctx, fasthttp.MethodGet, uri, nil, nil)
}

// redact drops the query string so API keys never reach the logs.
func redact(uri string) string {
	base, _, _ := strings.Cut(uri, "?")
	return base
}

// snippet returns at most n bytes of a response body for log messages.
func snippet(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
