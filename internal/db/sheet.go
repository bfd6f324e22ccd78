package db

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// SheetSource reads a spreadsheet published as CSV. It never writes.
type SheetSource struct {
	URL     string
	Timeout time.Duration
	client  *fasthttp.Client
}

func NewSheetSource(url string, timeout time.Duration) *SheetSource {
	return &SheetSource{
		URL:     url,
		Timeout: timeout,
		client:  &fasthttp.Client{Name: "vitalsboard"},
	}
}

func (s *SheetSource) ReadAll(ctx context.Context) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.URL)
	req.Header.SetMethod(fasthttp.MethodGet)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("fetch sheet: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("fetch sheet: status %d", resp.StatusCode())
	}
	return string(resp.Body()), nil
}

func (s *SheetSource) Append(context.Context, []string) error { return ErrReadOnly }

func (s *SheetSource) Close() error { return nil }
