// Package pace inserts the fixed pauses that keep third-party APIs within
// their rate limits.
package pace

import (
	"context"
	"sync"
	"time"
)

// Pacer waits for d or until ctx is done.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration) error
}

// Sleep waits on a real timer.
type Sleep struct{}

func (Sleep) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Recorder returns immediately and remembers every requested pause.
type Recorder struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *Recorder) Pause(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	r.mu.Unlock()
	return ctx.Err()
}

// Pauses returns a copy of the recorded pauses in call order.
func (r *Recorder) Pauses() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.pauses...)
}

// Total is the sum of all recorded pauses.
func (r *Recorder) Total() time.Duration {
	var sum time.Duration
	for _, d := range r.Pauses() {
		sum += d
	}
	return sum
}
