package pace

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := (Sleep{}).Pause(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("pause ignored cancellation")
	}
}

func TestSleepWaits(t *testing.T) {
	start := time.Now()
	if err := (Sleep{}).Pause(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("returned early")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	for _, d := range []time.Duration{time.Second, 500 * time.Millisecond} {
		if err := r.Pause(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.Total(); got != 1500*time.Millisecond {
		t.Fatalf("total = %s", got)
	}
	if got := len(r.Pauses()); got != 2 {
		t.Fatalf("pauses = %d", got)
	}
}
