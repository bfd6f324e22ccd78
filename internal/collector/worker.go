package collector

import (
	"context"
	"errors"
	"log"
	"time"
)

// nextRun returns the first time after now at hour:00 local time.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartDailyWorker runs the collector once a day at the given local hour until
// ctx is done. A negative hour disables the worker.
func StartDailyWorker(ctx context.Context, c *Collector, hour int) {
	if hour < 0 {
		log.Printf("daily collection disabled")
		return
	}
	go func() {
		for {
			next := nextRun(time.Now(), hour)
			log.Printf("next collection run at %s", next.Format(time.RFC3339))
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			if _, err := c.Run(ctx); err != nil {
				if errors.Is(err, ErrRunning) {
					log.Printf("scheduled collection skipped: %v", err)
					continue
				}
				log.Printf("collection run error: %v", err)
			}
		}
	}()
}
