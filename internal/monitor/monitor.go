// Package monitor samples CPU usage alongside the pipeline for
// observability. It is fire-and-forget: it holds no locks, never blocks
// pipeline progress, and failures are logged at debug level and ignored.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

const defaultInterval = 5 * time.Second

// Start launches the sampler goroutine; it stops when ctx is done.
func Start(ctx context.Context, log *slog.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "monitor")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pcts, err := cpu.PercentWithContext(ctx, 0, false)
				if err != nil || len(pcts) == 0 {
					log.Debug("cpu sample failed", "error", err)
					continue
				}
				log.Info("cpu usage", "percent", pcts[0])
			}
		}
	}()
}
