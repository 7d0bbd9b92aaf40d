package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/state"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 30 * time.Second
)

// StatisticsFetcher loads the dashboard summary.
// This interface is implemented by *platform.Client and can be used for testing.
type StatisticsFetcher interface {
	Statistics(ctx context.Context) (platform.Statistics, error)
}

// calculateBackoff doubles base per consecutive failure, capped at
// maxBackoff (or base, when base is already larger).
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := max(maxBackoff, base)
	d := base
	for range failures {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}

// runPoller refreshes the store until ctx ends. The wait between polls
// grows while the API keeps failing. It always returns nil.
func runPoller(ctx context.Context, store *state.Store, client StatisticsFetcher, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		refresh(ctx, store, client)
		timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
	}
}

func refresh(ctx context.Context, store *state.Store, client StatisticsFetcher) {
	stats, err := client.Statistics(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, err)
		slog.Warn("statistics poll failed",
			slog.String("error", err.Error()),
			slog.Int("failures", store.Snapshot().ConsecutiveFailures),
		)
		return
	}
	store.Update(stats, nil)
}
