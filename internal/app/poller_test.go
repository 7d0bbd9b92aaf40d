package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type flakyStats struct {
	mu    sync.Mutex
	calls int
	fails int
}

func (f *flakyStats) Statistics(ctx context.Context) (platform.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fails {
		return nil, errors.New("connection refused")
	}
	return platform.Statistics{"total_campaigns": "45"}, nil
}

func TestRunPoller_RecoversAfterFailures(t *testing.T) {
	store := &state.Store{}
	fetcher := &flakyStats{fails: 2}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runPoller(ctx, store, fetcher, time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for !store.Snapshot().HasStatistics {
		if time.Now().After(deadline) {
			t.Fatalf("poller never recovered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runPoller = %v, want nil", err)
	}

	snap := store.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil {
		t.Fatalf("snapshot after recovery = %+v", snap)
	}
	if got := snap.Statistics.Int("total_campaigns"); got != 45 {
		t.Fatalf("total_campaigns = %d, want 45", got)
	}
}

func TestRefresh_KeepsDataOnError(t *testing.T) {
	store := &state.Store{}
	store.Update(platform.Statistics{"total_users": "30"}, nil)

	refresh(context.Background(), store, &flakyStats{fails: 1})
	snap := store.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.LastError == nil {
		t.Fatalf("failure not recorded: %+v", snap)
	}
	if got := snap.Statistics.Int("total_users"); got != 30 {
		t.Fatalf("previous statistics lost, total_users = %d", got)
	}
}
