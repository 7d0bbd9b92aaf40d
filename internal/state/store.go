package state

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/five82/backer/internal/broadcast"
	"github.com/five82/backer/internal/platform"
)

// Snapshot represents the latest dashboard data available to the UI.
type Snapshot struct {
	Statistics          platform.Statistics
	HasStatistics       bool
	UnreadCount         int
	FavoritesCount      int
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records a statistics poll. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(stats platform.Statistics, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Statistics = maps.Clone(stats)
	s.snapshot.HasStatistics = stats != nil
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetUnread records the notification badge count.
func (s *Store) SetUnread(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.UnreadCount = max(count, 0)
}

// SetFavorites records the favorites badge count.
func (s *Store) SetFavorites(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.FavoritesCount = max(count, 0)
}

// Apply folds a broadcast event into the store.
func (s *Store) Apply(ev broadcast.Event) {
	if u, ok := ev.(broadcast.UnreadCount); ok {
		s.SetUnread(u.Count)
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Statistics = maps.Clone(s.snapshot.Statistics)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
