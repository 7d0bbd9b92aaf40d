// Package broadcast is the process-wide publish/subscribe channel shared by
// the favorites drawer and the notification badge.
//
// Delivery is fire-and-forget: Publish never blocks, and events for a
// subscriber whose buffer is full are dropped. Subscribers must tolerate
// redundant or missing reload triggers.
package broadcast

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Event is a broadcast message.
type Event interface{ isEvent() }

// FavoritesChanged is published after a campaign is added to or removed
// from the favorites.
type FavoritesChanged struct {
	ItemID string
	Added  bool
}

// UnreadCount carries the latest unread notification count.
type UnreadCount struct {
	Count int
}

func (FavoritesChanged) isEvent() {}
func (UnreadCount) isEvent()      {}

// DefaultBuffer is the per-subscriber queue length used when Subscribe is
// given a non-positive size.
const DefaultBuffer = 16

// Bus fans events out to subscribers.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped atomic.Uint64
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscription receives events until Close.
type Subscription struct {
	bus  *Bus
	ch   chan Event
	once sync.Once
}

// Subscribe registers a subscriber with a buffer of size events.
func (b *Bus) Subscribe(size int) *Subscription {
	if size <= 0 {
		size = DefaultBuffer
	}
	s := &Subscription{bus: b, ch: make(chan Event, size)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// C returns the event channel. It is closed by Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}

// Publish delivers ev to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			b.dropped.Add(1)
			slog.Debug("broadcast subscriber full, dropping event", slog.Any("event", ev))
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }
