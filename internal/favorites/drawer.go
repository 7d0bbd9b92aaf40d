// Package favorites implements the favorites drawer: a small console over
// the user's favorited campaigns that reacts to broadcast events.
//
// While the drawer is open a FavoritesChanged event triggers a full reload
// of the visible window; while closed only the badge count is refreshed.
// Loads of the same kind are spaced at least MinSpacing apart. A request
// that arrives too early is deferred to a single trailing load rather than
// dropped.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/backer/internal/broadcast"
	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/platform"
)

const (
	// BatchSize is how many more favorites LoadMore reveals.
	BatchSize = 5
	// MinSpacing separates two loads of the same kind.
	MinSpacing = 500 * time.Millisecond
)

// LoadKind distinguishes the full list load from the count-only refresh.
type LoadKind int

const (
	LoadCount LoadKind = iota
	LoadFull
)

func (k LoadKind) String() string {
	if k == LoadFull {
		return "full"
	}
	return "count"
}

// Snapshot is the drawer state shown by the UI.
type Snapshot struct {
	Open    bool
	Items   []platform.Item
	Count   int
	Limit   int
	Loading bool
	Error   string
}

// HasMore reports whether LoadMore would reveal more favorites.
func (s Snapshot) HasMore() bool { return len(s.Items) < s.Count }

// Options configure a Drawer.
type Options struct {
	Source platform.FavoritesSource
	// Bus receives FavoritesChanged after Toggle.
	Bus *broadcast.Bus
	// Spacing overrides MinSpacing; negative disables spacing.
	Spacing  time.Duration
	OnChange func()
	Now      func() time.Time
}

// Drawer is the favorites drawer runtime.
type Drawer struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    Snapshot
	last     map[LoadKind]time.Time
	trailing map[LoadKind]*time.Timer
	loads    map[LoadKind]*console.Canceller

	inflight sync.WaitGroup
}

// New returns a closed drawer. Call Refresh to load the initial count.
func New(ctx context.Context, opts Options) (*Drawer, error) {
	if opts.Source == nil {
		return nil, errors.New("favorites drawer requires a source")
	}
	if opts.Spacing == 0 {
		opts.Spacing = MinSpacing
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Drawer{
		opts:     opts,
		ctx:      cctx,
		cancel:   cancel,
		state:    Snapshot{Limit: BatchSize},
		last:     make(map[LoadKind]time.Time),
		trailing: make(map[LoadKind]*time.Timer),
		loads: map[LoadKind]*console.Canceller{
			LoadCount: {},
			LoadFull:  {},
		},
	}, nil
}

// Snapshot returns the current drawer state.
func (d *Drawer) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Open shows the drawer and loads the first batch.
func (d *Drawer) Open() {
	d.mu.Lock()
	d.state.Open = true
	d.state.Limit = BatchSize
	d.requestLocked(LoadFull)
	d.mu.Unlock()
	d.changed()
}

// Close hides the drawer and abandons any full load.
func (d *Drawer) Close() {
	d.mu.Lock()
	d.state.Open = false
	d.state.Loading = false
	d.stopTrailingLocked(LoadFull)
	d.loads[LoadFull].Stop()
	d.mu.Unlock()
	d.changed()
}

// Toggle opens a closed drawer and closes an open one.
func (d *Drawer) Toggle() {
	if d.Snapshot().Open {
		d.Close()
		return
	}
	d.Open()
}

// LoadMore extends the visible window by BatchSize.
func (d *Drawer) LoadMore() {
	d.mu.Lock()
	if !d.state.Open || !d.state.HasMore() {
		d.mu.Unlock()
		return
	}
	d.state.Limit += BatchSize
	d.requestLocked(LoadFull)
	d.mu.Unlock()
	d.changed()
}

// Refresh reloads the list when open, otherwise only the count.
func (d *Drawer) Refresh() {
	d.mu.Lock()
	kind := LoadCount
	if d.state.Open {
		kind = LoadFull
	}
	d.requestLocked(kind)
	d.mu.Unlock()
	d.changed()
}

// HandleEvent reacts to a broadcast event.
func (d *Drawer) HandleEvent(ev broadcast.Event) {
	if _, ok := ev.(broadcast.FavoritesChanged); ok {
		d.Refresh()
	}
}

// Listen consumes sub until ctx ends or the subscription closes.
func (d *Drawer) Listen(ctx context.Context, sub *broadcast.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			d.HandleEvent(ev)
		}
	}
}

// ToggleFavorite flips campaignID in the favorites and broadcasts the change.
func (d *Drawer) ToggleFavorite(ctx context.Context, campaignID string) (bool, error) {
	added, err := d.opts.Source.ToggleFavorite(ctx, campaignID)
	if err != nil {
		return false, fmt.Errorf("toggle favorite %s: %w", campaignID, err)
	}
	if d.opts.Bus != nil {
		d.opts.Bus.Publish(broadcast.FavoritesChanged{ItemID: campaignID, Added: added})
	} else {
		d.Refresh()
	}
	return added, nil
}

// Wait blocks until trailing timers and loads in flight have settled.
func (d *Drawer) Wait() { d.inflight.Wait() }

// Shutdown cancels everything in flight.
func (d *Drawer) Shutdown() {
	d.mu.Lock()
	d.stopTrailingLocked(LoadFull)
	d.stopTrailingLocked(LoadCount)
	d.mu.Unlock()
	d.cancel()
}

// requestLocked starts a load of kind now, or schedules one trailing load
// when the previous load of that kind started less than the spacing ago.
func (d *Drawer) requestLocked(kind LoadKind) {
	if d.ctx.Err() != nil {
		return
	}
	if d.trailing[kind] != nil {
		return
	}
	spacing := d.opts.Spacing
	if last, ok := d.last[kind]; ok && spacing > 0 {
		if wait := spacing - d.opts.Now().Sub(last); wait > 0 {
			d.inflight.Add(1)
			d.trailing[kind] = time.AfterFunc(wait, func() {
				defer d.inflight.Done()
				d.mu.Lock()
				d.trailing[kind] = nil
				next := kind
				if next == LoadFull && !d.state.Open {
					next = LoadCount
				}
				d.startLocked(next)
				d.mu.Unlock()
				d.changed()
			})
			return
		}
	}
	d.startLocked(kind)
}

func (d *Drawer) stopTrailingLocked(kind LoadKind) {
	if t := d.trailing[kind]; t != nil {
		if t.Stop() {
			d.inflight.Done()
		}
		d.trailing[kind] = nil
	}
}

func (d *Drawer) startLocked(kind LoadKind) {
	if d.ctx.Err() != nil {
		return
	}
	d.last[kind] = d.opts.Now()
	token, ctx := d.loads[kind].Begin(d.ctx)
	limit := d.state.Limit
	if kind == LoadFull {
		d.state.Loading = true
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		var (
			page  platform.FavoritesPage
			count int
			err   error
		)
		if kind == LoadFull {
			page, err = d.opts.Source.Favorites(ctx, 0, limit)
		} else {
			count, err = d.opts.Source.FavoritesCount(ctx)
		}
		d.settle(kind, token, page, count, err)
	}()
}

func (d *Drawer) settle(kind LoadKind, token console.Token, page platform.FavoritesPage, count int, err error) {
	d.mu.Lock()
	loads := d.loads[kind]
	if !loads.IsCurrent(token) {
		d.mu.Unlock()
		return
	}
	loads.Done(token)

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		if kind == LoadFull {
			d.state.Loading = false
		}
	case err != nil:
		msg := platform.AsAPIError(err).Message
		slog.Warn("favorites load failed",
			slog.String("kind", kind.String()),
			slog.String("error", msg),
		)
		d.state.Error = msg
		if kind == LoadFull {
			d.state.Loading = false
		}
	case kind == LoadFull:
		d.state.Loading = false
		d.state.Error = ""
		d.state.Items = page.Items
		d.state.Count = page.Count
	default:
		d.state.Error = ""
		d.state.Count = count
	}
	d.mu.Unlock()
	d.changed()
}

func (d *Drawer) changed() {
	if d.opts.OnChange != nil {
		d.opts.OnChange()
	}
}
