package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/five82/backer/internal/platform"
)

// Exporter downloads the filtered collection.
type Exporter interface {
	Export(ctx context.Context, resource platform.Resource, filters map[string]string) ([]byte, error)
}

// Options configure a Console.
type Options struct {
	Resource platform.Resource
	PageSize int
	// SendPageSize adds page_size to list requests.
	SendPageSize bool
	Defaults     Filters

	Fetcher  platform.ResourceFetcher
	Exporter Exporter

	SearchDelay    time.Duration // zero uses SearchDebounce
	BannerLifetime time.Duration // zero uses BannerLifetime
	BulkEvery      time.Duration // minimum spacing of bulk actions; zero uses one second, negative disables

	// OnChange is called after every state change, outside the console lock.
	OnChange func()
	Now      func() time.Time
}

// Console keeps a paginated, filtered view of one remote collection in sync
// with user input.
type Console struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       Snapshot
	bannerTimer *time.Timer

	inflight  sync.WaitGroup
	debouncer *Debouncer
	lists     Canceller
	details   Canceller
	bulkGate  *rate.Limiter
}

// New builds a Console. No request is issued until Start or Refresh.
func New(ctx context.Context, opts Options) (*Console, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("console %q requires a fetcher", opts.Resource)
	}
	if opts.BannerLifetime <= 0 {
		opts.BannerLifetime = BannerLifetime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithCancel(ctx)

	bulkLimit := rate.Every(time.Second)
	switch {
	case opts.BulkEvery < 0:
		bulkLimit = rate.Inf
	case opts.BulkEvery > 0:
		bulkLimit = rate.Every(opts.BulkEvery)
	}

	c := &Console{
		opts:     opts,
		ctx:      cctx,
		cancel:   cancel,
		bulkGate: rate.NewLimiter(bulkLimit, 1),
		state: Snapshot{
			Resource: opts.Resource,
			Filters:  opts.Defaults,
			Page:     NewPage(opts.PageSize),
		},
	}
	c.debouncer = NewDebouncer(opts.SearchDelay, &c.inflight)
	return c, nil
}

// Snapshot returns the current state.
func (c *Console) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resource returns the resource family this console browses.
func (c *Console) Resource() platform.Resource { return c.opts.Resource }

// Start issues the first fetch if none happened yet. Calling it again (for
// example when switching back to the screen) is a no-op.
func (c *Console) Start() {
	c.mu.Lock()
	if c.state.Fetched || c.state.Loading {
		c.mu.Unlock()
		return
	}
	c.fetchLocked()
	c.mu.Unlock()
	c.changed()
}

// SetFilter updates one filter key and schedules a fetch through the
// debouncer. The page resets to 1 immediately.
func (c *Console) SetFilter(key, value string, intent Intent) {
	c.mu.Lock()
	if c.state.Filters.Get(key) == value {
		c.mu.Unlock()
		return
	}
	c.applyLocked(filterChanged{key: key, value: value})
	c.mu.Unlock()
	c.debouncer.Schedule(intent, c.Refresh)
	c.changed()
}

// ClearFilters restores the default filters and fetches page 1.
func (c *Console) ClearFilters() {
	c.mu.Lock()
	c.applyLocked(filtersReset{defaults: c.opts.Defaults})
	c.mu.Unlock()
	c.debouncer.Schedule(IntentSelect, c.Refresh)
	c.changed()
}

// SetPage moves to page n (clamped) and fetches it.
func (c *Console) SetPage(n int) {
	c.mu.Lock()
	before := c.state.Page.Index
	c.applyLocked(pageChanged{index: n})
	moved := c.state.Page.Index != before
	c.mu.Unlock()
	if moved {
		c.debouncer.Schedule(IntentSelect, c.Refresh)
	}
	c.changed()
}

// NextPage advances one page.
func (c *Console) NextPage() { c.SetPage(c.Snapshot().Page.Index + 1) }

// PrevPage goes back one page.
func (c *Console) PrevPage() { c.SetPage(c.Snapshot().Page.Index - 1) }

// Refresh fetches the current page now, superseding any fetch in flight.
func (c *Console) Refresh() {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.fetchLocked()
	c.mu.Unlock()
	c.changed()
}

// fetchLocked issues a list request for the current filters and page. The
// caller holds c.mu.
func (c *Console) fetchLocked() {
	token, ctx := c.lists.Begin(c.ctx)
	c.applyLocked(fetchStarted{})

	query := platform.ListQuery{Filters: c.state.Filters.Query(), Page: c.state.Page.Index}
	if c.opts.SendPageSize {
		query.PageSize = c.state.Page.Size
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		page, err := c.opts.Fetcher.List(ctx, c.opts.Resource, query)
		c.settleFetch(token, query, page, err)
	}()
}

func (c *Console) settleFetch(token Token, query platform.ListQuery, page platform.Page, err error) {
	c.mu.Lock()
	if !c.lists.IsCurrent(token) {
		c.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Debug("discarding superseded fetch error",
				slog.String("resource", string(c.opts.Resource)),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	c.lists.Done(token)

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		c.applyLocked(fetchAbandoned{})
	case err != nil:
		apiErr := platform.AsAPIError(err)
		slog.Warn("list fetch failed",
			slog.String("resource", string(c.opts.Resource)),
			slog.Int("page", query.Page),
			slog.Int("status", apiErr.Status),
			slog.String("error", apiErr.Message),
		)
		c.applyLocked(fetchFailed{message: apiErr.Message})
		c.setBannerLocked(apiErr.Message, apiErr.Status)
	case c.outdatedLocked(query):
		// Page or filters moved while the request was out. Those changes
		// scheduled their own fetch; the rows belong to neither.
		slog.Debug("dropping rows for an outdated query",
			slog.String("resource", string(c.opts.Resource)),
			slog.Int("page", query.Page),
		)
		c.applyLocked(fetchAbandoned{})
	default:
		c.applyLocked(fetchSucceeded{page: page})
		if c.state.Page.Index != query.Page {
			// Clamped below the requested page.
			c.fetchLocked()
		}
	}
	c.mu.Unlock()
	c.changed()
}

// outdatedLocked reports whether the current filters or page differ from
// the ones query was issued with.
func (c *Console) outdatedLocked(query platform.ListQuery) bool {
	return c.state.Page.Index != query.Page || !maps.Equal(c.state.Filters.Query(), query.Filters)
}

// ToggleSelection adds or removes a visible id.
func (c *Console) ToggleSelection(id string) { c.dispatch(selectionToggled{id: id}) }

// SelectAll selects every visible row, or clears the selection when all
// rows are already selected.
func (c *Console) SelectAll() { c.dispatch(selectAllToggled{}) }

// ClearSelection empties the selection set.
func (c *Console) ClearSelection() { c.dispatch(selectionCleared{}) }

// DismissBanner hides the current error banner.
func (c *Console) DismissBanner() {
	c.mu.Lock()
	c.applyLocked(bannerCleared{setAt: c.state.Banner.SetAt})
	c.mu.Unlock()
	c.changed()
}

// OpenDetail shows the detail modal for id and loads the full record.
func (c *Console) OpenDetail(id string) {
	c.mu.Lock()
	c.applyLocked(detailOpened{id: id})
	token, ctx := c.details.Begin(c.ctx)
	c.inflight.Add(1)
	c.mu.Unlock()
	c.changed()

	go func() {
		defer c.inflight.Done()
		item, err := c.opts.Fetcher.Detail(ctx, c.opts.Resource, id)
		c.mu.Lock()
		if !c.details.IsCurrent(token) {
			c.mu.Unlock()
			return
		}
		c.details.Done(token)
		var msg string
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.mu.Unlock()
				return
			}
			msg = platform.AsAPIError(err).Message
		}
		c.applyLocked(detailLoaded{id: id, item: item, err: msg})
		c.mu.Unlock()
		c.changed()
	}()
}

// CloseDetail hides the detail modal and abandons its load.
func (c *Console) CloseDetail() {
	c.details.Stop()
	c.dispatch(detailClosed{})
}

// EscapeResult reports what Escape did.
type EscapeResult int

const (
	EscapeNone EscapeResult = iota
	EscapeClosedDetail
	EscapeClearedSelection
)

// Escape closes the detail modal when open, else clears a non-empty
// selection, else does nothing.
func (c *Console) Escape() EscapeResult {
	snap := c.Snapshot()
	switch {
	case snap.Detail.Open:
		c.CloseDetail()
		return EscapeClosedDetail
	case snap.SelectionSize() > 0:
		c.ClearSelection()
		return EscapeClearedSelection
	default:
		return EscapeNone
	}
}

// Export downloads the collection matching the current filters.
func (c *Console) Export(ctx context.Context) ([]byte, error) {
	if c.opts.Exporter == nil {
		return nil, fmt.Errorf("export %s: not supported", c.opts.Resource)
	}
	filters := c.Snapshot().Filters.Query()
	data, err := c.opts.Exporter.Export(ctx, c.opts.Resource, filters)
	if err != nil {
		apiErr := platform.AsAPIError(err)
		c.mu.Lock()
		c.setBannerLocked("Export failed: "+apiErr.Message, apiErr.Status)
		c.mu.Unlock()
		c.changed()
		return nil, fmt.Errorf("export %s: %w", c.opts.Resource, err)
	}
	return data, nil
}

// Wait blocks until pending debounce timers, fetches and mutations settle.
func (c *Console) Wait() {
	c.inflight.Wait()
}

// Close cancels everything in flight. The console must not be used after.
func (c *Console) Close() {
	c.debouncer.Cancel()
	c.cancel()
	c.mu.Lock()
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.mu.Unlock()
}

func (c *Console) dispatch(ev event) {
	c.mu.Lock()
	c.applyLocked(ev)
	c.mu.Unlock()
	c.changed()
}

func (c *Console) applyLocked(ev event) {
	c.state = reduce(c.state, ev)
}

// setBannerLocked shows msg and arranges for it to expire.
func (c *Console) setBannerLocked(msg string, status int) {
	at := c.opts.Now()
	ttl := c.opts.BannerLifetime
	c.applyLocked(bannerSet{message: msg, status: status, at: at, ttl: ttl})
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.bannerTimer = time.AfterFunc(ttl, func() {
		c.mu.Lock()
		c.applyLocked(bannerCleared{setAt: at})
		c.mu.Unlock()
		c.changed()
	})
}

func (c *Console) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}
