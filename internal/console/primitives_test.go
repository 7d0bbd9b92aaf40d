package console

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/backer/internal/platform"
)

func TestFilters_WithKeepsOrderAndIsImmutable(t *testing.T) {
	base := NewFilters("search", "", "status", "active")
	next := base.With("search", "acme").With("ordering", "-created_at")

	if base.Get("search") != "" {
		t.Fatalf("With mutated the receiver")
	}
	if got := next.Keys(); !reflect.DeepEqual(got, []string{"search", "status", "ordering"}) {
		t.Fatalf("Keys = %v", got)
	}
	if got := next.Active(); got != 2 {
		t.Fatalf("Active = %d, want 2 (ordering excluded)", got)
	}
	if q := base.Query(); len(q) != 1 || q["status"] != "active" {
		t.Fatalf("Query = %v, want only status", q)
	}
	if !base.Equal(NewFilters("status", "active")) {
		t.Fatalf("Equal should ignore unset keys")
	}
	if base.Equal(next) {
		t.Fatalf("Equal returned true for different filters")
	}
}

func TestPage_Bounds(t *testing.T) {
	p := NewPage(0)
	if p.Size != DefaultPageSize || p.Index != 1 {
		t.Fatalf("NewPage(0) = %+v, want size 20 page 1", p)
	}
	if got := p.TotalPages(); got != 1 {
		t.Fatalf("TotalPages of empty = %d, want 1", got)
	}

	p.TotalCount = 45
	if got := p.TotalPages(); got != 3 {
		t.Fatalf("TotalPages = %d, want 3", got)
	}
	if got := p.SetPage(5).Index; got != 3 {
		t.Fatalf("SetPage(5) = %d, want 3", got)
	}
	if got := p.SetPage(-2).Index; got != 1 {
		t.Fatalf("SetPage(-2) = %d, want 1", got)
	}
	if got := p.Prev().Index; got != 1 {
		t.Fatalf("Prev on first page = %d, want 1", got)
	}

	p = p.SetPage(3)
	first, last := p.Range(5)
	if first != 41 || last != 45 {
		t.Fatalf("Range = %d-%d, want 41-45", first, last)
	}
	if got := p.OnFilterChanged().Index; got != 1 {
		t.Fatalf("OnFilterChanged = %d, want 1", got)
	}

	clamped, ok := p.OnFetchSucceeded(10)
	if !ok || clamped.Index != 1 {
		t.Fatalf("OnFetchSucceeded(10) = %+v, %v; want page 1 clamped", clamped, ok)
	}
	same, ok := p.OnFetchSucceeded(60)
	if ok || same.Index != 3 || same.TotalCount != 60 {
		t.Fatalf("OnFetchSucceeded(60) = %+v, %v", same, ok)
	}
}

func TestDebouncer_TextSearchWaitsAndLatestWins(t *testing.T) {
	var wg sync.WaitGroup
	d := NewDebouncer(30*time.Millisecond, &wg)
	if d.Window(IntentSelect) != 0 || d.Window(IntentTextSearch) != 30*time.Millisecond {
		t.Fatalf("windows = %v / %v", d.Window(IntentSelect), d.Window(IntentTextSearch))
	}

	var fired atomic.Int32
	var last atomic.Value
	for _, v := range []string{"a", "ab", "abc"} {
		d.Schedule(IntentTextSearch, func() {
			fired.Add(1)
			last.Store(v)
		})
	}
	if !d.Pending() {
		t.Fatalf("Pending = false with a scheduled call")
	}
	wg.Wait()

	if fired.Load() != 1 || last.Load() != "abc" {
		t.Fatalf("fired %d times, last %v; want once with abc", fired.Load(), last.Load())
	}
	if d.Pending() {
		t.Fatalf("Pending = true after firing")
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var wg sync.WaitGroup
	d := NewDebouncer(time.Hour, &wg)
	var fired atomic.Bool
	d.Schedule(IntentTextSearch, func() { fired.Store(true) })
	d.Cancel()
	wg.Wait()
	if fired.Load() || d.Pending() {
		t.Fatalf("cancelled call fired=%v pending=%v", fired.Load(), d.Pending())
	}
	if NewDebouncer(0, nil).Window(IntentTextSearch) != SearchDebounce {
		t.Fatalf("zero delay should default to SearchDebounce")
	}
}

func TestCanceller_BeginSupersedes(t *testing.T) {
	var c Canceller
	t1, ctx1 := c.Begin(context.Background())
	t2, ctx2 := c.Begin(context.Background())

	if c.IsCurrent(t1) || !c.IsCurrent(t2) {
		t.Fatalf("IsCurrent(t1)=%v IsCurrent(t2)=%v", c.IsCurrent(t1), c.IsCurrent(t2))
	}
	if ctx1.Err() == nil {
		t.Fatalf("first context not cancelled")
	}
	if ctx2.Err() != nil {
		t.Fatalf("current context cancelled early")
	}

	c.Stop()
	if c.IsCurrent(t2) || ctx2.Err() == nil {
		t.Fatalf("Stop left t2 current or its context live")
	}
	if c.IsCurrent(0) {
		t.Fatalf("zero token reported current")
	}
}

func TestReduce_ReplayIsDeterministic(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []event{
		fetchStarted{},
		fetchSucceeded{page: platform.Page{Items: idItems(3), TotalCount: 3}},
		selectionToggled{id: "2"},
		mutationApplied{key: ActionKey{Kind: "feature", ID: "1"}, item: platform.Item{ID: "1", Fields: map[string]any{"featured": true}}},
		bannerSet{message: "nope", status: 409, at: at, ttl: BannerLifetime},
		mutationSettled{key: ActionKey{Kind: "feature", ID: "1"}},
		filterChanged{key: "status", value: "active"},
	}
	replay := func() Snapshot {
		s := Snapshot{Page: NewPage(20)}
		for _, ev := range events {
			s = reduce(s, ev)
		}
		return s
	}

	a, b := replay(), replay()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("replays differ:\n%+v\n%+v", a, b)
	}
	if a.Version != uint64(len(events)) {
		t.Fatalf("Version = %d, want %d", a.Version, len(events))
	}
	if !a.IsSelected("2") || a.PendingCount() != 0 || a.Page.Index != 1 {
		t.Fatalf("final snapshot = %+v", a)
	}
	if !a.Banner.Active(at.Add(time.Second)) || a.Banner.Active(at.Add(BannerLifetime)) {
		t.Fatalf("banner activity window wrong: %+v", a.Banner)
	}

	stale := reduce(a, bannerCleared{setAt: at.Add(-time.Second)})
	if stale.Banner.Message != "nope" {
		t.Fatalf("bannerCleared with old stamp removed the newer banner")
	}
}

func TestReduce_RestoreItemPosition(t *testing.T) {
	list := idItems(3)
	out := restoreItem(list[1:], list[0], 0)
	if len(out) != 3 || out[0].ID != "1" {
		t.Fatalf("restoreItem = %+v, want 1 back at the front", out)
	}
	out = restoreItem(list, platform.Item{ID: "2", Fields: map[string]any{"x": 1}}, 0)
	if len(out) != 3 || out[1].Fields["x"] != 1 {
		t.Fatalf("restoreItem should replace in place, got %+v", out)
	}
	out = restoreItem(nil, list[2], 9)
	if len(out) != 1 {
		t.Fatalf("restoreItem with out-of-range index = %+v", out)
	}
}

func TestBulkPrompt(t *testing.T) {
	if got := BulkPrompt(BulkAction{Kind: "bulk_verify"}, 1); got != "bulk_verify 1 selected item?" {
		t.Fatalf("BulkPrompt = %q", got)
	}
}
