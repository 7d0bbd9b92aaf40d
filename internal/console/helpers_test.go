package console

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/five82/backer/internal/platform"
)

// stubFetcher serves a mutable in-memory collection. Pending hooks are
// consumed in call order before falling back to the collection.
type stubFetcher struct {
	mu      sync.Mutex
	items   []platform.Item
	total   int // zero means len(items)
	calls   []platform.ListQuery
	hooks   []func(ctx context.Context, q platform.ListQuery) (platform.Page, error)
	failErr error
}

func (s *stubFetcher) List(ctx context.Context, _ platform.Resource, q platform.ListQuery) (platform.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	var hook func(context.Context, platform.ListQuery) (platform.Page, error)
	if len(s.hooks) > 0 {
		hook = s.hooks[0]
		s.hooks = s.hooks[1:]
	}
	s.mu.Unlock()
	if hook != nil {
		return hook(ctx, q)
	}
	return s.page()
}

func (s *stubFetcher) Detail(_ context.Context, _ platform.Resource, id string) (platform.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item.With("detail", true), nil
		}
	}
	return platform.Item{}, &platform.APIError{Status: 404, Message: "not found"}
}

func (s *stubFetcher) page() (platform.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return platform.Page{}, s.failErr
	}
	items := make([]platform.Item, len(s.items))
	for i, item := range s.items {
		items[i] = item.Clone()
	}
	total := s.total
	if total == 0 {
		total = len(items)
	}
	return platform.Page{Items: items, TotalCount: total}, nil
}

func (s *stubFetcher) hook(fn func(ctx context.Context, q platform.ListQuery) (platform.Page, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *stubFetcher) set(items []platform.Item, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.total = total
}

func (s *stubFetcher) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubFetcher) lastCall() platform.ListQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return platform.ListQuery{}
	}
	return s.calls[len(s.calls)-1]
}

func items(specs ...map[string]any) []platform.Item {
	out := make([]platform.Item, 0, len(specs))
	for _, fields := range specs {
		id := fields["id"]
		var sid string
		switch v := id.(type) {
		case int:
			sid = strconv.Itoa(v)
		case string:
			sid = v
		}
		out = append(out, platform.Item{ID: sid, Fields: fields})
	}
	return out
}

func idItems(n int) []platform.Item {
	out := make([]platform.Item, n)
	for i := range out {
		id := strconv.Itoa(i + 1)
		out[i] = platform.Item{ID: id, Fields: map[string]any{"id": i + 1}}
	}
	return out
}

func newTestConsole(t *testing.T, fetcher *stubFetcher, mutate func(*Options)) *Console {
	t.Helper()
	opts := Options{
		Resource:       platform.Campaigns,
		PageSize:       20,
		Fetcher:        fetcher,
		SearchDelay:    40 * time.Millisecond,
		BannerLifetime: time.Minute,
		BulkEvery:      -1,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		c.Wait()
	})
	return c
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

var errBoom = errors.New("boom")
