package console

import (
	"sort"
	"time"

	"github.com/five82/backer/internal/platform"
)

// Snapshot is an immutable view of one console. Every event produces a new
// Snapshot with a higher Version; callers must not modify the slices or maps
// reachable from it.
type Snapshot struct {
	Version  uint64
	Resource platform.Resource
	Filters  Filters
	Page     Page

	// ResourceCollection
	Items   []platform.Item
	Loading bool
	Error   string
	Fetched bool

	Banner      Banner
	BulkLoading bool
	Detail      Detail

	selected idSet
	pending  pendingSet
}

// Detail is the state of the detail modal.
type Detail struct {
	Open    bool
	ID      string
	Item    platform.Item
	Loading bool
	Error   string
}

type idSet map[string]struct{}

// IsPending reports whether kind is in flight for id.
func (s Snapshot) IsPending(kind ActionKind, id string) bool {
	_, ok := s.pending[ActionKey{Kind: kind, ID: id}]
	return ok
}

// Busy reports whether any action is in flight for id.
func (s Snapshot) Busy(id string) bool {
	for key := range s.pending {
		if key.ID == id {
			return true
		}
	}
	return false
}

// PendingCount returns the number of in-flight per-item actions.
func (s Snapshot) PendingCount() int { return len(s.pending) }

// IsSelected reports whether id is in the selection set.
func (s Snapshot) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected ids sorted for stable requests.
func (s Snapshot) Selected() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectionSize returns the number of selected ids.
func (s Snapshot) SelectionSize() int { return len(s.selected) }

// AllSelected reports a non-empty collection with every row selected.
func (s Snapshot) AllSelected() bool {
	return len(s.Items) > 0 && len(s.selected) == len(s.Items)
}

// Item returns the visible item with id.
func (s Snapshot) Item(id string) (platform.Item, bool) {
	if idx := s.indexOf(id); idx >= 0 {
		return s.Items[idx], true
	}
	return platform.Item{}, false
}

// BannerAt returns the banner when it is still showing at now.
func (s Snapshot) BannerAt(now time.Time) (Banner, bool) {
	if s.Banner.Active(now) {
		return s.Banner, true
	}
	return Banner{}, false
}

func (s Snapshot) indexOf(id string) int {
	for i, item := range s.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// event is one named state transition.
type event interface{ isEvent() }

type (
	filterChanged   struct{ key, value string }
	filtersReset    struct{ defaults Filters }
	pageChanged     struct{ index int }
	fetchStarted    struct{}
	fetchSucceeded  struct{ page platform.Page }
	fetchFailed     struct{ message string }
	fetchAbandoned  struct{}
	mutationApplied struct {
		key    ActionKey
		item   platform.Item
		remove bool
	}
	mutationSettled struct{ key ActionKey }
	itemRestored    struct {
		item  platform.Item
		index int
	}
	bannerSet struct {
		message string
		status  int
		at      time.Time
		ttl     time.Duration
	}
	bannerCleared    struct{ setAt time.Time }
	selectionToggled struct{ id string }
	selectAllToggled struct{}
	selectionCleared struct{}
	bulkStarted      struct{}
	bulkSettled      struct{}
	detailOpened     struct{ id string }
	detailLoaded     struct {
		id   string
		item platform.Item
		err  string
	}
	detailClosed struct{}
)

func (filterChanged) isEvent()    {}
func (filtersReset) isEvent()     {}
func (pageChanged) isEvent()      {}
func (fetchStarted) isEvent()     {}
func (fetchSucceeded) isEvent()   {}
func (fetchFailed) isEvent()      {}
func (fetchAbandoned) isEvent()   {}
func (mutationApplied) isEvent()  {}
func (mutationSettled) isEvent()  {}
func (itemRestored) isEvent()     {}
func (bannerSet) isEvent()        {}
func (bannerCleared) isEvent()    {}
func (selectionToggled) isEvent() {}
func (selectAllToggled) isEvent() {}
func (selectionCleared) isEvent() {}
func (bulkStarted) isEvent()      {}
func (bulkSettled) isEvent()      {}
func (detailOpened) isEvent()     {}
func (detailLoaded) isEvent()     {}
func (detailClosed) isEvent()     {}

// reduce is the pure transition function of the console.
func reduce(s Snapshot, ev event) Snapshot {
	s.Version++
	switch ev := ev.(type) {
	case filterChanged:
		s.Filters = s.Filters.With(ev.key, ev.value)
		s.Page = s.Page.OnFilterChanged()
	case filtersReset:
		s.Filters = ev.defaults
		s.Page = s.Page.OnFilterChanged()
	case pageChanged:
		s.Page = s.Page.SetPage(ev.index)
	case fetchStarted:
		s.Loading = true
		s.Banner = Banner{}
	case fetchSucceeded:
		page, clamped := s.Page.OnFetchSucceeded(ev.page.TotalCount)
		s.Page = page
		s.Fetched = true
		s.Error = ""
		if clamped {
			// The clamped page is fetched next; keep the rows on screen.
			break
		}
		s.Loading = false
		s.Items = ev.page.Items
		s.selected = pruneSelection(s.selected, s.Items)
	case fetchFailed:
		s.Loading = false
		s.Error = ev.message
	case fetchAbandoned:
		s.Loading = false
	case mutationApplied:
		s.pending = s.pending.with(ev.key)
		s.Items = replaceItem(s.Items, ev.key.ID, ev.item, ev.remove)
		if ev.remove {
			s.selected = pruneSelection(s.selected, s.Items)
		}
	case mutationSettled:
		s.pending = s.pending.without(ev.key)
	case itemRestored:
		s.Items = restoreItem(s.Items, ev.item, ev.index)
	case bannerSet:
		s.Banner = Banner{Message: ev.message, Status: ev.status, SetAt: ev.at, ExpiresAt: ev.at.Add(ev.ttl)}
	case bannerCleared:
		if s.Banner.SetAt.Equal(ev.setAt) {
			s.Banner = Banner{}
		}
	case selectionToggled:
		if s.indexOf(ev.id) < 0 {
			break
		}
		next := make(idSet, len(s.selected)+1)
		for id := range s.selected {
			next[id] = struct{}{}
		}
		if _, ok := next[ev.id]; ok {
			delete(next, ev.id)
		} else {
			next[ev.id] = struct{}{}
		}
		s.selected = next
	case selectAllToggled:
		if s.AllSelected() {
			s.selected = nil
			break
		}
		next := make(idSet, len(s.Items))
		for _, item := range s.Items {
			next[item.ID] = struct{}{}
		}
		s.selected = next
	case selectionCleared:
		s.selected = nil
	case bulkStarted:
		s.BulkLoading = true
	case bulkSettled:
		s.BulkLoading = false
	case detailOpened:
		s.Detail = Detail{Open: true, ID: ev.id, Loading: true}
		if item, ok := s.Item(ev.id); ok {
			s.Detail.Item = item
		}
	case detailLoaded:
		if !s.Detail.Open || s.Detail.ID != ev.id {
			break
		}
		s.Detail.Loading = false
		s.Detail.Error = ev.err
		if ev.err == "" {
			s.Detail.Item = ev.item
		}
	case detailClosed:
		s.Detail = Detail{}
	}
	return s
}

func pruneSelection(selected idSet, items []platform.Item) idSet {
	if len(selected) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(items))
	for _, item := range items {
		present[item.ID] = struct{}{}
	}
	next := make(idSet, len(selected))
	for id := range selected {
		if _, ok := present[id]; ok {
			next[id] = struct{}{}
		}
	}
	if len(next) == 0 {
		return nil
	}
	return next
}

func replaceItem(items []platform.Item, id string, item platform.Item, remove bool) []platform.Item {
	out := make([]platform.Item, 0, len(items))
	for _, existing := range items {
		if existing.ID != id {
			out = append(out, existing)
			continue
		}
		if !remove {
			out = append(out, item)
		}
	}
	return out
}

func restoreItem(items []platform.Item, item platform.Item, index int) []platform.Item {
	out := make([]platform.Item, 0, len(items)+1)
	restored := false
	for _, existing := range items {
		if existing.ID == item.ID {
			out = append(out, item)
			restored = true
			continue
		}
		out = append(out, existing)
	}
	if restored {
		return out
	}
	if index < 0 || index > len(out) {
		index = len(out)
	}
	out = append(out, platform.Item{})
	copy(out[index+1:], out[index:])
	out[index] = item
	return out
}
