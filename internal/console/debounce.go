package console

import (
	"sync"
	"time"
)

// Intent classifies the user input that triggered a fetch.
type Intent string

const (
	// IntentTextSearch is typing into a search box.
	IntentTextSearch Intent = "text-search"
	// IntentSelect is a discrete choice (dropdown, page button, refresh).
	IntentSelect Intent = "select"
)

// SearchDebounce is the quiet period required after the last keystroke.
const SearchDebounce = 500 * time.Millisecond

// Tracker counts outstanding work; *sync.WaitGroup satisfies it.
type Tracker interface {
	Add(delta int)
	Done()
}

// Debouncer owns a single pending-timer slot. Every Schedule call replaces
// whatever is pending, regardless of intent.
type Debouncer struct {
	mu          sync.Mutex
	timer       *time.Timer
	gen         uint64
	searchDelay time.Duration
	tracker     Tracker
}

// NewDebouncer returns a Debouncer. A zero searchDelay uses SearchDebounce.
func NewDebouncer(searchDelay time.Duration, tracker Tracker) *Debouncer {
	if searchDelay <= 0 {
		searchDelay = SearchDebounce
	}
	return &Debouncer{searchDelay: searchDelay, tracker: tracker}
}

// Window returns the delay used for intent.
func (d *Debouncer) Window(intent Intent) time.Duration {
	if intent == IntentTextSearch {
		return d.searchDelay
	}
	return 0
}

// Schedule arranges for action to run once the intent's window elapses
// without another Schedule or Cancel.
func (d *Debouncer) Schedule(intent Intent, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	if d.tracker != nil {
		d.tracker.Add(1)
	}
	d.timer = time.AfterFunc(d.Window(intent), func() {
		if d.tracker != nil {
			defer d.tracker.Done()
		}
		d.mu.Lock()
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			action()
		}
	})
}

// Cancel drops the pending invocation, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
}

// Pending reports whether an invocation is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer == nil {
		return
	}
	// A timer that already fired releases its own tracker slot.
	if d.timer.Stop() && d.tracker != nil {
		d.tracker.Done()
	}
	d.timer = nil
}
