// Package screens declares the admin screens: which resource each browses,
// its filters, columns, per-item actions and bulk actions.
package screens

import (
	"context"
	"fmt"

	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/platform"
)

// Method is how a per-item action reaches the server.
type Method int

const (
	// MethodPost calls POST /{resource}/{id}/{path}/.
	MethodPost Method = iota
	// MethodPatch calls PATCH /{resource}/{id}/ with Body.
	MethodPatch
	// MethodDelete calls DELETE /{resource}/{id}/ and drops the row.
	MethodDelete
)

// FilterSpec describes one filter control.
type FilterSpec struct {
	Key    string
	Label  string
	Intent console.Intent
	// Options are the values a select control cycles through after "unset".
	Options []string
}

// Column is one table column.
type Column struct {
	Title string
	Field string
	Width int
}

// Action is a per-item action bound to a key.
type Action struct {
	Kind   console.ActionKind
	Key    string
	Label  string
	Method Method

	// Path returns the POST action segment for item (feature vs unfeature).
	Path func(platform.Item) string
	// Body returns the request body; nil sends none.
	Body func(platform.Item) any
	// Apply is the optimistic local rewrite.
	Apply        func(platform.Item) platform.Item
	Precondition func(platform.Item) bool
	// Prompt returns the confirmation question; nil uses "<Label> <name>?".
	Prompt    func(platform.Item) string
	Reconcile console.Strategy
}

// BulkSpec is a bulk action bound to a key.
type BulkSpec struct {
	Kind  console.ActionKind
	Key   string
	Label string
}

// Screen is one admin screen.
type Screen struct {
	ID           string
	Title        string
	Resource     platform.Resource
	PageSize     int
	SendPageSize bool
	ReadOnly     bool
	Exportable   bool
	Filters      []FilterSpec
	Columns      []Column
	Actions      []Action
	Bulk         []BulkSpec
}

// Defaults returns the initial filter state: every declared key unset, in
// declaration order.
func (s Screen) Defaults() console.Filters {
	f := console.Filters{}
	for _, spec := range s.Filters {
		f = f.With(spec.Key, "")
	}
	return f
}

// Options builds console options for the screen.
func (s Screen) Options(fetcher platform.ResourceFetcher, exporter console.Exporter) console.Options {
	opts := console.Options{
		Resource:     s.Resource,
		PageSize:     s.PageSize,
		SendPageSize: s.SendPageSize,
		Defaults:     s.Defaults(),
		Fetcher:      fetcher,
	}
	if s.Exportable {
		opts.Exporter = exporter
	}
	return opts
}

// Filter returns the filter declared under key.
func (s Screen) Filter(key string) (FilterSpec, bool) {
	for _, f := range s.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return FilterSpec{}, false
}

// ActionForKey returns the per-item action bound to key.
func (s Screen) ActionForKey(key string) (Action, bool) {
	for _, a := range s.Actions {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// BulkForKey returns the bulk action bound to key.
func (s Screen) BulkForKey(key string) (BulkSpec, bool) {
	for _, b := range s.Bulk {
		if b.Key == key {
			return b, true
		}
	}
	return BulkSpec{}, false
}

// Command builds the optimistic console command that runs a on item. The
// request path and body are derived from the row the console holds when the
// command executes, which may be newer than item.
func (s Screen) Command(a Action, item platform.Item, m platform.Mutator) console.Command {
	resource := s.Resource
	return console.Command{
		Kind:         a.Kind,
		ItemID:       item.ID,
		Precondition: a.Precondition,
		Apply:        a.Apply,
		Remove:       a.Method == MethodDelete,
		Reconcile:    a.Reconcile,
		Remote: func(ctx context.Context, current platform.Item) error {
			var body any
			if a.Body != nil {
				body = a.Body(current)
			}
			switch a.Method {
			case MethodPatch:
				return m.Patch(ctx, resource, current.ID, body)
			case MethodDelete:
				return m.Delete(ctx, resource, current.ID)
			}
			path := string(a.Kind)
			if a.Path != nil {
				path = a.Path(current)
			}
			return m.Action(ctx, resource, current.ID, path, body)
		},
	}
}

// ConfirmPrompt is the question shown before a runs on item.
func (a Action) ConfirmPrompt(item platform.Item) string {
	if a.Prompt != nil {
		return a.Prompt(item)
	}
	return fmt.Sprintf("%s %s?", a.Label, DisplayName(item))
}

// BulkAction binds b to the screen's bulk endpoint.
func (s Screen) BulkAction(b BulkSpec, m platform.Mutator) console.BulkAction {
	resource := s.Resource
	kind := string(b.Kind)
	return console.BulkAction{
		Kind:  b.Kind,
		Label: b.Label,
		Remote: func(ctx context.Context, ids []string) (platform.BulkResult, error) {
			return m.Bulk(ctx, resource, kind, ids)
		},
	}
}

// DisplayName picks the most readable identifying field of item.
func DisplayName(item platform.Item) string {
	for _, key := range []string{"title", "name", "username", "email", "reference"} {
		if v := item.String(key); v != "" {
			return fmt.Sprintf("%q", v)
		}
	}
	return "#" + item.ID
}

// NextOption cycles value through "" and opts.
func NextOption(opts []string, value string) string {
	if len(opts) == 0 {
		return value
	}
	if value == "" {
		return opts[0]
	}
	for i, o := range opts {
		if o == value {
			if i+1 < len(opts) {
				return opts[i+1]
			}
			return ""
		}
	}
	return ""
}
