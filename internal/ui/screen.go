package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/screens"
	"github.com/five82/backer/internal/shortcuts"
)

// screenState is the runtime of one admin screen: its console plus the
// cursor and filter focus the UI keeps for it.
type screenState struct {
	def     screens.Screen
	console *console.Console
	router  *shortcuts.Router

	cursor  int
	filter  int // focused filter control
	editing bool
	input   textinput.Model
}

func newScreenState(ctx context.Context, def screens.Screen, api API, opts Options, onChange func()) (*screenState, error) {
	copts := def.Options(api, api)
	copts.OnChange = onChange
	copts.SearchDelay = opts.SearchDelay
	copts.BulkEvery = opts.BulkEvery
	c, err := console.New(ctx, copts)
	if err != nil {
		return nil, fmt.Errorf("screen %s: %w", def.ID, err)
	}

	router := shortcuts.New(shortcuts.DefaultKeyMap())
	if def.ReadOnly {
		router.Disable(shortcuts.SelectAll)
	}
	if !def.Exportable {
		router.Disable(shortcuts.Export)
	}

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 64
	input.Width = 24

	return &screenState{
		def:     def,
		console: c,
		router:  router,
		input:   input,
	}, nil
}

// focusedFilter returns the filter control that has focus.
func (s *screenState) focusedFilter() (screens.FilterSpec, bool) {
	if len(s.def.Filters) == 0 {
		return screens.FilterSpec{}, false
	}
	if s.filter >= len(s.def.Filters) {
		s.filter = 0
	}
	return s.def.Filters[s.filter], true
}

func (s *screenState) nextFilter() {
	if len(s.def.Filters) == 0 {
		return
	}
	s.stopEditing()
	s.filter = (s.filter + 1) % len(s.def.Filters)
}

// focusFilter moves focus to key and starts editing when it is a text field.
func (s *screenState) focusFilter(key string) bool {
	for i, f := range s.def.Filters {
		if f.Key == key {
			s.filter = i
			if f.Intent == console.IntentTextSearch {
				s.startEditing()
			}
			return true
		}
	}
	return false
}

// cycleFilter advances a select filter to its next option, or starts editing
// a text filter.
func (s *screenState) cycleFilter() {
	spec, ok := s.focusedFilter()
	if !ok {
		return
	}
	if spec.Intent == console.IntentTextSearch {
		s.startEditing()
		return
	}
	current := s.console.Snapshot().Filters.Get(spec.Key)
	s.console.SetFilter(spec.Key, screens.NextOption(spec.Options, current), console.IntentSelect)
}

func (s *screenState) startEditing() {
	spec, ok := s.focusedFilter()
	if !ok || spec.Intent != console.IntentTextSearch {
		return
	}
	s.input.SetValue(s.console.Snapshot().Filters.Get(spec.Key))
	s.input.CursorEnd()
	s.input.Focus()
	s.editing = true
}

func (s *screenState) stopEditing() {
	if !s.editing {
		return
	}
	s.input.Blur()
	s.editing = false
}

// applyInput pushes the edited text into the console when it changed.
func (s *screenState) applyInput() {
	spec, ok := s.focusedFilter()
	if !ok {
		return
	}
	value := s.input.Value()
	if value == s.console.Snapshot().Filters.Get(spec.Key) {
		return
	}
	s.console.SetFilter(spec.Key, value, spec.Intent)
}

// clampCursor keeps the cursor on a visible row.
func (s *screenState) clampCursor(rows int) {
	if s.cursor >= rows {
		s.cursor = rows - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// currentItem returns the row under the cursor.
func (s *screenState) currentItem(snap console.Snapshot) (platform.Item, bool) {
	if s.cursor < 0 || s.cursor >= len(snap.Items) {
		return platform.Item{}, false
	}
	return snap.Items[s.cursor], true
}
