// Package shortcuts routes screen-level keyboard shortcuts.
//
// One Router serves one screen. Bindings other than Escape are suppressed
// while a text input has focus so typing is never hijacked; Escape still
// fires and asks the caller to blur the field first.
package shortcuts

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Command is a routed shortcut.
type Command int

const (
	None Command = iota
	FocusSearch
	SelectAll
	Export
	Refresh
	Escape
)

func (c Command) String() string {
	switch c {
	case FocusSearch:
		return "focus-search"
	case SelectAll:
		return "select-all"
	case Export:
		return "export"
	case Refresh:
		return "refresh"
	case Escape:
		return "escape"
	default:
		return "none"
	}
}

// KeyMap holds the screen shortcut bindings.
type KeyMap struct {
	FocusSearch key.Binding
	SelectAll   key.Binding
	Export      key.Binding
	Refresh     key.Binding
	Escape      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FocusSearch: key.NewBinding(
			key.WithKeys("ctrl+f", "/"),
			key.WithHelp("/", "Search"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "Select all"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "Export"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Refresh"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / clear selection"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusSearch, k.Refresh, k.Escape}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusSearch, k.SelectAll, k.Export},
		{k.Refresh, k.Escape},
	}
}

// Action is the outcome of routing one key press.
type Action struct {
	Command Command
	// BlurFirst asks the caller to drop text focus before running Command.
	BlurFirst bool
}

// Router matches key presses against a KeyMap.
type Router struct {
	keys     KeyMap
	disabled map[Command]bool
}

// New returns a Router over keys.
func New(keys KeyMap) *Router {
	return &Router{keys: keys, disabled: map[Command]bool{}}
}

// Disable turns commands off for screens that do not support them, such as
// select-all on a read-only log.
func (r *Router) Disable(cmds ...Command) *Router {
	for _, c := range cmds {
		r.disabled[c] = true
	}
	return r
}

// Keys returns the bindings in use.
func (r *Router) Keys() KeyMap { return r.keys }

// Route resolves msg. It reports false when the key is not a shortcut, or
// when textFocused suppresses it; the caller then forwards the key to the
// focused widget.
func (r *Router) Route(msg tea.KeyMsg, textFocused bool) (Action, bool) {
	if key.Matches(msg, r.keys.Escape) {
		return Action{Command: Escape, BlurFirst: textFocused}, true
	}
	if textFocused {
		return Action{}, false
	}

	var cmd Command
	switch {
	case key.Matches(msg, r.keys.FocusSearch):
		cmd = FocusSearch
	case key.Matches(msg, r.keys.SelectAll):
		cmd = SelectAll
	case key.Matches(msg, r.keys.Export):
		cmd = Export
	case key.Matches(msg, r.keys.Refresh):
		cmd = Refresh
	default:
		return Action{}, false
	}
	if r.disabled[cmd] {
		return Action{}, false
	}
	return Action{Command: cmd}, true
}
