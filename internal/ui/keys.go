package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the application-level keyboard bindings. Screen shortcuts
// (search, select all, export, refresh, escape) live in the shortcuts router,
// and per-item actions are declared by each screen.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextScreen key.Binding
	PrevScreen key.Binding
	Screens    key.Binding

	// Table
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Select     key.Binding
	OpenDetail key.Binding
	CopyDetail key.Binding

	// Filters
	NextFilter   key.Binding
	CycleValue   key.Binding
	ClearFilters key.Binding

	// Favorites drawer
	Drawer         key.Binding
	LoadMore       key.Binding
	ToggleFavorite key.Binding

	// Modal
	Confirm key.Binding
	Decline key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextScreen: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next screen"),
		),
		PrevScreen: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous screen"),
		),
		Screens: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6"),
			key.WithHelp("1-6", "Jump to screen"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "First row"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "Last row"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "n", "pgdown"),
			key.WithHelp("n/→", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "p", "pgup"),
			key.WithHelp("p/←", "Previous page"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle selection"),
		),
		OpenDetail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Details"),
		),
		CopyDetail: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy record as JSON"),
		),

		NextFilter: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "Next filter"),
		),
		CycleValue: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "Change filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear filters"),
		),

		Drawer: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Favorites"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "More favorites"),
		),
		ToggleFavorite: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "Favorite campaign"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "Confirm"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextScreen, k.Select, k.OpenDetail, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextScreen, k.PrevScreen, k.Screens},
		{k.Up, k.Down, k.Top, k.Bottom, k.NextPage, k.PrevPage},
		{k.Select, k.OpenDetail},
		{k.NextFilter, k.CycleValue, k.ClearFilters},
		{k.Drawer, k.LoadMore, k.ToggleFavorite},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
