package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/backer/internal/shortcuts"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	s := m.active()

	sections := []helpSection{
		{
			title: "Navigation",
			items: []helpItem{
				{"tab/1-6", "Switch screen"},
				{"j/k", "Move up/down"},
				{"home/end", "First/last row"},
				{"n/p", "Next/previous page"},
				{"enter", "Details"},
				{"y", "Copy details as JSON"},
				{"esc", "Close details / clear selection"},
			},
		},
		{
			title: "Filters",
			items: []helpItem{
				{"/", "Search"},
				{",", "Next filter"},
				{".", "Change filter"},
				{"c", "Clear filters"},
				{"ctrl+r", "Refresh"},
			},
		},
		{
			title: "Selection",
			items: []helpItem{
				{"Space", "Toggle row"},
				{"ctrl+a", "Select/deselect page"},
				{"ctrl+e", "Export CSV"},
			},
		},
	}

	if len(s.def.Actions) > 0 || len(s.def.Bulk) > 0 {
		section := helpSection{title: s.def.Title}
		for _, a := range s.def.Actions {
			section.items = append(section.items, helpItem{a.Key, a.Label})
		}
		for _, b := range s.def.Bulk {
			section.items = append(section.items, helpItem{b.Key, "Bulk " + strings.ToLower(b.Label)})
		}
		sections = append(sections, section)
	}

	sections = append(sections,
		helpSection{
			title: "Favorites",
			items: []helpItem{
				{"b", "Toggle drawer"},
				{"m", "Load more"},
				{"*", "Favorite campaign"},
			},
		},
		helpSection{
			title: "General",
			items: []helpItem{
				{"T", "Cycle theme"},
				{"h/?", "Toggle help"},
				{"e/ctrl+c", "Quit"},
			},
		},
	)

	// Build help content
	var b strings.Builder

	// Title
	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, section := range sections {
		// Section title
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			keyStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Warning)).
				Width(12)
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modalContent := styles.Modal.Width(44).Render(b.String())

	// Center the modal
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// screenKeys is the footer help: screen shortcuts, the active screen's
// actions and the global keys.
type screenKeys struct {
	router  shortcuts.KeyMap
	app     keyMap
	actions []key.Binding
}

func (m Model) screenHelp() screenKeys {
	s := m.active()
	k := screenKeys{router: s.router.Keys(), app: m.keys}
	for _, a := range s.def.Actions {
		k.actions = append(k.actions, key.NewBinding(key.WithKeys(a.Key), key.WithHelp(a.Key, a.Label)))
	}
	return k
}

// ShortHelp implements help.KeyMap.
func (k screenKeys) ShortHelp() []key.Binding {
	bindings := append([]key.Binding{}, k.router.ShortHelp()...)
	bindings = append(bindings, k.actions...)
	return append(bindings, k.app.ShortHelp()...)
}

// FullHelp implements help.KeyMap.
func (k screenKeys) FullHelp() [][]key.Binding {
	full := append(k.router.FullHelp(), k.actions)
	return append(full, k.app.FullHelp()...)
}
