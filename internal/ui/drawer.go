package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/backer/internal/favorites"
	"github.com/five82/backer/internal/screens"
)

// renderDrawer renders the favorites drawer column.
func (m Model) renderDrawer(snap favorites.Snapshot, width int) string {
	styles := m.theme.Styles()
	inner := width - 4

	var b strings.Builder
	b.WriteString(styles.WarningText.Bold(true).Render(fmt.Sprintf("★ Favorites (%d)", snap.Count)))
	b.WriteString("\n")

	switch {
	case snap.Error != "":
		b.WriteString(styles.DangerText.Render(truncate(snap.Error, inner)))
	case snap.Loading && len(snap.Items) == 0:
		b.WriteString(styles.MutedText.Render("Loading..."))
	case len(snap.Items) == 0:
		b.WriteString(styles.FaintText.Render("No favorites yet"))
	default:
		for i, item := range snap.Items {
			if i > 0 {
				b.WriteString("\n")
			}
			name := strings.Trim(screens.DisplayName(item), `"`)
			b.WriteString(styles.Text.Render(truncate(name, inner)))
		}
	}

	if snap.HasMore() {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("m: %d more", snap.Count-len(snap.Items))))
	}

	height := max(m.height-chromeLines-2, 3)
	return styles.Panel.
		BorderForeground(lipgloss.Color(m.theme.Warning)).
		Width(width - 2).
		Height(height).
		Render(b.String())
}

// joinColumns places the table and drawer side by side.
func joinColumns(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}
