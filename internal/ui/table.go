package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/screens"
)

// renderTable renders the current page of the active screen.
func (m Model) renderTable(width int) string {
	styles := m.theme.Styles()
	s := m.active()
	snap := s.console.Snapshot()
	height := max(m.height-chromeLines, 3)

	var b strings.Builder

	// Header row
	header := m.rowPrefix(s, false, false, true)
	for _, col := range s.def.Columns {
		header += pad(col.Title, col.Width) + " "
	}
	b.WriteString(styles.AccentText.Bold(true).Render(pad(header, width)))
	b.WriteString("\n")

	switch {
	case len(snap.Items) == 0 && snap.Loading:
		b.WriteString(styles.MutedText.Render(" Loading " + strings.ToLower(s.def.Title) + "..."))
		return padLines(b.String(), height)
	case len(snap.Items) == 0 && snap.Error != "":
		b.WriteString(styles.DangerText.Render(" " + snap.Error))
		return padLines(b.String(), height)
	case len(snap.Items) == 0:
		b.WriteString(styles.FaintText.Render(" Nothing matches the current filters"))
		return padLines(b.String(), height)
	}

	rows := height - 1
	offset := 0
	if s.cursor >= rows {
		offset = s.cursor - rows + 1
	}
	end := min(offset+rows, len(snap.Items))

	for i := offset; i < end; i++ {
		item := snap.Items[i]
		selected := snap.IsSelected(item.ID)
		busy := snap.Busy(item.ID)
		line := m.renderRow(s, item, selected, busy, width)
		if i == s.cursor {
			line = styles.Selected.Render(pad(m.plainRow(s, item, selected, busy, width), width))
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return padLines(b.String(), height)
}

// rowPrefix is the selection checkbox and pending marker column.
func (m Model) rowPrefix(s *screenState, selected, busy, header bool) string {
	var prefix string
	if !s.def.ReadOnly {
		switch {
		case header:
			prefix = "    "
		case selected:
			prefix = "[x] "
		default:
			prefix = "[ ] "
		}
	}
	switch {
	case header:
		return prefix + "  "
	case busy:
		return prefix + "⋯ "
	default:
		return prefix + "  "
	}
}

// renderRow renders one styled row.
func (m Model) renderRow(s *screenState, item platform.Item, selected, busy bool, width int) string {
	styles := m.theme.Styles()
	prefix := m.rowPrefix(s, selected, busy, false)

	var b strings.Builder
	if selected {
		b.WriteString(styles.AccentText.Render(prefix))
	} else if busy {
		b.WriteString(styles.InfoText.Render(prefix))
	} else {
		b.WriteString(styles.FaintText.Render(prefix))
	}

	used := lipgloss.Width(prefix)
	for _, col := range s.def.Columns {
		if used >= width {
			break
		}
		w := min(col.Width, width-used)
		cell := pad(cellValue(item, col), w)
		switch {
		case col.Field == "status" || col.Field == "action_type":
			b.WriteString(styles.StatusStyle(item.String(col.Field)).Render(cell))
		case busy:
			b.WriteString(styles.MutedText.Render(cell))
		default:
			b.WriteString(styles.Text.Render(cell))
		}
		b.WriteString(" ")
		used += w + 1
	}
	return b.String()
}

// plainRow renders a row without colors, for the cursor highlight.
func (m Model) plainRow(s *screenState, item platform.Item, selected, busy bool, width int) string {
	prefix := m.rowPrefix(s, selected, busy, false)

	var b strings.Builder
	b.WriteString(prefix)
	used := lipgloss.Width(prefix)
	for _, col := range s.def.Columns {
		if used >= width {
			break
		}
		w := min(col.Width, width-used)
		b.WriteString(pad(cellValue(item, col), w))
		b.WriteString(" ")
		used += w + 1
	}
	return b.String()
}

// cellValue is the display text of one cell.
func cellValue(item platform.Item, col screens.Column) string {
	if col.Field == "id" {
		return item.ID
	}
	value := oneLine(item.String(col.Field))
	if col.Field == "raised_amount" || col.Field == "amount" {
		return formatAmount(value)
	}
	return value
}

// padLines pads s with empty lines to exactly height lines.
func padLines(s string, height int) string {
	lines := strings.Count(s, "\n") + 1
	if lines < height {
		s += strings.Repeat("\n", height-lines)
	}
	return s
}
