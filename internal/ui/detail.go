package ui

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/screens"
)

// resizeDetail fits the detail viewport to the terminal.
func (m *Model) resizeDetail() {
	m.detail.Width = max(min(m.width-10, 90), 20)
	m.detail.Height = max(m.height-10, 5)
}

// syncDetail refreshes the viewport content from the active console.
func (m *Model) syncDetail() {
	d := m.active().console.Snapshot().Detail
	if !d.Open {
		return
	}
	m.detail.SetContent(m.detailBody(d))
}

// detailBody renders the record as aligned field: value lines.
func (m Model) detailBody(d console.Detail) string {
	styles := m.theme.Styles()
	switch {
	case d.Loading:
		return styles.MutedText.Render("Loading #" + d.ID + "...")
	case d.Error != "":
		return styles.DangerText.Render("Could not load #" + d.ID + ": " + d.Error)
	}

	keys := make([]string, 0, len(d.Item.Fields))
	width := 0
	for k := range d.Item.Fields {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(styles.MutedText.Render(pad("id", width)) + "  " + styles.Text.Render(d.Item.ID))
	for _, k := range keys {
		value := d.Item.String(k)
		valueStyle := styles.Text
		if k == "status" {
			valueStyle = styles.StatusStyle(value)
		}
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(pad(k, width)) + "  " + valueStyle.Render(value))
	}
	return b.String()
}

// renderDetail renders the detail modal over the screen.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	s := m.active()
	d := s.console.Snapshot().Detail

	title := fmt.Sprintf("%s #%s", s.def.Title, d.ID)
	if d.Item.ID != "" {
		title = s.def.Title + " " + screens.DisplayName(d.Item)
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", m.detail.Width)))
	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("j/k scroll  y copy  esc close"))
	if flash := m.currentFlash(); flash != "" {
		b.WriteString("  " + styles.AccentText.Render(flash))
	}

	box := styles.Modal.Width(m.detail.Width + 4).Render(b.String())
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// copyDetailCmd puts the loaded record on the system clipboard as JSON.
func copyDetailCmd(d console.Detail) tea.Cmd {
	if d.Loading || d.Item.ID == "" {
		return nil
	}
	item := d.Item
	return func() tea.Msg {
		data, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return flashMsg("Copy failed: " + err.Error())
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			slog.Debug("clipboard write failed", slog.String("error", err.Error()))
			return flashMsg("Clipboard unavailable")
		}
		return flashMsg("Copied #" + item.ID)
	}
}
