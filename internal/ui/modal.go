package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmModal gates an action behind a yes/no question. Declining runs
// nothing.
type confirmModal struct {
	title     string
	prompt    string
	onConfirm func() tea.Cmd
}

func newConfirmModal(title, prompt string, onConfirm func() tea.Cmd) confirmModal {
	return confirmModal{title: title, prompt: prompt, onConfirm: onConfirm}
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Confirm):
		var cmd tea.Cmd
		if c.onConfirm != nil {
			cmd = c.onConfirm()
		}
		return c, cmd, true
	case key.Matches(keyMsg, keys.Decline):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.WarningText.Bold(true).Render(c.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(c.prompt))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("y") + styles.MutedText.Render(" confirm   "))
	b.WriteString(styles.AccentText.Render("n") + styles.MutedText.Render(" cancel"))

	modalWidth := min(max(lipgloss.Width(c.prompt)+6, 36), max(width-4, 20))
	box := styles.Modal.
		BorderForeground(lipgloss.Color(theme.Warning)).
		Width(modalWidth).
		Render(b.String())

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
