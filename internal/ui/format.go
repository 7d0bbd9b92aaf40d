package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders fragments on a shared background so separators and
// spaces between styled parts do not punch holes in a bar.
type BgStyle struct {
	bg lipgloss.Color
}

// NewBgStyle returns a BgStyle for the given background color.
func NewBgStyle(color string) BgStyle {
	return BgStyle{bg: lipgloss.Color(color)}
}

// Render draws text with style on the shared background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	return style.Background(b.bg).Render(text)
}

// Space returns a single background-colored space.
func (b BgStyle) Space() string { return b.Spaces(1) }

// Spaces returns n background-colored spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Join concatenates parts with sep.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

// truncate shortens s to max display cells, ending with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	if max == 1 {
		return "…"
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// pad fills s with trailing spaces to exactly width cells, truncating
// when it is longer.
func pad(s string, width int) string {
	s = truncate(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// oneLine collapses newlines and tabs so a value fits a table cell.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
