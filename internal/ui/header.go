package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/backer/internal/console"
)

// headerStat is one dashboard counter in the header.
type headerStat struct {
	key     string
	label   string
	compact string
	warn    bool // highlight when non-zero
}

var headerStats = []headerStat{
	{key: "active_campaigns", label: "Active:", compact: "A:"},
	{key: "total_campaigns", label: "Campaigns:", compact: "C:"},
	{key: "pending_organizations", label: "Pending orgs:", compact: "P:", warn: true},
	{key: "total_users", label: "Users:", compact: "U:"},
	{key: "flagged_transactions", label: "Flagged:", compact: "F:", warn: true},
}

// renderHeader renders the status bar with dashboard statistics.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)

	parts := []string{bg.Render("backer", styles.Logo)}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case m.snapshot.HasStatistics:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	default:
		parts = append(parts, bg.Render("Connecting...", styles.WarningText.Bold(true)))
	}

	if m.snapshot.HasStatistics {
		stats := m.snapshot.Statistics
		for _, hs := range headerStats {
			label := hs.label
			if compact {
				label = hs.compact
			}
			n := stats.Int(hs.key)
			valueStyle := styles.Text
			if hs.warn && n > 0 {
				valueStyle = styles.WarningText
			}
			parts = append(parts,
				bg.Render(label, styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("%d", n), valueStyle))
		}
		if !compact {
			parts = append(parts,
				bg.Render("Raised:", styles.MutedText)+bg.Space()+
					bg.Render(formatAmount(string(stats["total_raised"])), styles.InfoText))
		}
	}

	badge := styles.MutedText
	if m.snapshot.UnreadCount > 0 {
		badge = styles.AccentText.Bold(true)
	}
	parts = append(parts,
		bg.Render("✉", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", m.snapshot.UnreadCount), badge),
		bg.Render("★", styles.WarningText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", m.snapshot.FavoritesCount), styles.Text),
	)

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if err := m.snapshot.LastError; err != nil {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Space()+
				bg.Render(truncate(err.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// formatTimestamp shows when the dashboard last refreshed.
func (m Model) formatTimestamp() string {
	if m.snapshot.LastUpdated.IsZero() {
		return ""
	}
	age := m.now().Sub(m.snapshot.LastUpdated)
	switch {
	case age < 5*time.Second:
		return "just now"
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	default:
		return m.snapshot.LastUpdated.Format("15:04:05")
	}
}

// formatAmount renders a decimal string with two fraction digits.
func formatAmount(raw string) string {
	if raw == "" {
		return "0.00"
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%.2f", f)
}

// renderCommandBar renders the screen tabs and the bindings of the active
// screen's actions.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)

	var tabs []string
	for i, s := range m.screens {
		label := fmt.Sprintf(" %d %s ", i+1, s.def.Title)
		if i == m.current {
			tabs = append(tabs, styles.Selected.Bold(true).Render(label))
		} else {
			tabs = append(tabs, bg.Render(label, styles.MutedText))
		}
	}
	line := strings.Join(tabs, bg.Space())

	s := m.active()
	var actions []string
	for _, a := range s.def.Actions {
		actions = append(actions, bg.Render(a.Key, styles.AccentText)+bg.Space()+bg.Render(a.Label, styles.FaintText))
	}
	for _, b := range s.def.Bulk {
		actions = append(actions, bg.Render(b.Key, styles.WarningText)+bg.Space()+bg.Render("Bulk "+strings.ToLower(b.Label), styles.FaintText))
	}
	if len(actions) > 0 && m.width >= LayoutCompactWidth {
		line += bg.Spaces(3) + strings.Join(actions, bg.Spaces(2))
	}
	return truncateLine(line, m.width)
}

// renderFilterBar renders every filter control of the active screen.
func (m Model) renderFilterBar() string {
	styles := m.theme.Styles()
	s := m.active()
	snap := s.console.Snapshot()
	if len(s.def.Filters) == 0 {
		return styles.FaintText.Render(" no filters")
	}

	var parts []string
	for i, f := range s.def.Filters {
		value := snap.Filters.Get(f.Key)
		focused := i == s.filter
		var shown string
		switch {
		case focused && s.editing:
			shown = s.input.View()
		case value == "" && f.Intent == console.IntentTextSearch:
			shown = "…"
		case value == "":
			shown = "any"
		default:
			shown = value
		}
		text := f.Label + ": " + shown
		switch {
		case focused:
			parts = append(parts, styles.Focus.Render(" "+text+" "))
		case value != "":
			parts = append(parts, styles.AccentText.Render(" "+text+" "))
		default:
			parts = append(parts, styles.MutedText.Render(" "+text+" "))
		}
	}

	if n := snap.Filters.Active(); n > 0 {
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("(%d active, c clears)", n)))
	}
	return strings.Join(parts, " ")
}

// renderBanner renders the console error banner, or a blank line.
func (m Model) renderBanner() string {
	snap := m.active().console.Snapshot()
	banner, ok := snap.BannerAt(m.now())
	if !ok {
		if snap.Error != "" {
			return m.theme.Styles().DangerText.Render(" " + snap.Error)
		}
		return ""
	}
	text := banner.Message
	if banner.Status > 0 {
		text = fmt.Sprintf("%s (HTTP %d)", text, banner.Status)
	}
	return m.theme.Styles().Banner.Width(m.width).Render(truncate(text, max(m.width-2, 1)))
}

// renderFooter renders pagination, selection and the latest notice.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	snap := m.active().console.Snapshot()
	page := snap.Page

	var parts []string
	first, last := page.Range(len(snap.Items))
	parts = append(parts,
		bg.Render(fmt.Sprintf("Page %d/%d", page.Index, page.TotalPages()), styles.Text),
		bg.Render(fmt.Sprintf("%d-%d of %d", first, last, page.TotalCount), styles.MutedText),
	)

	if n := snap.SelectionSize(); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d %s selected", n, plural(n, "item", "items")), styles.AccentText))
	}
	if snap.Loading {
		parts = append(parts, bg.Render("loading", styles.WarningText))
	}
	if snap.BulkLoading {
		parts = append(parts, bg.Render("bulk running", styles.WarningText))
	}
	if n := snap.PendingCount(); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d pending", n), styles.InfoText))
	}
	if flash := m.currentFlash(); flash != "" {
		parts = append(parts, bg.Render(flash, styles.SuccessText))
	}

	return styles.Footer.Width(m.width).Render(bg.Join(parts, bg.Spaces(2)))
}

// truncateLine cuts a styled line to width cells.
func truncateLine(line string, width int) string {
	if width <= 0 || lipgloss.Width(line) <= width {
		return line
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
