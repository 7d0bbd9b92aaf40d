package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/prefs"
	"github.com/five82/backer/internal/screens"
	"github.com/five82/backer/internal/shortcuts"
)

// handleKey processes keyboard input. Overlays get the key first, then the
// screen shortcut router, then the focused filter, then global and
// per-screen bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	s := m.active()
	if action, ok := s.router.Route(msg, s.editing); ok {
		return m.runShortcut(action)
	}

	if s.editing {
		return m.handleFilterInput(msg)
	}

	if s.console.Snapshot().Detail.Open {
		return m.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.NextScreen):
		m.switchScreen((m.current + 1) % len(m.screens))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.PrevScreen):
		m.switchScreen((m.current + len(m.screens) - 1) % len(m.screens))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Screens):
		m.switchScreen(int(msg.String()[0] - '1'))
		m.savePrefs()
		return m, nil
	}

	if handled := m.handleTableKey(msg); handled {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Drawer):
		m.drawer.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.LoadMore):
		m.drawer.LoadMore()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFavorite):
		return m, m.toggleFavorite()
	}

	return m.handleActionKey(msg)
}

// runShortcut executes a routed screen shortcut.
func (m Model) runShortcut(action shortcuts.Action) (tea.Model, tea.Cmd) {
	s := m.active()
	if action.BlurFirst {
		s.stopEditing()
	}

	switch action.Command {
	case shortcuts.Escape:
		if s.console.Escape() == console.EscapeNone && !action.BlurFirst {
			if m.drawer.Snapshot().Open {
				m.drawer.Close()
			}
		}
	case shortcuts.FocusSearch:
		if !s.focusFilter("search") {
			m.setFlash("This screen has no search")
		}
	case shortcuts.SelectAll:
		s.console.SelectAll()
	case shortcuts.Refresh:
		s.console.Refresh()
		m.drawer.Refresh()
	case shortcuts.Export:
		m.setFlash("Exporting " + s.def.Title + "...")
		return m, exportCmd(m.ctx, s, m.saveExport)
	}
	return m, nil
}

// handleFilterInput feeds a key into the focused text filter.
func (m Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.active()
	if msg.Type == tea.KeyEnter {
		s.stopEditing()
		return m, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	s.applyInput()
	return m, cmd
}

// handleDetailKey scrolls the detail modal. Escape is routed before this.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.detail.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.detail.ScrollUp(1)
	case key.Matches(msg, m.keys.NextPage):
		m.detail.HalfPageDown()
	case key.Matches(msg, m.keys.PrevPage):
		m.detail.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		m.detail.GotoTop()
	case key.Matches(msg, m.keys.CopyDetail):
		return m, copyDetailCmd(m.active().console.Snapshot().Detail)
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// handleTableKey moves the cursor, pages, selects and filters. It reports
// whether msg was consumed.
func (m *Model) handleTableKey(msg tea.KeyMsg) bool {
	s := m.active()
	snap := s.console.Snapshot()
	rows := len(snap.Items)

	switch {
	case key.Matches(msg, m.keys.Down):
		if s.cursor < rows-1 {
			s.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		s.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		s.cursor = max(rows-1, 0)
	case key.Matches(msg, m.keys.NextPage):
		s.console.NextPage()
		s.cursor = 0
	case key.Matches(msg, m.keys.PrevPage):
		s.console.PrevPage()
		s.cursor = 0
	case key.Matches(msg, m.keys.Select):
		if s.def.ReadOnly {
			return true
		}
		if item, ok := s.currentItem(snap); ok {
			s.console.ToggleSelection(item.ID)
		}
	case key.Matches(msg, m.keys.OpenDetail):
		if item, ok := s.currentItem(snap); ok {
			s.console.OpenDetail(item.ID)
			m.detail.GotoTop()
		}
	case key.Matches(msg, m.keys.NextFilter):
		s.nextFilter()
	case key.Matches(msg, m.keys.CycleValue):
		s.cycleFilter()
	case key.Matches(msg, m.keys.ClearFilters):
		s.console.ClearFilters()
		s.cursor = 0
	default:
		return false
	}
	return true
}

// handleActionKey runs the screen's per-item or bulk action bound to msg,
// behind a confirmation.
func (m Model) handleActionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.active()
	k := msg.String()

	if a, ok := s.def.ActionForKey(k); ok {
		snap := s.console.Snapshot()
		item, ok := s.currentItem(snap)
		if !ok {
			return m, nil
		}
		if snap.IsPending(a.Kind, item.ID) {
			m.setFlash(a.Label + " already running")
			return m, nil
		}
		if a.Precondition != nil && !a.Precondition(item) {
			m.setFlash(a.Label + " does not apply to " + screens.DisplayName(item))
			return m, nil
		}
		cmd := s.def.Command(a, item, m.api)
		label := a.Label
		m.modal = newConfirmModal(a.Label, a.ConfirmPrompt(item), func() tea.Cmd {
			if s.console.Execute(cmd) {
				return nil
			}
			return func() tea.Msg { return flashMsg(label + " skipped: item changed") }
		})
		return m, nil
	}

	if b, ok := s.def.BulkForKey(k); ok {
		snap := s.console.Snapshot()
		n := snap.SelectionSize()
		switch {
		case n == 0:
			m.setFlash("Select items first (space, ctrl+a)")
			return m, nil
		case snap.BulkLoading:
			m.setFlash("A bulk action is already running")
			return m, nil
		}
		action := s.def.BulkAction(b, m.api)
		m.modal = newConfirmModal("Bulk "+b.Label, console.BulkPrompt(action, n), func() tea.Cmd {
			return bulkCmd(s, action)
		})
		return m, nil
	}

	return m, nil
}

// toggleFavorite flips the campaign under the cursor in the favorites.
func (m Model) toggleFavorite() tea.Cmd {
	s := m.active()
	if s.def.Resource != platform.Campaigns {
		return nil
	}
	item, ok := s.currentItem(s.console.Snapshot())
	if !ok {
		return nil
	}
	drawer := m.drawer
	ctx := m.ctx
	name := screens.DisplayName(item)
	return func() tea.Msg {
		added, err := drawer.ToggleFavorite(ctx, item.ID)
		if err != nil {
			slog.Warn("favorite toggle failed",
				slog.String("campaign", item.ID),
				slog.String("error", err.Error()),
			)
			return flashMsg("Favorite failed: " + platform.AsAPIError(err).Message)
		}
		if added {
			return flashMsg("Added " + name + " to favorites")
		}
		return flashMsg("Removed " + name + " from favorites")
	}
}

// savePrefs persists the theme and the screen being shown.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, StartScreen: m.active().def.ID}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		slog.Warn("save prefs failed", slog.String("error", err.Error()))
	}
}

// bulkCmd starts a confirmed bulk action and reports refusals in the footer.
func bulkCmd(s *screenState, action console.BulkAction) tea.Cmd {
	return func() tea.Msg {
		err := s.console.RunBulk(action, console.Confirmed)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, console.ErrThrottled):
			return flashMsg("Bulk actions are limited to one per second")
		case errors.Is(err, console.ErrEmptySelection):
			return flashMsg("Selection is empty")
		default:
			return flashMsg(err.Error())
		}
	}
}

// exportCmd downloads the filtered collection and hands it to save.
func exportCmd(parent context.Context, s *screenState, save func(platform.Resource, []byte) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ExportTimeout)
		defer cancel()
		data, err := s.console.Export(ctx)
		if err != nil {
			// The console already shows a banner.
			return nil
		}
		if save == nil {
			return flashMsg(fmt.Sprintf("Exported %d bytes", len(data)))
		}
		path, err := save(s.def.Resource, data)
		if err != nil {
			slog.Warn("save export failed",
				slog.String("resource", string(s.def.Resource)),
				slog.String("error", err.Error()),
			)
			return flashMsg("Export not saved: " + err.Error())
		}
		return flashMsg("Exported to " + path)
	}
}
