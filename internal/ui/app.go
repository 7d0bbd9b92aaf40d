package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/backer/internal/broadcast"
	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/favorites"
	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/prefs"
	"github.com/five82/backer/internal/screens"
	"github.com/five82/backer/internal/state"
)

// API is the platform surface the UI drives.
// This interface is implemented by *platform.Client.
type API interface {
	platform.ResourceFetcher
	platform.Mutator
	platform.FavoritesSource
	console.Exporter
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	API         API
	Store       *state.Store
	Bus         *broadcast.Bus
	PollTick    time.Duration
	ThemeName   string
	StartScreen string
	PrefsPath   string

	// SaveExport stores a downloaded export and returns where it went.
	SaveExport func(resource platform.Resource, data []byte) (string, error)

	// Timing overrides; zero keeps the defaults.
	SearchDelay      time.Duration
	BulkEvery        time.Duration
	FavoritesSpacing time.Duration
	Now              func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	api        API
	store      *state.Store
	bus        *broadcast.Bus
	prefsPath  string
	pollTick   time.Duration
	saveExport func(platform.Resource, []byte) (string, error)
	now        func() time.Time
	keys       keyMap

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool
	help   help.Model

	// Screens
	screens []*screenState
	current int
	drawer  *favorites.Drawer
	changes chan struct{}

	// Dashboard data
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Overlays
	showHelp bool
	modal    Modal
	detail   viewport.Model

	// Footer message
	flash   string
	flashAt time.Time
}

// New creates a new Bubble Tea model with one console per admin screen.
func New(opts Options) (Model, error) {
	if opts.API == nil {
		return Model{}, errors.New("ui requires an API")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	changes := make(chan struct{}, 1)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}

	defs := screens.All()
	states := make([]*screenState, 0, len(defs))
	current := 0
	for i, def := range defs {
		s, err := newScreenState(ctx, def, opts.API, opts, notify)
		if err != nil {
			return Model{}, err
		}
		states = append(states, s)
		if def.ID == opts.StartScreen {
			current = i
		}
	}

	drawer, err := favorites.New(ctx, favorites.Options{
		Source:   opts.API,
		Bus:      opts.Bus,
		Spacing:  opts.FavoritesSpacing,
		OnChange: notify,
		Now:      now,
	})
	if err != nil {
		return Model{}, fmt.Errorf("favorites drawer: %w", err)
	}

	return Model{
		ctx:        ctx,
		api:        opts.API,
		store:      opts.Store,
		bus:        opts.Bus,
		prefsPath:  prefsPath,
		pollTick:   pollTick,
		saveExport: opts.SaveExport,
		now:        now,
		keys:       DefaultKeyMap(),
		theme:      GetTheme(themeName),
		help:       help.New(),
		screens:    states,
		current:    current,
		drawer:     drawer,
		changes:    changes,
		detail:     viewport.New(60, 16),
	}, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	m.active().console.Start()
	m.drawer.Refresh()

	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		waitForChange(m.ctx, m.changes),
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resizeDetail()
		m.syncDetail()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.now()
		return m, nil

	case changedMsg:
		m.syncConsoles()
		return m, waitForChange(m.ctx, m.changes)

	case flashMsg:
		m.setFlash(string(msg))
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	if m.active().console.Snapshot().Detail.Open {
		return m.renderDetail()
	}

	return m.renderMain()
}

// active returns the screen being shown.
func (m Model) active() *screenState {
	return m.screens[m.current]
}

// switchScreen shows screen i and starts its console on first visit.
func (m *Model) switchScreen(i int) {
	if i < 0 || i >= len(m.screens) || i == m.current {
		return
	}
	m.active().stopEditing()
	m.current = i
	m.active().console.Start()
}

// syncConsoles folds console and drawer changes into view state.
func (m *Model) syncConsoles() {
	snap := m.active().console.Snapshot()
	m.active().clampCursor(len(snap.Items))
	if m.store != nil {
		m.store.SetFavorites(m.drawer.Snapshot().Count)
		m.snapshot = m.store.Snapshot()
	}
	m.syncDetail()
}

func (m *Model) setFlash(text string) {
	m.flash = text
	m.flashAt = m.now()
}

// currentFlash returns the footer message while it is fresh.
func (m Model) currentFlash() string {
	if m.flash == "" || m.now().Sub(m.flashAt) > FlashLifetime {
		return ""
	}
	return m.flash
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return m, tea.Batch(cmds...)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + dashboard stats
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: screen tabs
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	b.WriteString(m.renderBanner())
	b.WriteString("\n")

	b.WriteString(m.renderContent())
	b.WriteString("\n")

	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.screenHelp()))

	return b.String()
}

// renderContent renders the table, with the favorites drawer beside it
// when open.
func (m Model) renderContent() string {
	drawer := m.drawer.Snapshot()
	if !drawer.Open || m.width < LayoutCompactWidth/2 {
		return m.renderTable(m.width)
	}
	tableWidth := max(m.width-LayoutDrawerWidth-1, 20)
	return joinColumns(m.renderTable(tableWidth), m.renderDrawer(drawer, LayoutDrawerWidth))
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// changedMsg means a console or the drawer produced new state.
type changedMsg struct{}

// flashMsg is a short footer notice.
type flashMsg string

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForChange blocks until a console reports a change. It is re-armed
// after each changedMsg.
func waitForChange(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return changedMsg{}
		}
	}
}

// Shutdown cancels every console and the drawer and waits for their work.
func (m Model) Shutdown() {
	for _, s := range m.screens {
		s.console.Close()
	}
	m.drawer.Shutdown()
	for _, s := range m.screens {
		s.console.Wait()
	}
	m.drawer.Wait()
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.Shutdown()

	ctx := m.ctx
	if m.bus != nil {
		sub := m.bus.Subscribe(broadcast.DefaultBuffer)
		defer sub.Close()
		go func() { _ = m.drawer.Listen(ctx, sub) }()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
