// Package ui provides the Bubble Tea terminal interface for backer.
//
// # Architecture Overview
//
// The UI is a rendering layer over the resource consoles. Each admin screen
// owns one console.Console built from its screens.Screen declaration; the
// Model only reads console snapshots and forwards user input as console
// calls. Consoles report changes through a buffered channel that a
// long-lived command turns into changedMsg, so background fetches and
// mutations repaint the screen without polling.
//
// # Package Structure
//
//   - app.go: Model, Options, Init/Update/View and Run
//   - input.go: key routing, confirmations, export and bulk commands
//   - screen.go: per-screen runtime (console, cursor, filter focus)
//   - header.go: dashboard header, screen tabs, filter bar, banner, footer
//   - table.go: the paginated table
//   - detail.go: the detail modal
//   - drawer.go: the favorites drawer
//   - help.go: help overlay and footer key hints
//   - modal.go: modal interface and the confirmation dialog
//   - theme.go: color themes
//
// # Key Routing
//
// A key press goes to the first of these that claims it:
//
//  1. The help overlay (any key closes it)
//  2. An open confirmation dialog (y/enter confirms, n/esc declines)
//  3. The screen's shortcuts.Router (search, select all, export, refresh, escape)
//  4. The focused filter input while editing
//  5. The detail modal (scrolling only)
//  6. Global, table and per-screen action bindings
//
// Every per-item and bulk action is confirmed first. Declining runs nothing
// and leaves the selection untouched.
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context:   ctx,
//		API:       client,
//		Store:     store,
//		Bus:       bus,
//		ThemeName: p.Theme,
//	})
package ui
