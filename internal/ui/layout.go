package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutDrawerWidth is the width of the favorites drawer column.
	LayoutDrawerWidth = 34
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// FlashLifetime is how long footer messages stay visible.
	FlashLifetime = 4 * time.Second

	// ExportTimeout bounds a download started from the UI.
	ExportTimeout = time.Minute
)

// chromeLines is the number of lines used by everything but the table:
// header, tabs, filter bar, banner, table header, footer and help line.
const chromeLines = 8
