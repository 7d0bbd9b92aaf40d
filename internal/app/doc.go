// Package app is the composition root of backer.
//
// # Overview
//
// Run loads configuration, wires the platform client, the dashboard store,
// the notification feed and the statistics poller, and then hands the
// terminal to the UI. Every long-running piece runs in one errgroup; quitting
// the UI cancels the group and Run returns once all of them have stopped.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.LoadDotEnv() / config.Load()
//	       ├─────> setupLogging()        slog to the log file
//	       ├─────> startDemo()           optional in-memory API
//	       ├─────> platform.NewClient()
//	       ├─────> notify.New().Run()    WebSocket -> broadcast.Bus
//	       ├─────> pumpStore()           Bus -> state.Store
//	       ├─────> runPoller()           /statistics/ -> state.Store
//	       └─────> ui.Run()              blocks until quit
//
// # Polling Behavior
//
// The poller fetches the statistics summary immediately and then every poll
// interval (default 15 seconds). Consecutive failures double the wait up to
// 30 seconds; the last good statistics stay visible while offline.
//
// # Export
//
// Export is the non-interactive counterpart of the UI's ctrl+e. It resolves
// a screen, downloads its CSV with the given filters and writes it to a
// file, to stdout, or under the configured export directory.
//
// # Usage Example
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	if err := app.Run(ctx, app.Options{Demo: true}); err != nil {
//		log.Fatalf("backer failed: %v", err)
//	}
package app
