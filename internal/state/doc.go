// Package state holds the dashboard data shown in the backer header.
//
// # Overview
//
// A Store carries the latest statistics summary, the unread notification
// count and the favorites count. The poller writes statistics, the broadcast
// pump writes badge counts, and the UI reads a Snapshot on every tick.
//
//	poller ──Update()──┐
//	bus ─────Apply()───┼──> Store ──Snapshot()──> header
//	drawer ──SetFavorites()
//
// # Update Semantics
//
// A failed poll keeps the previous statistics and records the error:
//
//	store.Update(stats, nil) // replace statistics, reset failures
//	store.Update(nil, err)   // keep statistics, LastError = err, failures++
//
// Two consecutive failures mark the snapshot offline (IsOffline). The poller
// reads ConsecutiveFailures to stretch its own backoff.
//
// Snapshots clone the statistics map, so a caller can hold one across
// renders while the poller keeps writing. The zero Store is ready to use.
package state
