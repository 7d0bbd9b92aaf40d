// Package console implements the resource-console engine shared by every
// admin screen.
//
// # Overview
//
// A Console keeps a paginated, filtered view of one remote collection in
// sync with user input. It applies per-item mutations optimistically, rolls
// them back on failure, tracks which actions are in flight for which item,
// and coalesces rapid input into a bounded request rate.
//
// # State Model
//
// All state lives in an immutable Snapshot. Every change goes through
// reduce, a pure function from (Snapshot, event) to Snapshot, so the
// renderer only ever reads a consistent value and tests can replay event
// sequences. Snapshot.Version increases on every event.
//
// # Fetch Pipeline
//
//   - SetFilter resets the page to 1 immediately and schedules a fetch
//     through the Debouncer (500ms for text search, next tick otherwise)
//   - Every fetch begins a Canceller token; earlier tokens are cancelled and
//     their results discarded without touching state
//   - A successful fetch replaces the collection and prunes the selection;
//     a page beyond the new total is clamped and re-fetched
//   - Rows for a query whose page or filters changed in flight are dropped;
//     the debounced fetch from that change follows
//   - A failed fetch keeps the previous rows and raises the Banner
//
// # Mutations
//
// Execute applies a Command locally before its Remote call resolves. The
// {kind, id} pair is exclusive while pending. On failure the command's
// Strategy reconciles: ReconcileByRefetch fetches the page again,
// ReconcileBySnapshot restores the captured item.
//
// RunBulk requires a selection and a confirmation. It always clears the
// selection and re-fetches once the remote call settles.
//
// # Concurrency
//
// Console methods are safe for concurrent use. Remote calls and OnChange
// run outside the console lock. Wait blocks until debounce timers, fetches,
// mutations and bulk calls settle.
package console
