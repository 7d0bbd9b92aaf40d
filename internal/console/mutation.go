package console

import (
	"context"
	"errors"
	"log/slog"

	"github.com/five82/backer/internal/platform"
)

// Strategy selects how a failed optimistic mutation is reconciled.
type Strategy int

const (
	// ReconcileByRefetch re-derives truth from the server by fetching the
	// current page again.
	ReconcileByRefetch Strategy = iota
	// ReconcileBySnapshot puts the pre-mutation copy of the item back.
	ReconcileBySnapshot
)

func (s Strategy) String() string {
	switch s {
	case ReconcileBySnapshot:
		return "snapshot"
	default:
		return "refetch"
	}
}

// Command is one optimistic per-item mutation.
type Command struct {
	Kind   ActionKind
	ItemID string

	// Precondition, when set, must accept the current item for the command to run.
	Precondition func(platform.Item) bool
	// Apply rewrites the item locally before the remote call resolves.
	Apply func(platform.Item) platform.Item
	// Remove drops the item locally instead of rewriting it.
	Remove bool
	// Remote performs the server-side change for item, the value the
	// precondition accepted before Apply rewrote it.
	Remote func(ctx context.Context, item platform.Item) error

	Reconcile Strategy
}

// OptimisticSnapshot is the pre-mutation state of the target item.
type OptimisticSnapshot struct {
	Item  platform.Item
	Index int
}

// Execute applies cmd optimistically and starts its remote call. It reports
// false without touching state when the same action is already pending for
// the item, the item is not visible, or the precondition rejects it.
func (c *Console) Execute(cmd Command) bool {
	if cmd.Remote == nil || cmd.Kind == "" {
		return false
	}
	key := ActionKey{Kind: cmd.Kind, ID: cmd.ItemID}

	c.mu.Lock()
	if c.ctx.Err() != nil || c.state.IsPending(cmd.Kind, cmd.ItemID) {
		c.mu.Unlock()
		return false
	}
	idx := c.state.indexOf(cmd.ItemID)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	prior := OptimisticSnapshot{Item: c.state.Items[idx].Clone(), Index: idx}
	if cmd.Precondition != nil && !cmd.Precondition(prior.Item) {
		c.mu.Unlock()
		return false
	}
	next := prior.Item.Clone()
	if cmd.Apply != nil {
		next = cmd.Apply(next)
		next.ID = cmd.ItemID
	}
	c.applyLocked(mutationApplied{key: key, item: next, remove: cmd.Remove})
	c.inflight.Add(1)
	c.mu.Unlock()
	c.changed()

	go c.runMutation(cmd, key, prior)
	return true
}

func (c *Console) runMutation(cmd Command, key ActionKey, prior OptimisticSnapshot) {
	defer c.inflight.Done()
	err := cmd.Remote(c.ctx, prior.Item)

	c.mu.Lock()
	c.applyLocked(mutationSettled{key: key})
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// Closed console; nothing left to reconcile against.
	default:
		apiErr := platform.AsAPIError(err)
		slog.Warn("mutation failed",
			slog.String("resource", string(c.opts.Resource)),
			slog.String("action", string(cmd.Kind)),
			slog.String("id", cmd.ItemID),
			slog.String("reconcile", cmd.Reconcile.String()),
			slog.String("error", apiErr.Message),
		)
		switch cmd.Reconcile {
		case ReconcileBySnapshot:
			c.applyLocked(itemRestored{item: prior.Item, index: prior.Index})
		default:
			c.fetchLocked()
		}
		c.setBannerLocked(apiErr.Message, apiErr.Status)
	}
	c.mu.Unlock()
	c.changed()
}
