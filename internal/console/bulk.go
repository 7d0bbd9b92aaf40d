package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/five82/backer/internal/platform"
)

var (
	// ErrEmptySelection means a bulk action was requested with nothing selected.
	ErrEmptySelection = errors.New("no items selected")
	// ErrBulkInFlight means another bulk action has not settled yet.
	ErrBulkInFlight = errors.New("bulk action already running")
	// ErrThrottled means bulk actions were triggered faster than allowed.
	ErrThrottled = errors.New("bulk action throttled")
	// ErrDeclined means the user declined the confirmation.
	ErrDeclined = errors.New("action not confirmed")
)

// BulkAction is an action applied to every selected id in one request.
type BulkAction struct {
	Kind   ActionKind
	Label  string
	Remote func(ctx context.Context, ids []string) (platform.BulkResult, error)
}

// Confirmer gates destructive actions; it returns true to proceed.
type Confirmer func(prompt string) bool

// Confirmed is a Confirmer for callers that already asked the user.
func Confirmed(string) bool { return true }

// BulkPrompt is the confirmation text for running action on n items.
func BulkPrompt(action BulkAction, n int) string {
	label := action.Label
	if label == "" {
		label = string(action.Kind)
	}
	noun := "items"
	if n == 1 {
		noun = "item"
	}
	return fmt.Sprintf("%s %d selected %s?", label, n, noun)
}

// RunBulk confirms and starts action on the current selection. Whatever
// the outcome, the selection is cleared and the page re-fetched once the
// remote call settles.
func (c *Console) RunBulk(action BulkAction, confirm Confirmer) error {
	if action.Remote == nil {
		return fmt.Errorf("bulk %s: no remote call", action.Kind)
	}
	snap := c.Snapshot()
	if snap.SelectionSize() == 0 {
		return ErrEmptySelection
	}
	if snap.BulkLoading {
		return ErrBulkInFlight
	}
	if confirm == nil || !confirm(BulkPrompt(action, snap.SelectionSize())) {
		return ErrDeclined
	}

	c.mu.Lock()
	ids := c.state.Selected()
	switch {
	case len(ids) == 0:
		c.mu.Unlock()
		return ErrEmptySelection
	case c.state.BulkLoading:
		c.mu.Unlock()
		return ErrBulkInFlight
	case !c.bulkGate.Allow():
		c.mu.Unlock()
		return ErrThrottled
	}
	c.applyLocked(bulkStarted{})
	c.inflight.Add(1)
	c.mu.Unlock()
	c.changed()

	go func() {
		defer c.inflight.Done()
		result, err := action.Remote(c.ctx, ids)

		c.mu.Lock()
		c.applyLocked(bulkSettled{})
		c.applyLocked(selectionCleared{})
		if c.ctx.Err() == nil {
			c.fetchLocked()
		}
		switch {
		case err != nil && errors.Is(err, context.Canceled):
		case err != nil:
			apiErr := platform.AsAPIError(err)
			slog.Warn("bulk action failed",
				slog.String("resource", string(c.opts.Resource)),
				slog.String("action", string(action.Kind)),
				slog.Int("items", len(ids)),
				slog.String("error", apiErr.Message),
			)
			c.setBannerLocked(fmt.Sprintf("Bulk %s failed: %s", action.Kind, apiErr.Message), apiErr.Status)
		case len(result.Failed) > 0:
			c.setBannerLocked(fmt.Sprintf("Bulk %s: %d of %d items failed", action.Kind, len(result.Failed), len(ids)), 0)
		}
		c.mu.Unlock()
		c.changed()
	}()
	return nil
}
