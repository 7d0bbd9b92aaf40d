package console

import (
	"context"
	"sync"
)

// Token identifies one issued fetch.
type Token uint64

// Canceller issues fetch tokens. Beginning a new fetch makes every earlier
// token stale and cancels its context.
type Canceller struct {
	mu      sync.Mutex
	current Token
	cancel  context.CancelFunc
}

// Begin issues a new token with a context derived from parent.
func (c *Canceller) Begin(parent context.Context) (Token, context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.current++
	c.cancel = cancel
	return c.current, ctx
}

// IsCurrent reports whether t is the most recently issued token.
func (c *Canceller) IsCurrent(t Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return t != 0 && t == c.current
}

// Done releases the context of t once its result has been applied.
func (c *Canceller) Done(t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t == c.current && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Stop cancels the current fetch and makes its token stale.
func (c *Canceller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.current++
}
