package client

import (
	"context"
	"sync"
	"sync/atomic"
)

// Canceller is the stop flag shared between the UI and the stream reader.
// Stop also cancels the in-flight request so a blocked read returns at once.
type Canceller struct {
	stopped atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewCanceller() *Canceller {
	return &Canceller{}
}

// Stop requests the current stream to end, keeping what was received so far
func (c *Canceller) Stop() {
	c.stopped.Store(true)

	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Stopped reports whether Stop was called since the last Reset
func (c *Canceller) Stopped() bool {
	return c.stopped.Load()
}

// Reset clears the flag for the next request
func (c *Canceller) Reset() {
	c.stopped.Store(false)
}

func (c *Canceller) bind(cancel context.CancelFunc) {
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
}

func (c *Canceller) unbind() {
	c.bind(nil)
}
