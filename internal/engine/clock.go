package engine

import "sync/atomic"

// Clock is a monotonic counter handing out 1, 2, 3, ...
//
// It backs the log sequence number and the per-species atom ids. Calls are
// linearizable; the Logger additionally stamps under its own lock so that
// sequence order equals write order.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
