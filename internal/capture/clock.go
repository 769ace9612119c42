package capture

import (
	"sync"
	"time"
)

// FrameClock stamps frames with milliseconds since the clock started.
// Stamps never decrease, even if the wall clock steps backwards.
type FrameClock struct {
	mu    sync.Mutex
	start time.Time
	last  int64
}

// NewFrameClock starts a clock at start.
func NewFrameClock(start time.Time) *FrameClock {
	return &FrameClock{start: start}
}

// Stamp returns the timestamp for a frame captured at now.
func (c *FrameClock) Stamp(now time.Time) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := now.Sub(c.start).Milliseconds()
	if ms < c.last {
		ms = c.last
	}
	c.last = ms
	return ms
}
