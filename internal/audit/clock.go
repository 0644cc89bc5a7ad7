package audit

import (
	"sync"
	"time"
)

// Clock supplies creation timestamps.
type Clock interface {
	Now() time.Time
}

// MonotonicClock hands out strictly increasing UTC timestamps at millisecond
// resolution, the precision kept by the document store. When the wall clock
// stalls or steps backwards the previous value is advanced by one millisecond.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewMonotonicClock wraps now. A nil now uses time.Now.
func NewMonotonicClock(now func() time.Time) *MonotonicClock {
	if now == nil {
		now = time.Now
	}
	return &MonotonicClock{now: now}
}

func (c *MonotonicClock) Now() time.Time {
	t := c.now().UTC().Truncate(time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}
