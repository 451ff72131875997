package audio

import (
	"sync"
	"time"
)

// Clock is the audio context timebase. It advances with wall time while the
// context runs and holds still while it is suspended.
type Clock struct {
	now func() time.Time

	mu      sync.Mutex
	base    time.Duration
	since   time.Time
	running bool
}

func newClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now returns the time accumulated since the context was created.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return c.base
	}
	return c.base + c.now().Sub(c.since)
}

func (c *Clock) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.since = c.now()
	c.running = true
}

func (c *Clock) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.base += c.now().Sub(c.since)
	c.running = false
}
