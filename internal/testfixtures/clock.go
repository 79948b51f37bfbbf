package testfixtures

import (
	"sync"
	"time"
)

// ReferenceTime is the fixed instant tests start from.  Using a stable
// anchor keeps expiry arithmetic in assertions readable.
func ReferenceTime() time.Time {
	return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
}

// Clock provides a controllable time source for tests.  It satisfies
// the reservation engine's Clock interface.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, the shared ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by the provided duration and returns the
// updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}
