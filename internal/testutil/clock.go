// Package testutil provides deterministic fixtures and fakes for
// engine, store, and CLI tests.
package testutil

import (
	"sync"
	"time"
)

// BaseTime is the fixed starting instant used across tests so golden
// output and timestamp assertions are deterministic.
var BaseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// FixedClock is a thread-safe clock that only moves when told to.
//
// Unlike the system clock, FixedClock makes "entered at" stamps and due
// dates reproducible across test runs.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock creates a clock frozen at BaseTime.
func NewFixedClock() *FixedClock {
	return &FixedClock{t: BaseTime}
}

// Now returns the clock's current instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d and returns the new instant.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}
