package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a settable calendar clock for tests.
//
// Orders created through a service using this clock are dated by the
// clock, not by the wall clock, so tests and golden traces see the same
// dates on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
}

// NewDeterministicClock creates a clock reading midnight UTC of the given
// date.
func NewDeterministicClock(year int, month time.Month, day int) *DeterministicClock {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &DeterministicClock{start: t, now: t}
}

// Now returns the current reading.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AdvanceDays moves the clock forward by n days. Negative n moves it back.
func (c *DeterministicClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

// Set moves the clock to t.
func (c *DeterministicClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Reset returns the clock to the date it was created with.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
