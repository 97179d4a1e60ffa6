package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start of a DeterministicClock.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultStep is the default advance of a DeterministicClock per reading.
const DefaultStep = time.Second

// DeterministicClock is a wall clock for tests.
//
// The first call to Now returns the start instant; every following call
// returns the previous instant plus the step. The same scenario run with a
// fresh clock therefore stamps byte-identical records.
//
// Implements engine.TimeSource.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	next  time.Time
	step  time.Duration
}

// NewDeterministicClock creates a clock starting at Epoch with DefaultStep.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(Epoch, DefaultStep)
}

// NewDeterministicClockAt creates a clock with an explicit start and step.
// A zero step freezes the clock.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	start = start.UTC()
	return &DeterministicClock{start: start, next: start, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// Peek returns the instant the next call to Now will return.
func (c *DeterministicClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Set moves the clock to t, forwards or backwards.
func (c *DeterministicClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = t.UTC()
}

// Reset returns the clock to its start instant.
//
// Used for test reuse. After Reset(), the next call to Now() returns the start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
