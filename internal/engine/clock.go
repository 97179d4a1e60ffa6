package engine

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic logical clock that stamps action records.
//
// Every record gets a strictly increasing seq from this clock. The seq is
// the tiebreak in record ids, so records written within the same wall-clock
// instant still sort in creation order.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume from the newest record in an existing log.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// TimeSource supplies wall-clock time for recorded_at.
// Implemented by SystemTime (production) and testutil clocks (tests).
type TimeSource interface {
	Now() time.Time
}

// SystemTime reads the system clock.
type SystemTime struct{}

// Now returns the current time in UTC.
func (SystemTime) Now() time.Time {
	return time.Now().UTC()
}
