package interaction

import "sync/atomic"

// Clock is the monotonic logical clock that orders intents.
//
// Every emitted intent is stamped with a strictly increasing seq
// number from this clock. This ensures:
// - Deterministic ordering (no wall-clock race conditions)
// - Replay produces identical order
// - Traces from one session interleave unambiguously
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// In practice the controller's serialized drain means only one
// goroutine calls Next() at a time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence
// number. Used by trace replay to resume from the last recorded seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
