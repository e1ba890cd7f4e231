package engine

import "sync/atomic"

// Clock hands out strictly increasing sequence numbers. Evaluation records
// and harness trace entries are ordered by these, never by wall time, so a
// replay reproduces the same numbering. Safe for concurrent use.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return NewClockAt(0)
}

// NewClockAt resumes numbering after last, typically the highest seq
// already persisted for a layout.
func NewClockAt(last int64) *Clock {
	c := new(Clock)
	c.last.Store(last)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 { return c.last.Add(1) }

// Last returns the most recently issued seq, or the resume point if
// nothing has been issued yet.
func (c *Clock) Last() int64 { return c.last.Load() }
