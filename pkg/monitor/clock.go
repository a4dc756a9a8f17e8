package monitor

import "time"

// Counter exposes a free running 64-bit cycle counter as two 32-bit halves
// which can only be read one at a time.
type Counter interface {
	High() uint32
	Low() uint32
}

// Clock converts between counter ticks and durations.
type Clock struct {
	Counter Counter
	// Freq is the counter frequency in Hz.
	Freq uint32
}

// Now reads the 64-bit counter. The high half is read before and after the
// low half, and the read is retried if a carry happened in between.
func (c *Clock) Now() uint64 {
	for {
		hi := c.Counter.High()
		lo := c.Counter.Low()
		if c.Counter.High() == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

// Ticks converts d, at millisecond resolution, to counter ticks.
func (c *Clock) Ticks(d time.Duration) uint64 {
	return uint64(c.Freq) * uint64(d/time.Millisecond) / 1000
}

// Deadline returns the counter value d from now.
func (c *Clock) Deadline(d time.Duration) uint64 {
	return c.Now() + c.Ticks(d)
}

// Expired reports whether deadline has been reached.
func (c *Clock) Expired(deadline uint64) bool {
	return c.Now() >= deadline
}

// Sleep spins until d has elapsed.
func (c *Clock) Sleep(d time.Duration) {
	deadline := c.Deadline(d)
	for !c.Expired(deadline) {
	}
}
