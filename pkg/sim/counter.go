package sim

import "time"

// HostCounter is a cycle counter running at Freq, derived from the host's
// monotonic clock.
type HostCounter struct {
	Freq uint32

	start time.Time
	now   func() time.Time
}

// NewHostCounter creates a HostCounter starting at zero.
func NewHostCounter(freq uint32) *HostCounter {
	return &HostCounter{Freq: freq, start: time.Now(), now: time.Now}
}

// Cycles returns the full 64-bit count.
func (c *HostCounter) Cycles() uint64 {
	elapsed := c.now().Sub(c.start)
	secs, rem := uint64(elapsed/time.Second), uint64(elapsed%time.Second)
	freq := uint64(c.Freq)
	return secs*freq + rem*freq/uint64(time.Second)
}

// High implements monitor.Counter.
func (c *HostCounter) High() uint32 {
	return uint32(c.Cycles() >> 32)
}

// Low implements monitor.Counter.
func (c *HostCounter) Low() uint32 {
	return uint32(c.Cycles())
}
