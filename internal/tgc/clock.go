package tgc

import "time"

// Clock abstracts wall-clock seconds so tests can control the passage of
// time deterministically, the same role IClock/DummyClock/RealClock play
// in the original tape GC.
type Clock interface {
	// NowSecs returns the current time as a Unix timestamp in seconds.
	NowSecs() int64
}

// RealClock reports the actual wall-clock time.
type RealClock struct{}

func (RealClock) NowSecs() int64 { return time.Now().Unix() }

// FakeClock is a test double that only advances when told to.
type FakeClock struct {
	secs int64
}

// NewFakeClock returns a FakeClock starting at the given Unix timestamp.
func NewFakeClock(startSecs int64) *FakeClock {
	return &FakeClock{secs: startSecs}
}

func (c *FakeClock) NowSecs() int64 { return c.secs }

// Advance moves the fake clock forward by secs seconds.
func (c *FakeClock) Advance(secs int64) { c.secs += secs }

// Set pins the fake clock to an absolute Unix timestamp.
func (c *FakeClock) Set(secs int64) { c.secs = secs }
