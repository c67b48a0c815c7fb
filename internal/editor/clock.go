package editor

import "time"

// Clock abstracts time so the autosave scheduler can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock implements Clock with a settable time for testing.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the fake time forward by the given duration.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
