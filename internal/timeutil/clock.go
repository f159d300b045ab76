// Package timeutil provides a testable abstraction over wall time and sleeping.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the wall-clock reads and sleeps the frame loop depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration

	// Sleep pauses for the specified duration.
	Sleep(d time.Duration)

	// After returns a channel that receives the time once d has passed.
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Sleep pauses the current goroutine for at least the duration d.
func (RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// After waits for d in a separate goroutine, like time.After.
func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu          sync.Mutex
	now         time.Time
	sleeps      []time.Duration
	autoAdvance bool
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by the given duration.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SetAutoAdvance makes Sleep move the clock forward by the slept duration.
func (c *MockClock) SetAutoAdvance(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoAdvance = on
}

// Since returns the duration since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Sleep records the sleep duration and returns immediately.
func (c *MockClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if c.autoAdvance && d > 0 {
		c.now = c.now.Add(d)
	}
}

// After is Sleep delivered on a channel: the wait is recorded, the clock
// moves when auto-advance is on, and the channel is ready immediately.
func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.Sleep(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

// Sleeps returns all recorded sleep and After durations.
func (c *MockClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]time.Duration, len(c.sleeps))
	copy(result, c.sleeps)
	return result
}
