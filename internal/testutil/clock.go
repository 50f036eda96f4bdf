package testutil

import "sync"

// DeterministicClock is a Unix-seconds clock for tests that advances by
// exactly one second per reading, so stamped timestamps are predictable.
//
// It satisfies dao.Clock. All methods are safe for concurrent use.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	seq   int64
}

// NewDeterministicClock creates a clock whose first reading is start+1.
func NewDeterministicClock(start int64) *DeterministicClock {
	return &DeterministicClock{start: start}
}

// Next advances the clock by one second and returns the new time.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.start + c.seq
}

// Now implements dao.Clock; each call advances the clock.
func (c *DeterministicClock) Now() int64 {
	return c.Next()
}

// Current returns the last time handed out, or start if none was.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start + c.seq
}

// Reset rewinds the clock to start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
