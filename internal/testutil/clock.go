package testutil

import (
	"sync"
	"time"
)

// Epoch is the first timestamp handed out by a DeterministicClock.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe clock that advances one second per
// call to Now, starting at Epoch.
//
// Receipts and operation rows written under this clock carry predictable
// timestamps, so golden files stay byte-identical across runs.
type DeterministicClock struct {
	mu   sync.Mutex
	tick int64
}

// NewDeterministicClock creates a clock whose first Now() returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns Epoch plus one second per previous call.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.tick) * time.Second)
	c.tick++
	return t
}

// Reset rewinds the clock so the next Now() returns Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = 0
}
