package testutil

import (
	"sync"

	"github.com/roach88/clientsync/internal/collection"
)

// TimestampClock hands out server timestamps for fake servers.
//
// Timestamps are logical: each write advances the clock by one, so a
// scenario produces the same cursors on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type TimestampClock struct {
	mu  sync.Mutex
	now collection.ServerTimestamp
}

// NewTimestampClock creates a clock whose first Next returns start+1.
func NewTimestampClock(start collection.ServerTimestamp) *TimestampClock {
	return &TimestampClock{now: start}
}

// Next advances the clock and returns the new timestamp.
func (c *TimestampClock) Next() collection.ServerTimestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now++
	return c.now
}

// Current returns the last timestamp handed out without advancing.
func (c *TimestampClock) Current() collection.ServerTimestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
