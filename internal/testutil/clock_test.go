package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clientsync/internal/collection"
)

func TestTimestampClock_StartsAfterStart(t *testing.T) {
	clock := NewTimestampClock(100)
	assert.Equal(t, collection.ServerTimestamp(100), clock.Current())

	assert.Equal(t, collection.ServerTimestamp(101), clock.Next())
	assert.Equal(t, collection.ServerTimestamp(102), clock.Next())
	assert.Equal(t, collection.ServerTimestamp(102), clock.Current())
}

func TestTimestampClock_ThreadSafe(t *testing.T) {
	clock := NewTimestampClock(0)
	const goroutines = 50
	const calls = 100

	var mu sync.Mutex
	seen := make(map[collection.ServerTimestamp]bool)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := 0; c < calls; c++ {
				ts := clock.Next()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*calls)
	assert.Equal(t, collection.ServerTimestamp(goroutines*calls), clock.Current())
}
