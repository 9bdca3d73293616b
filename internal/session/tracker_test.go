package session

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerNoticesEachNameOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := NewTracker(clock, nil)

	added := tracker.Observe([]string{"Bob"}, "Alice")
	require.Len(t, added, 1)
	assert.Equal(t, "Bob", added[0].PlayerName)
	assert.NotEmpty(t, added[0].ID)

	// Subsequent pushes repeating the same roster add nothing.
	assert.Empty(t, tracker.Observe([]string{"Bob"}, "Alice"))
	assert.Empty(t, tracker.Observe([]string{"Bob"}, "Alice"))

	added = tracker.Observe([]string{"Bob", "Carol"}, "Alice")
	require.Len(t, added, 1)
	assert.Equal(t, "Carol", added[0].PlayerName)

	assert.Len(t, tracker.Active(), 2)
}

func TestTrackerSkipsOwnName(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := NewTracker(clock, nil)

	assert.Empty(t, tracker.Observe([]string{"Alice"}, "Alice"))
	assert.Empty(t, tracker.Active())
}

func TestTrackerNoticesExpireIndependently(t *testing.T) {
	clock := clockwork.NewFakeClock()

	var mu sync.Mutex
	var expired []string
	tracker := NewTracker(clock, func(id string) {
		mu.Lock()
		expired = append(expired, id)
		mu.Unlock()
	})

	first := tracker.Observe([]string{"Bob"}, "Alice")
	require.Len(t, first, 1)

	clock.Advance(2 * time.Second)
	second := tracker.Observe([]string{"Bob", "Carol"}, "Alice")
	require.Len(t, second, 1)

	// Bob's window closes first; Carol's timer still has 2s to run.
	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool {
		return len(tracker.Active()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Carol", tracker.Active()[0].PlayerName)

	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return len(tracker.Active()) == 0
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{first[0].ID, second[0].ID}, expired)
}

func TestTrackerReset(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := NewTracker(clock, nil)

	tracker.Observe([]string{"Bob"}, "Alice")
	tracker.Reset()
	assert.Empty(t, tracker.Active())

	// After a reset the same name is noticed again, as for a new room.
	assert.Len(t, tracker.Observe([]string{"Bob"}, "Alice"), 1)
}
