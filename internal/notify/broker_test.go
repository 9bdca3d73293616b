package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobbygames/napat/internal/models"
)

func collect(ch chan *models.RoomState) Handler {
	return func(state *models.RoomState) {
		select {
		case ch <- state:
		default:
		}
	}
}

func TestLocalBrokerFansOutToRoomWatchers(t *testing.T) {
	broker := NewLocalBroker()

	got1 := make(chan *models.RoomState, 4)
	got2 := make(chan *models.RoomState, 4)
	other := make(chan *models.RoomState, 4)

	_, err := broker.Subscribe("AAAAAA", collect(got1))
	require.NoError(t, err)
	_, err = broker.Subscribe("AAAAAA", collect(got2))
	require.NoError(t, err)
	_, err = broker.Subscribe("BBBBBB", collect(other))
	require.NoError(t, err)

	state := models.NewRoomState("Alice", 15, 45)
	require.NoError(t, broker.Publish("AAAAAA", state))

	for _, ch := range []chan *models.RoomState{got1, got2} {
		select {
		case st := <-ch:
			assert.Equal(t, "Alice", st.Host)
		case <-time.After(time.Second):
			t.Fatal("watcher missed the change")
		}
	}

	select {
	case <-other:
		t.Fatal("watcher of another room received the change")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalBrokerDeliversCopies(t *testing.T) {
	broker := NewLocalBroker()
	got := make(chan *models.RoomState, 1)
	_, err := broker.Subscribe("AAAAAA", collect(got))
	require.NoError(t, err)

	state := models.NewRoomState("Alice", 15, 45)
	require.NoError(t, broker.Publish("AAAAAA", state))

	// Mutating the published document must not reach the watcher's copy.
	state.Host = "Mallory"
	delete(state.Players, "Alice")

	select {
	case st := <-got:
		assert.Equal(t, "Alice", st.Host)
		assert.Contains(t, st.Players, "Alice")
	case <-time.After(time.Second):
		t.Fatal("watcher missed the change")
	}
}

func TestSubscriptionUnsubscribeIdempotent(t *testing.T) {
	broker := NewLocalBroker()
	got := make(chan *models.RoomState, 4)

	sub, err := broker.Subscribe("AAAAAA", collect(got))
	require.NoError(t, err)
	sub.Unsubscribe()
	sub.Unsubscribe()

	require.NoError(t, broker.Publish("AAAAAA", models.NewRoomState("Alice", 15, 45)))
	select {
	case <-got:
		t.Fatal("received change after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriberReplacesPreviousWatch(t *testing.T) {
	broker := NewLocalBroker()
	sub := NewSubscriber(broker)

	first := make(chan *models.RoomState, 4)
	second := make(chan *models.RoomState, 4)

	require.NoError(t, sub.Subscribe("AAAAAA", collect(first)))
	require.NoError(t, sub.Subscribe("BBBBBB", collect(second)))

	require.NoError(t, broker.Publish("AAAAAA", models.NewRoomState("Alice", 15, 45)))
	require.NoError(t, broker.Publish("BBBBBB", models.NewRoomState("Bob", 15, 45)))

	select {
	case st := <-second:
		assert.Equal(t, "Bob", st.Host)
	case <-time.After(time.Second):
		t.Fatal("active watch missed the change")
	}
	select {
	case <-first:
		t.Fatal("replaced watch still receiving changes")
	case <-time.After(50 * time.Millisecond):
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
}
