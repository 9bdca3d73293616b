package notify

import (
	"sync"

	"github.com/lobbygames/napat/internal/models"
)

// Handler receives the full new room document whenever a write for the
// watched room code commits.
type Handler func(state *models.RoomState)

// Subscription is a handle on one active room watch.
type Subscription interface {
	// Unsubscribe releases the watch. It is idempotent.
	Unsubscribe()
}

// Broker fans room-document changes out to watchers of a room code.
// Delivery is best-effort and at-most-once per change, and is not
// guaranteed ordered relative to rapid successive writes.
type Broker interface {
	Publish(code string, state *models.RoomState) error
	Subscribe(code string, fn Handler) (Subscription, error)
}

// LocalBroker is an in-process Broker for tests and single-node dev mode.
type LocalBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*localSubscription]struct{}
}

type localSubscription struct {
	broker *LocalBroker
	code   string
	ch     chan *models.RoomState
	once   sync.Once
}

// NewLocalBroker creates an empty in-process broker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[*localSubscription]struct{})}
}

// Publish delivers state to every watcher of code. Slow watchers whose
// buffers are full miss the update rather than block the writer.
func (b *LocalBroker) Publish(code string, state *models.RoomState) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[code] {
		select {
		case sub.ch <- state.Clone():
		default:
		}
	}
	return nil
}

// Subscribe registers fn for changes to code. The handler runs on a
// dedicated goroutine, one delivery at a time.
func (b *LocalBroker) Subscribe(code string, fn Handler) (Subscription, error) {
	sub := &localSubscription{
		broker: b,
		code:   code,
		ch:     make(chan *models.RoomState, 16),
	}

	b.mu.Lock()
	if b.subs[code] == nil {
		b.subs[code] = make(map[*localSubscription]struct{})
	}
	b.subs[code][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		for state := range sub.ch {
			fn(state)
		}
	}()

	return sub, nil
}

func (s *localSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs[s.code], s)
		if len(s.broker.subs[s.code]) == 0 {
			delete(s.broker.subs, s.code)
		}
		// Publishers hold the read lock while sending, so nothing can be
		// mid-send on this channel once the write lock is held.
		close(s.ch)
		s.broker.mu.Unlock()
	})
}
