package notify

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Subscriber is the per-client subscription handle. A client watches at
// most one room at a time: subscribing again implicitly releases the
// previous watch, and Unsubscribe is idempotent.
type Subscriber struct {
	broker Broker

	mu      sync.Mutex
	current Subscription
	code    string
}

// NewSubscriber creates a subscriber bound to broker.
func NewSubscriber(broker Broker) *Subscriber {
	return &Subscriber{broker: broker}
}

// Subscribe starts watching code, replacing any previous watch.
func (s *Subscriber) Subscribe(code string, fn Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		log.Debug().Str("room_code", s.code).Msg("replacing previous room subscription")
		s.current.Unsubscribe()
		s.current = nil
	}

	sub, err := s.broker.Subscribe(code, fn)
	if err != nil {
		return fmt.Errorf("failed to subscribe to room %s: %w", code, err)
	}
	s.current = sub
	s.code = code
	return nil
}

// Unsubscribe releases the active watch, if any.
func (s *Subscriber) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Unsubscribe()
		s.current = nil
		s.code = ""
	}
}
