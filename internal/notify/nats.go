package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/lobbygames/napat/internal/models"
)

// NATSConfig holds connection settings for the NATS-backed broker.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the default NATS broker configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "rooms",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSBroker fans room documents out over core NATS pub/sub, one subject
// per room code. Core (non-JetStream) delivery matches the contract:
// best-effort, at-most-once, no replay.
type NATSBroker struct {
	nc     *nats.Conn
	config NATSConfig
}

// NewNATSBroker connects to NATS and returns a broker over it.
func NewNATSBroker(cfg NATSConfig) (*NATSBroker, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSBroker{nc: nc, config: cfg}, nil
}

func (b *NATSBroker) subject(code string) string {
	return fmt.Sprintf("%s.%s", b.config.SubjectPrefix, code)
}

// Publish sends the full document to every watcher of code.
func (b *NATSBroker) Publish(code string, state *models.RoomState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal room state: %w", err)
	}
	if err := b.nc.Publish(b.subject(code), data); err != nil {
		return fmt.Errorf("publish room change: %w", err)
	}
	return nil
}

// Subscribe registers fn for changes to code. Documents that fail to
// decode are dropped; a malformed write must not take the watcher down.
func (b *NATSBroker) Subscribe(code string, fn Handler) (Subscription, error) {
	sub, err := b.nc.Subscribe(b.subject(code), func(msg *nats.Msg) {
		var state models.RoomState
		if err := json.Unmarshal(msg.Data, &state); err != nil {
			log.Error().Err(err).Str("room_code", code).Msg("failed to decode room change")
			return
		}
		fn(&state)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to room %s: %w", code, err)
	}
	return &natsSubscription{sub: sub}, nil
}

// Close tears down the NATS connection.
func (b *NATSBroker) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() {
	// Unsubscribing an already-released subscription returns an error we
	// deliberately swallow to keep the operation idempotent.
	_ = s.sub.Unsubscribe()
}
