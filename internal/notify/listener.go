package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/lobbygames/napat/internal/models"
	"github.com/lobbygames/napat/internal/room"
)

// Fetcher re-reads the committed document after a change notification.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (*models.RoomState, error)
}

// ListenerConfig holds settings for the Postgres change listener.
type ListenerConfig struct {
	DatabaseURL       string // Postgres DSN for LISTEN/NOTIFY
	Channel           string // Channel name to LISTEN on
	MinReconnectDelay time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
}

// DefaultListenerConfig returns the default listener configuration.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		Channel:           room.NotifyChannel,
		MinReconnectDelay: 10 * time.Second,
		MaxReconnectDelay: time.Minute,
		PingInterval:      90 * time.Second,
	}
}

// ChangeListener bridges Postgres NOTIFY into the broker: every committed
// room update raises a notification carrying the room code, the listener
// re-fetches the document and republishes it to the room's watchers.
type ChangeListener struct {
	listener *pq.Listener
	fetcher  Fetcher
	broker   Broker
	cfg      ListenerConfig
}

// NewChangeListener starts LISTENing on the configured channel.
func NewChangeListener(fetcher Fetcher, broker Broker, cfg ListenerConfig) (*ChangeListener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnectDelay,
		cfg.MaxReconnectDelay,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.Channel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().Str("channel", cfg.Channel).Msg("listening for room changes")

	return &ChangeListener{
		listener: l,
		fetcher:  fetcher,
		broker:   broker,
		cfg:      cfg,
	}, nil
}

// Start consumes notifications until ctx is cancelled.
func (l *ChangeListener) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("change listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// nil notification means the connection was lost and is
				// being re-established.
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle room change")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// Stop closes the underlying Postgres listener.
func (l *ChangeListener) Stop() error {
	return l.listener.Close()
}

// handleNotification re-fetches the room named by the payload and fans the
// committed document out. A room deleted between notify and fetch is
// skipped; its watchers have already left or are about to.
func (l *ChangeListener) handleNotification(ctx context.Context, code string) error {
	state, err := l.fetcher.Fetch(ctx, code)
	if errors.Is(err, room.ErrRoomNotFound) {
		log.Debug().Str("room_code", code).Msg("room gone before change fan-out")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch room %s: %w", code, err)
	}

	if err := l.broker.Publish(code, state); err != nil {
		return fmt.Errorf("failed to publish change for room %s: %w", code, err)
	}

	log.Debug().Str("room_code", code).Msg("room change published")
	return nil
}
