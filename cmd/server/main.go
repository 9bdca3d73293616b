package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/lobbygames/napat/internal/config"
	"github.com/lobbygames/napat/internal/gateway"
	"github.com/lobbygames/napat/internal/models"
	"github.com/lobbygames/napat/internal/notify"
	"github.com/lobbygames/napat/internal/room"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, broker, cleanup, err := setupBackends(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up backends")
	}
	defer cleanup()

	server := setupServer(cfg, store, broker)

	go func() {
		log.Info().Str("addr", server.Addr).Bool("dev_mode", cfg.DevMode).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	cancel()
	log.Info().Msg("shutdown complete")
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// setupBackends wires the storage and fan-out layers. In dev mode
// everything runs in-process; otherwise room documents live in Postgres
// and change notifications flow through LISTEN/NOTIFY into NATS.
func setupBackends(ctx context.Context, cfg config.Config) (room.Store, notify.Broker, func(), error) {
	if cfg.DevMode {
		broker := notify.NewLocalBroker()
		store := room.NewMemoryStore(func(code string, state *models.RoomState) {
			if err := broker.Publish(code, state); err != nil {
				log.Error().Err(err).Str("room_code", code).Msg("failed to publish room change")
			}
		})
		log.Info().Msg("using in-memory store and local broker")
		return store, broker, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	store := room.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	log.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Database).
		Msg("connected to database")

	natsCfg := notify.DefaultNATSConfig()
	natsCfg.URL = cfg.NATS.URL
	broker, err := notify.NewNATSBroker(natsCfg)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	listenerCfg := notify.DefaultListenerConfig()
	listenerCfg.DatabaseURL = cfg.Database.DSN()
	listener, err := notify.NewChangeListener(store, broker, listenerCfg)
	if err != nil {
		broker.Close()
		pool.Close()
		return nil, nil, nil, err
	}

	go func() {
		if err := listener.Start(ctx); err != nil {
			log.Error().Err(err).Msg("change listener stopped")
		}
	}()

	cleanup := func() {
		if err := listener.Stop(); err != nil {
			log.Warn().Err(err).Msg("failed to stop change listener")
		}
		broker.Close()
		pool.Close()
	}
	return store, broker, cleanup, nil
}

func setupServer(cfg config.Config, store room.Store, broker notify.Broker) *http.Server {
	mux := http.NewServeMux()

	handler := gateway.NewHandler(store, broker, clockwork.NewRealClock(), gateway.DefaultConfig())
	handler.RegisterRoutes(mux)

	setupHealthCheck(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
