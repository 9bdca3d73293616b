package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/lobbygames/napat/internal/models"
)

// NotifyChannel is the Postgres LISTEN/NOTIFY channel raised on every
// successful document update. The payload is the room code.
const NotifyChannel = "room_changes"

const pgUniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	state      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists room documents in a single JSONB-backed table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the rooms table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure rooms schema: %w", err)
	}
	return nil
}

// Create inserts a new room document. Returns ErrRoomCodeTaken when the
// code is already in use.
func (s *PostgresStore) Create(ctx context.Context, code string, state *models.RoomState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO rooms (code, state) VALUES ($1, $2)`, code, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrRoomCodeTaken
		}
		return fmt.Errorf("failed to create room %s: %w", code, err)
	}

	log.Debug().Str("room_code", code).Msg("room created")
	return nil
}

// Fetch loads the current document for a room code.
func (s *PostgresStore) Fetch(ctx context.Context, code string) (*models.RoomState, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM rooms WHERE code = $1`, code).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room %s: %w", code, err)
	}

	var state models.RoomState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room state for %s: %w", code, err)
	}
	return &state, nil
}

// Update overwrites the full document and raises a change notification in
// the same transaction, so subscribers only hear about committed writes.
func (s *PostgresStore) Update(ctx context.Context, code string, state *models.RoomState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room state: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin update for room %s: %w", code, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE rooms SET state = $2, updated_at = now() WHERE code = $1`, code, doc)
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, code); err != nil {
		return fmt.Errorf("failed to notify update for room %s: %w", code, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit update for room %s: %w", code, err)
	}
	return nil
}

// Delete removes a room document. Deleting an unknown code is not an
// error; the last leaver may have raced another delete.
func (s *PostgresStore) Delete(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", code, err)
	}
	log.Debug().Str("room_code", code).Msg("room deleted")
	return nil
}
