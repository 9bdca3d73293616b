package room

import (
	"context"

	"github.com/lobbygames/napat/internal/models"
)

// Store is the persistence boundary for room documents. Update overwrites
// the whole document with no field-level merge: two writers racing from
// stale reads resolve last-write-wins, and the earlier write's changes are
// silently discarded. That weak-consistency contract is deliberate; the
// host-only authority gate in the session layer bounds the race for
// round-advancing writes to a single writer.
type Store interface {
	Create(ctx context.Context, code string, state *models.RoomState) error
	Fetch(ctx context.Context, code string) (*models.RoomState, error)
	Update(ctx context.Context, code string, state *models.RoomState) error
	Delete(ctx context.Context, code string) error
}
