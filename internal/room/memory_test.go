package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobbygames/napat/internal/models"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	var notified []string
	store := NewMemoryStore(func(code string, state *models.RoomState) {
		notified = append(notified, code)
	})

	state := models.NewRoomState("Alice", 15, 45)
	require.NoError(t, store.Create(ctx, "AAAAAA", state))

	// Creating does not notify; only committed updates do.
	assert.Empty(t, notified)

	got, err := store.Fetch(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Host)

	got.Status = models.RoomStatusPlaying
	require.NoError(t, store.Update(ctx, "AAAAAA", got))
	assert.Equal(t, []string{"AAAAAA"}, notified)

	require.NoError(t, store.Delete(ctx, "AAAAAA"))
	_, err = store.Fetch(ctx, "AAAAAA")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemoryStoreCreateCollision(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	require.NoError(t, store.Create(ctx, "AAAAAA", models.NewRoomState("Alice", 15, 45)))
	err := store.Create(ctx, "AAAAAA", models.NewRoomState("Bob", 15, 45))
	assert.ErrorIs(t, err, ErrRoomCodeTaken)
}

func TestMemoryStoreUpdateUnknownRoom(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	err := store.Update(ctx, "NOSUCH", models.NewRoomState("Alice", 15, 45))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	state := models.NewRoomState("Alice", 15, 45)
	require.NoError(t, store.Create(ctx, "AAAAAA", state))

	// Mutations after the write must not leak into the stored document.
	state.Host = "Mallory"

	got, err := store.Fetch(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Host)

	// Nor do mutations of a fetched copy affect later readers.
	got.Scores["Alice"] = 999
	again, err := store.Fetch(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Scores["Alice"])
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	// Two racing leavers may both try to delete; the second is a no-op.
	assert.NoError(t, store.Delete(ctx, "NOSUCH"))
}
