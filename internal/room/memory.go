package room

import (
	"context"
	"sync"

	"github.com/lobbygames/napat/internal/models"
)

// MemoryStore is an in-process Store for tests and single-node dev mode.
// It reproduces the Postgres pipeline's observable behavior: every
// successful Update invokes the notify callback with a copy of the new
// document, standing in for LISTEN/NOTIFY plus the change listener.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]*models.RoomState
	notify func(code string, state *models.RoomState)
}

// NewMemoryStore creates an empty in-memory store. notify may be nil.
func NewMemoryStore(notify func(code string, state *models.RoomState)) *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[string]*models.RoomState),
		notify: notify,
	}
}

func (s *MemoryStore) Create(ctx context.Context, code string, state *models.RoomState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[code]; exists {
		return ErrRoomCodeTaken
	}
	s.rooms[code] = state.Clone()
	return nil
}

func (s *MemoryStore) Fetch(ctx context.Context, code string) (*models.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, exists := s.rooms[code]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, code string, state *models.RoomState) error {
	s.mu.Lock()
	if _, exists := s.rooms[code]; !exists {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	s.rooms[code] = state.Clone()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(code, state.Clone())
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}
