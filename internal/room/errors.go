package room

import "errors"

// ErrRoomNotFound is returned when no document exists for a room code.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomCodeTaken is returned when creating a room whose code already
// exists; the caller should retry with a freshly generated code.
var ErrRoomCodeTaken = errors.New("room code already exists")
