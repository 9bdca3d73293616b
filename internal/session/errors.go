package session

import "errors"

// Local validation failures, short-circuited before any store call.
var (
	ErrEmptyName     = errors.New("nickname is required")
	ErrEmptyRoomCode = errors.New("room code is required")
)

// Join and lifecycle failures surfaced to the player.
var (
	ErrRoomFull            = errors.New("room is full")
	ErrNameTaken           = errors.New("player name already exists in this room")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrInsufficientPlayers = errors.New("at least 2 players are required to start")
	ErrNotHost             = errors.New("only the host may do that")
	ErrNotInRoom           = errors.New("not connected to a room")
)
