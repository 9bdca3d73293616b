package gateway

import (
	"errors"

	"github.com/lobbygames/napat/internal/room"
	"github.com/lobbygames/napat/internal/session"
)

// errUnknownAction rejects action types outside the closed set.
var errUnknownAction = errors.New("unknown action type")

// errorCode maps a session or store failure to a stable wire code the
// client can branch on. Anything unrecognized is a persistence failure.
func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyName):
		return "empty_name"
	case errors.Is(err, session.ErrEmptyRoomCode):
		return "empty_room_code"
	case errors.Is(err, session.ErrRoomFull):
		return "room_full"
	case errors.Is(err, session.ErrNameTaken):
		return "name_taken"
	case errors.Is(err, session.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, session.ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, session.ErrNotHost):
		return "not_host"
	case errors.Is(err, session.ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, room.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, room.ErrRoomCodeTaken):
		return "room_code_taken"
	default:
		return "persistence_error"
	}
}
