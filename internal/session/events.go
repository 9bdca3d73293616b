package session

import "github.com/lobbygames/napat/internal/models"

// EventType tags events pushed from a controller to its client.
type EventType string

const (
	// EventRoomState carries the full replicated document after any change.
	EventRoomState EventType = "room_state"
	// EventPlayerLeft announces a freshly departed player.
	EventPlayerLeft EventType = "player_left"
	// EventNoticeExpired retires a player-left notice after its window.
	EventNoticeExpired EventType = "notice_expired"
	// EventForfeitWin declares the sole remaining player the winner.
	EventForfeitWin EventType = "forfeit_win"
)

// Event is one push from the controller to the client it serves.
type Event struct {
	Type     EventType
	State    *models.RoomState // room_state
	Notice   *Notice           // player_left
	NoticeID string            // notice_expired
	Winner   string            // forfeit_win
}
