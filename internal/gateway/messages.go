package gateway

import (
	"time"

	"github.com/lobbygames/napat/internal/models"
	"github.com/lobbygames/napat/internal/session"
)

// ActionType tags messages sent by the browser client.
type ActionType string

const (
	ActionCreateRoom    ActionType = "create_room"
	ActionCheckRoom     ActionType = "check_room"
	ActionJoinRoom      ActionType = "join_room"
	ActionStartGame     ActionType = "start_game"
	ActionSetDraft      ActionType = "set_draft"
	ActionSubmitAnswers ActionType = "submit_answers"
	ActionLeaveRoom     ActionType = "leave_room"
)

// Action is one client request. Fields are populated according to Type.
type Action struct {
	Type     ActionType        `json:"type"`
	Name     string            `json:"name,omitempty"`
	RoomCode string            `json:"roomCode,omitempty"`
	Settings *SettingsPayload  `json:"settings,omitempty"`
	Answers  *models.AnswerSet `json:"answers,omitempty"`
}

// SettingsPayload mirrors session.Settings on the wire.
type SettingsPayload struct {
	TotalRounds   int `json:"totalRounds"`
	TimerDuration int `json:"timerDuration"`
}

// PushType tags messages pushed to the browser client.
type PushType string

const (
	PushRoomCreated   PushType = "room_created"
	PushRoomInfo      PushType = "room_info"
	PushRoomState     PushType = "room_state"
	PushPlayerLeft    PushType = "player_left"
	PushNoticeExpired PushType = "notice_expired"
	PushForfeitWin    PushType = "forfeit_win"
	PushError         PushType = "error"
	PushAck           PushType = "ack"
)

// Push is one server-to-client message.
type Push struct {
	Type     PushType          `json:"type"`
	RoomCode string            `json:"roomCode,omitempty"`
	Info     *session.RoomInfo `json:"info,omitempty"`
	State    *models.RoomState `json:"state,omitempty"`
	Notice   *NoticePayload    `json:"notice,omitempty"`
	NoticeID string            `json:"noticeId,omitempty"`
	Winner   string            `json:"winner,omitempty"`
	Action   ActionType        `json:"action,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     string            `json:"code,omitempty"`
}

// NoticePayload is a player-left notice on the wire.
type NoticePayload struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"playerName"`
	Timestamp  time.Time `json:"timestamp"`
}
