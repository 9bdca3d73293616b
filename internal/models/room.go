package models

// RoomStatus defines the lifecycle phase of a room.
type RoomStatus string

const (
	RoomStatusWaiting       RoomStatus = "waiting"
	RoomStatusPlaying       RoomStatus = "playing"
	RoomStatusRoundComplete RoomStatus = "roundComplete"
	RoomStatusFinal         RoomStatus = "final"
)

// Player is one participant in a room.
type Player struct {
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Ready  bool   `json:"ready"`
}

// AnswerSet holds one player's answers for a single round. Fields may be
// empty; an empty answer scores zero and is never counted as a duplicate.
type AnswerSet struct {
	Name   string `json:"name"`
	Place  string `json:"place"`
	Animal string `json:"animal"`
	Thing  string `json:"thing"`
}

// DuplicateMap records clashing answers for the just-completed round,
// keyed by category, then by normalized answer, listing the players that
// shared it.
type DuplicateMap map[string]map[string][]string

// RoomState is the single shared document replicated to every client in a
// room. Writers always overwrite the whole document; the later of two
// concurrent writes wins.
type RoomState struct {
	Status              RoomStatus           `json:"status"`
	CurrentRound        int                  `json:"currentRound"`
	TotalRounds         int                  `json:"totalRounds"`
	TimerDuration       int                  `json:"timerDuration"`
	CurrentLetter       string               `json:"currentLetter"`
	Players             map[string]Player    `json:"players"`
	Answers             map[string]AnswerSet `json:"answers"`
	Scores              map[string]int       `json:"scores"`
	RoundScores         map[string]int       `json:"roundScores"`
	Duplicates          DuplicateMap         `json:"duplicates"`
	Host                string               `json:"host"`
	DisconnectedPlayers []string             `json:"disconnectedPlayers"`
}

// NewRoomState builds the initial document for a freshly created room with
// the creator as sole player and host.
func NewRoomState(creator string, totalRounds, timerDuration int) *RoomState {
	return &RoomState{
		Status:        RoomStatusWaiting,
		CurrentRound:  0,
		TotalRounds:   totalRounds,
		TimerDuration: timerDuration,
		Players: map[string]Player{
			creator: {Name: creator, IsHost: true, Ready: true},
		},
		Answers:             make(map[string]AnswerSet),
		Scores:              map[string]int{creator: 0},
		RoundScores:         make(map[string]int),
		Duplicates:          make(DuplicateMap),
		Host:                creator,
		DisconnectedPlayers: []string{},
	}
}

// PlayerCount returns the number of players currently in the room.
func (s *RoomState) PlayerCount() int {
	return len(s.Players)
}

// PlayerNames returns the names of all players currently in the room.
func (s *RoomState) PlayerNames() []string {
	names := make([]string, 0, len(s.Players))
	for name := range s.Players {
		names = append(names, name)
	}
	return names
}

// HasDisconnected reports whether name is already recorded as departed.
func (s *RoomState) HasDisconnected(name string) bool {
	for _, n := range s.DisconnectedPlayers {
		if n == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate a snapshot without
// aliasing the document held by other goroutines.
func (s *RoomState) Clone() *RoomState {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make(map[string]Player, len(s.Players))
	for k, v := range s.Players {
		out.Players[k] = v
	}
	out.Answers = make(map[string]AnswerSet, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		out.Scores[k] = v
	}
	out.RoundScores = make(map[string]int, len(s.RoundScores))
	for k, v := range s.RoundScores {
		out.RoundScores[k] = v
	}
	out.Duplicates = make(DuplicateMap, len(s.Duplicates))
	for cat, byAnswer := range s.Duplicates {
		cp := make(map[string][]string, len(byAnswer))
		for ans, players := range byAnswer {
			cp[ans] = append([]string(nil), players...)
		}
		out.Duplicates[cat] = cp
	}
	out.DisconnectedPlayers = append([]string(nil), s.DisconnectedPlayers...)
	return &out
}
