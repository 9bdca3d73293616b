package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomState(t *testing.T) {
	s := NewRoomState("Alice", 15, 45)

	assert.Equal(t, RoomStatusWaiting, s.Status)
	assert.Equal(t, 0, s.CurrentRound)
	assert.Equal(t, "Alice", s.Host)
	assert.True(t, s.Players["Alice"].IsHost)
	assert.Equal(t, 0, s.Scores["Alice"])
	assert.Equal(t, 1, s.PlayerCount())
	assert.False(t, s.HasDisconnected("Alice"))
}

func TestCloneIsDeep(t *testing.T) {
	s := NewRoomState("Alice", 15, 45)
	s.Answers["Alice"] = AnswerSet{Name: "newt"}
	s.Duplicates = DuplicateMap{"place": {"delhi": {"Alice", "Bob"}}}
	s.DisconnectedPlayers = []string{"Carol"}

	c := s.Clone()
	c.Players["Bob"] = Player{Name: "Bob"}
	c.Answers["Alice"] = AnswerSet{Name: "narwhal"}
	c.Scores["Alice"] = 100
	c.Duplicates["place"]["delhi"][0] = "Mallory"
	c.DisconnectedPlayers[0] = "Dave"

	assert.Equal(t, 1, s.PlayerCount())
	assert.Equal(t, "newt", s.Answers["Alice"].Name)
	assert.Equal(t, 0, s.Scores["Alice"])
	assert.Equal(t, "Alice", s.Duplicates["place"]["delhi"][0])
	assert.Equal(t, "Carol", s.DisconnectedPlayers[0])
}

func TestCloneNil(t *testing.T) {
	var s *RoomState
	assert.Nil(t, s.Clone())
}

// The document shape on the wire is fixed; clients key on these names.
func TestRoomStateJSONKeys(t *testing.T) {
	data, err := json.Marshal(NewRoomState("Alice", 15, 45))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{
		"status", "currentRound", "totalRounds", "timerDuration",
		"currentLetter", "players", "answers", "scores", "roundScores",
		"duplicates", "host", "disconnectedPlayers",
	} {
		assert.Contains(t, doc, key)
	}
}
