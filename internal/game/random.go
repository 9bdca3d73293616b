package game

import "math/rand"

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	letters          = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewRoomCode generates a random 6-character room code. Uniqueness is
// enforced only by the store rejecting a duplicate insert; callers retry
// with a fresh code on collision.
func NewRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

// RandomLetter picks the shared letter for a round.
func RandomLetter() string {
	return string(letters[rand.Intn(len(letters))])
}
