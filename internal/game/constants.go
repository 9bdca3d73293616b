package game

// Room and round parameters carried over from the original game rules.
const (
	MinPlayers = 2
	MaxPlayers = 8

	RoomCodeLength = 6

	PointsPerCategory = 25
	DuplicatePenalty  = -25

	DefaultTotalRounds   = 15
	DefaultTimerDuration = 45
)

// Categories is the fixed, ordered category set every round is played over.
var Categories = []string{"name", "place", "animal", "thing"}

// TimerOptions are the allowed per-round durations in seconds.
var TimerOptions = []int{30, 45, 60}

// RoundsOptions are the allowed total-round counts.
var RoundsOptions = []int{10, 15, 20, 25}

// ValidTimerDuration reports whether d is one of the allowed durations.
func ValidTimerDuration(d int) bool {
	for _, opt := range TimerOptions {
		if d == opt {
			return true
		}
	}
	return false
}

// ValidTotalRounds reports whether n is one of the allowed round counts.
func ValidTotalRounds(n int) bool {
	for _, opt := range RoundsOptions {
		if n == opt {
			return true
		}
	}
	return false
}
