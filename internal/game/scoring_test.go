package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobbygames/napat/internal/models"
)

func TestScoreAllDistinctAnswers(t *testing.T) {
	answers := map[string]models.AnswerSet{
		"Alice": {Name: "Anna", Place: "Austin", Animal: "Ant", Thing: "Axe"},
		"Bob":   {Name: "Ben", Place: "Boston", Animal: "Bear", Thing: "Box"},
	}

	roundScores, duplicates := Score(answers, []string{"Alice", "Bob"})

	assert.Equal(t, 100, roundScores["Alice"])
	assert.Equal(t, 100, roundScores["Bob"])
	assert.Empty(t, duplicates)
}

func TestScoreDuplicatesNormalized(t *testing.T) {
	// Case and surrounding whitespace must not hide a duplicate.
	answers := map[string]models.AnswerSet{
		"Alice": {Place: "Delhi"},
		"Bob":   {Place: "delhi "},
	}

	roundScores, duplicates := Score(answers, []string{"Alice", "Bob"})

	assert.Equal(t, -25, roundScores["Alice"])
	assert.Equal(t, -25, roundScores["Bob"])
	require.Contains(t, duplicates, "place")
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, duplicates["place"]["delhi"])
}

func TestScoreEmptyAnswersExcluded(t *testing.T) {
	answers := map[string]models.AnswerSet{
		"Alice": {Name: "", Place: "   ", Animal: "", Thing: ""},
		"Bob":   {},
	}

	roundScores, duplicates := Score(answers, []string{"Alice", "Bob", "Carol"})

	assert.Equal(t, 0, roundScores["Alice"])
	assert.Equal(t, 0, roundScores["Bob"])
	assert.Equal(t, 0, roundScores["Carol"])
	assert.Empty(t, duplicates)
}

func TestScoreMixedRound(t *testing.T) {
	// Round 1 of the two-player game: unique name answers, duplicated
	// place, and one empty answer on each side.
	answers := map[string]models.AnswerSet{
		"Alice": {Name: "Bob", Place: "Berlin", Animal: "", Thing: "Box"},
		"Bob":   {Name: "Ben", Place: "berlin", Animal: "Bear", Thing: ""},
	}

	roundScores, duplicates := Score(answers, []string{"Alice", "Bob"})

	assert.Equal(t, 25, roundScores["Alice"])
	assert.Equal(t, 25, roundScores["Bob"])
	require.Contains(t, duplicates, "place")
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, duplicates["place"]["berlin"])
	assert.NotContains(t, duplicates, "name")
	assert.NotContains(t, duplicates, "animal")
	assert.NotContains(t, duplicates, "thing")
}

func TestScoreNoFloorOnNegativeTotals(t *testing.T) {
	answers := map[string]models.AnswerSet{
		"Alice": {Name: "Sam", Place: "Sydney", Animal: "Seal", Thing: "Sock"},
		"Bob":   {Name: "sam", Place: "sydney", Animal: "seal", Thing: "sock"},
	}

	roundScores, _ := Score(answers, []string{"Alice", "Bob"})

	assert.Equal(t, -100, roundScores["Alice"])
	assert.Equal(t, -100, roundScores["Bob"])
}

func TestScoreThreeWayDuplicateGroup(t *testing.T) {
	answers := map[string]models.AnswerSet{
		"Alice": {Animal: "Cat"},
		"Bob":   {Animal: "cat"},
		"Carol": {Animal: " CAT "},
	}

	roundScores, duplicates := Score(answers, []string{"Alice", "Bob", "Carol"})

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		assert.Equal(t, -25, roundScores[name])
	}
	assert.ElementsMatch(t, []string{"Alice", "Bob", "Carol"}, duplicates["animal"]["cat"])
}

func TestNewRoomCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewRoomCode()
		require.Len(t, code, RoomCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(roomCodeAlphabet, r), "unexpected rune %q in %q", r, code)
		}
	}
}

func TestRandomLetter(t *testing.T) {
	for i := 0; i < 50; i++ {
		letter := RandomLetter()
		require.Len(t, letter, 1)
		assert.True(t, letter[0] >= 'A' && letter[0] <= 'Z')
	}
}

func TestSettingsOptions(t *testing.T) {
	assert.True(t, ValidTimerDuration(45))
	assert.False(t, ValidTimerDuration(90))
	assert.True(t, ValidTotalRounds(10))
	assert.False(t, ValidTotalRounds(3))
}
