package game

import (
	"strings"

	"github.com/lobbygames/napat/internal/models"
)

// Score computes one round's deltas from the submitted answers. For each
// category, players with a unique non-empty answer gain PointsPerCategory
// and every member of a group sharing the same normalized answer takes
// DuplicatePenalty. Empty answers score zero and never appear in the
// duplicate map. Totals are not capped or floored.
func Score(answers map[string]models.AnswerSet, playerNames []string) (map[string]int, models.DuplicateMap) {
	roundScores := make(map[string]int, len(playerNames))
	duplicates := make(models.DuplicateMap)

	for _, name := range playerNames {
		roundScores[name] = 0
	}

	for _, category := range Categories {
		grouped := make(map[string][]string)
		for _, player := range playerNames {
			set, ok := answers[player]
			if !ok {
				continue
			}
			answer := normalize(categoryAnswer(set, category))
			if answer == "" {
				continue
			}
			grouped[answer] = append(grouped[answer], player)
		}

		for answer, players := range grouped {
			if len(players) > 1 {
				if duplicates[category] == nil {
					duplicates[category] = make(map[string][]string)
				}
				duplicates[category][answer] = players
				for _, player := range players {
					roundScores[player] += DuplicatePenalty
				}
			} else {
				roundScores[players[0]] += PointsPerCategory
			}
		}
	}

	return roundScores, duplicates
}

func normalize(answer string) string {
	return strings.TrimSpace(strings.ToLower(answer))
}

func categoryAnswer(set models.AnswerSet, category string) string {
	switch category {
	case "name":
		return set.Name
	case "place":
		return set.Place
	case "animal":
		return set.Animal
	case "thing":
		return set.Thing
	}
	return ""
}
