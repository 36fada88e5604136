package game

import (
	"math"
	"sort"
)

// Stats summarizes one player's round history.
type Stats struct {
	RoundsWon   int `json:"roundsWon"`
	AvgPerRound int `json:"avgPerRound"`
	BestRound   int `json:"bestRound"`
}

// FindWinner reports the first player in roster order who has reached the
// target score. No target means no winner, ever. With the lowest-wins
// direction the target is reached downward: score <= -abs(target).
// First match is deliberate; simultaneous qualifiers are not surfaced.
func FindWinner(players []Player, settings Settings) (Player, bool) {
	if settings.TargetScore == nil || *settings.TargetScore == 0 {
		return Player{}, false
	}
	target := *settings.TargetScore
	for _, p := range players {
		if settings.ScoreDirection == DirectionLowest {
			if p.Score <= -abs(target) {
				return p, true
			}
		} else if p.Score >= target {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerStats aggregates a player's history. A round is won when the
// player's change equals the round's maximum change and that maximum is
// strictly positive; a round where nobody gains credits no winner.
func PlayerStats(player Player, rounds []Round) Stats {
	var stats Stats
	sum, appeared := 0, 0
	for _, r := range rounds {
		if len(r.Changes) == 0 {
			continue
		}
		maxPts := r.Changes[0].Points
		for _, c := range r.Changes[1:] {
			if c.Points > maxPts {
				maxPts = c.Points
			}
		}
		won := false
		counted := false
		for _, c := range r.Changes {
			if c.PlayerID != player.ID {
				continue
			}
			if !counted {
				counted = true
				sum += c.Points
				if appeared == 0 || c.Points > stats.BestRound {
					stats.BestRound = c.Points
				}
				appeared++
			}
			if c.Points == maxPts && c.Points > 0 {
				won = true
			}
		}
		if won {
			stats.RoundsWon++
		}
	}
	if appeared > 0 {
		stats.AvgPerRound = roundHalfUp(float64(sum) / float64(appeared))
	}
	return stats
}

// SortedPlayers returns the roster view: original order until the first
// round is recorded or when score sorting is off (card positions stay
// stable), otherwise sorted by score in the winning direction.
func SortedPlayers(players []Player, rounds []Round, sortByScore bool, direction ScoreDirection) []Player {
	sorted := clonePlayers(players)
	if !sortByScore || len(rounds) == 0 {
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if direction == DirectionLowest {
			return sorted[i].Score < sorted[j].Score
		}
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// roundHalfUp rounds with halves toward positive infinity, matching how
// the persisted averages have always been computed.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
