package game

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNoWinner is returned when a standard-rule round is submitted
	// without a winner that matches the roster.
	ErrNoWinner = errors.New("no winner selected")

	// ErrDuplicateChange is returned when a round carries more than one
	// change for the same player.
	ErrDuplicateChange = errors.New("duplicate player change in round")
)

// TileSelection is a per-player multiset of tile face values: value -> count.
type TileSelection map[int]int

// ParseScore parses a user-entered integer. Unparseable, empty or absent
// input counts as zero; raw score entry is never an error condition.
func ParseScore(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// TileTotal sums a tile selection: each tile contributes value * count.
func TileTotal(tiles TileSelection) int {
	total := 0
	for value, count := range tiles {
		total += value * count
	}
	return total
}

// TileCount counts the tiles in a selection.
func TileCount(tiles TileSelection) int {
	count := 0
	for _, n := range tiles {
		count += n
	}
	return count
}

// StandardRound computes the changes for a standard-rule round: every
// loser is debited the absolute value of their leftover tiles (or their
// manual entry, which takes precedence), and the winner collects the sum
// of those debits. The round therefore always nets to zero.
func StandardRound(players []Player, winnerID int64, tiles map[int64]TileSelection, manual map[int64]string) ([]Change, error) {
	winnerFound := false
	for _, p := range players {
		if p.ID == winnerID {
			winnerFound = true
			break
		}
	}
	if !winnerFound {
		return nil, ErrNoWinner
	}

	changes := make([]Change, 0, len(players))
	winnerSum := 0
	for _, p := range players {
		if p.ID == winnerID {
			continue
		}
		var val int
		if raw, ok := manual[p.ID]; ok {
			val = ParseScore(raw)
		} else {
			val = TileTotal(tiles[p.ID])
		}
		val = abs(val)
		changes = append(changes, Change{PlayerID: p.ID, Points: -val})
		winnerSum += val
	}
	changes = append(changes, Change{PlayerID: winnerID, Points: winnerSum})
	return changes, nil
}

// SimpleRound computes the changes for a simple-rule round: each player's
// delta is entered independently as a signed integer, no winner concept.
func SimpleRound(players []Player, inputs map[int64]string) []Change {
	changes := make([]Change, 0, len(players))
	for _, p := range players {
		changes = append(changes, Change{PlayerID: p.ID, Points: ParseScore(inputs[p.ID])})
	}
	return changes
}

// NewRound stamps a fresh id onto a set of changes. A round carries at
// most one change per player; duplicates are rejected here so the
// invariant holds for every round that enters the history.
func NewRound(changes []Change) (Round, error) {
	seen := make(map[int64]bool, len(changes))
	for _, c := range changes {
		if seen[c.PlayerID] {
			return Round{}, ErrDuplicateChange
		}
		seen[c.PlayerID] = true
	}
	return Round{ID: newID(), Changes: changes}, nil
}

// ApplyChanges returns a new player list with each matching change's
// points added to that player's score. The input is left untouched.
func ApplyChanges(players []Player, changes []Change) []Player {
	out := clonePlayers(players)
	for _, c := range changes {
		for i := range out {
			if out[i].ID == c.PlayerID {
				out[i].Score += c.Points
				break
			}
		}
	}
	return out
}

// RecalculateScores derives every score from scratch by replaying the
// full round history in order. This is the only trusted path after any
// history edit; scores are never adjusted incrementally on delete or
// undo. Changes referencing unknown player ids are skipped.
func RecalculateScores(players []Player, rounds []Round) []Player {
	out := clonePlayers(players)
	index := make(map[int64]int, len(out))
	for i := range out {
		out[i].Score = 0
		index[out[i].ID] = i
	}
	for _, r := range rounds {
		for _, c := range r.Changes {
			if i, ok := index[c.PlayerID]; ok {
				out[i].Score += c.Points
			}
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
