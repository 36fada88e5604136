package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestFindWinner(t *testing.T) {
	players := roster("Alice", "Bob", "Carol")
	players[0].Score = 80
	players[1].Score = 120
	players[2].Score = -120

	cases := []struct {
		name     string
		settings Settings
		wantID   int64
		wantOK   bool
	}{
		{"no target means no winner", Settings{ScoreDirection: DirectionHighest}, 0, false},
		{"zero target means no winner", Settings{TargetScore: intp(0)}, 0, false},
		{"highest reaches target", Settings{TargetScore: intp(100), ScoreDirection: DirectionHighest}, 2, true},
		{"nobody reached target", Settings{TargetScore: intp(500), ScoreDirection: DirectionHighest}, 0, false},
		{"lowest reaches target downward", Settings{TargetScore: intp(100), ScoreDirection: DirectionLowest}, 3, true},
		{"lowest target stored as negative", Settings{TargetScore: intp(-100), ScoreDirection: DirectionLowest}, 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			winner, ok := FindWinner(players, tc.settings)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantID, winner.ID)
			}
		})
	}

	t.Run("first match in roster order wins ties", func(t *testing.T) {
		tied := roster("Alice", "Bob")
		tied[0].Score = 100
		tied[1].Score = 100
		winner, ok := FindWinner(tied, Settings{TargetScore: intp(100), ScoreDirection: DirectionHighest})
		require.True(t, ok)
		assert.Equal(t, int64(1), winner.ID)
	})
}

func TestPlayerStats(t *testing.T) {
	alice := Player{ID: 1, Name: "Alice"}

	t.Run("empty history", func(t *testing.T) {
		assert.Equal(t, Stats{}, PlayerStats(alice, nil))
	})

	t.Run("aggregates across rounds", func(t *testing.T) {
		rounds := []Round{
			{ID: 1, Changes: []Change{{PlayerID: 1, Points: 30}, {PlayerID: 2, Points: -30}}},
			{ID: 2, Changes: []Change{{PlayerID: 1, Points: -10}, {PlayerID: 2, Points: 10}}},
			{ID: 3, Changes: []Change{{PlayerID: 1, Points: 40}, {PlayerID: 2, Points: -40}}},
		}
		stats := PlayerStats(alice, rounds)
		assert.Equal(t, 2, stats.RoundsWon)
		assert.Equal(t, 20, stats.AvgPerRound)
		assert.Equal(t, 40, stats.BestRound)
	})

	t.Run("a round nobody gains credits no winner", func(t *testing.T) {
		rounds := []Round{
			{ID: 1, Changes: []Change{{PlayerID: 1, Points: 0}, {PlayerID: 2, Points: -10}}},
		}
		stats := PlayerStats(alice, rounds)
		assert.Equal(t, 0, stats.RoundsWon)
		assert.Equal(t, 0, stats.BestRound)
	})

	t.Run("best round can be negative", func(t *testing.T) {
		rounds := []Round{
			{ID: 1, Changes: []Change{{PlayerID: 1, Points: -20}, {PlayerID: 2, Points: 20}}},
			{ID: 2, Changes: []Change{{PlayerID: 1, Points: -5}, {PlayerID: 2, Points: 5}}},
		}
		stats := PlayerStats(alice, rounds)
		assert.Equal(t, -5, stats.BestRound)
		assert.Equal(t, -12, stats.AvgPerRound) // -12.5, halves round toward +inf
	})

	t.Run("skips rounds the player is absent from", func(t *testing.T) {
		rounds := []Round{
			{ID: 1, Changes: []Change{{PlayerID: 2, Points: 15}}},
			{ID: 2, Changes: []Change{{PlayerID: 1, Points: 10}, {PlayerID: 2, Points: -10}}},
		}
		stats := PlayerStats(alice, rounds)
		assert.Equal(t, 10, stats.AvgPerRound)
		assert.Equal(t, 1, stats.RoundsWon)
	})
}

func TestAvgPerRoundRounding(t *testing.T) {
	alice := Player{ID: 1}

	cases := []struct {
		name   string
		points []int
		want   int
	}{
		{"exact mean", []int{10, 20}, 15},
		{"positive half rounds up", []int{1, 2}, 2},    // 1.5 -> 2
		{"negative half rounds up", []int{-1, -2}, -1}, // -1.5 -> -1
		{"single round", []int{7}, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rounds := make([]Round, len(tc.points))
			for i, p := range tc.points {
				rounds[i] = Round{ID: int64(i + 1), Changes: []Change{{PlayerID: 1, Points: p}}}
			}
			assert.Equal(t, tc.want, PlayerStats(alice, rounds).AvgPerRound)
		})
	}
}

func TestSortedPlayers(t *testing.T) {
	players := roster("Alice", "Bob", "Carol")
	players[0].Score = 10
	players[1].Score = 30
	players[2].Score = 20
	rounds := []Round{{ID: 1, Changes: []Change{{PlayerID: 1, Points: 10}}}}

	t.Run("roster order when sorting is off", func(t *testing.T) {
		out := SortedPlayers(players, rounds, false, DirectionHighest)
		assert.Equal(t, players, out)
	})

	t.Run("roster order before any round", func(t *testing.T) {
		out := SortedPlayers(players, nil, true, DirectionHighest)
		assert.Equal(t, players, out)
	})

	t.Run("descending for highest wins", func(t *testing.T) {
		out := SortedPlayers(players, rounds, true, DirectionHighest)
		assert.Equal(t, []int64{2, 3, 1}, ids(out))
	})

	t.Run("ascending for lowest wins", func(t *testing.T) {
		out := SortedPlayers(players, rounds, true, DirectionLowest)
		assert.Equal(t, []int64{1, 3, 2}, ids(out))
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		before := clonePlayers(players)
		SortedPlayers(players, rounds, true, DirectionHighest)
		assert.Equal(t, before, players)
	})
}

func ids(players []Player) []int64 {
	out := make([]int64, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}
