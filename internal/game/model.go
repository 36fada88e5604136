package game

import (
	"sync/atomic"
	"time"
)

const (
	// StateVersion is stamped into every persisted snapshot and drives
	// forward migration on load.
	StateVersion = 2

	MinPlayers = 2
	MaxPlayers = 6

	// JokerValue is the point value of a joker tile; numbered tiles run 1-13.
	JokerValue = 30

	maxArchiveEntries = 20
)

// PlayerColors is the display palette cycled through when assigning a
// color to a new or migrated player.
var PlayerColors = []string{"#4A90E2", "#E25C5C", "#4AE28A", "#E2C84A", "#A64AE2", "#E28A4A"}

type Player struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

// Change is one player's point delta within a round. PlayerID is a weak
// reference: score folding resolves it by lookup and skips ids that no
// longer match a roster entry.
type Change struct {
	PlayerID int64 `json:"playerId"`
	Points   int   `json:"points"`
}

// Round is one scoring event. Rounds are immutable once recorded; the
// only history edits are whole-round deletion and undo, both followed by
// a full score recalculation.
type Round struct {
	ID      int64    `json:"id"`
	Changes []Change `json:"changes"`
}

type Rule string

const (
	RuleStandard Rule = "standard"
	RuleSimple   Rule = "simple"
)

type ScoreDirection string

const (
	DirectionHighest ScoreDirection = "highest"
	DirectionLowest  ScoreDirection = "lowest"
)

type Settings struct {
	TargetScore    *int           `json:"targetScore"`
	Rule           Rule           `json:"rule"`
	ScoreDirection ScoreDirection `json:"scoreDirection"`
	Language       string         `json:"language"`
	Theme          string         `json:"theme"`
	SortByScore    bool           `json:"sortByScore"`
}

// GameState is the root aggregate: the live roster, the chronological
// round history the scores are derived from, and the table settings.
type GameState struct {
	Version    int      `json:"version"`
	Players    []Player `json:"players"`
	Rounds     []Round  `json:"rounds"`
	Settings   Settings `json:"settings"`
	GameActive bool     `json:"gameActive"`
}

// ArchiveEntry is a detached snapshot of a finished game.
type ArchiveEntry struct {
	ID       int64     `json:"id"`
	Date     time.Time `json:"date"`
	Players  []Player  `json:"players"`
	Rounds   []Round   `json:"rounds"`
	Settings Settings  `json:"settings"`
}

// GameConfig is a roster/settings template derived from an archived game,
// used to start a new game with the previous table configuration.
type GameConfig struct {
	Players  []Player `json:"players"`
	Settings Settings `json:"settings"`
}

func DefaultSettings() Settings {
	return Settings{
		TargetScore:    nil,
		Rule:           RuleStandard,
		ScoreDirection: DirectionHighest,
		Language:       "en",
		Theme:          "auto",
		SortByScore:    false,
	}
}

func DefaultState() GameState {
	return GameState{
		Version: StateVersion,
		Players: []Player{
			{ID: 1, Name: "Player 1", Color: PlayerColors[0]},
			{ID: 2, Name: "Player 2", Color: PlayerColors[1]},
		},
		Rounds:     []Round{},
		Settings:   DefaultSettings(),
		GameActive: false,
	}
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (s GameState) Clone() GameState {
	out := s
	out.Players = clonePlayers(s.Players)
	out.Rounds = cloneRounds(s.Rounds)
	out.Settings = cloneSettings(s.Settings)
	return out
}

func clonePlayers(players []Player) []Player {
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

func cloneRounds(rounds []Round) []Round {
	out := make([]Round, len(rounds))
	for i, r := range rounds {
		changes := make([]Change, len(r.Changes))
		copy(changes, r.Changes)
		out[i] = Round{ID: r.ID, Changes: changes}
	}
	return out
}

func cloneSettings(s Settings) Settings {
	out := s
	if s.TargetScore != nil {
		target := *s.TargetScore
		out.TargetScore = &target
	}
	return out
}

var lastID atomic.Int64

// newID returns a unique millisecond timestamp. Ids double as creation
// times, so when two events land in the same millisecond the second one
// is nudged past the first instead of colliding.
func newID() int64 {
	for {
		now := time.Now().UnixMilli()
		last := lastID.Load()
		if now <= last {
			now = last + 1
		}
		if lastID.CompareAndSwap(last, now) {
			return now
		}
	}
}
