package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// rawState mirrors the persisted snapshot with optional fields, so that a
// partially-written or older snapshot can be migrated and validated
// before it becomes a typed GameState.
type rawState struct {
	Version    int          `json:"version"`
	Players    *[]rawPlayer `json:"players"`
	Rounds     *[]rawRound  `json:"rounds"`
	Settings   *rawSettings `json:"settings"`
	GameActive bool         `json:"gameActive"`
}

type rawPlayer struct {
	ID    *int64   `json:"id"`
	Name  *string  `json:"name"`
	Color string   `json:"color"`
	Score *float64 `json:"score"`
}

type rawRound struct {
	ID      int64     `json:"id"`
	Changes *[]Change `json:"changes"`
}

type rawSettings struct {
	TargetScore    *int    `json:"targetScore"`
	Rule           *string `json:"rule"`
	ScoreDirection *string `json:"scoreDirection"`
	Language       *string `json:"language"`
	Theme          *string `json:"theme"`
	SortByScore    *bool   `json:"sortByScore"`
}

// parseState decodes a persisted snapshot, migrates it forward and
// validates it into a GameState. An unusable shape is an error and the
// caller falls back to defaults; recoverable gaps (missing score,
// missing optional settings) are coerced instead of rejected.
func parseState(data []byte) (GameState, error) {
	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return GameState{}, fmt.Errorf("decode snapshot: %w", err)
	}
	migrate(&raw)
	return validate(raw)
}

func validate(raw rawState) (GameState, error) {
	if raw.Players == nil || len(*raw.Players) < MinPlayers {
		return GameState{}, errors.New("players missing or fewer than two")
	}
	if raw.Rounds == nil {
		return GameState{}, errors.New("rounds is not a list")
	}
	if raw.Settings == nil {
		return GameState{}, errors.New("settings is not an object")
	}

	// Validated fields land on top of defaults, so anything still
	// missing keeps its default value.
	state := DefaultState()
	state.Version = raw.Version
	state.GameActive = raw.GameActive

	players := make([]Player, 0, len(*raw.Players))
	for _, p := range *raw.Players {
		if p.ID == nil {
			return GameState{}, errors.New("player without id")
		}
		if p.Name == nil {
			return GameState{}, errors.New("player without name")
		}
		score := 0
		if p.Score != nil && !math.IsNaN(*p.Score) && !math.IsInf(*p.Score, 0) {
			score = int(*p.Score)
		}
		players = append(players, Player{ID: *p.ID, Name: *p.Name, Color: p.Color, Score: score})
	}
	state.Players = players

	rounds := make([]Round, 0, len(*raw.Rounds))
	for _, r := range *raw.Rounds {
		if r.Changes == nil {
			return GameState{}, errors.New("round without changes list")
		}
		rounds = append(rounds, Round{ID: r.ID, Changes: *r.Changes})
	}
	state.Rounds = rounds

	s := &state.Settings
	if raw.Settings.TargetScore != nil {
		s.TargetScore = raw.Settings.TargetScore
	}
	if raw.Settings.Rule != nil {
		s.Rule = Rule(*raw.Settings.Rule)
	}
	if raw.Settings.ScoreDirection != nil {
		s.ScoreDirection = ScoreDirection(*raw.Settings.ScoreDirection)
	}
	if raw.Settings.Language != nil {
		s.Language = *raw.Settings.Language
	}
	if raw.Settings.Theme != nil {
		s.Theme = *raw.Settings.Theme
	}
	if raw.Settings.SortByScore != nil {
		s.SortByScore = *raw.Settings.SortByScore
	}

	return state, nil
}
