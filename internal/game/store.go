package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"rummitally/internal/storage"
)

// Storage keys; kept from the original schema so existing snapshots load.
const (
	stateKey   = "rummikub_data"
	archiveKey = "rummikub_archive"
)

var (
	ErrGameActive     = errors.New("roster is locked while a game is active")
	ErrNoActiveGame   = errors.New("no active game")
	ErrPlayerLimit    = errors.New("player limit reached")
	ErrMinPlayers     = errors.New("at least two players are required")
	ErrPlayerNotFound = errors.New("player not found")
)

// Store owns the live GameState. Every mutation runs as a single
// read-modify-write under the lock, persists the new snapshot and fans it
// out to subscribers. The in-memory state stays authoritative when a
// persistence write fails.
type Store struct {
	mu    sync.Mutex
	state GameState
	kv    storage.KV
	log   *zap.Logger
	subs  map[chan<- GameState]struct{}
}

func NewStore(kv storage.KV, log *zap.Logger) *Store {
	return &Store{
		state: DefaultState(),
		kv:    kv,
		log:   log,
		subs:  make(map[chan<- GameState]struct{}),
	}
}

// Load hydrates the store from persisted state. Missing, corrupt or
// invalid data falls back to defaults; Load never fails.
func (s *Store) Load(ctx context.Context) GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, stateKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("failed to load game state", zap.Error(err))
		}
		s.state = DefaultState()
		return s.state.Clone()
	}

	state, err := parseState(data)
	if err != nil {
		s.log.Warn("discarding invalid game state", zap.Error(err))
		s.state = DefaultState()
		return s.state.Clone()
	}
	s.state = state
	return s.state.Clone()
}

// State returns a deep copy of the current state.
func (s *Store) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to the state, persists the result and notifies
// subscribers. When fn returns an error nothing is persisted or
// announced; fn must not mutate before its precondition checks.
func (s *Store) Update(ctx context.Context, fn func(*GameState) error) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.state); err != nil {
		return s.state.Clone(), err
	}
	return s.commit(ctx), nil
}

// Save persists the current state without mutating it.
func (s *Store) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(ctx)
}

// Subscribe registers a channel that receives a snapshot after every
// committed update. Sends never block; a slow subscriber misses
// intermediate snapshots rather than stalling mutations.
func (s *Store) Subscribe(ch chan<- GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[ch] = struct{}{}
}

func (s *Store) Unsubscribe(ch chan<- GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, ch)
}

// commit stamps, persists and broadcasts the state. Callers hold the lock.
func (s *Store) commit(ctx context.Context) GameState {
	s.state.Version = StateVersion
	s.persist(ctx)
	snap := s.state.Clone()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.log.Error("failed to encode game state", zap.Error(err))
		return
	}
	if err := s.kv.Put(ctx, stateKey, data); err != nil {
		s.log.Warn("failed to save game state", zap.Error(err))
	}
}

// -----------------------------------------------------------------------------
// Roster
// -----------------------------------------------------------------------------

// AddPlayer appends a roster entry with the next palette color. The
// roster can only grow between games.
func (s *Store) AddPlayer(ctx context.Context, name string) (GameState, error) {
	return s.Update(ctx, func(st *GameState) error {
		if st.GameActive {
			return ErrGameActive
		}
		if len(st.Players) >= MaxPlayers {
			return ErrPlayerLimit
		}
		if name == "" {
			name = fmt.Sprintf("Player %d", len(st.Players)+1)
		}
		st.Players = append(st.Players, Player{
			ID:    newID(),
			Name:  name,
			Color: PlayerColors[len(st.Players)%len(PlayerColors)],
		})
		return nil
	})
}

// UpdatePlayer renames or recolors a roster entry.
func (s *Store) UpdatePlayer(ctx context.Context, id int64, name, color *string) (GameState, error) {
	return s.Update(ctx, func(st *GameState) error {
		for i := range st.Players {
			if st.Players[i].ID != id {
				continue
			}
			if name != nil {
				st.Players[i].Name = *name
			}
			if color != nil {
				st.Players[i].Color = *color
			}
			return nil
		}
		return ErrPlayerNotFound
	})
}

// RemovePlayer drops a roster entry between games. The roster never
// shrinks below two players.
func (s *Store) RemovePlayer(ctx context.Context, id int64) (GameState, error) {
	return s.Update(ctx, func(st *GameState) error {
		if st.GameActive {
			return ErrGameActive
		}
		if len(st.Players) <= MinPlayers {
			return ErrMinPlayers
		}
		for i := range st.Players {
			if st.Players[i].ID == id {
				st.Players = append(st.Players[:i], st.Players[i+1:]...)
				return nil
			}
		}
		return ErrPlayerNotFound
	})
}

// ReplaceRoster swaps in a whole roster, used for quick-starting from an
// archived game's configuration.
func (s *Store) ReplaceRoster(ctx context.Context, players []Player, settings Settings) (GameState, error) {
	return s.Update(ctx, func(st *GameState) error {
		if st.GameActive {
			return ErrGameActive
		}
		if len(players) < MinPlayers || len(players) > MaxPlayers {
			return ErrMinPlayers
		}
		st.Players = clonePlayers(players)
		st.Settings = cloneSettings(settings)
		st.Rounds = []Round{}
		return nil
	})
}

// -----------------------------------------------------------------------------
// Settings
// -----------------------------------------------------------------------------

// SettingsPatch updates only the fields that are set.
type SettingsPatch struct {
	TargetScore    *int            `json:"targetScore"`
	Rule           *Rule           `json:"rule"`
	ScoreDirection *ScoreDirection `json:"scoreDirection"`
	Language       *string         `json:"language"`
	Theme          *string         `json:"theme"`
	SortByScore    *bool           `json:"sortByScore"`
}

func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (GameState, error) {
	return s.Update(ctx, func(st *GameState) error {
		if patch.TargetScore != nil {
			target := *patch.TargetScore
			st.Settings.TargetScore = &target
		}
		if patch.Rule != nil {
			st.Settings.Rule = *patch.Rule
		}
		if patch.ScoreDirection != nil {
			st.Settings.ScoreDirection = *patch.ScoreDirection
		}
		if patch.Language != nil {
			st.Settings.Language = *patch.Language
		}
		if patch.Theme != nil {
			st.Settings.Theme = *patch.Theme
		}
		if patch.SortByScore != nil {
			st.Settings.SortByScore = *patch.SortByScore
		}
		return nil
	})
}

// -----------------------------------------------------------------------------
// Game lifecycle
// -----------------------------------------------------------------------------

// StartOptions carries the table setup chosen when a game begins.
// A nil TargetScore clears any previous target (open-ended game).
type StartOptions struct {
	TargetScore    *int
	Rule           Rule
	ScoreDirection ScoreDirection
}

// StartGame activates a fresh game: scores zeroed, history cleared.
func (s *Store) StartGame(ctx context.Context, opts StartOptions) (GameState, error) {
	return s.Update(ctx, func(st *GameState) error {
		st.Settings.TargetScore = opts.TargetScore
		if opts.Rule != "" {
			st.Settings.Rule = opts.Rule
		}
		if opts.ScoreDirection != "" {
			st.Settings.ScoreDirection = opts.ScoreDirection
		}
		for i := range st.Players {
			st.Players[i].Score = 0
		}
		st.Rounds = []Round{}
		st.GameActive = true
		return nil
	})
}

// Reset deactivates the game and clears scores and history. Archiving,
// when wanted, happens before this.
func (s *Store) Reset(ctx context.Context) GameState {
	snap, _ := s.Update(ctx, func(st *GameState) error {
		st.GameActive = false
		for i := range st.Players {
			st.Players[i].Score = 0
		}
		st.Rounds = []Round{}
		return nil
	})
	return snap
}

// -----------------------------------------------------------------------------
// Rounds
// -----------------------------------------------------------------------------

// RoundInput is the raw submission for one round. Which fields matter
// depends on the active rule: standard reads WinnerID, Tiles and Manual;
// simple reads Inputs.
type RoundInput struct {
	WinnerID int64
	Tiles    map[int64]TileSelection
	Manual   map[int64]string
	Inputs   map[int64]string
}

// SubmitRound computes the round's changes under the active rule, applies
// them and appends the round to the history. A failed validation (no
// winner under the standard rule) leaves the state untouched.
func (s *Store) SubmitRound(ctx context.Context, in RoundInput) (GameState, error) {
	return s.Update(ctx, func(st *GameState) error {
		if !st.GameActive {
			return ErrNoActiveGame
		}
		var changes []Change
		if st.Settings.Rule == RuleSimple {
			changes = SimpleRound(st.Players, in.Inputs)
		} else {
			var err error
			changes, err = StandardRound(st.Players, in.WinnerID, in.Tiles, in.Manual)
			if err != nil {
				return err
			}
		}
		round, err := NewRound(changes)
		if err != nil {
			return err
		}
		st.Players = ApplyChanges(st.Players, round.Changes)
		st.Rounds = append(st.Rounds, round)
		return nil
	})
}

// DeleteRound removes one round from the history and rebuilds every score
// from the remaining rounds.
func (s *Store) DeleteRound(ctx context.Context, id int64) (GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, r := range s.state.Rounds {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s.state.Clone(), false
	}
	s.state.Rounds = append(s.state.Rounds[:idx], s.state.Rounds[idx+1:]...)
	s.state.Players = RecalculateScores(s.state.Players, s.state.Rounds)
	return s.commit(ctx), true
}

// UndoLastRound drops the newest round and rebuilds every score.
func (s *Store) UndoLastRound(ctx context.Context) (GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Rounds) == 0 {
		return s.state.Clone(), false
	}
	s.state.Rounds = s.state.Rounds[:len(s.state.Rounds)-1]
	s.state.Players = RecalculateScores(s.state.Players, s.state.Rounds)
	return s.commit(ctx), true
}
