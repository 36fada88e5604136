package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"rummitally/internal/storage"
)

// ArchiveStore keeps finished games under their own storage key,
// independent of the live state. Newest first, capped at 20 entries.
type ArchiveStore struct {
	kv  storage.KV
	log *zap.Logger
}

func NewArchiveStore(kv storage.KV, log *zap.Logger) *ArchiveStore {
	return &ArchiveStore{kv: kv, log: log}
}

// Entries returns the archived games, newest first. Any read or decode
// failure yields an empty list, never an error.
func (a *ArchiveStore) Entries(ctx context.Context) []ArchiveEntry {
	data, err := a.kv.Get(ctx, archiveKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.log.Warn("failed to load archive", zap.Error(err))
		}
		return []ArchiveEntry{}
	}
	var entries []ArchiveEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		a.log.Warn("discarding invalid archive", zap.Error(err))
		return []ArchiveEntry{}
	}
	return entries
}

// Archive snapshots a finished game at the head of the list and evicts
// the oldest entries beyond the cap. Callers only archive games with at
// least one recorded round.
func (a *ArchiveStore) Archive(ctx context.Context, state GameState) ArchiveEntry {
	entry := ArchiveEntry{
		ID:       newID(),
		Date:     time.Now().UTC(),
		Players:  clonePlayers(state.Players),
		Rounds:   cloneRounds(state.Rounds),
		Settings: cloneSettings(state.Settings),
	}
	entries := append([]ArchiveEntry{entry}, a.Entries(ctx)...)
	if len(entries) > maxArchiveEntries {
		entries = entries[:maxArchiveEntries]
	}
	a.persist(ctx, entries)
	return entry
}

// Delete removes one entry by id; unknown ids are a no-op.
func (a *ArchiveStore) Delete(ctx context.Context, id int64) {
	entries := a.Entries(ctx)
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	a.persist(ctx, kept)
}

// LastGameConfig derives a fresh-game template from the newest entry: the
// same roster with scores reset and the same settings.
func (a *ArchiveStore) LastGameConfig(ctx context.Context) (GameConfig, bool) {
	entries := a.Entries(ctx)
	if len(entries) == 0 {
		return GameConfig{}, false
	}
	players := clonePlayers(entries[0].Players)
	for i := range players {
		players[i].Score = 0
	}
	return GameConfig{Players: players, Settings: cloneSettings(entries[0].Settings)}, true
}

func (a *ArchiveStore) persist(ctx context.Context, entries []ArchiveEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		a.log.Error("failed to encode archive", zap.Error(err))
		return
	}
	if err := a.kv.Put(ctx, archiveKey, data); err != nil {
		a.log.Warn("failed to save archive", zap.Error(err))
	}
}
