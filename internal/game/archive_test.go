package game

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rummitally/internal/storage"
)

func newTestArchive(t *testing.T) (*ArchiveStore, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	return NewArchiveStore(kv, zap.NewNop()), kv
}

func finishedGame(name string) GameState {
	state := DefaultState()
	state.Players[0].Name = name
	state.Players[0].Score = 42
	state.Players[1].Score = -42
	state.Rounds = []Round{
		{ID: 1, Changes: []Change{{PlayerID: 1, Points: 42}, {PlayerID: 2, Points: -42}}},
	}
	return state
}

func TestArchiveEmpty(t *testing.T) {
	archive, _ := newTestArchive(t)
	assert.Empty(t, archive.Entries(context.Background()))
}

func TestArchiveNewestFirst(t *testing.T) {
	ctx := context.Background()
	archive, _ := newTestArchive(t)

	archive.Archive(ctx, finishedGame("first"))
	archive.Archive(ctx, finishedGame("second"))

	entries := archive.Entries(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Players[0].Name)
	assert.Equal(t, "first", entries[1].Players[0].Name)
	assert.Greater(t, entries[0].ID, entries[1].ID)
}

func TestArchiveRetention(t *testing.T) {
	ctx := context.Background()
	archive, _ := newTestArchive(t)

	for i := 1; i <= 25; i++ {
		archive.Archive(ctx, finishedGame(fmt.Sprintf("game %d", i)))
	}

	entries := archive.Entries(ctx)
	require.Len(t, entries, maxArchiveEntries)
	assert.Equal(t, "game 25", entries[0].Players[0].Name)
	assert.Equal(t, "game 6", entries[len(entries)-1].Players[0].Name)
}

func TestArchiveEntriesAreDetached(t *testing.T) {
	ctx := context.Background()
	archive, _ := newTestArchive(t)

	state := finishedGame("live")
	archive.Archive(ctx, state)

	// Mutating the live state afterwards must not touch the snapshot.
	state.Players[0].Name = "mutated"
	state.Rounds[0].Changes[0].Points = 0

	entries := archive.Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "live", entries[0].Players[0].Name)
	assert.Equal(t, 42, entries[0].Rounds[0].Changes[0].Points)
}

func TestArchiveDelete(t *testing.T) {
	ctx := context.Background()
	archive, _ := newTestArchive(t)

	kept := archive.Archive(ctx, finishedGame("keep"))
	dropped := archive.Archive(ctx, finishedGame("drop"))

	archive.Delete(ctx, dropped.ID)
	entries := archive.Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, kept.ID, entries[0].ID)

	// Unknown id is a no-op.
	archive.Delete(ctx, 987654)
	assert.Len(t, archive.Entries(ctx), 1)
}

func TestLastGameConfig(t *testing.T) {
	ctx := context.Background()
	archive, _ := newTestArchive(t)

	t.Run("empty archive", func(t *testing.T) {
		_, ok := archive.LastGameConfig(ctx)
		assert.False(t, ok)
	})

	t.Run("scores reset, settings kept", func(t *testing.T) {
		state := finishedGame("quick start")
		state.Settings.TargetScore = intp(300)
		archive.Archive(ctx, state)

		cfg, ok := archive.LastGameConfig(ctx)
		require.True(t, ok)
		require.Len(t, cfg.Players, 2)
		assert.Equal(t, "quick start", cfg.Players[0].Name)
		for _, p := range cfg.Players {
			assert.Zero(t, p.Score)
		}
		require.NotNil(t, cfg.Settings.TargetScore)
		assert.Equal(t, 300, *cfg.Settings.TargetScore)
	})
}

func TestArchiveToleratesCorruptData(t *testing.T) {
	ctx := context.Background()
	archive, kv := newTestArchive(t)
	require.NoError(t, kv.Put(ctx, archiveKey, []byte("not json")))

	assert.Empty(t, archive.Entries(ctx))

	// Archiving on top of corrupt data starts a fresh list.
	archive.Archive(ctx, finishedGame("fresh"))
	assert.Len(t, archive.Entries(ctx), 1)
}
