package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"giveabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissingFileReturnsEmptyState(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, state.Guilds)
}

func TestFileStore_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "state.json")
	store := NewFileStore(path)
	ctx := context.Background()

	state := models.NewBotState()
	guild := state.EnsureGuild(100, "Europe/Berlin", []int64{900})
	guild.ScheduleRuns["daily"] = "2026-08-25"
	state.UpsertGiveaway(&models.Giveaway{
		ID:           "g1",
		GuildID:      100,
		ChannelID:    200,
		Winners:      2,
		Title:        "Prize",
		EndTime:      time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC),
		CreatedAt:    time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Participants: []int64{10, 20},
		IsActive:     true,
	}, "UTC", nil)

	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestFileStore_SaveReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)
	ctx := context.Background()

	first := models.NewBotState()
	first.EnsureGuild(1, "UTC", nil)
	require.NoError(t, store.Save(ctx, first))

	second := models.NewBotState()
	second.EnsureGuild(2, "UTC", nil)
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded.Guild(1))
	assert.NotNil(t, loaded.Guild(2))

	// No temporary files may survive a save
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestFileStore_LoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	store := NewFileStore(path)

	_, err := store.Load(context.Background())

	assert.Error(t, err)
}
