package storage

import (
	"context"
	"testing"
	"time"

	"giveabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// setupPostgresStore spins up a throwaway PostgreSQL container, runs the
// migrations, and returns a connected store
func setupPostgresStore(t *testing.T) *PostgresStore {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	labels := map[string]string{
		"test":      "giveabot-storage",
		"test-name": t.Name(),
		"timestamp": time.Now().Format("20060102-150405"),
	}

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("giveabot_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(labels),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: failed to terminate test container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, MigrateUp(connStr))

	store, err := NewPostgresStore(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	return store
}

func TestPostgresStore_LoadEmptyDatabase(t *testing.T) {
	store := setupPostgresStore(t)

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, state.Guilds)
}

func TestPostgresStore_SaveAndLoadRoundTrip(t *testing.T) {
	store := setupPostgresStore(t)
	ctx := context.Background()

	state := models.NewBotState()
	guild := state.EnsureGuild(100, "America/New_York", []int64{900})
	guild.RecentWinnerCooldownEnabled = true
	guild.RecentWinnerCooldownDays = 7
	state.UpsertGiveaway(&models.Giveaway{
		ID:                   "g1",
		GuildID:              100,
		ChannelID:            200,
		Winners:              1,
		Title:                "Prize",
		EndTime:              time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC),
		CreatedAt:            time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Participants:         []int64{10},
		WinnersDrawn:         true,
		LastAnnouncedWinners: []int64{10},
	}, "UTC", nil)

	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestPostgresStore_SaveOverwritesPreviousSnapshot(t *testing.T) {
	store := setupPostgresStore(t)
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
}
