package service

import (
	"testing"
	"time"

	"giveabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseWinners_EmptyPool(t *testing.T) {
	g := &models.Giveaway{ID: "g1", Winners: 3}

	winners, err := chooseWinners(g, false, nil)

	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestChooseWinners_DistinctAndFromPool(t *testing.T) {
	g := &models.Giveaway{
		ID:           "g1",
		Winners:      3,
		Participants: []int64{10, 20, 30, 40, 50},
	}

	winners, err := chooseWinners(g, false, nil)

	require.NoError(t, err)
	require.Len(t, winners, 3)
	seen := make(map[int64]bool)
	for _, id := range winners {
		assert.False(t, seen[id], "winner %d drawn twice", id)
		seen[id] = true
		assert.Contains(t, g.Participants, id)
	}
}

func TestChooseWinners_ClampsToPoolSize(t *testing.T) {
	g := &models.Giveaway{
		ID:           "g1",
		Winners:      10,
		Participants: []int64{10, 20},
	}

	winners, err := chooseWinners(g, false, nil)

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 20}, winners)
}

func TestChooseWinners_RerollExcludesPreviousWinners(t *testing.T) {
	g := &models.Giveaway{
		ID:                   "g1",
		Winners:              2,
		Participants:         []int64{10, 20, 30, 40},
		LastAnnouncedWinners: []int64{10, 20},
	}

	winners, err := chooseWinners(g, true, nil)

	require.NoError(t, err)
	require.Len(t, winners, 2)
	assert.NotContains(t, winners, int64(10))
	assert.NotContains(t, winners, int64(20))
}

func TestChooseWinners_RerollKeepsPoolWhenEveryoneWon(t *testing.T) {
	g := &models.Giveaway{
		ID:                   "g1",
		Winners:              1,
		Participants:         []int64{10, 20},
		LastAnnouncedWinners: []int64{10, 20},
	}

	winners, err := chooseWinners(g, true, nil)

	require.NoError(t, err)
	require.Len(t, winners, 1)
}

func TestChooseWinners_CooldownIsHardExclusion(t *testing.T) {
	g := &models.Giveaway{
		ID:           "g1",
		Winners:      2,
		Participants: []int64{10, 20},
	}
	blocked := map[int64]bool{10: true, 20: true}

	winners, err := chooseWinners(g, false, blocked)

	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestChooseWinners_RerollThenCooldownLeavesOneCandidate(t *testing.T) {
	// Five participants, two previous winners, cooldown blocks four of the
	// five. Only participant 50 is neither a previous winner nor blocked.
	g := &models.Giveaway{
		ID:                   "g1",
		Winners:              3,
		Participants:         []int64{10, 20, 30, 40, 50},
		LastAnnouncedWinners: []int64{10, 20},
	}
	blocked := map[int64]bool{10: true, 20: true, 30: true, 40: true}

	winners, err := chooseWinners(g, true, blocked)

	require.NoError(t, err)
	assert.Equal(t, []int64{50}, winners)
}

func TestCooldownBlocklist(t *testing.T) {
	now := time.Now().UTC()
	guild := &models.GuildState{
		RecentWinnerCooldownEnabled: true,
		RecentWinnerCooldownDays:    7,
		RecentWinners: []*models.RecentWinner{
			{UserID: 10, GiveawayID: "old", WonAt: now.Add(-10 * 24 * time.Hour)},
			{UserID: 20, GiveawayID: "recent", WonAt: now.Add(-2 * 24 * time.Hour)},
		},
	}

	blocked := cooldownBlocklist(guild, now)

	assert.False(t, blocked[10], "winner outside the window should not be blocked")
	assert.True(t, blocked[20], "winner inside the window should be blocked")
}

func TestCooldownBlocklist_DisabledReturnsNil(t *testing.T) {
	now := time.Now().UTC()
	guild := &models.GuildState{
		RecentWinnerCooldownEnabled: false,
		RecentWinnerCooldownDays:    7,
		RecentWinners: []*models.RecentWinner{
			{UserID: 20, GiveawayID: "recent", WonAt: now.Add(-2 * 24 * time.Hour)},
		},
	}

	assert.Nil(t, cooldownBlocklist(guild, now))

	guild.RecentWinnerCooldownEnabled = true
	guild.RecentWinnerCooldownDays = 0
	assert.Nil(t, cooldownBlocklist(guild, now))
}

func TestPruneRecentWinners_RetainsHistoryWhileCooldownShort(t *testing.T) {
	now := time.Now().UTC()
	guild := &models.GuildState{
		RecentWinnerCooldownDays: 3,
		RecentWinners: []*models.RecentWinner{
			{UserID: 10, WonAt: now.Add(-40 * 24 * time.Hour)},
			{UserID: 20, WonAt: now.Add(-20 * 24 * time.Hour)},
			{UserID: 30, WonAt: now.Add(-1 * 24 * time.Hour)},
		},
	}

	pruneRecentWinners(guild, now)

	// Retention floor is 30 days even when the cooldown is shorter
	require.Len(t, guild.RecentWinners, 2)
	assert.Equal(t, int64(20), guild.RecentWinners[0].UserID)
	assert.Equal(t, int64(30), guild.RecentWinners[1].UserID)
}

func TestWinnerRetentionDays(t *testing.T) {
	assert.Equal(t, 30, winnerRetentionDays(&models.GuildState{RecentWinnerCooldownDays: 7}))
	assert.Equal(t, 45, winnerRetentionDays(&models.GuildState{RecentWinnerCooldownDays: 45}))
	assert.Equal(t, 30, winnerRetentionDays(nil))
}
