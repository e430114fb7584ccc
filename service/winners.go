package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"giveabot/models"

	log "github.com/sirupsen/logrus"
)

// chooseWinners draws up to g.Winners distinct participants uniformly without
// replacement. Rerolls exclude the previous winners when enough other
// candidates exist; the cooldown blocklist is a hard exclusion and may reduce
// the draw to zero winners.
func chooseWinners(g *models.Giveaway, isReroll bool, blocklist map[int64]bool) ([]int64, error) {
	if len(g.Participants) == 0 {
		return nil, nil
	}

	pool := append([]int64(nil), g.Participants...)

	if isReroll && len(g.LastAnnouncedWinners) > 0 {
		previous := make(map[int64]bool, len(g.LastAnnouncedWinners))
		for _, id := range g.LastAnnouncedWinners {
			previous[id] = true
		}
		filtered := pool[:0:0]
		for _, id := range pool {
			if !previous[id] {
				filtered = append(filtered, id)
			}
		}
		// Keep the full pool when everyone already won; a reroll into the
		// same field beats no reroll at all.
		if len(filtered) > 0 {
			pool = filtered
		}
	}

	if len(blocklist) > 0 {
		filtered := pool[:0:0]
		for _, id := range pool {
			if !blocklist[id] {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == 0 {
			log.WithFields(log.Fields{
				"giveawayID": g.ID,
				"guildID":    g.GuildID,
				"candidates": len(pool),
			}).Warn("All remaining candidates are on recent winner cooldown; drawing no winners")
		}
		pool = filtered
	}

	count := g.Winners
	if count > len(pool) {
		count = len(pool)
	}
	if count == 0 {
		return nil, nil
	}

	return sampleWithoutReplacement(pool, count)
}

// sampleWithoutReplacement draws count distinct elements using a partial
// Fisher-Yates shuffle over a cryptographically secure source
func sampleWithoutReplacement(pool []int64, count int) ([]int64, error) {
	for i := 0; i < count; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool)-i)))
		if err != nil {
			return nil, fmt.Errorf("random generation failed: %w", err)
		}
		j := i + int(n.Int64())
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count:count], nil
}

// cooldownBlocklist builds the set of users excluded from a draw because they
// won within the guild's cooldown window. Returns nil when the cooldown is
// disabled or set to zero days.
func cooldownBlocklist(guild *models.GuildState, now time.Time) map[int64]bool {
	if guild == nil || !guild.RecentWinnerCooldownEnabled || guild.RecentWinnerCooldownDays <= 0 {
		return nil
	}
	cutoff := now.Add(-time.Duration(guild.RecentWinnerCooldownDays) * 24 * time.Hour)
	blocked := make(map[int64]bool)
	for _, entry := range guild.RecentWinners {
		if entry.WonAt.After(cutoff) {
			blocked[entry.UserID] = true
		}
	}
	if len(blocked) == 0 {
		return nil
	}
	return blocked
}

// winnerRetentionDays returns how long recent winner records are kept. History
// is retained even while the cooldown is disabled so enabling it later still
// has data to work with.
func winnerRetentionDays(guild *models.GuildState) int {
	const minimumRetentionDays = 30
	if guild != nil && guild.RecentWinnerCooldownDays > minimumRetentionDays {
		return guild.RecentWinnerCooldownDays
	}
	return minimumRetentionDays
}

// pruneRecentWinners drops ledger entries older than the retention window
func pruneRecentWinners(guild *models.GuildState, now time.Time) {
	cutoff := now.Add(-time.Duration(winnerRetentionDays(guild)) * 24 * time.Hour)
	kept := guild.RecentWinners[:0:0]
	for _, entry := range guild.RecentWinners {
		if entry.WonAt.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	guild.RecentWinners = kept
}
