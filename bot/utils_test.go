package bot

import (
	"testing"
	"time"

	"giveabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWindow_StartWithinToleranceIsImmediate(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 18, 0, 30, 0, loc)

	immediate, startLocal, endLocal := resolveWindow(loc,
		models.TimeOfDay{Hour: 18, Minute: 0},
		models.TimeOfDay{Hour: 20, Minute: 0},
		now)

	assert.True(t, immediate)
	assert.Equal(t, time.Date(2024, 6, 1, 18, 0, 0, 0, loc), startLocal)
	assert.Equal(t, time.Date(2024, 6, 1, 20, 0, 0, 0, loc), endLocal)
}

func TestResolveWindow_StartJustAheadIsImmediate(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 17, 59, 30, 0, loc)

	immediate, startLocal, _ := resolveWindow(loc,
		models.TimeOfDay{Hour: 18, Minute: 0},
		models.TimeOfDay{Hour: 20, Minute: 0},
		now)

	assert.True(t, immediate)
	assert.Equal(t, 1, startLocal.Day())
}

func TestResolveWindow_FutureStartIsScheduled(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, loc)

	immediate, startLocal, endLocal := resolveWindow(loc,
		models.TimeOfDay{Hour: 18, Minute: 0},
		models.TimeOfDay{Hour: 20, Minute: 0},
		now)

	assert.False(t, immediate)
	assert.Equal(t, time.Date(2024, 6, 1, 18, 0, 0, 0, loc), startLocal)
	assert.Equal(t, time.Date(2024, 6, 1, 20, 0, 0, 0, loc), endLocal)
}

func TestResolveWindow_PastStartRollsToTomorrow(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 18, 5, 0, 0, loc)

	immediate, startLocal, endLocal := resolveWindow(loc,
		models.TimeOfDay{Hour: 18, Minute: 0},
		models.TimeOfDay{Hour: 20, Minute: 0},
		now)

	assert.False(t, immediate)
	assert.Equal(t, time.Date(2024, 6, 2, 18, 0, 0, 0, loc), startLocal)
	assert.Equal(t, time.Date(2024, 6, 2, 20, 0, 0, 0, loc), endLocal)
}

func TestResolveWindow_EndBeforeStartCrossesMidnight(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, loc)

	immediate, startLocal, endLocal := resolveWindow(loc,
		models.TimeOfDay{Hour: 22, Minute: 0},
		models.TimeOfDay{Hour: 6, Minute: 0},
		now)

	assert.False(t, immediate)
	assert.Equal(t, time.Date(2024, 6, 1, 22, 0, 0, 0, loc), startLocal)
	assert.Equal(t, time.Date(2024, 6, 2, 6, 0, 0, 0, loc), endLocal)
}

func TestResolveWindow_ImmediateWithPassedEndRollsEndForward(t *testing.T) {
	loc := time.UTC
	// Start matches now exactly, end earlier the same day
	now := time.Date(2024, 6, 1, 23, 30, 0, 0, loc)

	immediate, _, endLocal := resolveWindow(loc,
		models.TimeOfDay{Hour: 23, Minute: 30},
		models.TimeOfDay{Hour: 23, Minute: 0},
		now)

	assert.True(t, immediate)
	assert.True(t, endLocal.After(now))
}

func TestParseEndDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	parsed, err := parseEndDateTime("2024-06-01 18:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 18, 30, 0, 0, loc), parsed)

	_, err = parseEndDateTime("tomorrow at 6", loc)
	assert.Error(t, err)

	_, err = parseEndDateTime("2024-06-01", loc)
	assert.Error(t, err)
}

func TestParseSnowflake(t *testing.T) {
	id, err := parseSnowflake("123456789012345678")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789012345678), id)
	assert.Equal(t, "123456789012345678", formatSnowflake(id))

	_, err = parseSnowflake("general")
	assert.Error(t, err)
}

func TestParticipantPreviewTruncates(t *testing.T) {
	participants := make([]int64, participantPreviewCap+5)
	for i := range participants {
		participants[i] = int64(i + 1)
	}

	preview := participantPreview(participants)
	assert.Contains(t, preview, "…and 5 more")
	assert.Contains(t, preview, "- <@1>")
	assert.NotContains(t, preview, "<@25>")
}
