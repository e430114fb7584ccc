package service

import (
	"testing"
	"time"

	"giveabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextWindow_StartIsStrictlyFuture(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := models.TimeOfDay{Hour: 9, Minute: 0}
	end := models.TimeOfDay{Hour: 17, Minute: 0}

	// Reference exactly at today's start: the window must move to tomorrow
	ref := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	nextStart, nextEnd := NextWindow(loc, start, end, ref)

	assert.True(t, nextStart.After(ref.UTC()))
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, loc).UTC(), nextStart)
	assert.Equal(t, time.Date(2026, 3, 3, 17, 0, 0, 0, loc).UTC(), nextEnd)
}

func TestNextWindow_BeforeTodaysStartStaysToday(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	start := models.TimeOfDay{Hour: 18, Minute: 30}
	end := models.TimeOfDay{Hour: 20, Minute: 0}

	ref := time.Date(2026, 6, 10, 12, 0, 0, 0, loc)
	nextStart, nextEnd := NextWindow(loc, start, end, ref)

	assert.Equal(t, time.Date(2026, 6, 10, 18, 30, 0, 0, loc).UTC(), nextStart)
	assert.Equal(t, time.Date(2026, 6, 10, 20, 0, 0, 0, loc).UTC(), nextEnd)
}

func TestNextWindow_OvernightCrossesMidnight(t *testing.T) {
	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)

	start := models.TimeOfDay{Hour: 22, Minute: 0}
	end := models.TimeOfDay{Hour: 6, Minute: 0}

	ref := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	nextStart, nextEnd := NextWindow(loc, start, end, ref)

	assert.Equal(t, time.Date(2026, 1, 5, 22, 0, 0, 0, loc).UTC(), nextStart)
	assert.Equal(t, time.Date(2026, 1, 6, 6, 0, 0, 0, loc).UTC(), nextEnd)
	assert.Equal(t, 8*time.Hour, nextEnd.Sub(nextStart))
}

func TestNextWindow_EqualStartAndEndSpansFullDay(t *testing.T) {
	start := models.TimeOfDay{Hour: 12, Minute: 0}
	end := models.TimeOfDay{Hour: 12, Minute: 0}

	ref := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	nextStart, nextEnd := NextWindow(time.UTC, start, end, ref)

	assert.Equal(t, 24*time.Hour, nextEnd.Sub(nextStart))
}

func TestTodayWindow_DoesNotAdvanceToTomorrow(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := models.TimeOfDay{Hour: 9, Minute: 0}
	end := models.TimeOfDay{Hour: 17, Minute: 0}

	// Mid-window: the sweep needs today's instants even though the start
	// already passed
	ref := time.Date(2026, 3, 2, 13, 0, 0, 0, loc)
	startUTC, endUTC := TodayWindow(loc, start, end, ref)

	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, loc).UTC(), startUTC)
	assert.Equal(t, time.Date(2026, 3, 2, 17, 0, 0, 0, loc).UTC(), endUTC)
}

func TestTodayWindow_OvernightEndIsTomorrow(t *testing.T) {
	loc := time.UTC
	start := models.TimeOfDay{Hour: 23, Minute: 0}
	end := models.TimeOfDay{Hour: 1, Minute: 0}

	ref := time.Date(2026, 1, 5, 23, 30, 0, 0, loc)
	startUTC, endUTC := TodayWindow(loc, start, end, ref)

	assert.Equal(t, time.Date(2026, 1, 5, 23, 0, 0, 0, loc), startUTC)
	assert.Equal(t, time.Date(2026, 1, 6, 1, 0, 0, 0, loc), endUTC)
}
