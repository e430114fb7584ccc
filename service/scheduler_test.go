package service

import (
	"context"
	"testing"
	"time"

	"giveabot/config"
	"giveabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSchedulerTestService(entries ...config.ScheduleEntry) (*giveawayService, *MockStore, *MockMessenger) {
	svc, store, messenger := newTestService()
	svc.cfg.Scheduling = config.SchedulingConfig{AutoEnabled: true, Giveaways: entries}
	return svc, store, messenger
}

// allDayEntry returns a schedule whose window covers the whole day, so the
// sweep always finds it due regardless of when the test runs
func allDayEntry(id string) config.ScheduleEntry {
	return config.ScheduleEntry{
		ID:        id,
		Enabled:   true,
		ChannelID: 2,
		Winners:   1,
		Title:     "Daily Prize",
		StartTime: models.TimeOfDay{Hour: 0, Minute: 0},
		EndTime:   models.TimeOfDay{Hour: 0, Minute: 0},
	}
}

func TestHandleScheduled_FiresAtMostOncePerDay(t *testing.T) {
	svc, store, messenger := newSchedulerTestService(allDayEntry("daily"))
	ctx := context.Background()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	messenger.On("ResolveChannel", mock.Anything, int64(2)).Return(&ChannelInfo{ID: 2, GuildID: 1}, nil)
	messenger.On("PostGiveaway", mock.Anything, mock.Anything).Return(int64(555), nil)

	svc.HandleScheduled(ctx)
	svc.HandleScheduled(ctx)

	messenger.AssertNumberOfCalls(t, "PostGiveaway", 1)
	guild := svc.state.Guild(1)
	require.NotNil(t, guild)
	today := time.Now().UTC().Format(scheduleRunDateLayout)
	assert.Equal(t, today, guild.ScheduleRuns["daily"])
}

func TestHandleScheduled_SkipsWhenGuildAutoDisabled(t *testing.T) {
	svc, store, messenger := newSchedulerTestService(allDayEntry("daily"))
	ctx := context.Background()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	messenger.On("ResolveChannel", mock.Anything, int64(2)).Return(&ChannelInfo{ID: 2, GuildID: 1}, nil)

	require.NoError(t, svc.ToggleAuto(ctx, 1, false))
	svc.HandleScheduled(ctx)

	messenger.AssertNotCalled(t, "PostGiveaway", mock.Anything, mock.Anything)
}

func TestHandleScheduled_SkipsDisabledEntries(t *testing.T) {
	entry := allDayEntry("daily")
	entry.Enabled = false
	svc, _, messenger := newSchedulerTestService(entry)

	svc.HandleScheduled(context.Background())

	messenger.AssertNotCalled(t, "ResolveChannel", mock.Anything, mock.Anything)
}

func TestHandleScheduled_SkipsWhenOccurrenceStillRunning(t *testing.T) {
	svc, store, messenger := newSchedulerTestService(allDayEntry("daily"))
	ctx := context.Background()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	messenger.On("ResolveChannel", mock.Anything, int64(2)).Return(&ChannelInfo{ID: 2, GuildID: 1}, nil)

	// Yesterday's occurrence is still active, e.g. after an edit pushed its
	// end time out
	seedGiveaway(svc, &models.Giveaway{
		ID: "g1", GuildID: 1, ChannelID: 2, Winners: 1,
		ScheduledID: "daily",
		EndTime:     time.Now().Add(time.Hour),
		IsActive:    true,
	})

	svc.HandleScheduled(ctx)

	messenger.AssertNotCalled(t, "PostGiveaway", mock.Anything, mock.Anything)
}

func TestHandleScheduled_UnresolvableChannelDoesNotRecordRun(t *testing.T) {
	svc, _, messenger := newSchedulerTestService(allDayEntry("daily"))
	messenger.On("ResolveChannel", mock.Anything, int64(2)).Return(nil, ErrChannelNotFound)

	svc.HandleScheduled(context.Background())

	assert.Nil(t, svc.state.Guild(1))
}

func TestAuditOverdue_FinishesExpiredActiveGiveaway(t *testing.T) {
	svc, store, messenger := newTestService()
	ctx := context.Background()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	messenger.On("UpdateGiveaway", mock.Anything, mock.Anything).Return(nil)
	messenger.On("Announce", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	seedGiveaway(svc, &models.Giveaway{
		ID: "g1", GuildID: 1, ChannelID: 2, Winners: 1,
		EndTime:      time.Now().Add(-time.Hour),
		Participants: []int64{10},
		IsActive:     true,
	})

	svc.AuditOverdue(ctx)

	giveaway := svc.state.GetGiveaway(1, "g1")
	assert.False(t, giveaway.IsActive)
	assert.True(t, giveaway.WinnersDrawn)
	assert.Equal(t, []int64{10}, giveaway.LastAnnouncedWinners)
}

func TestAuditOverdue_FinalizesInterruptedDraw(t *testing.T) {
	svc, store, messenger := newTestService()
	ctx := context.Background()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	messenger.On("UpdateGiveaway", mock.Anything, mock.Anything).Return(nil)
	messenger.On("Announce", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Finished before the draw completed, e.g. a crash between the state
	// flip and the winner persistence
	seedGiveaway(svc, &models.Giveaway{
		ID: "g1", GuildID: 1, ChannelID: 2, Winners: 1,
		EndTime:      time.Now().Add(-time.Hour),
		Participants: []int64{10, 20},
		IsActive:     false,
		WinnersDrawn: false,
	})

	svc.AuditOverdue(ctx)

	giveaway := svc.state.GetGiveaway(1, "g1")
	assert.True(t, giveaway.WinnersDrawn)
	assert.Len(t, giveaway.LastAnnouncedWinners, 1)
}

func TestAuditOverdue_DoesNotRedrawRecordedWinners(t *testing.T) {
	svc, _, messenger := newTestService()

	// Legacy payloads predate the winners_drawn flag, so a historical
	// finished giveaway can carry recorded winners with the flag unset
	seedGiveaway(svc, &models.Giveaway{
		ID: "g1", GuildID: 1, ChannelID: 2, Winners: 1,
		EndTime:              time.Now().Add(-time.Hour),
		Participants:         []int64{10, 20},
		IsActive:             false,
		WinnersDrawn:         false,
		LastAnnouncedWinners: []int64{10},
	})

	svc.AuditOverdue(context.Background())

	giveaway := svc.state.GetGiveaway(1, "g1")
	assert.Equal(t, []int64{10}, giveaway.LastAnnouncedWinners)
	messenger.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuditOverdue_LeavesCompletedGiveawaysAlone(t *testing.T) {
	svc, _, messenger := newTestService()

	seedGiveaway(svc, &models.Giveaway{
		ID: "g1", GuildID: 1, ChannelID: 2, Winners: 1,
		EndTime:              time.Now().Add(-time.Hour),
		Participants:         []int64{10},
		IsActive:             false,
		WinnersDrawn:         true,
		LastAnnouncedWinners: []int64{10},
	})

	svc.AuditOverdue(context.Background())

	messenger.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything, mock.Anything)
}
