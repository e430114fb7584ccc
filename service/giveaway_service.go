package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"giveabot/config"
	"giveabot/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// pendingRetryDelay is how long to wait before retrying a pending giveaway
// whose start failed for a reason other than a missing channel
const pendingRetryDelay = time.Minute

type giveawayService struct {
	store     Store
	messenger Messenger
	cfg       *config.Config

	mu     sync.Mutex
	state  *models.BotState
	timers *TimerRegistry
}

// NewGiveawayService creates the lifecycle manager. Call Load before any
// other method.
func NewGiveawayService(store Store, messenger Messenger, cfg *config.Config) GiveawayService {
	return &giveawayService{
		store:     store,
		messenger: messenger,
		cfg:       cfg,
		state:     models.NewBotState(),
		timers:    NewTimerRegistry(),
	}
}

// Load restores persisted state and re-registers timers for every pending,
// active, and enabled recurring giveaway. A load failure is logged and the
// service starts from an empty tree rather than refusing to run.
func (s *giveawayService) Load(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load giveaway state; starting with empty state")
		state = models.NewBotState()
	}

	now := time.Now().UTC()
	dirty := false

	s.mu.Lock()
	s.state = state
	type timerPlan struct {
		key   string
		delay time.Duration
		fn    func()
	}
	var plans []timerPlan
	for guildID, guild := range state.Guilds {
		guildID := guildID
		for _, p := range guild.PendingGiveaways {
			pendingID := p.ID
			plans = append(plans, timerPlan{
				key:   startKey(guildID, pendingID),
				delay: p.StartTime.Sub(now),
				fn:    func() { s.firePending(context.Background(), guildID, pendingID) },
			})
		}
		for _, g := range guild.Giveaways {
			if !g.IsActive {
				continue
			}
			giveawayID := g.ID
			plans = append(plans, timerPlan{
				key:   finishKey(guildID, giveawayID),
				delay: g.EndTime.Sub(now),
				fn:    func() { s.finishExpired(context.Background(), guildID, giveawayID) },
			})
		}
		for _, r := range guild.RecurringGiveaways {
			if !r.Enabled {
				continue
			}
			if !r.NextStart.After(now) {
				loc := s.locationLocked(guildID)
				r.NextStart, r.NextEnd = NextWindow(loc, r.StartTime, r.EndTime, now)
				dirty = true
			}
			scheduleID := r.ID
			plans = append(plans, timerPlan{
				key:   recurringKey(guildID, scheduleID),
				delay: r.NextStart.Sub(now),
				fn:    func() { s.fireRecurring(guildID, scheduleID) },
			})
		}
	}
	if dirty {
		if err := s.saveLocked(ctx); err != nil {
			log.WithError(err).Error("Failed to persist realigned recurring windows during load")
		}
	}
	s.mu.Unlock()

	for _, plan := range plans {
		s.timers.Schedule(plan.key, plan.delay, plan.fn)
	}

	log.WithFields(log.Fields{
		"guilds": len(state.Guilds),
		"timers": len(plans),
	}).Info("Giveaway state loaded")
	return nil
}

// Close cancels all outstanding timers
func (s *giveawayService) Close() {
	s.timers.CancelAll()
}

// StartGiveaway creates a giveaway, posts it, persists it, and arms its
// finish timer. The message is posted before the giveaway is recorded so a
// post failure leaves no orphaned state.
func (s *giveawayService) StartGiveaway(ctx context.Context, guildID, channelID int64, winners int, title, description string, endTime time.Time, scheduledID string) (*models.Giveaway, error) {
	if winners <= 0 {
		return nil, ErrWinnersNotPositive
	}

	now := time.Now().UTC()
	giveaway := &models.Giveaway{
		ID:           newEntityID(now),
		GuildID:      guildID,
		ChannelID:    channelID,
		Winners:      winners,
		Title:        title,
		Description:  description,
		EndTime:      endTime.UTC(),
		CreatedAt:    now,
		Participants: []int64{},
		ScheduledID:  scheduledID,
		IsActive:     true,
	}

	messageID, err := s.messenger.PostGiveaway(ctx, giveaway)
	if err != nil {
		return nil, fmt.Errorf("failed to post giveaway: %w", err)
	}
	giveaway.MessageID = messageID

	s.mu.Lock()
	s.state.UpsertGiveaway(giveaway, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	saveErr := s.saveLocked(ctx)
	s.mu.Unlock()
	if saveErr != nil {
		return nil, saveErr
	}

	guildID, giveawayID := giveaway.GuildID, giveaway.ID
	s.timers.Schedule(finishKey(guildID, giveawayID), time.Until(giveaway.EndTime), func() {
		s.finishExpired(context.Background(), guildID, giveawayID)
	})

	log.WithFields(log.Fields{
		"giveawayID": giveaway.ID,
		"guildID":    guildID,
		"channelID":  channelID,
		"endTime":    giveaway.EndTime,
	}).Info("Giveaway started")
	s.notifyLogger(ctx, guildID, fmt.Sprintf("Started giveaway **%s** (`%s`) in <#%d>, ending <t:%d:R>",
		giveaway.Title, giveaway.ID, channelID, giveaway.EndTime.Unix()))

	return snapshotGiveaway(giveaway), nil
}

// SchedulePending records a giveaway that starts in the future and arms its
// start timer
func (s *giveawayService) SchedulePending(ctx context.Context, guildID, channelID int64, winners int, title, description string, startTime, endTime time.Time) (*models.PendingGiveaway, error) {
	if winners <= 0 {
		return nil, ErrWinnersNotPositive
	}
	if !endTime.After(startTime) {
		return nil, ErrEndBeforeStart
	}

	pending := &models.PendingGiveaway{
		ID:          newEntityID(time.Now().UTC()),
		GuildID:     guildID,
		ChannelID:   channelID,
		Winners:     winners,
		Title:       title,
		Description: description,
		StartTime:   startTime.UTC(),
		EndTime:     endTime.UTC(),
	}

	s.mu.Lock()
	s.state.UpsertPending(pending, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	saveErr := s.saveLocked(ctx)
	s.mu.Unlock()
	if saveErr != nil {
		return nil, saveErr
	}

	pendingID := pending.ID
	s.timers.Schedule(startKey(guildID, pendingID), time.Until(pending.StartTime), func() {
		s.firePending(context.Background(), guildID, pendingID)
	})

	log.WithFields(log.Fields{
		"pendingID": pending.ID,
		"guildID":   guildID,
		"startTime": pending.StartTime,
	}).Info("Giveaway scheduled")
	s.notifyLogger(ctx, guildID, fmt.Sprintf("Scheduled giveaway **%s** (`%s`) in <#%d>, starting <t:%d:R>",
		pending.Title, pending.ID, channelID, pending.StartTime.Unix()))

	copied := *pending
	return &copied, nil
}

// firePending converts a pending giveaway into an active one when its start
// time arrives. A missing channel drops the pending record; any other post
// failure retries shortly.
func (s *giveawayService) firePending(ctx context.Context, guildID int64, pendingID string) {
	s.mu.Lock()
	pending := s.state.GetPending(guildID, pendingID)
	if pending == nil {
		s.mu.Unlock()
		return
	}
	copied := *pending
	s.mu.Unlock()

	if _, err := s.messenger.ResolveChannel(ctx, copied.ChannelID); err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			log.WithFields(log.Fields{
				"pendingID": pendingID,
				"guildID":   guildID,
				"channelID": copied.ChannelID,
			}).Warn("Channel for pending giveaway no longer exists; dropping it")
			s.mu.Lock()
			s.state.RemovePending(guildID, pendingID)
			if err := s.saveLocked(ctx); err != nil {
				log.WithError(err).Error("Failed to persist pending giveaway removal")
			}
			s.mu.Unlock()
			return
		}
		log.WithError(err).WithField("pendingID", pendingID).Warn("Channel lookup failed for pending giveaway; retrying")
		s.timers.Schedule(startKey(guildID, pendingID), pendingRetryDelay, func() {
			s.firePending(context.Background(), guildID, pendingID)
		})
		return
	}

	giveaway := &models.Giveaway{
		ID:           copied.ID,
		GuildID:      copied.GuildID,
		ChannelID:    copied.ChannelID,
		Winners:      copied.Winners,
		Title:        copied.Title,
		Description:  copied.Description,
		EndTime:      copied.EndTime,
		CreatedAt:    time.Now().UTC(),
		Participants: []int64{},
		IsActive:     true,
	}

	messageID, err := s.messenger.PostGiveaway(ctx, giveaway)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			s.mu.Lock()
			s.state.RemovePending(guildID, pendingID)
			if err := s.saveLocked(ctx); err != nil {
				log.WithError(err).Error("Failed to persist pending giveaway removal")
			}
			s.mu.Unlock()
			return
		}
		log.WithError(err).WithField("pendingID", pendingID).Error("Failed to post scheduled giveaway; retrying")
		s.timers.Schedule(startKey(guildID, pendingID), pendingRetryDelay, func() {
			s.firePending(context.Background(), guildID, pendingID)
		})
		return
	}
	giveaway.MessageID = messageID

	s.mu.Lock()
	s.state.RemovePending(guildID, pendingID)
	s.state.UpsertGiveaway(giveaway, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	if err := s.saveLocked(ctx); err != nil {
		log.WithError(err).Error("Failed to persist scheduled giveaway start")
	}
	s.mu.Unlock()

	giveawayID := giveaway.ID
	s.timers.Schedule(finishKey(guildID, giveawayID), time.Until(giveaway.EndTime), func() {
		s.finishExpired(context.Background(), guildID, giveawayID)
	})

	log.WithFields(log.Fields{
		"giveawayID": giveaway.ID,
		"guildID":    guildID,
	}).Info("Scheduled giveaway is now active")
	s.notifyLogger(ctx, guildID, fmt.Sprintf("Giveaway **%s** (`%s`) is now live in <#%d>",
		giveaway.Title, giveaway.ID, giveaway.ChannelID))
}

// finishExpired is the finish timer callback
func (s *giveawayService) finishExpired(ctx context.Context, guildID int64, giveawayID string) {
	if _, err := s.EndGiveaway(ctx, guildID, giveawayID); err != nil && !errors.Is(err, ErrGiveawayNotFound) {
		log.WithError(err).WithFields(log.Fields{
			"giveawayID": giveawayID,
			"guildID":    guildID,
		}).Error("Failed to finish expired giveaway")
	}
}

// EndGiveaway finishes a giveaway and draws its winners. Ending an already
// finished giveaway returns the existing record without drawing again.
func (s *giveawayService) EndGiveaway(ctx context.Context, guildID int64, giveawayID string) (*models.Giveaway, error) {
	s.mu.Lock()
	giveaway := s.state.GetGiveaway(guildID, giveawayID)
	if giveaway == nil {
		s.mu.Unlock()
		return nil, ErrGiveawayNotFound
	}
	if !giveaway.IsActive {
		result := snapshotGiveaway(giveaway)
		s.mu.Unlock()
		return result, nil
	}
	giveaway.IsActive = false
	if err := s.saveLocked(ctx); err != nil {
		giveaway.IsActive = true
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.timers.Cancel(finishKey(guildID, giveawayID))

	return s.finalize(ctx, guildID, giveawayID)
}

// finalize draws winners for a finished giveaway and announces them. The draw
// and its persistence happen before any chat I/O so an unreachable channel
// can never lose a completed draw. Finalizing a giveaway whose winners are
// already drawn only repeats the announcement.
func (s *giveawayService) finalize(ctx context.Context, guildID int64, giveawayID string) (*models.Giveaway, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	giveaway := s.state.GetGiveaway(guildID, giveawayID)
	if giveaway == nil {
		s.mu.Unlock()
		return nil, ErrGiveawayNotFound
	}
	guild := s.state.Guild(guildID)
	if !giveaway.WinnersDrawn {
		winners, err := chooseWinners(giveaway, false, cooldownBlocklist(guild, now))
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		giveaway.LastAnnouncedWinners = winners
		giveaway.WinnersDrawn = true
		recordWinners(guild, giveaway, winners, now)
		if err := s.saveLocked(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	result := snapshotGiveaway(giveaway)
	s.mu.Unlock()

	if err := s.messenger.UpdateGiveaway(ctx, result); err != nil {
		log.WithError(err).WithField("giveawayID", giveawayID).Warn("Failed to update finished giveaway message")
	}
	if err := s.messenger.Announce(ctx, result.ChannelID, winnerAnnouncement(result)); err != nil {
		log.WithError(err).WithField("giveawayID", giveawayID).Warn("Failed to announce giveaway winners")
	}

	log.WithFields(log.Fields{
		"giveawayID":   giveawayID,
		"guildID":      guildID,
		"participants": len(result.Participants),
		"winners":      result.LastAnnouncedWinners,
	}).Info("Giveaway finished")
	s.notifyLogger(ctx, guildID, fmt.Sprintf("Giveaway **%s** (`%s`) finished with %d participant(s); winners: %s",
		result.Title, result.ID, len(result.Participants), winnerList(result.LastAnnouncedWinners)))

	return result, nil
}

// Reroll draws a replacement winner set for a finished giveaway, excluding
// the previously announced winners when possible
func (s *giveawayService) Reroll(ctx context.Context, guildID int64, giveawayID string) ([]int64, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	giveaway := s.state.GetGiveaway(guildID, giveawayID)
	if giveaway == nil {
		s.mu.Unlock()
		return nil, ErrGiveawayNotFound
	}
	if giveaway.IsActive {
		s.mu.Unlock()
		return nil, ErrGiveawayActive
	}
	guild := s.state.Guild(guildID)
	winners, err := chooseWinners(giveaway, true, cooldownBlocklist(guild, now))
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	giveaway.LastAnnouncedWinners = winners
	giveaway.WinnersDrawn = true
	recordWinners(guild, giveaway, winners, now)
	if err := s.saveLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	result := snapshotGiveaway(giveaway)
	s.mu.Unlock()

	if err := s.messenger.UpdateGiveaway(ctx, result); err != nil {
		log.WithError(err).WithField("giveawayID", giveawayID).Warn("Failed to update rerolled giveaway message")
	}
	if err := s.messenger.Announce(ctx, result.ChannelID, "🎲 Reroll! "+winnerAnnouncement(result)); err != nil {
		log.WithError(err).WithField("giveawayID", giveawayID).Warn("Failed to announce reroll winners")
	}

	log.WithFields(log.Fields{
		"giveawayID": giveawayID,
		"guildID":    guildID,
		"winners":    winners,
	}).Info("Giveaway rerolled")
	s.notifyLogger(ctx, guildID, fmt.Sprintf("Rerolled giveaway **%s** (`%s`); new winners: %s",
		result.Title, result.ID, winnerList(winners)))

	return winners, nil
}

// UpdateGiveaway edits a giveaway. Finished records can be edited too;
// changing the end time reschedules the finish timer only while the giveaway
// is still active.
func (s *giveawayService) UpdateGiveaway(ctx context.Context, guildID int64, giveawayID string, update GiveawayUpdate) (*models.Giveaway, error) {
	if update.Winners != nil && *update.Winners <= 0 {
		return nil, ErrWinnersNotPositive
	}

	s.mu.Lock()
	giveaway := s.state.GetGiveaway(guildID, giveawayID)
	if giveaway == nil {
		s.mu.Unlock()
		return nil, ErrGiveawayNotFound
	}
	endChanged := false
	if update.Winners != nil {
		giveaway.Winners = *update.Winners
	}
	if update.Title != nil {
		giveaway.Title = *update.Title
	}
	if update.Description != nil {
		giveaway.Description = *update.Description
	}
	if update.EndTime != nil {
		newEnd := update.EndTime.UTC()
		endChanged = !newEnd.Equal(giveaway.EndTime)
		giveaway.EndTime = newEnd
	}
	if err := s.saveLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	result := snapshotGiveaway(giveaway)
	s.mu.Unlock()

	if endChanged && result.IsActive {
		s.timers.Schedule(finishKey(guildID, giveawayID), time.Until(result.EndTime), func() {
			s.finishExpired(context.Background(), guildID, giveawayID)
		})
	}

	if err := s.messenger.UpdateGiveaway(ctx, result); err != nil {
		log.WithError(err).WithField("giveawayID", giveawayID).Warn("Failed to update edited giveaway message")
	}

	log.WithFields(log.Fields{
		"giveawayID": giveawayID,
		"guildID":    guildID,
	}).Info("Giveaway updated")
	s.notifyLogger(ctx, guildID, fmt.Sprintf("Giveaway **%s** (`%s`) was edited", result.Title, result.ID))
	return result, nil
}

// GetGiveaway retrieves a giveaway by ID
func (s *giveawayService) GetGiveaway(ctx context.Context, guildID int64, giveawayID string) (*models.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	giveaway := s.state.GetGiveaway(guildID, giveawayID)
	if giveaway == nil {
		return nil, ErrGiveawayNotFound
	}
	return snapshotGiveaway(giveaway), nil
}

// GetPending retrieves a pending giveaway by ID
func (s *giveawayService) GetPending(ctx context.Context, guildID int64, pendingID string) (*models.PendingGiveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.state.GetPending(guildID, pendingID)
	if pending == nil {
		return nil, ErrPendingNotFound
	}
	copied := *pending
	return &copied, nil
}

// GetRecurring retrieves a recurring schedule by ID
func (s *giveawayService) GetRecurring(ctx context.Context, guildID int64, scheduleID string) (*models.RecurringGiveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recurring := s.state.GetRecurring(guildID, scheduleID)
	if recurring == nil {
		return nil, ErrRecurringNotFound
	}
	copied := *recurring
	return &copied, nil
}

// ListGiveaways returns all giveaways tracked for a guild, newest first
func (s *giveawayService) ListGiveaways(ctx context.Context, guildID int64) ([]*models.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.state.ListAll(guildID)
	result := make([]*models.Giveaway, 0, len(all))
	for _, g := range all {
		result = append(result, snapshotGiveaway(g))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// JoinGiveaway enters a user into an active giveaway
func (s *giveawayService) JoinGiveaway(ctx context.Context, guildID int64, giveawayID string, userID int64) error {
	result, err := s.mutateParticipants(ctx, guildID, giveawayID, func(g *models.Giveaway) error {
		if !g.AddParticipant(userID) {
			return ErrAlreadyEntered
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.messenger.UpdateGiveaway(ctx, result); err != nil {
		log.WithError(err).WithField("giveawayID", giveawayID).Debug("Failed to refresh giveaway message after join")
	}
	s.notifyLogger(ctx, guildID, fmt.Sprintf("<@%d> joined giveaway **%s** (`%s`), now %d participant(s)",
		userID, result.Title, result.ID, len(result.Participants)))
	return nil
}

// LeaveGiveaway withdraws a user from an active giveaway
func (s *giveawayService) LeaveGiveaway(ctx context.Context, guildID int64, giveawayID string, userID int64) error {
	result, err := s.mutateParticipants(ctx, guildID, giveawayID, func(g *models.Giveaway) error {
		if !g.RemoveParticipant(userID) {
			return ErrNotEntered
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.messenger.UpdateGiveaway(ctx, result); err != nil {
		log.WithError(err).WithField("giveawayID", giveawayID).Debug("Failed to refresh giveaway message after leave")
	}
	s.notifyLogger(ctx, guildID, fmt.Sprintf("<@%d> left giveaway **%s** (`%s`), now %d participant(s)",
		userID, result.Title, result.ID, len(result.Participants)))
	return nil
}

func (s *giveawayService) mutateParticipants(ctx context.Context, guildID int64, giveawayID string, mutate func(*models.Giveaway) error) (*models.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	giveaway := s.state.GetGiveaway(guildID, giveawayID)
	if giveaway == nil {
		return nil, ErrGiveawayNotFound
	}
	if !giveaway.IsActive {
		return nil, ErrGiveawayFinished
	}
	if err := mutate(giveaway); err != nil {
		return nil, err
	}
	if err := s.saveLocked(ctx); err != nil {
		return nil, err
	}
	return snapshotGiveaway(giveaway), nil
}

// ScheduleRecurring creates an enabled daily-repeating giveaway and arms its
// first start timer
func (s *giveawayService) ScheduleRecurring(ctx context.Context, guildID, channelID int64, winners int, title, description string, startTime, endTime models.TimeOfDay) (*models.RecurringGiveaway, error) {
	if winners <= 0 {
		return nil, ErrWinnersNotPositive
	}

	now := time.Now().UTC()
	loc := s.Timezone(guildID)
	nextStart, nextEnd := NextWindow(loc, startTime, endTime, now)

	recurring := &models.RecurringGiveaway{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		ChannelID:   channelID,
		Winners:     winners,
		Title:       title,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
		NextStart:   nextStart,
		NextEnd:     nextEnd,
		Enabled:     true,
	}

	s.mu.Lock()
	s.state.UpsertRecurring(recurring, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	saveErr := s.saveLocked(ctx)
	s.mu.Unlock()
	if saveErr != nil {
		return nil, saveErr
	}

	scheduleID := recurring.ID
	s.timers.Schedule(recurringKey(guildID, scheduleID), time.Until(nextStart), func() {
		s.fireRecurring(guildID, scheduleID)
	})

	log.WithFields(log.Fields{
		"scheduleID": recurring.ID,
		"guildID":    guildID,
		"window":     startTime.String() + "-" + endTime.String(),
		"nextStart":  nextStart,
	}).Info("Recurring giveaway scheduled")
	s.notifyLogger(ctx, guildID, fmt.Sprintf("Scheduled daily giveaway **%s** (`%s`) in <#%d>, window %s-%s, next start <t:%d:R>",
		recurring.Title, recurring.ID, channelID, startTime, endTime, nextStart.Unix()))

	copied := *recurring
	return &copied, nil
}

// fireRecurring starts one occurrence of a recurring giveaway and arms the
// timer for the next day. A missing channel disables the schedule; any other
// start failure skips the occurrence but keeps the schedule alive.
func (s *giveawayService) fireRecurring(guildID int64, scheduleID string) {
	ctx := context.Background()

	s.mu.Lock()
	recurring := s.state.GetRecurring(guildID, scheduleID)
	if recurring == nil || !recurring.Enabled {
		s.mu.Unlock()
		return
	}
	copied := *recurring
	s.mu.Unlock()

	endTime := copied.NextEnd
	if !endTime.After(time.Now().UTC()) {
		endTime = time.Now().UTC().Add(copied.WindowDuration())
	}

	_, err := s.StartGiveaway(ctx, guildID, copied.ChannelID, copied.Winners, copied.Title, copied.Description, endTime, scheduleID)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			log.WithFields(log.Fields{
				"scheduleID": scheduleID,
				"guildID":    guildID,
				"channelID":  copied.ChannelID,
			}).Warn("Channel for recurring giveaway no longer exists; disabling the schedule")
			s.mu.Lock()
			if r := s.state.GetRecurring(guildID, scheduleID); r != nil {
				r.Enabled = false
				if err := s.saveLocked(ctx); err != nil {
					log.WithError(err).Error("Failed to persist recurring giveaway disable")
				}
			}
			s.mu.Unlock()
			s.notifyLogger(ctx, guildID, fmt.Sprintf("Disabled daily giveaway **%s** (`%s`): its channel no longer exists",
				copied.Title, scheduleID))
			return
		}
		log.WithError(err).WithField("scheduleID", scheduleID).Error("Failed to start recurring giveaway occurrence; will retry tomorrow")
	}

	s.advanceRecurring(ctx, guildID, scheduleID)
}

// advanceRecurring computes the next window for a recurring schedule and arms
// its timer
func (s *giveawayService) advanceRecurring(ctx context.Context, guildID int64, scheduleID string) {
	now := time.Now().UTC()

	s.mu.Lock()
	recurring := s.state.GetRecurring(guildID, scheduleID)
	if recurring == nil || !recurring.Enabled {
		s.mu.Unlock()
		return
	}
	loc := s.locationLocked(guildID)
	recurring.NextStart, recurring.NextEnd = NextWindow(loc, recurring.StartTime, recurring.EndTime, now)
	nextStart := recurring.NextStart
	if err := s.saveLocked(ctx); err != nil {
		log.WithError(err).Error("Failed to persist recurring giveaway advance")
	}
	s.mu.Unlock()

	s.timers.Schedule(recurringKey(guildID, scheduleID), time.Until(nextStart), func() {
		s.fireRecurring(guildID, scheduleID)
	})
}

// EnableRecurring resumes a disabled recurring schedule
func (s *giveawayService) EnableRecurring(ctx context.Context, guildID int64, scheduleID string) (bool, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	recurring := s.state.GetRecurring(guildID, scheduleID)
	if recurring == nil {
		s.mu.Unlock()
		return false, ErrRecurringNotFound
	}
	if recurring.Enabled {
		s.mu.Unlock()
		return false, nil
	}
	recurring.Enabled = true
	loc := s.locationLocked(guildID)
	recurring.NextStart, recurring.NextEnd = NextWindow(loc, recurring.StartTime, recurring.EndTime, now)
	nextStart := recurring.NextStart
	if err := s.saveLocked(ctx); err != nil {
		recurring.Enabled = false
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	s.timers.Schedule(recurringKey(guildID, scheduleID), time.Until(nextStart), func() {
		s.fireRecurring(guildID, scheduleID)
	})

	log.WithFields(log.Fields{"scheduleID": scheduleID, "guildID": guildID, "nextStart": nextStart}).
		Info("Recurring giveaway enabled")
	return true, nil
}

// DisableRecurring pauses a recurring schedule and cancels its timer
func (s *giveawayService) DisableRecurring(ctx context.Context, guildID int64, scheduleID string) (bool, error) {
	s.mu.Lock()
	recurring := s.state.GetRecurring(guildID, scheduleID)
	if recurring == nil {
		s.mu.Unlock()
		return false, ErrRecurringNotFound
	}
	if !recurring.Enabled {
		s.mu.Unlock()
		return false, nil
	}
	recurring.Enabled = false
	if err := s.saveLocked(ctx); err != nil {
		recurring.Enabled = true
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	s.timers.Cancel(recurringKey(guildID, scheduleID))

	log.WithFields(log.Fields{"scheduleID": scheduleID, "guildID": guildID}).
		Info("Recurring giveaway disabled")
	return true, nil
}

// SetLoggerChannel sets the channel receiving giveaway audit messages. The
// channel must exist.
func (s *giveawayService) SetLoggerChannel(ctx context.Context, guildID, channelID int64) error {
	if _, err := s.messenger.ResolveChannel(ctx, channelID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	guild.LoggerChannelID = channelID
	return s.saveLocked(ctx)
}

// ToggleAuto enables or disables config-driven daily giveaways for a guild
func (s *giveawayService) ToggleAuto(ctx context.Context, guildID int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	guild.AutoEnabled = enabled
	return s.saveLocked(ctx)
}

// AddAdminRole grants a role giveaway management rights
func (s *giveawayService) AddAdminRole(ctx context.Context, guildID, roleID int64) (bool, error) {
	s.mu.Lock()
	guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	if guild.HasAdminRole(roleID) {
		s.mu.Unlock()
		return false, nil
	}
	guild.AdminRoles = append(guild.AdminRoles, roleID)
	if err := s.saveLocked(ctx); err != nil {
		guild.AdminRoles = guild.AdminRoles[:len(guild.AdminRoles)-1]
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	s.notifyLogger(ctx, guildID, fmt.Sprintf("Role <@&%d> was granted giveaway management permissions", roleID))
	return true, nil
}

// RemoveAdminRole revokes a role's giveaway management rights
func (s *giveawayService) RemoveAdminRole(ctx context.Context, guildID, roleID int64) (bool, error) {
	s.mu.Lock()
	guild := s.state.Guild(guildID)
	if guild == nil || !guild.HasAdminRole(roleID) {
		s.mu.Unlock()
		return false, nil
	}
	kept := guild.AdminRoles[:0:0]
	for _, id := range guild.AdminRoles {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	previous := guild.AdminRoles
	guild.AdminRoles = kept
	if err := s.saveLocked(ctx); err != nil {
		guild.AdminRoles = previous
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	s.notifyLogger(ctx, guildID, fmt.Sprintf("Role <@&%d> had its giveaway management permissions revoked", roleID))
	return true, nil
}

// ListAdminRoles returns the guild's admin roles, or the configured defaults
// when the guild has none recorded yet
func (s *giveawayService) ListAdminRoles(ctx context.Context, guildID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if guild := s.state.Guild(guildID); guild != nil {
		return append([]int64(nil), guild.AdminRoles...), nil
	}
	return append([]int64(nil), s.cfg.Permissions.AdminRoles...), nil
}

// SetTimezone changes the guild timezone and realigns every enabled recurring
// schedule to the new zone
func (s *giveawayService) SetTimezone(ctx context.Context, guildID int64, name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}

	now := time.Now().UTC()

	s.mu.Lock()
	guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	guild.Timezone = name
	type rearm struct {
		scheduleID string
		nextStart  time.Time
	}
	var rearms []rearm
	for _, r := range guild.RecurringGiveaways {
		if !r.Enabled {
			continue
		}
		r.NextStart, r.NextEnd = NextWindow(loc, r.StartTime, r.EndTime, now)
		rearms = append(rearms, rearm{scheduleID: r.ID, nextStart: r.NextStart})
	}
	if err := s.saveLocked(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	for _, item := range rearms {
		scheduleID := item.scheduleID
		s.timers.Schedule(recurringKey(guildID, scheduleID), time.Until(item.nextStart), func() {
			s.fireRecurring(guildID, scheduleID)
		})
	}

	log.WithFields(log.Fields{
		"guildID":   guildID,
		"timezone":  name,
		"realigned": len(rearms),
	}).Info("Guild timezone updated")
	return nil
}

// SetCooldownDays sets the recent winner cooldown threshold
func (s *giveawayService) SetCooldownDays(ctx context.Context, guildID int64, days int) error {
	if days < 0 {
		return ErrNegativeCooldownDays
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	guild.RecentWinnerCooldownDays = days
	return s.saveLocked(ctx)
}

// SetCooldownEnabled toggles the recent winner cooldown
func (s *giveawayService) SetCooldownEnabled(ctx context.Context, guildID int64, enabled bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	if guild.RecentWinnerCooldownEnabled == enabled {
		return false, nil
	}
	guild.RecentWinnerCooldownEnabled = enabled
	if err := s.saveLocked(ctx); err != nil {
		guild.RecentWinnerCooldownEnabled = !enabled
		return false, err
	}
	return true, nil
}

// GetSettings returns a snapshot of the guild's settings
func (s *giveawayService) GetSettings(ctx context.Context, guildID int64) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.state.Guild(guildID)
	if guild == nil {
		return &Settings{
			AutoEnabled: true,
			Timezone:    s.cfg.DefaultTimezone,
			AdminRoles:  append([]int64(nil), s.cfg.Permissions.AdminRoles...),
		}, nil
	}
	timezone := guild.Timezone
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}
	return &Settings{
		AutoEnabled:                 guild.AutoEnabled,
		Timezone:                    timezone,
		LoggerChannelID:             guild.LoggerChannelID,
		AdminRoles:                  append([]int64(nil), guild.AdminRoles...),
		RecentWinnerCooldownEnabled: guild.RecentWinnerCooldownEnabled,
		RecentWinnerCooldownDays:    guild.RecentWinnerCooldownDays,
	}, nil
}

// CleanupFinished purges finished giveaways older than the winner retention
// window, returning the number removed
func (s *giveawayService) CleanupFinished(ctx context.Context, guildID int64) (int, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.state.Guild(guildID)
	if guild == nil {
		return 0, nil
	}
	cutoff := now.Add(-time.Duration(winnerRetentionDays(guild)) * 24 * time.Hour)
	kept := guild.Giveaways[:0:0]
	removed := 0
	for _, g := range guild.Giveaways {
		if g.IsActive || g.EndTime.After(cutoff) {
			kept = append(kept, g)
			continue
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	previous := guild.Giveaways
	guild.Giveaways = kept
	if err := s.saveLocked(ctx); err != nil {
		guild.Giveaways = previous
		return 0, err
	}

	log.WithFields(log.Fields{"guildID": guildID, "removed": removed}).Info("Purged old finished giveaways")
	return removed, nil
}

// Timezone returns the guild's location, falling back to the configured
// default and finally UTC
func (s *giveawayService) Timezone(guildID int64) *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locationLocked(guildID)
}

func (s *giveawayService) locationLocked(guildID int64) *time.Location {
	name := s.cfg.DefaultTimezone
	if guild := s.state.Guild(guildID); guild != nil && guild.Timezone != "" {
		name = guild.Timezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithFields(log.Fields{"guildID": guildID, "timezone": name}).
			Warn("Stored timezone is invalid; falling back to UTC")
		return time.UTC
	}
	return loc
}

// saveLocked persists the state tree; the caller must hold s.mu
func (s *giveawayService) saveLocked(ctx context.Context) error {
	if err := s.store.Save(ctx, s.state); err != nil {
		return fmt.Errorf("failed to persist giveaway state: %w", err)
	}
	return nil
}

// notifyLogger sends an audit line to the guild's logger channel, falling
// back to the globally configured one. Failures are logged and swallowed.
func (s *giveawayService) notifyLogger(ctx context.Context, guildID int64, message string) {
	s.mu.Lock()
	channelID := s.cfg.Logging.LoggerChannelID
	if guild := s.state.Guild(guildID); guild != nil && guild.LoggerChannelID != 0 {
		channelID = guild.LoggerChannelID
	}
	s.mu.Unlock()

	if channelID == 0 {
		return
	}
	if err := s.messenger.Announce(ctx, channelID, "[Giveaway] "+message); err != nil {
		log.WithError(err).WithField("channelID", channelID).Debug("Failed to send logger channel notification")
	}
}

// recordWinners appends a draw to the guild's recent winner ledger and prunes
// expired entries
func recordWinners(guild *models.GuildState, giveaway *models.Giveaway, winners []int64, now time.Time) {
	if guild == nil {
		return
	}
	for _, userID := range winners {
		guild.RecentWinners = append(guild.RecentWinners, &models.RecentWinner{
			UserID:     userID,
			GiveawayID: giveaway.ID,
			WonAt:      now,
		})
	}
	pruneRecentWinners(guild, now)
}

// snapshotGiveaway copies a giveaway so chat I/O can use it outside the lock
func snapshotGiveaway(g *models.Giveaway) *models.Giveaway {
	copied := *g
	copied.Participants = append([]int64(nil), g.Participants...)
	copied.LastAnnouncedWinners = append([]int64(nil), g.LastAnnouncedWinners...)
	return &copied
}

// newEntityID derives a short unique ID from the creation instant
func newEntityID(now time.Time) string {
	digits := strconv.FormatInt(now.UnixMicro(), 10)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// winnerAnnouncement builds the public winner announcement for a giveaway
func winnerAnnouncement(g *models.Giveaway) string {
	if len(g.LastAnnouncedWinners) == 0 {
		return fmt.Sprintf("🎉 The giveaway **%s** has ended. No eligible winners could be drawn.", g.Title)
	}
	return fmt.Sprintf("🎉 The giveaway **%s** has ended! Congratulations %s!", g.Title, winnerMentions(g.LastAnnouncedWinners))
}

func winnerMentions(winners []int64) string {
	mentions := make([]string, 0, len(winners))
	for _, id := range winners {
		mentions = append(mentions, fmt.Sprintf("<@%d>", id))
	}
	return strings.Join(mentions, ", ")
}

func winnerList(winners []int64) string {
	if len(winners) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(winners))
	for _, id := range winners {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}

func finishKey(guildID int64, giveawayID string) string {
	return fmt.Sprintf("finish:%d:%s", guildID, giveawayID)
}

func startKey(guildID int64, pendingID string) string {
	return fmt.Sprintf("start:%d:%s", guildID, pendingID)
}

func recurringKey(guildID int64, scheduleID string) string {
	return fmt.Sprintf("recurring:%d:%s", guildID, scheduleID)
}
