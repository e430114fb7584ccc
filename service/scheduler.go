package service

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

const scheduleRunDateLayout = "2006-01-02"

// HandleScheduled fires config-defined daily giveaways that are due. Each
// schedule fires at most once per calendar day in the guild's timezone; runs
// are recorded in persisted state so a restart cannot double-fire a day.
func (s *giveawayService) HandleScheduled(ctx context.Context) {
	if !s.cfg.Scheduling.AutoEnabled || len(s.cfg.Scheduling.Giveaways) == 0 {
		return
	}

	now := time.Now().UTC()
	for _, entry := range s.cfg.Scheduling.Giveaways {
		if !entry.Enabled {
			continue
		}

		channel, err := s.messenger.ResolveChannel(ctx, entry.ChannelID)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"scheduleID": entry.ID,
				"channelID":  entry.ChannelID,
			}).Warn("Cannot resolve channel for scheduled giveaway; skipping")
			continue
		}
		guildID := channel.GuildID

		s.mu.Lock()
		guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
		autoEnabled := guild.AutoEnabled
		loc := s.locationLocked(guildID)
		today := now.In(loc).Format(scheduleRunDateLayout)
		lastRun := guild.ScheduleRuns[entry.ID]
		running := false
		for _, g := range guild.Giveaways {
			if g.IsActive && g.ScheduledID == entry.ID {
				running = true
				break
			}
		}
		s.mu.Unlock()

		if !autoEnabled || lastRun == today || running {
			continue
		}

		startTime, endTime := TodayWindow(loc, entry.StartTime, entry.EndTime, now)
		if now.Before(startTime) {
			continue
		}
		if !endTime.After(now) {
			// The whole window already passed today, e.g. the bot was down.
			// Record the day so tomorrow's window fires normally.
			log.WithFields(log.Fields{
				"scheduleID": entry.ID,
				"guildID":    guildID,
				"window":     entry.StartTime.String() + "-" + entry.EndTime.String(),
			}).Warn("Scheduled giveaway window already passed; skipping today's run")
			s.recordScheduleRun(ctx, guildID, entry.ID, today)
			continue
		}

		if _, err := s.StartGiveaway(ctx, guildID, entry.ChannelID, entry.Winners, entry.Title, entry.Description, endTime, entry.ID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"scheduleID": entry.ID,
				"guildID":    guildID,
			}).Error("Failed to start scheduled giveaway")
			continue
		}
		s.recordScheduleRun(ctx, guildID, entry.ID, today)
	}
}

func (s *giveawayService) recordScheduleRun(ctx context.Context, guildID int64, scheduleID, day string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.state.EnsureGuild(guildID, s.cfg.DefaultTimezone, s.cfg.Permissions.AdminRoles)
	guild.ScheduleRuns[scheduleID] = day
	if err := s.saveLocked(ctx); err != nil {
		log.WithError(err).WithField("scheduleID", scheduleID).Error("Failed to persist schedule run marker")
	}
}

// AuditOverdue repairs state after missed timers or an interrupted shutdown:
// active giveaways past their end time are finished, and finished giveaways
// with participants but no recorded winners are finalized. Anything with a
// recorded winner list is left alone; only a reroll may replace winners.
func (s *giveawayService) AuditOverdue(ctx context.Context) {
	now := time.Now().UTC()

	type target struct {
		guildID    int64
		giveawayID string
	}
	var overdue, interrupted []target

	s.mu.Lock()
	for guildID, guild := range s.state.Guilds {
		for _, g := range guild.Giveaways {
			switch {
			case g.IsActive && !g.EndTime.After(now):
				overdue = append(overdue, target{guildID, g.ID})
			case !g.IsActive && !g.WinnersDrawn && len(g.LastAnnouncedWinners) == 0 && len(g.Participants) > 0:
				interrupted = append(interrupted, target{guildID, g.ID})
			}
		}
	}
	s.mu.Unlock()

	for _, t := range overdue {
		log.WithFields(log.Fields{"giveawayID": t.giveawayID, "guildID": t.guildID}).
			Warn("Found overdue active giveaway; finishing it now")
		if _, err := s.EndGiveaway(ctx, t.guildID, t.giveawayID); err != nil && !errors.Is(err, ErrGiveawayNotFound) {
			log.WithError(err).WithField("giveawayID", t.giveawayID).Error("Failed to finish overdue giveaway")
		}
	}
	for _, t := range interrupted {
		log.WithFields(log.Fields{"giveawayID": t.giveawayID, "guildID": t.guildID}).
			Warn("Found finished giveaway with no completed draw; finalizing it now")
		if _, err := s.finalize(ctx, t.guildID, t.giveawayID); err != nil && !errors.Is(err, ErrGiveawayNotFound) {
			log.WithError(err).WithField("giveawayID", t.giveawayID).Error("Failed to finalize interrupted giveaway")
		}
	}
}
