package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"giveabot/models"
	"giveabot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (b *Bot) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	ctx := context.Background()
	guildID := guildIDOf(i)
	opts := optionMap(i.ApplicationCommandData().Options)

	channel, err := resolveChannelArg(s, i.GuildID, opts["channel"].StringValue())
	if err != nil {
		b.respondEphemeral(s, i, err.Error())
		return
	}
	channelID, err := parseSnowflake(channel.ID)
	if err != nil {
		b.respondEphemeral(s, i, "Unable to resolve that channel.")
		return
	}

	winners := int(opts["winners"].IntValue())
	title := opts["title"].StringValue()
	description := opts["description"].StringValue()

	startTime, err := models.ParseTimeOfDay(strings.TrimSpace(opts["start"].StringValue()))
	if err != nil {
		b.respondEphemeral(s, i, "Start and end times must follow HH:MM (24h) format.")
		return
	}
	endTime, hasEnd := models.TimeOfDay{}, false
	if opt, ok := opts["end"]; ok {
		endTime, err = models.ParseTimeOfDay(strings.TrimSpace(opt.StringValue()))
		if err != nil {
			b.respondEphemeral(s, i, "Start and end times must follow HH:MM (24h) format.")
			return
		}
		hasEnd = true
	}

	runDaily := false
	if opt, ok := opts["run_daily"]; ok {
		runDaily = opt.BoolValue()
	}

	loc := b.svc.Timezone(guildID)
	var immediate bool
	var startLocal, endLocal time.Time
	if hasEnd {
		immediate, startLocal, endLocal = resolveWindow(loc, startTime, endTime, time.Now())
	} else {
		// No end given, run for the configured default duration
		immediate, startLocal, _ = resolveWindow(loc, startTime, startTime, time.Now())
		endLocal = startLocal.Add(time.Duration(b.cfg.ManualDefaults.DurationMinutes) * time.Minute)
		endTime = models.TimeOfDay{Hour: endLocal.Hour(), Minute: endLocal.Minute()}
	}

	if !b.deferEphemeral(s, i) {
		return
	}

	if runDaily {
		var lines []string
		if immediate {
			giveaway, err := b.svc.StartGiveaway(ctx, guildID, channelID, winners, title, description, endLocal.UTC(), "")
			if err != nil {
				b.followUp(s, i, userMessage(err))
				return
			}
			lines = append(lines, fmt.Sprintf("Giveaway `%s` started immediately in <#%s> and will end at %s.",
				giveaway.ID, channel.ID, formatLocal(giveaway.EndTime, loc)))
		} else {
			lines = append(lines, fmt.Sprintf("Recurring giveaway scheduled for %s in <#%s>.",
				formatLocal(startLocal, loc), channel.ID))
		}
		recurring, err := b.svc.ScheduleRecurring(ctx, guildID, channelID, winners, title, description, startTime, endTime)
		if err != nil {
			b.followUp(s, i, userMessage(err))
			return
		}
		lines = append(lines, fmt.Sprintf("Recurring schedule ID: `%s`. Next run: %s.",
			recurring.ID, formatLocal(recurring.NextStart, loc)))
		lines = append(lines, "Use /giveaway-disable with the schedule ID to pause daily runs.")
		b.followUp(s, i, strings.Join(lines, "\n"))
		return
	}

	if immediate {
		giveaway, err := b.svc.StartGiveaway(ctx, guildID, channelID, winners, title, description, endLocal.UTC(), "")
		if err != nil {
			b.followUp(s, i, userMessage(err))
			return
		}
		b.followUp(s, i, fmt.Sprintf("Giveaway `%s` started immediately in <#%s> and will end at %s.",
			giveaway.ID, channel.ID, formatLocal(giveaway.EndTime, loc)))
		return
	}

	pending, err := b.svc.SchedulePending(ctx, guildID, channelID, winners, title, description, startLocal.UTC(), endLocal.UTC())
	if err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	b.followUp(s, i, fmt.Sprintf("Giveaway **%s** scheduled for %s in <#%s> and set to end at %s. (Schedule ID: %s)",
		title, formatLocal(pending.StartTime, loc), channel.ID, formatLocal(pending.EndTime, loc), pending.ID))
}

func (b *Bot) handleEnd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)
	giveawayID := optionMap(i.ApplicationCommandData().Options)["giveaway_id"].StringValue()

	if !b.deferEphemeral(s, i) {
		return
	}
	if _, err := b.svc.EndGiveaway(context.Background(), guildID, giveawayID); err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	b.followUp(s, i, fmt.Sprintf("Giveaway `%s` ended.", giveawayID))
}

func (b *Bot) handleEdit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	ctx := context.Background()
	guildID := guildIDOf(i)
	opts := optionMap(i.ApplicationCommandData().Options)
	giveawayID := opts["giveaway_id"].StringValue()

	if !b.deferEphemeral(s, i) {
		return
	}

	update := service.GiveawayUpdate{}
	if opt, ok := opts["winners"]; ok {
		winners := int(opt.IntValue())
		update.Winners = &winners
	}
	if opt, ok := opts["title"]; ok {
		title := opt.StringValue()
		update.Title = &title
	}
	if opt, ok := opts["description"]; ok {
		description := opt.StringValue()
		update.Description = &description
	}
	if opt, ok := opts["end_time"]; ok {
		loc := b.svc.Timezone(guildID)
		endTime, err := parseEndDateTime(opt.StringValue(), loc)
		if err != nil {
			b.followUp(s, i, err.Error())
			return
		}
		utc := endTime.UTC()
		update.EndTime = &utc
	}

	if _, err := b.svc.UpdateGiveaway(ctx, guildID, giveawayID, update); err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	b.followUp(s, i, fmt.Sprintf("Giveaway `%s` updated.", giveawayID))
}

func (b *Bot) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := guildIDOf(i)
	if guildID == 0 {
		b.respondEphemeral(s, i, "This command is guild-only.")
		return
	}
	if !b.deferEphemeral(s, i) {
		return
	}

	giveaways, err := b.svc.ListGiveaways(context.Background(), guildID)
	if err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	if len(giveaways) == 0 {
		b.followUp(s, i, "No giveaways have been created yet.")
		return
	}

	loc := b.svc.Timezone(guildID)
	lines := make([]string, 0, len(giveaways))
	for _, g := range giveaways {
		status := "Active"
		if !g.IsActive {
			status = "Finished"
		}
		lines = append(lines, fmt.Sprintf("- `%s` • **%s** • %s • ends %s • %d participant(s)",
			g.ID, g.Title, status, formatLocal(g.EndTime, loc), len(g.Participants)))
	}
	b.followUp(s, i, strings.Join(lines, "\n"))
}

func (b *Bot) handleShow(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	ctx := context.Background()
	guildID := guildIDOf(i)
	id := strings.TrimSpace(optionMap(i.ApplicationCommandData().Options)["giveaway_id"].StringValue())
	loc := b.svc.Timezone(guildID)

	if !b.deferEphemeral(s, i) {
		return
	}

	var embed *discordgo.MessageEmbed
	if giveaway, err := b.svc.GetGiveaway(ctx, guildID, id); err == nil {
		embed = showGiveawayEmbed(giveaway, loc)
	} else if pending, err := b.svc.GetPending(ctx, guildID, id); err == nil {
		embed = showPendingEmbed(pending, loc)
	} else if recurring, err := b.svc.GetRecurring(ctx, guildID, id); err == nil {
		embed = showRecurringEmbed(recurring, loc)
	} else {
		b.followUp(s, i, "No giveaway, scheduled giveaway, or recurring schedule with that ID was found.")
		return
	}

	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.WithError(err).Warn("Error sending giveaway details")
	}
}

func (b *Bot) handleShowParticipants(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)
	giveawayID := optionMap(i.ApplicationCommandData().Options)["giveaway_id"].StringValue()

	if !b.deferEphemeral(s, i) {
		return
	}

	giveaway, err := b.svc.GetGiveaway(context.Background(), guildID, giveawayID)
	if err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	if len(giveaway.Participants) == 0 {
		b.followUp(s, i, "No participants yet.")
		return
	}
	lines := make([]string, 0, len(giveaway.Participants))
	for _, id := range giveaway.Participants {
		lines = append(lines, "- <@"+formatSnowflake(id)+">")
	}
	b.followUp(s, i, fmt.Sprintf("Participants for **%s** (`%s`):\n%s",
		giveaway.Title, giveaway.ID, strings.Join(lines, "\n")))
}

func (b *Bot) handleReroll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)
	giveawayID := optionMap(i.ApplicationCommandData().Options)["giveaway_id"].StringValue()

	if !b.deferEphemeral(s, i) {
		return
	}

	winners, err := b.svc.Reroll(context.Background(), guildID, giveawayID)
	if err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	if len(winners) == 0 {
		b.followUp(s, i, "No eligible participants were available to reroll.")
		return
	}
	b.followUp(s, i, fmt.Sprintf("Rerolled giveaway `%s`.", giveawayID))
}

func (b *Bot) handleLogger(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)

	channel, err := resolveChannelArg(s, i.GuildID, optionMap(i.ApplicationCommandData().Options)["channel"].StringValue())
	if err != nil {
		b.respondEphemeral(s, i, err.Error())
		return
	}
	channelID, err := parseSnowflake(channel.ID)
	if err != nil {
		b.respondEphemeral(s, i, "Unable to resolve that channel.")
		return
	}

	if !b.deferEphemeral(s, i) {
		return
	}
	if err := b.svc.SetLoggerChannel(context.Background(), guildID, channelID); err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	b.followUp(s, i, fmt.Sprintf("Logger channel set to <#%s>.", channel.ID))
}

func (b *Bot) handleCleanup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)

	if !b.deferEphemeral(s, i) {
		return
	}
	removed, err := b.svc.CleanupFinished(context.Background(), guildID)
	if err != nil {
		b.followUp(s, i, userMessage(err))
		return
	}
	if removed == 0 {
		b.followUp(s, i, "No finished giveaways found to remove.")
		return
	}
	b.followUp(s, i, fmt.Sprintf("Removed %d finished giveaway(s) from history.", removed))
}

func (b *Bot) handleAddAdminRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)
	role := optionMap(i.ApplicationCommandData().Options)["role"].RoleValue(s, i.GuildID)
	roleID, err := parseSnowflake(role.ID)
	if err != nil {
		b.respondEphemeral(s, i, "Unable to resolve that role.")
		return
	}

	added, err := b.svc.AddAdminRole(context.Background(), guildID, roleID)
	if err != nil {
		b.respondEphemeral(s, i, userMessage(err))
		return
	}
	if !added {
		b.respondEphemeral(s, i, fmt.Sprintf("<@&%s> already has giveaway management permissions.", role.ID))
		return
	}
	b.respondEphemeral(s, i, fmt.Sprintf("<@&%s> can now manage giveaways.", role.ID))
}

func (b *Bot) handleRemoveAdminRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)
	role := optionMap(i.ApplicationCommandData().Options)["role"].RoleValue(s, i.GuildID)
	roleID, err := parseSnowflake(role.ID)
	if err != nil {
		b.respondEphemeral(s, i, "Unable to resolve that role.")
		return
	}

	removed, err := b.svc.RemoveAdminRole(context.Background(), guildID, roleID)
	if err != nil {
		b.respondEphemeral(s, i, userMessage(err))
		return
	}
	if !removed {
		b.respondEphemeral(s, i, fmt.Sprintf("<@&%s> does not have giveaway management permissions.", role.ID))
		return
	}
	b.respondEphemeral(s, i, fmt.Sprintf("<@&%s> can no longer manage giveaways.", role.ID))
}

func (b *Bot) handleListAdminRoles(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)

	roles, err := b.svc.ListAdminRoles(context.Background(), guildID)
	if err != nil {
		b.respondEphemeral(s, i, userMessage(err))
		return
	}
	if len(roles) == 0 {
		b.respondEphemeral(s, i, "No giveaway admin roles are configured. Server admins can always manage giveaways.")
		return
	}
	mentions := make([]string, 0, len(roles))
	for _, id := range roles {
		mentions = append(mentions, "<@&"+formatSnowflake(id)+">")
	}
	b.respondEphemeral(s, i, "Giveaway admin roles: "+strings.Join(mentions, ", "))
}

func (b *Bot) handleEnableRecurring(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	ctx := context.Background()
	guildID := guildIDOf(i)
	scheduleID := strings.TrimSpace(optionMap(i.ApplicationCommandData().Options)["schedule_id"].StringValue())

	if !b.deferEphemeral(s, i) {
		return
	}

	changed, err := b.svc.EnableRecurring(ctx, guildID, scheduleID)
	if err != nil {
		if errors.Is(err, service.ErrRecurringNotFound) {
			b.followUp(s, i, "No recurring giveaway with that ID was found for this server.")
			return
		}
		b.followUp(s, i, userMessage(err))
		return
	}
	if !changed {
		b.followUp(s, i, "That recurring giveaway is already enabled.")
		return
	}

	message := "Recurring giveaway enabled."
	if recurring, err := b.svc.GetRecurring(ctx, guildID, scheduleID); err == nil {
		loc := b.svc.Timezone(guildID)
		message += " Next run: " + formatLocal(recurring.NextStart, loc) + "."
	}
	b.followUp(s, i, message)
}

func (b *Bot) handleDisableRecurring(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	guildID := guildIDOf(i)
	scheduleID := strings.TrimSpace(optionMap(i.ApplicationCommandData().Options)["schedule_id"].StringValue())

	if !b.deferEphemeral(s, i) {
		return
	}

	changed, err := b.svc.DisableRecurring(context.Background(), guildID, scheduleID)
	if err != nil {
		if errors.Is(err, service.ErrRecurringNotFound) {
			b.followUp(s, i, "No recurring giveaway with that ID was found for this server.")
			return
		}
		b.followUp(s, i, userMessage(err))
		return
	}
	if !changed {
		b.followUp(s, i, "That recurring giveaway is already disabled.")
		return
	}
	b.followUp(s, i, "Recurring giveaway disabled. Use /giveaway-enable to resume it.")
}

func (b *Bot) handleSettings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch sub.Name {
	case "set":
		b.handleSettingsSet(s, i, optionMap(sub.Options))
	case "get":
		b.handleSettingsGet(s, i)
	case "enable":
		b.handleSettingsToggle(s, i, optionMap(sub.Options), true)
	case "disable":
		b.handleSettingsToggle(s, i, optionMap(sub.Options), false)
	}
}

func (b *Bot) handleSettingsSet(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()
	guildID := guildIDOf(i)
	setting := opts["setting"].StringValue()
	value := strings.TrimSpace(opts["value"].StringValue())

	switch setting {
	case settingTimezone:
		if err := b.svc.SetTimezone(ctx, guildID, value); err != nil {
			if errors.Is(err, service.ErrInvalidTimezone) {
				b.respondEphemeral(s, i, fmt.Sprintf("`%s` is not a valid IANA timezone name.", value))
				return
			}
			b.respondEphemeral(s, i, userMessage(err))
			return
		}
		loc := b.svc.Timezone(guildID)
		b.respondEphemeral(s, i, fmt.Sprintf("Timezone updated to `%s`. Local time is now %s.",
			value, formatLocal(time.Now(), loc)))

	case settingCooldownDays:
		days, err := strconv.Atoi(value)
		if err != nil {
			b.respondEphemeral(s, i, "Cooldown days must be a whole number.")
			return
		}
		if err := b.svc.SetCooldownDays(ctx, guildID, days); err != nil {
			if errors.Is(err, service.ErrNegativeCooldownDays) {
				b.respondEphemeral(s, i, "Cooldown days must be zero or greater.")
				return
			}
			b.respondEphemeral(s, i, userMessage(err))
			return
		}
		settings, err := b.svc.GetSettings(ctx, guildID)
		if err != nil {
			b.respondEphemeral(s, i, userMessage(err))
			return
		}
		status := "disabled"
		if settings.RecentWinnerCooldownEnabled {
			status = "enabled"
		}
		b.respondEphemeral(s, i, fmt.Sprintf("Recent winner cooldown threshold set to %d day(s). The feature is currently %s.",
			days, status))

	default:
		b.respondEphemeral(s, i, "Unsupported setting selected.")
	}
}

func (b *Bot) handleSettingsGet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := guildIDOf(i)
	settings, err := b.svc.GetSettings(context.Background(), guildID)
	if err != nil {
		b.respondEphemeral(s, i, userMessage(err))
		return
	}

	cooldownState := fmt.Sprintf("Disabled (%d day threshold)", settings.RecentWinnerCooldownDays)
	if settings.RecentWinnerCooldownEnabled {
		cooldownState = fmt.Sprintf("Enabled (%d day cooldown)", settings.RecentWinnerCooldownDays)
	}
	auto := "Disabled"
	if settings.AutoEnabled {
		auto = "Enabled"
	}
	b.respondEphemeral(s, i, fmt.Sprintf(
		"Current giveaway settings:\n- Timezone: `%s`\n- Daily automation: %s\n- Recent winner cooldown: %s",
		settings.Timezone, auto, cooldownState))
}

func (b *Bot) handleSettingsToggle(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, enable bool) {
	ctx := context.Background()
	guildID := guildIDOf(i)
	feature := opts["feature"].StringValue()

	switch feature {
	case featureCooldown:
		changed, err := b.svc.SetCooldownEnabled(ctx, guildID, enable)
		if err != nil {
			b.respondEphemeral(s, i, userMessage(err))
			return
		}
		switch {
		case !changed && enable:
			b.respondEphemeral(s, i, "Recent winner cooldown is already enabled.")
		case !changed:
			b.respondEphemeral(s, i, "Recent winner cooldown is already disabled.")
		case enable:
			settings, err := b.svc.GetSettings(ctx, guildID)
			if err != nil {
				b.respondEphemeral(s, i, userMessage(err))
				return
			}
			b.respondEphemeral(s, i, fmt.Sprintf("Recent winner cooldown enabled (%d day threshold).",
				settings.RecentWinnerCooldownDays))
		default:
			b.respondEphemeral(s, i, "Recent winner cooldown disabled.")
		}

	case featureAutoDaily:
		settings, err := b.svc.GetSettings(ctx, guildID)
		if err != nil {
			b.respondEphemeral(s, i, userMessage(err))
			return
		}
		if settings.AutoEnabled == enable {
			if enable {
				b.respondEphemeral(s, i, "Daily automation is already enabled.")
			} else {
				b.respondEphemeral(s, i, "Daily automation is already disabled.")
			}
			return
		}
		if err := b.svc.ToggleAuto(ctx, guildID, enable); err != nil {
			b.respondEphemeral(s, i, userMessage(err))
			return
		}
		if enable {
			b.respondEphemeral(s, i, "Daily automation has been enabled.")
		} else {
			b.respondEphemeral(s, i, "Daily automation has been disabled.")
		}

	default:
		b.respondEphemeral(s, i, "Unsupported feature selected.")
	}
}

// userMessage maps service errors onto messages safe to show the caller
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrGiveawayNotFound):
		return "Giveaway not found."
	case errors.Is(err, service.ErrPendingNotFound):
		return "Scheduled giveaway not found."
	case errors.Is(err, service.ErrRecurringNotFound):
		return "No recurring giveaway with that ID was found for this server."
	case errors.Is(err, service.ErrChannelNotFound):
		return "That channel no longer exists or the bot cannot post in it."
	case errors.Is(err, service.ErrGiveawayActive):
		return "End the giveaway before rerolling winners."
	case errors.Is(err, service.ErrGiveawayFinished):
		return "That giveaway has already finished."
	case errors.Is(err, service.ErrWinnersNotPositive):
		return "Winners must be greater than zero."
	case errors.Is(err, service.ErrEndBeforeStart):
		return "The end time must be after the start time."
	case errors.Is(err, service.ErrNegativeCooldownDays):
		return "Cooldown days must be zero or greater."
	default:
		log.WithError(err).Error("Command failed")
		return "Something went wrong. Please try again."
	}
}
