package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"giveabot/models"
	"giveabot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Values for the /giveaway-settings choices
const (
	settingTimezone     = "timezone"
	settingCooldownDays = "recent_winner_days"

	featureCooldown  = "recent_winner_cooldown"
	featureAutoDaily = "auto_daily"
)

// startTolerance is how close a requested start time must be to "now" for
// /giveaway-start to begin the giveaway immediately instead of scheduling it
const startTolerance = time.Minute

const localTimeLayout = "2006-01-02 15:04 MST"

func parseSnowflake(value string) (int64, error) {
	return strconv.ParseInt(value, 10, 64)
}

func formatSnowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}

// optionMap flattens interaction options by name
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	result := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		result[opt.Name] = opt
	}
	return result
}

// guildIDOf returns the interaction's guild ID, or 0 outside a guild
func guildIDOf(i *discordgo.InteractionCreate) int64 {
	if i.GuildID == "" || i.Member == nil {
		return 0
	}
	id, err := parseSnowflake(i.GuildID)
	if err != nil {
		return 0
	}
	return id
}

// actorFrom builds the authorization facts for the interacting member
func (b *Bot) actorFrom(s *discordgo.Session, i *discordgo.InteractionCreate) service.AdminActor {
	actor := service.AdminActor{}
	if i.Member == nil {
		return actor
	}
	if id, err := parseSnowflake(i.Member.User.ID); err == nil {
		actor.UserID = id
	}
	actor.Permissions = i.Member.Permissions
	for _, roleID := range i.Member.Roles {
		if id, err := parseSnowflake(roleID); err == nil {
			actor.RoleIDs = append(actor.RoleIDs, id)
		}
	}

	guild, err := s.State.Guild(i.GuildID)
	if err != nil || guild == nil {
		guild, err = s.Guild(i.GuildID)
	}
	if err == nil && guild != nil {
		if ownerID, err := parseSnowflake(guild.OwnerID); err == nil {
			actor.GuildOwnerID = ownerID
		}
	}
	return actor
}

// requireAdmin checks the actor and sends the denial itself. Returns false
// when the caller should stop.
func (b *Bot) requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	guildID := guildIDOf(i)
	if guildID == 0 {
		b.respondEphemeral(s, i, "This command can only be used in a guild.")
		return false
	}
	if !b.svc.IsAdmin(guildID, b.actorFrom(s, i)) {
		b.respondEphemeral(s, i, "You need giveaway admin permissions to use this command.")
		return false
	}
	return true
}

// resolveChannelArg resolves a channel given as a mention, an ID, or a name
func resolveChannelArg(s *discordgo.Session, guildID, arg string) (*discordgo.Channel, error) {
	value := strings.TrimSpace(arg)
	if strings.HasPrefix(value, "<#") && strings.HasSuffix(value, ">") {
		value = value[2 : len(value)-1]
	}

	if _, err := parseSnowflake(value); err == nil {
		channel, err := s.Channel(value)
		if err != nil || channel.GuildID != guildID {
			return nil, fmt.Errorf("no channel with ID %s found in this server", value)
		}
		return channel, nil
	}

	name := strings.TrimPrefix(value, "#")
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list server channels: %w", err)
	}
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(channel.Name, name) {
			return channel, nil
		}
	}
	return nil, fmt.Errorf("no text channel named %q found in this server", name)
}

// resolveWindow turns a pair of HH:MM wall-clock times into the concrete
// start and end instants for /giveaway-start. A start within one minute of
// now means "start immediately"; a start further in the past rolls to
// tomorrow. An end at or before the start crosses midnight.
func resolveWindow(loc *time.Location, start, end models.TimeOfDay, now time.Time) (immediate bool, startLocal, endLocal time.Time) {
	nowLocal := now.In(loc)

	startLocal = start.On(nowLocal, loc)
	if startLocal.Add(startTolerance).Before(nowLocal) {
		startLocal = startLocal.AddDate(0, 0, 1)
	}
	immediate = startLocal.Sub(nowLocal) <= startTolerance

	endLocal = end.On(startLocal, loc)
	if !endLocal.After(startLocal) {
		endLocal = endLocal.AddDate(0, 0, 1)
	}
	if immediate && !endLocal.After(nowLocal) {
		endLocal = endLocal.AddDate(0, 0, 1)
	}
	return immediate, startLocal, endLocal
}

// parseEndDateTime parses the /giveaway-edit end_time argument in the
// guild's timezone
func parseEndDateTime(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("end time must follow 'YYYY-MM-DD HH:MM' (24h) format")
	}
	return parsed, nil
}

func formatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(localTimeLayout)
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Warn("Error sending interaction response")
	}
}

func (b *Bot) deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Warn("Error deferring interaction response")
		return false
	}
	return true
}

func (b *Bot) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.WithError(err).Warn("Error sending follow-up message")
	}
}
