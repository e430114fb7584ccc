package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"giveabot/models"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorActive   = 0x5865F2 // Discord blurple
	ColorFinished = 0x99AAB5 // Gray
	ColorInfo     = 0x57F287 // Green
)

// participantPreviewCap bounds the participant list rendered in
// /giveaway-show before it is truncated with a count
const participantPreviewCap = 20

// giveawayMessageEmbed builds the public giveaway message embed
func giveawayMessageEmbed(g *models.Giveaway, loc *time.Location) *discordgo.MessageEmbed {
	status := "Active"
	color := ColorActive
	if !g.IsActive {
		status = "Finished"
		color = ColorFinished
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Winners", Value: strconv.Itoa(g.Winners), Inline: true},
		{Name: "Participants", Value: strconv.Itoa(len(g.Participants)), Inline: true},
		{Name: "Ends At", Value: formatLocal(g.EndTime, loc), Inline: false},
		{Name: "Status", Value: status, Inline: true},
	}
	if !g.IsActive && len(g.LastAnnouncedWinners) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Winner(s)",
			Value:  mentionList(g.LastAnnouncedWinners, " "),
			Inline: false,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       g.Title,
		Description: g.Description,
		Color:       color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Giveaway ID: " + g.ID},
	}
}

// giveawayComponents builds the entry buttons shown under an active giveaway
func giveawayComponents(giveawayID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Join 🎉",
					Style:    discordgo.SuccessButton,
					CustomID: "giveaway:join:" + giveawayID,
				},
				discordgo.Button{
					Label:    "Leave",
					Style:    discordgo.SecondaryButton,
					CustomID: "giveaway:leave:" + giveawayID,
				},
				discordgo.Button{
					Label:    "Participants",
					Style:    discordgo.PrimaryButton,
					CustomID: "giveaway:info:" + giveawayID,
				},
			},
		},
	}
}

// showGiveawayEmbed builds the admin detail view of a giveaway
func showGiveawayEmbed(g *models.Giveaway, loc *time.Location) *discordgo.MessageEmbed {
	status := "Active"
	color := ColorActive
	if !g.IsActive {
		status = "Finished"
		color = ColorFinished
	}

	embed := &discordgo.MessageEmbed{
		Title:       g.Title,
		Description: g.Description,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Channel", Value: "<#" + formatSnowflake(g.ChannelID) + ">", Inline: true},
			{Name: "Planned Winners", Value: strconv.Itoa(g.Winners), Inline: true},
			{Name: "Participant Count", Value: strconv.Itoa(len(g.Participants)), Inline: true},
			{Name: "Created At", Value: formatLocal(g.CreatedAt, loc), Inline: false},
			{Name: "Ends At", Value: formatLocal(g.EndTime, loc), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Giveaway ID: " + g.ID},
	}
	if g.ScheduledID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Scheduled Source", Value: g.ScheduledID, Inline: false,
		})
	}
	if !g.IsActive && len(g.LastAnnouncedWinners) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Winner(s)", Value: mentionList(g.LastAnnouncedWinners, " "), Inline: false,
		})
	}
	if len(g.Participants) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Participants", Value: participantPreview(g.Participants), Inline: false,
		})
	}
	return embed
}

// showPendingEmbed builds the admin detail view of a pending giveaway
func showPendingEmbed(p *models.PendingGiveaway, loc *time.Location) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
		Color:       ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: "Scheduled", Inline: true},
			{Name: "Channel", Value: "<#" + formatSnowflake(p.ChannelID) + ">", Inline: true},
			{Name: "Planned Winners", Value: strconv.Itoa(p.Winners), Inline: true},
			{Name: "Starts At", Value: formatLocal(p.StartTime, loc), Inline: false},
			{Name: "Ends At", Value: formatLocal(p.EndTime, loc), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Giveaway ID: " + p.ID},
	}
}

// showRecurringEmbed builds the admin detail view of a recurring schedule
func showRecurringEmbed(r *models.RecurringGiveaway, loc *time.Location) *discordgo.MessageEmbed {
	status := "Enabled"
	if !r.Enabled {
		status = "Disabled"
	}
	return &discordgo.MessageEmbed{
		Title:       r.Title,
		Description: r.Description,
		Color:       ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Channel", Value: "<#" + formatSnowflake(r.ChannelID) + ">", Inline: true},
			{Name: "Planned Winners", Value: strconv.Itoa(r.Winners), Inline: true},
			{Name: "Daily Window", Value: r.StartTime.String() + " - " + r.EndTime.String(), Inline: false},
			{Name: "Next Run", Value: formatLocal(r.NextStart, loc), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Schedule ID: " + r.ID},
	}
}

// participantPreview renders up to participantPreviewCap mentions and a
// truncation note for the rest
func participantPreview(participants []int64) string {
	shown := participants
	if len(shown) > participantPreviewCap {
		shown = shown[:participantPreviewCap]
	}
	lines := make([]string, 0, len(shown)+1)
	for _, id := range shown {
		lines = append(lines, "- <@"+formatSnowflake(id)+">")
	}
	if remaining := len(participants) - len(shown); remaining > 0 {
		lines = append(lines, fmt.Sprintf("…and %d more", remaining))
	}
	return strings.Join(lines, "\n")
}

func mentionList(ids []int64, sep string) string {
	mentions := make([]string, 0, len(ids))
	for _, id := range ids {
		mentions = append(mentions, "<@"+formatSnowflake(id)+">")
	}
	return strings.Join(mentions, sep)
}
