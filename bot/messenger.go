package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"giveabot/models"
	"giveabot/service"

	"github.com/bwmarrin/discordgo"
)

// ResolveChannel looks up a channel by ID
func (b *Bot) ResolveChannel(ctx context.Context, channelID int64) (*service.ChannelInfo, error) {
	channel, err := b.session.Channel(formatSnowflake(channelID))
	if err != nil {
		return nil, mapChannelError(err)
	}
	guildID, err := parseSnowflake(channel.GuildID)
	if err != nil {
		return nil, fmt.Errorf("channel %d has no guild: %w", channelID, service.ErrChannelNotFound)
	}
	return &service.ChannelInfo{
		ID:      channelID,
		GuildID: guildID,
		Name:    channel.Name,
	}, nil
}

// PostGiveaway sends the giveaway embed with its entry buttons
func (b *Bot) PostGiveaway(ctx context.Context, giveaway *models.Giveaway) (int64, error) {
	loc := b.svc.Timezone(giveaway.GuildID)
	msg, err := b.session.ChannelMessageSendComplex(formatSnowflake(giveaway.ChannelID), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{giveawayMessageEmbed(giveaway, loc)},
		Components: giveawayComponents(giveaway.ID),
	})
	if err != nil {
		return 0, mapChannelError(err)
	}
	messageID, err := parseSnowflake(msg.ID)
	if err != nil {
		return 0, fmt.Errorf("unexpected message ID %q: %w", msg.ID, err)
	}
	return messageID, nil
}

// UpdateGiveaway edits the giveaway message to match current state. Finished
// giveaways lose their entry buttons.
func (b *Bot) UpdateGiveaway(ctx context.Context, giveaway *models.Giveaway) error {
	loc := b.svc.Timezone(giveaway.GuildID)

	components := []discordgo.MessageComponent{}
	if giveaway.IsActive {
		components = giveawayComponents(giveaway.ID)
	}
	embeds := []*discordgo.MessageEmbed{giveawayMessageEmbed(giveaway, loc)}

	edit := &discordgo.MessageEdit{
		Channel: formatSnowflake(giveaway.ChannelID),
		ID:      formatSnowflake(giveaway.MessageID),
	}
	edit.Embeds = &embeds
	edit.Components = &components

	if _, err := b.session.ChannelMessageEditComplex(edit); err != nil {
		return mapChannelError(err)
	}
	return nil
}

// Announce sends a plain text message to a channel
func (b *Bot) Announce(ctx context.Context, channelID int64, content string) error {
	if _, err := b.session.ChannelMessageSend(formatSnowflake(channelID), content); err != nil {
		return mapChannelError(err)
	}
	return nil
}

// mapChannelError converts Discord "gone" and "forbidden" responses into
// ErrChannelNotFound so the service treats them as terminal
func mapChannelError(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusForbidden:
			return fmt.Errorf("%w: %v", service.ErrChannelNotFound, err)
		}
	}
	return err
}
