package bot

import (
	"context"
	"errors"
	"strings"

	"giveabot/service"

	"github.com/bwmarrin/discordgo"
)

// handleComponents dispatches the entry buttons under giveaway messages.
// Custom IDs follow "giveaway:<action>:<giveaway_id>".
func (b *Bot) handleComponents(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	parts := strings.SplitN(i.MessageComponentData().CustomID, ":", 3)
	if len(parts) != 3 || parts[0] != "giveaway" {
		return
	}
	action, giveawayID := parts[1], parts[2]

	guildID := guildIDOf(i)
	if guildID == 0 {
		b.respondEphemeral(s, i, "Giveaways can only be entered inside a server.")
		return
	}
	userID, err := parseSnowflake(i.Member.User.ID)
	if err != nil {
		b.respondEphemeral(s, i, "Unable to identify your account.")
		return
	}

	switch action {
	case "join":
		b.handleJoin(s, i, guildID, giveawayID, userID)
	case "leave":
		b.handleLeave(s, i, guildID, giveawayID, userID)
	case "info":
		b.handleParticipantsButton(s, i, guildID, giveawayID)
	}
}

func (b *Bot) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64, giveawayID string, userID int64) {
	err := b.svc.JoinGiveaway(context.Background(), guildID, giveawayID, userID)
	switch {
	case err == nil:
		b.respondEphemeral(s, i, "You joined the giveaway! 🎉")
	case errors.Is(err, service.ErrAlreadyEntered):
		b.respondEphemeral(s, i, "You're already entered in this giveaway.")
	case errors.Is(err, service.ErrGiveawayFinished):
		b.respondEphemeral(s, i, "This giveaway has already ended.")
	case errors.Is(err, service.ErrGiveawayNotFound):
		b.respondEphemeral(s, i, "This giveaway no longer exists.")
	default:
		b.respondEphemeral(s, i, userMessage(err))
	}
}

func (b *Bot) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64, giveawayID string, userID int64) {
	err := b.svc.LeaveGiveaway(context.Background(), guildID, giveawayID, userID)
	switch {
	case err == nil:
		b.respondEphemeral(s, i, "You left the giveaway.")
	case errors.Is(err, service.ErrNotEntered):
		b.respondEphemeral(s, i, "You're not entered in this giveaway.")
	case errors.Is(err, service.ErrGiveawayFinished):
		b.respondEphemeral(s, i, "This giveaway has already ended.")
	case errors.Is(err, service.ErrGiveawayNotFound):
		b.respondEphemeral(s, i, "This giveaway no longer exists.")
	default:
		b.respondEphemeral(s, i, userMessage(err))
	}
}

// handleParticipantsButton shows the participant list. The button is visible
// to everyone, so the list stays admin-only.
func (b *Bot) handleParticipantsButton(s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64, giveawayID string) {
	if !b.svc.IsAdmin(guildID, b.actorFrom(s, i)) {
		b.respondEphemeral(s, i, "Only giveaway admins can view the participant list.")
		return
	}

	giveaway, err := b.svc.GetGiveaway(context.Background(), guildID, giveawayID)
	if err != nil {
		b.respondEphemeral(s, i, userMessage(err))
		return
	}
	if len(giveaway.Participants) == 0 {
		b.respondEphemeral(s, i, "No participants yet.")
		return
	}
	b.respondEphemeral(s, i, "Participants:\n"+participantPreview(giveaway.Participants))
}
