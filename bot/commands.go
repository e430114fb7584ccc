package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "giveaway-start",
			Description: "Start a new giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "Channel to post the giveaway in (mention, ID, or name)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "winners",
					Description: "Number of winners to draw",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Title for the giveaway embed",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Description for the giveaway",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "start",
					Description: "Start time in HH:MM (24h)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "end",
					Description: "End time in HH:MM (24h); defaults to the configured duration after start",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "run_daily",
					Description: "Repeat this giveaway every day at the provided times",
					Required:    false,
				},
			},
		},
		{
			Name:        "giveaway-end",
			Description: "End a giveaway immediately",
			Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption("Identifier of the giveaway to end")},
		},
		{
			Name:        "giveaway-edit",
			Description: "Edit giveaway details",
			Options: []*discordgo.ApplicationCommandOption{
				giveawayIDOption("Identifier of the giveaway to edit"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "winners",
					Description: "New number of winners",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Updated title",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Updated description",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "end_time",
					Description: "New end time in 'YYYY-MM-DD HH:MM' (24h)",
					Required:    false,
				},
			},
		},
		{
			Name:        "giveaway-list",
			Description: "List all configured giveaways",
		},
		{
			Name:        "giveaway-show",
			Description: "Display details about a giveaway",
			Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption("Identifier of the giveaway to display")},
		},
		{
			Name:        "giveaway-show-participants",
			Description: "Show who has joined a giveaway",
			Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption("Identifier of the giveaway to inspect")},
		},
		{
			Name:        "giveaway-reroll",
			Description: "Reroll winners for a finished giveaway",
			Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption("Identifier of the giveaway to reroll")},
		},
		{
			Name:        "giveaway-logger",
			Description: "Set the giveaway log channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "Channel for log messages (mention, ID, or name)",
					Required:    true,
				},
			},
		},
		{
			Name:        "giveaway-cleanup",
			Description: "Remove finished giveaways from the bot history",
		},
		{
			Name:        "giveaway-add-admin-role",
			Description: "Grant a role giveaway management permissions",
			Options:     []*discordgo.ApplicationCommandOption{adminRoleOption("Role to grant giveaway management permissions")},
		},
		{
			Name:        "giveaway-remove-admin-role",
			Description: "Revoke a role's giveaway management permissions",
			Options:     []*discordgo.ApplicationCommandOption{adminRoleOption("Role to revoke giveaway management permissions from")},
		},
		{
			Name:        "giveaway-list-admin-roles",
			Description: "List roles with giveaway management permissions",
		},
		{
			Name:        "giveaway-enable",
			Description: "Enable a recurring giveaway schedule",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "schedule_id",
					Description: "Identifier of the recurring giveaway schedule to enable",
					Required:    true,
				},
			},
		},
		{
			Name:        "giveaway-disable",
			Description: "Disable a recurring giveaway schedule",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "schedule_id",
					Description: "Identifier of the recurring giveaway schedule to disable",
					Required:    true,
				},
			},
		},
		{
			Name:        "giveaway-settings",
			Description: "Manage giveaway-wide settings",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Set a giveaway configuration value",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "setting",
							Description: "Which setting to update",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Time zone", Value: settingTimezone},
								{Name: "Recent winner cooldown days", Value: settingCooldownDays},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "value",
							Description: "New value: an IANA timezone name, or an integer number of days",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "get",
					Description: "Show current giveaway settings",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "enable",
					Description: "Enable a giveaway feature toggle",
					Options:     []*discordgo.ApplicationCommandOption{featureToggleOption("Feature to enable")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "disable",
					Description: "Disable a giveaway feature toggle",
					Options:     []*discordgo.ApplicationCommandOption{featureToggleOption("Feature to disable")},
				},
			},
		},
	}

	guildID := b.commandGuildID()
	for _, cmd := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, guildID, cmd); err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}

func giveawayIDOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "giveaway_id",
		Description: description,
		Required:    true,
	}
}

func adminRoleOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: description,
		Required:    true,
	}
}

func featureToggleOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "feature",
		Description: description,
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Recent winner cooldown", Value: featureCooldown},
			{Name: "Daily automation", Value: featureAutoDaily},
		},
	}
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "giveaway-start":
		b.handleStart(s, i)
	case "giveaway-end":
		b.handleEnd(s, i)
	case "giveaway-edit":
		b.handleEdit(s, i)
	case "giveaway-list":
		b.handleList(s, i)
	case "giveaway-show":
		b.handleShow(s, i)
	case "giveaway-show-participants":
		b.handleShowParticipants(s, i)
	case "giveaway-reroll":
		b.handleReroll(s, i)
	case "giveaway-logger":
		b.handleLogger(s, i)
	case "giveaway-cleanup":
		b.handleCleanup(s, i)
	case "giveaway-add-admin-role":
		b.handleAddAdminRole(s, i)
	case "giveaway-remove-admin-role":
		b.handleRemoveAdminRole(s, i)
	case "giveaway-list-admin-roles":
		b.handleListAdminRoles(s, i)
	case "giveaway-enable":
		b.handleEnableRecurring(s, i)
	case "giveaway-disable":
		b.handleDisableRecurring(s, i)
	case "giveaway-settings":
		b.handleSettings(s, i)
	}
}
