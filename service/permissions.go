package service

import (
	"sort"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// IsAdmin evaluates whether an actor may manage giveaways. Precedence, first
// match wins: guild owner, elevated permission bits, membership in the
// guild's admin role set (falling back to globally configured default roles).
// Every grant and denial is logged for auditability.
func (s *giveawayService) IsAdmin(guildID int64, actor AdminActor) bool {
	if actor.GuildOwnerID != 0 && actor.GuildOwnerID == actor.UserID {
		log.WithFields(log.Fields{"userID": actor.UserID, "guildID": guildID}).
			Debug("Actor is guild owner; treating as giveaway admin")
		return true
	}

	if actor.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageGuild) != 0 {
		log.WithFields(log.Fields{"userID": actor.UserID, "guildID": guildID}).
			Debug("Actor has administrative permissions; treating as giveaway admin")
		return true
	}

	adminRoles := s.adminRoleSet(guildID)
	if len(adminRoles) == 0 {
		log.WithFields(log.Fields{"userID": actor.UserID, "guildID": guildID}).
			Debug("No giveaway admin roles configured; denying actor")
		return false
	}

	var matched []int64
	for _, roleID := range actor.RoleIDs {
		if adminRoles[roleID] {
			matched = append(matched, roleID)
		}
	}
	if len(matched) > 0 {
		sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })
		log.WithFields(log.Fields{
			"userID":  actor.UserID,
			"guildID": guildID,
			"roles":   matched,
		}).Debug("Actor matched giveaway admin roles")
		return true
	}

	log.WithFields(log.Fields{
		"userID":     actor.UserID,
		"guildID":    guildID,
		"actorRoles": actor.RoleIDs,
	}).Warn("Actor lacks giveaway admin roles; denying")
	return false
}

// adminRoleSet returns the guild's admin roles, or the global defaults when
// the guild has none configured
func (s *giveawayService) adminRoleSet(guildID int64) map[int64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles := make(map[int64]bool)
	if guild := s.state.Guild(guildID); guild != nil {
		for _, id := range guild.AdminRoles {
			roles[id] = true
		}
	}
	if len(roles) == 0 {
		for _, id := range s.cfg.Permissions.AdminRoles {
			roles[id] = true
		}
	}
	return roles
}
