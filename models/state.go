package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecentWinner records a single winner draw, used to enforce the recent
// winner cooldown when drawing future winners
type RecentWinner struct {
	UserID     int64     `json:"user_id"`
	GiveawayID string    `json:"giveaway_id"`
	WonAt      time.Time `json:"won_at"`
}

// GuildState aggregates all giveaway state and settings for a single guild
type GuildState struct {
	AutoEnabled                 bool                 `json:"auto_enabled"`
	Timezone                    string               `json:"timezone"`
	LoggerChannelID             int64                `json:"logger_channel_id,omitempty"`
	ScheduleRuns                map[string]string    `json:"schedule_runs"`
	Giveaways                   []*Giveaway          `json:"giveaways"`
	PendingGiveaways            []*PendingGiveaway   `json:"pending_giveaways"`
	RecurringGiveaways          []*RecurringGiveaway `json:"recurring_giveaways"`
	AdminRoles                  []int64              `json:"admin_roles"`
	RecentWinnerCooldownEnabled bool                 `json:"recent_winner_cooldown_enabled"`
	RecentWinnerCooldownDays    int                  `json:"recent_winner_cooldown_days"`
	RecentWinners               []*RecentWinner      `json:"recent_winners"`
}

// NewGuildState creates a guild state with defaults applied
func NewGuildState(timezone string, adminRoles []int64) *GuildState {
	roles := make([]int64, 0, len(adminRoles))
	seen := make(map[int64]bool, len(adminRoles))
	for _, id := range adminRoles {
		if !seen[id] {
			seen[id] = true
			roles = append(roles, id)
		}
	}
	return &GuildState{
		AutoEnabled:  true,
		Timezone:     timezone,
		ScheduleRuns: make(map[string]string),
		AdminRoles:   roles,
	}
}

// HasAdminRole checks whether a role is in the guild's admin role set
func (s *GuildState) HasAdminRole(roleID int64) bool {
	for _, id := range s.AdminRoles {
		if id == roleID {
			return true
		}
	}
	return false
}

// BotState is the root container for all guild states tracked by the bot
type BotState struct {
	Guilds map[int64]*GuildState `json:"guilds"`
}

// NewBotState creates an empty state tree
func NewBotState() *BotState {
	return &BotState{Guilds: make(map[int64]*GuildState)}
}

// Guild returns the state for a guild, or nil when unknown
func (b *BotState) Guild(guildID int64) *GuildState {
	return b.Guilds[guildID]
}

// EnsureGuild returns an existing guild state or creates one seeded with the
// given timezone and default admin roles
func (b *BotState) EnsureGuild(guildID int64, timezone string, defaultAdminRoles []int64) *GuildState {
	if state, ok := b.Guilds[guildID]; ok {
		return state
	}
	state := NewGuildState(timezone, defaultAdminRoles)
	b.Guilds[guildID] = state
	return state
}

// GetGiveaway retrieves a giveaway by ID, returning nil when unknown
func (b *BotState) GetGiveaway(guildID int64, giveawayID string) *Giveaway {
	state := b.Guild(guildID)
	if state == nil {
		return nil
	}
	for _, g := range state.Giveaways {
		if g.ID == giveawayID {
			return g
		}
	}
	return nil
}

// UpsertGiveaway inserts or replaces a giveaway within its guild state
func (b *BotState) UpsertGiveaway(g *Giveaway, timezone string, defaultAdminRoles []int64) {
	state := b.EnsureGuild(g.GuildID, timezone, defaultAdminRoles)
	for i, existing := range state.Giveaways {
		if existing.ID == g.ID {
			state.Giveaways[i] = g
			return
		}
	}
	state.Giveaways = append(state.Giveaways, g)
}

// RemoveGiveaway removes and returns a giveaway, or nil when unknown
func (b *BotState) RemoveGiveaway(guildID int64, giveawayID string) *Giveaway {
	state := b.Guild(guildID)
	if state == nil {
		return nil
	}
	for i, g := range state.Giveaways {
		if g.ID == giveawayID {
			state.Giveaways = append(state.Giveaways[:i], state.Giveaways[i+1:]...)
			return g
		}
	}
	return nil
}

// ListActive returns all active giveaways for a guild
func (b *BotState) ListActive(guildID int64) []*Giveaway {
	state := b.Guild(guildID)
	if state == nil {
		return nil
	}
	var active []*Giveaway
	for _, g := range state.Giveaways {
		if g.IsActive {
			active = append(active, g)
		}
	}
	return active
}

// ListAll returns all giveaways tracked for a guild
func (b *BotState) ListAll(guildID int64) []*Giveaway {
	state := b.Guild(guildID)
	if state == nil {
		return nil
	}
	return append([]*Giveaway(nil), state.Giveaways...)
}

// GetPending retrieves a pending giveaway by ID
func (b *BotState) GetPending(guildID int64, pendingID string) *PendingGiveaway {
	state := b.Guild(guildID)
	if state == nil {
		return nil
	}
	for _, p := range state.PendingGiveaways {
		if p.ID == pendingID {
			return p
		}
	}
	return nil
}

// UpsertPending inserts or replaces a pending giveaway
func (b *BotState) UpsertPending(p *PendingGiveaway, timezone string, defaultAdminRoles []int64) {
	state := b.EnsureGuild(p.GuildID, timezone, defaultAdminRoles)
	for i, existing := range state.PendingGiveaways {
		if existing.ID == p.ID {
			state.PendingGiveaways[i] = p
			return
		}
	}
	state.PendingGiveaways = append(state.PendingGiveaways, p)
}

// RemovePending removes and returns a pending giveaway, or nil when unknown
func (b *BotState) RemovePending(guildID int64, pendingID string) *PendingGiveaway {
	state := b.Guild(guildID)
	if state == nil {
		return nil
	}
	for i, p := range state.PendingGiveaways {
		if p.ID == pendingID {
			state.PendingGiveaways = append(state.PendingGiveaways[:i], state.PendingGiveaways[i+1:]...)
			return p
		}
	}
	return nil
}

// GetRecurring retrieves a recurring schedule by ID
func (b *BotState) GetRecurring(guildID int64, scheduleID string) *RecurringGiveaway {
	state := b.Guild(guildID)
	if state == nil {
		return nil
	}
	for _, r := range state.RecurringGiveaways {
		if r.ID == scheduleID {
			return r
		}
	}
	return nil
}

// UpsertRecurring inserts or replaces a recurring schedule
func (b *BotState) UpsertRecurring(r *RecurringGiveaway, timezone string, defaultAdminRoles []int64) {
	state := b.EnsureGuild(r.GuildID, timezone, defaultAdminRoles)
	for i, existing := range state.RecurringGiveaways {
		if existing.ID == r.ID {
			state.RecurringGiveaways[i] = r
			return
		}
	}
	state.RecurringGiveaways = append(state.RecurringGiveaways, r)
}

// DecodeState deserializes a persisted state payload. Legacy flat payloads
// (single guild, no "guilds" key) are migrated to the per-guild tree.
func DecodeState(data []byte) (*BotState, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode state payload: %w", err)
	}

	if raw, ok := probe["guilds"]; ok {
		state := NewBotState()
		if err := json.Unmarshal(raw, &state.Guilds); err != nil {
			return nil, fmt.Errorf("failed to decode guild states: %w", err)
		}
		for _, guild := range state.Guilds {
			guild.normalize()
		}
		return state, nil
	}

	var legacy GuildState
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy state payload: %w", err)
	}
	legacy.normalize()
	return migrateLegacyState(&legacy), nil
}

// EncodeState serializes the state tree for persistence
func EncodeState(state *BotState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// migrateLegacyState converts a flat single-guild payload into the per-guild
// tree by grouping entities on their guild IDs. Settings from the flat payload
// are copied to every resulting guild.
func migrateLegacyState(legacy *GuildState) *BotState {
	state := NewBotState()

	ensure := func(guildID int64) *GuildState {
		if existing, ok := state.Guilds[guildID]; ok {
			return existing
		}
		created := NewGuildState(legacy.Timezone, nil)
		state.Guilds[guildID] = created
		return created
	}

	for _, g := range legacy.Giveaways {
		target := ensure(g.GuildID)
		target.Giveaways = append(target.Giveaways, g)
	}
	for _, p := range legacy.PendingGiveaways {
		target := ensure(p.GuildID)
		target.PendingGiveaways = append(target.PendingGiveaways, p)
	}
	for _, r := range legacy.RecurringGiveaways {
		target := ensure(r.GuildID)
		target.RecurringGiveaways = append(target.RecurringGiveaways, r)
	}

	if len(state.Guilds) == 0 {
		// No entities to infer guilds from; keep the flat state under a
		// placeholder key so nothing is lost.
		state.Guilds[0] = legacy
		return state
	}

	for _, guild := range state.Guilds {
		guild.AutoEnabled = legacy.AutoEnabled
		guild.Timezone = legacy.Timezone
		guild.LoggerChannelID = legacy.LoggerChannelID
		guild.AdminRoles = append([]int64(nil), legacy.AdminRoles...)
		guild.ScheduleRuns = make(map[string]string, len(legacy.ScheduleRuns))
		for k, v := range legacy.ScheduleRuns {
			guild.ScheduleRuns[k] = v
		}
	}
	return state
}

// UnmarshalJSON decodes a guild state, defaulting auto_enabled to true when
// the key is absent so payloads written before the toggle existed keep the
// original behavior.
func (s *GuildState) UnmarshalJSON(data []byte) error {
	type alias GuildState
	aux := alias{AutoEnabled: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = GuildState(aux)
	return nil
}

// normalize repairs zero-value collections after deserialization. Payloads
// written before the winners_drawn flag existed carry finished giveaways with
// recorded winners but no flag; those draws are complete and must not be
// repeated.
func (s *GuildState) normalize() {
	if s.ScheduleRuns == nil {
		s.ScheduleRuns = make(map[string]string)
	}
	if s.RecentWinnerCooldownDays < 0 {
		s.RecentWinnerCooldownDays = 0
	}
	for _, g := range s.Giveaways {
		if !g.IsActive && len(g.LastAnnouncedWinners) > 0 {
			g.WinnersDrawn = true
		}
	}
}
