package service

import (
	"context"
	"errors"
	"time"

	"giveabot/models"
)

// Validation and lookup errors returned by the giveaway service. Lookup
// failures are sentinel errors so callers can branch with errors.Is instead
// of string matching.
var (
	ErrWinnersNotPositive   = errors.New("winners must be greater than zero")
	ErrEndBeforeStart       = errors.New("end time must be after start time")
	ErrInvalidTimezone      = errors.New("invalid timezone name")
	ErrNegativeCooldownDays = errors.New("cooldown days must be zero or greater")

	ErrGiveawayNotFound  = errors.New("giveaway not found")
	ErrPendingNotFound   = errors.New("pending giveaway not found")
	ErrRecurringNotFound = errors.New("recurring giveaway not found")
	ErrChannelNotFound   = errors.New("channel not found")

	ErrGiveawayActive   = errors.New("giveaway is still active")
	ErrGiveawayFinished = errors.New("giveaway has already finished")
	ErrAlreadyEntered   = errors.New("user has already entered this giveaway")
	ErrNotEntered       = errors.New("user has not entered this giveaway")
)

// Store defines the persistence contract for the giveaway state tree.
// Implementations must be atomic per save and preserve all entity fields
// across a save/load round trip.
type Store interface {
	// Load reads the persisted state tree, returning an empty tree when no
	// state has been saved yet
	Load(ctx context.Context) (*models.BotState, error)

	// Save atomically persists the full state tree
	Save(ctx context.Context, state *models.BotState) error
}

// ChannelInfo describes a resolved chat channel
type ChannelInfo struct {
	ID      int64
	GuildID int64
	Name    string
}

// Messenger defines the chat-platform operations the giveaway service needs.
// Implementations must map platform "not found" and "forbidden" outcomes to
// ErrChannelNotFound so the service can treat them as terminal.
type Messenger interface {
	// ResolveChannel looks up a channel by ID
	ResolveChannel(ctx context.Context, channelID int64) (*ChannelInfo, error)

	// PostGiveaway sends the giveaway embed with its entry controls and
	// returns the created message ID
	PostGiveaway(ctx context.Context, giveaway *models.Giveaway) (int64, error)

	// UpdateGiveaway edits the giveaway message to reflect current state;
	// finished giveaways have their entry controls removed
	UpdateGiveaway(ctx context.Context, giveaway *models.Giveaway) error

	// Announce sends a plain text message to a channel
	Announce(ctx context.Context, channelID int64, content string) error
}

// GiveawayUpdate holds the optional fields of an edit; nil fields are left
// unchanged
type GiveawayUpdate struct {
	Winners     *int
	Title       *string
	Description *string
	EndTime     *time.Time
}

// Settings is a read-only snapshot of a guild's giveaway settings
type Settings struct {
	AutoEnabled                 bool
	Timezone                    string
	LoggerChannelID             int64
	AdminRoles                  []int64
	RecentWinnerCooldownEnabled bool
	RecentWinnerCooldownDays    int
}

// AdminActor carries the identity facts needed for an authorization decision
type AdminActor struct {
	UserID       int64
	GuildOwnerID int64
	Permissions  int64
	RoleIDs      []int64
}

// GiveawayService coordinates the giveaway lifecycle: creation, deferred
// starts, finishing, rerolls, recurring schedules, and per-guild settings
type GiveawayService interface {
	// Load restores persisted state and re-registers deferred timers for
	// pending, active, and recurring giveaways. Must be called once before
	// any other method.
	Load(ctx context.Context) error

	// Close cancels all outstanding timers
	Close()

	// StartGiveaway creates and posts an immediately active giveaway
	StartGiveaway(ctx context.Context, guildID, channelID int64, winners int, title, description string, endTime time.Time, scheduledID string) (*models.Giveaway, error)

	// SchedulePending records a giveaway that starts in the future
	SchedulePending(ctx context.Context, guildID, channelID int64, winners int, title, description string, startTime, endTime time.Time) (*models.PendingGiveaway, error)

	// ScheduleRecurring creates a daily-repeating giveaway template
	ScheduleRecurring(ctx context.Context, guildID, channelID int64, winners int, title, description string, startTime, endTime models.TimeOfDay) (*models.RecurringGiveaway, error)

	// EndGiveaway finishes a giveaway and draws winners. Ending an already
	// finished giveaway is a no-op returning the existing record.
	EndGiveaway(ctx context.Context, guildID int64, giveawayID string) (*models.Giveaway, error)

	// UpdateGiveaway edits giveaway fields on any record regardless of
	// state; a changed end time reschedules the finish timer while the
	// giveaway is still active
	UpdateGiveaway(ctx context.Context, guildID int64, giveawayID string, update GiveawayUpdate) (*models.Giveaway, error)

	// Reroll draws a new winner set for a finished giveaway
	Reroll(ctx context.Context, guildID int64, giveawayID string) ([]int64, error)

	// GetGiveaway retrieves a giveaway by ID
	GetGiveaway(ctx context.Context, guildID int64, giveawayID string) (*models.Giveaway, error)

	// GetPending retrieves a pending giveaway by ID
	GetPending(ctx context.Context, guildID int64, pendingID string) (*models.PendingGiveaway, error)

	// GetRecurring retrieves a recurring schedule by ID
	GetRecurring(ctx context.Context, guildID int64, scheduleID string) (*models.RecurringGiveaway, error)

	// ListGiveaways returns all giveaways tracked for a guild
	ListGiveaways(ctx context.Context, guildID int64) ([]*models.Giveaway, error)

	// JoinGiveaway enters a user into an active giveaway
	JoinGiveaway(ctx context.Context, guildID int64, giveawayID string, userID int64) error

	// LeaveGiveaway withdraws a user from an active giveaway
	LeaveGiveaway(ctx context.Context, guildID int64, giveawayID string, userID int64) error

	// EnableRecurring resumes a disabled recurring schedule, recomputing its
	// next window from the current time. Returns false when already enabled.
	EnableRecurring(ctx context.Context, guildID int64, scheduleID string) (bool, error)

	// DisableRecurring pauses a recurring schedule and cancels its timer.
	// Returns false when already disabled.
	DisableRecurring(ctx context.Context, guildID int64, scheduleID string) (bool, error)

	// SetLoggerChannel sets the channel receiving giveaway audit messages
	SetLoggerChannel(ctx context.Context, guildID, channelID int64) error

	// ToggleAuto enables or disables config-driven daily giveaways
	ToggleAuto(ctx context.Context, guildID int64, enabled bool) error

	// AddAdminRole grants a role giveaway management rights; returns false
	// when the role was already granted
	AddAdminRole(ctx context.Context, guildID, roleID int64) (bool, error)

	// RemoveAdminRole revokes a role's giveaway management rights; returns
	// false when the role was not granted
	RemoveAdminRole(ctx context.Context, guildID, roleID int64) (bool, error)

	// ListAdminRoles returns the guild's configured admin roles
	ListAdminRoles(ctx context.Context, guildID int64) ([]int64, error)

	// SetTimezone changes the guild timezone and realigns all enabled
	// recurring schedules to the new zone
	SetTimezone(ctx context.Context, guildID int64, name string) error

	// SetCooldownDays sets the recent winner cooldown threshold
	SetCooldownDays(ctx context.Context, guildID int64, days int) error

	// SetCooldownEnabled toggles the recent winner cooldown; returns false
	// when the value did not change
	SetCooldownEnabled(ctx context.Context, guildID int64, enabled bool) (bool, error)

	// GetSettings returns a snapshot of the guild's settings
	GetSettings(ctx context.Context, guildID int64) (*Settings, error)

	// CleanupFinished purges finished giveaways older than the cooldown
	// retention window, returning the number removed
	CleanupFinished(ctx context.Context, guildID int64) (int, error)

	// IsAdmin reports whether an actor may manage giveaways in a guild
	IsAdmin(guildID int64, actor AdminActor) bool

	// Timezone returns the guild's location, falling back to the configured
	// default when unset or invalid
	Timezone(guildID int64) *time.Location

	// HandleScheduled fires config-defined daily giveaways that are due,
	// at most once per calendar day per schedule
	HandleScheduled(ctx context.Context)

	// AuditOverdue force-finishes giveaways whose end time has passed and
	// finalizes finished giveaways whose draw was interrupted
	AuditOverdue(ctx context.Context)
}
