package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"giveabot/models"

	"github.com/spf13/viper"
)

// Storage backend selectors
const (
	StorageBackendFile     = "file"
	StorageBackendPostgres = "postgres"
	StorageBackendRedis    = "redis"
)

// DiscordConfig holds chat platform credentials
type DiscordConfig struct {
	Token         string
	ApplicationID int64
}

// LoggingConfig holds the log level and the optional global logger channel
type LoggingConfig struct {
	Level           string
	LoggerChannelID int64
}

// ManualDefaults holds defaults applied to manually created giveaways
type ManualDefaults struct {
	DurationMinutes int
}

// ScheduleEntry is a static, operator-defined daily giveaway. Distinct from
// user-created recurring giveaways: it lives only in configuration and is
// fired by the periodic sweep at most once per calendar day.
type ScheduleEntry struct {
	ID          string
	Enabled     bool
	ChannelID   int64
	Winners     int
	Title       string
	Description string
	StartTime   models.TimeOfDay
	EndTime     models.TimeOfDay
}

// SchedulingConfig holds the config-driven daily giveaway entries
type SchedulingConfig struct {
	AutoEnabled bool
	Giveaways   []ScheduleEntry
}

// PermissionsConfig holds the default admin roles seeded into new guild
// states and the optional guild used for fast command registration
type PermissionsConfig struct {
	AdminRoles         []int64
	DevelopmentGuildID int64
}

// StorageConfig selects and configures the state store backend
type StorageConfig struct {
	Backend       string
	Path          string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Config holds all application configuration
type Config struct {
	Discord         DiscordConfig
	DefaultTimezone string
	Logging         LoggingConfig
	ManualDefaults  ManualDefaults
	Scheduling      SchedulingConfig
	Permissions     PermissionsConfig
	Storage         StorageConfig
}

// raw mirror of the YAML layout, times kept as strings until validated
type rawConfig struct {
	Token           string            `mapstructure:"token"`
	ApplicationID   int64             `mapstructure:"application_id"`
	DefaultTimezone string            `mapstructure:"default_timezone"`
	Logging         rawLoggingConfig  `mapstructure:"logging"`
	ManualDefaults  rawManualDefaults `mapstructure:"manual_defaults"`
	Scheduling      rawScheduling     `mapstructure:"scheduling"`
	Permissions     rawPermissions    `mapstructure:"permissions"`
	Storage         rawStorage        `mapstructure:"storage"`
}

type rawLoggingConfig struct {
	Level           string `mapstructure:"level"`
	LoggerChannelID int64  `mapstructure:"logger_channel_id"`
}

type rawManualDefaults struct {
	DurationMinutes int `mapstructure:"duration_minutes"`
}

type rawScheduleEntry struct {
	ID          string `mapstructure:"id"`
	Enabled     *bool  `mapstructure:"enabled"`
	ChannelID   int64  `mapstructure:"channel_id"`
	Winners     int    `mapstructure:"winners"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	StartTime   string `mapstructure:"start_time"`
	EndTime     string `mapstructure:"end_time"`
}

type rawScheduling struct {
	AutoEnabled *bool              `mapstructure:"auto_enabled"`
	Giveaways   []rawScheduleEntry `mapstructure:"giveaways"`
}

type rawPermissions struct {
	AdminRoles         []int64 `mapstructure:"admin_roles"`
	DevelopmentGuildID int64   `mapstructure:"development_guild_id"`
}

type rawStorage struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	DatabaseURL   string `mapstructure:"database_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// Load reads and validates the YAML configuration file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	token, err := resolveEnvValue(raw.Token, "token")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("token must not be empty")
	}

	timezone := raw.DefaultTimezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid default_timezone %q: %w", timezone, err)
	}

	level := raw.Logging.Level
	if level == "" {
		level = "info"
	}

	duration := raw.ManualDefaults.DurationMinutes
	if duration == 0 {
		duration = 1440
	}
	if duration < 0 {
		return nil, fmt.Errorf("manual_defaults.duration_minutes must be a positive integer")
	}

	scheduling, err := parseScheduling(raw.Scheduling)
	if err != nil {
		return nil, err
	}

	storage, err := parseStorage(raw.Storage)
	if err != nil {
		return nil, err
	}

	return &Config{
		Discord: DiscordConfig{
			Token:         strings.TrimSpace(token),
			ApplicationID: raw.ApplicationID,
		},
		DefaultTimezone: timezone,
		Logging: LoggingConfig{
			Level:           level,
			LoggerChannelID: raw.Logging.LoggerChannelID,
		},
		ManualDefaults: ManualDefaults{DurationMinutes: duration},
		Scheduling:     *scheduling,
		Permissions: PermissionsConfig{
			AdminRoles:         dedupeRoles(raw.Permissions.AdminRoles),
			DevelopmentGuildID: raw.Permissions.DevelopmentGuildID,
		},
		Storage: *storage,
	}, nil
}

func parseScheduling(raw rawScheduling) (*SchedulingConfig, error) {
	entries := make([]ScheduleEntry, 0, len(raw.Giveaways))
	seen := make(map[string]bool, len(raw.Giveaways))
	for _, entry := range raw.Giveaways {
		if entry.ID == "" {
			return nil, fmt.Errorf("scheduling.giveaways entry is missing an id")
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate scheduled giveaway id: %s", entry.ID)
		}
		seen[entry.ID] = true
		if entry.Winners <= 0 {
			return nil, fmt.Errorf("scheduling.giveaways[%s].winners must be greater than zero", entry.ID)
		}
		if entry.ChannelID <= 0 {
			return nil, fmt.Errorf("scheduling.giveaways[%s].channel_id must be a positive channel ID", entry.ID)
		}
		start, err := models.ParseTimeOfDay(entry.StartTime)
		if err != nil {
			return nil, fmt.Errorf("scheduling.giveaways[%s].start_time: %w", entry.ID, err)
		}
		end, err := models.ParseTimeOfDay(entry.EndTime)
		if err != nil {
			return nil, fmt.Errorf("scheduling.giveaways[%s].end_time: %w", entry.ID, err)
		}
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		entries = append(entries, ScheduleEntry{
			ID:          entry.ID,
			Enabled:     enabled,
			ChannelID:   entry.ChannelID,
			Winners:     entry.Winners,
			Title:       entry.Title,
			Description: entry.Description,
			StartTime:   start,
			EndTime:     end,
		})
	}

	autoEnabled := len(entries) > 0
	if raw.AutoEnabled != nil {
		autoEnabled = *raw.AutoEnabled
	}

	return &SchedulingConfig{AutoEnabled: autoEnabled, Giveaways: entries}, nil
}

func parseStorage(raw rawStorage) (*StorageConfig, error) {
	backend := raw.Backend
	if backend == "" {
		backend = StorageBackendFile
	}

	storage := &StorageConfig{
		Backend:       backend,
		Path:          raw.Path,
		RedisAddr:     raw.RedisAddr,
		RedisPassword: raw.RedisPassword,
		RedisDB:       raw.RedisDB,
	}

	switch backend {
	case StorageBackendFile:
		if storage.Path == "" {
			storage.Path = "data/state.json"
		}
	case StorageBackendPostgres:
		url, err := resolveEnvValue(raw.DatabaseURL, "storage.database_url")
		if err != nil {
			return nil, err
		}
		if url == "" {
			return nil, fmt.Errorf("storage.database_url is required for the postgres backend")
		}
		storage.DatabaseURL = url
	case StorageBackendRedis:
		if storage.RedisAddr == "" {
			return nil, fmt.Errorf("storage.redis_addr is required for the redis backend")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	return storage, nil
}

// resolveEnvValue expands a "${NAME}" reference from the environment; plain
// values pass through untouched
func resolveEnvValue(value, key string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "${") || !strings.HasSuffix(trimmed, "}") {
		return value, nil
	}
	name := strings.TrimSpace(trimmed[2 : len(trimmed)-1])
	if name == "" {
		return "", fmt.Errorf("environment reference for %q is empty", key)
	}
	resolved, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %q referenced by %q is not set", name, key)
	}
	return resolved, nil
}

func dedupeRoles(roles []int64) []int64 {
	out := make([]int64, 0, len(roles))
	seen := make(map[int64]bool, len(roles))
	for _, id := range roles {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
