package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date, serialized as "HH:MM"
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a 24h "HH:MM" string
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected HH:MM (24h)", value)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the offset from midnight in minutes
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On anchors the time of day to the calendar date of ref in the given location
func (t TimeOfDay) On(ref time.Time, loc *time.Location) time.Time {
	local := ref.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RecurringGiveaway is a daily-repeating giveaway template. StartTime and
// EndTime are times of day in the guild's timezone; NextStart and NextEnd are
// the absolute UTC instants of the next firing.
type RecurringGiveaway struct {
	ID          string    `json:"id"`
	GuildID     int64     `json:"guild_id"`
	ChannelID   int64     `json:"channel_id"`
	Winners     int       `json:"winners"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	NextStart   time.Time `json:"next_start"`
	NextEnd     time.Time `json:"next_end"`
	Enabled     bool      `json:"enabled"`
}

// WindowDuration returns the length of the daily window. Windows whose end is
// not after their start are treated as crossing midnight.
func (r *RecurringGiveaway) WindowDuration() time.Duration {
	minutes := r.EndTime.Minutes() - r.StartTime.Minutes()
	if minutes <= 0 {
		minutes += 24 * 60
	}
	return time.Duration(minutes) * time.Minute
}
