package models

import (
	"time"
)

// GiveawayStatus represents the lifecycle state of a giveaway
type GiveawayStatus string

const (
	GiveawayStatusScheduled GiveawayStatus = "scheduled"
	GiveawayStatusActive    GiveawayStatus = "active"
	GiveawayStatusFinished  GiveawayStatus = "finished"
)

// Giveaway represents an active or finished giveaway posted to a channel,
// including its participants and the most recent winner draw
type Giveaway struct {
	ID                   string    `json:"id"`
	GuildID              int64     `json:"guild_id"`
	ChannelID            int64     `json:"channel_id"`
	MessageID            int64     `json:"message_id"`
	Winners              int       `json:"winners"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	EndTime              time.Time `json:"end_time"`
	CreatedAt            time.Time `json:"created_at"`
	Participants         []int64   `json:"participants"`
	ScheduledID          string    `json:"scheduled_id,omitempty"`
	IsActive             bool      `json:"is_active"`
	WinnersDrawn         bool      `json:"winners_drawn"`
	LastAnnouncedWinners []int64   `json:"last_announced_winners"`
}

// Status returns the current lifecycle status of the giveaway
func (g *Giveaway) Status() GiveawayStatus {
	if g.IsActive {
		return GiveawayStatusActive
	}
	return GiveawayStatusFinished
}

// HasParticipant checks if a user has already entered the giveaway
func (g *Giveaway) HasParticipant(userID int64) bool {
	for _, id := range g.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// AddParticipant adds a user to the entry list, preserving insertion order.
// Returns false if the user is already entered.
func (g *Giveaway) AddParticipant(userID int64) bool {
	if g.HasParticipant(userID) {
		return false
	}
	g.Participants = append(g.Participants, userID)
	return true
}

// RemoveParticipant removes a user from the entry list.
// Returns false if the user was not entered.
func (g *Giveaway) RemoveParticipant(userID int64) bool {
	for i, id := range g.Participants {
		if id == userID {
			g.Participants = append(g.Participants[:i], g.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// PendingGiveaway represents a giveaway scheduled to start in the future.
// It is consumed exactly once when its start time arrives, producing an
// active Giveaway.
type PendingGiveaway struct {
	ID          string    `json:"id"`
	GuildID     int64     `json:"guild_id"`
	ChannelID   int64     `json:"channel_id"`
	Winners     int       `json:"winners"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}
