package service

import (
	"time"

	"giveabot/models"
)

// NextWindow computes the next daily window for a recurring giveaway in the
// given location. The returned start is strictly after ref: if today's start
// has already passed (or is exactly now), the window moves to tomorrow. An end
// at or before the start is treated as crossing midnight.
// Both instants are returned in UTC.
func NextWindow(loc *time.Location, start, end models.TimeOfDay, ref time.Time) (time.Time, time.Time) {
	local := ref.In(loc)

	startLocal := start.On(local, loc)
	if !startLocal.After(local) {
		startLocal = startLocal.AddDate(0, 0, 1)
	}

	endLocal := end.On(startLocal, loc)
	if !endLocal.After(startLocal) {
		endLocal = endLocal.AddDate(0, 0, 1)
	}

	return startLocal.UTC(), endLocal.UTC()
}

// TodayWindow anchors a daily window to ref's calendar date in the given
// location without advancing to tomorrow, used by the config-driven schedule
// sweep which fires after the window has opened. An end at or before the
// start crosses midnight.
func TodayWindow(loc *time.Location, start, end models.TimeOfDay, ref time.Time) (time.Time, time.Time) {
	local := ref.In(loc)

	startLocal := start.On(local, loc)
	endLocal := end.On(startLocal, loc)
	if !endLocal.After(startLocal) {
		endLocal = endLocal.AddDate(0, 0, 1)
	}

	return startLocal.UTC(), endLocal.UTC()
}
