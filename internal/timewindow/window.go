// Package timewindow computes the lottery's weekly calendar boundaries in a
// fixed civil timezone. All functions are pure: they map instants to
// instants and never touch the wall clock themselves.
package timewindow

import (
	"fmt"
	"time"
)

// Registration runs Saturday 08:00 through Wednesday 20:00 local time.
// Winner info must be completed before the next Thursday 08:00.
const (
	weekStartHour    = 8
	registrationEnd  = 20 // Wednesday, exclusive
	deadlineHour     = 8  // Thursday
)

// Calendar resolves instants against a named civil timezone. The zone is
// always looked up by name (e.g. "Asia/Tehran"), never a fixed UTC offset.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the named zone and returns a calendar bound to it.
func NewCalendar(zone string) (*Calendar, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return &Calendar{loc: loc}, nil
}

// Location returns the calendar's zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// WeekStart returns the most recent Saturday 08:00 local time at or before
// now. On a Saturday before 08:00 the boundary rolls back to the previous
// Saturday, so the returned instant is never in the future. The result is
// expressed in UTC.
func (c *Calendar) WeekStart(now time.Time) time.Time {
	local := now.In(c.loc)

	daysBack := (int(local.Weekday()) - int(time.Saturday) + 7) % 7
	if local.Weekday() == time.Saturday && local.Hour() < weekStartHour {
		daysBack = 7
	}

	start := time.Date(local.Year(), local.Month(), local.Day()-daysBack,
		weekStartHour, 0, 0, 0, c.loc)
	return start.UTC()
}

// IsRegistrationOpen reports whether now falls inside the weekly
// registration window [Saturday 08:00, Wednesday 20:00) local time.
func (c *Calendar) IsRegistrationOpen(now time.Time) bool {
	local := now.In(c.loc)

	switch local.Weekday() {
	case time.Saturday:
		return local.Hour() >= weekStartHour
	case time.Sunday, time.Monday, time.Tuesday:
		return true
	case time.Wednesday:
		return local.Hour() < registrationEnd
	default: // Thursday, Friday
		return false
	}
}

// CompletionDeadline returns the first Thursday 08:00 local time strictly
// after createdAt. Tickets created on the Wednesday draw evening therefore
// get "tomorrow 08:00". The result is expressed in UTC.
func (c *Calendar) CompletionDeadline(createdAt time.Time) time.Time {
	local := createdAt.In(c.loc)

	days := (int(time.Thursday) - int(local.Weekday()) + 7) % 7
	deadline := time.Date(local.Year(), local.Month(), local.Day()+days,
		deadlineHour, 0, 0, 0, c.loc)
	if !deadline.After(local) {
		deadline = deadline.AddDate(0, 0, 7)
	}
	return deadline.UTC()
}
