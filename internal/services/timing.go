package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// Timing holds the due-window parameters of the scheduler.
//
// Slots are counted from the event start: k = floor((now-start)/Interval)
// and the slot boundary is start + k*Interval. By default the first check
// falls one interval into the event, so the check number is k and slot 0
// never fires. With CheckAtStart the first check is due at the start and
// the check number is k+1.
type Timing struct {
	Interval     time.Duration
	Expiry       time.Duration
	CheckAtStart bool
	// Location is the zone event wall-clock times are read in; nil means UTC.
	Location *time.Location
}

// DefaultTiming returns the 30 minute interval and expiry in UTC.
func DefaultTiming() Timing {
	return Timing{
		Interval: domain.CheckInterval,
		Expiry:   domain.CheckExpiry,
		Location: time.UTC,
	}
}

// Window resolves the start and end instants of ev. An end time earlier
// than the start time is taken to fall on the following day.
func (t Timing) Window(ev domain.RegisteredEvent) (start, end time.Time, err error) {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	start, err = parseWallClock(ev.Date, ev.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event %s start: %w", ev.EventID, err)
	}
	end, err = parseWallClock(ev.Date, ev.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event %s end: %w", ev.EventID, err)
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// Due reports whether a check is due at now for an event running from start
// to end, and if so its number and boundary instant. A check is due only
// while now lies in [start, end], the slot has a number >= 1, now is at or
// after the boundary and less than Expiry has passed since it.
//
// The two numbering modes cannot both hold for an event starting at 09:00
// with a 30 minute interval. By default nothing is due at 09:29 and 09:31
// issues check 1 (the single check of the 09:00 to 10:00 scenario).
// CheckAtStart makes 09:31 issue check 2 due at 09:30, but check 1 is then
// due from 09:00 on, 09:29 included.
func (t Timing) Due(now, start, end time.Time) (checkNumber int, dueAt time.Time, ok bool) {
	if t.Interval <= 0 || now.Before(start) || now.After(end) {
		return 0, time.Time{}, false
	}
	k := int(now.Sub(start) / t.Interval)
	dueAt = start.Add(time.Duration(k) * t.Interval)

	checkNumber = k
	if t.CheckAtStart {
		checkNumber = k + 1
	}
	if checkNumber < 1 {
		return 0, time.Time{}, false
	}
	if now.Before(dueAt) || now.Sub(dueAt) >= t.Expiry {
		return 0, time.Time{}, false
	}
	return checkNumber, dueAt, true
}

var clockLayouts = []string{"15:04:05", "15:04"}

// parseWallClock combines a calendar date (only its first ten characters are
// read, so ISO timestamps work too) with a time of day.
func parseWallClock(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	if len(date) > 10 {
		date = date[:10]
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", date, err)
	}
	clock = strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		tod, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(),
			tod.Hour(), tod.Minute(), tod.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("time of day %q: unsupported format", clock)
}
