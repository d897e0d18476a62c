package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"barberly/models"
)

// ErrInvalidSchedule is wrapped by every schedule validation failure.
var ErrInvalidSchedule = errors.New("invalid schedule")

// ValidateSchedule checks the weekly shape: exactly seven entries, one
// per weekday, and a well-formed window on every available day. Overrides
// must target distinct valid dates and follow the same window rules.
func ValidateSchedule(s models.Schedule) error {
	if len(s.Days) != 7 {
		return fmt.Errorf("%w: expected 7 day entries, got %d", ErrInvalidSchedule, len(s.Days))
	}
	var seen [7]bool
	for _, d := range s.Days {
		if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
			return fmt.Errorf("%w: unknown weekday %d", ErrInvalidSchedule, d.Weekday)
		}
		if seen[d.Weekday] {
			return fmt.Errorf("%w: duplicate entry for %s", ErrInvalidSchedule, d.Weekday)
		}
		seen[d.Weekday] = true
		if err := validateDay(d.Status, d.Start, d.End); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, d.Weekday, err)
		}
	}

	dates := make(map[string]bool, len(s.Overrides))
	for _, o := range s.Overrides {
		if _, err := time.Parse(models.DateLayout, o.Date); err != nil {
			return fmt.Errorf("%w: override date %q is not YYYY-MM-DD", ErrInvalidSchedule, o.Date)
		}
		if dates[o.Date] {
			return fmt.Errorf("%w: duplicate override for %s", ErrInvalidSchedule, o.Date)
		}
		dates[o.Date] = true
		if err := validateDay(o.Status, o.Start, o.End); err != nil {
			return fmt.Errorf("%w: override %s: %v", ErrInvalidSchedule, o.Date, err)
		}
	}
	return nil
}

func validateDay(status models.DayStatus, start, end int) error {
	switch status {
	case models.DayUnavailable:
		return nil
	case models.DayAvailable:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	if start < 0 || end > models.MinutesPerDay {
		return fmt.Errorf("hours %s out of range", models.TimeWindow{Start: start, End: end})
	}
	if start >= end {
		return fmt.Errorf("start %s must be before end %s", models.ClockString(start), models.ClockString(end))
	}
	if start%models.TimeStepMinutes != 0 || end%models.TimeStepMinutes != 0 {
		return fmt.Errorf("hours must align to %d minutes", models.TimeStepMinutes)
	}
	return nil
}

// DayFor returns the effective entry for date: a matching override wins over
// the weekly entry. A weekday missing from the schedule reads as unavailable.
func DayFor(s models.Schedule, date time.Time) models.DaySchedule {
	key := date.Format(models.DateLayout)
	for _, o := range s.Overrides {
		if o.Date == key {
			return models.DaySchedule{Weekday: date.Weekday(), Status: o.Status, Start: o.Start, End: o.End}
		}
	}
	for _, d := range s.Days {
		if d.Weekday == date.Weekday() {
			return d
		}
	}
	return models.DaySchedule{Weekday: date.Weekday(), Status: models.DayUnavailable}
}

// WeeklySchedule builds a schedule with the same hours on every listed weekday
// and the rest unavailable.
func WeeklySchedule(providerID string, start, end int, days ...time.Weekday) models.Schedule {
	open := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		open[d] = true
	}
	s := models.Schedule{ProviderID: providerID, Days: make([]models.DaySchedule, 0, 7)}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		entry := models.DaySchedule{Weekday: wd, Status: models.DayUnavailable}
		if open[wd] {
			entry.Status = models.DayAvailable
			entry.Start = start
			entry.End = end
		}
		s.Days = append(s.Days, entry)
	}
	return s
}

// ParseClock parses "HH:MM" into minutes from midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("time %q has an invalid hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q has an invalid minute", s)
	}
	return h*60 + m, nil
}

// ParseDate parses "YYYY-MM-DD" as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	return d, nil
}
