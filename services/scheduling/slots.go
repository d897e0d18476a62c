package scheduling

import (
	"time"

	"barberly/models"
)

// DefaultGranularity is the spacing of candidate start times in minutes.
const DefaultGranularity = 15

// SlotQuery is the full input of ComputeSlots. Now is the only clock the
// calculator reads.
type SlotQuery struct {
	Schedule        models.Schedule
	Date            time.Time // any instant on the target day, interpreted in its own location
	DurationMinutes int
	Bookings        []models.Booking
	Now             time.Time
	Granularity     int
}

// ComputeSlots returns the bookable windows for the query date in ascending
// order. A closed day, a past date or a non-positive duration yields an
// empty result. Candidates start every Granularity minutes from the day's
// opening and must finish by closing time.
func ComputeSlots(q SlotQuery) []models.TimeWindow {
	if q.DurationMinutes <= 0 {
		return nil
	}
	step := q.Granularity
	if step <= 0 {
		step = DefaultGranularity
	}

	loc := q.Date.Location()
	date := truncateDay(q.Date)
	day := DayFor(q.Schedule, date)
	if !day.Available() {
		return nil
	}

	earliest := -1
	today := truncateDay(q.Now.In(loc))
	switch {
	case date.Before(today):
		return nil
	case date.Equal(today):
		// candidates starting before now have elapsed
		now := q.Now.In(loc)
		earliest = now.Hour()*60 + now.Minute()
		if now.Second() > 0 || now.Nanosecond() > 0 {
			earliest++
		}
	}

	key := date.Format(models.DateLayout)
	busy := make([]models.TimeWindow, 0, len(q.Bookings))
	for _, b := range q.Bookings {
		if b.Date != key || !b.Status.Occupying() {
			continue
		}
		busy = append(busy, b.Window())
	}

	var slots []models.TimeWindow
	for start := day.Start; start+q.DurationMinutes <= day.End; start += step {
		if start < earliest {
			continue
		}
		candidate := models.TimeWindow{Start: start, End: start + q.DurationMinutes}
		if conflicts(candidate, busy) {
			continue
		}
		slots = append(slots, candidate)
	}
	return slots
}

// ContainsStart reports whether one of slots begins at start.
func ContainsStart(slots []models.TimeWindow, start int) bool {
	for _, s := range slots {
		if s.Start == start {
			return true
		}
	}
	return false
}

func conflicts(w models.TimeWindow, busy []models.TimeWindow) bool {
	for _, b := range busy {
		if w.Overlaps(b) {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
