package models

import "fmt"

// DateLayout is the storage format of booking and override dates.
const DateLayout = "2006-01-02"

// TimeStepMinutes is the finest time resolution of the system. Schedule
// boundaries, service durations and slot granularity are all multiples of it.
const TimeStepMinutes = 5

// MinutesPerDay bounds every time-of-day value.
const MinutesPerDay = 24 * 60

// TimeWindow is a half-open interval [Start, End) in minutes from midnight.
type TimeWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether the two half-open windows intersect.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start < o.End && o.Start < w.End
}

func (w TimeWindow) Duration() int {
	return w.End - w.Start
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s-%s", ClockString(w.Start), ClockString(w.End))
}

// ClockString renders minutes from midnight as "HH:MM".
func ClockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotView is the API shape of a bookable slot.
type SlotView struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SlotsResult distinguishes a closed day from a fully booked one.
type SlotsResult struct {
	ProviderID string     `json:"providerId"`
	ServiceID  string     `json:"serviceId"`
	Date       string     `json:"date"`
	DayStatus  DayStatus  `json:"dayStatus"`
	Slots      []SlotView `json:"slots"`
}
