package models

import "time"

type DayStatus string

const (
	DayAvailable   DayStatus = "available"
	DayUnavailable DayStatus = "unavailable"
)

// DaySchedule is one weekday entry of a provider's weekly availability.
type DaySchedule struct {
	Weekday time.Weekday `bson:"weekday" json:"weekday"`       // 0 = Sunday
	Status  DayStatus    `bson:"status" json:"status"`
	Start   int          `bson:"start,omitempty" json:"start"` // minutes from midnight
	End     int          `bson:"end,omitempty" json:"end"`     // minutes from midnight
}

// Available reports whether the day has bookable hours.
func (d DaySchedule) Available() bool {
	return d.Status == DayAvailable
}

// DateOverride replaces the weekly entry for a single calendar date.
type DateOverride struct {
	Date   string    `bson:"date" json:"date"` // "YYYY-MM-DD"
	Status DayStatus `bson:"status" json:"status"`
	Start  int       `bson:"start,omitempty" json:"start"`
	End    int       `bson:"end,omitempty" json:"end"`
}

// Schedule is a provider's weekly recurring availability.
type Schedule struct {
	ProviderID string         `bson:"provider_id" json:"providerId"`
	Days       []DaySchedule  `bson:"days" json:"days"`
	Overrides  []DateOverride `bson:"overrides,omitempty" json:"overrides,omitempty"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updatedAt"`
}
