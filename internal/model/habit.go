package model

import "time"

// Habit cadences supported by the occurrence expander.
const (
	CadenceDaily    = "daily"
	CadenceWeekdays = "weekdays"
	CadenceWeekly   = "weekly"
	CadenceMonthly  = "monthly"
)

// Habit is a recurring template the scheduler expands into concrete
// occurrences. The scheduler only reads habits; users edit them elsewhere.
type Habit struct {
	ID          uint `gorm:"primaryKey"`
	WorkspaceID uint `gorm:"index"`
	CreatorID   uint
	Title       string
	Priority    string // optional; empty means derived from deadline rules

	Cadence    string // daily, weekdays, weekly, monthly
	ByWeekday  int    // weekly: 0=Sunday .. 6=Saturday
	ByMonthday int    // monthly: 1..31, clamped to month end

	PreferredStart  string // HH:MM, start of the preferred time-of-day window
	PreferredEnd    string // HH:MM, end of the window
	DurationMinutes int

	AutoSchedule bool `gorm:"default:false"`
	IsActive     bool `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
