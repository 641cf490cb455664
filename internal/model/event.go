package model

import "time"

// ScheduledEvent lifecycle states.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusConfirmed = "confirmed"
)

// Owner kinds for a scheduled event.
const (
	OwnerHabit = "habit"
	OwnerTask  = "task"
)

// ScheduledEvent is a placement produced by the engine (status=active) or
// staged manually (status=draft). Once confirmed it is locked: automated
// runs may never move, resize or delete it.
//
// The unique index collapses duplicate placements if two runs race on the
// same workspace: one insert wins, the other fails instead of double-booking.
type ScheduledEvent struct {
	ID          uint   `gorm:"primaryKey"`
	WorkspaceID uint   `gorm:"index;uniqueIndex:idx_event_owner_slot"`
	CreatorID   uint
	OwnerType   string `gorm:"uniqueIndex:idx_event_owner_slot"` // habit or task
	OwnerID     uint   `gorm:"uniqueIndex:idx_event_owner_slot"`
	// OccurrenceDay pins a habit placement to its calendar day (YYYY-MM-DD).
	// Empty for task placements, which are unique per task.
	OccurrenceDay string `gorm:"uniqueIndex:idx_event_owner_slot"`

	StartAt time.Time `gorm:"index"`
	EndAt   time.Time
	Status  string `gorm:"default:active"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Confirmed reports whether the event is locked against automated movement.
func (e ScheduledEvent) Confirmed() bool {
	return e.Status == StatusConfirmed
}

// FixedEvent is an externally pinned calendar block. The scheduler plans
// around fixed events and never touches them.
type FixedEvent struct {
	ID          uint `gorm:"primaryKey"`
	WorkspaceID uint `gorm:"index"`
	Title       string
	StartAt     time.Time `gorm:"index"`
	EndAt       time.Time
	CreatedAt   time.Time
}
