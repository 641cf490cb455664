package model

import "time"

// Task represents a single unit of work the scheduler may place before its
// deadline. The scheduler never mutates the task itself, only its derived
// calendar placement.
type Task struct {
	ID          uint `gorm:"primaryKey"`
	WorkspaceID uint `gorm:"index"`
	CreatorID   uint
	Title       string
	Description string
	Priority    string // optional; empty means derived from deadline proximity
	Deadline    *time.Time

	EstimationMinutes int
	AutoSchedule      bool `gorm:"default:false"`
	IsCompleted       bool `gorm:"default:false"`
	ArchivedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
