package model

import "time"

// Workspace is the tenancy unit: every habit, task and calendar event
// belongs to exactly one workspace, and scheduling runs never cross it.
type Workspace struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
