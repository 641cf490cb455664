package service

import (
	"context"
	"time"

	"calendar-scheduler/internal/model"
)

// Storage ports consumed by the services. The gorm repositories satisfy
// them in production; tests substitute in-memory fakes.

type HabitStore interface {
	ListAutoSchedulable(ctx context.Context, workspaceID uint) ([]model.Habit, error)
}

type TaskStore interface {
	ListAutoSchedulable(ctx context.Context, workspaceID uint) ([]model.Task, error)
}

type EventStore interface {
	ListScheduledInWindow(ctx context.Context, workspaceID uint, from, to time.Time) ([]model.ScheduledEvent, error)
	ListFixedInWindow(ctx context.Context, workspaceID uint, from, to time.Time) ([]model.FixedEvent, error)
	ApplyPlan(ctx context.Context, create, remove []model.ScheduledEvent) error
}

type EventStatusStore interface {
	FindByID(ctx context.Context, eventID uint) (*model.ScheduledEvent, error)
	UpdateStatusIf(ctx context.Context, eventID uint, from, to string) (bool, error)
}

type WorkspaceStore interface {
	FindByID(ctx context.Context, workspaceID uint) (*model.Workspace, error)
	ListAutoSchedulable(ctx context.Context) ([]uint, error)
}

// PermissionChecker is the platform's auth service, seen from here as an
// opaque gate on calendar management.
type PermissionChecker interface {
	CanManageCalendar(ctx context.Context, userID, workspaceID uint) (bool, error)
}
