package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"calendar-scheduler/internal/planner"
)

// DefaultWindowDays is the forward horizon used when a caller does not
// specify one.
const DefaultWindowDays = 30

// Summary reports one workspace scheduling run.
type Summary struct {
	EventsCreated   int
	HabitsScheduled int
	TasksScheduled  int
	Bumped          int
	Skipped         int
}

// ScheduleService orchestrates one workspace run: load inputs, plan in
// memory, persist the outcome as a single transaction.
type ScheduleService struct {
	habits     HabitStore
	tasks      TaskStore
	events     EventStore
	workspaces WorkspaceStore
	locks      *workspaceLocks
	log        zerolog.Logger
	now        func() time.Time
}

func NewScheduleService(habits HabitStore, tasks TaskStore, events EventStore, workspaces WorkspaceStore, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		habits:     habits,
		tasks:      tasks,
		events:     events,
		workspaces: workspaces,
		locks:      newWorkspaceLocks(),
		log:        log.With().Str("component", "schedule").Logger(),
		now:        time.Now,
	}
}

// ScheduleWorkspace runs the placement engine for one workspace and
// persists its plan. A second concurrent call for the same workspace fails
// fast with ErrRunInProgress instead of racing on the calendar.
func (s *ScheduleService) ScheduleWorkspace(ctx context.Context, workspaceID uint, windowDays int, forceReschedule bool) (*Summary, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	release := s.locks.TryAcquire(workspaceID)
	if release == nil {
		return nil, ErrRunInProgress
	}
	defer release()

	now := s.now()
	from, to := now, now.AddDate(0, 0, windowDays)

	habits, err := s.habits.ListAutoSchedulable(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	tasks, err := s.tasks.ListAutoSchedulable(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	fixed, err := s.events.ListFixedInWindow(ctx, workspaceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load fixed events: %w", err)
	}
	existing, err := s.events.ListScheduledInWindow(ctx, workspaceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load scheduled events: %w", err)
	}

	result, err := planner.Plan(planner.Input{
		WorkspaceID:     workspaceID,
		Habits:          habits,
		Tasks:           tasks,
		Fixed:           fixed,
		Existing:        existing,
		WindowDays:      windowDays,
		ForceReschedule: forceReschedule,
		Location:        s.workspaceLocation(ctx, workspaceID),
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.events.ApplyPlan(ctx, result.Create, result.Remove); err != nil {
		return nil, err
	}

	for _, b := range result.Bumped {
		s.log.Info().
			Uint("workspace", workspaceID).
			Str("owner_type", b.OwnerType).
			Uint("owner_id", b.OwnerID).
			Str("bumped_by_type", b.BumpedByType).
			Uint("bumped_by_id", b.BumpedByID).
			Time("old_start", b.OldStart).
			Msg("placement bumped")
	}
	for _, sk := range result.Skipped {
		s.log.Debug().
			Uint("workspace", workspaceID).
			Str("owner_type", sk.OwnerType).
			Uint("owner_id", sk.OwnerID).
			Str("reason", sk.Reason).
			Msg("placement skipped")
	}
	s.log.Info().
		Uint("workspace", workspaceID).
		Int("created", len(result.Create)).
		Int("removed", len(result.Remove)).
		Int("skipped", len(result.Skipped)).
		Bool("force", forceReschedule).
		Msg("workspace scheduled")

	return &Summary{
		EventsCreated:   len(result.Create),
		HabitsScheduled: result.HabitsScheduled,
		TasksScheduled:  result.TasksScheduled,
		Bumped:          len(result.Bumped),
		Skipped:         len(result.Skipped),
	}, nil
}

// workspaceLocation resolves the workspace timezone, falling back to UTC
// when the workspace row or its zone name is unusable.
func (s *ScheduleService) workspaceLocation(ctx context.Context, workspaceID uint) *time.Location {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil || ws.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(ws.Timezone)
	if err != nil {
		s.log.Warn().Uint("workspace", workspaceID).Str("tz", ws.Timezone).Msg("unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}
