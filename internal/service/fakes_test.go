package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"calendar-scheduler/internal/model"
)

func nopLog() zerolog.Logger { return zerolog.Nop() }

// fakeStore is an in-memory stand-in for the gorm repositories.
type fakeStore struct {
	mu sync.Mutex

	habits map[uint][]model.Habit
	tasks  map[uint][]model.Task
	fixed  map[uint][]model.FixedEvent
	events map[uint]*model.ScheduledEvent

	nextID uint

	applyErr  error
	updateErr error

	applied struct {
		create []model.ScheduledEvent
		remove []model.ScheduledEvent
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		habits: make(map[uint][]model.Habit),
		tasks:  make(map[uint][]model.Task),
		fixed:  make(map[uint][]model.FixedEvent),
		events: make(map[uint]*model.ScheduledEvent),
		nextID: 1,
	}
}

func (f *fakeStore) putEvent(ev model.ScheduledEvent) model.ScheduledEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.ID == 0 {
		ev.ID = f.nextID
		f.nextID++
	}
	cp := ev
	f.events[ev.ID] = &cp
	return ev
}

func (f *fakeStore) ListAutoSchedulableHabits(ctx context.Context, workspaceID uint) ([]model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.habits[workspaceID], nil
}

func (f *fakeStore) ListAutoSchedulableTasks(ctx context.Context, workspaceID uint) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[workspaceID], nil
}

func (f *fakeStore) ListScheduledInWindow(ctx context.Context, workspaceID uint, from, to time.Time) ([]model.ScheduledEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ScheduledEvent
	for _, ev := range f.events {
		if ev.WorkspaceID == workspaceID && ev.StartAt.Before(to) && ev.EndAt.After(from) {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (f *fakeStore) ListFixedInWindow(ctx context.Context, workspaceID uint, from, to time.Time) ([]model.FixedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fixed[workspaceID], nil
}

func (f *fakeStore) ApplyPlan(ctx context.Context, create, remove []model.ScheduledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	for _, ev := range remove {
		delete(f.events, ev.ID)
	}
	for _, ev := range create {
		ev.ID = f.nextID
		f.nextID++
		cp := ev
		f.events[ev.ID] = &cp
	}
	f.applied.create = append(f.applied.create, create...)
	f.applied.remove = append(f.applied.remove, remove...)
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, eventID uint) (*model.ScheduledEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeStore) UpdateStatusIf(ctx context.Context, eventID uint, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	ev, ok := f.events[eventID]
	if !ok || ev.Status != from {
		return false, nil
	}
	ev.Status = to
	return true, nil
}

// habitStoreFunc / taskStoreFunc adapt fakeStore methods to the narrow ports.
type habitStoreFunc func(ctx context.Context, workspaceID uint) ([]model.Habit, error)

func (fn habitStoreFunc) ListAutoSchedulable(ctx context.Context, workspaceID uint) ([]model.Habit, error) {
	return fn(ctx, workspaceID)
}

type taskStoreFunc func(ctx context.Context, workspaceID uint) ([]model.Task, error)

func (fn taskStoreFunc) ListAutoSchedulable(ctx context.Context, workspaceID uint) ([]model.Task, error) {
	return fn(ctx, workspaceID)
}

// fakeWorkspaces satisfies WorkspaceStore and WorkspaceDirectory.
type fakeWorkspaces struct {
	ids []uint
	err error
}

func (f *fakeWorkspaces) FindByID(ctx context.Context, workspaceID uint) (*model.Workspace, error) {
	return &model.Workspace{ID: workspaceID, Timezone: "UTC"}, nil
}

func (f *fakeWorkspaces) ListAutoSchedulable(ctx context.Context) ([]uint, error) {
	return f.ids, f.err
}

// allowAll grants calendar management to everyone.
type allowAll struct{}

func (allowAll) CanManageCalendar(ctx context.Context, userID, workspaceID uint) (bool, error) {
	return true, nil
}

// denyAll refuses calendar management to everyone.
type denyAll struct{}

func (denyAll) CanManageCalendar(ctx context.Context, userID, workspaceID uint) (bool, error) {
	return false, nil
}
