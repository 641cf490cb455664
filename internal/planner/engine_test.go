package planner

import (
	"testing"
	"time"

	"calendar-scheduler/internal/model"
)

func standupHabit() model.Habit {
	h := baseHabit()
	h.CreatorID = 7
	h.Priority = string(model.PriorityNormal)
	h.AutoSchedule = true
	h.IsActive = true
	return h
}

func planInput(mutate func(*Input)) Input {
	in := Input{
		WorkspaceID: 1,
		WindowDays:  3,
		Location:    time.UTC,
	}
	if mutate != nil {
		mutate(&in)
	}
	return in
}

// allBusy gathers every interval that exists after the plan: fixed blocks,
// surviving existing events and newly created ones.
func allBusy(in Input, res *Result) []Interval {
	removed := make(map[uint]bool)
	for _, ev := range res.Remove {
		removed[ev.ID] = true
	}
	var out []Interval
	for _, f := range in.Fixed {
		out = append(out, Interval{Start: f.StartAt, End: f.EndAt})
	}
	for _, ev := range in.Existing {
		if !removed[ev.ID] {
			out = append(out, Interval{Start: ev.StartAt, End: ev.EndAt})
		}
	}
	for _, ev := range res.Create {
		out = append(out, Interval{Start: ev.StartAt, End: ev.EndAt})
	}
	return out
}

func assertNoOverlap(t *testing.T, ivs []Interval) {
	t.Helper()
	for i := 0; i < len(ivs); i++ {
		for j := i + 1; j < len(ivs); j++ {
			if ivs[i].Overlaps(ivs[j]) {
				t.Fatalf("intervals overlap: %v-%v and %v-%v", ivs[i].Start, ivs[i].End, ivs[j].Start, ivs[j].End)
			}
		}
	}
}

func TestPlanPlacesHabitInPreferredWindow(t *testing.T) {
	now := fixedNow()
	in := planInput(func(in *Input) {
		in.Habits = []model.Habit{standupHabit()}
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.HabitsScheduled != 3 || len(res.Create) != 3 {
		t.Fatalf("expected 3 placements over 3 days, got habits=%d create=%d", res.HabitsScheduled, len(res.Create))
	}
	first := res.Create[0]
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !first.StartAt.Equal(want) {
		t.Fatalf("first placement at %v, want %v", first.StartAt, want)
	}
	if first.Status != model.StatusActive {
		t.Fatalf("engine placements must be active, got %s", first.Status)
	}
	if first.OccurrenceDay != "2026-03-02" {
		t.Fatalf("occurrence day = %s", first.OccurrenceDay)
	}
	if first.CreatorID != 7 {
		t.Fatalf("placement should inherit the habit creator, got %d", first.CreatorID)
	}
	assertNoOverlap(t, allBusy(in, res))
}

func TestPlanIdempotent(t *testing.T) {
	now := fixedNow()
	deadline := now.Add(70 * time.Hour)
	in := planInput(func(in *Input) {
		in.Habits = []model.Habit{standupHabit()}
		in.Tasks = []model.Task{{
			ID: 11, WorkspaceID: 1, CreatorID: 7, Title: "write report",
			Deadline: &deadline, EstimationMinutes: 60, AutoSchedule: true,
			CreatedAt: now.Add(-time.Hour),
		}}
	})

	first, err := Plan(in, now)
	if err != nil {
		t.Fatalf("first plan: %v", err)
	}
	if len(first.Create) == 0 {
		t.Fatalf("first run should create placements")
	}

	// Persist the first run's output and plan again with identical input.
	for i, ev := range first.Create {
		ev.ID = uint(100 + i)
		in.Existing = append(in.Existing, ev)
	}
	second, err := Plan(in, now)
	if err != nil {
		t.Fatalf("second plan: %v", err)
	}
	if len(second.Create) != 0 || len(second.Remove) != 0 {
		t.Fatalf("second run must be a no-op, got create=%d remove=%d", len(second.Create), len(second.Remove))
	}
}

func TestPlanNonOverlapAroundFixedEvents(t *testing.T) {
	now := fixedNow()
	in := planInput(func(in *Input) {
		in.Habits = []model.Habit{standupHabit()}
		// A fixed block squatting on the whole preferred window today.
		in.Fixed = []model.FixedEvent{{
			ID: 1, WorkspaceID: 1, Title: "all hands",
			StartAt: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
			EndAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		}}
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	// Today's occurrence cannot fit; the other days can.
	if res.HabitsScheduled != 2 {
		t.Fatalf("expected 2 placements, got %d", res.HabitsScheduled)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Day != "2026-03-02" || res.Skipped[0].Reason != ReasonNoSlotInWindow {
		t.Fatalf("expected today's occurrence reported skipped, got %+v", res.Skipped)
	}
	assertNoOverlap(t, allBusy(in, res))
}

func TestPlanConfirmationProtection(t *testing.T) {
	now := fixedNow()
	confirmed := model.ScheduledEvent{
		ID: 50, WorkspaceID: 1, CreatorID: 7,
		OwnerType: model.OwnerTask, OwnerID: 99,
		StartAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Status:  model.StatusConfirmed,
	}
	in := planInput(func(in *Input) {
		in.Habits = []model.Habit{standupHabit()}
		in.Existing = []model.ScheduledEvent{confirmed}
		in.ForceReschedule = true
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, ev := range res.Remove {
		if ev.ID == confirmed.ID {
			t.Fatalf("confirmed event must never be removed, even under force")
		}
	}
	for _, ev := range res.Create {
		if (Interval{Start: ev.StartAt, End: ev.EndAt}).Overlaps(Interval{Start: confirmed.StartAt, End: confirmed.EndAt}) {
			t.Fatalf("new placement overlaps a confirmed event")
		}
	}
	assertNoOverlap(t, allBusy(in, res))
}

// The scenario from the drawing board: a normal-priority standup and a task
// due in 20 hours compete for the only free half hour before the deadline.
// The task is critical, bumps the habit occurrence and takes the slot; the
// habit occurrence is reported bumped, not silently lost.
func TestUrgentTaskBumpsHabitOccurrence(t *testing.T) {
	now := fixedNow()
	deadline := now.Add(20 * time.Hour)
	horizonEnd := now.AddDate(0, 0, 1)

	in := planInput(func(in *Input) {
		in.WindowDays = 1
		in.Habits = []model.Habit{standupHabit()}
		in.Tasks = []model.Task{{
			ID: 11, WorkspaceID: 1, CreatorID: 7, Title: "file the return",
			Deadline: &deadline, EstimationMinutes: 30, AutoSchedule: true,
			CreatedAt: now.Add(-time.Hour),
		}}
		// Everything except 09:00-09:30 is blocked until the horizon ends.
		in.Fixed = []model.FixedEvent{
			{ID: 1, WorkspaceID: 1, StartAt: now, EndAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
			{ID: 2, WorkspaceID: 1, StartAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), EndAt: horizonEnd},
		}
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if len(res.Bumped) != 1 {
		t.Fatalf("expected exactly one bump, got %d", len(res.Bumped))
	}
	bump := res.Bumped[0]
	if bump.OwnerType != model.OwnerHabit || bump.OwnerID != 1 {
		t.Fatalf("expected the habit occurrence bumped, got %s %d", bump.OwnerType, bump.OwnerID)
	}
	if bump.BumpedByType != model.OwnerTask || bump.BumpedByID != 11 {
		t.Fatalf("bump should credit the task, got %s %d", bump.BumpedByType, bump.BumpedByID)
	}

	if len(res.Create) != 1 {
		t.Fatalf("expected only the task placement to survive, got %d", len(res.Create))
	}
	ev := res.Create[0]
	if ev.OwnerType != model.OwnerTask || ev.OwnerID != 11 {
		t.Fatalf("surviving placement should be the task, got %s %d", ev.OwnerType, ev.OwnerID)
	}
	if !ev.StartAt.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("task should occupy the freed slot, got %v", ev.StartAt)
	}
	if res.TasksScheduled != 1 || res.HabitsScheduled != 0 {
		t.Fatalf("counts wrong: habits=%d tasks=%d", res.HabitsScheduled, res.TasksScheduled)
	}
	assertNoOverlap(t, allBusy(in, res))
}

func TestPlanLowPriorityScheduledLastInCreationOrder(t *testing.T) {
	now := fixedNow()
	deadline := now.Add(120 * time.Hour)

	in := planInput(func(in *Input) {
		in.WindowDays = 7
		in.Tasks = []model.Task{
			{ID: 1, WorkspaceID: 1, Title: "someday b", EstimationMinutes: 60, AutoSchedule: true, CreatedAt: now.Add(-time.Hour)},
			{ID: 2, WorkspaceID: 1, Title: "someday a", EstimationMinutes: 60, AutoSchedule: true, CreatedAt: now.Add(-2 * time.Hour)},
			{ID: 3, WorkspaceID: 1, Title: "due friday", Deadline: &deadline, EstimationMinutes: 60, AutoSchedule: true, CreatedAt: now},
		}
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.TasksScheduled != 3 {
		t.Fatalf("expected all 3 tasks placed, got %d", res.TasksScheduled)
	}

	starts := make(map[uint]time.Time)
	for _, ev := range res.Create {
		starts[ev.OwnerID] = ev.StartAt
	}
	// The deadline task outranks both low tasks; among the lows the earlier
	// creation goes first.
	if !starts[3].Before(starts[2]) || !starts[2].Before(starts[1]) {
		t.Fatalf("placement order wrong: due=%v, older=%v, newer=%v", starts[3], starts[2], starts[1])
	}
}

func TestPlanForceRescheduleRebuildsNonConfirmed(t *testing.T) {
	now := fixedNow()
	stale := model.ScheduledEvent{
		ID: 80, WorkspaceID: 1, CreatorID: 7,
		OwnerType: model.OwnerHabit, OwnerID: 1, OccurrenceDay: "2026-03-02",
		StartAt: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
		Status:  model.StatusActive,
	}
	in := planInput(func(in *Input) {
		in.WindowDays = 1
		in.Habits = []model.Habit{standupHabit()}
		in.Existing = []model.ScheduledEvent{stale}
		in.ForceReschedule = true
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(res.Remove) != 1 || res.Remove[0].ID != stale.ID {
		t.Fatalf("force should remove the off-window placement, got %+v", res.Remove)
	}
	if len(res.Create) != 1 {
		t.Fatalf("force should re-place the occurrence, got %d creates", len(res.Create))
	}
	if !res.Create[0].StartAt.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("re-placed occurrence should return to the preferred window, got %v", res.Create[0].StartAt)
	}
}

func TestPlanRemovesStaleActiveEvents(t *testing.T) {
	now := fixedNow()
	orphan := model.ScheduledEvent{
		ID: 81, WorkspaceID: 1,
		OwnerType: model.OwnerTask, OwnerID: 404,
		StartAt: time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Status:  model.StatusActive,
	}
	in := planInput(func(in *Input) {
		in.Existing = []model.ScheduledEvent{orphan}
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(res.Remove) != 1 || res.Remove[0].ID != orphan.ID {
		t.Fatalf("expected the orphaned placement removed, got %+v", res.Remove)
	}
}

func TestPlanOverdueTaskGetsEarliestSlot(t *testing.T) {
	now := fixedNow()
	missed := now.Add(-2 * time.Hour)
	in := planInput(func(in *Input) {
		in.Habits = []model.Habit{standupHabit()}
		in.Tasks = []model.Task{{
			ID: 11, WorkspaceID: 1, CreatorID: 7, Title: "missed report",
			Deadline: &missed, EstimationMinutes: 60, AutoSchedule: true,
		}}
	})

	res, err := Plan(in, now)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.TasksScheduled != 1 || len(res.Skipped) != 0 {
		t.Fatalf("overdue task must still be placed, got tasks=%d skipped=%+v", res.TasksScheduled, res.Skipped)
	}
	var taskEv *model.ScheduledEvent
	for i := range res.Create {
		if res.Create[i].OwnerType == model.OwnerTask {
			taskEv = &res.Create[i]
		}
	}
	if taskEv == nil {
		t.Fatalf("no task placement in %+v", res.Create)
	}
	if !taskEv.StartAt.Equal(now) {
		t.Fatalf("overdue task placed at %v, want the earliest slot %v", taskEv.StartAt, now)
	}
	assertNoOverlap(t, allBusy(in, res))
}

func TestPlanValidation(t *testing.T) {
	now := fixedNow()

	in := planInput(func(in *Input) { in.WindowDays = 0 })
	if _, err := Plan(in, now); !IsValidation(err) {
		t.Fatalf("zero window should be a validation error, got %v", err)
	}

	in = planInput(func(in *Input) {
		in.Tasks = []model.Task{{ID: 1, WorkspaceID: 1, EstimationMinutes: -5, AutoSchedule: true}}
	})
	if _, err := Plan(in, now); !IsValidation(err) {
		t.Fatalf("negative estimation should be a validation error, got %v", err)
	}

	in = planInput(func(in *Input) {
		in.Fixed = []model.FixedEvent{{ID: 1, WorkspaceID: 1, StartAt: now, EndAt: now.Add(-time.Hour)}}
	})
	if _, err := Plan(in, now); !IsValidation(err) {
		t.Fatalf("inverted fixed event should be a validation error, got %v", err)
	}
}
