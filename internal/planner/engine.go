package planner

import (
	"sort"
	"time"

	"calendar-scheduler/internal/model"
)

// Shortfall reasons surfaced in the plan report.
const (
	ReasonNoSlotInWindow       = "no free slot in preferred window"
	ReasonNoSlotBeforeDeadline = "no free slot before deadline"
	ReasonNoSlotInHorizon      = "no free slot in horizon"
)

// Input is everything one workspace run plans over. The orchestrator loads
// it up front; the engine itself performs no I/O.
type Input struct {
	WorkspaceID     uint
	Habits          []model.Habit // active, auto-schedulable
	Tasks           []model.Task  // auto-schedulable, open, not archived
	Fixed           []model.FixedEvent
	Existing        []model.ScheduledEvent // every scheduled event in the horizon
	WindowDays      int
	ForceReschedule bool
	Location        *time.Location
}

// Placement reports one interval the engine claimed this run.
type Placement struct {
	OwnerType string
	OwnerID   uint
	Title     string
	Day       string
	Start     time.Time
	End       time.Time
}

// Shortfall reports an item the engine could not place. Shortfalls are
// data, not errors: the run still succeeds.
type Shortfall struct {
	OwnerType string
	OwnerID   uint
	Title     string
	Day       string
	Reason    string
}

// BumpRecord captures a displaced placement so the owner is visibly queued
// for re-placement on a later run rather than silently dropped.
type BumpRecord struct {
	OwnerType    string
	OwnerID      uint
	Title        string
	Day          string
	OldStart     time.Time
	OldEnd       time.Time
	BumpedByType string
	BumpedByID   uint
}

// Result is the engine's full output: the event rows to create and remove,
// plus the run report.
type Result struct {
	Create []model.ScheduledEvent
	Remove []model.ScheduledEvent

	Placed  []Placement
	Skipped []Shortfall
	Bumped  []BumpRecord

	HabitsScheduled int
	TasksScheduled  int
}

type ownerKey struct {
	ownerType string
	ownerID   uint
	day       string
}

// planned is an event created during this run, cancellable until the run
// ends (an urgent task may bump it back out).
type planned struct {
	ev        model.ScheduledEvent
	pl        Placement
	isHabit   bool
	cancelled bool
}

// block is a bump candidate on the timeline: a non-confirmed placement
// whose owner's priority is known.
type block struct {
	iv        Interval
	ownerType string
	ownerID   uint
	title     string
	day       string
	item      Item
	bumpable  bool
	existing  *model.ScheduledEvent // pre-existing row, nil when created this run
	created   *planned              // set when created this run
}

type engine struct {
	in       Input
	now      time.Time
	horizon  Interval
	loc      *time.Location
	timeline *Timeline
	blocks   []*block
	owned    map[ownerKey]bool
	plans    []*planned
	result   *Result

	habitsByID map[uint]model.Habit
	tasksByID  map[uint]model.Task
}

// Plan computes the create/remove set for one workspace. It is
// deterministic given identical input and now: repeated runs over unchanged
// data produce no additional creates or removes.
func Plan(in Input, now time.Time) (*Result, error) {
	if in.WindowDays <= 0 {
		return nil, validationf("window days must be positive, got %d", in.WindowDays)
	}
	for _, t := range in.Tasks {
		if t.EstimationMinutes <= 0 {
			return nil, validationf("task %d: estimation must be positive, got %d", t.ID, t.EstimationMinutes)
		}
	}
	for _, f := range in.Fixed {
		if !f.EndAt.After(f.StartAt) {
			return nil, validationf("fixed event %d: interval is inverted or empty", f.ID)
		}
	}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	e := &engine{
		in:         in,
		now:        now,
		horizon:    Interval{Start: now, End: now.AddDate(0, 0, in.WindowDays)},
		loc:        loc,
		timeline:   NewTimeline(),
		owned:      make(map[ownerKey]bool),
		result:     &Result{},
		habitsByID: make(map[uint]model.Habit, len(in.Habits)),
		tasksByID:  make(map[uint]model.Task, len(in.Tasks)),
	}
	for _, h := range in.Habits {
		e.habitsByID[h.ID] = h
	}
	for _, t := range in.Tasks {
		e.tasksByID[t.ID] = t
	}

	e.loadFixed()
	e.loadExisting()
	if err := e.placeHabits(); err != nil {
		return nil, err
	}
	e.placeTasks()
	e.finish()
	return e.result, nil
}

func (e *engine) loadFixed() {
	for _, f := range e.in.Fixed {
		e.timeline.Add(Interval{Start: f.StartAt, End: f.EndAt})
	}
}

// loadExisting sorts every existing event into one of: permanently busy
// (confirmed), returned to the pool (force mode), removed as stale (active
// but the owner is no longer auto-schedulable), or kept busy and bumpable.
func (e *engine) loadExisting() {
	for i := range e.in.Existing {
		ev := e.in.Existing[i]
		iv := Interval{Start: ev.StartAt, End: ev.EndAt}

		if ev.Confirmed() {
			e.timeline.Add(iv)
			e.owned[ownerKey{ev.OwnerType, ev.OwnerID, ev.OccurrenceDay}] = true
			continue
		}

		item, known := e.ownerItem(ev)
		if e.in.ForceReschedule && known {
			e.result.Remove = append(e.result.Remove, ev)
			continue
		}
		if !known && ev.Status == model.StatusActive {
			// Auto-created placement whose owner was deleted, completed or
			// opted out of auto-scheduling.
			e.result.Remove = append(e.result.Remove, ev)
			continue
		}

		e.timeline.Add(iv)
		e.owned[ownerKey{ev.OwnerType, ev.OwnerID, ev.OccurrenceDay}] = true
		e.blocks = append(e.blocks, &block{
			iv:        iv,
			ownerType: ev.OwnerType,
			ownerID:   ev.OwnerID,
			title:     e.ownerTitle(ev),
			day:       ev.OccurrenceDay,
			item:      item,
			bumpable:  known,
			existing:  &e.in.Existing[i],
		})
	}
}

func (e *engine) ownerItem(ev model.ScheduledEvent) (Item, bool) {
	switch ev.OwnerType {
	case model.OwnerHabit:
		if h, ok := e.habitsByID[ev.OwnerID]; ok {
			return HabitItem(h), true
		}
	case model.OwnerTask:
		if t, ok := e.tasksByID[ev.OwnerID]; ok {
			return TaskItem(t), true
		}
	}
	return Item{}, false
}

func (e *engine) ownerTitle(ev model.ScheduledEvent) string {
	switch ev.OwnerType {
	case model.OwnerHabit:
		if h, ok := e.habitsByID[ev.OwnerID]; ok {
			return h.Title
		}
	case model.OwnerTask:
		if t, ok := e.tasksByID[ev.OwnerID]; ok {
			return t.Title
		}
	}
	return ""
}

func (e *engine) placeHabits() error {
	type habitOcc struct {
		occ  Occurrence
		item Item
	}

	var occs []habitOcc
	for _, h := range e.in.Habits {
		expanded, err := ExpandHabit(h, e.horizon, e.loc)
		if err != nil {
			return err
		}
		item := HabitItem(h)
		for _, occ := range expanded {
			occs = append(occs, habitOcc{occ: occ, item: item})
		}
	}

	sort.SliceStable(occs, func(i, j int) bool {
		if c := Compare(occs[i].item, occs[j].item, e.now); c != 0 {
			return c < 0
		}
		if !occs[i].occ.Window.Start.Equal(occs[j].occ.Window.Start) {
			return occs[i].occ.Window.Start.Before(occs[j].occ.Window.Start)
		}
		return occs[i].occ.Habit.ID < occs[j].occ.Habit.ID
	})

	for _, ho := range occs {
		h := ho.occ.Habit
		day := DayKey(ho.occ.Day)
		key := ownerKey{model.OwnerHabit, h.ID, day}
		if e.owned[key] {
			continue
		}

		dur := time.Duration(h.DurationMinutes) * time.Minute
		window := ho.occ.Window.Clip(e.horizon)
		slot, ok := e.timeline.FindSlot(window, dur)
		if !ok {
			e.result.Skipped = append(e.result.Skipped, Shortfall{
				OwnerType: model.OwnerHabit,
				OwnerID:   h.ID,
				Title:     h.Title,
				Day:       day,
				Reason:    ReasonNoSlotInWindow,
			})
			continue
		}

		e.commit(&planned{
			ev: model.ScheduledEvent{
				WorkspaceID:   e.in.WorkspaceID,
				CreatorID:     h.CreatorID,
				OwnerType:     model.OwnerHabit,
				OwnerID:       h.ID,
				OccurrenceDay: day,
				StartAt:       slot.Start,
				EndAt:         slot.End,
				Status:        model.StatusActive,
			},
			pl: Placement{
				OwnerType: model.OwnerHabit,
				OwnerID:   h.ID,
				Title:     h.Title,
				Day:       day,
				Start:     slot.Start,
				End:       slot.End,
			},
			isHabit: true,
		}, ho.item, key, slot)
	}
	return nil
}

func (e *engine) placeTasks() {
	tasks := make([]model.Task, len(e.in.Tasks))
	copy(tasks, e.in.Tasks)
	sort.SliceStable(tasks, func(i, j int) bool {
		if c := Compare(TaskItem(tasks[i]), TaskItem(tasks[j]), e.now); c != 0 {
			return c < 0
		}
		return tasks[i].ID < tasks[j].ID
	})

	for _, t := range tasks {
		key := ownerKey{model.OwnerTask, t.ID, ""}
		if e.owned[key] {
			continue
		}

		item := TaskItem(t)
		dur := time.Duration(t.EstimationMinutes) * time.Minute
		// An overdue deadline no longer constrains the window: the task
		// ranks critical and competes for the earliest slot instead.
		window := e.horizon
		deadlineAhead := t.Deadline != nil && t.Deadline.After(e.now)
		if deadlineAhead && t.Deadline.Before(window.End) {
			window.End = *t.Deadline
		}

		slot, ok := e.timeline.FindSlot(window, dur)
		if !ok && IsUrgent(item, e.now) {
			slot, ok = e.bumpFor(t, item, window, dur)
		}
		if !ok {
			reason := ReasonNoSlotInHorizon
			if deadlineAhead {
				reason = ReasonNoSlotBeforeDeadline
			}
			e.result.Skipped = append(e.result.Skipped, Shortfall{
				OwnerType: model.OwnerTask,
				OwnerID:   t.ID,
				Title:     t.Title,
				Reason:    reason,
			})
			continue
		}

		e.commit(&planned{
			ev: model.ScheduledEvent{
				WorkspaceID: e.in.WorkspaceID,
				CreatorID:   t.CreatorID,
				OwnerType:   model.OwnerTask,
				OwnerID:     t.ID,
				StartAt:     slot.Start,
				EndAt:       slot.End,
				Status:      model.StatusActive,
			},
			pl: Placement{
				OwnerType: model.OwnerTask,
				OwnerID:   t.ID,
				Title:     t.Title,
				Start:     slot.Start,
				End:       slot.End,
			},
		}, item, key, slot)
	}
}

// bumpFor tries to free room for an urgent task by displacing one
// strictly-lower-priority, non-confirmed block. Weakest targets go first,
// earliest start breaking ties, so the choice is stable across runs.
func (e *engine) bumpFor(t model.Task, item Item, window Interval, dur time.Duration) (Interval, bool) {
	var candidates []*block
	for _, b := range e.blocks {
		if !b.bumpable {
			continue
		}
		if !b.iv.Start.Before(window.End) {
			// Freeing a block past the deadline cannot help.
			continue
		}
		if CanBump(item, b.item, e.now) {
			candidates = append(candidates, b)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		wi := EffectivePriority(candidates[i].item, e.now).Weight()
		wj := EffectivePriority(candidates[j].item, e.now).Weight()
		if wi != wj {
			return wi < wj
		}
		if !candidates[i].iv.Start.Equal(candidates[j].iv.Start) {
			return candidates[i].iv.Start.Before(candidates[j].iv.Start)
		}
		return candidates[i].ownerID < candidates[j].ownerID
	})

	for _, b := range candidates {
		e.timeline.Remove(b.iv)
		slot, ok := e.timeline.FindSlot(window, dur)
		if !ok {
			e.timeline.Add(b.iv)
			continue
		}

		b.bumpable = false
		delete(e.owned, ownerKey{b.ownerType, b.ownerID, b.day})
		if b.existing != nil {
			e.result.Remove = append(e.result.Remove, *b.existing)
		} else if b.created != nil {
			b.created.cancelled = true
		}
		e.result.Bumped = append(e.result.Bumped, BumpRecord{
			OwnerType:    b.ownerType,
			OwnerID:      b.ownerID,
			Title:        b.title,
			Day:          b.day,
			OldStart:     b.iv.Start,
			OldEnd:       b.iv.End,
			BumpedByType: model.OwnerTask,
			BumpedByID:   t.ID,
		})
		return slot, true
	}
	return Interval{}, false
}

func (e *engine) commit(p *planned, item Item, key ownerKey, slot Interval) {
	e.plans = append(e.plans, p)
	e.owned[key] = true
	e.timeline.Add(slot)
	e.blocks = append(e.blocks, &block{
		iv:        slot,
		ownerType: p.pl.OwnerType,
		ownerID:   p.pl.OwnerID,
		title:     p.pl.Title,
		day:       p.pl.Day,
		item:      item,
		bumpable:  true,
		created:   p,
	})
}

func (e *engine) finish() {
	for _, p := range e.plans {
		if p.cancelled {
			continue
		}
		e.result.Create = append(e.result.Create, p.ev)
		e.result.Placed = append(e.result.Placed, p.pl)
		if p.isHabit {
			e.result.HabitsScheduled++
		} else {
			e.result.TasksScheduled++
		}
	}
}
