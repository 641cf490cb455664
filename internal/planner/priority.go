package planner

import (
	"time"

	"calendar-scheduler/internal/model"
)

// Deadline proximity cutoffs for derived priority.
const (
	criticalWithin = 24 * time.Hour
	highWithin     = 48 * time.Hour
)

// Item is the prioritizable shape shared by habits and tasks. Effective
// priority is always derived from a caller-supplied instant, never from an
// ambient clock, so a long batch re-evaluates urgency as time passes.
type Item struct {
	Priority  model.Priority // empty when not explicitly set
	Deadline  *time.Time
	CreatedAt time.Time
}

// HabitItem adapts a habit for priority computation. Habits carry no
// deadline; an unset priority resolves to low.
func HabitItem(h model.Habit) Item {
	return Item{
		Priority:  model.Priority(h.Priority),
		CreatedAt: h.CreatedAt,
	}
}

// TaskItem adapts a task for priority computation.
func TaskItem(t model.Task) Item {
	return Item{
		Priority:  model.Priority(t.Priority),
		Deadline:  t.Deadline,
		CreatedAt: t.CreatedAt,
	}
}

// EffectivePriority resolves the priority used for ordering. An explicit
// priority wins; otherwise deadline proximity decides; with neither, low.
// A deadline exactly at now counts as overdue.
func EffectivePriority(it Item, now time.Time) model.Priority {
	if it.Priority.Valid() {
		return it.Priority
	}
	if it.Deadline == nil {
		return model.PriorityLow
	}
	left := it.Deadline.Sub(now)
	switch {
	case left <= 0:
		return model.PriorityCritical
	case left <= criticalWithin:
		return model.PriorityCritical
	case left <= highWithin:
		return model.PriorityHigh
	default:
		return model.PriorityNormal
	}
}

// Compare orders two items for placement: higher effective priority first,
// then earlier deadline (items without one sort last), then earlier
// creation. Returns -1 when a schedules before b, 1 when after, 0 on a tie.
func Compare(a, b Item, now time.Time) int {
	wa, wb := EffectivePriority(a, now).Weight(), EffectivePriority(b, now).Weight()
	if wa != wb {
		if wa > wb {
			return -1
		}
		return 1
	}

	switch {
	case a.Deadline != nil && b.Deadline == nil:
		return -1
	case a.Deadline == nil && b.Deadline != nil:
		return 1
	case a.Deadline != nil && b.Deadline != nil:
		if a.Deadline.Before(*b.Deadline) {
			return -1
		}
		if b.Deadline.Before(*a.Deadline) {
			return 1
		}
	}

	if a.CreatedAt.Before(b.CreatedAt) {
		return -1
	}
	if b.CreatedAt.Before(a.CreatedAt) {
		return 1
	}
	return 0
}

// IsUrgent reports whether the item is time-critical right now.
func IsUrgent(it Item, now time.Time) bool {
	return EffectivePriority(it, now) == model.PriorityCritical
}

// CanBump reports whether bumper may displace target's placement. Bumping
// is reserved for urgent items that strictly outrank the target; a
// non-urgent item never bumps anything, even a lower-priority one.
func CanBump(bumper, target Item, now time.Time) bool {
	if !IsUrgent(bumper, now) {
		return false
	}
	return EffectivePriority(bumper, now).Weight() > EffectivePriority(target, now).Weight()
}

// Score collapses an item's rank into a single monotonic number for
// heuristics that need a scalar instead of a comparator. Weight dominates;
// within a weight band the bonus grows as the deadline nears, capped so no
// band ever overtakes the next. Overdue items score highest in their band.
func Score(it Item, now time.Time) int {
	score := EffectivePriority(it, now).Weight() * 1000
	if it.Deadline == nil {
		return score
	}
	left := it.Deadline.Sub(now)
	if left <= 0 {
		return score + 999
	}
	bonus := 720 - int(left/time.Hour)
	if bonus < 0 {
		bonus = 0
	}
	return score + bonus
}
