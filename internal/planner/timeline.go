package planner

import (
	"sort"
	"time"
)

// Interval is a half-open time span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Empty() bool {
	return !iv.End.After(iv.Start)
}

// Clip returns the portion of iv inside bounds; the result may be empty.
func (iv Interval) Clip(bounds Interval) Interval {
	out := iv
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Timeline is the in-memory busy set for one workspace. The engine loads
// every blocking interval into it before placement and does no I/O after.
type Timeline struct {
	busy []Interval // sorted by Start
}

func NewTimeline(blocks ...Interval) *Timeline {
	t := &Timeline{busy: make([]Interval, 0, len(blocks))}
	for _, b := range blocks {
		t.Add(b)
	}
	return t
}

// Add inserts a busy block, keeping the set sorted by start time.
func (t *Timeline) Add(iv Interval) {
	if iv.Empty() {
		return
	}
	i := sort.Search(len(t.busy), func(i int) bool {
		return !t.busy[i].Start.Before(iv.Start)
	})
	t.busy = append(t.busy, Interval{})
	copy(t.busy[i+1:], t.busy[i:])
	t.busy[i] = iv
}

// Remove deletes the first block exactly matching iv. It reports whether a
// block was removed.
func (t *Timeline) Remove(iv Interval) bool {
	for i, b := range t.busy {
		if b.Start.Equal(iv.Start) && b.End.Equal(iv.End) {
			t.busy = append(t.busy[:i], t.busy[i+1:]...)
			return true
		}
	}
	return false
}

// FindSlot returns the earliest free interval of length d inside window.
// Candidates always begin either at the window edge or flush against the
// end of a busy block, so repeated runs over unchanged input pick the same
// slot and free spans are not split mid-gap.
func (t *Timeline) FindSlot(window Interval, d time.Duration) (Interval, bool) {
	if d <= 0 || window.Empty() || window.Duration() < d {
		return Interval{}, false
	}
	cursor := window.Start
	for _, b := range t.busy {
		if !b.End.After(cursor) {
			continue
		}
		if !b.Start.Before(window.End) && !b.Start.Before(cursor) {
			break
		}
		if !b.Start.Before(cursor.Add(d)) {
			return Interval{Start: cursor, End: cursor.Add(d)}, true
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if cursor.Add(d).After(window.End) {
			return Interval{}, false
		}
	}
	if cursor.Add(d).After(window.End) {
		return Interval{}, false
	}
	return Interval{Start: cursor, End: cursor.Add(d)}, true
}
