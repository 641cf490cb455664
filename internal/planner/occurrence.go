package planner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"calendar-scheduler/internal/model"
)

// ValidationError marks malformed scheduling input. It is the only hard
// failure the engine produces; placement shortfalls are report entries.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const dayFormat = "2006-01-02"

// DayKey renders the calendar day an occurrence is pinned to.
func DayKey(t time.Time) string {
	return t.Format(dayFormat)
}

// Occurrence is one concrete calendar instance of a habit inside the
// horizon. Window is the preferred time-of-day span on that day; an
// occurrence never moves across days.
type Occurrence struct {
	Habit  model.Habit
	Day    time.Time // midnight in the workspace location
	Window Interval
}

// ExpandHabit generates the habit's occurrences whose preferred windows end
// inside the horizon. Monthly cadences clamp the target day to the end of
// short months.
func ExpandHabit(h model.Habit, horizon Interval, loc *time.Location) ([]Occurrence, error) {
	if h.DurationMinutes <= 0 {
		return nil, validationf("habit %d: duration must be positive, got %d", h.ID, h.DurationMinutes)
	}
	startClock, err := parseClock(h.PreferredStart)
	if err != nil {
		return nil, validationf("habit %d: preferred start: %v", h.ID, err)
	}
	endClock, err := parseClock(h.PreferredEnd)
	if err != nil {
		return nil, validationf("habit %d: preferred end: %v", h.ID, err)
	}
	if endClock <= startClock {
		return nil, validationf("habit %d: preferred window %s-%s is inverted or empty", h.ID, h.PreferredStart, h.PreferredEnd)
	}

	var out []Occurrence
	day := time.Date(horizon.Start.In(loc).Year(), horizon.Start.In(loc).Month(), horizon.Start.In(loc).Day(), 0, 0, 0, 0, loc)
	for !day.After(horizon.End) {
		ok, err := cadenceMatches(h, day)
		if err != nil {
			return nil, err
		}
		if ok {
			window := Interval{
				Start: day.Add(startClock),
				End:   day.Add(endClock),
			}
			if window.End.After(horizon.Start) && window.Start.Before(horizon.End) {
				out = append(out, Occurrence{Habit: h, Day: day, Window: window})
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

func cadenceMatches(h model.Habit, day time.Time) (bool, error) {
	switch h.Cadence {
	case model.CadenceDaily:
		return true, nil
	case model.CadenceWeekdays:
		wd := day.Weekday()
		return wd != time.Saturday && wd != time.Sunday, nil
	case model.CadenceWeekly:
		if h.ByWeekday < 0 || h.ByWeekday > 6 {
			return false, validationf("habit %d: weekday must be 0..6, got %d", h.ID, h.ByWeekday)
		}
		return day.Weekday() == time.Weekday(h.ByWeekday), nil
	case model.CadenceMonthly:
		if h.ByMonthday < 1 || h.ByMonthday > 31 {
			return false, validationf("habit %d: monthday must be 1..31, got %d", h.ID, h.ByMonthday)
		}
		target := h.ByMonthday
		if last := daysInMonth(day.Month(), day.Year()); target > last {
			target = last
		}
		return day.Day() == target, nil
	default:
		return false, validationf("habit %d: unknown cadence %q", h.ID, h.Cadence)
	}
}

// parseClock converts "HH:MM" into an offset from midnight.
func parseClock(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}

func daysInMonth(month time.Month, year int) int {
	// First of next month, rolled back a day.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}
