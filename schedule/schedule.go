package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Schedule determines whether an associated flow should run at a given
// time. The zero value never runs.
type Schedule struct {
	check func(t time.Time) bool
}

// New creates a schedule from a time predicate. The predicate may assume
// the given time is rounded down to the minute.
func New(check func(t time.Time) bool) Schedule {
	return Schedule{check: check}
}

// ShouldRun reports whether the flow should run now.
func (s Schedule) ShouldRun() bool {
	return s.ShouldRunAt(time.Now())
}

// ShouldRunAt reports whether the flow should run at t. The time is
// rounded down to the minute before evaluation.
func (s Schedule) ShouldRunAt(t time.Time) bool {
	if s.check == nil {
		return false
	}
	return s.check(t.Truncate(time.Minute))
}

// Union returns the schedule that runs whenever either schedule would.
// A zero Schedule contributes nothing.
func (s Schedule) Union(other Schedule) Schedule {
	return New(func(t time.Time) bool {
		return s.ShouldRunAt(t) || other.ShouldRunAt(t)
	})
}

// Except returns the schedule that runs whenever s would and other would
// not. A zero Schedule removes nothing.
func (s Schedule) Except(other Schedule) Schedule {
	return New(func(t time.Time) bool {
		return s.ShouldRunAt(t) && !other.ShouldRunAt(t)
	})
}

// Always returns a schedule that runs on every evaluation.
func Always() Schedule {
	return New(func(time.Time) bool { return true })
}

// Hourly returns a schedule that runs at the top of every hour.
func Hourly() Schedule {
	return New(func(t time.Time) bool { return t.Minute() == 0 })
}

// Daily returns a schedule that runs at the top of the given hour
// (24-hour clock) once a day.
func Daily(hour int) (Schedule, error) {
	if hour < 0 || hour > 23 {
		return Schedule{}, fmt.Errorf("schedule: invalid hour: %d", hour)
	}
	return New(func(t time.Time) bool {
		return t.Minute() == 0 && t.Hour() == hour
	}), nil
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Weekly returns a schedule that runs at the top of the given hour on the
// given day of the week. Day names are case-insensitive English weekdays.
func Weekly(day string, hour int) (Schedule, error) {
	weekday, ok := weekdays[strings.ToLower(day)]
	if !ok {
		return Schedule{}, fmt.Errorf("schedule: invalid day of the week: %q", day)
	}
	daily, err := Daily(hour)
	if err != nil {
		return Schedule{}, err
	}
	return New(func(t time.Time) bool {
		return daily.check(t) && t.Weekday() == weekday
	}), nil
}
