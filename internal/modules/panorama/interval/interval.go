// Package interval computes the half-open time window a dashboard view covers.
package interval

import (
	"time"

	"sensorpanorama/internal/modules/panorama/types"
)

// Resolver floors anchors in a fixed location and week convention.
type Resolver struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// NewResolver returns a resolver for loc; nil means time.Local.
func NewResolver(loc *time.Location, weekStart time.Weekday) Resolver {
	if loc == nil {
		loc = time.Local
	}
	return Resolver{Location: loc, WeekStart: weekStart}
}

// Resolve floors anchor to the start of the mode's unit; End is one unit later.
func (r Resolver) Resolve(mode types.Mode, anchor time.Time) types.Interval {
	start := r.Floor(mode, anchor)
	var end time.Time
	switch mode {
	case types.ModeWeek:
		end = start.AddDate(0, 0, 7)
	case types.ModeMonth:
		end = start.AddDate(0, 1, 0)
	case types.ModeYear:
		end = start.AddDate(1, 0, 0)
	default:
		end = start.AddDate(0, 0, 1)
	}
	return types.Interval{Start: start, End: end}
}

// Custom returns start and end verbatim. start >= end is not rejected; such
// an interval simply matches nothing.
func (r Resolver) Custom(start, end time.Time) types.Interval {
	return types.Interval{Start: start, End: end}
}

// Floor returns the start of the mode's unit containing t.
func (r Resolver) Floor(mode types.Mode, t time.Time) time.Time {
	t = t.In(r.Loc())
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, r.Loc())
	switch mode {
	case types.ModeWeek:
		offset := (int(day.Weekday()) - int(r.WeekStart) + 7) % 7
		return day.AddDate(0, 0, -offset)
	case types.ModeMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, r.Loc())
	case types.ModeYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, r.Loc())
	default:
		return day
	}
}

// Step moves anchor by one unit of mode in the given direction (sign only).
// Month and year steps clamp the day of month so no unit is skipped.
func (r Resolver) Step(mode types.Mode, anchor time.Time, direction int) time.Time {
	sign := 1
	if direction < 0 {
		sign = -1
	}
	anchor = anchor.In(r.Loc())
	switch mode {
	case types.ModeWeek:
		return anchor.AddDate(0, 0, 7*sign)
	case types.ModeMonth:
		return addMonthsClamped(anchor, sign)
	case types.ModeYear:
		return addMonthsClamped(anchor, 12*sign)
	default:
		return anchor.AddDate(0, 0, sign)
	}
}

// Loc is the location anchors are floored in.
func (r Resolver) Loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
