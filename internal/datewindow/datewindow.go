// Package datewindow holds the time comparisons shared by the enrollment
// commands and the reconciler. Deadlines compare instants. The day helpers
// truncate both sides to midnight in the given location before comparing.
package datewindow

import (
	"math"
	"time"
)

// Day returns midnight of t's calendar day in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Day(a, loc).Equal(Day(b, loc))
}

// DayBefore returns t moved back by one calendar day.
func DayBefore(t time.Time) time.Time {
	return t.AddDate(0, 0, -1)
}

// NotPast reports whether deadline has not yet passed at now. The deadline
// instant itself is inside the window.
func NotPast(now, deadline time.Time) bool {
	return !now.After(deadline)
}

// After reports whether now falls on a calendar day strictly later than t's.
func After(now, t time.Time, loc *time.Location) bool {
	return Day(now, loc).After(Day(t, loc))
}

// DaysUntil returns the number of calendar days from now until t. It is
// negative when t's day has passed.
func DaysUntil(now, t time.Time, loc *time.Location) int {
	d := Day(t, loc).Sub(Day(now, loc))
	return int(math.Round(d.Hours() / 24))
}
