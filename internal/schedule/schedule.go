// Package schedule models weekly opening hours and answers the two
// feasibility questions the engine asks: is a venue open at a given
// instant, and does any instant inside a tour window admit an open visit.
// Both the coarse admission check and the authoritative per-stop check go
// through the same OpenAt implementation so the boundary convention cannot
// diverge.
package schedule

import (
	"fmt"
	"time"
)

// SampleStep is the resolution FeasibleVisit scans the tour window at.
// The contract requires at most hourly granularity; 15 minutes keeps
// short openings from slipping through.
const SampleStep = 15 * time.Minute

// Interval is one day's opening window in minutes of day.
// Open boundary is inclusive, close boundary exclusive.
type Interval struct {
	OpenMin  int `json:"openMin"`
	CloseMin int `json:"closeMin"`
}

// Week maps weekday to an optional opening interval, indexed by
// time.Weekday (Sunday = 0). A nil entry means closed that day.
type Week [7]*Interval

// Validate reports the first malformed interval, if any.
func (w Week) Validate() error {
	for d, iv := range w {
		if iv == nil {
			continue
		}
		if iv.OpenMin < 0 || iv.CloseMin > 24*60 {
			return fmt.Errorf("%s: interval [%d,%d) outside the day", time.Weekday(d), iv.OpenMin, iv.CloseMin)
		}
		if iv.CloseMin <= iv.OpenMin {
			return fmt.Errorf("%s: close %d not after open %d", time.Weekday(d), iv.CloseMin, iv.OpenMin)
		}
	}
	return nil
}

// OpenAt reports whether the venue is open at t.
func (w Week) OpenAt(t time.Time) bool {
	iv := w[t.Weekday()]
	if iv == nil {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= iv.OpenMin && m < iv.CloseMin
}

// FeasibleVisit reports whether some instant in [start, start+maxHours]
// falls inside an opening interval. This is the coarse admission check;
// the planner re-verifies every stop at its assigned instant.
func (w Week) FeasibleVisit(start time.Time, maxHours float64) bool {
	if maxHours < 0 {
		return false
	}
	end := start.Add(time.Duration(maxHours * float64(time.Hour)))
	for t := start; !t.After(end); t = t.Add(SampleStep) {
		if w.OpenAt(t) {
			return true
		}
	}
	// The loop can step past end without sampling it exactly.
	return w.OpenAt(end)
}

// AllDay is a convenience constructor for venues open every day of the week.
func AllDay() Week {
	var w Week
	for d := range w {
		w[d] = &Interval{OpenMin: 0, CloseMin: 24 * 60}
	}
	return w
}

// Daily returns a week open [openMin, closeMin) every day.
func Daily(openMin, closeMin int) Week {
	var w Week
	for d := range w {
		w[d] = &Interval{OpenMin: openMin, CloseMin: closeMin}
	}
	return w
}
