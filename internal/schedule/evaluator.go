// Package schedule evaluates pause schedules against the wall clock.
//
// The evaluator is pure: it performs no I/O, reads no global clock, and
// assumes well-formed schedule strings. Format validation happens in the
// configuration layer before a schedule is persisted.
package schedule

import (
	"time"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// ActiveSchedule returns the first enabled, non-excepted schedule whose
// window contains now in the given IANA timezone, or nil if none match.
//
// Schedules are evaluated in their given order; the caller's ordering is
// significant and preserved. Matching a window:
//
//   - start < end: same-day window, active iff start <= current < end
//   - start > end: cross-midnight window, active iff current >= start or
//     current < end
//   - start == end: zero-duration window, never active
//
// The start boundary is inclusive, the end boundary exclusive. Times compare
// as raw "HH:mm" strings, which is valid because the format is zero-padded
// 24-hour. DST correctness lives in the timezone conversion, not the window
// matching: the local wall clock is computed with the IANA tz database.
func ActiveSchedule(schedules []domain.PauseSchedule, timezone string, now time.Time) *domain.PauseSchedule {
	localDate, localTime := localClock(timezone, now)

	for i := range schedules {
		s := &schedules[i]
		if !s.Enabled {
			continue
		}
		if excepted(s, localDate) {
			continue
		}
		if inWindow(s.Start, s.End, localTime) {
			return s
		}
	}
	return nil
}

// IsPaused reports whether any schedule is currently active.
func IsPaused(schedules []domain.PauseSchedule, timezone string, now time.Time) bool {
	return ActiveSchedule(schedules, timezone, now) != nil
}

// localClock converts now into the target timezone's wall-clock date and
// time strings. An unloadable timezone falls back to UTC; the configuration
// layer rejects bad zone names before they are stored, so this only guards
// against a stale tz database.
func localClock(timezone string, now time.Time) (date, clock string) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return local.Format("2006-01-02"), local.Format("15:04")
}

// excepted reports whether the schedule is suppressed on the given local date.
func excepted(s *domain.PauseSchedule, localDate string) bool {
	for _, d := range s.ExceptionDates {
		if d == localDate {
			return true
		}
	}
	return false
}

// inWindow tests current against [start, end) with cross-midnight wraparound.
func inWindow(start, end, current string) bool {
	switch {
	case start == end:
		return false
	case start < end:
		return current >= start && current < end
	default:
		return current >= start || current < end
	}
}
