// Package ratelimit implements the tier-aware, time-windowed quota engine.
//
// This file contains the calendar window functions: each window kind turns a
// timestamp into a key suffix, a reset boundary, and a TTL. All calendar math
// uses UTC fields exclusively; the local timezone is never consulted.
package ratelimit

import (
	"fmt"
	"time"
)

// Window converts timestamps into calendar-aligned counter key suffixes and
// reset boundaries.
type Window interface {
	// Token returns the key suffix identifying the current period,
	// e.g. "20260830", "2026W35", "202608".
	Token(now time.Time) string

	// Reset returns the epoch seconds of the next window boundary, or 0 for
	// windows that rely solely on the store's TTL (monthly).
	Reset(now time.Time) int64

	// TTL returns how long a counter created at now should live.
	TTL(now time.Time) time.Duration
}

// =============================================================================
// Daily (UTC)
// =============================================================================

// DailyWindow is a UTC calendar day. Keys reset at the next UTC midnight.
type DailyWindow struct{}

func (DailyWindow) Token(now time.Time) string {
	return now.UTC().Format("20060102")
}

func (DailyWindow) Reset(now time.Time) int64 {
	return nextUTCMidnight(now).Unix()
}

func (d DailyWindow) TTL(now time.Time) time.Duration {
	return nextUTCMidnight(now).Sub(now)
}

func nextUTCMidnight(now time.Time) time.Time {
	t := now.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// =============================================================================
// Weekly (ISO 8601, Monday-anchored)
// =============================================================================

// WeeklyWindow is an ISO week. time.ISOWeek implements the ISO 8601
// "nearest Thursday" rule, so year rollover (e.g. Dec 29, 2025 belonging to
// week 1 of 2026) is handled by the standard library.
type WeeklyWindow struct{}

func (WeeklyWindow) Token(now time.Time) string {
	year, week := now.UTC().ISOWeek()
	return fmt.Sprintf("%04dW%02d", year, week)
}

func (WeeklyWindow) Reset(now time.Time) int64 {
	return NextMondayUTC(now).Unix()
}

func (w WeeklyWindow) TTL(now time.Time) time.Duration {
	return NextMondayUTC(now).Sub(now)
}

// NextMondayUTC returns the first Monday 00:00 UTC strictly after now.
// A timestamp that is exactly Monday midnight maps seven days ahead, never to
// itself.
func NextMondayUTC(now time.Time) time.Time {
	t := now.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := (int(time.Monday) - int(midnight.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return midnight.AddDate(0, 0, days)
}

// =============================================================================
// Monthly (UTC)
// =============================================================================

// MonthlyWindow is a UTC calendar month.
//
// Monthly counters live until the end of the month plus 24 hours; the slack
// absorbs users whose local midnight straddles the UTC boundary. Because the
// TTL, not a reported boundary, governs the reset, Reset always returns 0 and
// callers treat that as "see TTL". This asymmetry with the daily and weekly
// windows is intentional.
type MonthlyWindow struct{}

func (MonthlyWindow) Token(now time.Time) string {
	return now.UTC().Format("200601")
}

func (MonthlyWindow) Reset(now time.Time) int64 {
	return 0
}

func (MonthlyWindow) TTL(now time.Time) time.Duration {
	t := now.UTC()
	startOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return startOfNext.Add(24 * time.Hour).Sub(now)
}
