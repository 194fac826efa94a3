// Package domain contains core business types and interfaces.
//
// This file defines pause schedules: recurring local-time windows during
// which automated posting must not fire.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PauseSchedule is a recurring time-of-day window attached to an automation
// configuration.
//
// Start and End are zero-padded 24-hour "HH:mm" wall-clock strings in the
// automation's timezone. Because the format is zero-padded, windows are
// compared in plain lexical order. A window where Start == End has zero
// duration and never pauses anything.
//
// The evaluator in internal/schedule assumes well-formed values; Validate is
// called by the configuration layer before a schedule is persisted.
type PauseSchedule struct {
	ID      uuid.UUID
	Enabled bool
	Start   string // "HH:mm", inclusive
	End     string // "HH:mm", exclusive
	Label   string // optional

	// OverrideFrequency downgrades the window from a hard pause to a slower
	// poll cadence of PollIntervalMinutes.
	OverrideFrequency   bool
	PollIntervalMinutes int

	// ExceptionDates lists "YYYY-MM-DD" local dates on which the schedule
	// does not apply.
	ExceptionDates []string
}

// ValidTimeOfDay reports whether s is a zero-padded 24-hour "HH:mm" string.
func ValidTimeOfDay(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ValidDate reports whether s is a zero-padded "YYYY-MM-DD" string.
func ValidDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Validate checks the schedule's string fields. It returns a ValidationError
// listing every malformed field, or nil if the schedule is well-formed.
func (p *PauseSchedule) Validate() error {
	const op = "schedule.validate"

	var err error
	if !ValidTimeOfDay(p.Start) {
		err = AddFieldError(err, "start", fmt.Sprintf("start time %q is not a valid HH:mm value", p.Start))
	}
	if !ValidTimeOfDay(p.End) {
		err = AddFieldError(err, "end", fmt.Sprintf("end time %q is not a valid HH:mm value", p.End))
	}
	if p.OverrideFrequency && p.PollIntervalMinutes < 1 {
		err = AddFieldError(err, "poll_interval_minutes", "override poll interval must be at least 1 minute")
	}
	for _, d := range p.ExceptionDates {
		if !ValidDate(d) {
			err = AddFieldError(err, "exception_dates", fmt.Sprintf("exception date %q is not a valid YYYY-MM-DD value", d))
		}
	}

	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Op = op
		}
		return err
	}
	return nil
}
