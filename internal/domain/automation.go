// Package domain contains core business types and interfaces.
//
// This file defines automation configurations: the per-account settings that
// drive the cron-style auto-reply and auto-publish pipelines.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AutomationKind identifies which pipeline an automation config drives.
type AutomationKind string

const (
	AutomationAutoReply   AutomationKind = "auto_reply"
	AutomationAutoPublish AutomationKind = "auto_publish"
)

// ValidAutomationKind reports whether k names a known pipeline.
func ValidAutomationKind(k AutomationKind) bool {
	return k == AutomationAutoReply || k == AutomationAutoPublish
}

// AutomationConfig holds one account's settings for an automation pipeline.
//
// Timezone is an IANA zone name; pause schedules are evaluated against the
// account's local wall clock, not UTC. Schedules keep their stored order
// because the evaluator is first-match-wins.
type AutomationConfig struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Kind                AutomationKind
	Enabled             bool
	Timezone            string
	PollIntervalMinutes int
	Schedules           []PauseSchedule
	LastRunAt           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NextRunAt returns when the config is next due, given an effective poll
// interval. A config that has never run is due immediately.
func (c *AutomationConfig) NextRunAt(interval time.Duration) time.Time {
	if c.LastRunAt == nil {
		return time.Time{}
	}
	return c.LastRunAt.Add(interval)
}

// Due reports whether the config should run at the given instant.
func (c *AutomationConfig) Due(interval time.Duration, now time.Time) bool {
	if !c.Enabled {
		return false
	}
	return !c.NextRunAt(interval).After(now)
}
