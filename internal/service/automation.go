// Package service contains the business logic layer.
//
// This file implements the automation service: CRUD and scheduling decisions
// for the auto-reply and auto-publish pipelines.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/repository"
	"github.com/zz676/juice-index-sub001/internal/schedule"
)

// AutomationService defines operations for managing automation configs.
type AutomationService interface {
	// Create validates and persists a new config with its pause schedules.
	// Returns domain.EINVALID for validation errors.
	Create(ctx context.Context, cfg *domain.AutomationConfig) error

	// Update validates and persists changes to an existing config, replacing
	// its pause schedules.
	// Returns domain.ENOTFOUND if the config doesn't exist.
	Update(ctx context.Context, cfg *domain.AutomationConfig) error

	// Get loads a config with its schedules.
	Get(ctx context.Context, id uuid.UUID) (*domain.AutomationConfig, error)

	// ListDue returns the enabled configs whose effective poll interval has
	// elapsed since their last run.
	ListDue(ctx context.Context, now time.Time) ([]domain.AutomationConfig, error)

	// MarkRun records that a config's pipeline ran at the given instant.
	MarkRun(ctx context.Context, id uuid.UUID, at time.Time) error
}

type automationService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewAutomationService creates a new AutomationService.
func NewAutomationService(queries *repository.Queries, logger *slog.Logger) AutomationService {
	return &automationService{
		queries: queries,
		logger:  logger,
	}
}

// Create validates and persists a new config.
func (s *automationService) Create(ctx context.Context, cfg *domain.AutomationConfig) error {
	const op = "automation.create"

	if err := ValidateAutomationConfig(cfg); err != nil {
		return err
	}
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}

	if err := s.queries.CreateAutomationConfig(ctx, cfg); err != nil {
		return domain.Internal(err, op, "failed to create automation config")
	}
	if err := s.queries.ReplacePauseSchedules(ctx, cfg.ID, cfg.Schedules); err != nil {
		return domain.Internal(err, op, "failed to store pause schedules")
	}

	s.logger.Info("created automation config",
		"config_id", cfg.ID,
		"user_id", cfg.UserID,
		"kind", cfg.Kind,
		"schedules", len(cfg.Schedules),
	)
	return nil
}

// Update validates and persists changes to an existing config.
func (s *automationService) Update(ctx context.Context, cfg *domain.AutomationConfig) error {
	const op = "automation.update"

	if err := ValidateAutomationConfig(cfg); err != nil {
		return err
	}

	if err := s.queries.UpdateAutomationConfig(ctx, cfg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "automation config", cfg.ID.String())
		}
		return domain.Internal(err, op, "failed to update automation config")
	}
	if err := s.queries.ReplacePauseSchedules(ctx, cfg.ID, cfg.Schedules); err != nil {
		return domain.Internal(err, op, "failed to store pause schedules")
	}
	return nil
}

// Get loads a config with its schedules.
func (s *automationService) Get(ctx context.Context, id uuid.UUID) (*domain.AutomationConfig, error) {
	const op = "automation.get"

	cfg, err := s.queries.GetAutomationConfig(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "automation config", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load automation config")
	}
	return cfg, nil
}

// ListDue returns the enabled configs due to run at now.
func (s *automationService) ListDue(ctx context.Context, now time.Time) ([]domain.AutomationConfig, error) {
	const op = "automation.list_due"

	configs, err := s.queries.ListEnabledAutomationConfigs(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list automation configs")
	}

	var due []domain.AutomationConfig
	for _, cfg := range configs {
		interval := EffectivePollInterval(&cfg, now)
		if cfg.Due(interval, now) {
			due = append(due, cfg)
		}
	}
	return due, nil
}

// MarkRun records that a config's pipeline ran at the given instant.
func (s *automationService) MarkRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "automation.mark_run"

	if err := s.queries.MarkAutomationRun(ctx, id, at); err != nil {
		return domain.Internal(err, op, "failed to mark automation run")
	}
	return nil
}

// EffectivePollInterval returns the poll interval in force at now. An active
// pause schedule with override_frequency replaces the config's base interval
// with its own slower cadence; an active schedule without the override pauses
// the pipeline entirely, which Paused reports.
func EffectivePollInterval(cfg *domain.AutomationConfig, now time.Time) time.Duration {
	base := time.Duration(cfg.PollIntervalMinutes) * time.Minute

	active := schedule.ActiveSchedule(cfg.Schedules, cfg.Timezone, now)
	if active != nil && active.OverrideFrequency && active.PollIntervalMinutes >= 1 {
		return time.Duration(active.PollIntervalMinutes) * time.Minute
	}
	return base
}

// Paused reports whether a config is hard-paused at now: a schedule is
// active and does not merely override the poll frequency.
func Paused(cfg *domain.AutomationConfig, now time.Time) bool {
	active := schedule.ActiveSchedule(cfg.Schedules, cfg.Timezone, now)
	return active != nil && !active.OverrideFrequency
}

// ValidateAutomationConfig checks a config before persistence. Schedule time
// strings are validated here so the evaluator can assume well-formed input.
func ValidateAutomationConfig(cfg *domain.AutomationConfig) error {
	const op = "automation.validate"

	if cfg.UserID == uuid.Nil {
		return domain.Invalid(op, "user ID is required")
	}
	if !domain.ValidAutomationKind(cfg.Kind) {
		return domain.Invalid(op, "unknown automation kind: "+string(cfg.Kind))
	}
	if cfg.PollIntervalMinutes < 1 {
		return domain.Invalid(op, "poll interval must be at least one minute")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return domain.Invalid(op, "unknown timezone: "+cfg.Timezone)
	}

	for i := range cfg.Schedules {
		if err := cfg.Schedules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
