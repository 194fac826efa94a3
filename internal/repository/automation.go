package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// CreateAutomationConfig inserts an automation config. Schedules are stored
// separately via ReplacePauseSchedules.
func (q *Queries) CreateAutomationConfig(ctx context.Context, cfg *domain.AutomationConfig) error {
	const query = `
		INSERT INTO automation_configs (id, user_id, kind, enabled, timezone, poll_interval_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`

	_, err := q.db.ExecContext(ctx, query,
		cfg.ID, cfg.UserID, string(cfg.Kind), cfg.Enabled, cfg.Timezone, cfg.PollIntervalMinutes)
	if err != nil {
		return fmt.Errorf("insert automation config: %w", err)
	}
	return nil
}

// UpdateAutomationConfig updates the mutable settings of a config.
func (q *Queries) UpdateAutomationConfig(ctx context.Context, cfg *domain.AutomationConfig) error {
	const query = `
		UPDATE automation_configs
		SET enabled = $2, timezone = $3, poll_interval_minutes = $4, updated_at = now()
		WHERE id = $1`

	res, err := q.db.ExecContext(ctx, query, cfg.ID, cfg.Enabled, cfg.Timezone, cfg.PollIntervalMinutes)
	if err != nil {
		return fmt.Errorf("update automation config: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAutomationConfig loads a config with its pause schedules.
func (q *Queries) GetAutomationConfig(ctx context.Context, id uuid.UUID) (*domain.AutomationConfig, error) {
	const query = `
		SELECT id, user_id, kind, enabled, timezone, poll_interval_minutes, last_run_at, created_at, updated_at
		FROM automation_configs
		WHERE id = $1`

	cfg, err := scanAutomationConfig(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	schedules, err := q.listPauseSchedules(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	cfg.Schedules = schedules
	return cfg, nil
}

// ListEnabledAutomationConfigs returns every enabled config with schedules
// attached, ordered by user for stable iteration.
//
// Due-ness is decided in Go, not SQL: the effective poll interval depends on
// the pause evaluator, which needs the account's timezone-local wall clock.
func (q *Queries) ListEnabledAutomationConfigs(ctx context.Context) ([]domain.AutomationConfig, error) {
	const query = `
		SELECT id, user_id, kind, enabled, timezone, poll_interval_minutes, last_run_at, created_at, updated_at
		FROM automation_configs
		WHERE enabled = true
		ORDER BY user_id, kind`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list automation configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.AutomationConfig
	for rows.Next() {
		cfg, err := scanAutomationConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate automation configs: %w", err)
	}

	for i := range configs {
		schedules, err := q.listPauseSchedules(ctx, configs[i].ID)
		if err != nil {
			return nil, err
		}
		configs[i].Schedules = schedules
	}
	return configs, nil
}

// MarkAutomationRun records the instant a config last ran.
func (q *Queries) MarkAutomationRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `
		UPDATE automation_configs
		SET last_run_at = $2, updated_at = now()
		WHERE id = $1`

	if _, err := q.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark automation run: %w", err)
	}
	return nil
}

// ReplacePauseSchedules swaps a config's schedules for the given list.
// Position preserves the caller's ordering: the evaluator is
// first-match-wins, so order is part of the data.
func (q *Queries) ReplacePauseSchedules(ctx context.Context, configID uuid.UUID, schedules []domain.PauseSchedule) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM pause_schedules WHERE config_id = $1`, configID); err != nil {
		return fmt.Errorf("delete pause schedules: %w", err)
	}

	const query = `
		INSERT INTO pause_schedules
			(id, config_id, position, enabled, start_time, end_time, label, override_frequency, poll_interval_minutes, exception_dates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for i, s := range schedules {
		dates, err := json.Marshal(s.ExceptionDates)
		if err != nil {
			return fmt.Errorf("encode exception dates: %w", err)
		}

		id := s.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		if _, err := q.db.ExecContext(ctx, query,
			id, configID, i, s.Enabled, s.Start, s.End, s.Label,
			s.OverrideFrequency, s.PollIntervalMinutes, dates); err != nil {
			return fmt.Errorf("insert pause schedule: %w", err)
		}
	}
	return nil
}

// listPauseSchedules loads a config's schedules in stored order.
func (q *Queries) listPauseSchedules(ctx context.Context, configID uuid.UUID) ([]domain.PauseSchedule, error) {
	const query = `
		SELECT id, enabled, start_time, end_time, label, override_frequency, poll_interval_minutes, exception_dates
		FROM pause_schedules
		WHERE config_id = $1
		ORDER BY position`

	rows, err := q.db.QueryContext(ctx, query, configID)
	if err != nil {
		return nil, fmt.Errorf("list pause schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.PauseSchedule
	for rows.Next() {
		var s domain.PauseSchedule
		var dates []byte
		if err := rows.Scan(&s.ID, &s.Enabled, &s.Start, &s.End, &s.Label,
			&s.OverrideFrequency, &s.PollIntervalMinutes, &dates); err != nil {
			return nil, fmt.Errorf("scan pause schedule: %w", err)
		}
		if len(dates) > 0 {
			if err := json.Unmarshal(dates, &s.ExceptionDates); err != nil {
				return nil, fmt.Errorf("decode exception dates: %w", err)
			}
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pause schedules: %w", err)
	}
	return schedules, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAutomationConfig(row rowScanner) (*domain.AutomationConfig, error) {
	var cfg domain.AutomationConfig
	var kind string
	var lastRun sql.NullTime

	err := row.Scan(&cfg.ID, &cfg.UserID, &kind, &cfg.Enabled, &cfg.Timezone,
		&cfg.PollIntervalMinutes, &lastRun, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	cfg.Kind = domain.AutomationKind(kind)
	if lastRun.Valid {
		t := lastRun.Time
		cfg.LastRunAt = &t
	}
	return &cfg, nil
}
