// Package worker runs the cron-style automation pipelines.
//
// The runner ticks on a fixed interval, asks the automation service which
// configs are due, and dispatches each to its registered handler. Configs
// inside an active pause window are skipped without running; a window that
// only overrides the poll frequency instead stretches the config's dueness.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/metrics"
	"github.com/zz676/juice-index-sub001/internal/service"
)

// Worker scans for due automation configs and executes their pipelines.
type Worker struct {
	automations service.AutomationService
	handlers    map[domain.AutomationKind]Handler
	config      Config
	logger      *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(automations service.AutomationService, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		automations: automations,
		handlers:    make(map[domain.AutomationKind]Handler),
		config:      config,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}, nil
}

// Register adds a pipeline handler. Call this before Start().
func (w *Worker) Register(handler Handler) {
	kind := handler.Kind()
	if _, exists := w.handlers[kind]; exists {
		w.logger.Warn("Overwriting existing handler", "kind", kind)
	}
	w.handlers[kind] = handler
	w.logger.Debug("Registered automation handler", "kind", kind)
}

// Start begins the tick loop.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("Automation runner started", "tick_interval", w.config.TickInterval)
}

// Stop signals the runner to stop and waits for in-flight runs to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping automation runner...")
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Automation runner stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Shutdown timeout exceeded, some runs may still be in flight")
	}
}

// run is the tick loop. Each tick processes every due config sequentially;
// pipelines are account-scoped and cheap relative to the tick interval.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			w.logger.Debug("Tick loop stopping")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx, time.Now().UTC())
		}
	}
}

// tick processes every config due at now.
func (w *Worker) tick(ctx context.Context, now time.Time) {
	due, err := w.automations.ListDue(ctx, now)
	if err != nil {
		w.logger.Error("Failed to list due automation configs", "error", err)
		return
	}

	for _, cfg := range due {
		select {
		case <-w.stopCh:
			return
		default:
		}
		w.processConfig(ctx, cfg, now)
	}
}

// processConfig runs a single config's pipeline, honoring pause windows.
func (w *Worker) processConfig(ctx context.Context, cfg domain.AutomationConfig, now time.Time) {
	logger := w.logger.With(
		"config_id", cfg.ID,
		"user_id", cfg.UserID,
		"kind", cfg.Kind,
	)

	if service.Paused(&cfg, now) {
		logger.Debug("Skipping run, pause window active")
		metrics.RunSkippedPaused(string(cfg.Kind))
		return
	}

	handler, ok := w.handlers[cfg.Kind]
	if !ok {
		logger.Error("No handler registered for automation kind")
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, w.config.RunTimeout)
	defer cancel()

	start := time.Now()
	err := handler.Run(runCtx, cfg, now)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		logger.Info("Run completed", "duration", elapsed)
		metrics.RunCompleted(string(cfg.Kind), elapsed)
	case domain.ErrorCode(err) == domain.ERATELIMIT:
		// Quota exhaustion is expected; the config waits for its window.
		logger.Info("Run limited by quota", "error", err)
		metrics.RunCompleted(string(cfg.Kind), elapsed)
	default:
		logger.Error("Run failed", "error", err, "duration", elapsed)
		metrics.RunFailed(string(cfg.Kind))
	}

	// The run slot is consumed even on failure so a broken pipeline cannot
	// hot-loop on every tick.
	if err := w.automations.MarkRun(ctx, cfg.ID, now); err != nil {
		logger.Error("Failed to mark run", "error", err)
	}
}
