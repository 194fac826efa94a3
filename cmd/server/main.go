package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zz676/juice-index-sub001/internal"
	"github.com/zz676/juice-index-sub001/internal/counter"
	"github.com/zz676/juice-index-sub001/internal/handler"
	"github.com/zz676/juice-index-sub001/internal/jobs"
	"github.com/zz676/juice-index-sub001/internal/metrics"
	"github.com/zz676/juice-index-sub001/internal/ratelimit"
	"github.com/zz676/juice-index-sub001/internal/repository"
	"github.com/zz676/juice-index-sub001/internal/service"
	"github.com/zz676/juice-index-sub001/internal/storage"
	"github.com/zz676/juice-index-sub001/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize the counter store backing the quota engine
	store, err := newCounterStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("counter store initialization failed: %w", err)
	}
	logger.Info("Counter store ready", "backend", cfg.CounterBackend)

	limits := ratelimit.NewService(ratelimit.New(store, logger))

	// Initialize object storage for export artifacts
	objects, err := newObjectStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize services
	social := service.NewSocialService(repo, logger)
	usageService := service.NewUsageService(store, logger)
	automationService := service.NewAutomationService(repo, logger)
	exportService := service.NewExportService(repo, limits, objects, logger)

	// Start the automation runner
	if cfg.WorkerEnabled {
		w, err := worker.New(automationService, worker.Config{
			TickInterval:    cfg.WorkerTickInterval,
			RunTimeout:      cfg.WorkerRunTimeout,
			ShutdownTimeout: 30 * time.Second,
		}, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		w.Register(jobs.NewAutoPublishHandler(social, limits, social, logger))
		w.Register(jobs.NewAutoReplyHandler(social, limits, social, logger))
		w.Start(ctx)
		defer w.Stop()
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", metrics.Handler(cfg.MetricsUsername, cfg.MetricsPassword))

	// API
	handler.NewUsageHandler(usageService, social, limits, logger).RegisterRoutes(mux)
	handler.NewExportHandler(exportService, social, logger).RegisterRoutes(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newCounterStore builds the counter backend named by the configuration.
func newCounterStore(cfg *internal.Config, logger *slog.Logger) (counter.Store, error) {
	switch cfg.CounterBackend {
	case "rest":
		return counter.NewRESTStore(counter.RESTConfig{
			BaseURL: cfg.CounterStoreURL,
			Token:   cfg.CounterToken,
			Timeout: cfg.CounterTimeout,
		}, logger)
	case "redis":
		return counter.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return counter.NewMemoryStore(), nil
	}
}

// newObjectStorage builds the storage provider named by the configuration.
func newObjectStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageProvider == storage.ProviderR2 {
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
