package worker

import (
	"fmt"
	"time"
)

// Config holds the configuration for the automation runner.
type Config struct {
	// TickInterval is how often the runner scans for due automation configs.
	// Default: 1 minute
	TickInterval time.Duration

	// RunTimeout is the maximum time a single pipeline run is allowed.
	// If a run exceeds this timeout, its context is canceled and the run is
	// marked as failed.
	// Default: 5 minutes
	RunTimeout time.Duration

	// ShutdownTimeout is how long to wait for in-flight runs to complete
	// during graceful shutdown.
	// Default: 30 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		TickInterval:    1 * time.Minute,
		RunTimeout:      5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.TickInterval < 1*time.Second {
		return fmt.Errorf("tick interval must be at least 1 second, got %v", c.TickInterval)
	}
	if c.RunTimeout < 1*time.Second {
		return fmt.Errorf("run timeout must be at least 1 second, got %v", c.RunTimeout)
	}
	if c.ShutdownTimeout < 1*time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	return nil
}
