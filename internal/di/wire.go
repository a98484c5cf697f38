package di

import (
	"context"
	"fmt"

	"github.com/aristath/roadscan/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories
// 3. Initialize services
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeRepositories(container, log); err != nil {
		container.ResultsDB.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.ResultsDB.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}

// Close stops in-flight scans and closes the database. Scans still running
// when ctx expires are abandoned.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error
	if c.ScanningService != nil {
		if err := c.ScanningService.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if c.ResultsDB != nil {
		if err := c.ResultsDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
