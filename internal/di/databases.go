// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/roadscan/internal/config"
	"github.com/aristath/roadscan/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the results database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// road_safety_results.db - append-only encrypted results, ledger durability
	resultsDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "results",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize results database: %w", err)
	}

	if err := resultsDB.Migrate(); err != nil {
		resultsDB.Close()
		return nil, fmt.Errorf("failed to migrate results database: %w", err)
	}
	container.ResultsDB = resultsDB

	log.Info().Str("path", resultsDB.Path()).Msg("Results database initialized")

	return container, nil
}
