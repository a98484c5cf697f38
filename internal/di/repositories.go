package di

import (
	"fmt"

	"github.com/aristath/roadscan/internal/modules/records"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories on top of the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container.ResultsDB == nil {
		return fmt.Errorf("results database is not initialized")
	}

	container.RecordsRepo = records.NewRepository(container.ResultsDB.Conn(), log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
