package di

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/aristath/roadscan/internal/clients/openai"
	"github.com/aristath/roadscan/internal/config"
	"github.com/aristath/roadscan/internal/events"
	"github.com/aristath/roadscan/internal/modules/advisory"
	"github.com/aristath/roadscan/internal/modules/features"
	"github.com/aristath/roadscan/internal/modules/quantum"
	"github.com/aristath/roadscan/internal/modules/scanning"
	"github.com/aristath/roadscan/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices builds the pipeline stages and the services that drive them
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.RecordsRepo == nil {
		return fmt.Errorf("records repository is not initialized")
	}

	// Events
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	// Pipeline stages
	container.Extractor = features.NewExtractor(log)
	container.Circuit = quantum.Default()

	if cfg.OpenAI.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set, every item will fail at the remote call")
	}
	container.OpenAIClient = openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		URL:     cfg.OpenAI.APIURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}, log)
	container.Advisor = advisory.NewAdvisor(container.OpenAIClient, advisory.Frame{
		Route:  cfg.Prompt.Route,
		Region: cfg.Prompt.Region,
	}, log)

	// Scanning
	container.Orchestrator = scanning.NewOrchestrator(
		container.Extractor,
		container.Circuit,
		container.Advisor,
		container.RecordsRepo,
		container.EventManager,
		log,
		scanning.WithWorkers(cfg.ScanWorkers),
	)
	container.ScanningService = scanning.NewService(container.Orchestrator, rand.Reader, log)

	// Reliability
	if cfg.Backup.Enabled() {
		r2Client, err := reliability.NewR2Client(context.Background(), cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create r2 client: %w", err)
		}
		container.Backup = reliability.NewR2BackupService(
			r2Client,
			container.ResultsDB,
			cfg.DataDir,
			container.EventManager,
			log,
		)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("R2 backup enabled")
	}

	log.Debug().Msg("Services initialized")
	return nil
}
