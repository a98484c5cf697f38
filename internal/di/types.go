/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and CLI for access to services.
 */
package di

import (
	"github.com/aristath/roadscan/internal/clients/openai"
	"github.com/aristath/roadscan/internal/database"
	"github.com/aristath/roadscan/internal/events"
	"github.com/aristath/roadscan/internal/modules/advisory"
	"github.com/aristath/roadscan/internal/modules/features"
	"github.com/aristath/roadscan/internal/modules/quantum"
	"github.com/aristath/roadscan/internal/modules/records"
	"github.com/aristath/roadscan/internal/modules/scanning"
	"github.com/aristath/roadscan/internal/reliability"
	"github.com/aristath/roadscan/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Fields are populated in order by InitializeDatabases, InitializeRepositories
 * and InitializeServices. Backup is nil when R2 credentials are not configured.
 */
type Container struct {
	// Storage
	ResultsDB   *database.DB
	RecordsRepo *records.Repository

	// Pipeline stages
	Extractor    *features.Extractor
	Circuit      *quantum.Circuit
	OpenAIClient *openai.Client
	Advisor      *advisory.Advisor

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Scanning
	Orchestrator    *scanning.Orchestrator
	ScanningService *scanning.Service

	// Reliability
	Backup *reliability.R2BackupService
}

// JobInstances holds the background jobs registered with the scheduler.
// Backup is nil when R2 is not configured.
type JobInstances struct {
	WALCheckpoints *scheduler.CheckWALCheckpointsJob
	Maintenance    *reliability.MaintenanceJob
	Backup         *scheduler.BackupJob
}
