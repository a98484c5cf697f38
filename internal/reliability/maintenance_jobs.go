package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/roadscan/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	criticalFreeBytes = 500 * 1024 * 1024
	lowFreeBytes      = 5 * 1024 * 1024 * 1024
)

// DiskUsageFunc reports filesystem usage for a path
type DiskUsageFunc func(path string) (*disk.UsageStat, error)

// MaintenanceJob keeps the results database healthy: integrity check,
// WAL truncation and a free-space guard on the data directory
type MaintenanceJob struct {
	db        *database.DB
	dataDir   string
	diskUsage DiskUsageFunc
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(db *database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:        db,
		dataDir:   dataDir,
		diskUsage: disk.Usage,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting database maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Integrity check failed")
		return fmt.Errorf("maintenance halted: %w", err)
	}

	// A failed checkpoint only means the WAL stays large until next time
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	if stats, err := j.db.GetStats(); err != nil {
		j.log.Warn().Err(err).Msg("Failed to read database stats")
	} else {
		j.log.Info().
			Str("database", j.db.Name()).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Msg("Database metrics")
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Database maintenance completed")
	return nil
}

// checkDiskSpace fails when the data directory is nearly full
func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := j.diskUsage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if usage.Free < criticalFreeBytes {
		j.log.Error().Float64("available_gb", availableGB).Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	}
	if usage.Free < lowFreeBytes {
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}
	return nil
}
