package di

import (
	"fmt"

	"github.com/aristath/roadscan/internal/config"
	"github.com/aristath/roadscan/internal/reliability"
	"github.com/aristath/roadscan/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	walCheckSchedule    = "@every 15m"
	maintenanceSchedule = "0 3 * * *"
)

// RegisterJobs creates the background jobs and registers them with sched
func RegisterJobs(container *Container, sched *scheduler.Scheduler, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{}

	jobs.WALCheckpoints = scheduler.NewCheckWALCheckpointsJob(container.ResultsDB)
	jobs.WALCheckpoints.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())
	if err := sched.AddJob(walCheckSchedule, jobs.WALCheckpoints); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", jobs.WALCheckpoints.Name(), err)
	}

	jobs.Maintenance = reliability.NewMaintenanceJob(container.ResultsDB, cfg.DataDir, log)
	if err := sched.AddJob(maintenanceSchedule, jobs.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", jobs.Maintenance.Name(), err)
	}

	if container.Backup != nil {
		jobs.Backup = scheduler.NewBackupJob(container.Backup, cfg.Backup.RetentionDays, log)
		if cfg.Backup.Schedule != "" {
			if err := sched.AddJob(cfg.Backup.Schedule, jobs.Backup); err != nil {
				return nil, fmt.Errorf("failed to register %s: %w", jobs.Backup.Name(), err)
			}
		}
	}

	return jobs, nil
}
