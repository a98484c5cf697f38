package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/roadscan/internal/reliability"
	"github.com/rs/zerolog"
)

// Backuper is the part of the R2 backup service the job drives
type Backuper interface {
	CreateAndUploadBackup(ctx context.Context) (*reliability.BackupInfo, error)
	RotateOldBackups(ctx context.Context, retentionDays int) (int, error)
}

// BackupJob uploads a snapshot of the results database and rotates old archives
type BackupJob struct {
	backups       Backuper
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a new BackupJob
func NewBackupJob(backups Backuper, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		timeout:       30 * time.Minute,
		log:           log.With().Str("job", "r2_backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "r2_backup"
}

// Run executes the backup job. A rotation failure is logged, not returned,
// since the new archive is already safe.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	info, err := j.backups.CreateAndUploadBackup(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	if _, err := j.backups.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Str("archive", info.Filename).Msg("Backup rotation failed")
	}
	return nil
}
