package scheduler

import (
	"github.com/aristath/roadscan/internal/database"
	"github.com/rs/zerolog"
)

// walFrameWarning is the WAL size, in frames, above which a warning is logged
const walFrameWarning = 1000

// CheckWALCheckpointsJob monitors WAL checkpoint status
type CheckWALCheckpointsJob struct {
	log       zerolog.Logger
	databases []*database.DB
}

// NewCheckWALCheckpointsJob creates a new CheckWALCheckpointsJob. nil entries are skipped.
func NewCheckWALCheckpointsJob(databases ...*database.DB) *CheckWALCheckpointsJob {
	return &CheckWALCheckpointsJob{
		log:       zerolog.Nop(),
		databases: databases,
	}
}

// SetLogger sets the logger for the job
func (j *CheckWALCheckpointsJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run executes the check WAL checkpoints job
func (j *CheckWALCheckpointsJob) Run() error {
	checkedCount := 0
	for _, db := range j.databases {
		if db == nil {
			continue
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, log, checkpointed int
		err := db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &log, &checkpointed)
		if err != nil {
			j.log.Warn().
				Err(err).
				Str("database", db.Name()).
				Msg("Failed to check WAL checkpoint")
			continue
		}

		if log > walFrameWarning {
			j.log.Warn().
				Str("database", db.Name()).
				Int("wal_frames", log).
				Int("checkpointed", checkpointed).
				Msg("WAL file is large, checkpoint may be needed")
		} else {
			j.log.Debug().
				Str("database", db.Name()).
				Int("wal_frames", log).
				Msg("WAL checkpoint status OK")
		}

		checkedCount++
	}

	j.log.Info().
		Int("checked", checkedCount).
		Msg("WAL checkpoint check completed")

	return nil
}
