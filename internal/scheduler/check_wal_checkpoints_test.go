package scheduler

import (
	"testing"

	testingpkg "github.com/aristath/roadscan/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := &CheckWALCheckpointsJob{
		log: zerolog.Nop(),
	}
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabases(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	job := NewCheckWALCheckpointsJob(nil)
	job.SetLogger(log)

	err := job.Run()
	assert.NoError(t, err) // Should handle nil databases gracefully
}

func TestCheckWALCheckpointsJob_Run_ResultsDB(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	job := NewCheckWALCheckpointsJob(db)
	job.SetLogger(zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}
