package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/roadscan/internal/reliability"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	require.NoError(t, s.AddJob("0 2 * * *", &countingJob{}))
	require.NoError(t, s.AddJob("@every 1h", &countingJob{}))
	assert.Equal(t, 2, s.Len())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	assert.Equal(t, 2, s.Len())

	s.Start()
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	job.err = errors.New("boom")
	assert.EqualError(t, s.RunNow(job), "boom")
}

type fakeBackuper struct {
	createErr  error
	rotateErr  error
	rotatedFor int
	created    int
}

func (f *fakeBackuper) CreateAndUploadBackup(context.Context) (*reliability.BackupInfo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	return &reliability.BackupInfo{Filename: "roadscan-backup-2026-01-08-143022.tar.gz"}, nil
}

func (f *fakeBackuper) RotateOldBackups(_ context.Context, retentionDays int) (int, error) {
	f.rotatedFor = retentionDays
	return 0, f.rotateErr
}

func TestBackupJob(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	tests := []struct {
		name      string
		backuper  *fakeBackuper
		expectErr bool
	}{
		{"success", &fakeBackuper{}, false},
		{"rotation failure is not fatal", &fakeBackuper{rotateErr: errors.New("list failed")}, false},
		{"upload failure", &fakeBackuper{createErr: errors.New("upload failed")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewBackupJob(tt.backuper, 30, log)
			assert.Equal(t, "r2_backup", job.Name())

			err := job.Run()
			if tt.expectErr {
				assert.Error(t, err)
				assert.Zero(t, tt.backuper.rotatedFor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, tt.backuper.created)
			assert.Equal(t, 30, tt.backuper.rotatedFor)
		})
	}
}
