package di

import (
	"context"
	"testing"

	"github.com/aristath/roadscan/internal/config"
	"github.com/aristath/roadscan/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:     t.TempDir(),
		ScanWorkers: 2,
		OpenAI: config.OpenAIConfig{
			APIKey: "test-key",
			Model:  "gpt-4",
		},
		Prompt: config.PromptConfig{Route: "Route 9", Region: "Vermont"},
		Backup: &config.BackupConfig{},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	log := zerolog.Nop()

	container, err := Wire(cfg, log)
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	assert.NotNil(t, container.ResultsDB)
	assert.NotNil(t, container.RecordsRepo)
	assert.NotNil(t, container.Extractor)
	assert.NotNil(t, container.Circuit)
	assert.NotNil(t, container.OpenAIClient)
	assert.NotNil(t, container.Advisor)
	assert.NotNil(t, container.EventBus)
	assert.NotNil(t, container.EventManager)
	assert.NotNil(t, container.Orchestrator)
	assert.NotNil(t, container.ScanningService)
	assert.Nil(t, container.Backup, "backup stays off without R2 credentials")

	assert.Equal(t, cfg.DatabasePath(), container.ResultsDB.Path())
	assert.Equal(t, 7, container.Circuit.Wires())

	count, err := container.RecordsRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWire_BackupEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup = &config.BackupConfig{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "roadscan",
		Endpoint:        "http://127.0.0.1:9000",
		Schedule:        "0 2 * * *",
		RetentionDays:   7,
	}

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	require.NotNil(t, container.Backup)

	sched := scheduler.New(zerolog.Nop())
	jobs, err := RegisterJobs(container, sched, cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, jobs.Backup)
	assert.Equal(t, 3, sched.Len())
}

func TestRegisterJobs_WithoutBackup(t *testing.T) {
	cfg := testConfig(t)
	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	sched := scheduler.New(zerolog.Nop())
	jobs, err := RegisterJobs(container, sched, cfg, zerolog.Nop())
	require.NoError(t, err)

	assert.NotNil(t, jobs.WALCheckpoints)
	assert.NotNil(t, jobs.Maintenance)
	assert.Nil(t, jobs.Backup)
	assert.Equal(t, 2, sched.Len())

	assert.NoError(t, jobs.WALCheckpoints.Run())
}

func TestInitializeRepositories_RequiresDatabase(t *testing.T) {
	err := InitializeRepositories(&Container{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestContainer_CloseIsSafeOnEmpty(t *testing.T) {
	assert.NoError(t, (&Container{}).Close(context.Background()))
}
