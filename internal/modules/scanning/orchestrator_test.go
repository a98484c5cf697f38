package scanning

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roadscan/internal/domain"
	"github.com/aristath/roadscan/internal/events"
	"github.com/aristath/roadscan/internal/modules/features"
	"github.com/aristath/roadscan/internal/modules/quantum"
	"github.com/aristath/roadscan/internal/modules/records"
	testingpkg "github.com/aristath/roadscan/internal/testing"
	"github.com/aristath/roadscan/internal/vault"
)

func nopLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

type fixture struct {
	advisor *testingpkg.MockAdvisor
	sink    *testingpkg.MockSink
	bus     *events.Bus
	orch    *Orchestrator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		advisor: testingpkg.NewMockAdvisor("Install curve warning signs"),
		sink:    testingpkg.NewMockSink(),
		bus:     events.NewBus(),
	}
	f.orch = NewOrchestrator(
		features.NewExtractor(nopLogger()),
		quantum.Default(),
		f.advisor,
		f.sink,
		events.NewManager(f.bus, nopLogger()),
		nopLogger(),
		opts...,
	)
	return f
}

func newKey(t *testing.T) vault.SessionKey {
	t.Helper()
	key, err := vault.NewSessionKey(nil)
	require.NoError(t, err)
	return key
}

// writeBatch creates gray.png, broken.png (not an image) and Main_St.png
func writeBatch(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		testingpkg.WritePNG(t, dir, "gray.png", testingpkg.SolidImage(32, 32, testingpkg.Gray128)),
		testingpkg.WriteFile(t, dir, "broken.png", []byte("definitely not a png")),
		testingpkg.WritePNG(t, dir, "Main_St.png", testingpkg.SplitImage(40, 40, color.Black, color.White)),
	}
}

func TestRun_IsolatesFailures(t *testing.T) {
	f := newFixture(t)
	paths := writeBatch(t)

	report, err := f.orch.Run(context.Background(), RunConfig{RunID: "run-1", Paths: paths, Key: newKey(t), Workers: 2})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, 1, report.Failed())

	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, paths[i], o.Path, "outcomes keep input order")
	}

	assert.False(t, report.Outcomes[0].Failed())
	assert.Equal(t, StagePersisted, report.Outcomes[0].Stage)

	broken := report.Outcomes[1]
	assert.True(t, broken.Failed())
	assert.Equal(t, StageExtracting, broken.Stage)
	assert.True(t, domain.IsKind(broken.Err, domain.KindIO))
	assert.Nil(t, broken.Record)

	assert.Equal(t, "Main St", report.Outcomes[2].Location)
	assert.Equal(t, "Install curve warning signs @ Main St", report.Outcomes[2].Result)

	recs := f.sink.Records()
	assert.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, "run-1", rec.RunID)
		assert.True(t, rec.Complete())
	}
}

func TestRun_RecordDecryptsToResult(t *testing.T) {
	f := newFixture(t)
	key := newKey(t)
	paths := writeBatch(t)[:1]

	report, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Paths: paths, Key: key})
	require.NoError(t, err)

	out := report.Outcomes[0]
	require.False(t, out.Failed())
	require.NotNil(t, out.Record)
	assert.NotContains(t, out.Record.Ciphertext, "curve")

	sealer, err := vault.NewSealer(key)
	require.NoError(t, err)
	plain, err := sealer.Open(out.Record.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, out.Result, plain)

	assert.InDelta(t, out.Entropy, out.Record.Entropy, 0)
}

func TestRun_GrayImageSignals(t *testing.T) {
	f := newFixture(t)
	paths := writeBatch(t)[:1]

	_, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Paths: paths, Key: newKey(t)})
	require.NoError(t, err)

	calls := f.advisor.Calls()
	require.Len(t, calls, 1)
	assert.InDeltaSlice(t, []float64{0.5, 0, 0, 0.5, 0, 0, 0}, []float64(calls[0].Color), 1e-9)
	assert.Len(t, calls[0].Quantum, domain.FeatureDim)
	assert.Equal(t, "gray", calls[0].Location)

	want, err := quantum.Default().Evaluate(calls[0].Color)
	require.NoError(t, err)
	assert.Equal(t, want, calls[0].Quantum)
}

func TestRun_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture, path string)
		wantStage Stage
		wantKind  domain.ErrorKind
	}{
		{
			name: "remote call error",
			setup: func(f *fixture, path string) {
				f.advisor.FailFor(path, domain.Errorf(domain.KindRemoteCall, "chat completion", "HTTP 503"))
			},
			wantStage: StageRemoteCall,
			wantKind:  domain.KindRemoteCall,
		},
		{
			name:      "advisor panic",
			setup:     func(f *fixture, path string) { f.advisor.PanicFor(path) },
			wantStage: StageRemoteCall,
			wantKind:  domain.KindUnknown,
		},
		{
			name:      "sink failure",
			setup:     func(f *fixture, path string) { f.sink.SetError(errors.New("disk full")) },
			wantStage: StageEncrypting,
			wantKind:  domain.KindPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			paths := writeBatch(t)
			tt.setup(f, paths[0])

			report, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Paths: paths, Key: newKey(t)})
			require.NoError(t, err)

			out := report.Outcomes[0]
			assert.True(t, out.Failed())
			assert.Equal(t, tt.wantStage, out.Stage)
			assert.Equal(t, tt.wantKind, domain.KindOf(out.Err))
			assert.Empty(t, out.Result)
			assert.Nil(t, out.Record)
		})
	}
}

func TestRun_ShapeFailure(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	blue := testingpkg.WritePNG(t, dir, "blue.png", testingpkg.SolidImage(16, 16, color.RGBA{B: 255, A: 255}))

	report, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Paths: []string{blue}, Key: newKey(t)})
	require.NoError(t, err)

	assert.Equal(t, StageExtracting, report.Outcomes[0].Stage)
	assert.True(t, domain.IsKind(report.Outcomes[0].Err, domain.KindShape))
	assert.Empty(t, f.advisor.Calls())
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	paths := writeBatch(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.orch.Run(ctx, RunConfig{RunID: "r", Paths: paths, Key: newKey(t)})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Failed())
	for _, o := range report.Outcomes {
		assert.Equal(t, StagePending, o.Stage)
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Empty(t, f.sink.Records())
}

func TestRun_CancelDuringRemoteCall(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.advisor.Block(release)
	paths := writeBatch(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	report, err := f.orch.Run(ctx, RunConfig{RunID: "r", Paths: paths, Key: newKey(t), Workers: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Failed())
	assert.Empty(t, f.sink.Records(), "no partial records")
	close(release)
}

func TestRun_ZeroKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Paths: writeBatch(t)})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindCrypto))
	assert.Empty(t, f.advisor.Calls())
}

func TestRun_EmptyBatch(t *testing.T) {
	f := newFixture(t)

	report, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Key: newKey(t)})
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.Zero(t, report.Succeeded())
}

func TestRun_Events(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	counts := make(map[events.EventType]int)
	for _, et := range []events.EventType{events.ScanStarted, events.ItemCompleted, events.ItemFailed, events.ScanCompleted} {
		f.bus.Subscribe(et, func(e *events.Event) {
			mu.Lock()
			counts[e.Type]++
			mu.Unlock()
		})
	}

	_, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Paths: writeBatch(t), Key: newKey(t)})
	require.NoError(t, err)

	assert.Equal(t, 1, counts[events.ScanStarted])
	assert.Equal(t, 2, counts[events.ItemCompleted])
	assert.Equal(t, 1, counts[events.ItemFailed])
	assert.Equal(t, 1, counts[events.ScanCompleted])
}

func TestRun_ProgressAndClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 8, 30, 0, 0, time.FixedZone("EST", -5*3600))
	f := newFixture(t, WithClock(func() time.Time { return fixed }))

	var done []int
	_, err := f.orch.Run(context.Background(), RunConfig{
		RunID:    "r",
		Paths:    writeBatch(t),
		Key:      newKey(t),
		Progress: func(d, total int, _ Outcome) { done = append(done, d) },
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, done)
	for _, rec := range f.sink.Records() {
		assert.True(t, rec.Timestamp.Equal(fixed))
		assert.Equal(t, time.UTC, rec.Timestamp.Location())
	}
}

func TestRun_WorkerCountDoesNotChangeResults(t *testing.T) {
	paths := writeBatch(t)

	entropies := func(workers int) []float64 {
		f := newFixture(t, WithSealerOptions(vault.WithNonceSource(&vault.CounterNonces{})))
		report, err := f.orch.Run(context.Background(), RunConfig{RunID: "r", Paths: paths, Key: newKey(t), Workers: workers})
		require.NoError(t, err)
		out := make([]float64, len(report.Outcomes))
		for i, o := range report.Outcomes {
			out[i] = o.Entropy
		}
		return out
	}

	assert.Equal(t, entropies(1), entropies(8))
}

func TestRun_PersistsToDatabase(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()
	repo := records.NewRepository(db.Conn(), nopLogger())

	orch := NewOrchestrator(
		features.NewExtractor(nopLogger()),
		quantum.Default(),
		testingpkg.NewMockAdvisor("ok"),
		repo,
		nil,
		nopLogger(),
	)

	report, err := orch.Run(context.Background(), RunConfig{RunID: "db-run", Paths: writeBatch(t), Key: newKey(t)})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded())

	stored, err := repo.ListByRun(context.Background(), "db-run")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, report.Outcomes[0].Record.Ciphertext, stored[0].Ciphertext)
	assert.InDelta(t, report.Outcomes[0].Entropy, stored[0].Entropy, 1e-12)

	// Outcomes carry the row id the database assigned
	idByCiphertext := make(map[string]int64, len(stored))
	for _, rec := range stored {
		idByCiphertext[rec.Ciphertext] = rec.ID
	}
	for _, out := range report.Outcomes {
		if out.Failed() {
			assert.Nil(t, out.Record)
			continue
		}
		require.NotNil(t, out.Record)
		assert.NotZero(t, out.Record.ID)
		assert.Equal(t, idByCiphertext[out.Record.Ciphertext], out.Record.ID)
	}
}
