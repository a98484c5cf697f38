package scanning

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/vault"
)

// RunState is the lifecycle state of a tracked run
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunAborted   RunState = "aborted"
)

// RunStatus is a snapshot of a tracked run
type RunStatus struct {
	RunID      string
	Directory  string
	State      RunState
	Total      int
	Done       int
	StartedAt  time.Time
	FinishedAt time.Time
	Report     *Report
	Err        error
}

// Service discovers images, generates the per-run key and runs the
// orchestrator, either synchronously or in the background.
type Service struct {
	orchestrator *Orchestrator
	keySource    io.Reader
	log          zerolog.Logger

	mu   sync.RWMutex
	runs map[string]*RunStatus
	wg   sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewService creates a new scanning service. keySource nil means crypto/rand.
func NewService(orchestrator *Orchestrator, keySource io.Reader, log zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		orchestrator: orchestrator,
		keySource:    keySource,
		log:          log.With().Str("service", "scanning").Logger(),
		runs:         make(map[string]*RunStatus),
		baseCtx:      ctx,
		cancel:       cancel,
	}
}

// prepare discovers the batch and generates a fresh key for it
func (s *Service) prepare(dir string, workers int, progress ProgressFunc) (RunConfig, error) {
	paths, err := Discover(dir)
	if err != nil {
		return RunConfig{}, err
	}

	key, err := vault.NewSessionKey(s.keySource)
	if err != nil {
		return RunConfig{}, err
	}

	return RunConfig{
		RunID:    uuid.New().String(),
		Paths:    paths,
		Key:      key,
		Workers:  workers,
		Progress: progress,
	}, nil
}

// ScanDirectory runs one batch over dir and waits for it to finish
func (s *Service) ScanDirectory(ctx context.Context, dir string, workers int, progress ProgressFunc) (*Report, error) {
	cfg, err := s.prepare(dir, workers, progress)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Run(ctx, cfg)
}

// StartScan discovers dir, registers a run and processes it in the background.
// Discovery and key errors are returned immediately.
func (s *Service) StartScan(dir string, workers int) (string, error) {
	if err := s.baseCtx.Err(); err != nil {
		return "", fmt.Errorf("scanning service is shut down: %w", err)
	}

	status := &RunStatus{Directory: dir, State: RunRunning, StartedAt: time.Now()}
	cfg, err := s.prepare(dir, workers, func(done, total int, _ Outcome) {
		s.mu.Lock()
		status.Done = done
		s.mu.Unlock()
	})
	if err != nil {
		return "", err
	}
	status.RunID = cfg.RunID
	status.Total = len(cfg.Paths)

	// Shutdown cancels under the same lock, so it cannot reach wg.Wait
	// between this check and the Add
	s.mu.Lock()
	if err := s.baseCtx.Err(); err != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("scanning service is shut down: %w", err)
	}
	s.runs[cfg.RunID] = status
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		report, err := s.orchestrator.Run(s.baseCtx, cfg)

		s.mu.Lock()
		defer s.mu.Unlock()
		status.FinishedAt = time.Now()
		if err != nil {
			status.State = RunAborted
			status.Err = err
			s.log.Error().Err(err).Str("run_id", cfg.RunID).Msg("Scan aborted")
			return
		}
		status.State = RunCompleted
		status.Report = report
	}()

	return cfg.RunID, nil
}

// Status returns a copy of the tracked run
func (s *Service) Status(runID string) (RunStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.runs[runID]
	if !ok {
		return RunStatus{}, false
	}
	return *status, true
}

// Runs returns every tracked run, newest first
func (s *Service) Runs() []RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunStatus, 0, len(s.runs))
	for _, status := range s.runs {
		out = append(out, *status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Wait blocks until every background run has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown cancels background runs and waits for them. Items not yet started
// fail with the cancellation; in-flight writes complete.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scanning shutdown: %w", ctx.Err())
	}
}
