// Package scanning drives a batch of images through extraction, circuit
// evaluation, scoring, the remote assessment, encryption and persistence.
package scanning

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
	"github.com/aristath/roadscan/internal/events"
	"github.com/aristath/roadscan/internal/modules/scoring"
	"github.com/aristath/roadscan/internal/vault"
)

const module = "scanning"

// Extractor turns an image file into its ColorVector
type Extractor interface {
	Extract(path string) (domain.ColorVector, error)
}

// Evaluator runs the circuit over a feature vector
type Evaluator interface {
	Evaluate(v []float64) (domain.QuantumOutput, error)
}

// RunConfig describes one batch
type RunConfig struct {
	RunID string
	Paths []string
	// Key is generated by the caller once per run and never stored.
	Key      vault.SessionKey
	Workers  int
	Progress ProgressFunc
}

// Orchestrator processes batches of image paths
type Orchestrator struct {
	extractor  Extractor
	circuit    Evaluator
	advisor    domain.Advisor
	sink       domain.RecordSink
	events     *events.Manager
	sealerOpts []vault.Option
	workers    int
	now        func() time.Time
	log        zerolog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithWorkers sets the default worker count for runs that do not set one
func WithWorkers(n int) Option {
	return func(o *Orchestrator) { o.workers = n }
}

// WithSealerOptions passes options to the per-run sealer
func WithSealerOptions(opts ...vault.Option) Option {
	return func(o *Orchestrator) { o.sealerOpts = append(o.sealerOpts, opts...) }
}

// WithClock replaces time.Now for record timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates a new orchestrator. eventsManager may be nil.
func NewOrchestrator(
	extractor Extractor,
	circuit Evaluator,
	advisor domain.Advisor,
	sink domain.RecordSink,
	eventsManager *events.Manager,
	log zerolog.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		extractor: extractor,
		circuit:   circuit,
		advisor:   advisor,
		sink:      sink,
		events:    eventsManager,
		workers:   DefaultWorkers,
		now:       time.Now,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every path in cfg. The returned error is set only when the
// batch could not start; per-item failures are reported in the Report.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	sealer, err := vault.NewSealer(cfg.Key, o.sealerOpts...)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = o.workers
	}
	pool := NewWorkerPool(workers)

	report := &Report{RunID: cfg.RunID, StartedAt: time.Now()}
	log := o.log.With().Str("run_id", cfg.RunID).Logger()

	log.Info().
		Int("items", len(cfg.Paths)).
		Int("workers", pool.Workers()).
		Msg("Scan started")
	o.emit(&events.ScanStartedData{RunID: cfg.RunID, Items: len(cfg.Paths), Workers: pool.Workers()})

	process := func(ctx context.Context, index int, path string) Outcome {
		out := o.processItem(ctx, sealer, cfg.RunID, index, path)
		o.report(log, cfg.RunID, out)
		return out
	}
	report.Outcomes = pool.ProcessBatch(ctx, cfg.Paths, process, cfg.Progress)
	report.FinishedAt = time.Now()

	log.Info().
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Dur("duration", report.Duration()).
		Msg("Scan completed")
	o.emit(&events.ScanCompletedData{
		RunID:      cfg.RunID,
		Succeeded:  report.Succeeded(),
		Failed:     report.Failed(),
		DurationMS: report.Duration().Milliseconds(),
	})

	return report, nil
}

// processItem carries one path through every stage. A panic anywhere in the
// pipeline fails only this item.
func (o *Orchestrator) processItem(ctx context.Context, sealer *vault.Sealer, runID string, index int, path string) (out Outcome) {
	out = Outcome{
		Index:    index,
		Path:     path,
		Location: LocationHint(path),
		Stage:    StagePending,
	}

	defer func() {
		if p := recover(); p != nil {
			out.Result = ""
			out.Record = nil
			out.Err = domain.Errorf(domain.KindUnknown, "process "+out.Stage.String(), "panic: %v", p)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = fmt.Errorf("not started: %w", err)
		return out
	}

	out.Stage = StageExtracting
	color, err := o.extractor.Extract(path)
	if err != nil {
		out.Err = err
		return out
	}

	out.Stage = StageCircuitEval
	quantum, err := o.circuit.Evaluate(color)
	if err != nil {
		out.Err = err
		return out
	}

	out.Stage = StageScoring
	entropy, err := scoring.EntropyScore(color, quantum)
	if err != nil {
		out.Err = err
		return out
	}
	out.Entropy = entropy

	out.Stage = StageRemoteCall
	result, err := o.advisor.Advise(ctx, domain.Assessment{
		Path:     path,
		Location: out.Location,
		Color:    color,
		Quantum:  quantum,
		Entropy:  entropy,
	})
	if err != nil {
		out.Err = err
		return out
	}

	out.Stage = StageEncrypting
	ciphertext, err := sealer.Seal(result)
	if err != nil {
		out.Err = err
		return out
	}

	rec := domain.EncryptedRecord{
		RunID:      runID,
		Timestamp:  o.now().UTC(),
		Ciphertext: ciphertext,
		Entropy:    entropy,
	}

	// The insert must not be torn by a cancellation that arrives mid-write
	id, err := o.sink.Append(context.WithoutCancel(ctx), runID, rec)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = domain.Wrap(domain.KindPersistence, "append record", err)
		}
		out.Err = err
		return out
	}
	rec.ID = id

	out.Stage = StagePersisted
	out.Result = result
	out.Record = &rec
	return out
}

func (o *Orchestrator) report(log zerolog.Logger, runID string, out Outcome) {
	if out.Failed() {
		log.Warn().
			Err(out.Err).
			Str("path", out.Path).
			Str("stage", out.Stage.String()).
			Str("kind", domain.KindOf(out.Err).String()).
			Msg("Item failed")
		o.emit(&events.ItemFailedData{
			RunID: runID,
			Index: out.Index,
			Path:  out.Path,
			Stage: out.Stage.String(),
			Kind:  domain.KindOf(out.Err).String(),
			Error: out.Err.Error(),
		})
		return
	}

	log.Info().
		Str("path", out.Path).
		Float64("entropy_score", out.Entropy).
		Int("ciphertext_len", len(out.Record.Ciphertext)).
		Msg("Item persisted")
	o.emit(&events.ItemCompletedData{
		RunID:        runID,
		Index:        out.Index,
		Path:         out.Path,
		EntropyScore: out.Entropy,
	})
}

func (o *Orchestrator) emit(data events.EventData) {
	if o.events != nil {
		o.events.Emit(module, data)
	}
}
