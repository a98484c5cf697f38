package scanning

import (
	"time"

	"github.com/aristath/roadscan/internal/domain"
)

// Stage is the furthest point one item reached in the pipeline
type Stage uint8

const (
	StagePending Stage = iota
	StageExtracting
	StageCircuitEval
	StageScoring
	StageRemoteCall
	StageEncrypting
	StagePersisted
)

var stageNames = [...]string{
	StagePending:     "Pending",
	StageExtracting:  "Extracting",
	StageCircuitEval: "CircuitEval",
	StageScoring:     "Scoring",
	StageRemoteCall:  "RemoteCall",
	StageEncrypting:  "Encrypting",
	StagePersisted:   "Persisted",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "Unknown"
}

// MarshalText encodes the stage by name
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of processing one input path.
// Err is nil exactly when Stage is StagePersisted.
type Outcome struct {
	Index    int
	Path     string
	Location string
	Stage    Stage
	Entropy  float64
	// Result is the plaintext assessment. It is held in memory only.
	Result string
	Record *domain.EncryptedRecord
	Err    error
}

// Failed reports whether the item did not reach persistence
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Report is the aggregate of one run, outcomes in input order
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Succeeded counts persisted items
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// Failed counts items that did not reach persistence
func (r *Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
