package testing

import (
	"context"
	"sync"

	"github.com/aristath/roadscan/internal/domain"
)

// MockAdvisor is a mock implementation of domain.Advisor
type MockAdvisor struct {
	mu      sync.Mutex
	reply   string
	errs    map[string]error
	panics  map[string]bool
	calls   []domain.Assessment
	blockCh chan struct{}
}

// NewMockAdvisor creates an advisor that answers every assessment with reply
func NewMockAdvisor(reply string) *MockAdvisor {
	return &MockAdvisor{
		reply:  reply,
		errs:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

// FailFor makes Advise return err for the given path
func (m *MockAdvisor) FailFor(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[path] = err
}

// PanicFor makes Advise panic for the given path
func (m *MockAdvisor) PanicFor(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[path] = true
}

// Block makes Advise wait until ch is closed or ctx is done
func (m *MockAdvisor) Block(ch chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockCh = ch
}

// Advise records the call and returns the configured reply
func (m *MockAdvisor) Advise(ctx context.Context, a domain.Assessment) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, a)
	err := m.errs[a.Path]
	shouldPanic := m.panics[a.Path]
	block := m.blockCh
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", domain.Wrap(domain.KindRemoteCall, "advise", ctx.Err())
		}
	}
	if shouldPanic {
		panic("mock advisor panic for " + a.Path)
	}
	if err != nil {
		return "", err
	}
	return m.reply + " @ " + a.Location, nil
}

// Calls returns a copy of every assessment received
func (m *MockAdvisor) Calls() []domain.Assessment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Assessment(nil), m.calls...)
}

// MockSink is a mock implementation of domain.RecordSink
type MockSink struct {
	mu      sync.Mutex
	records []domain.EncryptedRecord
	err     error
}

// NewMockSink creates an empty in-memory sink
func NewMockSink() *MockSink {
	return &MockSink{}
}

// SetError makes every Append fail with err
func (m *MockSink) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Append stores rec and returns its 1-based position as the id
func (m *MockSink) Append(ctx context.Context, runID string, rec domain.EncryptedRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	rec.RunID = runID
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	return rec.ID, nil
}

// Records returns a copy of everything appended
func (m *MockSink) Records() []domain.EncryptedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EncryptedRecord(nil), m.records...)
}
