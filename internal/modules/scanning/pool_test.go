package scanning

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name            string
		numWorkers      int
		expectedWorkers int
	}{
		{"positive workers", 5, 5},
		{"zero workers defaults to 4", 0, DefaultWorkers},
		{"negative workers defaults to 4", -1, DefaultWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.numWorkers)
			assert.Equal(t, tt.expectedWorkers, pool.Workers())
		})
	}
}

func TestProcessBatch_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	results := pool.ProcessBatch(context.Background(), nil, nil, nil)
	assert.Empty(t, results)
}

func TestProcessBatch_PreservesOrder(t *testing.T) {
	pool := NewWorkerPool(3)
	paths := []string{"a", "b", "c", "d", "e", "f"}

	var running, peak int32
	process := func(ctx context.Context, index int, path string) Outcome {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		// Later items finish first
		time.Sleep(time.Duration(len(paths)-index) * 5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return Outcome{Index: index, Path: path}
	}

	var progressCalls int
	results := pool.ProcessBatch(context.Background(), paths, process, func(done, total int, _ Outcome) {
		progressCalls++
		assert.Equal(t, len(paths), total)
		assert.Equal(t, progressCalls, done)
	})

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, paths[i], r.Path)
	}
	assert.Equal(t, len(paths), progressCalls)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}
