package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/worker"
)

func TestNewPoolValidatesSize(t *testing.T) {
	_, err := worker.NewPool(0)
	assert.Error(t, err)

	_, err = worker.NewPool(-1)
	assert.Error(t, err)

	p, err := worker.NewPool(4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Size())
}

func TestRunExecutesAll(t *testing.T) {
	p, err := worker.NewPool(3)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := make(map[int]bool)

	err = p.Run(context.Background(), 10, func(_ context.Context, i int) error {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 10)
}

func TestRunBoundsConcurrency(t *testing.T) {
	const size = 2
	p, err := worker.NewPool(size)
	require.NoError(t, err)

	var current, peak atomic.Int64

	err = p.Run(context.Background(), 20, func(_ context.Context, _ int) error {
		n := current.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(size))
}

func TestRunStopsOnCancel(t *testing.T) {
	p, err := worker.NewPool(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int64
	err = p.Run(ctx, 100, func(_ context.Context, i int) error {
		started.Add(1)
		if i == 0 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, started.Load(), int64(100), "cancellation should stop scheduling")
}

func TestStatsCountFailures(t *testing.T) {
	p, err := worker.NewPool(2)
	require.NoError(t, err)

	err = p.Run(context.Background(), 6, func(_ context.Context, i int) error {
		if i%2 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)

	total, failed := p.Stats()
	assert.Equal(t, int64(6), total)
	assert.Equal(t, int64(3), failed)
}
