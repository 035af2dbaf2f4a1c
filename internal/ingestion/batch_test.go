package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatches_LaunchesBatchConcurrently(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}

	var (
		mu      sync.Mutex
		arrived int
	)
	batchFull := make(chan struct{})

	// the first batch only finishes once all of its calls are in flight
	res := RunBatches(context.Background(), items, BatchOptions{Size: 3, Delay: time.Microsecond},
		func(ctx context.Context, v int) (int, error) {
			if v <= 3 {
				mu.Lock()
				arrived++
				if arrived == 3 {
					close(batchFull)
				}
				mu.Unlock()

				select {
				case <-batchFull:
				case <-time.After(2 * time.Second):
					return 0, errors.New("batch not launched together")
				}
			}
			return v * 10, nil
		})

	assert.Equal(t, 6, res.Attempted)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60}, res.Results)
}

func TestRunBatches_PacesBatches(t *testing.T) {
	items := make([]int, 9)

	start := time.Now()
	res := RunBatches(context.Background(), items, BatchOptions{Size: 3, Delay: 20 * time.Millisecond},
		func(ctx context.Context, v int) (int, error) { return v, nil })

	require.Equal(t, 9, res.Attempted)
	// three batches need at least two delays
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestRunBatches_DeadlinePassed(t *testing.T) {
	called := false
	res := RunBatches(context.Background(), []int{1, 2}, BatchOptions{Size: 1, Deadline: time.Now().Add(-time.Second)},
		func(ctx context.Context, v int) (int, error) {
			called = true
			return v, nil
		})

	assert.True(t, res.DeadlineHit)
	assert.Equal(t, 0, res.Attempted)
	assert.False(t, called)
}

func TestRunBatches_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := RunBatches(ctx, []int{1, 2, 3}, BatchOptions{Size: 1, Delay: time.Hour},
		func(ctx context.Context, v int) (int, error) { return v, nil })

	assert.True(t, res.DeadlineHit)
	assert.Less(t, res.Attempted, 3)
}
