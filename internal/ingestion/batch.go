package ingestion

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BatchOptions controls RunBatches.
type BatchOptions struct {
	Size     int           // items launched together
	Delay    time.Duration // minimum spacing between batch starts
	Deadline time.Time     // zero means no deadline
	Now      func() time.Time
}

// BatchResult collects the outcome of RunBatches.
type BatchResult[R any] struct {
	Results     []R // successful results in input order
	Attempted   int // items whose batch ran
	Failed      int // items that returned an error
	DeadlineHit bool
}

// RunBatches runs fn over items in fixed-size batches. All calls of a batch
// are launched together and awaited together; batches are spaced by Delay.
// The deadline is checked before each batch only, so a batch that has
// started always completes. Errors are counted and the item is dropped.
func RunBatches[T, R any](ctx context.Context, items []T, opts BatchOptions, fn func(context.Context, T) (R, error)) BatchResult[R] {
	var res BatchResult[R]

	size := opts.Size
	if size <= 0 {
		size = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	limiter := newLimiter(opts.Delay)

	for start := 0; start < len(items); start += size {
		if !opts.Deadline.IsZero() && !now().Before(opts.Deadline) {
			res.DeadlineHit = true
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			res.DeadlineHit = true
			break
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		out := make([]R, len(batch))
		errs := make([]error, len(batch))
		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				out[i], errs[i] = fn(ctx, item)
			}()
		}
		wg.Wait()

		res.Attempted += len(batch)
		for i := range batch {
			if errs[i] != nil {
				res.Failed++
				continue
			}
			res.Results = append(res.Results, out[i])
		}
	}

	return res
}

// newLimiter returns a limiter allowing one event per delay with no burst.
// A non-positive delay disables pacing.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
