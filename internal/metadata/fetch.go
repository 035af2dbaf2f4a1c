package metadata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/ingestion"
)

// FetchOptions controls FetchAll.
type FetchOptions struct {
	BatchSize  int           // Default: 10
	BatchDelay time.Duration // Default: 100ms
	Deadline   time.Time
	Logger     *zap.Logger
}

// FetchAll resolves metadata for every mint. Known mints and cache hits
// need no RPC; the rest are fetched in paced batches. Mints that fail or
// do not exist are omitted. cache may be nil.
func FetchAll(ctx context.Context, src Source, mints []string, cache *Cache, opts FetchOptions) map[string]*domain.TokenMetadata {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.BatchDelay == 0 {
		opts.BatchDelay = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	out := make(map[string]*domain.TokenMetadata, len(mints))
	var missing []string
	seen := make(map[string]bool, len(mints))
	for _, mint := range mints {
		if seen[mint] {
			continue
		}
		seen[mint] = true

		if meta := Known(mint); meta != nil {
			out[mint] = meta
			continue
		}
		if cache != nil {
			if meta, ok := cache.Get(ctx, mint); ok {
				out[mint] = meta
				continue
			}
		}
		missing = append(missing, mint)
	}

	res := ingestion.RunBatches(ctx, missing, ingestion.BatchOptions{
		Size:     opts.BatchSize,
		Delay:    opts.BatchDelay,
		Deadline: opts.Deadline,
	}, func(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
		meta, err := src.Fetch(ctx, mint)
		if err != nil {
			opts.Logger.Debug("metadata fetch failed", zap.String("mint", mint), zap.Error(err))
			return nil, err
		}
		if meta == nil {
			return nil, errMintNotFound
		}
		return meta, nil
	})

	for _, meta := range res.Results {
		out[meta.Mint] = meta
		if cache != nil {
			if err := cache.Put(ctx, meta); err != nil {
				opts.Logger.Warn("metadata cache write failed", zap.String("mint", meta.Mint), zap.Error(err))
			}
		}
	}

	if res.DeadlineHit {
		opts.Logger.Info("metadata fetch stopped by deadline",
			zap.Int("fetched", res.Attempted), zap.Int("missing", len(missing)))
	}
	return out
}
