package ingestion

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
)

// errTxNotFound marks a signature the node returned no transaction for.
var errTxNotFound = errors.New("transaction not found")

// FetcherOptions contains configuration for creating a Fetcher.
type FetcherOptions struct {
	BatchSize  int           // Default: 25
	BatchDelay time.Duration // Default: 100ms
	Logger     *zap.Logger
	Now        func() time.Time
}

// Fetcher loads full transactions for signatures in paced batches.
type Fetcher struct {
	rpc  solana.RPCClient
	opts FetcherOptions
}

// FetchResult is the outcome of FetchTransactions.
type FetchResult struct {
	Transactions []*solana.Transaction // input order, failures omitted
	Processed    int                   // signatures whose batch ran
	Total        int
	Failed       int
	DeadlineHit  bool
}

// NewFetcher creates a new transaction fetcher.
func NewFetcher(rpc solana.RPCClient, opts FetcherOptions) *Fetcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 25
	}
	if opts.BatchDelay == 0 {
		opts.BatchDelay = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Fetcher{rpc: rpc, opts: opts}
}

// FetchTransactions fetches every signature's transaction, oldest first so a
// deadline cut-off keeps the earliest lots. Unordered input is sorted on a
// copy. A failed fetch is not retried; the transaction is left out and
// counted in Failed.
func (f *Fetcher) FetchTransactions(ctx context.Context, sigs []domain.RawSignature, deadline time.Time) FetchResult {
	if ValidateSignatureOrdering(sigs) != nil {
		sigs = append([]domain.RawSignature(nil), sigs...)
		SortSignatures(sigs)
	}

	res := RunBatches(ctx, sigs, BatchOptions{
		Size:     f.opts.BatchSize,
		Delay:    f.opts.BatchDelay,
		Deadline: deadline,
		Now:      f.opts.Now,
	}, func(ctx context.Context, sig domain.RawSignature) (*solana.Transaction, error) {
		tx, err := f.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			f.opts.Logger.Debug("transaction fetch failed",
				zap.String("signature", sig.Signature), zap.Error(err))
			return nil, err
		}
		if tx == nil {
			return nil, errTxNotFound
		}
		if tx.BlockTime == 0 && sig.BlockTime != nil {
			tx.BlockTime = *sig.BlockTime
		}
		return tx, nil
	})

	if res.DeadlineHit {
		f.opts.Logger.Info("transaction fetch stopped by deadline",
			zap.Int("processed", res.Attempted),
			zap.Int("total", len(sigs)))
	}

	return FetchResult{
		Transactions: res.Results,
		Processed:    res.Attempted,
		Total:        len(sigs),
		Failed:       res.Failed,
		DeadlineHit:  res.DeadlineHit,
	}
}
