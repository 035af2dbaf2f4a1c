package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
)

// PaginatorOptions contains configuration for creating a Paginator.
type PaginatorOptions struct {
	PageSize       int           // Default: 1000, the RPC maximum
	MaxSignatures  int           // Default: 5000
	DeadlineMargin time.Duration // Default: 5s - stop when less budget remains
	PageDelay      time.Duration // Default: 100ms between pages
	Logger         *zap.Logger
	Now            func() time.Time
}

// Paginator walks an address's signature history newest-first.
type Paginator struct {
	rpc  solana.RPCClient
	opts PaginatorOptions
}

// PageResult is the signature history gathered by Collect.
type PageResult struct {
	Signatures []domain.RawSignature // newest first
	Truncated  bool                  // the cap or the deadline stopped pagination
	Pages      int
}

// NewPaginator creates a new signature paginator.
func NewPaginator(rpc solana.RPCClient, opts PaginatorOptions) *Paginator {
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.MaxSignatures <= 0 {
		opts.MaxSignatures = 5000
	}
	if opts.DeadlineMargin == 0 {
		opts.DeadlineMargin = 5 * time.Second
	}
	if opts.PageDelay == 0 {
		opts.PageDelay = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Paginator{rpc: rpc, opts: opts}
}

// Collect fetches pages using the last signature of each page as the
// "before" cursor. It stops on an empty page, a short page (end of
// history), the signature cap, or when less than DeadlineMargin remains
// before deadline. The last two set Truncated.
//
// A page error aborts pagination. The signatures gathered so far are
// returned alongside the error and Truncated stays false: Collect does not
// decide whether they are usable. analyzer.AnalyzeWallet treats an error on
// the first page as fatal and an error on a later page as a partial result.
func (p *Paginator) Collect(ctx context.Context, address string, deadline time.Time) (PageResult, error) {
	var res PageResult
	limiter := newLimiter(p.opts.PageDelay)
	before := ""

	for {
		if !deadline.IsZero() && deadline.Sub(p.opts.Now()) < p.opts.DeadlineMargin {
			res.Truncated = true
			p.opts.Logger.Info("signature pagination stopped by deadline",
				zap.String("address", address),
				zap.Int("signatures", len(res.Signatures)),
				zap.Int("pages", res.Pages))
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("wait for page %d: %w", res.Pages+1, err)
		}

		limit := p.opts.PageSize
		if remaining := p.opts.MaxSignatures - len(res.Signatures); remaining < limit {
			limit = remaining
		}

		sigs, err := p.rpc.GetSignaturesForAddress(ctx, address, &solana.SignaturesOpts{
			Before: before,
			Limit:  limit,
		})
		if err != nil {
			return res, fmt.Errorf("get signatures page %d: %w", res.Pages+1, err)
		}
		if len(sigs) == 0 {
			break
		}

		res.Pages++
		for _, s := range sigs {
			res.Signatures = append(res.Signatures, toRawSignature(s))
		}
		p.opts.Logger.Debug("signature page",
			zap.String("address", address),
			zap.Int("page", res.Pages),
			zap.Int("count", len(sigs)))

		if len(res.Signatures) >= p.opts.MaxSignatures {
			res.Truncated = len(sigs) == limit
			break
		}
		if len(sigs) < limit {
			break
		}
		before = sigs[len(sigs)-1].Signature
	}

	res.Signatures = DedupSignatures(res.Signatures)
	return res, nil
}

func toRawSignature(s solana.SignatureInfo) domain.RawSignature {
	raw := domain.RawSignature{
		Signature: s.Signature,
		BlockTime: s.BlockTime,
		Failed:    s.Err != nil,
	}
	if s.Slot > 0 {
		raw.Slot = uint64(s.Slot)
	}
	return raw
}
