// Package analyzer runs the full wallet analysis: signature pagination,
// transaction fetch, swap parsing, FIFO reconstruction, statistics and
// open position valuation, under one wall-clock deadline.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-wallet-pnl/internal/classify"
	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/ingestion"
	"solana-wallet-pnl/internal/metadata"
	"solana-wallet-pnl/internal/metrics"
	"solana-wallet-pnl/internal/observability"
	"solana-wallet-pnl/internal/pnl"
	"solana-wallet-pnl/internal/positions"
	"solana-wallet-pnl/internal/solana"
	"solana-wallet-pnl/internal/storage"
	"solana-wallet-pnl/internal/swap"
)

// DefaultTimeout is the analysis budget used when no deadline is given.
const DefaultTimeout = 25 * time.Second

// Reasons a fetched transaction produced no trade.
const (
	skipFailed = "failed"
	skipNotDEX = "not_dex"
	skipNoSwap = "no_swap"
)

// PriceSource returns live USD quotes. Unpriced mints are absent.
type PriceSource interface {
	Quotes(ctx context.Context, mints []string) map[string]domain.PriceQuote
}

// Archive persists finished analyses. Any store may be nil.
type Archive struct {
	Analyses  storage.AnalysisStore
	Trades    storage.TradeStore
	Snapshots storage.SnapshotStore
}

// Options contains configuration for creating an Analyzer.
type Options struct {
	Timeout   time.Duration // Default: 25s, used when AnalyzeWallet gets a zero deadline
	Paginator ingestion.PaginatorOptions
	Fetcher   ingestion.FetcherOptions
	Metadata  metadata.FetchOptions // Deadline is set per analysis
	Positions positions.Options

	Classifier     *classify.Classifier // Default: classify.New(nil)
	Parser         *swap.Parser         // Default: swap.NewParser(swap.Options{})
	MetadataSource metadata.Source      // Default: metadata.NewRPCSource
	MetadataCache  *metadata.Cache      // optional
	Archive        *Archive             // optional

	Logger  *zap.Logger
	Metrics *observability.Metrics // optional
	Now     func() time.Time
}

// Analyzer analyzes wallets. Safe for concurrent use; every call owns its state.
type Analyzer struct {
	rpc       solana.RPCClient
	prices    PriceSource
	paginator *ingestion.Paginator
	fetcher   *ingestion.Fetcher
	opts      Options
}

// New creates a new Analyzer.
func New(rpc solana.RPCClient, prices PriceSource, opts Options) *Analyzer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.New(nil)
	}
	if opts.Parser == nil {
		opts.Parser = swap.NewParser(swap.Options{})
	}
	if opts.MetadataSource == nil {
		opts.MetadataSource = metadata.NewRPCSource(rpc, opts.Logger)
	}
	if opts.Positions == (positions.Options{}) {
		opts.Positions = positions.DefaultOptions()
	}
	if opts.Paginator.Logger == nil {
		opts.Paginator.Logger = opts.Logger
	}
	if opts.Paginator.Now == nil {
		opts.Paginator.Now = opts.Now
	}
	if opts.Fetcher.Logger == nil {
		opts.Fetcher.Logger = opts.Logger
	}
	if opts.Fetcher.Now == nil {
		opts.Fetcher.Now = opts.Now
	}
	if opts.Metadata.Logger == nil {
		opts.Metadata.Logger = opts.Logger
	}

	return &Analyzer{
		rpc:       rpc,
		prices:    prices,
		paginator: ingestion.NewPaginator(rpc, opts.Paginator),
		fetcher:   ingestion.NewFetcher(rpc, opts.Fetcher),
		opts:      opts,
	}
}

// AnalyzeWallet analyzes address within deadline; a zero deadline means
// now plus the configured timeout.
//
// Only an invalid address or a failure of the very first signature page is
// returned as an error. Anything else that stops work early marks the
// result partial and adds a warning.
func (a *Analyzer) AnalyzeWallet(ctx context.Context, address string, deadline time.Time) (*domain.Analysis, error) {
	start := a.opts.Now()
	if deadline.IsZero() {
		deadline = start.Add(a.opts.Timeout)
	}
	logger := a.opts.Logger.With(zap.String("wallet", address))

	if err := ValidateAddress(address); err != nil {
		a.opts.Metrics.RecordAnalysis(observability.OutcomeInvalid, 0)
		return nil, err
	}

	analysis := &domain.Analysis{
		RunID:  uuid.NewString(),
		Wallet: address,
		Trades: []*domain.Trade{},
	}

	// Phase 1: signatures
	page, err := a.paginator.Collect(ctx, address, deadline)
	if err != nil {
		if page.Pages == 0 {
			a.opts.Metrics.RecordAnalysis(observability.OutcomeFailed, a.opts.Now().Sub(start))
			return nil, fmt.Errorf("collect signatures: %w", err)
		}
		logger.Warn("signature pagination failed, continuing with partial history", zap.Error(err))
		analysis.IsPartialResult = true
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("signature history incomplete after %d page(s): %v", page.Pages, err))
	}
	if page.Truncated {
		analysis.IsPartialResult = true
		analysis.SignaturesTruncated = true
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("signature history truncated at %d signatures", len(page.Signatures)))
	}
	analysis.TotalSignatures = len(page.Signatures)
	logger.Info("signatures collected",
		zap.Int("signatures", len(page.Signatures)),
		zap.Int("pages", page.Pages),
		zap.Bool("truncated", page.Truncated))

	// Phase 2: transactions
	sigs := make([]domain.RawSignature, 0, len(page.Signatures))
	failedOnChain := 0
	for _, s := range page.Signatures {
		if s.Failed {
			failedOnChain++
			a.opts.Metrics.RecordSkipped(skipFailed)
			continue
		}
		sigs = append(sigs, s)
	}

	fetched := a.fetcher.FetchTransactions(ctx, sigs, deadline)
	analysis.ProcessedTransactions = failedOnChain + fetched.Processed
	if fetched.DeadlineHit {
		analysis.IsPartialResult = true
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("deadline reached: %d of %d transactions processed",
				analysis.ProcessedTransactions, analysis.TotalSignatures))
	}
	if fetched.Failed > 0 {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%d transaction(s) could not be fetched", fetched.Failed))
	}

	// Phase 3: classify and parse
	for _, tx := range fetched.Transactions {
		if tx.Failed() {
			a.opts.Metrics.RecordSkipped(skipFailed)
			continue
		}
		match, ok := a.opts.Classifier.Match(tx)
		if !ok {
			a.opts.Metrics.RecordSkipped(skipNotDEX)
			continue
		}
		trade, ok := a.opts.Parser.Parse(tx, address)
		if !ok {
			a.opts.Metrics.RecordSkipped(skipNoSwap)
			continue
		}
		trade.Program = match.Name
		analysis.Trades = append(analysis.Trades, trade)
		a.opts.Metrics.RecordTrade(string(trade.Type))
	}
	analysis.SwapTransactions = len(analysis.Trades)

	// Phase 4: reconstruction and stats
	result := pnl.Reconstruct(analysis.Trades)
	a.opts.Metrics.RecordUnmatchedSells(result.UnmatchedSells)
	analysis.Stats = metrics.ComputeStats(analysis.Trades)
	analysis.Warnings = append(analysis.Warnings, metrics.DataQualityWarnings(analysis.Trades)...)

	// Phase 5: open positions
	analysis.OpenPositions = domain.PositionSummary{
		Positions:       []domain.Position{},
		CountByCategory: map[domain.PositionCategory]int{},
	}
	if !a.opts.Now().Before(deadline) {
		analysis.IsPartialResult = true
		analysis.Warnings = append(analysis.Warnings, "open positions skipped: deadline reached")
	} else {
		summary, warn := a.openPositions(ctx, address, analysis.Trades, deadline)
		analysis.OpenPositions = summary
		if warn != "" {
			analysis.Warnings = append(analysis.Warnings, warn)
		}
	}

	end := a.opts.Now()
	analysis.GeneratedAt = end.UnixMilli()
	analysis.DurationMs = end.Sub(start).Milliseconds()

	a.archive(ctx, analysis, logger)

	outcome := observability.OutcomeComplete
	if analysis.IsPartialResult {
		outcome = observability.OutcomePartial
	}
	a.opts.Metrics.RecordAnalysis(outcome, end.Sub(start))

	logger.Info("analysis complete",
		zap.String("run_id", analysis.RunID),
		zap.Int("trades", len(analysis.Trades)),
		zap.Int("open_positions", analysis.OpenPositions.TotalCount),
		zap.Bool("partial", analysis.IsPartialResult),
		zap.Int64("duration_ms", analysis.DurationMs))

	return analysis, nil
}

// openPositions values the wallet's current holdings. A balance fetch
// failure yields an empty summary and a warning.
func (a *Analyzer) openPositions(ctx context.Context, address string, trades []*domain.Trade, deadline time.Time) (domain.PositionSummary, string) {
	empty := domain.PositionSummary{
		Positions:       []domain.Position{},
		CountByCategory: map[domain.PositionCategory]int{},
	}

	balances, err := positions.FetchBalances(ctx, a.rpc, address)
	if err != nil {
		a.opts.Logger.Warn("holdings fetch failed", zap.String("wallet", address), zap.Error(err))
		return empty, fmt.Sprintf("open positions unavailable: %v", err)
	}

	mints := make([]string, 0, len(balances))
	for mint := range balances {
		mints = append(mints, mint)
	}

	metaOpts := a.opts.Metadata
	metaOpts.Deadline = deadline
	meta := metadata.FetchAll(ctx, a.opts.MetadataSource, mints, a.opts.MetadataCache, metaOpts)

	holdings := positions.ToHoldings(balances, meta)
	if len(holdings) == 0 {
		return empty, ""
	}
	held := make([]string, len(holdings))
	for i, h := range holdings {
		held[i] = h.Mint
	}

	var quotes map[string]domain.PriceQuote
	if a.prices != nil {
		quotes = a.prices.Quotes(ctx, held)
	}
	basis := pnl.ComputeCostBasis(trades)

	return positions.Build(holdings, quotes, meta, basis, a.opts.Now(), a.opts.Positions), ""
}

// archive stores the analysis when an archive is configured. Failures are
// logged and recorded as warnings.
func (a *Analyzer) archive(ctx context.Context, analysis *domain.Analysis, logger *zap.Logger) {
	ar := a.opts.Archive
	if ar == nil {
		return
	}

	if ar.Analyses != nil {
		if err := ar.Analyses.Insert(ctx, analysis); err != nil {
			logger.Warn("archive analysis failed", zap.Error(err))
			analysis.Warnings = append(analysis.Warnings, fmt.Sprintf("archive failed: %v", err))
			return
		}
	}
	if ar.Trades != nil && len(analysis.Trades) > 0 {
		if err := ar.Trades.InsertBulk(ctx, analysis.RunID, analysis.Trades); err != nil {
			logger.Warn("archive trades failed", zap.Error(err))
			analysis.Warnings = append(analysis.Warnings, fmt.Sprintf("archive trades failed: %v", err))
		}
	}
	if ar.Snapshots != nil && len(analysis.OpenPositions.Positions) > 0 {
		err := ar.Snapshots.InsertPositions(ctx, analysis.RunID, analysis.Wallet, analysis.GeneratedAt, analysis.OpenPositions.Positions)
		if err != nil {
			logger.Warn("archive positions failed", zap.Error(err))
			analysis.Warnings = append(analysis.Warnings, fmt.Sprintf("archive positions failed: %v", err))
		}
	}
}
