// Package app wires configuration into a ready analyzer for the binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/analyzer"
	"solana-wallet-pnl/internal/classify"
	"solana-wallet-pnl/internal/config"
	"solana-wallet-pnl/internal/ingestion"
	"solana-wallet-pnl/internal/metadata"
	"solana-wallet-pnl/internal/observability"
	"solana-wallet-pnl/internal/positions"
	"solana-wallet-pnl/internal/pricing"
	"solana-wallet-pnl/internal/reporting"
	"solana-wallet-pnl/internal/solana"
	"solana-wallet-pnl/internal/storage"
	chstore "solana-wallet-pnl/internal/storage/clickhouse"
	pgstore "solana-wallet-pnl/internal/storage/postgres"
	"solana-wallet-pnl/internal/swap"
)

// Options selects optional parts of the stack.
type Options struct {
	Tokens  *config.Tokens // nil uses the built-in lists
	Archive bool           // persist analyses to the configured stores
	Logger  *zap.Logger
	Metrics *observability.Metrics // optional
}

// Stack is a wired analyzer with the resources it owns.
type Stack struct {
	Analyzer *analyzer.Analyzer
	RPC      *solana.HTTPClient

	// Generator is set when an analysis store is configured.
	Generator *reporting.Generator

	closers []func()
}

// Build connects the configured stores and creates the analyzer.
// Stores are only opened for DSNs that are set; without any the analyzer
// runs purely in memory.
func Build(ctx context.Context, cfg config.Config, opts Options) (*Stack, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger
	s := &Stack{}

	rpc := solana.NewHTTPClient(cfg.RPCURL,
		solana.WithTimeout(cfg.RPCTimeout),
		solana.WithMaxRetries(cfg.RPCMaxRetries),
		solana.WithObserver(opts.Metrics.ObserveRPC),
	)
	s.RPC = rpc

	archive, metaStore, err := s.openStores(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	if archive.Analyses != nil {
		s.Generator = reporting.NewGenerator(archive.Analyses, archive.Trades)
	}

	metaCache, err := metadata.NewCache(cfg.MetadataCacheTTL, metaStore)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, metaCache.Close)

	prices := pricing.NewClient(cfg.PriceAPIURL,
		pricing.WithCache(pricing.NewCache(cfg.PriceCacheTTL)),
		pricing.WithLogger(logger),
	)

	aopts := analyzer.Options{
		Timeout: cfg.AnalysisTimeout,
		Paginator: ingestion.PaginatorOptions{
			PageSize:       cfg.PageSize,
			MaxSignatures:  cfg.MaxSignatures,
			DeadlineMargin: cfg.PageDeadlineMargin,
			PageDelay:      cfg.PageDelay,
		},
		Fetcher: ingestion.FetcherOptions{
			BatchSize:  cfg.TxBatchSize,
			BatchDelay: cfg.BatchDelay,
		},
		Metadata: metadata.FetchOptions{
			BatchSize:  cfg.MetaBatchSize,
			BatchDelay: cfg.BatchDelay,
		},
		Positions: positions.Options{
			FloorUSD:     cfg.PositionFloorUSD,
			DisplayLimit: cfg.PositionDisplayLimit,
		},
		Classifier:    classify.New(opts.Tokens.ProgramSet()),
		MetadataCache: metaCache,
		Logger:        logger,
		Metrics:       opts.Metrics,
	}
	aopts.Parser = swap.NewParser(opts.Tokens.ParserOptions())
	if opts.Archive {
		if archive.Analyses == nil && archive.Trades == nil && archive.Snapshots == nil {
			logger.Warn("archive requested but no POSTGRES_DSN or CLICKHOUSE_DSN is set")
		} else {
			aopts.Archive = archive
		}
	}

	s.Analyzer = analyzer.New(rpc, prices, aopts)
	return s, nil
}

// openStores connects Postgres and ClickHouse when configured and applies
// their migrations. Postgres holds runs, trades and token metadata;
// ClickHouse holds position snapshots and takes trades when Postgres is absent.
func (s *Stack) openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*analyzer.Archive, storage.TokenMetadataStore, error) {
	archive := &analyzer.Archive{}
	var metaStore storage.TokenMetadataStore

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		archive.Analyses = pgstore.NewAnalysisStore(pool)
		archive.Trades = pgstore.NewTradeStore(pool)
		metaStore = pgstore.NewTokenMetadataStore(pool)
		logger.Info("postgres archive connected")
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := chstore.Open(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })

		archive.Snapshots = chstore.NewSnapshotStore(conn)
		if archive.Trades == nil {
			archive.Trades = chstore.NewTradeStore(conn)
		}
		logger.Info("clickhouse archive connected")
	}

	return archive, metaStore, nil
}

// Close releases stores and caches in reverse order of opening.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
