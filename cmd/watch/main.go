// Command watch keeps a wallet's analysis current. It subscribes to logs
// mentioning the wallet and re-runs the analysis after activity settles.
// Ops endpoints: /health, /metrics, /status, /report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/analyzer"
	"solana-wallet-pnl/internal/app"
	"solana-wallet-pnl/internal/config"
	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/observability"
	"solana-wallet-pnl/internal/reporting"
	"solana-wallet-pnl/internal/solana"
	"solana-wallet-pnl/internal/watch"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (config as defaults)
	wallet := flag.String("wallet", "", "Wallet address to watch")
	archive := flag.Bool("archive", false, "Persist every analysis to the configured stores")
	reportFile := flag.String("report-file", "", "Rewrite this Markdown file after every analysis")
	tokensFile := flag.String("tokens", cfg.TokensFile, "YAML file overriding DEX programs and mint lists")
	flag.StringVar(&cfg.RPCURL, "rpc-url", cfg.RPCURL, "Solana RPC HTTP endpoint")
	flag.StringVar(&cfg.WSURL, "ws-url", cfg.WSURL, "Solana WebSocket endpoint")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	flag.StringVar(&cfg.ClickHouseDSN, "clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Ops HTTP address")
	flag.DurationVar(&cfg.WatchDebounce, "debounce", cfg.WatchDebounce, "Window that coalesces wallet activity")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if *wallet == "" {
		logger.Fatal("-wallet is required")
	}
	if err := analyzer.ValidateAddress(*wallet); err != nil {
		logger.Fatal("invalid wallet", zap.String("wallet", *wallet), zap.Error(err))
	}
	if cfg.WSURL == "" {
		logger.Fatal("-ws-url or SOLANA_WS_URL is required")
	}

	var tokens *config.Tokens
	if *tokensFile != "" {
		tokens, err = config.LoadTokens(*tokensFile)
		if err != nil {
			logger.Fatal("load tokens file", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("")
	stack, err := app.Build(ctx, cfg, app.Options{
		Tokens:  tokens,
		Archive: *archive,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Fatal("build analyzer", zap.Error(err))
	}
	defer stack.Close()

	slot, err := stack.RPC.GetSlot(ctx)
	if err != nil {
		logger.Fatal("rpc unreachable", zap.String("url", cfg.RPCURL), zap.Error(err))
	}
	logger.Info("rpc connected", zap.Int64("slot", slot))

	wsCfg := solana.DefaultWSConfig()
	wsCfg.Logger = logger
	wsCfg.OnReconnect = metrics.RecordReconnect
	ws, err := solana.NewWSClient(ctx, cfg.WSURL, &wsCfg)
	if err != nil {
		logger.Fatal("connect websocket", zap.Error(err))
	}
	defer ws.Close()

	w := watch.New(ws, stack.Analyzer, *wallet, watch.Options{
		Debounce:       cfg.WatchDebounce,
		Timeout:        cfg.AnalysisTimeout,
		AnalyzeOnStart: true,
		OnResult:       onResult(logger, *reportFile),
		Logger:         logger,
		Metrics:        metrics,
	})

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           watch.NewMux(w, observability.Handler(), time.Now()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting ops server", zap.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", zap.Error(err))
		}
	}()

	// Channel to signal completion
	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = w.Run(ctx)
	done <- err

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watcher stopped", zap.Error(err))
		return
	}
	logger.Info("shutdown complete",
		zap.Uint64("ws_dropped", ws.Dropped()),
		zap.Uint64("ws_reconnects", ws.Reconnects()))
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// onResult logs a summary and optionally rewrites the report file.
func onResult(logger *zap.Logger, reportFile string) func(*domain.Analysis) {
	return func(a *domain.Analysis) {
		logger.Info("analysis updated",
			zap.String("run_id", a.RunID),
			zap.Int("trades", a.Stats.TotalTrades),
			zap.Float64("win_rate", a.Stats.WinRate),
			zap.String("pnl_sol", a.Stats.TotalPnLSol.StringFixed(4)),
			zap.Float64("open_value_usd", a.OpenPositions.TotalValueUSD),
			zap.Bool("partial", a.IsPartialResult))

		if reportFile == "" {
			return
		}
		tmp := reportFile + ".tmp"
		if err := os.WriteFile(tmp, []byte(reporting.RenderMarkdown(a)), 0o644); err != nil {
			logger.Warn("write report", zap.Error(err))
			return
		}
		if err := os.Rename(tmp, reportFile); err != nil {
			logger.Warn("replace report", zap.Error(err))
		}
	}
}
