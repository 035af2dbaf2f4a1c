// Command analyze runs one wallet analysis and prints the result.
//
//	analyze -wallet <address> [-format markdown|json|csv|positions-csv] [-archive]
//	analyze -wallet <address> -history
//	analyze -run <run-id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
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
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (config as defaults)
	wallet := flag.String("wallet", "", "Wallet address to analyze (or first argument)")
	format := flag.String("format", "markdown", "Output format: markdown, json, csv, positions-csv")
	output := flag.String("output", "", "Write output to file instead of stdout")
	archive := flag.Bool("archive", false, "Persist the analysis to the configured stores")
	history := flag.Bool("history", false, "List archived analyses of the wallet")
	historyLimit := flag.Int("history-limit", 20, "Maximum archived analyses listed")
	runID := flag.String("run", "", "Render an archived analysis by run ID")
	timeout := flag.Duration("timeout", cfg.AnalysisTimeout, "Analysis time budget")
	tokensFile := flag.String("tokens", cfg.TokensFile, "YAML file overriding DEX programs and mint lists")
	flag.StringVar(&cfg.RPCURL, "rpc-url", cfg.RPCURL, "Solana RPC HTTP endpoint")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	flag.StringVar(&cfg.ClickHouseDSN, "clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string")
	flag.IntVar(&cfg.MaxSignatures, "max-signatures", cfg.MaxSignatures, "Signature history cap")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *wallet == "" && flag.NArg() > 0 {
		*wallet = flag.Arg(0)
	}
	cfg.AnalysisTimeout = *timeout

	logger := newLogger(*debug)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	var tokens *config.Tokens
	if *tokensFile != "" {
		tokens, err = config.LoadTokens(*tokensFile)
		if err != nil {
			logger.Fatal("load tokens file", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := app.Build(ctx, cfg, app.Options{
		Tokens:  tokens,
		Archive: *archive,
		Logger:  logger,
		Metrics: observability.NewMetrics(""),
	})
	if err != nil {
		logger.Fatal("build analyzer", zap.Error(err))
	}
	defer stack.Close()

	out := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Fatal("create output file", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	switch {
	case *runID != "":
		err = renderArchived(ctx, stack, *runID, *format, out)
	case *history:
		err = renderHistory(ctx, stack, *wallet, *historyLimit, out)
	default:
		err = analyze(ctx, stack, *wallet, cfg.AnalysisTimeout, *format, out, logger)
	}
	if err != nil {
		logger.Error("analyze failed", zap.Error(err))
		stack.Close()
		os.Exit(1)
	}
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

func analyze(ctx context.Context, stack *app.Stack, wallet string, timeout time.Duration, format string, out io.Writer, logger *zap.Logger) error {
	if wallet == "" {
		return errors.New("-wallet is required")
	}

	a, err := stack.Analyzer.AnalyzeWallet(ctx, wallet, time.Now().Add(timeout))
	if err != nil {
		if errors.Is(err, analyzer.ErrInvalidAddress) {
			return fmt.Errorf("%s: %w", wallet, err)
		}
		return err
	}

	logger.Info("analysis complete",
		zap.String("run_id", a.RunID),
		zap.Int("trades", len(a.Trades)),
		zap.Bool("partial", a.IsPartialResult),
		zap.Int64("duration_ms", a.DurationMs))

	return write(out, format, a)
}

func write(out io.Writer, format string, a *domain.Analysis) error {
	switch format {
	case "markdown", "md":
		_, err := io.WriteString(out, reporting.RenderMarkdown(a))
		return err
	case "json":
		return reporting.WriteJSON(out, a)
	case "csv":
		return reporting.WriteTradesCSV(out, a.Trades)
	case "positions-csv":
		return reporting.WritePositionsCSV(out, a.OpenPositions.Positions)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderArchived(ctx context.Context, stack *app.Stack, runID, format string, out io.Writer) error {
	if stack.Generator == nil {
		return errors.New("-run needs POSTGRES_DSN")
	}
	r, err := stack.Generator.Generate(ctx, runID)
	if err != nil {
		return err
	}

	switch format {
	case "markdown", "md":
		_, err = io.WriteString(out, reporting.RenderReport(r))
	case "json":
		err = reporting.WriteJSON(out, r)
	case "csv":
		err = reporting.WriteTradesCSV(out, r.Trades)
	case "positions-csv":
		err = reporting.WritePositionsCSV(out, r.Positions.Positions)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	return err
}

func renderHistory(ctx context.Context, stack *app.Stack, wallet string, limit int, out io.Writer) error {
	if stack.Generator == nil {
		return errors.New("-history needs POSTGRES_DSN")
	}
	if wallet == "" {
		return errors.New("-wallet is required")
	}
	rows, err := stack.Generator.History(ctx, wallet, limit)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, reporting.RenderHistory(wallet, rows))
	return err
}
