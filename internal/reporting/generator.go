package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/metrics"
	"solana-wallet-pnl/internal/storage"
)

// Generator produces reports from archived analyses.
type Generator struct {
	analysisStore storage.AnalysisStore
	aggregator    *metrics.Aggregator
}

// NewGenerator creates a new report generator.
func NewGenerator(analysisStore storage.AnalysisStore, tradeStore storage.TradeStore) *Generator {
	return &Generator{
		analysisStore: analysisStore,
		aggregator:    metrics.NewAggregator(tradeStore),
	}
}

// Generate rebuilds the report of an archived run. Stats are recomputed
// from the stored trades so the report reflects what was archived.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	a, err := g.analysisStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load analysis %s: %w", runID, err)
	}

	trades, stats, err := g.aggregator.ComputeForRun(ctx, runID)
	switch {
	case errors.Is(err, metrics.ErrNoTrades):
		a.Trades = []*domain.Trade{}
	case err != nil:
		return nil, err
	default:
		a.Trades = trades
		a.Stats = stats
	}

	return BuildReport(a), nil
}

// History lists up to limit archived runs of wallet, newest first.
func (g *Generator) History(ctx context.Context, wallet string, limit int) ([]HistoryRow, error) {
	runs, err := g.analysisStore.ListByWallet(ctx, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses for %s: %w", wallet, err)
	}

	rows := make([]HistoryRow, 0, len(runs))
	for _, a := range runs {
		rows = append(rows, HistoryRow{
			RunID:        a.RunID,
			GeneratedAt:  time.UnixMilli(a.GeneratedAt).UTC(),
			Trades:       a.Stats.TotalTrades,
			WinRate:      a.Stats.WinRate,
			TotalPnLSol:  a.Stats.TotalPnLSol,
			OpenValueUSD: a.OpenPositions.TotalValueUSD,
			Partial:      a.IsPartialResult,
		})
	}
	return rows, nil
}
