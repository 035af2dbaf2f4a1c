package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// ErrNoTrades is returned when an archived run has no trades.
var ErrNoTrades = errors.New("no trades available for aggregation")

// Aggregator recomputes stats for archived analysis runs.
type Aggregator struct {
	trades storage.TradeStore
}

// NewAggregator creates an aggregator over a trade store.
func NewAggregator(trades storage.TradeStore) *Aggregator {
	return &Aggregator{trades: trades}
}

// ComputeForRun loads the trades stored for runID and summarizes them.
// Stored trades already carry their reconstruction output.
func (a *Aggregator) ComputeForRun(ctx context.Context, runID string) ([]*domain.Trade, domain.AggregateStats, error) {
	trades, err := a.trades.GetByRun(ctx, runID)
	if err != nil {
		return nil, domain.AggregateStats{}, fmt.Errorf("load trades for run %s: %w", runID, err)
	}
	if len(trades) == 0 {
		return nil, domain.AggregateStats{}, ErrNoTrades
	}
	return trades, ComputeStats(trades), nil
}

// DataQualityWarnings describes trades whose numbers are incomplete.
// Messages are sorted by mint for deterministic output.
func DataQualityWarnings(trades []*domain.Trade) []string {
	unmatched := make(map[string]int)
	mismatched := make(map[string]int)
	multiLeg := 0
	for _, t := range trades {
		if t.UnmatchedAmount != nil {
			unmatched[t.TokenMint]++
		}
		if t.BaseMismatch {
			mismatched[t.TokenMint]++
		}
		if t.MultiLeg {
			multiLeg++
		}
	}

	var warnings []string
	for _, m := range sortedKeys(unmatched) {
		warnings = append(warnings, fmt.Sprintf("token %s: %d sell(s) exceeded tracked buys, unmatched amount excluded from PnL", m, unmatched[m]))
	}
	for _, m := range sortedKeys(mismatched) {
		warnings = append(warnings, fmt.Sprintf("token %s: %d sell(s) closed lots bought with a different base currency, PnL left unset", m, mismatched[m]))
	}
	if multiLeg > 0 {
		warnings = append(warnings, fmt.Sprintf("%d multi-leg swap(s): only the first base/token pair was used", multiLeg))
	}
	return warnings
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
