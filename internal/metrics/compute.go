package metrics

import (
	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
)

// ComputeStats summarizes reconstructed trades.
// Closed trades are sells with a defined PnLPercent. A sell at exactly 0%
// is break-even: it counts as closed, so it lowers the win rate, but it is
// neither a win nor a loss and is left out of the averages.
func ComputeStats(trades []*domain.Trade) domain.AggregateStats {
	stats := domain.AggregateStats{
		TotalTrades: len(trades),
		TotalPnLSol: decimal.Zero,
	}

	tokens := make(map[string]struct{})
	var wins, losses, closed []float64

	for _, t := range trades {
		switch t.Type {
		case domain.TradeBuy:
			stats.Buys++
		case domain.TradeSell:
			stats.Sells++
		default:
			stats.Unknown++
		}

		if t.TokenMint != "" {
			tokens[t.TokenMint] = struct{}{}
		}
		if t.MultiLeg {
			stats.MultiLegTrades++
		}
		if t.UnmatchedAmount != nil {
			stats.UnmatchedSells++
		}

		if t.Type != domain.TradeSell || t.PnLPercent == nil {
			continue
		}

		pct, _ := t.PnLPercent.Float64()
		closed = append(closed, pct)
		if t.PnLSol != nil {
			stats.TotalPnLSol = stats.TotalPnLSol.Add(*t.PnLSol)
		}

		switch t.PnLPercent.Sign() {
		case 1:
			wins = append(wins, pct)
		case -1:
			losses = append(losses, pct)
		}
	}

	stats.UniqueTokens = len(tokens)
	stats.ClosedTrades = len(closed)
	stats.Wins = len(wins)
	stats.Losses = len(losses)
	stats.WinRate = computeWinRate(stats.Wins, stats.ClosedTrades)
	stats.AvgWinPercent = computeMean(wins)
	stats.AvgLossPercent = computeMean(losses)

	if len(closed) > 0 {
		best, worst := closed[0], closed[0]
		for _, p := range closed[1:] {
			if p > best {
				best = p
			}
			if p < worst {
				worst = p
			}
		}
		stats.BestTradePercent = &best
		stats.WorstTradePercent = &worst
	}

	return stats
}

// computeWinRate returns wins / total as a percentage.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
