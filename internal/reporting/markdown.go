package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
)

// RenderMarkdown renders an analysis as Markdown.
func RenderMarkdown(a *domain.Analysis) string {
	return RenderReport(BuildReport(a))
}

// RenderReport renders report as Markdown string.
func RenderReport(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Wallet Report: %s\n\n", r.Wallet))
	sb.WriteString(fmt.Sprintf("Generated: %s | Run: %s | Duration: %dms\n\n",
		r.GeneratedAt.Format(time.RFC3339), r.RunID, r.DurationMs))

	if r.Coverage.Partial {
		sb.WriteString("> **Partial result.** The analysis stopped before covering the full history.\n\n")
	}

	// Coverage
	sb.WriteString("## Coverage\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Signatures | %d |\n", r.Coverage.TotalSignatures))
	sb.WriteString(fmt.Sprintf("| Processed Transactions | %d |\n", r.Coverage.ProcessedTransactions))
	sb.WriteString(fmt.Sprintf("| Swap Transactions | %d |\n", r.Coverage.SwapTransactions))
	sb.WriteString(fmt.Sprintf("| History Truncated | %t |\n", r.Coverage.Truncated))
	sb.WriteString("\n")

	// Stats
	s := r.Stats
	sb.WriteString("## Trading Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades | %d (%d buys, %d sells, %d unknown) |\n", s.TotalTrades, s.Buys, s.Sells, s.Unknown))
	sb.WriteString(fmt.Sprintf("| Unique Tokens | %d |\n", s.UniqueTokens))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", s.ClosedTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% (%d W / %d L) |\n", s.WinRate, s.Wins, s.Losses))
	sb.WriteString(fmt.Sprintf("| Realized PnL | %s SOL |\n", s.TotalPnLSol.StringFixed(4)))
	sb.WriteString(fmt.Sprintf("| Avg Win | %.2f%% |\n", s.AvgWinPercent))
	sb.WriteString(fmt.Sprintf("| Avg Loss | %.2f%% |\n", s.AvgLossPercent))
	sb.WriteString(fmt.Sprintf("| Best Trade | %s |\n", percentPtr(s.BestTradePercent)))
	sb.WriteString(fmt.Sprintf("| Worst Trade | %s |\n", percentPtr(s.WorstTradePercent)))
	sb.WriteString("\n")

	// Tokens
	sb.WriteString("## Tokens\n\n")
	if len(r.Tokens) > 0 {
		sb.WriteString("| Token | Buys | Sells | Closed | Wins | Realized PnL (SOL) |\n")
		sb.WriteString("|-------|------|-------|--------|------|--------------------|\n")
		for _, t := range r.Tokens {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %s |\n",
				domain.ShortMint(t.Mint), t.Buys, t.Sells, t.ClosedSells, t.Wins, t.RealizedPnLSol.StringFixed(4)))
		}
	} else {
		sb.WriteString("No swaps found.\n")
	}
	sb.WriteString("\n")

	// Open positions
	p := r.Positions
	sb.WriteString("## Open Positions\n\n")
	if len(p.Positions) > 0 {
		sb.WriteString(fmt.Sprintf("Total value: $%.2f across %d position(s)", p.TotalValueUSD, p.TotalCount))
		if p.TotalCount > len(p.Positions) {
			sb.WriteString(fmt.Sprintf(", top %d shown", len(p.Positions)))
		}
		sb.WriteString("\n\n")
		sb.WriteString("| Token | Balance | Value (USD) | 24h | Avg Entry (SOL) | Days Held | Category |\n")
		sb.WriteString("|-------|---------|-------------|-----|-----------------|-----------|----------|\n")
		for _, pos := range p.Positions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %s | %s | %s | %s |\n",
				pos.Symbol,
				pos.Balance.StringFixed(4),
				pos.CurrentValueUSD,
				percentPtr(pos.PriceChange24h),
				decimalPtr(pos.AvgEntryPriceSol),
				daysPtr(pos.HoldingDays),
				pos.Category))
		}
	} else {
		sb.WriteString("No open positions above the value floor.\n")
	}
	sb.WriteString("\n")

	// Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Data Quality\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderHistory renders archived runs as a Markdown table.
func RenderHistory(wallet string, rows []HistoryRow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Analysis History: %s\n\n", wallet))
	if len(rows) == 0 {
		sb.WriteString("No archived analyses.\n")
		return sb.String()
	}
	sb.WriteString("| Run | Generated | Trades | Win Rate | PnL (SOL) | Open Value (USD) | Partial |\n")
	sb.WriteString("|-----|-----------|--------|----------|-----------|------------------|---------|\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.2f%% | %s | %.2f | %t |\n",
			r.RunID, r.GeneratedAt.Format(time.RFC3339), r.Trades, r.WinRate,
			r.TotalPnLSol.StringFixed(4), r.OpenValueUSD, r.Partial))
	}
	return sb.String()
}

func percentPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

func decimalPtr(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(9)
}

func daysPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
