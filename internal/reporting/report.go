package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
)

// Report is the printable view of one analysis.
type Report struct {
	// Metadata
	RunID       string    `json:"runId"`
	Wallet      string    `json:"wallet"`
	GeneratedAt time.Time `json:"generatedAt"`
	DurationMs  int64     `json:"durationMs"`

	// Coverage
	Coverage CoverageSection `json:"coverage"`

	Stats     domain.AggregateStats  `json:"stats"`
	Tokens    []TokenRow             `json:"tokens"` // sorted by realized PnL desc, then mint
	Trades    []*domain.Trade        `json:"trades"`
	Positions domain.PositionSummary `json:"positions"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// CoverageSection tells how much of the history was analyzed.
type CoverageSection struct {
	TotalSignatures       int  `json:"totalSignatures"`
	ProcessedTransactions int  `json:"processedTransactions"`
	SwapTransactions      int  `json:"swapTransactions"`
	Truncated             bool `json:"truncated"`
	Partial               bool `json:"partial"`
}

// TokenRow summarizes the trades of one token.
type TokenRow struct {
	Mint           string          `json:"mint"`
	Buys           int             `json:"buys"`
	Sells          int             `json:"sells"`
	ClosedSells    int             `json:"closedSells"`
	Wins           int             `json:"wins"`
	RealizedPnLSol decimal.Decimal `json:"realizedPnlSol"`
	UnmatchedSells int             `json:"unmatchedSells"`
}

// HistoryRow is one archived run in a wallet's history.
type HistoryRow struct {
	RunID        string          `json:"runId"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Trades       int             `json:"trades"`
	WinRate      float64         `json:"winRate"`
	TotalPnLSol  decimal.Decimal `json:"totalPnlSol"`
	OpenValueUSD float64         `json:"openValueUsd"`
	Partial      bool            `json:"partial"`
}

// BuildReport derives the report sections from an analysis.
func BuildReport(a *domain.Analysis) *Report {
	return &Report{
		RunID:       a.RunID,
		Wallet:      a.Wallet,
		GeneratedAt: time.UnixMilli(a.GeneratedAt).UTC(),
		DurationMs:  a.DurationMs,
		Coverage: CoverageSection{
			TotalSignatures:       a.TotalSignatures,
			ProcessedTransactions: a.ProcessedTransactions,
			SwapTransactions:      a.SwapTransactions,
			Truncated:             a.SignaturesTruncated,
			Partial:               a.IsPartialResult,
		},
		Stats:     a.Stats,
		Tokens:    tokenRows(a.Trades),
		Trades:    a.Trades,
		Positions: a.OpenPositions,
		Warnings:  a.Warnings,
	}
}

func tokenRows(trades []*domain.Trade) []TokenRow {
	byMint := make(map[string]*TokenRow)
	for _, t := range trades {
		if t.TokenMint == "" {
			continue
		}
		row, ok := byMint[t.TokenMint]
		if !ok {
			row = &TokenRow{Mint: t.TokenMint}
			byMint[t.TokenMint] = row
		}
		switch t.Type {
		case domain.TradeBuy:
			row.Buys++
		case domain.TradeSell:
			row.Sells++
			if t.PnLPercent != nil {
				row.ClosedSells++
				if t.PnLPercent.Sign() > 0 {
					row.Wins++
				}
			}
			if t.PnLSol != nil {
				row.RealizedPnLSol = row.RealizedPnLSol.Add(*t.PnLSol)
			}
			if t.UnmatchedAmount != nil {
				row.UnmatchedSells++
			}
		}
	}

	rows := make([]TokenRow, 0, len(byMint))
	for _, r := range byMint {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].RealizedPnLSol.Cmp(rows[j].RealizedPnLSol); c != 0 {
			return c > 0
		}
		return rows[i].Mint < rows[j].Mint
	})
	return rows
}
