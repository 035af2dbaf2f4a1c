package domain

import "github.com/shopspring/decimal"

// AggregateStats summarizes reconstructed trades.
type AggregateStats struct {
	TotalTrades int `json:"totalTrades"`
	Buys        int `json:"buys"`
	Sells       int `json:"sells"`
	Unknown     int `json:"unknown"`

	// Sells with a defined pnlPercent
	ClosedTrades int     `json:"closedTrades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"winRate"` // percent of wins among sells with a known PnL

	TotalPnLSol       decimal.Decimal `json:"totalPnlSol"`
	AvgWinPercent     float64         `json:"avgWinPercent"`
	AvgLossPercent    float64         `json:"avgLossPercent"`
	BestTradePercent  *float64        `json:"bestTradePercent,omitempty"`
	WorstTradePercent *float64        `json:"worstTradePercent,omitempty"`

	UniqueTokens   int `json:"uniqueTokens"`
	MultiLegTrades int `json:"multiLegTrades"`
	UnmatchedSells int `json:"unmatchedSells"`
}

// Analysis is the result of one wallet analysis run.
type Analysis struct {
	RunID       string `json:"runId"`
	Wallet      string `json:"wallet"`
	GeneratedAt int64  `json:"generatedAt"` // ms
	DurationMs  int64  `json:"durationMs"`

	Trades        []*Trade        `json:"trades"`
	Stats         AggregateStats  `json:"stats"`
	OpenPositions PositionSummary `json:"openPositions"`

	IsPartialResult       bool     `json:"isPartialResult"`
	SignaturesTruncated   bool     `json:"signaturesTruncated"`
	TotalSignatures       int      `json:"totalSignatures"`
	ProcessedTransactions int      `json:"processedTransactions"`
	SwapTransactions      int      `json:"swapTransactions"`
	Warnings              []string `json:"warnings,omitempty"`
}
