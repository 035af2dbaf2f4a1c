package domain

import "github.com/shopspring/decimal"

// PositionCategory classifies an open holding.
type PositionCategory string

const (
	CategoryDiamondHands PositionCategory = "diamond_hands"
	CategoryBagholding   PositionCategory = "bagholding"
	CategoryRecent       PositionCategory = "recent"
	CategoryHolding      PositionCategory = "holding"
	CategoryUnknownEntry PositionCategory = "unknown_entry"
)

// Position is a current holding valued at live prices.
type Position struct {
	Mint             string           `json:"mint"`
	Symbol           string           `json:"symbol"`
	Name             string           `json:"name,omitempty"`
	Balance          decimal.Decimal  `json:"balance"`
	CurrentPriceUSD  float64          `json:"currentPriceUsd"`
	CurrentValueUSD  float64          `json:"currentValueUsd"`
	PriceChange24h   *float64         `json:"priceChange24h,omitempty"` // percent
	CostBasisSol     *decimal.Decimal `json:"costBasisSol,omitempty"`
	AvgEntryPriceSol *decimal.Decimal `json:"avgEntryPriceSol,omitempty"`
	HoldingDays      *float64         `json:"holdingDays,omitempty"`
	Category         PositionCategory `json:"category"`
}

// PositionSummary holds the displayed positions and counts over the full filtered set.
type PositionSummary struct {
	Positions       []Position               `json:"positions"`
	TotalCount      int                      `json:"totalCount"`
	TotalValueUSD   float64                  `json:"totalValueUsd"`
	CountByCategory map[PositionCategory]int `json:"countByCategory"`
}

// Holding is a raw token balance owned by the wallet.
type Holding struct {
	Mint     string
	Amount   decimal.Decimal // UI units
	Decimals int
}

// PriceQuote is a live USD price for a mint.
type PriceQuote struct {
	Mint         string
	PriceUSD     float64
	Change24h    *float64 // percent
	LiquidityUSD float64
	FetchedAt    int64 // ms
}
