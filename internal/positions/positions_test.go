package positions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/pnl"
)

func f(v float64) *float64 { return &v }

func TestCategorize(t *testing.T) {
	tests := []struct {
		name   string
		change *float64
		days   *float64
		want   domain.PositionCategory
	}{
		{"diamond hands", f(60), f(10), domain.CategoryDiamondHands},
		{"pump too fresh", f(60), f(2), domain.CategoryHolding},
		{"exactly seven days", f(50.1), f(7), domain.CategoryDiamondHands},
		{"fifty percent is not above", f(50), f(10), domain.CategoryHolding},
		{"bagholding", f(-40), f(3), domain.CategoryBagholding},
		{"dump too fresh", f(-40), f(2), domain.CategoryHolding},
		{"recent", f(-40), f(0.5), domain.CategoryRecent},
		{"recent without change", nil, f(0.2), domain.CategoryRecent},
		{"holding without change", nil, f(30), domain.CategoryHolding},
		{"no cost basis", f(60), nil, domain.CategoryUnknownEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.change, tt.days); got != tt.want {
				t.Errorf("Categorize() = %s, want %s", got, tt.want)
			}
		})
	}
}

func holding(mint, amount string) domain.Holding {
	return domain.Holding{Mint: mint, Amount: decimal.RequireFromString(amount), Decimals: 6}
}

func TestBuild_ValuesFiltersAndSorts(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	symbol := "BIG"

	holdings := []domain.Holding{
		holding("MintSmall", "10"), // $5
		holding("MintDust", "1"),   // $0.5, below floor
		holding("MintBig", "100"),  // $200
		holding("MintNoQuote", "1000"),
	}
	quotes := map[string]domain.PriceQuote{
		"MintSmall": {Mint: "MintSmall", PriceUSD: 0.5},
		"MintDust":  {Mint: "MintDust", PriceUSD: 0.5},
		"MintBig":   {Mint: "MintBig", PriceUSD: 2, Change24h: f(60)},
	}
	metadata := map[string]*domain.TokenMetadata{
		"MintBig": {Mint: "MintBig", Symbol: &symbol, Decimals: 6},
	}
	basis := map[string]pnl.CostBasis{
		"MintBig": {
			RemainingAmount: decimal.RequireFromString("100"),
			RemainingCost:   decimal.RequireFromString("2"),
			EarliestLotTime: now.Add(-10 * 24 * time.Hour).Unix(),
		},
	}

	summary := Build(holdings, quotes, metadata, basis, now, DefaultOptions())

	if summary.TotalCount != 2 {
		t.Fatalf("TotalCount: got %d, want 2", summary.TotalCount)
	}
	if summary.TotalValueUSD != 205 {
		t.Errorf("TotalValueUSD: got %f, want 205", summary.TotalValueUSD)
	}

	big := summary.Positions[0]
	if big.Mint != "MintBig" || big.Symbol != "BIG" {
		t.Errorf("expected MintBig first, got %s (%s)", big.Mint, big.Symbol)
	}
	if big.Category != domain.CategoryDiamondHands {
		t.Errorf("Category: got %s, want diamond_hands", big.Category)
	}
	if big.HoldingDays == nil || *big.HoldingDays != 10 {
		t.Errorf("HoldingDays: got %v, want 10", big.HoldingDays)
	}
	if big.AvgEntryPriceSol == nil || !big.AvgEntryPriceSol.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("AvgEntryPriceSol: got %v, want 0.02", big.AvgEntryPriceSol)
	}
	if big.CostBasisSol == nil || !big.CostBasisSol.Equal(decimal.RequireFromString("2")) {
		t.Errorf("CostBasisSol: got %v, want 2", big.CostBasisSol)
	}

	small := summary.Positions[1]
	if small.Category != domain.CategoryUnknownEntry {
		t.Errorf("Category: got %s, want unknown_entry", small.Category)
	}
	if small.Symbol != domain.ShortMint("MintSmall") {
		t.Errorf("Symbol fallback: got %s", small.Symbol)
	}

	if summary.CountByCategory[domain.CategoryDiamondHands] != 1 || summary.CountByCategory[domain.CategoryUnknownEntry] != 1 {
		t.Errorf("CountByCategory: got %v", summary.CountByCategory)
	}
}

func TestBuild_DisplayLimitKeepsFullCounts(t *testing.T) {
	var holdings []domain.Holding
	quotes := make(map[string]domain.PriceQuote)
	for i := 0; i < 25; i++ {
		mint := string(rune('A' + i))
		holdings = append(holdings, holding(mint, "1"))
		quotes[mint] = domain.PriceQuote{Mint: mint, PriceUSD: float64(10 + i)}
	}

	summary := Build(holdings, quotes, nil, nil, time.Now(), DefaultOptions())

	if len(summary.Positions) != 20 {
		t.Errorf("Positions: got %d, want 20", len(summary.Positions))
	}
	if summary.TotalCount != 25 {
		t.Errorf("TotalCount: got %d, want 25", summary.TotalCount)
	}
	if summary.CountByCategory[domain.CategoryUnknownEntry] != 25 {
		t.Errorf("CountByCategory: got %v", summary.CountByCategory)
	}
	if summary.Positions[0].CurrentValueUSD != 34 {
		t.Errorf("expected highest value first, got %f", summary.Positions[0].CurrentValueUSD)
	}
	// 10 + 11 + ... + 34
	if summary.TotalValueUSD != 550 {
		t.Errorf("TotalValueUSD: got %f, want 550", summary.TotalValueUSD)
	}
}

func TestBuild_Empty(t *testing.T) {
	summary := Build(nil, nil, nil, nil, time.Now(), DefaultOptions())

	if summary.Positions == nil || len(summary.Positions) != 0 {
		t.Errorf("expected empty non-nil positions, got %v", summary.Positions)
	}
	if summary.TotalCount != 0 {
		t.Errorf("TotalCount: got %d", summary.TotalCount)
	}
}

func TestBuild_StablecoinLotsKeepHoldingDaysOnly(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	holdings := []domain.Holding{holding("MintUSD", "100")}
	quotes := map[string]domain.PriceQuote{"MintUSD": {Mint: "MintUSD", PriceUSD: 1, Change24h: f(-40)}}
	basis := map[string]pnl.CostBasis{
		"MintUSD": {
			RemainingAmount: decimal.RequireFromString("100"),
			EarliestLotTime: now.Add(-5 * 24 * time.Hour).Unix(),
			NonSOLBase:      true,
		},
	}

	summary := Build(holdings, quotes, nil, basis, now, DefaultOptions())

	if len(summary.Positions) != 1 {
		t.Fatalf("Positions: got %d, want 1", len(summary.Positions))
	}
	p := summary.Positions[0]
	if p.CostBasisSol != nil || p.AvgEntryPriceSol != nil {
		t.Errorf("expected no SOL cost basis, got %v / %v", p.CostBasisSol, p.AvgEntryPriceSol)
	}
	if p.HoldingDays == nil || *p.HoldingDays != 5 {
		t.Errorf("HoldingDays: got %v, want 5", p.HoldingDays)
	}
	if p.Category != domain.CategoryBagholding {
		t.Errorf("Category: got %s, want bagholding", p.Category)
	}
}
