// Package positions values current holdings and classifies them against
// the cost basis left over from trade reconstruction.
package positions

import (
	"sort"
	"time"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/pnl"
)

// Category thresholds.
const (
	diamondHandsChange = 50.0  // 24h change above, percent
	diamondHandsDays   = 7.0   // minimum holding days
	bagholdingChange   = -30.0 // 24h change below, percent
	bagholdingDays     = 3.0
	recentDays         = 1.0
)

// Options controls which positions are reported.
type Options struct {
	FloorUSD     float64 // positions worth less are dropped
	DisplayLimit int     // positions kept after sorting, 0 means all
}

// DefaultOptions returns a $1 floor and a top-20 display limit.
func DefaultOptions() Options {
	return Options{FloorUSD: 1, DisplayLimit: 20}
}

// Categorize classifies a position. Without a holding duration there is no
// cost basis and the entry is unknown. A missing 24h change only rules out
// the change-based categories.
func Categorize(change24h, holdingDays *float64) domain.PositionCategory {
	if holdingDays == nil {
		return domain.CategoryUnknownEntry
	}
	days := *holdingDays

	if change24h != nil {
		switch {
		case *change24h > diamondHandsChange && days >= diamondHandsDays:
			return domain.CategoryDiamondHands
		case *change24h < bagholdingChange && days >= bagholdingDays:
			return domain.CategoryBagholding
		}
	}
	if days < recentDays {
		return domain.CategoryRecent
	}
	return domain.CategoryHolding
}

// Build values holdings at the given quotes, attaches cost basis, drops
// positions under the floor and sorts by USD value descending. Counts and
// totals cover every position above the floor; Positions is capped at the
// display limit.
func Build(
	holdings []domain.Holding,
	quotes map[string]domain.PriceQuote,
	metadata map[string]*domain.TokenMetadata,
	basis map[string]pnl.CostBasis,
	now time.Time,
	opts Options,
) domain.PositionSummary {
	summary := domain.PositionSummary{
		Positions:       []domain.Position{},
		CountByCategory: make(map[domain.PositionCategory]int),
	}

	var all []domain.Position
	for _, h := range holdings {
		q, ok := quotes[h.Mint]
		if !ok {
			continue
		}

		balance, _ := h.Amount.Float64()
		value := balance * q.PriceUSD
		if value < opts.FloorUSD {
			continue
		}

		p := domain.Position{
			Mint:            h.Mint,
			Symbol:          domain.ShortMint(h.Mint),
			Balance:         h.Amount,
			CurrentPriceUSD: q.PriceUSD,
			CurrentValueUSD: value,
			PriceChange24h:  q.Change24h,
		}
		if meta := metadata[h.Mint]; meta != nil {
			p.Symbol = meta.DisplaySymbol()
			if meta.Name != nil {
				p.Name = *meta.Name
			}
		}

		if cb, ok := basis[h.Mint]; ok && cb.RemainingAmount.IsPositive() {
			// Lots bought with a stablecoin still date the holding.
			if avg, ok := cb.AvgEntryPrice(); ok {
				cost := cb.RemainingCost
				p.CostBasisSol = &cost
				p.AvgEntryPriceSol = &avg
			}
			days := now.Sub(time.Unix(cb.EarliestLotTime, 0)).Hours() / 24
			if days < 0 {
				days = 0
			}
			p.HoldingDays = &days
		}
		p.Category = Categorize(p.PriceChange24h, p.HoldingDays)

		all = append(all, p)
		summary.TotalValueUSD += value
		summary.CountByCategory[p.Category]++
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CurrentValueUSD != all[j].CurrentValueUSD {
			return all[i].CurrentValueUSD > all[j].CurrentValueUSD
		}
		return all[i].Mint < all[j].Mint
	})

	summary.TotalCount = len(all)
	if opts.DisplayLimit > 0 && len(all) > opts.DisplayLimit {
		all = all[:opts.DisplayLimit]
	}
	if all != nil {
		summary.Positions = all
	}
	return summary
}
