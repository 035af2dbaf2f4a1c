package pnl

import (
	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
)

// CostBasis is what remains of a token's acquisitions after all sells.
type CostBasis struct {
	RemainingAmount decimal.Decimal
	RemainingCost   decimal.Decimal // SOL; zero when NonSOLBase
	EarliestLotTime int64           // unix seconds of the oldest unsold lot
	// NonSOLBase marks that some open lots were bought with a stablecoin, so
	// the remaining cost has no SOL value.
	NonSOLBase bool
}

// AvgEntryPrice returns RemainingCost / RemainingAmount in SOL, or false when
// nothing remains or the cost is not in SOL.
func (c CostBasis) AvgEntryPrice() (decimal.Decimal, bool) {
	if !c.RemainingAmount.IsPositive() || c.NonSOLBase {
		return decimal.Zero, false
	}
	return c.RemainingCost.Div(c.RemainingAmount), true
}

// ComputeCostBasis replays buys and sells through FIFO queues without
// touching the trades, returning the open cost basis per mint. Mints whose
// lots were fully sold are absent.
func ComputeCostBasis(trades []*domain.Trade) map[string]CostBasis {
	ordered := append([]*domain.Trade(nil), trades...)
	SortTrades(ordered)

	b := newBook()
	for _, t := range ordered {
		price, amount, ok := legPrice(t)
		if !ok {
			continue
		}
		switch t.Type {
		case domain.TradeBuy:
			b.buy(t.TokenMint, Lot{Price: price, Amount: amount, Timestamp: t.Timestamp, BaseMint: t.BaseMint})
		case domain.TradeSell:
			b.sell(t.TokenMint, t.BaseMint, amount)
		}
	}

	out := make(map[string]CostBasis, len(b.queues))
	for mint, lots := range b.queues {
		cb := CostBasis{EarliestLotTime: lots[0].Timestamp}
		for _, l := range lots {
			cb.RemainingAmount = cb.RemainingAmount.Add(l.Amount)
			if l.BaseMint != solana.WSOLMint {
				cb.NonSOLBase = true
				continue
			}
			cb.RemainingCost = cb.RemainingCost.Add(l.Amount.Mul(l.Price))
		}
		if cb.NonSOLBase {
			cb.RemainingCost = decimal.Zero
		}
		out[mint] = cb
	}
	return out
}
