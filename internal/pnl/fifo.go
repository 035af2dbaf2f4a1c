// Package pnl replays swaps through per-token FIFO lot queues to compute
// realized profit and the cost basis of what is still held.
package pnl

import (
	"sort"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
)

var hundred = decimal.NewFromInt(100)

// Result is the outcome of a reconstruction.
type Result struct {
	// Open lots per token mint after the replay.
	Lots map[string][]Lot
	// Sells that sold more than the tracked lots covered.
	UnmatchedSells int
	// Sells matched against lots bought with a different base mint.
	BaseMismatches int
}

// SortTrades orders trades by timestamp, then slot, then signature.
func SortTrades(trades []*domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Signature < b.Signature
	})
}

// Reconstruct sorts trades chronologically in place and writes PriceInSol,
// EntryPrice, PnLPercent, PnLSol and UnmatchedAmount onto them. Previous
// values are discarded so repeated runs give identical output.
//
// Prices are quoted in the trade's base mint. PriceInSol and PnLSol are only
// written for SOL-based trades; a stablecoin round trip still gets
// EntryPrice and PnLPercent. A sell that consumes lots bought with another
// base has no common unit, so its PnL stays unset and BaseMismatch is set.
//
// The unmatched part of a sell creates no synthetic lot; it is reported on
// the trade and counted in the result.
func Reconstruct(trades []*domain.Trade) Result {
	SortTrades(trades)

	b := newBook()
	res := Result{}

	for _, t := range trades {
		t.ResetPnL()

		price, amount, ok := legPrice(t)
		if !ok {
			continue
		}
		inSol := t.BaseMint == solana.WSOLMint
		if inSol {
			t.PriceInSol = ptr(price)
		}

		switch t.Type {
		case domain.TradeBuy:
			b.buy(t.TokenMint, Lot{Price: price, Amount: amount, Timestamp: t.Timestamp, BaseMint: t.BaseMint})

		case domain.TradeSell:
			f := b.sell(t.TokenMint, t.BaseMint, amount)
			if f.unmatched.IsPositive() {
				t.UnmatchedAmount = ptr(f.unmatched)
				res.UnmatchedSells++
			}
			if !f.sold.IsPositive() {
				continue
			}
			if f.mixed {
				t.BaseMismatch = true
				res.BaseMismatches++
				continue
			}

			avg := f.cost.Div(f.sold)
			t.EntryPrice = ptr(avg)
			if avg.IsZero() {
				continue
			}
			diff := price.Sub(avg)
			t.PnLPercent = ptr(diff.Div(avg).Mul(hundred))
			if inSol {
				t.PnLSol = ptr(diff.Mul(f.sold))
			}
		}
	}

	res.Lots = b.remaining()
	return res
}

// legPrice returns |base| / |token| and |token| for a trade with both legs.
// Zero or missing legs yield false.
func legPrice(t *domain.Trade) (price, amount decimal.Decimal, ok bool) {
	base, hasBase := t.BaseChange()
	tok, hasTok := t.TokenChange()
	if !hasBase || !hasTok {
		return decimal.Zero, decimal.Zero, false
	}

	amount = tok.Change.Abs()
	if amount.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}
	return base.Change.Abs().Div(amount), amount, true
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
