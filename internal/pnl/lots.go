package pnl

import "github.com/shopspring/decimal"

// Lot is one acquisition of a token with its own cost basis.
type Lot struct {
	Price     decimal.Decimal // base units per token
	Amount    decimal.Decimal // remaining tokens
	Timestamp int64
	BaseMint  string // mint Price is quoted in
}

// book holds FIFO lot queues per mint. Queues are appended in replay order,
// which is chronological because trades are sorted first.
type book struct {
	queues map[string][]Lot
}

func newBook() *book {
	return &book{queues: make(map[string][]Lot)}
}

func (b *book) buy(mint string, lot Lot) {
	b.queues[mint] = append(b.queues[mint], lot)
}

// fill is what a sell matched against the book.
type fill struct {
	cost      decimal.Decimal // in the lots' base units, valid unless mixed
	sold      decimal.Decimal
	unmatched decimal.Decimal
	// mixed is set when a consumed lot was bought with a base other than base.
	mixed bool
}

// sell consumes amount from the oldest lots regardless of their base, so
// remaining amounts always equal bought minus sold.
func (b *book) sell(mint, base string, amount decimal.Decimal) fill {
	queue := b.queues[mint]
	remaining := amount
	var f fill

	for len(queue) > 0 && remaining.IsPositive() {
		lot := &queue[0]
		take := decimal.Min(lot.Amount, remaining)
		if lot.BaseMint != base {
			f.mixed = true
		}

		f.cost = f.cost.Add(take.Mul(lot.Price))
		f.sold = f.sold.Add(take)
		remaining = remaining.Sub(take)
		lot.Amount = lot.Amount.Sub(take)

		if !lot.Amount.IsPositive() {
			queue = queue[1:]
		}
	}

	if len(queue) == 0 {
		delete(b.queues, mint)
	} else {
		b.queues[mint] = queue
	}
	f.unmatched = remaining
	return f
}

// remaining returns a copy of the open lots per mint.
func (b *book) remaining() map[string][]Lot {
	out := make(map[string][]Lot, len(b.queues))
	for mint, q := range b.queues {
		out[mint] = append([]Lot(nil), q...)
	}
	return out
}

// RemainingAmount sums the open amount of lots.
func RemainingAmount(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.Amount)
	}
	return total
}
