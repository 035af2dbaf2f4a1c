// Package swap turns a DEX transaction into the owner's net balance changes
// and an inferred trade direction.
package swap

import (
	"sort"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
)

// Noise thresholds below which a balance change is ignored.
var (
	DefaultTokenNoise = decimal.New(1, -6)
	DefaultSOLNoise   = decimal.New(1, -4)
)

// Options configures a Parser.
type Options struct {
	StableMints   []string // base legs besides SOL; defaults to USDC and USDT
	ExcludedMints []string // transactions touching these mints are never swaps
	TokenNoise    decimal.Decimal
	SOLNoise      decimal.Decimal
}

// Parser extracts owner balance changes from transactions. Safe for concurrent use.
type Parser struct {
	stable     map[string]bool
	excluded   map[string]bool
	tokenNoise decimal.Decimal
	solNoise   decimal.Decimal
}

// NewParser creates a Parser, filling unset options with defaults.
func NewParser(opts Options) *Parser {
	if opts.StableMints == nil {
		opts.StableMints = []string{solana.USDCMint, solana.USDTMint}
	}
	if opts.TokenNoise.IsZero() {
		opts.TokenNoise = DefaultTokenNoise
	}
	if opts.SOLNoise.IsZero() {
		opts.SOLNoise = DefaultSOLNoise
	}

	p := &Parser{
		stable:     make(map[string]bool, len(opts.StableMints)),
		excluded:   make(map[string]bool, len(opts.ExcludedMints)),
		tokenNoise: opts.TokenNoise,
		solNoise:   opts.SOLNoise,
	}
	for _, m := range opts.StableMints {
		p.stable[m] = true
	}
	for _, m := range opts.ExcludedMints {
		p.excluded[m] = true
	}
	return p
}

// IsBase reports whether mint is a base leg (SOL or a stablecoin).
func (p *Parser) IsBase(mint string) bool {
	return mint == solana.WSOLMint || p.stable[mint]
}

// Parse returns the owner's swap in tx, or false if tx is not a swap for owner.
// Price fields are left for the reconstructor.
func (p *Parser) Parse(tx *solana.Transaction, owner string) (*domain.Trade, bool) {
	if tx == nil || tx.Meta == nil || tx.Message == nil || tx.Failed() {
		return nil, false
	}

	changes := p.BalanceChanges(tx, owner)
	if len(changes) < 2 {
		return nil, false
	}
	for _, c := range changes {
		if p.excluded[c.Mint] {
			return nil, false
		}
	}

	trade := &domain.Trade{
		Signature: tx.Signature,
		Timestamp: tx.BlockTime,
		Slot:      uint64(tx.Slot),
		Type:      domain.TradeUnknown,
		Changes:   changes,
		Fee:       lamportsToSOL(tx.Meta.Fee),
	}
	p.pickLegs(trade)
	return trade, true
}

// BalanceChanges diffs the owner's token and native balances, dropping noise.
// Native SOL and wrapped SOL are merged into one change under the WSOL mint.
// The result is sorted by mint.
func (p *Parser) BalanceChanges(tx *solana.Transaction, owner string) []domain.BalanceChange {
	type leg struct {
		pre, post decimal.Decimal
		decimals  int
	}
	legs := make(map[string]*leg)

	accumulate := func(balances []solana.TokenBalance, post bool) {
		for _, b := range balances {
			if b.Owner != owner {
				continue
			}
			raw, err := decimal.NewFromString(b.Amount)
			if err != nil {
				continue
			}
			amount := raw.Shift(int32(-b.Decimals))
			l, ok := legs[b.Mint]
			if !ok {
				l = &leg{decimals: b.Decimals}
				legs[b.Mint] = l
			}
			if post {
				l.post = l.post.Add(amount)
			} else {
				l.pre = l.pre.Add(amount)
			}
		}
	}
	accumulate(tx.Meta.PreTokenBalances, false)
	accumulate(tx.Meta.PostTokenBalances, true)

	sol := p.nativeChange(tx, owner)
	if wsol, ok := legs[solana.WSOLMint]; ok {
		sol = sol.Add(wsol.post.Sub(wsol.pre))
		delete(legs, solana.WSOLMint)
	}

	var changes []domain.BalanceChange
	if sol.Abs().GreaterThanOrEqual(p.solNoise) {
		changes = append(changes, newChange(solana.WSOLMint, sol, solana.SOLDecimals))
	}
	for mint, l := range legs {
		delta := l.post.Sub(l.pre)
		if delta.Abs().LessThan(p.tokenNoise) {
			continue
		}
		changes = append(changes, newChange(mint, delta, l.decimals))
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Mint < changes[j].Mint })
	return changes
}

// nativeChange returns the owner's lamport delta in SOL, excluding the fee
// when the owner paid it.
func (p *Parser) nativeChange(tx *solana.Transaction, owner string) decimal.Decimal {
	idx := -1
	for i, key := range tx.AllAccountKeys() {
		if key == owner {
			idx = i
			break
		}
	}
	meta := tx.Meta
	if idx < 0 || idx >= len(meta.PreBalances) || idx >= len(meta.PostBalances) {
		return decimal.Zero
	}

	delta := decimal.NewFromUint64(meta.PostBalances[idx]).Sub(decimal.NewFromUint64(meta.PreBalances[idx]))
	if idx == 0 {
		delta = delta.Add(decimal.NewFromUint64(meta.Fee))
	}
	return delta.Shift(-solana.SOLDecimals)
}

// pickLegs selects the base and token legs and infers the direction.
// With several token legs only the first opposite-signed pair is used.
func (p *Parser) pickLegs(t *domain.Trade) {
	var bases, tokens []domain.BalanceChange
	for _, c := range t.Changes {
		if p.IsBase(c.Mint) {
			bases = append(bases, c)
		} else {
			tokens = append(tokens, c)
		}
	}
	t.MultiLeg = len(tokens) > 1

	if len(tokens) == 0 {
		return
	}
	if len(bases) == 0 {
		t.TokenMint = tokens[0].Mint
		return
	}

	// Stablecoin legs first, SOL last: a stable swap still moves lamports for rent.
	sort.SliceStable(bases, func(i, j int) bool {
		return bases[i].Mint != solana.WSOLMint && bases[j].Mint == solana.WSOLMint
	})

	for _, base := range bases {
		for _, tok := range tokens {
			if base.Change.Sign() == tok.Change.Sign() {
				continue
			}
			t.BaseMint = base.Mint
			t.TokenMint = tok.Mint
			if base.Change.IsNegative() {
				t.Type = domain.TradeBuy
			} else {
				t.Type = domain.TradeSell
			}
			return
		}
	}

	// No clean pairing: keep the first legs for reference.
	t.BaseMint = bases[0].Mint
	t.TokenMint = tokens[0].Mint
}

func newChange(mint string, delta decimal.Decimal, decimals int) domain.BalanceChange {
	typ := domain.ChangeReceived
	if delta.IsNegative() {
		typ = domain.ChangeSent
	}
	return domain.BalanceChange{Mint: mint, Change: delta, Type: typ, Decimals: decimals}
}

func lamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-solana.SOLDecimals)
}
