package domain

import "github.com/shopspring/decimal"

// TradeType is the inferred direction of a swap.
type TradeType string

const (
	TradeBuy     TradeType = "buy"
	TradeSell    TradeType = "sell"
	TradeUnknown TradeType = "unknown"
)

// ChangeType tells whether the owner gained or lost a balance.
type ChangeType string

const (
	ChangeReceived ChangeType = "received"
	ChangeSent     ChangeType = "sent"
)

// BalanceChange is the owner's net balance delta for one mint within a transaction.
// Native SOL is reported under the wrapped SOL mint.
type BalanceChange struct {
	Mint     string          `json:"mint"`
	Change   decimal.Decimal `json:"change"` // signed, UI units
	Type     ChangeType      `json:"type"`
	Decimals int             `json:"decimals"`
}

// Trade is one classified swap transaction of the analyzed wallet.
// PnL fields are written by the FIFO reconstructor; nil means unknown.
type Trade struct {
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp"` // block time, unix seconds
	Slot      uint64          `json:"slot"`
	Type      TradeType       `json:"type"`
	Changes   []BalanceChange `json:"changes"`
	Fee       decimal.Decimal `json:"fee"` // SOL
	Program   string          `json:"program,omitempty"`

	// Selected legs
	BaseMint  string `json:"baseMint,omitempty"`
	TokenMint string `json:"tokenMint,omitempty"`
	MultiLeg  bool   `json:"multiLeg,omitempty"` // more than one token leg, only the first pair is used

	// Reconstruction output
	PriceInSol      *decimal.Decimal `json:"priceInSol,omitempty"`
	EntryPrice      *decimal.Decimal `json:"entryPrice,omitempty"` // sells only, in base mint units
	PnLPercent      *decimal.Decimal `json:"pnlPercent,omitempty"`
	PnLSol          *decimal.Decimal `json:"pnlSol,omitempty"`
	UnmatchedAmount *decimal.Decimal `json:"unmatchedAmount,omitempty"` // sold amount not covered by lots
	BaseMismatch    bool             `json:"baseMismatch,omitempty"`    // sell matched lots bought with another base mint
}

// BaseChange returns the change of the selected base leg.
func (t *Trade) BaseChange() (BalanceChange, bool) {
	return t.changeFor(t.BaseMint)
}

// TokenChange returns the change of the selected token leg.
func (t *Trade) TokenChange() (BalanceChange, bool) {
	return t.changeFor(t.TokenMint)
}

func (t *Trade) changeFor(mint string) (BalanceChange, bool) {
	if mint == "" {
		return BalanceChange{}, false
	}
	for _, c := range t.Changes {
		if c.Mint == mint {
			return c, true
		}
	}
	return BalanceChange{}, false
}

// ResetPnL clears all reconstruction output.
func (t *Trade) ResetPnL() {
	t.PriceInSol = nil
	t.EntryPrice = nil
	t.PnLPercent = nil
	t.PnLSol = nil
	t.UnmatchedAmount = nil
	t.BaseMismatch = false
}
