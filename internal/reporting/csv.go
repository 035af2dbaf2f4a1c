package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
)

var tradeHeader = []string{
	"signature", "timestamp", "slot", "type", "program",
	"token_mint", "token_change", "base_mint", "base_change", "fee_sol",
	"price_in_sol", "entry_price", "pnl_percent", "pnl_sol", "unmatched_amount", "multi_leg",
}

// WriteTradesCSV writes one row per trade. Unknown values are empty cells.
func WriteTradesCSV(w io.Writer, trades []*domain.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		tokenChange, baseChange := "", ""
		if c, ok := t.TokenChange(); ok {
			tokenChange = c.Change.String()
		}
		if c, ok := t.BaseChange(); ok {
			baseChange = c.Change.String()
		}
		row := []string{
			t.Signature,
			strconv.FormatInt(t.Timestamp, 10),
			strconv.FormatUint(t.Slot, 10),
			string(t.Type),
			t.Program,
			t.TokenMint,
			tokenChange,
			t.BaseMint,
			baseChange,
			t.Fee.String(),
			cell(t.PriceInSol),
			cell(t.EntryPrice),
			cell(t.PnLPercent),
			cell(t.PnLSol),
			cell(t.UnmatchedAmount),
			strconv.FormatBool(t.MultiLeg),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write trade %s: %w", t.Signature, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var positionHeader = []string{
	"mint", "symbol", "balance", "price_usd", "value_usd", "change_24h",
	"cost_basis_sol", "avg_entry_sol", "holding_days", "category",
}

// WritePositionsCSV writes one row per open position.
func WritePositionsCSV(w io.Writer, positions []domain.Position) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(positionHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range positions {
		row := []string{
			p.Mint,
			p.Symbol,
			p.Balance.String(),
			strconv.FormatFloat(p.CurrentPriceUSD, 'f', -1, 64),
			strconv.FormatFloat(p.CurrentValueUSD, 'f', 2, 64),
			floatCell(p.PriceChange24h),
			cell(p.CostBasisSol),
			cell(p.AvgEntryPriceSol),
			floatCell(p.HoldingDays),
			string(p.Category),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write position %s: %w", p.Mint, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func cell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
