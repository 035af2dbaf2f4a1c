package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// TradeStore implements storage.TradeStore on the trade_history table.
type TradeStore struct {
	conn *Conn
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(conn *Conn) *TradeStore {
	return &TradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds trades for runID. Fails entire batch on a duplicate (run_id, signature).
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []*domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.Signature == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[t.Signature]; exists {
			return storage.ErrDuplicateKey
		}
		seen[t.Signature] = struct{}{}
	}

	// MergeTree does not enforce keys; a run is written once, so one check per run suffices
	exists, err := s.runExists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_history (
			run_id, signature, block_time, slot, trade_type, program,
			base_mint, token_mint, multi_leg, fee, changes,
			price_in_sol, entry_price, pnl_percent, pnl_sol, unmatched_amount,
			base_mismatch
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		changes, err := json.Marshal(t.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes of %s: %w", t.Signature, err)
		}
		err = batch.Append(
			runID, t.Signature, t.Timestamp, t.Slot, string(t.Type), t.Program,
			t.BaseMint, t.TokenMint, t.MultiLeg, t.Fee.String(), string(changes),
			storage.DecimalText(t.PriceInSol),
			storage.DecimalText(t.EntryPrice),
			storage.DecimalText(t.PnLPercent),
			storage.DecimalText(t.PnLSol),
			storage.DecimalText(t.UnmatchedAmount),
			t.BaseMismatch,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves trades of a run ordered by timestamp ASC, signature ASC.
func (s *TradeStore) GetByRun(ctx context.Context, runID string) ([]*domain.Trade, error) {
	query := `
		SELECT
			signature, block_time, slot, trade_type, program,
			base_mint, token_mint, multi_leg, fee, changes,
			price_in_sol, entry_price, pnl_percent, pnl_sol, unmatched_amount,
			base_mismatch
		FROM trade_history
		WHERE run_id = ?
		ORDER BY block_time ASC, signature ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades by run: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		var (
			t                                           domain.Trade
			tradeType, fee, changes                     string
			price, entry, pnlPercent, pnlSol, unmatched *string
		)
		err := rows.Scan(
			&t.Signature, &t.Timestamp, &t.Slot, &tradeType, &t.Program,
			&t.BaseMint, &t.TokenMint, &t.MultiLeg, &fee, &changes,
			&price, &entry, &pnlPercent, &pnlSol, &unmatched,
			&t.BaseMismatch,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.Type = domain.TradeType(tradeType)
		if t.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("parse fee of %s: %w", t.Signature, err)
		}
		if err := json.Unmarshal([]byte(changes), &t.Changes); err != nil {
			return nil, fmt.Errorf("unmarshal changes of %s: %w", t.Signature, err)
		}
		if t.PriceInSol, err = storage.ParseDecimalText(price); err != nil {
			return nil, err
		}
		if t.EntryPrice, err = storage.ParseDecimalText(entry); err != nil {
			return nil, err
		}
		if t.PnLPercent, err = storage.ParseDecimalText(pnlPercent); err != nil {
			return nil, err
		}
		if t.PnLSol, err = storage.ParseDecimalText(pnlSol); err != nil {
			return nil, err
		}
		if t.UnmatchedAmount, err = storage.ParseDecimalText(unmatched); err != nil {
			return nil, err
		}

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}

func (s *TradeStore) runExists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM trade_history WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
