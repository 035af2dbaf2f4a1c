package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds trades for runID atomically. The run must already exist.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []*domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (
			run_id, signature, block_time, slot, trade_type, program,
			base_mint, token_mint, multi_leg, fee, changes,
			price_in_sol, entry_price, pnl_percent, pnl_sol, unmatched_amount,
			base_mismatch
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	for _, t := range trades {
		if t == nil || t.Signature == "" {
			return storage.ErrInvalidInput
		}
		changes, err := json.Marshal(t.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes of %s: %w", t.Signature, err)
		}

		_, err = tx.Exec(ctx, query,
			runID,
			t.Signature,
			t.Timestamp,
			int64(t.Slot),
			string(t.Type),
			t.Program,
			t.BaseMint,
			t.TokenMint,
			t.MultiLeg,
			t.Fee.String(),
			string(changes),
			storage.DecimalText(t.PriceInSol),
			storage.DecimalText(t.EntryPrice),
			storage.DecimalText(t.PnLPercent),
			storage.DecimalText(t.PnLSol),
			storage.DecimalText(t.UnmatchedAmount),
			t.BaseMismatch,
		)
		if err != nil {
			return translate(err, "insert trade "+t.Signature, "run "+runID+" trade "+t.Signature)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
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
		FROM trades
		WHERE run_id = $1
		ORDER BY block_time ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades by run: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var (
		t                                           domain.Trade
		slot                                        int64
		tradeType, fee                              string
		changes                                     []byte
		price, entry, pnlPercent, pnlSol, unmatched *string
	)

	err := row.Scan(
		&t.Signature,
		&t.Timestamp,
		&slot,
		&tradeType,
		&t.Program,
		&t.BaseMint,
		&t.TokenMint,
		&t.MultiLeg,
		&fee,
		&changes,
		&price,
		&entry,
		&pnlPercent,
		&pnlSol,
		&unmatched,
		&t.BaseMismatch,
	)
	if err != nil {
		return nil, fmt.Errorf("scan trade row: %w", err)
	}

	t.Slot = uint64(slot)
	t.Type = domain.TradeType(tradeType)
	if t.Fee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse fee of %s: %w", t.Signature, err)
	}
	if err := json.Unmarshal(changes, &t.Changes); err != nil {
		return nil, fmt.Errorf("unmarshal changes of %s: %w", t.Signature, err)
	}

	for _, f := range []struct {
		src *string
		dst **decimal.Decimal
	}{
		{price, &t.PriceInSol},
		{entry, &t.EntryPrice},
		{pnlPercent, &t.PnLPercent},
		{pnlSol, &t.PnLSol},
		{unmatched, &t.UnmatchedAmount},
	} {
		d, err := storage.ParseDecimalText(f.src)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", t.Signature, err)
		}
		*f.dst = d
	}

	return &t, nil
}
