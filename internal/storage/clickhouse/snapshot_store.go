package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertPositions appends the positions of one run in a single batch.
func (s *SnapshotStore) InsertPositions(ctx context.Context, runID, wallet string, takenAt int64, positions []domain.Position) error {
	if runID == "" || wallet == "" {
		return storage.ErrInvalidInput
	}
	if len(positions) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO position_snapshots (
			run_id, wallet, taken_at, mint, symbol, name, balance,
			price_usd, value_usd, change_24h,
			cost_basis_sol, avg_entry_price_sol, holding_days, category
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range positions {
		err = batch.Append(
			runID, wallet, takenAt, p.Mint, p.Symbol, p.Name, p.Balance.String(),
			p.CurrentPriceUSD, p.CurrentValueUSD, p.PriceChange24h,
			storage.DecimalText(p.CostBasisSol), storage.DecimalText(p.AvgEntryPriceSol), p.HoldingDays, string(p.Category),
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

// GetByWallet retrieves snapshots for a wallet ordered by taken_at ASC, mint ASC.
func (s *SnapshotStore) GetByWallet(ctx context.Context, wallet string) ([]storage.PositionSnapshot, error) {
	query := `
		SELECT
			run_id, wallet, taken_at, mint, symbol, name, balance,
			price_usd, value_usd, change_24h,
			cost_basis_sol, avg_entry_price_sol, holding_days, category
		FROM position_snapshots
		WHERE wallet = ?
		ORDER BY taken_at ASC, mint ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by wallet: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows chRows) ([]storage.PositionSnapshot, error) {
	var snapshots []storage.PositionSnapshot

	for rows.Next() {
		var (
			snap                storage.PositionSnapshot
			p                   = &snap.Position
			balance, category   string
			costBasis, avgEntry *string
		)
		err := rows.Scan(
			&snap.RunID, &snap.Wallet, &snap.TakenAt, &p.Mint, &p.Symbol, &p.Name, &balance,
			&p.CurrentPriceUSD, &p.CurrentValueUSD, &p.PriceChange24h,
			&costBasis, &avgEntry, &p.HoldingDays, &category,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		if p.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", balance, err)
		}
		if p.CostBasisSol, err = storage.ParseDecimalText(costBasis); err != nil {
			return nil, err
		}
		if p.AvgEntryPriceSol, err = storage.ParseDecimalText(avgEntry); err != nil {
			return nil, err
		}
		p.Category = domain.PositionCategory(category)

		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}
