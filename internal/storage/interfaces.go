package storage

import (
	"context"

	"solana-wallet-pnl/internal/domain"
)

// AnalysisStore archives analysis runs. Trades are stored separately in a TradeStore.
type AnalysisStore interface {
	// Insert stores the run header, stats, open positions and warnings.
	// Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, a *domain.Analysis) error

	// GetByID retrieves a run without its trades. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Analysis, error)

	// ListByWallet returns the most recent runs for a wallet, newest first.
	ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Analysis, error)
}

// TradeStore archives the reconstructed trades of a run.
type TradeStore interface {
	// InsertBulk adds trades for runID atomically. Fails entire batch on a duplicate (run_id, signature).
	InsertBulk(ctx context.Context, runID string, trades []*domain.Trade) error

	// GetByRun retrieves trades of a run ordered by timestamp ASC, signature ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.Trade, error)
}

// TokenMetadataStore persists fetched token metadata across processes.
type TokenMetadataStore interface {
	// Upsert inserts metadata or replaces the row for the same mint.
	Upsert(ctx context.Context, m *domain.TokenMetadata) error

	// GetByMint retrieves metadata by mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}

// PositionSnapshot is one open position recorded at the end of a run.
type PositionSnapshot struct {
	RunID    string
	Wallet   string
	TakenAt  int64 // ms
	Position domain.Position
}

// SnapshotStore keeps an append-only history of open positions.
type SnapshotStore interface {
	// InsertPositions appends the positions of one run.
	InsertPositions(ctx context.Context, runID, wallet string, takenAt int64, positions []domain.Position) error

	// GetByWallet retrieves snapshots for a wallet ordered by taken_at ASC, mint ASC.
	GetByWallet(ctx context.Context, wallet string) ([]PositionSnapshot, error)
}
