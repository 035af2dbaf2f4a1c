package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using PostgreSQL.
type AnalysisStore struct {
	pool *Pool
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(pool *Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

const analysisColumns = `
	run_id, wallet, generated_at, duration_ms,
	is_partial_result, signatures_truncated,
	total_signatures, processed_transactions, swap_transactions,
	stats, open_positions, warnings
`

// Insert stores a run header. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisStore) Insert(ctx context.Context, a *domain.Analysis) error {
	if a == nil || a.RunID == "" || a.Wallet == "" {
		return storage.ErrInvalidInput
	}

	stats, err := json.Marshal(a.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	positions, err := json.Marshal(a.OpenPositions)
	if err != nil {
		return fmt.Errorf("marshal open positions: %w", err)
	}
	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	query := `INSERT INTO analyses (` + analysisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.pool.Exec(ctx, query,
		a.RunID,
		a.Wallet,
		a.GeneratedAt,
		a.DurationMs,
		a.IsPartialResult,
		a.SignaturesTruncated,
		a.TotalSignatures,
		a.ProcessedTransactions,
		a.SwapTransactions,
		string(stats),
		string(positions),
		string(warningsJSON),
	)
	if err != nil {
		return translate(err, "insert analysis", "run "+a.RunID)
	}
	return nil
}

// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(ctx context.Context, runID string) (*domain.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE run_id = $1`

	a, err := scanAnalysis(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		return nil, translate(err, "get analysis by id", "run "+runID)
	}
	return a, nil
}

// ListByWallet returns up to limit runs for wallet, newest first. limit <= 0 means all.
func (s *AnalysisStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses
		WHERE wallet = $1
		ORDER BY generated_at DESC, run_id ASC`
	args := []any{wallet}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses by wallet: %w", err)
	}
	defer rows.Close()

	var result []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis rows: %w", err)
	}
	return result, nil
}

func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var (
		a                          domain.Analysis
		stats, positions, warnings []byte
	)

	err := row.Scan(
		&a.RunID,
		&a.Wallet,
		&a.GeneratedAt,
		&a.DurationMs,
		&a.IsPartialResult,
		&a.SignaturesTruncated,
		&a.TotalSignatures,
		&a.ProcessedTransactions,
		&a.SwapTransactions,
		&stats,
		&positions,
		&warnings,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stats, &a.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	if err := json.Unmarshal(positions, &a.OpenPositions); err != nil {
		return nil, fmt.Errorf("unmarshal open positions: %w", err)
	}
	if err := json.Unmarshal(warnings, &a.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	if len(a.Warnings) == 0 {
		a.Warnings = nil
	}
	return &a, nil
}
