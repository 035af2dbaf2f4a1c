package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Upsert inserts metadata or replaces the row for the same mint.
func (s *TokenMetadataStore) Upsert(ctx context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_metadata (mint, name, symbol, decimals, supply, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (mint) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals,
			supply = EXCLUDED.supply,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = now()
	`

	var supply *string
	if m.Supply != nil {
		v := strconv.FormatUint(*m.Supply, 10)
		supply = &v
	}

	_, err := s.pool.Exec(ctx, query,
		m.Mint,
		m.Name,
		m.Symbol,
		m.Decimals,
		supply,
		m.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token metadata: %w", err)
	}
	return nil
}

// GetByMint retrieves metadata by mint address. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	query := `
		SELECT mint, name, symbol, decimals, supply, fetched_at
		FROM token_metadata
		WHERE mint = $1
	`

	m, err := scanTokenMetadata(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		return nil, translate(err, "get token metadata", "mint "+mint)
	}
	return m, nil
}

// scanTokenMetadata scans a single row into TokenMetadata.
func scanTokenMetadata(row pgx.Row) (*domain.TokenMetadata, error) {
	var (
		m      domain.TokenMetadata
		supply *string
	)

	err := row.Scan(
		&m.Mint,
		&m.Name,
		&m.Symbol,
		&m.Decimals,
		&supply,
		&m.FetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if supply != nil {
		v, err := strconv.ParseUint(*supply, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse supply %q: %w", *supply, err)
		}
		m.Supply = &v
	}
	return &m, nil
}
