package memory

import (
	"context"
	"sort"
	"sync"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// AnalysisStore is an in-memory implementation of storage.AnalysisStore.
type AnalysisStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Analysis // keyed by run_id
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		data: make(map[string]*domain.Analysis),
	}
}

// Insert stores a run without its trades. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisStore) Insert(_ context.Context, a *domain.Analysis) error {
	if a == nil || a.RunID == "" || a.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.RunID] = header(a)
	return nil
}

// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(_ context.Context, runID string) (*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return header(a), nil
}

// ListByWallet returns up to limit runs for wallet, newest first. limit <= 0 means all.
func (s *AnalysisStore) ListByWallet(_ context.Context, wallet string, limit int) ([]*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Analysis
	for _, a := range s.data {
		if a.Wallet == wallet {
			result = append(result, header(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GeneratedAt != result[j].GeneratedAt {
			return result[i].GeneratedAt > result[j].GeneratedAt
		}
		return result[i].RunID < result[j].RunID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// header copies a without trades.
func header(a *domain.Analysis) *domain.Analysis {
	c := *a
	c.Trades = nil
	c.Warnings = append([]string(nil), a.Warnings...)
	c.OpenPositions.Positions = append([]domain.Position(nil), a.OpenPositions.Positions...)
	if a.OpenPositions.CountByCategory != nil {
		c.OpenPositions.CountByCategory = make(map[domain.PositionCategory]int, len(a.OpenPositions.CountByCategory))
		for k, v := range a.OpenPositions.CountByCategory {
			c.OpenPositions.CountByCategory[k] = v
		}
	}
	return &c
}

var _ storage.AnalysisStore = (*AnalysisStore)(nil)
