package memory

import (
	"context"
	"sort"
	"sync"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.Trade // run_id -> signature -> trade
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]map[string]*domain.Trade),
	}
}

// InsertBulk adds trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []*domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.data[runID]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.Signature == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := run[t.Signature]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.Signature]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.Signature] = struct{}{}
	}

	if run == nil {
		run = make(map[string]*domain.Trade, len(trades))
		s.data[runID] = run
	}
	for _, t := range trades {
		run[t.Signature] = copyTrade(t)
	}
	return nil
}

// GetByRun retrieves trades of a run ordered by timestamp ASC, signature ASC.
func (s *TradeStore) GetByRun(_ context.Context, runID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trade, 0, len(s.data[runID]))
	for _, t := range s.data[runID] {
		result = append(result, copyTrade(t))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].Signature < result[j].Signature
	})
	return result, nil
}

func copyTrade(t *domain.Trade) *domain.Trade {
	c := *t
	c.Changes = append([]domain.BalanceChange(nil), t.Changes...)
	return &c
}

var _ storage.TradeStore = (*TradeStore)(nil)
