package memory

import (
	"context"
	"sort"
	"sync"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data []storage.PositionSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// InsertPositions appends the positions of one run.
func (s *SnapshotStore) InsertPositions(_ context.Context, runID, wallet string, takenAt int64, positions []domain.Position) error {
	if runID == "" || wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range positions {
		s.data = append(s.data, storage.PositionSnapshot{
			RunID:    runID,
			Wallet:   wallet,
			TakenAt:  takenAt,
			Position: p,
		})
	}
	return nil
}

// GetByWallet retrieves snapshots for a wallet ordered by taken_at ASC, mint ASC.
func (s *SnapshotStore) GetByWallet(_ context.Context, wallet string) ([]storage.PositionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.PositionSnapshot
	for _, snap := range s.data {
		if snap.Wallet == wallet {
			result = append(result, snap)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].TakenAt != result[j].TakenAt {
			return result[i].TakenAt < result[j].TakenAt
		}
		return result[i].Position.Mint < result[j].Position.Mint
	})
	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
