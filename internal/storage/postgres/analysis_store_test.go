package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

func testAnalysis(runID, wallet string, generatedAt int64) *domain.Analysis {
	return &domain.Analysis{
		RunID:       runID,
		Wallet:      wallet,
		GeneratedAt: generatedAt,
		DurationMs:  1200,
		Stats: domain.AggregateStats{
			TotalTrades:      3,
			Wins:             1,
			WinRate:          100,
			TotalPnLSol:      decimal.RequireFromString("0.2"),
			BestTradePercent: ptr(200.0),
		},
		OpenPositions: domain.PositionSummary{
			Positions: []domain.Position{{
				Mint:            "MintA",
				Symbol:          "AAA",
				Balance:         decimal.RequireFromString("12.5"),
				CurrentValueUSD: 40,
				Category:        domain.CategoryHolding,
			}},
			TotalCount:      1,
			TotalValueUSD:   40,
			CountByCategory: map[domain.PositionCategory]int{domain.CategoryHolding: 1},
		},
		IsPartialResult:       true,
		TotalSignatures:       10,
		ProcessedTransactions: 8,
		SwapTransactions:      3,
		Warnings:              []string{"deadline reached"},
	}
}

func TestAnalysisStore_InsertAndGetByID(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewAnalysisStore(pool)

	a := testAnalysis("run-1", "wallet-1", 1700000000000)
	require.NoError(t, store.Insert(ctx, a))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, a.Wallet, got.Wallet)
	assert.Equal(t, a.GeneratedAt, got.GeneratedAt)
	assert.True(t, got.IsPartialResult)
	assert.Equal(t, 8, got.ProcessedTransactions)
	assert.Equal(t, 3, got.Stats.TotalTrades)
	assert.True(t, got.Stats.TotalPnLSol.Equal(decimal.RequireFromString("0.2")))
	require.NotNil(t, got.Stats.BestTradePercent)
	assert.InDelta(t, 200.0, *got.Stats.BestTradePercent, 1e-9)
	require.Len(t, got.OpenPositions.Positions, 1)
	assert.Equal(t, domain.CategoryHolding, got.OpenPositions.Positions[0].Category)
	assert.Equal(t, 1, got.OpenPositions.CountByCategory[domain.CategoryHolding])
	assert.Equal(t, []string{"deadline reached"}, got.Warnings)
	assert.Nil(t, got.Trades)
}

func TestAnalysisStore_InsertDuplicate(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewAnalysisStore(pool)

	a := testAnalysis("run-dup", "wallet-1", 1)
	require.NoError(t, store.Insert(ctx, a))

	err := store.Insert(ctx, a)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAnalysisStore_GetByIDNotFound(t *testing.T) {
	pool := setupTestDB(t)

	_, err := NewAnalysisStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAnalysisStore_ListByWallet(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewAnalysisStore(pool)

	require.NoError(t, store.Insert(ctx, testAnalysis("run-a", "wallet-1", 100)))
	require.NoError(t, store.Insert(ctx, testAnalysis("run-b", "wallet-1", 300)))
	require.NoError(t, store.Insert(ctx, testAnalysis("run-c", "wallet-1", 200)))
	require.NoError(t, store.Insert(ctx, testAnalysis("run-d", "wallet-2", 400)))

	runs, err := store.ListByWallet(ctx, "wallet-1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].RunID)
	assert.Equal(t, "run-c", runs[1].RunID)

	all, err := store.ListByWallet(ctx, "wallet-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
