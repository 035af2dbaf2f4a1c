package clickhouse

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

func TestTradeStore_InsertBulkAndGetByRun(t *testing.T) {
	conn := setupTestDB(t)

	ctx := context.Background()
	store := NewTradeStore(conn)

	pnl := decimal.RequireFromString("0.2")
	trades := []*domain.Trade{
		{
			Signature: "sig-2",
			Timestamp: 200,
			Slot:      20,
			Type:      domain.TradeSell,
			Fee:       decimal.RequireFromString("0.000005"),
			TokenMint: "MintA",
			Changes: []domain.BalanceChange{
				{Mint: "MintA", Change: decimal.RequireFromString("-100"), Type: domain.ChangeSent, Decimals: 6},
			},
			PnLSol: &pnl,
		},
		{Signature: "sig-1", Timestamp: 100, Type: domain.TradeBuy, MultiLeg: true},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", trades))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "sig-1", got[0].Signature)
	assert.True(t, got[0].MultiLeg)
	assert.Nil(t, got[0].PnLSol)

	assert.Equal(t, uint64(20), got[1].Slot)
	require.Len(t, got[1].Changes, 1)
	require.NotNil(t, got[1].PnLSol)
	assert.True(t, got[1].PnLSol.Equal(pnl))
}

func TestTradeStore_InsertBulkDuplicateRun(t *testing.T) {
	conn := setupTestDB(t)

	ctx := context.Background()
	store := NewTradeStore(conn)

	trades := []*domain.Trade{{Signature: "sig-1", Timestamp: 1}}
	require.NoError(t, store.InsertBulk(ctx, "run-1", trades))

	assert.ErrorIs(t, store.InsertBulk(ctx, "run-1", trades), storage.ErrDuplicateKey)

	dup := []*domain.Trade{{Signature: "x"}, {Signature: "x"}}
	assert.ErrorIs(t, store.InsertBulk(ctx, "run-2", dup), storage.ErrDuplicateKey)
}
