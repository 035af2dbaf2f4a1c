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

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testTrades() []*domain.Trade {
	return []*domain.Trade{
		{
			Signature: "sig-sell",
			Timestamp: 200,
			Slot:      20,
			Type:      domain.TradeSell,
			Fee:       decimal.RequireFromString("0.000005"),
			Program:   "Raydium AMM v4",
			BaseMint:  "So11111111111111111111111111111111111111112",
			TokenMint: "MintA",
			Changes: []domain.BalanceChange{
				{Mint: "MintA", Change: decimal.RequireFromString("-100"), Type: domain.ChangeSent, Decimals: 6},
				{Mint: "So11111111111111111111111111111111111111112", Change: decimal.RequireFromString("0.3"), Type: domain.ChangeReceived, Decimals: 9},
			},
			PriceInSol: decimalPtr("0.003"),
			EntryPrice: decimalPtr("0.001"),
			PnLPercent: decimalPtr("200"),
			PnLSol:     decimalPtr("0.2"),
		},
		{
			Signature:  "sig-buy",
			Timestamp:  100,
			Slot:       10,
			Type:       domain.TradeBuy,
			Fee:        decimal.RequireFromString("0.000005"),
			BaseMint:   "So11111111111111111111111111111111111111112",
			TokenMint:  "MintA",
			MultiLeg:   true,
			PriceInSol: decimalPtr("0.001"),
		},
	}
}

func TestTradeStore_InsertBulkAndGetByRun(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	require.NoError(t, NewAnalysisStore(pool).Insert(ctx, testAnalysis("run-1", "wallet-1", 1)))

	store := NewTradeStore(pool)
	require.NoError(t, store.InsertBulk(ctx, "run-1", testTrades()))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	buy, sell := got[0], got[1]
	assert.Equal(t, "sig-buy", buy.Signature)
	assert.True(t, buy.MultiLeg)
	assert.Nil(t, buy.PnLSol)
	assert.Empty(t, buy.Changes)

	assert.Equal(t, domain.TradeSell, sell.Type)
	assert.Equal(t, uint64(20), sell.Slot)
	assert.Equal(t, "Raydium AMM v4", sell.Program)
	assert.True(t, sell.Fee.Equal(decimal.RequireFromString("0.000005")))
	require.Len(t, sell.Changes, 2)
	assert.True(t, sell.Changes[0].Change.Equal(decimal.RequireFromString("-100")))
	require.NotNil(t, sell.PnLSol)
	assert.True(t, sell.PnLSol.Equal(decimal.RequireFromString("0.2")))
	assert.Nil(t, sell.UnmatchedAmount)
}

func TestTradeStore_InsertBulkDuplicate(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	require.NoError(t, NewAnalysisStore(pool).Insert(ctx, testAnalysis("run-1", "wallet-1", 1)))

	store := NewTradeStore(pool)
	trades := testTrades()
	require.NoError(t, store.InsertBulk(ctx, "run-1", trades[:1]))

	err := store.InsertBulk(ctx, "run-1", trades)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// the batch is rolled back
	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTradeStore_InsertBulkUnknownRun(t *testing.T) {
	pool := setupTestDB(t)

	err := NewTradeStore(pool).InsertBulk(context.Background(), "missing-run", testTrades())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
