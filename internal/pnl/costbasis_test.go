package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-pnl/internal/domain"
)

func TestComputeCostBasis_RemainingLots(t *testing.T) {
	trades := []*domain.Trade{
		buy("b2", 200, "20", "10"),
		buy("b1", 100, "10", "10"),
		sell("s", 300, "30", "15"),
	}

	basis := ComputeCostBasis(trades)

	cb, ok := basis[mint]
	require.True(t, ok)
	assert.True(t, cb.RemainingAmount.Equal(d("5")))
	assert.True(t, cb.RemainingCost.Equal(d("10")))
	assert.Equal(t, int64(200), cb.EarliestLotTime)

	avg, ok := cb.AvgEntryPrice()
	require.True(t, ok)
	assert.True(t, avg.Equal(d("2")))

	// input untouched
	assert.Equal(t, "b2", trades[0].Signature)
	assert.Nil(t, trades[2].PnLSol)
}

func TestComputeCostBasis_FullyClosed(t *testing.T) {
	trades := []*domain.Trade{
		buy("b", 100, "1", "10"),
		sell("s", 200, "2", "10"),
	}

	assert.Empty(t, ComputeCostBasis(trades))
}

func TestCostBasis_AvgEntryPriceEmpty(t *testing.T) {
	_, ok := CostBasis{}.AvgEntryPrice()
	assert.False(t, ok)
}

func TestComputeCostBasis_StablecoinLotsHaveNoSOLCost(t *testing.T) {
	trades := []*domain.Trade{
		buy("b1", 100, "1", "10"),
		stableTrade("b2", 200, domain.TradeBuy, "-150", "10"),
	}

	cb, ok := ComputeCostBasis(trades)[mint]
	require.True(t, ok)
	assert.True(t, cb.NonSOLBase)
	assert.True(t, cb.RemainingAmount.Equal(d("20")))
	assert.True(t, cb.RemainingCost.IsZero())
	assert.Equal(t, int64(100), cb.EarliestLotTime)

	_, ok = cb.AvgEntryPrice()
	assert.False(t, ok)
}
