package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-pnl/internal/classify"
	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/ingestion"
	"solana-wallet-pnl/internal/metadata"
	"solana-wallet-pnl/internal/solana"
	"solana-wallet-pnl/internal/solana/stub"
	"solana-wallet-pnl/internal/storage/memory"
)

const (
	owner    = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	jupMint  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	solLam   = uint64(solana.LamportsPerSOL)
	t0       = int64(1_700_000_000)
)

type fakePrices map[string]domain.PriceQuote

func (f fakePrices) Quotes(_ context.Context, mints []string) map[string]domain.PriceQuote {
	out := make(map[string]domain.PriceQuote)
	for _, m := range mints {
		if q, ok := f[m]; ok {
			out[m] = q
		}
	}
	return out
}

func f64(v float64) *float64 { return &v }

func sigInfo(sig string, blockTime int64, failed bool) solana.SignatureInfo {
	bt := blockTime
	info := solana.SignatureInfo{Signature: sig, Slot: blockTime, BlockTime: &bt}
	if failed {
		info.Err = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	}
	return info
}

func tokenAccount(t *testing.T, mint string, amount uint64) solana.TokenAccount {
	t.Helper()
	mintBytes, err := base58.Decode(mint)
	require.NoError(t, err)
	ownerBytes, err := base58.Decode(owner)
	require.NoError(t, err)

	data := make([]byte, 165)
	copy(data[0:32], mintBytes)
	copy(data[32:64], ownerBytes)
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1
	return solana.TokenAccount{Pubkey: "ata-" + mint, ProgramID: solana.TokenProgramID, Data: data}
}

func mintAccount(decimals uint8) *solana.AccountInfo {
	data := make([]byte, 82)
	data[44] = decimals
	data[45] = 1
	return &solana.AccountInfo{Data: base64.StdEncoding.EncodeToString(data)}
}

// walletFixture: a bonk round trip for 200%, one non-DEX transfer, one
// failed transaction, and current holdings of 2 SOL and 50 JUP.
func walletFixture(t *testing.T) *stub.RPCClient {
	rpc := stub.NewRPCClient()

	rpc.AddTransaction(stub.NewTx("buy1", t0, owner).
		Program(classify.RaydiumAMMV4).
		Fee(5000).
		SOL(1*solLam, 1*solLam-100_000_000-5000).
		Token(bonkMint, owner, 6, 0, 100_000_000).
		Build())
	rpc.AddTransaction(stub.NewTx("transfer1", t0+50, owner).
		Token(jupMint, owner, 6, 0, 50_000_000).
		SOL(solLam, solLam-5000).
		Build())
	rpc.AddTransaction(stub.NewTx("sell1", t0+100, owner).
		Program(classify.RaydiumAMMV4).
		Fee(5000).
		SOL(1*solLam, 1*solLam+300_000_000-5000).
		Token(bonkMint, owner, 6, 100_000_000, 0).
		Build())

	rpc.AddSignatures(owner, []solana.SignatureInfo{
		sigInfo("sell1", t0+100, false),
		sigInfo("failed1", t0+75, true),
		sigInfo("transfer1", t0+50, false),
		sigInfo("buy1", t0, false),
	})

	rpc.Balances[owner] = 2 * solLam
	rpc.AddTokenAccount(owner, tokenAccount(t, jupMint, 50_000_000))
	rpc.AddAccount(jupMint, mintAccount(6))
	return rpc
}

func testOptions() Options {
	return Options{
		Paginator: ingestion.PaginatorOptions{PageDelay: time.Microsecond},
		Fetcher:   ingestion.FetcherOptions{BatchDelay: time.Microsecond},
		Metadata:  metadata.FetchOptions{BatchDelay: time.Microsecond},
	}
}

func testPrices() fakePrices {
	return fakePrices{
		solana.WSOLMint: {Mint: solana.WSOLMint, PriceUSD: 150, Change24h: f64(1.5)},
		jupMint:         {Mint: jupMint, PriceUSD: 2, Change24h: f64(60)},
	}
}

func TestAnalyzeWallet(t *testing.T) {
	rpc := walletFixture(t)
	a := New(rpc, testPrices(), testOptions())

	res, err := a.AnalyzeWallet(context.Background(), owner, time.Time{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, owner, res.Wallet)
	assert.False(t, res.IsPartialResult)
	assert.Equal(t, 4, res.TotalSignatures)
	assert.Equal(t, 4, res.ProcessedTransactions)
	assert.Equal(t, 2, res.SwapTransactions)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 3, rpc.Calls("getTransaction"), "failed signatures are not fetched")

	require.Len(t, res.Trades, 2)
	buy, sell := res.Trades[0], res.Trades[1]
	assert.Equal(t, domain.TradeBuy, buy.Type)
	assert.Equal(t, domain.TradeSell, sell.Type)
	assert.Equal(t, "raydium_amm_v4", sell.Program)
	require.NotNil(t, sell.PnLPercent)
	pct, _ := sell.PnLPercent.Float64()
	assert.InDelta(t, 200, pct, 1e-9)

	assert.Equal(t, 1, res.Stats.Wins)
	assert.Equal(t, 100.0, res.Stats.WinRate)
	total, _ := res.Stats.TotalPnLSol.Float64()
	assert.InDelta(t, 0.2, total, 1e-9)

	op := res.OpenPositions
	assert.Equal(t, 2, op.TotalCount)
	assert.InDelta(t, 400, op.TotalValueUSD, 1e-9)
	require.Len(t, op.Positions, 2)
	assert.Equal(t, solana.WSOLMint, op.Positions[0].Mint)
	assert.Equal(t, "SOL", op.Positions[0].Symbol)
	assert.Equal(t, jupMint, op.Positions[1].Mint)
	assert.Equal(t, domain.CategoryUnknownEntry, op.Positions[1].Category)
}

func TestAnalyzeWallet_Archive(t *testing.T) {
	ctx := context.Background()
	archive := &Archive{
		Analyses:  memory.NewAnalysisStore(),
		Trades:    memory.NewTradeStore(),
		Snapshots: memory.NewSnapshotStore(),
	}
	opts := testOptions()
	opts.Archive = archive

	res, err := New(walletFixture(t), testPrices(), opts).AnalyzeWallet(ctx, owner, time.Time{})
	require.NoError(t, err)

	stored, err := archive.Analyses.GetByID(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Stats.Wins, stored.Stats.Wins)

	trades, err := archive.Trades.GetByRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	snaps, err := archive.Snapshots.GetByWallet(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestAnalyzeWallet_InvalidAddress(t *testing.T) {
	rpc := stub.NewRPCClient()
	_, err := New(rpc, nil, testOptions()).AnalyzeWallet(context.Background(), "not-a-wallet", time.Time{})

	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Equal(t, 0, rpc.Calls("getSignaturesForAddress"))
}

func TestAnalyzeWallet_FirstPageFailureIsFatal(t *testing.T) {
	rpc := walletFixture(t)
	rpc.SignaturesErr = errors.New("connection refused")

	res, err := New(rpc, testPrices(), testOptions()).AnalyzeWallet(context.Background(), owner, time.Time{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, rpc.SignaturesErr)
}

func TestAnalyzeWallet_LaterPageFailureIsPartial(t *testing.T) {
	rpc := walletFixture(t)
	rpc.SignaturesErr = errors.New("connection reset")
	rpc.SignaturesOKPages = 1

	opts := testOptions()
	opts.Paginator.PageSize = 2

	res, err := New(rpc, testPrices(), opts).AnalyzeWallet(context.Background(), owner, time.Time{})
	require.NoError(t, err)

	assert.True(t, res.IsPartialResult)
	assert.Equal(t, 2, res.TotalSignatures)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "signature history incomplete")

	// only the newest page arrived: a sell without lots
	require.Len(t, res.Trades, 1)
	assert.Nil(t, res.Trades[0].PnLPercent)
	assert.Equal(t, 1, res.Stats.UnmatchedSells)
}

func TestAnalyzeWallet_DeadlinePassed(t *testing.T) {
	rpc := walletFixture(t)

	res, err := New(rpc, testPrices(), testOptions()).
		AnalyzeWallet(context.Background(), owner, time.Now().Add(-time.Second))
	require.NoError(t, err)

	assert.True(t, res.IsPartialResult)
	assert.True(t, res.SignaturesTruncated)
	assert.Empty(t, res.Trades)
	assert.NotNil(t, res.OpenPositions.Positions)
	assert.Equal(t, 0, rpc.Calls("getBalance"))

	joined := strings.Join(res.Warnings, "\n")
	assert.Contains(t, joined, "open positions skipped")
}

func TestAnalyzeWallet_HoldingsFailureKeepsHistory(t *testing.T) {
	rpc := walletFixture(t)
	rpc.BalanceErr = errors.New("rpc overloaded")

	res, err := New(rpc, testPrices(), testOptions()).AnalyzeWallet(context.Background(), owner, time.Time{})
	require.NoError(t, err)

	assert.Len(t, res.Trades, 2)
	assert.Equal(t, 0, res.OpenPositions.TotalCount)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "open positions unavailable")
}
