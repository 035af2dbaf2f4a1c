package metadata

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
	"solana-wallet-pnl/internal/solana/stub"
	"solana-wallet-pnl/internal/storage/memory"
)

const (
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	jupMint  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

func mintData(decimals uint8, supply uint64) []byte {
	data := make([]byte, mintAccountSize)
	binary.LittleEndian.PutUint64(data[36:44], supply)
	data[44] = decimals
	data[45] = 1 // initialized
	return data
}

func borsh(s string, size int) []byte {
	padded := make([]byte, size)
	copy(padded, s)
	out := make([]byte, 4, 4+size)
	binary.LittleEndian.PutUint32(out, uint32(size))
	return append(out, padded...)
}

func metaplexData(name, symbol string) []byte {
	data := make([]byte, 65)
	data[0] = metadataV1Key
	data = append(data, borsh(name, 32)...)
	data = append(data, borsh(symbol, 10)...)
	data = append(data, borsh("https://example.com/meta.json", 200)...)
	return data
}

func account(data []byte) *solana.AccountInfo {
	return &solana.AccountInfo{Data: base64.StdEncoding.EncodeToString(data)}
}

func TestMetadataPDA(t *testing.T) {
	pda, err := MetadataPDA(bonkMint)
	require.NoError(t, err)

	raw, err := base58.Decode(pda)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.False(t, isOnCurve(raw), "PDA must be off the ed25519 curve")

	again, err := MetadataPDA(bonkMint)
	require.NoError(t, err)
	assert.Equal(t, pda, again)

	other, err := MetadataPDA(jupMint)
	require.NoError(t, err)
	assert.NotEqual(t, pda, other)
}

func TestMetadataPDA_InvalidMint(t *testing.T) {
	_, err := MetadataPDA("not-base58-0OIl")
	assert.Error(t, err)

	_, err = MetadataPDA(base58.Encode([]byte("short")))
	assert.Error(t, err)
}

func TestDecodeMetaplex(t *testing.T) {
	name, symbol := decodeMetaplex(metaplexData("Bonk", "Bonk"))
	assert.Equal(t, "Bonk", name)
	assert.Equal(t, "Bonk", symbol)

	bad := metaplexData("Bonk", "Bonk")
	bad[0] = 1
	name, symbol = decodeMetaplex(bad)
	assert.Empty(t, name)
	assert.Empty(t, symbol)

	name, symbol = decodeMetaplex(metaplexData("Bonk", "Bonk")[:70])
	assert.Empty(t, name)
	assert.Empty(t, symbol)
}

func TestDecodeMint(t *testing.T) {
	decimals, supply, err := decodeMint(mintData(5, 88_000_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, 5, decimals)
	assert.Equal(t, uint64(88_000_000_000_000), supply)

	// Token-2022 mints carry extensions after the base layout
	ext := append(mintData(9, 1), make([]byte, 120)...)
	decimals, _, err = decodeMint(ext)
	require.NoError(t, err)
	assert.Equal(t, 9, decimals)

	_, _, err = decodeMint(make([]byte, 40))
	assert.Error(t, err)
}

func TestRPCSource_Fetch(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.AddAccount(bonkMint, account(mintData(5, 1_000)))
	pda, err := MetadataPDA(bonkMint)
	require.NoError(t, err)
	rpc.AddAccount(pda, account(metaplexData("Bonk", "BONK")))

	meta, err := NewRPCSource(rpc, nil).Fetch(context.Background(), bonkMint)
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, bonkMint, meta.Mint)
	assert.Equal(t, 5, meta.Decimals)
	require.NotNil(t, meta.Supply)
	assert.Equal(t, uint64(1_000), *meta.Supply)
	require.NotNil(t, meta.Symbol)
	assert.Equal(t, "BONK", *meta.Symbol)
	require.NotNil(t, meta.Name)
	assert.Equal(t, "Bonk", *meta.Name)
	assert.Positive(t, meta.FetchedAt)
}

func TestRPCSource_FetchWithoutMetaplex(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.AddAccount(bonkMint, account(mintData(6, 0)))

	meta, err := NewRPCSource(rpc, nil).Fetch(context.Background(), bonkMint)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 6, meta.Decimals)
	assert.Nil(t, meta.Symbol)
	assert.Equal(t, "DezX..B263", meta.DisplaySymbol())
}

func TestRPCSource_UnknownMint(t *testing.T) {
	meta, err := NewRPCSource(stub.NewRPCClient(), nil).Fetch(context.Background(), bonkMint)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestRPCSource_KnownMintsSkipRPC(t *testing.T) {
	rpc := stub.NewRPCClient()
	src := NewRPCSource(rpc, nil)

	for mint, want := range map[string]int{solana.WSOLMint: 9, solana.USDCMint: 6, solana.USDTMint: 6} {
		meta, err := src.Fetch(context.Background(), mint)
		require.NoError(t, err)
		assert.Equal(t, want, meta.Decimals, mint)
	}
	assert.Equal(t, 0, rpc.Calls("getAccountInfo"))
}

func TestCache_StoreBacked(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenMetadataStore()

	c, err := NewCache(time.Hour, store)
	require.NoError(t, err)
	defer c.Close()

	symbol := "BONK"
	meta := &domain.TokenMetadata{Mint: bonkMint, Symbol: &symbol, Decimals: 5, FetchedAt: time.Now().UnixMilli()}
	require.NoError(t, c.Put(ctx, meta))

	got, ok := c.Get(ctx, bonkMint)
	require.True(t, ok)
	assert.Equal(t, 5, got.Decimals)

	stored, err := store.GetByMint(ctx, bonkMint)
	require.NoError(t, err)
	assert.Equal(t, "BONK", *stored.Symbol)

	// a fresh cache warms from the store
	fresh, err := NewCache(time.Hour, store)
	require.NoError(t, err)
	defer fresh.Close()
	got, ok = fresh.Get(ctx, bonkMint)
	require.True(t, ok)
	assert.Equal(t, bonkMint, got.Mint)
}

func TestCache_StaleStoreEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenMetadataStore()
	require.NoError(t, store.Upsert(ctx, &domain.TokenMetadata{
		Mint:      bonkMint,
		Decimals:  5,
		FetchedAt: time.Now().Add(-2 * time.Hour).UnixMilli(),
	}))

	c, err := NewCache(time.Hour, store)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(ctx, bonkMint)
	assert.False(t, ok)
}

type countingSource struct {
	metas map[string]*domain.TokenMetadata
	errs  map[string]error
	calls atomic.Int32
}

func (s *countingSource) Fetch(_ context.Context, mint string) (*domain.TokenMetadata, error) {
	s.calls.Add(1)
	if err := s.errs[mint]; err != nil {
		return nil, err
	}
	return s.metas[mint], nil
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{
		metas: map[string]*domain.TokenMetadata{
			bonkMint: {Mint: bonkMint, Decimals: 5, FetchedAt: time.Now().UnixMilli()},
		},
		errs: map[string]error{"broken": errors.New("rpc down")},
	}

	c, err := NewCache(time.Hour, nil)
	require.NoError(t, err)
	defer c.Close()

	mints := []string{bonkMint, solana.USDCMint, "broken", "missing", bonkMint}
	out := FetchAll(ctx, src, mints, c, FetchOptions{BatchSize: 2, BatchDelay: time.Microsecond})

	assert.Len(t, out, 2)
	assert.Equal(t, 5, out[bonkMint].Decimals)
	assert.Equal(t, 6, out[solana.USDCMint].Decimals)
	assert.NotContains(t, out, "broken")
	assert.NotContains(t, out, "missing")
	assert.Equal(t, int32(3), src.calls.Load())

	// second pass is served from the cache
	out = FetchAll(ctx, src, []string{bonkMint}, c, FetchOptions{BatchDelay: time.Microsecond})
	assert.Len(t, out, 1)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestFetchAll_DeadlinePassed(t *testing.T) {
	src := &countingSource{metas: map[string]*domain.TokenMetadata{bonkMint: {Mint: bonkMint}}}

	out := FetchAll(context.Background(), src, []string{bonkMint, solana.WSOLMint}, nil,
		FetchOptions{Deadline: time.Now().Add(-time.Second)})

	assert.Len(t, out, 1, "known mints resolve without RPC")
	assert.Contains(t, out, solana.WSOLMint)
	assert.Equal(t, int32(0), src.calls.Load())
}
