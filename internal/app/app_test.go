package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-wallet-pnl/internal/config"
)

const wallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

// upstream answers the JSON-RPC methods of an empty wallet and the price API.
func upstream(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()
	calls := &sync.Map{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/latest/dex/tokens/") {
			calls.Store("prices", true)
			_, _ = w.Write([]byte(`{"pairs":null}`))
			return
		}

		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		calls.Store(req.Method, true)

		var result interface{}
		switch req.Method {
		case "getSignaturesForAddress":
			result = []interface{}{}
		case "getBalance":
			result = map[string]interface{}{"context": map[string]int{"slot": 1}, "value": 0}
		case "getTokenAccountsByOwner":
			result = map[string]interface{}{"context": map[string]int{"slot": 1}, "value": []interface{}{}}
		default:
			result = nil
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestBuild_InMemory(t *testing.T) {
	srv, calls := upstream(t)

	cfg, err := config.FromMap(map[string]string{
		"SOLANA_RPC_URL": srv.URL,
		"PRICE_API_URL":  srv.URL,
		"PAGE_DELAY":     "1ms",
		"BATCH_DELAY":    "1ms",
	})
	require.NoError(t, err)

	stack, err := Build(context.Background(), cfg, Options{Archive: true, Logger: zap.NewNop()})
	require.NoError(t, err)
	defer stack.Close()

	assert.Nil(t, stack.Generator, "no analysis store without POSTGRES_DSN")
	require.NotNil(t, stack.Analyzer)

	a, err := stack.Analyzer.AnalyzeWallet(context.Background(), wallet, time.Now().Add(20*time.Second))
	require.NoError(t, err)

	assert.Equal(t, wallet, a.Wallet)
	assert.Empty(t, a.Trades)
	assert.False(t, a.IsPartialResult)
	assert.Zero(t, a.TotalSignatures)

	_, paged := calls.Load("getSignaturesForAddress")
	assert.True(t, paged)
	_, balances := calls.Load("getTokenAccountsByOwner")
	assert.True(t, balances)
}

func TestBuild_BadPostgres(t *testing.T) {
	cfg, err := config.FromMap(map[string]string{
		"POSTGRES_DSN": "postgres://%zz",
	})
	require.NoError(t, err)

	_, err = Build(context.Background(), cfg, Options{})
	assert.Error(t, err)
}

func TestStack_CloseIdempotent(t *testing.T) {
	var order []int
	s := &Stack{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}
	s.Close()
	s.Close()
	assert.Equal(t, []int{2, 1}, order)
}
