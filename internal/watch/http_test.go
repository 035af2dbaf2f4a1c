package watch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-pnl/internal/solana"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMux_BeforeFirstRun(t *testing.T) {
	w := New(newFakeWS(), newFakeAnalyzer(), wallet, Options{})
	mux := NewMux(w, nil, time.Now())

	rec := get(t, mux, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = get(t, mux, "/report")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, mux, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics handler not mounted")

	rec = get(t, mux, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, wallet, resp.Watcher.Wallet)
	assert.Nil(t, resp.Latest)
}

func TestMux_AfterRun(t *testing.T) {
	ws := newFakeWS()
	a := newFakeAnalyzer()
	w := New(ws, a, wallet, Options{Debounce: 10 * time.Millisecond})
	runWatcher(t, w)

	ws.ch <- solana.LogNotification{Signature: "sig1"}
	waitRun(t, a)
	require.Eventually(t, func() bool { return w.Latest() != nil }, time.Second, 5*time.Millisecond)

	metrics := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("walletpnl_up 1\n"))
	})
	mux := NewMux(w, metrics, time.Now().Add(-time.Minute))

	rec := get(t, mux, "/status?full=1")
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Watcher.Runs)
	assert.Equal(t, 1, resp.Watcher.Notifications)
	require.NotNil(t, resp.Latest)
	assert.Equal(t, "a", resp.Latest.RunID)
	assert.True(t, strings.HasPrefix(resp.Uptime, "1m"))

	rec = get(t, mux, "/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Wallet Report: "+wallet)

	rec = get(t, mux, "/metrics")
	assert.Contains(t, rec.Body.String(), "walletpnl_up 1")
}
