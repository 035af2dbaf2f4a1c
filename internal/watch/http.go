package watch

import (
	"encoding/json"
	"net/http"
	"time"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/reporting"
)

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status  string           `json:"status"`
	Uptime  string           `json:"uptime"`
	Watcher Status           `json:"watcher"`
	Latest  *domain.Analysis `json:"latest,omitempty"`
}

// NewMux serves /health, /status, /report and, when metrics is non-nil, /metrics.
func NewMux(w *Watcher, metrics http.Handler, started time.Time) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	mux.HandleFunc("/status", func(rw http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Status:  "running",
			Uptime:  time.Since(started).Truncate(time.Second).String(),
			Watcher: w.Status(),
		}
		if r.URL.Query().Get("full") == "1" {
			resp.Latest = w.Latest()
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	})

	// Markdown of the latest result
	mux.HandleFunc("/report", func(rw http.ResponseWriter, _ *http.Request) {
		a := w.Latest()
		if a == nil {
			http.Error(rw, "no analysis yet", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = rw.Write([]byte(reporting.RenderMarkdown(a)))
	})

	return mux
}
