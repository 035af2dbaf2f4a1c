// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-wallet-pnl/internal/solana"
)

// Analysis outcomes.
const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
	OutcomeInvalid  = "invalid_address"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// RPC metrics
	RPCRequests *prometheus.CounterVec
	RPCLatency  *prometheus.HistogramVec

	// Analysis metrics
	AnalysesTotal       *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	PartialResults      prometheus.Counter
	TradesParsed        *prometheus.CounterVec
	UnmatchedSells      prometheus.Counter
	TransactionsSkipped *prometheus.CounterVec

	// Watch metrics
	WSNotifications prometheus.Counter
	WSReconnects    prometheus.Counter

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "walletpnl"
	}
	f := promauto.With(reg)

	return &Metrics{
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_requests_total",
			Help:      "Total number of Solana RPC requests by method and status",
		}, []string{"method", "status"}),
		RPCLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "analyses_total",
			Help:      "Total number of wallet analyses by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "analysis_duration_seconds",
			Help:      "Wallet analysis duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 15, 20, 25, 30, 60},
		}),
		PartialResults: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "partial_results_total",
			Help:      "Total number of analyses cut short by the deadline or the signature cap",
		}),
		TradesParsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "trades_parsed_total",
			Help:      "Total number of trades parsed by type",
		}, []string{"type"}),
		UnmatchedSells: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "unmatched_sells_total",
			Help:      "Total number of sells exceeding the recorded lots",
		}),
		TransactionsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "transactions_skipped_total",
			Help:      "Total number of fetched transactions not turned into trades, by reason",
		}, []string{"reason"}),

		WSNotifications: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "ws_notifications_total",
			Help:      "Total number of websocket log notifications received",
		}),
		WSReconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "ws_reconnects_total",
			Help:      "Total number of websocket reconnects",
		}),

		LastSuccessfulAnalysis: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRPC records one RPC call. Its signature matches solana.CallObserver.
func (m *Metrics) ObserveRPC(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case solana.IsRPCError(err):
		status = "rpc_error"
	case err != nil:
		status = "error"
	}
	m.RPCRequests.WithLabelValues(method, status).Inc()
	m.RPCLatency.WithLabelValues(method).Observe(d.Seconds())
}

// RecordAnalysis records a finished analysis.
func (m *Metrics) RecordAnalysis(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
	switch outcome {
	case OutcomePartial:
		m.PartialResults.Inc()
		m.LastSuccessfulAnalysis.SetToCurrentTime()
	case OutcomeComplete:
		m.LastSuccessfulAnalysis.SetToCurrentTime()
	}
}

// RecordTrade counts a parsed trade by type.
func (m *Metrics) RecordTrade(tradeType string) {
	if m == nil {
		return
	}
	m.TradesParsed.WithLabelValues(tradeType).Inc()
}

// RecordUnmatchedSells adds n unmatched sells.
func (m *Metrics) RecordUnmatchedSells(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UnmatchedSells.Add(float64(n))
}

// RecordSkipped counts a transaction that produced no trade.
func (m *Metrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.TransactionsSkipped.WithLabelValues(reason).Inc()
}

// RecordNotification counts a websocket notification.
func (m *Metrics) RecordNotification() {
	if m == nil {
		return
	}
	m.WSNotifications.Inc()
}

// RecordReconnect counts a websocket reconnect.
func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.WSReconnects.Inc()
}
