// Package watch re-analyzes a wallet whenever its on-chain activity is
// reported over a websocket log subscription.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/observability"
	"solana-wallet-pnl/internal/solana"
)

// ErrSubscriptionClosed is returned by Run when the notification channel closes.
var ErrSubscriptionClosed = errors.New("log subscription closed")

// Analyzer runs one wallet analysis.
type Analyzer interface {
	AnalyzeWallet(ctx context.Context, address string, deadline time.Time) (*domain.Analysis, error)
}

// Options contains configuration for creating a Watcher.
type Options struct {
	Debounce       time.Duration // Default: 10s - window that coalesces notifications
	Timeout        time.Duration // Default: 25s - budget per analysis
	AnalyzeOnStart bool
	OnResult       func(*domain.Analysis)
	Logger         *zap.Logger
	Metrics        *observability.Metrics // optional
	Now            func() time.Time
}

// Status is a snapshot of the watcher's progress.
type Status struct {
	Wallet        string    `json:"wallet"`
	Runs          int       `json:"runs"`
	Failures      int       `json:"failures"`
	Notifications int       `json:"notifications"`
	LastRunAt     time.Time `json:"lastRunAt"`
	LastError     string    `json:"lastError,omitempty"`
	Pending       bool      `json:"pending"`
}

// Watcher subscribes to logs mentioning a wallet and re-runs the analysis
// once per debounce window after activity.
type Watcher struct {
	ws       solana.WSClient
	analyzer Analyzer
	wallet   string
	opts     Options

	mu     sync.RWMutex
	latest *domain.Analysis
	status Status
}

// New creates a watcher for wallet.
func New(ws solana.WSClient, analyzer Analyzer, wallet string, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Watcher{
		ws:       ws,
		analyzer: analyzer,
		wallet:   wallet,
		opts:     opts,
		status:   Status{Wallet: wallet},
	}
}

// Run blocks until ctx is cancelled or the subscription closes.
// Notifications of failed transactions are counted but never trigger a run.
// The first notification after a run opens a debounce window; everything
// arriving inside it is folded into a single analysis when it ends.
func (w *Watcher) Run(ctx context.Context) error {
	notes, err := w.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{w.wallet}})
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}
	w.opts.Logger.Info("watching wallet", zap.String("wallet", w.wallet), zap.Duration("debounce", w.opts.Debounce))

	if w.opts.AnalyzeOnStart {
		w.analyze(ctx)
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n, ok := <-notes:
			if !ok {
				return ErrSubscriptionClosed
			}
			w.opts.Metrics.RecordNotification()
			w.mu.Lock()
			w.status.Notifications++
			w.mu.Unlock()

			if n.Failed() {
				continue
			}
			w.opts.Logger.Debug("wallet activity", zap.String("signature", n.Signature), zap.Int64("slot", n.Slot))
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
				w.setPending(true)
			}

		case <-timerC:
			timer, timerC = nil, nil
			w.setPending(false)
			w.analyze(ctx)
		}
	}
}

func (w *Watcher) setPending(p bool) {
	w.mu.Lock()
	w.status.Pending = p
	w.mu.Unlock()
}

func (w *Watcher) analyze(ctx context.Context) {
	started := w.opts.Now()
	res, err := w.analyzer.AnalyzeWallet(ctx, w.wallet, started.Add(w.opts.Timeout))

	w.mu.Lock()
	w.status.Runs++
	w.status.LastRunAt = started
	if err != nil {
		w.status.Failures++
		w.status.LastError = err.Error()
	} else {
		w.status.LastError = ""
		w.latest = res
	}
	w.mu.Unlock()

	if err != nil {
		w.opts.Logger.Warn("analysis failed", zap.String("wallet", w.wallet), zap.Error(err))
		return
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
}

// Latest returns the most recent successful analysis, or nil.
func (w *Watcher) Latest() *domain.Analysis {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

// Status returns a snapshot of the watcher's progress.
func (w *Watcher) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}
