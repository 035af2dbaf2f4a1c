package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrClientClosed is returned by calls on a closed websocket client.
var ErrClientClosed = errors.New("websocket client closed")

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	ReconnectDelay    time.Duration // initial delay before a reconnect attempt
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	SubscribeTimeout  time.Duration
	BufferSize        int // per-subscription channel buffer

	Logger *zap.Logger
	// OnReconnect is called after a successful reconnect and resubscribe.
	OnReconnect func()
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
		BufferSize:        256,
	}
}

// subscription is one logical subscription that survives reconnects.
type subscription struct {
	filter LogsFilter
	ch     chan LogNotification
}

// pendingSub is registered by the read loop as soon as the confirmation
// arrives, so notifications that follow it are never missed.
type pendingSub struct {
	sub *subscription
	id  chan int64
}

// WSClientImpl implements WSClient using gorilla/websocket. One supervisor
// goroutine owns the read side of the connection and redials it after
// failures; logical subscriptions outlive any single connection.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps the current server subscription ID to its logical subscription.
	subs   map[int64]*subscription
	subsMu sync.RWMutex

	// pending maps request ID to a subscription awaiting its server ID.
	pending   map[uint64]*pendingSub
	pendingMu sync.Mutex

	dropped    atomic.Uint64
	reconnects atomic.Uint64

	done chan struct{}
	wg   sync.WaitGroup
}

var _ WSClient = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	def := DefaultWSConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = def.SubscribeTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = cfg.ReconnectDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.With(zap.String("component", "ws")),
		subs:     make(map[int64]*subscription),
		pending:  make(map[uint64]*pendingSub),
		done:     make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.setConn(conn)

	c.wg.Add(2)
	go c.supervise(conn)
	go c.pingLoop()

	return c, nil
}

func (c *WSClientImpl) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

// setConn installs conn as the write side. It reports false, closing conn,
// when the client was closed in the meantime.
func (c *WSClientImpl) setConn(conn *websocket.Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		conn.Close()
		return false
	}
	if c.conn != nil && c.conn != conn {
		c.conn.Close()
	}
	c.conn = conn
	return true
}

// SubscribeLogs subscribes to logs matching the filter. Notifications are
// delivered best effort: when the buffer is full the newest message is dropped.
func (c *WSClientImpl) SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	sub := &subscription{filter: filter, ch: make(chan LogNotification, c.config.BufferSize)}
	subID, err := c.subscribe(ctx, sub)
	if err != nil {
		return nil, err
	}

	c.logger.Info("subscribed to logs",
		zap.Int64("subscription", subID),
		zap.Strings("mentions", filter.Mentions))
	return sub.ch, nil
}

// Dropped returns the number of notifications dropped on full buffers.
func (c *WSClientImpl) Dropped() uint64 {
	return c.dropped.Load()
}

// subscribe sends logsSubscribe and waits until the read loop has registered
// sub under the returned subscription ID.
func (c *WSClientImpl) subscribe(ctx context.Context, sub *subscription) (int64, error) {
	reqID := c.requestID.Add(1)

	var target any = "all"
	if len(sub.filter.Mentions) > 0 {
		target = map[string]any{"mentions": sub.filter.Mentions}
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []any{
			target,
			map[string]string{"commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = &pendingSub{sub: sub, id: confirmCh}
	c.pendingMu.Unlock()

	forget := func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}

	if err := c.writeJSON(req); err != nil {
		forget()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case subID, ok := <-confirmCh:
		if !ok {
			return 0, ErrClientClosed
		}
		return subID, nil
	case <-timer.C:
		forget()
		return 0, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, ErrClientClosed
	case <-ctx.Done():
		forget()
		return 0, ctx.Err()
	}
}

func (c *WSClientImpl) writeJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingMu.Lock()
	for id, p := range c.pending {
		close(p.id)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	return nil
}

// supervise reads from conn until it fails, then redials with backoff and
// restores every subscription on the new connection.
func (c *WSClientImpl) supervise(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		err := c.readConn(conn)
		if c.closed.Load() {
			return
		}
		c.logger.Warn("websocket read failed", zap.Error(err))

		if conn = c.redial(); conn == nil {
			return
		}
		c.reconnects.Add(1)

		// Confirmations arrive through readConn, so resubscribing runs beside it.
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.resubscribeAll()
			if c.config.OnReconnect != nil && !c.closed.Load() {
				c.config.OnReconnect()
			}
		}()
	}
}

func (c *WSClientImpl) readConn(conn *websocket.Conn) error {
	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleMessage(message)
	}
}

// redial drops the broken connection and dials until it succeeds or the
// client closes, in which case it returns nil.
func (c *WSClientImpl) redial() *websocket.Conn {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	bo := &backoff{next: c.config.ReconnectDelay, max: c.config.MaxReconnectDelay, mult: 2}
	for {
		wait := bo.wait(0)
		if !c.sleep(wait) {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SubscribeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("websocket reconnect failed", zap.Error(err), zap.Duration("waited", wait))
			continue
		}
		if !c.setConn(conn) {
			return nil
		}
		c.logger.Info("websocket reconnected")
		return conn
	}
}

// Reconnects returns how many times the connection was re-established.
func (c *WSClientImpl) Reconnects() uint64 {
	return c.reconnects.Load()
}

// sleep waits d and reports false if the client closed meanwhile.
func (c *WSClientImpl) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.done:
		return false
	case <-t.C:
		return true
	}
}

// resubscribeAll re-registers every logical subscription under its new server ID.
func (c *WSClientImpl) resubscribeAll() {
	c.subsMu.RLock()
	old := make(map[int64]*subscription, len(c.subs))
	for id, sub := range c.subs {
		old[id] = sub
	}
	c.subsMu.RUnlock()

	for oldID, sub := range old {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SubscribeTimeout)
		newID, err := c.subscribe(ctx, sub)
		cancel()
		if err != nil {
			c.logger.Warn("resubscribe failed", zap.Int64("subscription", oldID), zap.Error(err))
			continue
		}
		if newID != oldID {
			c.subsMu.Lock()
			if c.subs[oldID] == sub {
				delete(c.subs, oldID)
			}
			c.subsMu.Unlock()
		}
	}
}

func (c *WSClientImpl) handleMessage(message []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Debug("undecodable websocket message", zap.Error(err))
		return
	}

	switch {
	case env.Method == "logsNotification":
		var params wsNotificationParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.logger.Debug("bad logs notification", zap.Error(err))
			return
		}
		c.dispatch(&params)
	case env.Error != nil:
		c.logger.Warn("websocket error response",
			zap.Uint64("id", env.ID),
			zap.Int("code", env.Error.Code),
			zap.String("message", env.Error.Message))
	case env.ID != 0 && len(env.Result) > 0:
		var subID int64
		if err := json.Unmarshal(env.Result, &subID); err != nil {
			return
		}
		c.pendingMu.Lock()
		p, ok := c.pending[env.ID]
		delete(c.pending, env.ID)
		c.pendingMu.Unlock()
		if ok {
			c.subsMu.Lock()
			c.subs[subID] = p.sub
			c.subsMu.Unlock()
			p.id <- subID
		}
	}
}

func (c *WSClientImpl) dispatch(params *wsNotificationParams) {
	n := LogNotification{
		Signature: params.Result.Value.Signature,
		Logs:      params.Result.Value.Logs,
		Err:       params.Result.Value.Err,
	}
	if params.Result.Context != nil {
		n.Slot = params.Result.Context.Slot
	}

	c.subsMu.RLock()
	sub, ok := c.subs[params.Subscription]
	if ok {
		select {
		case sub.ch <- n:
		default:
			c.dropped.Add(1)
		}
	}
	c.subsMu.RUnlock()
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

type wsEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Params  json.RawMessage `json:"params"`
	Error   *rpcError       `json:"error"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string   `json:"signature"`
	Logs      []string `json:"logs"`
	Err       any      `json:"err"`
}
