package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxErrorBody caps how much of a non-200 body ends up in an error message.
const maxErrorBody = 256

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is an error object returned by the node. It is never retried.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// IsRPCError reports whether err is a JSON-RPC level error returned by the node.
func IsRPCError(err error) bool {
	var e *rpcError
	return errors.As(err, &e)
}

// attemptError is a failed HTTP round trip. retryAfter is set when the
// server asked for a specific pause.
type attemptError struct {
	err        error
	retryable  bool
	retryAfter time.Duration
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// backoff yields growing waits between attempts, capped at max.
type backoff struct {
	next time.Duration
	max  time.Duration
	mult float64
}

func (b *backoff) wait(hint time.Duration) time.Duration {
	d := b.next
	if hint > d {
		d = hint
	}
	if d > b.max {
		d = b.max
	}
	b.next = time.Duration(float64(b.next) * b.mult)
	if b.next > b.max {
		b.next = b.max
	}
	return d
}

func (c *HTTPClient) call(ctx context.Context, method string, params []any, result any) error {
	start := time.Now()
	err := c.roundTrips(ctx, method, params, result)
	if c.observer != nil {
		c.observer(method, time.Since(start), err)
	}
	return err
}

// roundTrips posts one request and retries transport failures, 429 and 5xx
// responses until maxRetries is exhausted.
func (c *HTTPClient) roundTrips(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	bo := &backoff{next: c.retryDelay, max: c.maxDelay, mult: c.backoffMult}
	var last *attemptError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if last != nil {
			timer := time.NewTimer(bo.wait(last.retryAfter))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: %w", method, ctx.Err())
			case <-timer.C:
			}
		}

		raw, aerr := c.post(ctx, body)
		if aerr != nil {
			if !aerr.retryable {
				return fmt.Errorf("%s: %w", method, aerr)
			}
			last = aerr
			continue
		}
		return decodeResult(method, raw, result)
	}
	return fmt.Errorf("%s: max retries exceeded: %w", method, last)
}

// post performs a single HTTP exchange and returns the raw response body.
func (c *HTTPClient) post(ctx context.Context, body []byte) ([]byte, *attemptError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &attemptError{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &attemptError{err: ctx.Err()}
		}
		return nil, &attemptError{err: fmt.Errorf("http request: %w", err), retryable: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &attemptError{err: fmt.Errorf("read response: %w", err), retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &attemptError{
			err:        errors.New("rate limited (429)"),
			retryable:  true,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, &attemptError{err: statusError(resp.StatusCode, raw), retryable: true}
	default:
		return nil, &attemptError{err: statusError(resp.StatusCode, raw)}
	}
}

func decodeResult(method string, raw []byte, result any) error {
	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%s: unmarshal result: %w", method, err)
	}
	return nil
}

func statusError(code int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Errorf("unexpected status %d: %s", code, bytes.TrimSpace(body))
}

// parseRetryAfter reads the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
