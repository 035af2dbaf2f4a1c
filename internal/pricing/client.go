// Package pricing fetches live USD token prices from a DexScreener-style API.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.dexscreener.com"
	DefaultTimeout    = 10 * time.Second
	DefaultChunkSize  = 30 // API limit of addresses per request
	DefaultChainID    = "solana"
	maxResponseLength = 8 << 20
)

// Client queries token pairs and reduces them to one quote per mint.
type Client struct {
	baseURL   string
	client    *http.Client
	chunkSize int
	chainID   string
	cache     *Cache
	logger    *zap.Logger
	now       func() time.Time
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithCache serves fresh quotes from cache and stores new ones in it.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithChunkSize sets the number of mints per request.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// NewClient creates a price client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: DefaultTimeout},
		chunkSize: DefaultChunkSize,
		chainID:   DefaultChainID,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokensResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

// Quotes returns a quote for every mint the API prices. For each mint the
// pair with the highest USD liquidity where the mint is the base token
// wins. A failed request drops its chunk; other chunks are still returned.
func (c *Client) Quotes(ctx context.Context, mints []string) map[string]domain.PriceQuote {
	out := make(map[string]domain.PriceQuote, len(mints))

	var pending []string
	seen := make(map[string]bool, len(mints))
	for _, mint := range mints {
		if mint == "" || seen[mint] {
			continue
		}
		seen[mint] = true
		if c.cache != nil {
			if q, ok := c.cache.Get(mint); ok {
				out[mint] = q
				continue
			}
		}
		pending = append(pending, mint)
	}

	for start := 0; start < len(pending); start += c.chunkSize {
		end := start + c.chunkSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		quotes, err := c.fetchChunk(ctx, chunk)
		if err != nil {
			c.logger.Warn("price fetch failed", zap.Int("mints", len(chunk)), zap.Error(err))
			continue
		}
		for mint, q := range quotes {
			out[mint] = q
			if c.cache != nil {
				c.cache.Set(q)
			}
		}
	}

	return out
}

func (c *Client) fetchChunk(ctx context.Context, mints []string) (map[string]domain.PriceQuote, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, strings.Join(mints, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var parsed tokensResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseLength)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	wanted := make(map[string]bool, len(mints))
	for _, m := range mints {
		wanted[m] = true
	}
	return c.selectQuotes(parsed.Pairs, wanted), nil
}

// selectQuotes keeps, per wanted base mint, the most liquid pair with a
// usable price.
func (c *Client) selectQuotes(pairs []pair, wanted map[string]bool) map[string]domain.PriceQuote {
	fetchedAt := c.now().UnixMilli()
	out := make(map[string]domain.PriceQuote)
	for _, p := range pairs {
		if c.chainID != "" && p.ChainID != "" && p.ChainID != c.chainID {
			continue
		}
		mint := p.BaseToken.Address
		if !wanted[mint] {
			continue
		}
		price, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil || price <= 0 {
			continue
		}
		if cur, ok := out[mint]; ok && cur.LiquidityUSD >= p.Liquidity.USD {
			continue
		}
		out[mint] = domain.PriceQuote{
			Mint:         mint,
			PriceUSD:     price,
			Change24h:    p.PriceChange.H24,
			LiquidityUSD: p.Liquidity.USD,
			FetchedAt:    fetchedAt,
		}
	}
	return out
}
