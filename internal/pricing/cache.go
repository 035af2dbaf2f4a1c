package pricing

import (
	"time"

	"github.com/patrickmn/go-cache"

	"solana-wallet-pnl/internal/domain"
)

// Cache keeps price quotes for a short TTL.
type Cache struct {
	c *cache.Cache
}

// NewCache creates a quote cache.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{c: cache.New(ttl, 2*ttl)}
}

// Get returns a cached quote for mint.
func (c *Cache) Get(mint string) (domain.PriceQuote, bool) {
	v, ok := c.c.Get(mint)
	if !ok {
		return domain.PriceQuote{}, false
	}
	q, ok := v.(domain.PriceQuote)
	return q, ok
}

// Set stores a quote under its mint.
func (c *Cache) Set(q domain.PriceQuote) {
	c.c.Set(q.Mint, q, cache.DefaultExpiration)
}

// Len returns the number of cached quotes, expired ones included.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}
