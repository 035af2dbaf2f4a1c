package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/storage"
)

// Cache holds token metadata in memory with a TTL. When a store is
// attached it is read on a miss and written on every Put.
type Cache struct {
	c     *ristretto.Cache
	ttl   time.Duration
	store storage.TokenMetadataStore
}

// NewCache creates a metadata cache. store may be nil.
func NewCache(ttl time.Duration, store storage.TokenMetadataStore) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1e4,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{c: c, ttl: ttl, store: store}, nil
}

// Get returns cached metadata for mint.
func (c *Cache) Get(ctx context.Context, mint string) (*domain.TokenMetadata, bool) {
	if v, ok := c.c.Get(mint); ok {
		if meta, ok := v.(*domain.TokenMetadata); ok {
			return meta, true
		}
	}
	if c.store == nil {
		return nil, false
	}

	meta, err := c.store.GetByMint(ctx, mint)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && meta.FetchedAt > 0 && time.Since(time.UnixMilli(meta.FetchedAt)) > c.ttl {
		return nil, false
	}
	c.set(meta)
	return meta, true
}

// Put stores metadata in memory and, if attached, in the store.
func (c *Cache) Put(ctx context.Context, meta *domain.TokenMetadata) error {
	if meta == nil {
		return nil
	}
	c.set(meta)
	if c.store == nil {
		return nil
	}
	if err := c.store.Upsert(ctx, meta); err != nil && !errors.Is(err, storage.ErrInvalidInput) {
		return fmt.Errorf("persist metadata %s: %w", meta.Mint, err)
	}
	return nil
}

func (c *Cache) set(meta *domain.TokenMetadata) {
	if c.ttl > 0 {
		c.c.SetWithTTL(meta.Mint, meta, 1, c.ttl)
	} else {
		c.c.Set(meta.Mint, meta, 1)
	}
	c.c.Wait()
}

// Close releases the cache.
func (c *Cache) Close() {
	c.c.Close()
}
