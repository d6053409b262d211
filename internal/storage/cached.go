package storage

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"billreminder/internal/cache"
	"billreminder/internal/core"
	"billreminder/internal/metrics"
)

// Cached keeps each owner's bill list in an LRU cache. Concurrent misses for
// the same owner share one query. Every write drops the owner's entry.
// Only stored fields are cached; reminder state is derived by callers.
//
// A load only populates the cache if no write for the owner happened while
// it was querying, tracked by a per-owner generation.
type Cached struct {
	Repository
	bills   *cache.LRUCache[[]core.Bill]
	group   singleflight.Group
	metrics *metrics.Metrics

	mu   sync.Mutex
	gens map[string]uint64
}

// NewCached wraps repo. The cache is returned so it can be registered with a
// cache.Manager.
func NewCached(repo Repository, size int, ttl time.Duration, m *metrics.Metrics) *Cached {
	return &Cached{
		Repository: repo,
		bills:      cache.NewLRUCache[[]core.Bill](size, ttl),
		metrics:    m,
		gens:       make(map[string]uint64),
	}
}

// Cache exposes the underlying LRU for cleanup registration.
func (c *Cached) Cache() *cache.LRUCache[[]core.Bill] {
	return c.bills
}

func (c *Cached) BillsByOwner(ctx context.Context, ownerID string) ([]core.Bill, error) {
	if bills, ok := c.bills.Get(ownerID); ok {
		c.metrics.CacheLookup(true)
		return clone(bills), nil
	}
	c.metrics.CacheLookup(false)

	v, err, _ := c.group.Do(ownerID, func() (any, error) {
		gen := c.generation(ownerID)
		bills, err := c.Repository.BillsByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		c.store(ownerID, gen, bills)
		return bills, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]core.Bill)), nil
}

func (c *Cached) Insert(ctx context.Context, b core.Bill) (core.Bill, error) {
	defer c.invalidate(b.OwnerID)
	return c.Repository.Insert(ctx, b)
}

func (c *Cached) Replace(ctx context.Context, b core.Bill) error {
	defer c.invalidate(b.OwnerID)
	return c.Repository.Replace(ctx, b)
}

func (c *Cached) Delete(ctx context.Context, ownerID string, id int64) error {
	defer c.invalidate(ownerID)
	return c.Repository.Delete(ctx, ownerID, id)
}

func (c *Cached) generation(ownerID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[ownerID]
}

// store caches bills unless the owner was written since gen was read.
func (c *Cached) store(ownerID string, gen uint64, bills []core.Bill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[ownerID] == gen {
		c.bills.Set(ownerID, bills)
	}
}

func (c *Cached) invalidate(ownerID string) {
	c.mu.Lock()
	c.gens[ownerID]++
	c.bills.Delete(ownerID)
	c.mu.Unlock()
	c.group.Forget(ownerID)
}

func clone(bills []core.Bill) []core.Bill {
	out := make([]core.Bill, len(bills))
	copy(out, bills)
	return out
}
