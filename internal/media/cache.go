package media

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultCacheTTL = 5 * time.Minute

// Cache memoizes probe results per source for a TTL. A failed re-probe
// returns the stale entry when there is one.
type Cache struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	meta    *Metadata
	fetched time.Time
}

func NewCache(prober Prober, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		prober:  prober,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached metadata if fresh, otherwise re-probes.
func (c *Cache) Get(ctx context.Context, source string) (*Metadata, error) {
	c.mu.RLock()
	e, ok := c.entries[source]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetched) < c.ttl {
		return e.meta, nil
	}
	return c.Refresh(ctx, source)
}

func (c *Cache) Peek(source string) *Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[source].meta
}

// Refresh probes the source regardless of cache freshness.
func (c *Cache) Refresh(ctx context.Context, source string) (*Metadata, error) {
	m, err := c.prober.Probe(ctx, source)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("media probe failed", "source", source, "error", err)
		}
		if stale, ok := c.entries[source]; ok {
			if c.logger != nil {
				c.logger.Info("returning stale media metadata", "source", source)
			}
			return stale.meta, nil
		}
		return nil, err
	}
	c.entries[source] = entry{meta: m, fetched: c.now()}
	return m, nil
}

func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	delete(c.entries, source)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
