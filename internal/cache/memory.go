package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/raaihank/bias-auditor/internal/bias"
)

// MemoryCache keeps reports in process memory with expiry
type MemoryCache struct {
	cache *gocache.Cache
	ttl   time.Duration
	counters
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Get returns a copy of the cached report
func (c *MemoryCache) Get(_ context.Context, key string) (*bias.Report, bool, error) {
	val, found := c.cache.Get(key)
	c.record(found)
	if !found {
		return nil, false, nil
	}

	report := cloneReport(val.(*bias.Report))
	return report, true, nil
}

// Set stores a copy of report
func (c *MemoryCache) Set(_ context.Context, key string, report *bias.Report) error {
	c.cache.Set(key, cloneReport(report), c.ttl)
	return nil
}

// Stats returns hit/miss counters
func (c *MemoryCache) Stats() Stats {
	return c.stats("memory", int64(c.cache.ItemCount()))
}

// Close drops all entries
func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}

func cloneReport(r *bias.Report) *bias.Report {
	out := *r
	out.Findings = append([]bias.Finding(nil), r.Findings...)
	if out.Findings == nil {
		out.Findings = []bias.Finding{}
	}
	return &out
}
