package cache

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/raaihank/bias-auditor/internal/bias"
)

// ReportCache stores scan reports keyed by dictionary and text
type ReportCache interface {
	Get(ctx context.Context, key string) (*bias.Report, bool, error)
	Set(ctx context.Context, key string, report *bias.Report) error
	Stats() Stats
	Close() error
}

// Stats represents cache performance statistics
type Stats struct {
	Backend string  `json:"backend"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Items   int64   `json:"items"`
}

// Key derives the cache key for text scanned with the dictionary identified by fingerprint
func Key(fingerprint, text string) string {
	d := xxhash.New()
	_, _ = d.WriteString(fingerprint)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(text)
	return strconv.FormatUint(d.Sum64(), 16) + "-" + strconv.Itoa(len(text))
}

// counters tracks hits and misses for a backend
type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) stats(backend string, items int64) Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Backend: backend, Hits: hits, Misses: misses, HitRate: rate, Items: items}
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) (*bias.Report, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, *bias.Report) error         { return nil }
func (Noop) Stats() Stats                                            { return Stats{Backend: "none"} }
func (Noop) Close() error                                            { return nil }
