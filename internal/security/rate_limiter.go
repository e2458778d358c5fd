package security

import (
	"sync"
	"time"

	"github.com/raaihank/bias-auditor/internal/config"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	config  config.RateLimitConfig
	clients map[string]*client
	mu      sync.RWMutex
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config:  cfg,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow checks if a request from the given client IP is allowed
func (r *RateLimiter) Allow(clientIP string) bool {
	if !r.config.Enabled {
		return true
	}

	c := r.getClient(clientIP)
	c.mu.Lock()
	c.lastSeen = r.now()
	c.mu.Unlock()

	return c.limiter.AllowN(r.now(), 1)
}

// Clients returns the number of tracked client IPs
func (r *RateLimiter) Clients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// getClient gets or creates the bucket for a client IP
func (r *RateLimiter) getClient(clientIP string) *client {
	r.mu.RLock()
	c, exists := r.clients[clientIP]
	r.mu.RUnlock()

	if exists {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if c, exists := r.clients[clientIP]; exists {
		return c
	}

	perSecond := rate.Limit(float64(r.config.RequestsPerMinute) / 60.0)
	c = &client{
		limiter:  rate.NewLimiter(perSecond, r.config.Burst),
		lastSeen: r.now(),
	}
	r.clients[clientIP] = c
	return c
}

// CleanupIdle removes buckets not used within the configured idle TTL
func (r *RateLimiter) CleanupIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.config.IdleTTL)
	removed := 0
	for ip, c := range r.clients {
		c.mu.Lock()
		idle := c.lastSeen.Before(cutoff)
		c.mu.Unlock()
		if idle {
			delete(r.clients, ip)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine evicts idle buckets until stop is closed
func (r *RateLimiter) StartCleanupRoutine(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.CleanupIdle()
			case <-stop:
				return
			}
		}
	}()
}
