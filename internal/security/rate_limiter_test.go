package security

import (
	"testing"
	"time"

	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/stretchr/testify/assert"
)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             3,
		IdleTTL:           time.Minute,
	}
}

func TestAllowBurstThenBlock(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	now := time.Now()
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// other clients have their own bucket
	assert.True(t, rl.Allow("10.0.0.2"))

	// one token per second refills
	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestDisabledAlwaysAllows(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	rl := NewRateLimiter(cfg)

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.Equal(t, 0, rl.Clients())
}

func TestCleanupIdle(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(30 * time.Second)
	rl.Allow("10.0.0.2")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, rl.CleanupIdle())
	assert.Equal(t, 1, rl.Clients())
}
