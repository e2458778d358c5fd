package cache

import (
	"fmt"

	"github.com/raaihank/bias-auditor/internal/config"
	"go.uber.org/zap"
)

// New builds the cache backend selected in cfg
func New(cfg config.CacheConfig, logger *zap.Logger) (ReportCache, error) {
	switch cfg.Backend {
	case "memory":
		logger.Info("Report cache initialized",
			zap.String("backend", "memory"),
			zap.Duration("ttl", cfg.TTL),
		)
		return NewMemoryCache(cfg.TTL, cfg.CleanupInterval), nil
	case "redis":
		return NewRedisCache(cfg, logger)
	case "none", "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
