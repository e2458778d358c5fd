package history

import (
	"fmt"

	"github.com/raaihank/bias-auditor/internal/config"
	"go.uber.org/zap"
)

// New creates the history store selected by cfg.Backend
func New(cfg config.HistoryConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.Capacity), nil
	case "postgres":
		return NewPostgresStore(cfg, logger)
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown history backend: %s", cfg.Backend)
	}
}
