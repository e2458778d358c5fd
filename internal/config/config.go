package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envKeys are the settings that may be overridden through AUDITOR_* variables
var envKeys = []string{
	"server.port",
	"server.trust_proxy_headers",
	"upload.dir",
	"upload.max_bytes",
	"scanner.enabled",
	"cache.backend",
	"cache.redis_url",
	"cache.ttl",
	"history.backend",
	"history.database_url",
	"rate_limit.enabled",
	"rate_limit.requests_per_minute",
	"websocket.enabled",
	"websocket.username",
	"websocket.password",
	"privacy.enabled",
	"metrics.enabled",
	"logging.level",
	"logging.format",
}

var (
	activeMu sync.Mutex
	active   *viper.Viper
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	config := GetDefaults()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/bias-auditor/")
	v.AddConfigPath("$HOME/.bias-auditor/")

	// Environment variable overrides
	v.SetEnvPrefix("AUDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	activeMu.Lock()
	active = v
	activeMu.Unlock()

	return config, nil
}

// Validate validates a loaded configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if strings.TrimSpace(config.Upload.Dir) == "" {
		return fmt.Errorf("upload dir must not be empty")
	}
	if config.Upload.MaxBytes <= 0 {
		return fmt.Errorf("invalid upload max_bytes: %d", config.Upload.MaxBytes)
	}

	if _, err := config.Scanner.Dictionary(); err != nil {
		return fmt.Errorf("invalid scanner dictionary: %w", err)
	}
	if config.Scanner.MaxTextLen <= 0 {
		return fmt.Errorf("invalid scanner max_text_len: %d", config.Scanner.MaxTextLen)
	}

	switch config.Cache.Backend {
	case "memory", "none":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("cache backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory, redis, or none)", config.Cache.Backend)
	}

	switch config.History.Backend {
	case "memory", "none":
	case "postgres":
		if config.History.DatabaseURL == "" {
			return fmt.Errorf("history backend postgres requires database_url")
		}
	default:
		return fmt.Errorf("invalid history backend: %s (must be memory, postgres, or none)", config.History.Backend)
	}

	if config.RateLimit.Enabled && (config.RateLimit.RequestsPerMinute <= 0 || config.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive requests_per_minute and burst")
	}

	if config.Privacy.Samples < 0 {
		return fmt.Errorf("invalid privacy samples: %d", config.Privacy.Samples)
	}

	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	return nil
}

// Watch re-reads the configuration file on change and hands every valid
// result to callback. Invalid edits are reported through onError and skipped.
func Watch(callback func(*Config), onError func(error)) error {
	activeMu.Lock()
	v := active
	activeMu.Unlock()

	if v == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if v.ConfigFileUsed() == "" {
		return fmt.Errorf("no configuration file to watch")
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		newConfig := GetDefaults()
		if err := v.Unmarshal(newConfig); err != nil {
			onError(fmt.Errorf("failed to unmarshal %s: %w", e.Name, err))
			return
		}

		if err := Validate(newConfig); err != nil {
			onError(fmt.Errorf("invalid configuration in %s: %w", e.Name, err))
			return
		}

		callback(newConfig)
	})
	v.WatchConfig()

	return nil
}
