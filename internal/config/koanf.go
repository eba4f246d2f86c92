// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/stationlink/internal/models"
	"github.com/tomtom215/stationlink/internal/retry"
	"github.com/tomtom215/stationlink/internal/stationapi"
)

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"stationlink.yaml",
	"stationlink.yml",
	"/etc/stationlink/config.yaml",
	"/etc/stationlink/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "",
			Timeout:        30 * time.Second,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			UserAgent:      "stationlink",
		},
		Session: SessionConfig{
			Store:          StoreBadger,
			StorePath:      defaultStorePath(),
			EncryptionKey:  "",
			RefreshPolicy:  "on_expiry",
			RefreshSkew:    60 * time.Second,
			RefreshTimeout: 30 * time.Second,
		},
		Retry: retry.SensorReadConfig(),
		Cache: CacheConfig{
			SentinelFloor:  models.UnavailableValue,
			AllowNonFinite: false,
			RedisURL:       "", // mirror disabled
			RedisPrefix:    "stationlink",
			RedisTTL:       0,
		},
		Breaker: stationapi.DefaultBreakerConfig(),
		Poller: PollerConfig{
			Enabled:     false,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:9464",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// defaultStorePath is ~/.stationlink/session, or a relative path when there is no home directory.
func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".stationlink/session"
	}
	return home + "/.stationlink/session"
}

// Load loads configuration from defaults, the config file and the environment.
// An empty path searches CONFIG_PATH and DefaultConfigPaths; a missing
// explicit path is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from the environment.
var sliceConfigPaths = []string{
	"retry.retryable_http_codes",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	"stationlink_api_url":              "api.base_url",
	"stationlink_api_timeout":          "api.timeout",
	"stationlink_rate_limit_rps":       "api.rate_limit_rps",
	"stationlink_rate_limit_burst":     "api.rate_limit_burst",
	"stationlink_user_agent":           "api.user_agent",
	"stationlink_session_store":        "session.store",
	"stationlink_session_store_path":   "session.store_path",
	"stationlink_token_encryption_key": "session.encryption_key",
	"stationlink_refresh_policy":       "session.refresh_policy",
	"stationlink_refresh_skew":         "session.refresh_skew",
	"stationlink_refresh_timeout":      "session.refresh_timeout",

	"stationlink_retry_max_attempts":   "retry.max_attempts",
	"stationlink_retry_base_delay":     "retry.base_delay",
	"stationlink_retry_max_delay":      "retry.max_delay",
	"stationlink_retry_multiplier":     "retry.multiplier",
	"stationlink_retry_exponential":    "retry.exponential",
	"stationlink_retryable_http_codes": "retry.retryable_http_codes",

	"stationlink_sentinel_floor":   "cache.sentinel_floor",
	"stationlink_allow_non_finite": "cache.allow_non_finite",
	"stationlink_redis_url":        "cache.redis_url",
	"stationlink_redis_prefix":     "cache.redis_prefix",
	"stationlink_redis_ttl":        "cache.redis_ttl",

	"stationlink_breaker_enabled":       "breaker.enabled",
	"stationlink_breaker_min_requests":  "breaker.min_requests",
	"stationlink_breaker_failure_ratio": "breaker.failure_ratio",
	"stationlink_breaker_timeout":       "breaker.timeout",

	"stationlink_poll_enabled":     "poller.enabled",
	"stationlink_poll_interval":    "poller.interval",
	"stationlink_poll_timeout":     "poller.timeout",
	"stationlink_poll_concurrency": "poller.concurrency",

	"stationlink_listen_addr": "server.listen_addr",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to a config path, or "" to skip it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
