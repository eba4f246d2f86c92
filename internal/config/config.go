// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package config

import (
	"time"

	"github.com/tomtom215/stationlink/internal/auth"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/retry"
	"github.com/tomtom215/stationlink/internal/stationapi"
)

// Config is the complete stationlink configuration.
type Config struct {
	API     APIConfig                `koanf:"api"`
	Session SessionConfig            `koanf:"session"`
	Retry   retry.Config             `koanf:"retry"`
	Cache   CacheConfig              `koanf:"cache"`
	Breaker stationapi.BreakerConfig `koanf:"breaker"`
	Poller  PollerConfig             `koanf:"poller"`
	Server  ServerConfig             `koanf:"server"`
	Logging LoggingConfig            `koanf:"logging"`
}

// APIConfig configures the station service client.
type APIConfig struct {
	BaseURL        string        `koanf:"base_url"`
	Timeout        time.Duration `koanf:"timeout"`
	RateLimitRPS   float64       `koanf:"rate_limit_rps"`
	RateLimitBurst int           `koanf:"rate_limit_burst"`
	UserAgent      string        `koanf:"user_agent"`
}

// Session store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// SessionConfig configures token storage and refresh.
type SessionConfig struct {
	Store          string        `koanf:"store"`
	StorePath      string        `koanf:"store_path"`
	EncryptionKey  string        `koanf:"encryption_key"`
	RefreshPolicy  string        `koanf:"refresh_policy"`
	RefreshSkew    time.Duration `koanf:"refresh_skew"`
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
}

// Policy returns the parsed refresh policy. Validate has already checked it.
func (s SessionConfig) Policy() auth.RefreshPolicy {
	p, err := auth.ParseRefreshPolicy(s.RefreshPolicy)
	if err != nil {
		return auth.RefreshOnExpiry
	}
	return p
}

// CacheConfig configures the last-known-value cache.
type CacheConfig struct {
	SentinelFloor  float64       `koanf:"sentinel_floor"`
	AllowNonFinite bool          `koanf:"allow_non_finite"`
	RedisURL       string        `koanf:"redis_url"`
	RedisPrefix    string        `koanf:"redis_prefix"`
	RedisTTL       time.Duration `koanf:"redis_ttl"`
}

// PollerConfig configures the background refresh service.
type PollerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`
	Concurrency int           `koanf:"concurrency"`
}

// ServerConfig configures the operator HTTP server (metrics and health).
type ServerConfig struct {
	ListenAddr      string        `koanf:"listen_addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ToLogging converts to the logging package's configuration.
func (l LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}
