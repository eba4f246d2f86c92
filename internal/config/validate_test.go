// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = "https://weather.example.com"
	cfg.Session.StorePath = "/tmp/stationlink-session"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://weather.example.com" }, "scheme"},
		{"query in base url", func(c *Config) { c.API.BaseURL = "https://weather.example.com?x=1" }, "query"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"negative rate", func(c *Config) { c.API.RateLimitRPS = -1 }, "rate_limit_rps"},
		{"unknown store", func(c *Config) { c.Session.Store = "sqlite" }, "session.store"},
		{"badger without path", func(c *Config) { c.Session.StorePath = "" }, "store_path"},
		{"bad policy", func(c *Config) { c.Session.RefreshPolicy = "sometimes" }, "refresh_policy"},
		{"short key", func(c *Config) { c.Session.EncryptionKey = "short" }, "encryption_key"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"max below base", func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, "max_delay"},
		{"bad retry code", func(c *Config) { c.Retry.RetryableHTTPCodes = []int{200} }, "retryable_http_codes"},
		{"bad redis url", func(c *Config) { c.Cache.RedisURL = "http://not-redis" }, "REDIS_URL"},
		{"bad breaker ratio", func(c *Config) { c.Breaker.FailureRatio = 1.5 }, "failure_ratio"},
		{"breaker disabled ignores ratio", func(c *Config) { c.Breaker.Enabled = false; c.Breaker.FailureRatio = 0 }, ""},
		{"poll too fast", func(c *Config) { c.Poller.Enabled = true; c.Poller.Interval = time.Second }, "poller.interval"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoggingConfigConversion(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", Caller: true}.ToLogging()
	if lc.Level != "debug" || lc.Format != "json" || !lc.Caller || lc.Output == nil {
		t.Errorf("unexpected logging config: %+v", lc)
	}
}
