// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/stationlink/internal/auth"
	"github.com/tomtom215/stationlink/internal/logging"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("STATIONLINK_API_URL is required")
	}
	if err := validateHTTPURL(c.API.BaseURL, "STATIONLINK_API_URL"); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.API.RateLimitRPS < 0 {
		return fmt.Errorf("api.rate_limit_rps must not be negative, got %v", c.API.RateLimitRPS)
	}
	if c.API.RateLimitRPS > 0 && c.API.RateLimitBurst < 1 {
		return fmt.Errorf("api.rate_limit_burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Store {
	case StoreMemory:
	case StoreBadger:
		if c.Session.StorePath == "" {
			return fmt.Errorf("session.store_path is required for the badger store")
		}
	default:
		return fmt.Errorf("session.store must be %q or %q, got %q", StoreMemory, StoreBadger, c.Session.Store)
	}
	if _, err := auth.ParseRefreshPolicy(c.Session.RefreshPolicy); err != nil {
		return fmt.Errorf("session.refresh_policy: %w", err)
	}
	if c.Session.RefreshSkew < 0 {
		return fmt.Errorf("session.refresh_skew must not be negative")
	}
	if c.Session.EncryptionKey != "" && len(c.Session.EncryptionKey) < 32 {
		return fmt.Errorf("session.encryption_key must be at least 32 characters")
	}
	return nil
}

func (c *Config) validateRetry() error {
	r := c.Retry
	if r.MaxAttempts < 1 || r.MaxAttempts > 20 {
		return fmt.Errorf("retry.max_attempts must be between 1 and 20, got %d", r.MaxAttempts)
	}
	if r.BaseDelay < 0 || r.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if r.MaxDelay > 0 && r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("retry.max_delay (%v) must not be less than retry.base_delay (%v)", r.MaxDelay, r.BaseDelay)
	}
	if r.UseExponentialBackoff && r.BackoffMultiplier < 1 {
		return fmt.Errorf("retry.multiplier must be at least 1, got %v", r.BackoffMultiplier)
	}
	for _, code := range r.RetryableHTTPCodes {
		if code < 400 || code > 599 {
			return fmt.Errorf("retry.retryable_http_codes: %d is not an HTTP error status", code)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	if math.IsNaN(c.Cache.SentinelFloor) || math.IsInf(c.Cache.SentinelFloor, 0) {
		return fmt.Errorf("cache.sentinel_floor must be a finite number")
	}
	if c.Cache.RedisURL != "" {
		if _, err := redis.ParseURL(c.Cache.RedisURL); err != nil {
			return fmt.Errorf("STATIONLINK_REDIS_URL is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1], got %v", c.Breaker.FailureRatio)
	}
	if c.Breaker.MinRequests == 0 {
		return fmt.Errorf("breaker.min_requests must be at least 1")
	}
	return nil
}

func (c *Config) validatePoller() error {
	if !c.Poller.Enabled {
		return nil
	}
	if c.Poller.Interval < 5*time.Second {
		return fmt.Errorf("poller.interval must be at least 5s, got %v", c.Poller.Interval)
	}
	if c.Poller.Concurrency < 1 {
		return fmt.Errorf("poller.concurrency must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}
}

// validateHTTPURL checks an http(s) base URL without query parameters.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}
