// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package retry runs operations with bounded attempts and backoff.
//
// Errors are classified with the apierror taxonomy. Authentication errors
// are never retried so that session state reaches the caller unmasked.
package retry

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/tomtom215/stationlink/internal/apierror"
)

// Config controls how many times an operation runs and how long to wait between runs.
type Config struct {
	MaxAttempts           int           `koanf:"max_attempts" validate:"min=1,max=20"`
	BaseDelay             time.Duration `koanf:"base_delay"`
	MaxDelay              time.Duration `koanf:"max_delay"`
	UseExponentialBackoff bool          `koanf:"exponential"`
	BackoffMultiplier     float64       `koanf:"multiplier"`

	// RetryableHTTPCodes lists the statuses that are retried. Other HTTP failures are not.
	RetryableHTTPCodes []int `koanf:"retryable_http_codes"`

	RetryOnConnectivityError bool `koanf:"retry_on_connectivity"`
	RetryOnParseError        bool `koanf:"retry_on_parse"`
}

// DefaultRetryableHTTPCodes returns 500, 502, 503 and 504.
func DefaultRetryableHTTPCodes() []int {
	return []int{500, 502, 503, 504}
}

// SensorReadConfig is used for sensor reads: 3 attempts, 1s doubling to at most 5s.
func SensorReadConfig() Config {
	return Config{
		MaxAttempts:              3,
		BaseDelay:                time.Second,
		MaxDelay:                 5 * time.Second,
		UseExponentialBackoff:    true,
		BackoffMultiplier:        2.0,
		RetryableHTTPCodes:       DefaultRetryableHTTPCodes(),
		RetryOnConnectivityError: true,
		RetryOnParseError:        true,
	}
}

// WriteConfig is used for visibility writes: 2 attempts, fixed 500ms.
func WriteConfig() Config {
	return Config{
		MaxAttempts:              2,
		BaseDelay:                500 * time.Millisecond,
		MaxDelay:                 500 * time.Millisecond,
		UseExponentialBackoff:    false,
		BackoffMultiplier:        1.0,
		RetryableHTTPCodes:       DefaultRetryableHTTPCodes(),
		RetryOnConnectivityError: true,
		RetryOnParseError:        false,
	}
}

// attempts returns MaxAttempts, at least 1.
func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// Delay returns the wait after the given zero-based attempt failed.
func (c Config) Delay(attempt int) time.Duration {
	if c.BaseDelay <= 0 {
		return 0
	}
	if !c.UseExponentialBackoff {
		return c.BaseDelay
	}

	mult := c.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(c.BaseDelay) * math.Pow(mult, float64(attempt))
	if c.MaxDelay > 0 && d >= float64(c.MaxDelay) {
		return c.MaxDelay
	}
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// ShouldRetry reports whether err is eligible for another attempt under c.
func (c Config) ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	switch apierror.KindOf(err) {
	case apierror.KindNoConnection, apierror.KindTimeout:
		return c.RetryOnConnectivityError
	case apierror.KindHTTP:
		status := apierror.StatusOf(err)
		return status != 0 && slices.Contains(c.RetryableHTTPCodes, status)
	case apierror.KindParse:
		return c.RetryOnParseError
	default:
		// Auth, permission, client, not-found, invalid, unavailable and unknown.
		return false
	}
}
