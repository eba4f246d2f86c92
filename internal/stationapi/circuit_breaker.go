// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package stationapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
	"github.com/tomtom215/stationlink/internal/models"
)

// BreakerConfig tunes the circuit breaker around the station API.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxHalfOpen  uint32        `koanf:"max_half_open"`
}

// DefaultBreakerConfig opens after a 60% failure rate over at least 10
// requests and tries again after two minutes.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:      true,
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MaxHalfOpen:  3,
	}
}

// CircuitBreakerClient wraps Client with a circuit breaker.
//
// Only failures that say something about the service's health trip the
// breaker: network errors, timeouts, 5xx and undecodable bodies. Auth, 4xx
// and cancelled requests count as successes.
type CircuitBreakerClient struct {
	client API
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient wraps client. name labels logs and metrics.
func NewCircuitBreakerClient(client API, name string, cfg BreakerConfig) *CircuitBreakerClient {
	if name == "" {
		name = "station-api"
	}
	def := DefaultBreakerConfig()
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = def.FailureRatio
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxHalfOpen == 0 {
		cfg.MaxHalfOpen = def.MaxHalfOpen
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpen,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: isHealthy,
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: name}
}

// isHealthy reports whether err leaves the service's health untouched.
func isHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch apierror.KindOf(err) {
	case apierror.KindNotLoggedIn, apierror.KindSessionExpired,
		apierror.KindNotFound, apierror.KindInvalid, apierror.KindRejected,
		apierror.KindClient, apierror.KindPermission:
		return true
	}
	return false
}

// State returns the current breaker state as a string.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", cbc.name).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, apierror.Wrap(apierror.KindUnavailable, err, "station API temporarily unavailable")
		}
		if isHealthy(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
			return nil, err
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GetLatestAll fetches all stations' latest readings through the breaker.
func (cbc *CircuitBreakerClient) GetLatestAll(ctx context.Context) ([]models.StationLatest, error) {
	return castResult[[]models.StationLatest](cbc.execute(func() (any, error) {
		return cbc.client.GetLatestAll(ctx)
	}))
}

// GetStationLatest fetches one station's latest readings through the breaker.
func (cbc *CircuitBreakerClient) GetStationLatest(ctx context.Context, station, parameter string) (*models.StationLatest, error) {
	return castResult[*models.StationLatest](cbc.execute(func() (any, error) {
		return cbc.client.GetStationLatest(ctx, station, parameter)
	}))
}

// GetHistory fetches a parameter's history through the breaker.
func (cbc *CircuitBreakerClient) GetHistory(ctx context.Context, station, parameter string, q HistoryQuery) ([]models.HistoryPoint, error) {
	return castResult[[]models.HistoryPoint](cbc.execute(func() (any, error) {
		return cbc.client.GetHistory(ctx, station, parameter, q)
	}))
}

// ListParameters lists a station's parameters through the breaker.
func (cbc *CircuitBreakerClient) ListParameters(ctx context.Context, station string) ([]models.ParameterVisibility, error) {
	return castResult[[]models.ParameterVisibility](cbc.execute(func() (any, error) {
		return cbc.client.ListParameters(ctx, station)
	}))
}

// SetParameterVisibility updates one parameter through the breaker.
func (cbc *CircuitBreakerClient) SetParameterVisibility(ctx context.Context, station, code string, visible bool) error {
	_, err := cbc.execute(func() (any, error) {
		return nil, cbc.client.SetParameterVisibility(ctx, station, code, visible)
	})
	return err
}

// SetParametersVisibility updates many parameters through the breaker.
func (cbc *CircuitBreakerClient) SetParametersVisibility(ctx context.Context, station string, updates []models.VisibilityUpdate) (models.BulkVisibilityResult, error) {
	return castResult[models.BulkVisibilityResult](cbc.execute(func() (any, error) {
		return cbc.client.SetParametersVisibility(ctx, station, updates)
	}))
}
