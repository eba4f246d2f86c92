// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/stationlink/internal/auth"
	"github.com/tomtom215/stationlink/internal/cache"
	"github.com/tomtom215/stationlink/internal/config"
	"github.com/tomtom215/stationlink/internal/gateway"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/retry"
	"github.com/tomtom215/stationlink/internal/stationapi"
)

// stack is the wired client: session, transport, cache and gateways.
type stack struct {
	cfg        *config.Config
	session    *auth.SessionManager
	api        stationapi.API
	breaker    *stationapi.CircuitBreakerClient
	values     *cache.ValueCache
	visibility *gateway.VisibilityGateway
	sensors    *gateway.SensorGateway

	closers []io.Closer
}

func buildStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	st := &stack{cfg: cfg}

	store, err := openTokenStore(cfg.Session)
	if err != nil {
		return nil, err
	}
	if c, ok := store.(io.Closer); ok {
		st.closers = append(st.closers, c)
	}

	st.session, err = auth.NewSessionManager(auth.SessionManagerConfig{
		Store:          store,
		Refresher:      auth.NewHTTPRefresher(cfg.API.BaseURL, nil),
		Policy:         cfg.Session.Policy(),
		RefreshSkew:    cfg.Session.RefreshSkew,
		RefreshTimeout: cfg.Session.RefreshTimeout,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	client, err := stationapi.NewClient(cfg.API.BaseURL, st.session,
		stationapi.WithTimeout(cfg.API.Timeout),
		stationapi.WithRateLimit(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst),
		stationapi.WithUserAgent(cfg.API.UserAgent),
	)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create station client: %w", err)
	}
	st.api = client
	if cfg.Breaker.Enabled {
		st.breaker = stationapi.NewCircuitBreakerClient(client, "station-api", cfg.Breaker)
		st.api = st.breaker
	}

	st.values = st.openCache(ctx, cfg.Cache)

	st.visibility = gateway.NewVisibilityGateway(st.api,
		gateway.WithVisibilityRetry(retry.Default, retry.WriteConfig()),
	)
	st.sensors = gateway.NewSensorGateway(st.api, st.values, st.visibility,
		gateway.WithSensorRetry(retry.Default, cfg.Retry),
		gateway.WithConcurrency(cfg.Poller.Concurrency),
	)
	st.session.OnSessionEnd(st.sensors.HandleSessionEnd)

	return st, nil
}

func openTokenStore(cfg config.SessionConfig) (auth.TokenStore, error) {
	if cfg.Store != config.StoreBadger {
		return auth.NewMemoryTokenStore(), nil
	}
	enc, err := auth.NewTokenEncryptor(cfg.EncryptionKey, "")
	if err != nil {
		return nil, fmt.Errorf("token encryption: %w", err)
	}
	if !enc.IsEnabled() {
		logging.Warn().Str("path", cfg.StorePath).Msg("Session tokens are stored unencrypted (session.encryption_key not set)")
	}
	return auth.OpenBadgerTokenStore(cfg.StorePath, enc)
}

// openCache builds the value cache. An unreachable Redis mirror is logged and
// skipped; the in-memory cache works without it.
func (st *stack) openCache(ctx context.Context, cfg config.CacheConfig) *cache.ValueCache {
	opts := []cache.Option{
		cache.WithValidator(cache.SentinelValidator{
			Floor:          cfg.SentinelFloor,
			AllowNonFinite: cfg.AllowNonFinite,
		}),
	}
	if cfg.RedisURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		mirror, err := cache.DialRedisMirror(dialCtx, cfg.RedisURL, cfg.RedisPrefix, cfg.RedisTTL)
		cancel()
		if err != nil {
			logging.Warn().Err(err).Msg("Redis cache mirror unavailable, continuing in memory only")
		} else {
			st.closers = append(st.closers, mirror)
			opts = append(opts, cache.WithMirror(mirror))
		}
	}

	values := cache.New(opts...)
	if _, err := values.Warm(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to warm value cache from mirror")
	}
	return values
}

// Close releases the token store and cache mirror.
func (st *stack) Close() error {
	var errs []error
	for i := len(st.closers) - 1; i >= 0; i-- {
		if err := st.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
