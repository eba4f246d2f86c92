// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package cache holds the last known valid reading per station and parameter.
//
// The cache lives for the process lifetime. Entries are removed only by an
// explicit Remove, RemoveStation or Clear (logout, station removal). Values
// that fail the configured Validator are never stored.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
)

const (
	metricsName   = "values"
	mirrorTimeout = 2 * time.Second
)

// Key identifies one cached reading.
type Key struct {
	Station   string
	Parameter string
}

// Mirror is an optional write-through copy of the cache that outlives the process.
// Mirror failures are logged and never fail the in-memory operation.
type Mirror interface {
	Put(ctx context.Context, key Key, value float64) error
	Remove(ctx context.Context, key Key) error
	RemoveStation(ctx context.Context, station string) error
	Clear(ctx context.Context) error
	Load(ctx context.Context) (map[Key]float64, error)
}

// ValueCache is a concurrency-safe map of last known values.
type ValueCache struct {
	mu        sync.RWMutex
	values    map[Key]float64
	validator Validator
	mirror    Mirror
}

// Option configures a ValueCache.
type Option func(*ValueCache)

// WithValidator replaces the default sentinel validator.
func WithValidator(v Validator) Option {
	return func(c *ValueCache) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithMirror enables write-through to m.
func WithMirror(m Mirror) Option {
	return func(c *ValueCache) {
		c.mirror = m
	}
}

// New creates an empty ValueCache.
func New(opts ...Option) *ValueCache {
	c := &ValueCache{
		values:    make(map[Key]float64),
		validator: DefaultValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsValid reports whether v would be accepted by Put.
func (c *ValueCache) IsValid(v float64) bool {
	return c.validator.IsValid(v)
}

// Put stores v for (station, parameter) and reports whether it was stored.
// Invalid values are dropped and leave any previous value untouched.
func (c *ValueCache) Put(station, parameter string, v float64) bool {
	if !c.validator.IsValid(v) {
		metrics.CacheRejected.WithLabelValues(metricsName).Inc()
		return false
	}

	key := Key{Station: station, Parameter: parameter}
	c.mu.Lock()
	c.values[key] = v
	size := len(c.values)
	c.mu.Unlock()
	metrics.CacheSize.WithLabelValues(metricsName).Set(float64(size))

	c.mirrorDo("put", func(ctx context.Context) error {
		return c.mirror.Put(ctx, key, v)
	})
	return true
}

// Get returns the cached value for (station, parameter).
func (c *ValueCache) Get(station, parameter string) (float64, bool) {
	c.mu.RLock()
	v, ok := c.values[Key{Station: station, Parameter: parameter}]
	c.mu.RUnlock()

	if ok {
		metrics.CacheHits.WithLabelValues(metricsName).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(metricsName).Inc()
	}
	return v, ok
}

// Remove deletes one entry.
func (c *ValueCache) Remove(station, parameter string) {
	key := Key{Station: station, Parameter: parameter}
	c.mu.Lock()
	delete(c.values, key)
	size := len(c.values)
	c.mu.Unlock()
	metrics.CacheSize.WithLabelValues(metricsName).Set(float64(size))

	c.mirrorDo("remove", func(ctx context.Context) error {
		return c.mirror.Remove(ctx, key)
	})
}

// RemoveStation deletes every entry for station.
func (c *ValueCache) RemoveStation(station string) {
	c.mu.Lock()
	for k := range c.values {
		if k.Station == station {
			delete(c.values, k)
		}
	}
	size := len(c.values)
	c.mu.Unlock()
	metrics.CacheSize.WithLabelValues(metricsName).Set(float64(size))

	c.mirrorDo("remove_station", func(ctx context.Context) error {
		return c.mirror.RemoveStation(ctx, station)
	})
}

// Clear deletes every entry.
func (c *ValueCache) Clear() {
	c.mu.Lock()
	c.values = make(map[Key]float64)
	c.mu.Unlock()
	metrics.CacheSize.WithLabelValues(metricsName).Set(0)

	c.mirrorDo("clear", func(ctx context.Context) error {
		return c.mirror.Clear(ctx)
	})
}

// Len returns the number of cached values.
func (c *ValueCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot returns a copy of the cache grouped by station then parameter code.
func (c *ValueCache) Snapshot() map[string]map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]float64)
	for k, v := range c.values {
		params, ok := out[k.Station]
		if !ok {
			params = make(map[string]float64)
			out[k.Station] = params
		}
		params[k.Parameter] = v
	}
	return out
}

// Warm loads the mirror's contents into memory and returns the number of values loaded.
// Entries already in memory win over mirrored ones. Invalid mirrored values are skipped.
func (c *ValueCache) Warm(ctx context.Context) (int, error) {
	if c.mirror == nil {
		return 0, nil
	}

	stored, err := c.mirror.Load(ctx)
	if err != nil {
		metrics.CacheMirrorErrors.WithLabelValues("load").Inc()
		return 0, err
	}

	loaded := 0
	c.mu.Lock()
	for k, v := range stored {
		if !c.validator.IsValid(v) {
			continue
		}
		if _, exists := c.values[k]; exists {
			continue
		}
		c.values[k] = v
		loaded++
	}
	size := len(c.values)
	c.mu.Unlock()
	metrics.CacheSize.WithLabelValues(metricsName).Set(float64(size))

	logging.Info().Int("loaded", loaded).Int("entries", size).Msg("value cache warmed from mirror")
	return loaded, nil
}

func (c *ValueCache) mirrorDo(op string, fn func(ctx context.Context) error) {
	if c.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		metrics.CacheMirrorErrors.WithLabelValues(op).Inc()
		logging.Warn().Err(err).Str("op", op).Msg("value cache mirror write failed")
	}
}
