// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package gateway

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/cache"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
	"github.com/tomtom215/stationlink/internal/models"
	"github.com/tomtom215/stationlink/internal/retry"
	"github.com/tomtom215/stationlink/internal/stationapi"
	"github.com/tomtom215/stationlink/internal/validation"
)

// History limits.
const (
	DefaultHistoryLimit = 1000
	MaxHistoryLimit     = 10000
)

const defaultConcurrency = 4

// SensorGateway reads sensor values with retry and cache fallback.
type SensorGateway struct {
	api         stationapi.API
	values      *cache.ValueCache
	visibility  *VisibilityGateway
	retry       retry.Executor
	readCfg     retry.Config
	concurrency int

	// session is bumped by HandleSessionEnd; writes started before it are dropped.
	sessionMu sync.RWMutex
	session   uint64
}

// SensorOption configures a SensorGateway.
type SensorOption func(*SensorGateway)

// WithSensorRetry sets the executor and policy used for reads.
func WithSensorRetry(ex retry.Executor, cfg retry.Config) SensorOption {
	return func(g *SensorGateway) {
		g.retry = ex
		g.readCfg = cfg
	}
}

// WithConcurrency bounds the number of stations fetched in parallel.
func WithConcurrency(n int) SensorOption {
	return func(g *SensorGateway) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewSensorGateway creates a SensorGateway.
func NewSensorGateway(api stationapi.API, values *cache.ValueCache, visibility *VisibilityGateway, opts ...SensorOption) *SensorGateway {
	g := &SensorGateway{
		api:         api,
		values:      values,
		visibility:  visibility,
		retry:       retry.Default,
		readCfg:     retry.SensorReadConfig(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Latest returns the current value of one parameter.
//
// A valid network value is cached and returned. Otherwise the cached value is
// returned, or a reading that is not valid when nothing is cached. Only auth,
// permission, client and input errors are returned.
func (g *SensorGateway) Latest(ctx context.Context, station, code string) (models.Reading, error) {
	if err := validation.StationParameter(station, code); err != nil {
		return models.NoReading(), err
	}
	gen := g.generation()

	value, err := retry.Run(ctx, g.retry, g.readCfg, func(ctx context.Context, _ int) (float64, error) {
		latest, err := g.api.GetStationLatest(ctx, station, code)
		if err != nil {
			return 0, err
		}
		v, ok := latest.Value(code)
		if !ok {
			return models.UnavailableValue, nil
		}
		return v, nil
	})
	if err != nil {
		if propagates(err) {
			return models.NoReading(), err
		}
		logging.Ctx(ctx).Debug().Err(err).
			Str("station", station).
			Str("parameter", code).
			Msg("latest value unavailable, using fallback")
		return g.fallback(station, code), nil
	}

	if g.cacheValue(gen, station, code, value) {
		return models.NetworkReading(value), nil
	}
	return g.fallback(station, code), nil
}

func (g *SensorGateway) generation() uint64 {
	g.sessionMu.RLock()
	defer g.sessionMu.RUnlock()
	return g.session
}

// cacheValue reports whether v is valid and caches it when no session ended
// since gen was read.
func (g *SensorGateway) cacheValue(gen uint64, station, code string, v float64) bool {
	if !g.values.IsValid(v) {
		return false
	}
	g.sessionMu.RLock()
	defer g.sessionMu.RUnlock()
	if g.session == gen {
		g.values.Put(station, code, v)
	}
	return true
}

// GetLatest is Latest in sentinel form: models.UnavailableValue means no data.
func (g *SensorGateway) GetLatest(ctx context.Context, station, code string) (float64, error) {
	r, err := g.Latest(ctx, station, code)
	if err != nil {
		return models.UnavailableValue, err
	}
	return r.Float(), nil
}

func (g *SensorGateway) fallback(station, code string) models.Reading {
	if v, ok := g.values.Get(station, code); ok {
		metrics.CacheFallbacks.WithLabelValues("cache").Inc()
		return models.CachedReading(v)
	}
	metrics.CacheFallbacks.WithLabelValues("sentinel").Inc()
	return models.NoReading()
}

// LatestStreamResult is one value emitted by LatestStream.
type LatestStreamResult struct {
	Reading models.Reading
	Err     error
}

// LatestStream emits the cached value first, when there is one, then the
// result of Latest. The channel is closed after the final result.
func (g *SensorGateway) LatestStream(ctx context.Context, station, code string) <-chan LatestStreamResult {
	out := make(chan LatestStreamResult, 2)
	go func() {
		defer close(out)
		if validation.StationParameter(station, code) == nil {
			if v, ok := g.values.Get(station, code); ok {
				out <- LatestStreamResult{Reading: models.CachedReading(v)}
			}
		}
		r, err := g.Latest(ctx, station, code)
		out <- LatestStreamResult{Reading: r, Err: err}
	}()
	return out
}

// GetLatestAllStations returns the visible, valid latest values of every
// station owned by the user, keyed by station then parameter code.
//
// Stations whose visibility cannot be read are left out. When the bulk
// request fails the cache snapshot is returned, filtered the same way.
func (g *SensorGateway) GetLatestAllStations(ctx context.Context) (map[string]map[string]float64, error) {
	gen := g.generation()
	all, err := retry.Run(ctx, g.retry, g.readCfg, func(ctx context.Context, _ int) ([]models.StationLatest, error) {
		return g.api.GetLatestAll(ctx)
	})

	fromCache := false
	if err != nil {
		if propagates(err) {
			return nil, err
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("bulk latest request failed, serving cached values")
		metrics.CacheFallbacks.WithLabelValues("cache").Inc()
		all = snapshotToLatest(g.values.Snapshot())
		fromCache = true
	}

	visible, err := g.visibleCodesFor(ctx, stationNumbers(all))
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64, len(visible))
	for _, st := range all {
		codes, ok := visible[st.StationNumber]
		if !ok {
			continue
		}
		params := make(map[string]float64)
		for code, v := range st.Parameters {
			if v == nil || !codes[code] || !g.values.IsValid(*v) {
				continue
			}
			params[code] = *v
			if !fromCache {
				g.cacheValue(gen, st.StationNumber, code, *v)
			}
		}
		out[st.StationNumber] = params
	}
	return out, nil
}

// visibleCodesFor fetches the visible codes of each station in parallel.
// Stations whose visibility fails for a non-auth reason are omitted.
func (g *SensorGateway) visibleCodesFor(ctx context.Context, stations []string) (map[string]map[string]bool, error) {
	var mu sync.Mutex
	out := make(map[string]map[string]bool, len(stations))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, station := range stations {
		eg.Go(func() error {
			codes, err := g.visibility.VisibleCodes(egCtx, station)
			if err != nil {
				if apierror.IsAuth(err) || errors.Is(err, context.Canceled) {
					return err
				}
				logging.Ctx(ctx).Warn().Err(err).Str("station", station).Msg("visibility unavailable, omitting station")
				return nil
			}
			mu.Lock()
			out[station] = codes
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StationResult is the outcome for one station of GetLatestForStations.
type StationResult struct {
	Readings map[string]models.Reading
	Err      error
}

// GetLatestForStations reads the visible parameters of each station in
// parallel. A failing station does not affect the others.
func (g *SensorGateway) GetLatestForStations(ctx context.Context, stations []string) map[string]StationResult {
	var mu sync.Mutex
	out := make(map[string]StationResult, len(stations))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for _, station := range slices.Compact(slices.Sorted(slices.Values(stations))) {
		eg.Go(func() error {
			readings, err := g.stationReadings(ctx, station)
			mu.Lock()
			out[station] = StationResult{Readings: readings, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func (g *SensorGateway) stationReadings(ctx context.Context, station string) (map[string]models.Reading, error) {
	if err := validation.StationNumber(station); err != nil {
		return nil, err
	}
	gen := g.generation()
	codes, err := g.visibility.VisibleCodes(ctx, station)
	if err != nil {
		return nil, err
	}

	latest, err := retry.Run(ctx, g.retry, g.readCfg, func(ctx context.Context, _ int) (*models.StationLatest, error) {
		return g.api.GetStationLatest(ctx, station, "")
	})
	if err != nil && propagates(err) {
		return nil, err
	}

	readings := make(map[string]models.Reading, len(codes))
	for code := range codes {
		if latest != nil {
			if v, ok := latest.Value(code); ok && g.cacheValue(gen, station, code, v) {
				readings[code] = models.NetworkReading(v)
				continue
			}
		}
		readings[code] = g.fallback(station, code)
	}
	return readings, nil
}

// GetHistory returns the time series of a visible parameter, newest first.
// Limit 0 means DefaultHistoryLimit; other values are clamped to [1, MaxHistoryLimit].
func (g *SensorGateway) GetHistory(ctx context.Context, station, code string, q stationapi.HistoryQuery) ([]models.HistoryPoint, error) {
	if err := validation.StationParameter(station, code); err != nil {
		return nil, err
	}
	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return nil, apierror.Invalid("history start is after end")
	}

	visible, err := g.visibility.VisibleCodes(ctx, station)
	if err != nil {
		return nil, err
	}
	if !visible[code] {
		return nil, apierror.NotFound(fmt.Sprintf("parameter %s of station %s", code, station))
	}

	q.Limit = ClampHistoryLimit(q.Limit)
	points, err := retry.Run(ctx, g.retry, g.readCfg, func(ctx context.Context, _ int) ([]models.HistoryPoint, error) {
		return g.api.GetHistory(ctx, station, code, q)
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(points, func(a, b models.HistoryPoint) int {
		return cmp.Compare(b.Time, a.Time)
	})
	return points, nil
}

// ClampHistoryLimit applies the history limit rules.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultHistoryLimit
	case limit < 1:
		return 1
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// Forget drops every cached value of a removed station.
func (g *SensorGateway) Forget(station string) {
	g.values.RemoveStation(station)
}

// HandleSessionEnd clears the value cache. Register it with
// auth.SessionManager.OnSessionEnd.
func (g *SensorGateway) HandleSessionEnd(reason string) {
	g.sessionMu.Lock()
	g.session++
	n := g.values.Len()
	g.values.Clear()
	g.sessionMu.Unlock()
	logging.Info().Str("reason", reason).Int("values", n).Msg("session ended, value cache cleared")
}

func stationNumbers(all []models.StationLatest) []string {
	out := make([]string, 0, len(all))
	for _, st := range all {
		out = append(out, st.StationNumber)
	}
	return out
}

func snapshotToLatest(snap map[string]map[string]float64) []models.StationLatest {
	out := make([]models.StationLatest, 0, len(snap))
	for station, params := range snap {
		st := models.StationLatest{StationNumber: station, Parameters: make(map[string]*float64, len(params))}
		for code, v := range params {
			st.Parameters[code] = &v
		}
		out = append(out, st)
	}
	return out
}
