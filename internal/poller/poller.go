// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package poller refreshes the latest values of every station in the
// background so the value cache stays warm.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
)

// Fetcher reads the latest visible values of all stations.
// *gateway.SensorGateway implements it.
type Fetcher interface {
	GetLatestAllStations(ctx context.Context) (map[string]map[string]float64, error)
}

// Config configures the poll loop.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Result describes one poll.
type Result struct {
	At       time.Time
	Duration time.Duration
	Stations int
	Values   int
	Err      error
}

// Service polls a Fetcher on a fixed interval. It implements suture.Service.
// A failing poll is logged and counted; it never stops the service.
type Service struct {
	fetcher  Fetcher
	interval time.Duration
	timeout  time.Duration

	mu       sync.RWMutex
	last     Result
	lastGood time.Time
}

// New creates a poller. Zero config fields default to 1m interval and 30s timeout.
func New(fetcher Fetcher, cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Service{fetcher: fetcher, interval: cfg.Interval, timeout: cfg.Timeout}
}

// Serve polls immediately and then every interval until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", s.interval).Msg("poller started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.PollOnce(ctx)

		select {
		case <-ctx.Done():
			logging.Info().Msg("poller stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce runs a single poll and records its result.
func (s *Service) PollOnce(ctx context.Context) Result {
	pollCtx, cancel := context.WithTimeout(logging.ContextWithNewCorrelationID(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	values, err := s.fetcher.GetLatestAllStations(pollCtx)
	res := Result{At: start, Duration: time.Since(start), Err: err}
	if err == nil {
		res.Stations = len(values)
		for _, params := range values {
			res.Values += len(params)
		}
	}
	metrics.RecordPoll(res.Duration, res.Stations, res.Values, err)

	log := logging.Ctx(pollCtx)
	switch {
	case err == nil:
		log.Debug().Int("stations", res.Stations).Int("values", res.Values).Dur("duration", res.Duration).Msg("poll complete")
	case apierror.IsAuth(err):
		log.Error().Err(err).Msg("poll failed: not logged in, run 'stationlink login'")
	case ctx.Err() != nil:
		// shutting down
	default:
		log.Warn().Err(err).Msg("poll failed")
	}

	s.mu.Lock()
	s.last = res
	if err == nil {
		s.lastGood = start
	}
	s.mu.Unlock()
	return res
}

// Last returns the most recent poll result.
func (s *Service) Last() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Healthy reports whether a poll succeeded within the last three intervals.
func (s *Service) Healthy(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.lastGood.IsZero() && now.Sub(s.lastGood) <= 3*s.interval
}

// String names the service in supervisor logs.
func (s *Service) String() string {
	return "poller"
}
