// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stationlink_api_request_duration_seconds",
			Help:    "Duration of station API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	APIRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_api_request_errors_total",
			Help: "Total number of failed station API requests by error kind",
		},
		[]string{"endpoint", "kind"},
	)

	APIUnauthorizedRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stationlink_api_unauthorized_retries_total",
			Help: "Requests replayed once after a 401 and a token refresh",
		},
	)

	// Retry Metrics
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_retry_attempts_total",
			Help: "Total number of retried operation attempts",
		},
		[]string{"kind"},
	)

	RetryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_retry_outcomes_total",
			Help: "Final outcome of retried operations",
		},
		[]string{"outcome"}, // success, exhausted, not_retryable, cancelled
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_cache_hits_total",
			Help: "Total number of value cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_cache_misses_total",
			Help: "Total number of value cache misses",
		},
		[]string{"cache"},
	)

	CacheRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_cache_rejected_total",
			Help: "Writes dropped because the value failed validation",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stationlink_cache_entries",
			Help: "Current number of cached values",
		},
		[]string{"cache"},
	)

	CacheFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_cache_fallbacks_total",
			Help: "Reads served from cache or sentinel after a failed fetch",
		},
		[]string{"source"}, // cache, sentinel
	)

	CacheMirrorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_cache_mirror_errors_total",
			Help: "Failed writes or loads against the cache mirror",
		},
		[]string{"op"},
	)

	// Session Metrics
	SessionRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_session_refreshes_total",
			Help: "Token refresh attempts by result",
		},
		[]string{"result"}, // success, rejected, transient
	)

	SessionRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stationlink_session_refresh_duration_seconds",
			Help:    "Duration of token refresh calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	SessionClears = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationlink_session_clears_total",
			Help: "Session clears by reason",
		},
		[]string{"reason"}, // logout, refresh_rejected
	)

	// Poll Metrics
	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stationlink_poll_duration_seconds",
			Help:    "Duration of background poll cycles",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	PollStations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stationlink_poll_stations",
			Help: "Number of stations returned by the last poll",
		},
	)

	PollValues = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stationlink_poll_values",
			Help: "Number of visible values returned by the last poll",
		},
	)

	PollErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stationlink_poll_errors_total",
			Help: "Total number of failed poll cycles",
		},
	)

	PollLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stationlink_poll_last_success_timestamp",
			Help: "Unix timestamp of the last successful poll",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stationlink_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records the latency of one station API request.
func RecordAPIRequest(endpoint, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// RecordAPIError counts a failed station API request.
func RecordAPIError(endpoint, kind string) {
	APIRequestErrors.WithLabelValues(endpoint, kind).Inc()
}

// RecordRetry counts one retry caused by an error of the given kind.
func RecordRetry(kind string) {
	RetryAttempts.WithLabelValues(kind).Inc()
}

// RecordRetryOutcome counts the final outcome of a retried operation.
func RecordRetryOutcome(outcome string) {
	RetryOutcomes.WithLabelValues(outcome).Inc()
}

// RecordRefresh records a token refresh result and its duration.
func RecordRefresh(result string, duration time.Duration) {
	SessionRefreshes.WithLabelValues(result).Inc()
	SessionRefreshDuration.Observe(duration.Seconds())
}

// RecordPoll records a completed poll cycle.
func RecordPoll(duration time.Duration, stations, values int, err error) {
	PollDuration.Observe(duration.Seconds())
	if err != nil {
		PollErrors.Inc()
		return
	}
	PollStations.Set(float64(stations))
	PollValues.Set(float64(values))
	PollLastSuccess.Set(float64(time.Now().Unix()))
}
