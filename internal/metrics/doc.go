// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package metrics defines the Prometheus collectors exported by Stationlink.
//
// Collectors are registered on the default registry through promauto and
// exposed by "stationlink serve" on /metrics. Metric families:
//
//   - stationlink_api_*: outbound API request latency and errors
//   - stationlink_retry_*: retry attempts and final outcomes
//   - stationlink_cache_*: value cache hits, misses, rejected writes and size
//   - stationlink_session_*: token refresh outcomes and session clears
//   - stationlink_poll_*: background poll cycles
//   - circuit_breaker_*: breaker state and transitions
//
// Example alert:
//
//	- alert: StationAPICircuitOpen
//	  expr: circuit_breaker_state{name="station_api"} == 2
//	  for: 5m
package metrics
