// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Package gateway combines the station API, the retry executor, the value cache
and the per-user parameter visibility into the operations used by callers.

SensorGateway reads sensor values. Transient failures (connectivity, timeouts,
retryable 5xx, undecodable bodies) never surface as errors: after the retry
budget is spent the last known value is served from the cache, or a reading
marked not valid when nothing is cached. Authentication, permission and
input errors always propagate.

VisibilityGateway reads and writes the per-user visible-parameter flags.
Visibility is never cached; every read goes to the service.

Example:

	vis := gateway.NewVisibilityGateway(api)
	sensors := gateway.NewSensorGateway(api, values, vis)
	reading, err := sensors.Latest(ctx, "12345678", "4402")
*/
package gateway
