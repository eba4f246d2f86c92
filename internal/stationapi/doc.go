// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Package stationapi is the HTTP transport for the weather station service.

Every request carries the bearer header supplied by an Authorizer. A 401
response triggers one token refresh through the Authorizer and the request is
replayed exactly once; a second 401 is reported as apierror.KindSessionExpired.
Non-2xx responses are mapped through apierror.FromResponse and JSON bodies are
decoded with goccy/go-json into models.Envelope values.

Endpoints:

	GET   /data/latest                               GetLatestAll
	GET   /data/{station}/latest                     GetStationLatest
	GET   /data/{station}/{parameter}/history        GetHistory
	GET   /stations/{station}/parameters             ListParameters
	PATCH /stations/{station}/parameters/{code}      SetParameterVisibility
	PATCH /stations/{station}/parameters             SetParametersVisibility

CircuitBreakerClient wraps Client with sony/gobreaker and implements the same
API interface, so gateways can use either.
*/
package stationapi
