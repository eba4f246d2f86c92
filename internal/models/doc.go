// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Package models defines data structures shared by the Stationlink client.

This package contains the session record, station and parameter metadata,
sensor readings and the JSON wire shapes used by the remote weather service.
It has no behaviour beyond small accessors and serves as the single source of
truth for data structure definitions.

Model Categories:

1. Session Models:
  - Session: access token, refresh token and user identity
  - TokenPair: result of a refresh call

2. Station Models:
  - StationRef: read-only station description (8-digit station number)
  - ParameterVisibility: per-user, per-station parameter flag

3. Reading Models:
  - StationLatest: latest values for one station as returned on the wire
  - Reading: explicit optional reading with its source
  - HistoryPoint: one time-series sample (unix seconds, value)

4. Wire Envelopes:
  - Envelope: {"success": bool, "data": ...} wrapper used by every endpoint
  - RefreshResponse, BulkVisibilityRequest, BulkVisibilityResult

Sentinel Value:

UnavailableValue (-99.0) marks "no data" at the wire and UI boundary. Inside
the library, Reading.Valid carries the same information explicitly.
*/
package models
