// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Package cache holds the last known valid value of every (station, parameter)
pair so reads can degrade gracefully when the station service is unreachable.

Only values accepted by the configured Validator are stored; the -99.0
unavailable marker and anything below it never enter the cache, and Put with
an invalid value leaves an existing entry untouched.

An optional Mirror (RedisMirror) receives every write and can warm a fresh
process with values from a previous run. Mirror failures are logged and
counted but never fail a cache operation.

All methods are safe for concurrent use.
*/
package cache
