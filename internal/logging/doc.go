// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package logging provides the process-wide zerolog logger for Stationlink.
//
// All packages log through the package-level helpers so output format and
// level are controlled in one place:
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("station", "01234567").Msg("fetched latest values")
//	logging.Ctx(ctx).Warn().Err(err).Msg("falling back to cache")
//
// Context helpers propagate a correlation ID across one logical operation
// (a poll cycle, a CLI command) and a request ID per outbound API call.
//
// The slog adapter lets libraries that require a *slog.Logger, such as the
// suture supervisor event hook, write through the same zerolog backend.
//
// Session events are logged through SessionLogger, which never emits raw
// tokens; see RedactToken.
package logging
