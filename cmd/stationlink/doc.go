// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Command stationlink is the operator binary for the station data client.

It stores a session, reads sensor values through the gateways and can run a
background poller with a metrics endpoint:

	stationlink login --user alice
	stationlink latest 1001 4402
	stationlink history 1001 4402 --start 2026-10-01T00:00:00Z --limit 500
	stationlink params hide 1001 5402
	stationlink serve

Configuration is read from stationlink.yaml (or --config / CONFIG_PATH) and
STATIONLINK_* environment variables.
*/
package main
