// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Package config loads stationlink configuration.

Sources are layered with knadh/koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the path given to Load, $CONFIG_PATH, or the first
    of DefaultConfigPaths that exists
 3. Environment variables listed in envTransformFunc

Unknown environment variables are ignored. The result is checked by Validate
before it is returned.

Example file:

	api:
	  base_url: https://weather.example.com
	  rate_limit_rps: 5
	session:
	  store: badger
	  store_path: /var/lib/stationlink/session
	  refresh_policy: on_expiry
	cache:
	  redis_url: redis://localhost:6379/0
	poller:
	  enabled: true
	  interval: 1m

Environment variables (selection):

  - STATIONLINK_API_URL: service base URL (required)
  - STATIONLINK_SESSION_STORE: memory or badger (default: badger)
  - STATIONLINK_TOKEN_ENCRYPTION_KEY: encrypts stored tokens at rest
  - STATIONLINK_REFRESH_POLICY: on_expiry or always (default: on_expiry)
  - STATIONLINK_REDIS_URL: enables the Redis mirror of the value cache
  - STATIONLINK_POLL_INTERVAL: background refresh interval (default: 1m)
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER: logging
*/
package config
