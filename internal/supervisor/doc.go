// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Package supervisor runs the long-lived services of "stationlink serve" under
suture v4.

	RootSupervisor ("stationlink")
	├── WorkerSupervisor ("workers")
	│   └── poller.Service
	└── APISupervisor ("api")
	    └── services.HTTPServerService (/metrics, /healthz)

A crashing poller is restarted with suture's backoff without affecting the
metrics endpoint, and the other way round. Supervisor events are logged
through sutureslog on top of the zerolog slog adapter.
*/
package supervisor
