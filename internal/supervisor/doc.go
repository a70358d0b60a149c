// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

/*
Package supervisor runs the long-lived parts of ThreatHub under a suture v4
supervisor tree.

# Overview

	RootSupervisor ("threathub")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── HubService
	│   └── EventBusService (if nats.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the event bus restarts only the messaging layer's failing
service; the HTTP server and connected dashboards keep running.

# Logging

Supervisor events (restarts, backoff, stop timeouts) go through sutureslog,
bridged to zerolog with logging.NewSlogLogger.

# Shutdown

Canceling the context passed to Serve stops every layer. Services that miss
ShutdownTimeout are listed by UnstoppedServiceReport.
*/
package supervisor
