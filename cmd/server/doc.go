// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

/*
Package main is the entry point for the ThreatHub server.

ThreatHub accepts detection requests, runs them through pluggable detection
collaborators, records the results, turns threats into alerts and pushes
every alert to connected dashboards over WebSocket.

# Application Architecture

	RootSupervisor ("threathub")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Connection hub
	│   └── Event bus (optional, nats.enabled, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Component initialization order:

 1. Configuration: koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog, level hot-reloaded from the config file
 3. Alert store: in-memory ledger plus bounded histories
 4. Detector gateway: built-in test collaborator plus remote detectors
 5. Connection hub
 6. Event bus: embedded or external NATS via Watermill (optional)
 7. Ingestion orchestrator, query service, dashboard aggregator
 8. HTTP API (chi) and supervisor tree

# Build

	go build -o threathub ./cmd/server
	go build -tags nats -o threathub ./cmd/server

Without the nats tag, nats.enabled logs a warning and alerts are only
broadcast over the live channel.
*/
package main
