// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package services adapts ThreatHub components to suture.Service.
//
// Each wrapper depends on a small interface rather than the concrete type so
// the supervisor package does not import the components it runs:
//
//   - HTTPServerService: ListenAndServe plus graceful Shutdown
//   - HubService: the connection hub's RunWithContext
//   - EventBusService: closes the alert publisher and embedded broker on
//     shutdown, publisher first
package services
