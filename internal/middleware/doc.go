// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: propagates or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request counters, latency histograms and in-flight gauge
  - MaxBody: caps request body size for detection submissions

The metrics middleware labels requests by the chi route pattern when one is
available, so /api/alerts/{id}/status is a single series regardless of id.
Its response writer passes Hijack and Flush through, which the live channel
upgrade on /ws depends on.
*/
package middleware
