// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

/*
Package api exposes the hub over HTTP using the chi router.

Endpoints fall into four groups:

  - Detection: POST routes that run one detection method through the
    ingestion orchestrator and report the result plus the alerts created
  - Reads: alert lists, single alerts, the legacy alert list, dashboard
    summary, detection and alert history, statistics, module status,
    live connections
  - Operations: alert status updates, /health, / and /metrics
  - Live channel: /ws upgrades to a WebSocket subscriber on the hub

Responses under /api use the APIResponse envelope:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "...", "message": "..."}, "meta": {...}}

The legacy /alerts route returns a bare JSON array.

Error mapping:

  - detection.ErrCollaboratorUnavailable: 503 SERVICE_UNAVAILABLE
  - *detection.DetectionError: 500 DETECTION_FAILED
  - query.ErrInvalidQuery, query.ErrInvalidFilter: 400 VALIDATION_ERROR
  - store.ErrAlertNotFound: 404 NOT_FOUND
  - store.ErrInvalidStatus: 400 VALIDATION_ERROR
*/
package api
