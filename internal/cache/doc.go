// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

/*
Package cache provides the bounded in-memory structures used by the hub.

# Structures

  - Ring: fixed-capacity FIFO buffer. The alert store keeps its recent-alert
    history and detection history in rings so both stay bounded.
  - SlidingWindowCounter: bucketed event counter over a trailing window. The
    ingestion orchestrator uses it to report recent alert throughput.

Neither structure spawns goroutines. Ring is not safe for concurrent use and
relies on its owner's lock; SlidingWindowCounter carries its own mutex.

# Example

	r := cache.NewRing[models.Alert](1000)
	if _, evicted := r.Push(alert); evicted {
	    // oldest entry dropped
	}
	recent := r.Last(50) // newest first
*/
package cache
