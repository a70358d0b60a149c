// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

/*
Package websocket implements the live alert channel: a registry of connected
subscribers and a fan-out broadcast with per-subscriber failure pruning.

Key Components:

  - Hub: owns the subscriber registry and the process-lifetime HubStats
  - Subscriber: anything that can accept a payload within a deadline
  - Client: the gorilla/websocket Subscriber with read and write pumps

Lifecycle of a subscriber:

	Connecting ──handshake ok──▶ Connected ──disconnect / send failure / close──▶ Disconnected
	     │
	     └──handshake error──▶ (never registered)

Broadcast protocol:

 1. Snapshot the registry under a read lock.
 2. Send to every member concurrently, each bounded by the send timeout.
 3. Join, then remove every failed member in one registry mutation.
 4. Return the number of snapshot members still connected.

Broadcasts are serialized, so every subscriber sees messages in the order
Broadcast was called. Registrations that race with an in-flight broadcast
are picked up by the next one.

Wire envelopes (JSON):

	{"type":"initial","alerts":[...],"summary":{...}}   sent once on connect
	{"type":"alert","data":{...}}                       one per stored alert
	{"type":"ping"}  ──▶  {"type":"pong","timestamp":"2026-01-02T15:04:05Z"}

Malformed inbound messages are ignored and the connection stays open.
*/
package websocket
