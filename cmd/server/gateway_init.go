// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package main

import (
	"sort"

	"github.com/tomtom215/threathub/internal/config"
	"github.com/tomtom215/threathub/internal/detection"
	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/models"
)

// apiKeyHeader carries a detector's API key.
const apiKeyHeader = "X-API-Key"

// buildGateway registers the built-in test collaborator and one remote
// collaborator per configured endpoint. A bad endpoint leaves its method
// inactive instead of stopping startup.
func buildGateway(cfg *config.Config) *detection.Gateway {
	gw := detection.NewGateway()
	gw.Register(models.MethodTest, detection.TestCollaborator())

	for method, weight := range cfg.Detectors.Weights {
		gw.SetWeight(models.DetectionMethod(method), weight)
	}

	breaker := detection.DefaultBreakerConfig()
	breaker.MinRequests = cfg.Detectors.BreakerMinRequests
	breaker.FailureRatio = cfg.Detectors.BreakerFailureRatio
	breaker.Timeout = cfg.Detectors.BreakerTimeout
	breaker.Interval = cfg.Detectors.BreakerInterval

	names := make([]string, 0, len(cfg.Detectors.Endpoints))
	for name := range cfg.Detectors.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ep := cfg.Detectors.Endpoints[name]
		method := models.DetectionMethod(name)
		log := logging.With().Str("method", name).Logger()

		if ep.URL == "" {
			continue
		}
		if !method.Known() {
			log.Warn().Msg("Ignoring detector endpoint for unknown detection method")
			continue
		}
		if method == models.MethodTest {
			log.Warn().Msg("The test method is built in; ignoring detector endpoint")
			continue
		}

		headers := map[string]string{}
		if ep.APIKey != "" {
			headers[apiKeyHeader] = ep.APIKey
		}

		remote, err := detection.NewRemoteCollaborator(detection.RemoteConfig{
			Method:  method,
			URL:     ep.URL,
			Timeout: cfg.Detectors.EndpointTimeout(ep),
			Headers: headers,
			Breaker: breaker,
		})
		if err != nil {
			log.Error().Err(err).Msg("Detector endpoint rejected; method stays inactive")
			continue
		}
		gw.Register(method, remote)
		log.Info().Str("collaborator", remote.Name()).Msg("Remote detector registered")
	}

	logging.Info().Interface("modules", gw.ModuleStatus()).Msg("Detection modules")
	return gw
}
