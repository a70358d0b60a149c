// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks ranges, enums and URLs.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateHub(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateDetectors(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be one of: development, production, test")
	}
	return nil
}

func (c *Config) validateHub() error {
	if c.Hub.SendTimeout <= 0 {
		return fmt.Errorf("WS_SEND_TIMEOUT must be positive")
	}
	if c.Hub.InitialAlerts < 0 || c.Hub.InitialAlerts > 1000 {
		return fmt.Errorf("WS_INITIAL_ALERTS must be between 0 and 1000")
	}
	if c.Hub.InboundRate <= 0 || c.Hub.InboundBurst < 1 {
		return fmt.Errorf("WS_INBOUND_RATE must be positive and WS_INBOUND_BURST at least 1")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.HistoryCapacity < 1 {
		return fmt.Errorf("ALERT_HISTORY_CAPACITY must be at least 1")
	}
	if c.Store.MaxAlerts < 0 {
		return fmt.Errorf("MAX_ALERTS must not be negative")
	}
	return nil
}

func (c *Config) validateDetectors() error {
	if c.Detectors.Timeout <= 0 {
		return fmt.Errorf("DETECTOR_TIMEOUT must be positive")
	}
	if r := c.Detectors.BreakerFailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("DETECTOR_BREAKER_RATIO must be in (0, 1]")
	}
	for method, ep := range c.Detectors.Endpoints {
		if ep.URL == "" {
			continue
		}
		name := "DETECTOR_" + strings.ToUpper(method) + "_URL"
		if err := validateEndpointURL(ep.URL, name); err != nil {
			return err
		}
		if ep.Timeout < 0 {
			return fmt.Errorf("DETECTOR_%s_TIMEOUT must not be negative", strings.ToUpper(method))
		}
	}
	for method, w := range c.Detectors.Weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("DETECTOR_%s_WEIGHT must be between 0 and 1", strings.ToUpper(method))
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if c.Security.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1")
	}
	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.SubjectPrefix == "" || strings.ContainsAny(c.NATS.SubjectPrefix, "*> ") {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must be a literal subject")
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.Port < -1 || c.NATS.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535, or -1 for random")
		}
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateEndpointURL accepts http(s) URLs with a host. Paths are allowed
// since detector services expose their route directly.
func validateEndpointURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
