// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

/*
Package config loads ThreatHub configuration.

Sources are layered with Koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/threathub/config.yaml)
 3. Environment variables (see envMappings and the DETECTOR_* family)

Detector endpoints are set per method, either in YAML:

	detectors:
	  endpoints:
	    signature:
	      url: http://signature-svc:9000/detect
	      timeout: 5s

or through the environment as DETECTOR_<METHOD>_URL, DETECTOR_<METHOD>_TIMEOUT,
DETECTOR_<METHOD>_API_KEY and DETECTOR_<METHOD>_WEIGHT, for example
DETECTOR_SOCIAL_ENGINEERING_URL.
*/
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Hub       HubConfig       `koanf:"hub"`
	Store     StoreConfig     `koanf:"store"`
	Detectors DetectorsConfig `koanf:"detectors"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	NATS      NATSConfig      `koanf:"nats"`
}

// ServerConfig holds HTTP listener settings.
//
// Environment Variables:
//   - HTTP_HOST, HTTP_PORT
//   - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
//   - SHUTDOWN_TIMEOUT
//   - ENVIRONMENT: development or production
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
	Version         string        `koanf:"version"`
}

// HubConfig tunes the live channel.
type HubConfig struct {
	// SendTimeout bounds a single subscriber send during a broadcast.
	SendTimeout time.Duration `koanf:"send_timeout"`
	// InitialAlerts is how many recent alerts the initial envelope carries.
	InitialAlerts int `koanf:"initial_alerts"`
	// InboundRate is messages per second accepted from one client.
	InboundRate  float64 `koanf:"inbound_rate"`
	InboundBurst int     `koanf:"inbound_burst"`
}

// StoreConfig bounds the in-memory store.
type StoreConfig struct {
	HistoryCapacity int `koanf:"history_capacity"`
	// MaxAlerts caps the ledger. 0 keeps every alert.
	MaxAlerts int `koanf:"max_alerts"`
}

// DetectorEndpoint binds one detection method to a remote detector.
type DetectorEndpoint struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	APIKey  string        `koanf:"api_key"`
}

// DetectorsConfig configures the detection gateway.
type DetectorsConfig struct {
	// Timeout applies to endpoints that do not set their own.
	Timeout   time.Duration               `koanf:"timeout"`
	Endpoints map[string]DetectorEndpoint `koanf:"endpoints"`
	// Weights are reported on the detection stats endpoint.
	Weights map[string]float64 `koanf:"weights"`

	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	// MaxBodyBytes caps detection request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// NATSConfig configures the optional alert event bus.
type NATSConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	EmbeddedServer   bool          `koanf:"embedded_server"`
	Host             string        `koanf:"host"`
	Port             int           `koanf:"port"`
	StoreDir         string        `koanf:"store_dir"`
	JetStream        bool          `koanf:"jetstream"`
	SubjectPrefix    string        `koanf:"subject_prefix"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// EndpointTimeout returns the endpoint's timeout or the detector default.
func (c *DetectorsConfig) EndpointTimeout(e DetectorEndpoint) time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return c.Timeout
}
