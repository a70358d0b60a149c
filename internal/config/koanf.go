// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/threathub/config.yaml",
	"/etc/threathub/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration without reading files or
// environment variables.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
			Version:         "2.0.0",
		},
		Hub: HubConfig{
			SendTimeout:   250 * time.Millisecond,
			InitialAlerts: 50,
			InboundRate:   5,
			InboundBurst:  10,
		},
		Store: StoreConfig{
			HistoryCapacity: 1000,
			MaxAlerts:       0,
		},
		Detectors: DetectorsConfig{
			Timeout:   10 * time.Second,
			Endpoints: map[string]DetectorEndpoint{},
			Weights: map[string]float64{
				"signature":          0.25,
				"file_analysis":      0.20,
				"behavioral":         0.25,
				"encrypted":          0.15,
				"social_engineering": 0.15,
			},
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerTimeout:      30 * time.Second,
			BreakerInterval:     time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			MaxBodyBytes:    1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			Enabled:          false,
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   false,
			Host:             "127.0.0.1",
			Port:             4222,
			StoreDir:         "/data/nats/jetstream",
			SubjectPrefix:    "threathub.alerts",
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Load reads defaults, the config file and the environment, then validates.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigFile returns the file Load would read, or "".
func ConfigFile() string {
	return findConfigFile()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"http_idle_timeout":  "server.idle_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",
	"environment":        "server.environment",

	// Hub
	"ws_send_timeout":   "hub.send_timeout",
	"ws_initial_alerts": "hub.initial_alerts",
	"ws_inbound_rate":   "hub.inbound_rate",
	"ws_inbound_burst":  "hub.inbound_burst",

	// Store
	"alert_history_capacity": "store.history_capacity",
	"max_alerts":             "store.max_alerts",

	// Detectors
	"detector_timeout":         "detectors.timeout",
	"detector_breaker_min":     "detectors.breaker_min_requests",
	"detector_breaker_ratio":   "detectors.breaker_failure_ratio",
	"detector_breaker_timeout": "detectors.breaker_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"max_body_bytes":      "security.max_body_bytes",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// NATS
	"nats_enabled":           "nats.enabled",
	"nats_url":               "nats.url",
	"nats_embedded":          "nats.embedded_server",
	"nats_host":              "nats.host",
	"nats_port":              "nats.port",
	"nats_store_dir":         "nats.store_dir",
	"nats_jetstream":         "nats.jetstream",
	"nats_subject_prefix":    "nats.subject_prefix",
	"nats_max_reconnects":    "nats.max_reconnects",
	"nats_reconnect_wait":    "nats.reconnect_wait",
	"nats_failure_threshold": "nats.failure_threshold",
}

// detectorEnvFields maps DETECTOR_<METHOD>_<FIELD> suffixes to keys. Longer
// suffixes come first so _API_KEY is not read as a method ending in _API.
var detectorEnvFields = []struct {
	suffix string
	key    string
}{
	{"_api_key", "detectors.endpoints.%s.api_key"},
	{"_timeout", "detectors.endpoints.%s.timeout"},
	{"_weight", "detectors.weights.%s"},
	{"_url", "detectors.endpoints.%s.url"},
}

// envTransformFunc maps environment variable names to koanf paths. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	if rest, ok := strings.CutPrefix(key, "detector_"); ok {
		for _, f := range detectorEnvFields {
			if method, ok := strings.CutSuffix(rest, f.suffix); ok && method != "" {
				return fmt.Sprintf(f.key, method)
			}
		}
	}
	return ""
}

// WatchLogLevel re-reads path on every change and hands the new
// logging.level to apply. Other settings need a restart.
func WatchLogLevel(path string, apply func(level string)) error {
	provider := file.Provider(path)
	return provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		k := koanf.New(".")
		if err := k.Load(provider, yaml.Parser()); err != nil {
			return
		}
		if level := k.String("logging.level"); level != "" {
			apply(level)
		}
	})
}
