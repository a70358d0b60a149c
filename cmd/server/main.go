// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/threathub/internal/api"
	"github.com/tomtom215/threathub/internal/config"
	"github.com/tomtom215/threathub/internal/dashboard"
	"github.com/tomtom215/threathub/internal/ingest"
	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/query"
	"github.com/tomtom215/threathub/internal/store"
	"github.com/tomtom215/threathub/internal/supervisor"
	"github.com/tomtom215/threathub/internal/supervisor/services"
	ws "github.com/tomtom215/threathub/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", cfg.Server.Version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting ThreatHub with supervisor tree")

	if path := config.ConfigFile(); path != "" {
		if err := config.WatchLogLevel(path, func(level string) {
			logging.SetLevelString(level)
			logging.Info().Str("level", level).Msg("Log level reloaded")
		}); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
		}
	}

	warnAboutSecurity(cfg)

	alertStore := store.New(store.Config{
		HistoryCapacity: cfg.Store.HistoryCapacity,
		MaxAlerts:       cfg.Store.MaxAlerts,
	})

	gateway := buildGateway(cfg)

	hub := ws.NewHub(ws.Config{SendTimeout: cfg.Hub.SendTimeout})

	bus, err := initEventBus(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}

	orchestrator := ingest.New(ingest.Config{}, gateway, alertStore, hub, bus.alertPublisher())

	handler := api.NewHandler(api.Dependencies{
		Config:       cfg,
		Orchestrator: orchestrator,
		Queries:      query.NewService(alertStore),
		Store:        alertStore,
		Aggregator:   dashboard.NewAggregator(alertStore, gateway),
		Gateway:      gateway,
		Hub:          hub,
	})
	router := api.NewRouter(handler, nil)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewHubService(hub))
	bus.addToSupervisor(tree, cfg.Server.ShutdownTimeout)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("ThreatHub stopped gracefully")
}

func warnAboutSecurity(cfg *config.Config) {
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins outside development")
			break
		}
	}
}
