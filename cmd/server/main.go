// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/lenscape/internal/api"
	"github.com/tomtom215/lenscape/internal/auth"
	"github.com/tomtom215/lenscape/internal/cache"
	"github.com/tomtom215/lenscape/internal/config"
	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/media"
	"github.com/tomtom215/lenscape/internal/store"
	"github.com/tomtom215/lenscape/internal/supervisor"
	"github.com/tomtom215/lenscape/internal/supervisor/services"
	"github.com/tomtom215/lenscape/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	siteName           = "Lenscape"
	cacheSweepInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config is not available yet
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("db_in_memory", cfg.Database.InMemory).
		Str("media_provider", cfg.Media.Provider).
		Msg("Configuration loaded")

	db, err := store.Open(store.Options{Path: cfg.Database.Path, InMemory: cfg.Database.InMemory})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A misconfigured media host disables uploads; the storefront keeps running.
	var host api.MediaHost
	breaker, err := media.NewFromConfig(ctx, cfg.Media)
	if err != nil {
		logging.Warn().Err(err).Msg("Media host unavailable, uploads disabled")
	} else {
		host = breaker
		logging.Info().Str("provider", breaker.Name()).Msg("Media host configured")
	}

	catalogCache := cache.New(cfg.Cache.TTL)

	pages, err := web.New(db, siteName)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse page templates")
	}

	handler := api.NewHandler(api.Dependencies{
		Config:   cfg,
		Store:    db,
		Sessions: auth.NewSessionManager(auth.SessionConfigFromConfig(cfg)),
		Media:    host,
		Cache:    catalogCache,
		Pages:    pages,
		Version:  version,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromConfig(cfg)))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	tree.AddDataService(services.NewStoreGCService(db, cfg.Database.GCInterval))
	tree.AddDataService(services.NewCacheSweepService(catalogCache, cacheSweepInterval))

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	stop()

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Server stopped gracefully")
}
