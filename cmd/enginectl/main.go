// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package main is the entry point for enginectl, the storage engine's
// standalone process.
//
// # Application Architecture
//
// The process initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, config file, env)
//  2. Logging: structured zerolog, configured from the loaded config
//  3. KV backend: BadgerDB, wrapped in a gobreaker circuit breaker
//  4. Engine: partition manager, stats cache, dynamic index, write buffer,
//     query pipeline, and the background retention sweep loop
//  5. Ops HTTP server: /healthz, /metrics, /capacity, /partitions,
//     /partitions/monthly
//
// # Signal Handling
//
// enginectl handles graceful shutdown on SIGINT and SIGTERM: the ops HTTP
// server stops accepting new connections, then the engine is closed, which
// flushes every buffered row, stops the retention loop, and closes the KV
// backend.
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

	"github.com/plenoaudit/logengine/internal/circuit"
	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/engine"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/opsapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("kv_path", cfg.KV.Path).Msg("starting enginectl")

	kv, err := kvstore.Open(cfg.KV)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open kv backend")
	}

	eng, err := engine.New(*cfg, circuit.Wrap(kv, cfg.Circuit))
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize engine")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      opsapi.NewRouter(eng, nil),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("ops http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serverErrCh:
		logging.Error().Err(err).Msg("ops http server exited unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("ops http server shutdown did not complete cleanly")
	}

	if err := eng.Close(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("engine close reported errors")
	}

	logging.Info().Msg("enginectl stopped gracefully")
}
