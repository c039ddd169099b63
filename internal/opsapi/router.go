// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package opsapi is the operator-facing HTTP surface for cmd/enginectl:
// liveness, Prometheus scraping, and read-only introspection of capacity
// and partition state. It never touches the write path.
package opsapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plenoaudit/logengine/internal/engine"
	"github.com/plenoaudit/logengine/internal/partition"
)

// EngineAPI is the narrow slice of *engine.Engine the ops surface reads.
// Declared as an interface so tests can exercise the router against a fake
// instead of a real BadgerDB-backed engine.
type EngineAPI interface {
	GetCapacityInfo(ctx context.Context) (engine.CapacityInfo, error)
	GetPartitionStats(ctx context.Context) partition.Stats
	GetMonthlyStats(ctx context.Context) partition.MonthlyStats
}

// rateLimitHealth mirrors the teacher's permissive health-endpoint rate
// limit: frequent monitoring should never trip it.
var rateLimitHealth = struct {
	requests int
	window   time.Duration
}{requests: 1000, window: time.Minute}

// rateLimitIntrospection is the moderate limit applied to /capacity and
// /partitions, which walk in-memory maps but are still operator-facing
// rather than hot-path traffic.
var rateLimitIntrospection = struct {
	requests int
	window   time.Duration
}{requests: 120, window: time.Minute}

// handler closes over the engine and the process start time used for
// uptime reporting.
type handler struct {
	engine    EngineAPI
	startedAt time.Time
}

// NewRouter builds the chi-based ops HTTP handler: /healthz, /metrics,
// /capacity, /partitions, /partitions/monthly. corsOrigins empty means no cross-origin access is
// granted, matching the teacher's secure-by-default CORS posture.
func NewRouter(eng EngineAPI, corsOrigins []string) http.Handler {
	h := &handler{engine: eng, startedAt: time.Now()}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET"},
	}))

	r.Route("/healthz", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rateLimitHealth.requests, rateLimitHealth.window))
		r.Get("/", h.healthz)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/capacity", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rateLimitIntrospection.requests, rateLimitIntrospection.window))
		r.Get("/", h.capacity)
	})

	r.Route("/partitions", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rateLimitIntrospection.requests, rateLimitIntrospection.window))
		r.Get("/", h.partitions)
		r.Get("/monthly", h.monthlyPartitions)
	})

	return r
}
