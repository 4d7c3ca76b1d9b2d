// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for the menu engine.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ocms_nav"

// Regeneration results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds every collector registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RegenerationsTotal   *prometheus.CounterVec
	RegenerationDuration prometheus.Histogram

	CacheLookupsTotal *prometheus.CounterVec
	MutationsTotal    *prometheus.CounterVec
	ReconciledTotal   prometheus.Counter
}

// New creates the collectors and registers them with registry. A nil
// registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RegenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "menu_regenerations_total",
				Help:      "Total number of menu cache regenerations",
			},
			[]string{"result"},
		),
		RegenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "menu_regeneration_duration_seconds",
				Help:      "Menu cache regeneration duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "public_cache_lookups_total",
				Help:      "Public menu response cache lookups by result",
			},
			[]string{"result"},
		),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "menu_mutations_total",
				Help:      "Completed menu and item mutations by operation",
			},
			[]string{"operation"},
		),
		ReconciledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "menu_reconciled_total",
				Help:      "Stale menus regenerated by the reconciler",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RegenerationsTotal,
		m.RegenerationDuration,
		m.CacheLookupsTotal,
		m.MutationsTotal,
		m.ReconciledTotal,
	)

	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRegeneration records one regeneration attempt.
func (m *Metrics) ObserveRegeneration(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.RegenerationsTotal.WithLabelValues(result).Inc()
	m.RegenerationDuration.Observe(d.Seconds())
}

// ObserveCacheLookup records a public cache lookup result.
func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveMutation records a completed mutation such as "create_menu".
func (m *Metrics) ObserveMutation(operation string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(operation).Inc()
}

// AddReconciled adds n to the reconciled menus counter.
func (m *Metrics) AddReconciled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReconciledTotal.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments HTTP requests. Routes are labelled by their chi
// pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
