// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/ocms-nav/internal/cache"
	"github.com/olegiv/ocms-nav/internal/middleware"
	"github.com/olegiv/ocms-nav/internal/version"
)

// Check statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const checkTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	db           *sql.DB
	cache        cache.Cacher
	cacheBackend string
	version      version.Info
	startTime    time.Time
}

// NewHealthHandler creates a new health handler. c may be nil when the
// public response cache is disabled.
func NewHealthHandler(db *sql.DB, c cache.Cacher, cacheBackend string, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:           db,
		cache:        c,
		cacheBackend: cacheBackend,
		version:      info,
		startTime:    time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed health response for API key holders.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutines"`
	NumCPU       int    `json:"numCpus"`
	MemAlloc     string `json:"memAlloc"`
	MemSys       string `json:"memSys"`
}

// Health handles GET /health. Anonymous callers get the overall status
// only; requests carrying an API key also get the individual checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	cacheCheck := h.checkCache(r.Context())

	// The public cache fails open, so an unreachable cache degrades the
	// service without making it unavailable.
	overall := StatusHealthy
	switch {
	case dbCheck.Status != StatusHealthy:
		overall = StatusUnhealthy
	case cacheCheck.Status != StatusHealthy:
		overall = StatusDegraded
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	if middleware.GetAPIKey(r) == nil {
		writeHealthJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks: map[string]Check{
			"database": dbCheck,
			"cache":    cacheCheck,
		},
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
	}

	writeHealthJSON(w, code, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. The service is ready once its
// database answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	if dbCheck.Status != StatusHealthy {
		resp := map[string]string{"status": "not_ready"}
		if middleware.GetAPIKey(r) != nil {
			resp["message"] = dbCheck.Message
		}
		writeHealthJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: StatusHealthy, Message: "Connected", Latency: latency.String()}
}

func (h *HealthHandler) checkCache(ctx context.Context) Check {
	if h.cache == nil {
		return Check{Status: StatusHealthy, Message: "Disabled"}
	}

	pinger, ok := h.cache.(cache.Pinger)
	if !ok {
		return Check{Status: StatusHealthy, Message: h.cacheBackend}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := pinger.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: StatusDegraded, Message: h.cacheBackend + ": " + err.Error(), Latency: latency.String()}
	}
	return Check{Status: StatusHealthy, Message: h.cacheBackend, Latency: latency.String()}
}

func writeHealthJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
