// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for API key authentication,
// permission checks, rate limiting and response headers.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
)

// ContextKey is the type for request context keys set by this package.
type ContextKey string

// ContextKeyAPIKey is the context key for API key data.
const ContextKeyAPIKey ContextKey = "api_key"

// maxLimiters bounds the per-client limiter maps.
const maxLimiters = 10000

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// keyRejection describes why a presented key was refused.
type keyRejection struct {
	status  int
	code    string
	message string
}

func unauthorized(message string) *keyRejection {
	return &keyRejection{status: http.StatusUnauthorized, code: "unauthorized", message: message}
}

// lookupAPIKey resolves the bearer token of r. It returns (nil, nil) when
// no Authorization header is present.
func lookupAPIKey(r *http.Request, queries *store.Queries, now time.Time) (*store.ApiKey, *keyRejection) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	scheme, rawKey, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, unauthorized("Invalid Authorization header format. Use: Bearer <api_key>")
	}
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, unauthorized("API key is empty")
	}

	apiKey, err := queries.GetAPIKeyByHash(r.Context(), model.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unauthorized("Invalid API key")
		}
		slog.Error("failed to validate API key", "error", err)
		return nil, &keyRejection{
			status:  http.StatusInternalServerError,
			code:    "internal_error",
			message: "Failed to validate API key",
		}
	}

	if !apiKey.IsActive {
		return nil, unauthorized("API key is inactive")
	}
	if apiKey.ExpiresAt.Valid && now.After(apiKey.ExpiresAt.Time) {
		return nil, unauthorized("API key has expired")
	}

	return &apiKey, nil
}

// APIKeyAuth creates middleware that requires a valid Bearer API key.
func APIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, rejected := lookupAPIKey(r, queries, time.Now())
			if rejected != nil {
				WriteAPIError(w, rejected.status, rejected.code, rejected.message, nil)
				return
			}
			if apiKey == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", nil)
				return
			}

			updateAPIKeyLastUsed(queries, apiKey.ID)
			next.ServeHTTP(w, r.WithContext(WithAPIKey(r.Context(), *apiKey)))
		})
	}
}

// OptionalAPIKeyAuth adds the API key to the context when a valid one is
// presented. Missing or invalid keys fall through as anonymous requests.
func OptionalAPIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, _ := lookupAPIKey(r, queries, time.Now())
			if apiKey == nil {
				next.ServeHTTP(w, r)
				return
			}

			updateAPIKeyLastUsed(queries, apiKey.ID)
			next.ServeHTTP(w, r.WithContext(WithAPIKey(r.Context(), *apiKey)))
		})
	}
}

// WithAPIKey returns a copy of ctx carrying apiKey.
func WithAPIKey(ctx context.Context, apiKey store.ApiKey) context.Context {
	return context.WithValue(ctx, ContextKeyAPIKey, apiKey)
}

// GetAPIKey retrieves the API key from the request context.
// Returns nil if no API key is in context.
func GetAPIKey(r *http.Request) *store.ApiKey {
	apiKey, ok := r.Context().Value(ContextKeyAPIKey).(store.ApiKey)
	if !ok {
		return nil
	}
	return &apiKey
}

// HasPermission reports whether the request carries an API key granting
// permission.
func HasPermission(r *http.Request, permission string) bool {
	apiKey := GetAPIKey(r)
	if apiKey == nil {
		return false
	}
	return slices.Contains(model.ParsePermissions(apiKey.Permissions), permission)
}

// updateAPIKeyLastUsed updates the last used timestamp in a background goroutine.
func updateAPIKeyLastUsed(queries *store.Queries, keyID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queries.UpdateAPIKeyLastUsed(ctx, store.UpdateAPIKeyLastUsedParams{
			LastUsedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
			ID:         keyID,
		}); err != nil {
			slog.Debug("failed to update api key last used", "key_id", keyID, "error", err)
		}
	}()
}

// RequirePermission creates middleware that requires a specific API permission.
// This should be used after APIKeyAuth middleware.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetAPIKey(r) == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "API key required", nil)
				return
			}
			if !HasPermission(r, permission) {
				WriteAPIError(w, http.StatusForbidden, "forbidden", "API key lacks required permission: "+permission, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	if len(lc.limiters) >= maxLimiters {
		lc.limiters = make(map[K]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

func (lc *limiterCache[K]) size() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.limiters)
}

// APIRateLimit creates middleware that rate limits requests per API key.
// rps is requests per second, burst is the maximum burst size.
// Requests without a key pass through untouched.
func APIRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterCache[string](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r)
			if apiKey == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiters.get(apiKey.ID).Allow() {
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GlobalRateLimiter rate limits requests per client IP.
type GlobalRateLimiter struct {
	limiters *limiterCache[string]
	logger   *slog.Logger
}

// NewGlobalRateLimiter creates a new per-IP rate limiter.
func NewGlobalRateLimiter(rps float64, burst int, logger *slog.Logger) *GlobalRateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GlobalRateLimiter{
		limiters: newLimiterCache[string](rps, burst),
		logger:   logger,
	}
}

// Middleware returns the rate limiting middleware. Rejections are JSON errors.
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if !rl.limiters.get(ip).Allow() {
				rl.logger.Warn("public rate limit exceeded", "ip", ip, "path", r.URL.Path, "category", model.EventCategoryAuth)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// X-Forwarded-For can carry a proxy chain; the first hop is the client.
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}

	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
