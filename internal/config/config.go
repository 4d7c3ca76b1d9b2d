// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakKeys contains example API keys that must be rejected.
var knownWeakKeys = []string{
	"change-me-to-a-32-character-api-key",
	"REPLACE_WITH_YOUR_OWN_BOOTSTRAP_API_KEY",
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OCMS_DB_PATH" envDefault:"./data/ocms-nav.db"`
	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"OCMS_LOG_FORMAT" envDefault:"text"`

	// Cache configuration
	RedisURL     string `env:"OCMS_REDIS_URL"`                         // Optional Redis URL for the public response cache
	CachePrefix  string `env:"OCMS_CACHE_PREFIX" envDefault:"ocms:"`   // Redis key prefix
	CacheTTL     int    `env:"OCMS_CACHE_TTL" envDefault:"3600"`       // Cache TTL in seconds
	CacheMaxSize int    `env:"OCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Menu writes
	AtomicMenuWrites   bool   `env:"OCMS_ATOMIC_MENU_WRITES" envDefault:"false"`
	ReconcileSchedule  string `env:"OCMS_RECONCILE_SCHEDULE" envDefault:"@every 5m"`
	EventRetentionDays int    `env:"OCMS_EVENT_RETENTION_DAYS" envDefault:"30"`

	// API
	BootstrapAPIKey   string  `env:"OCMS_BOOTSTRAP_API_KEY"`
	APIRateLimit      float64 `env:"OCMS_API_RATE_LIMIT" envDefault:"10"`
	APIRateBurst      int     `env:"OCMS_API_RATE_BURST" envDefault:"20"`
	PublicRateLimit   float64 `env:"OCMS_PUBLIC_RATE_LIMIT" envDefault:"50"`
	PublicRateBurst   int     `env:"OCMS_PUBLIC_RATE_BURST" envDefault:"100"`
	PublicCacheMaxAge int     `env:"OCMS_PUBLIC_CACHE_MAX_AGE" envDefault:"60"` // Cache-Control max-age of public reads in seconds
	RequestTimeout    int     `env:"OCMS_REQUEST_TIMEOUT" envDefault:"30"`      // Seconds
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// ReconcileEnabled returns true if the stale menu reconciler should run.
// An empty variable falls back to the default, so "off" disables it.
func (c Config) ReconcileEnabled() bool {
	s := strings.TrimSpace(c.ReconcileSchedule)
	return s != "" && !strings.EqualFold(s, "off")
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// RequestTimeoutDuration returns the per-request timeout as a duration.
func (c Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// MinAPIKeyLength is the minimum required length for the bootstrap API key.
const MinAPIKeyLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("OCMS_LOG_LEVEL must be one of %s, got %q",
			strings.Join(validLogLevels, ", "), cfg.LogLevel)
	}
	if !slices.Contains(validLogFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("OCMS_LOG_FORMAT must be one of %s, got %q",
			strings.Join(validLogFormats, ", "), cfg.LogFormat)
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("OCMS_SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("OCMS_CACHE_TTL must be positive, got %d", cfg.CacheTTL)
	}
	if cfg.CacheMaxSize <= 0 {
		return nil, fmt.Errorf("OCMS_CACHE_MAX_SIZE must be positive, got %d", cfg.CacheMaxSize)
	}
	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return nil, fmt.Errorf("OCMS_API_RATE_LIMIT and OCMS_API_RATE_BURST must be positive")
	}
	if cfg.PublicRateLimit <= 0 || cfg.PublicRateBurst <= 0 {
		return nil, fmt.Errorf("OCMS_PUBLIC_RATE_LIMIT and OCMS_PUBLIC_RATE_BURST must be positive")
	}
	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("OCMS_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("OCMS_REQUEST_TIMEOUT must be positive, got %d", cfg.RequestTimeout)
	}

	if err := validateBootstrapKey(cfg.BootstrapAPIKey); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateBootstrapKey checks the optional bootstrap API key.
func validateBootstrapKey(key string) error {
	if key == "" {
		return nil
	}

	if len(key) < MinAPIKeyLength {
		return fmt.Errorf("OCMS_BOOTSTRAP_API_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure key with: openssl rand -hex 32",
			MinAPIKeyLength, len(key))
	}

	if slices.Contains(knownWeakKeys, key) {
		return fmt.Errorf("OCMS_BOOTSTRAP_API_KEY is a known example value and must not be used; " +
			"generate a secure key with: openssl rand -hex 32")
	}

	if !hasMinimumEntropy(key) {
		slog.Warn("OCMS_BOOTSTRAP_API_KEY has low character diversity; " +
			"consider generating a random key with: openssl rand -hex 32")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 2 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 2
}
