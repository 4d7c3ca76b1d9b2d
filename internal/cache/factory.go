// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Backend names reported by NewCache.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string
	// Prefix is the Redis key prefix.
	Prefix     string
	DefaultTTL time.Duration
	// MaxSize is the entry bound of the memory backend.
	MaxSize int
	// CleanupInterval is the expiry sweep interval of the memory backend.
	CleanupInterval time.Duration
	// FallbackToMemory uses the memory backend when Redis is unreachable.
	FallbackToMemory bool
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:           "ocms:",
		DefaultTTL:       time.Hour,
		MaxSize:          DefaultMemoryCacheSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	}
}

// NewCache creates a cache for cfg and reports the backend in use. Without a
// Redis URL it returns a memory cache. A Redis connection failure returns
// the error, or a memory cache when FallbackToMemory is set.
func NewCache(cfg Config, logger *slog.Logger) (Cacher, string, error) {
	if cfg.RedisURL != "" {
		redisCache, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			logger.Info("using redis cache", "url", SanitizeRedisURL(cfg.RedisURL))
			return redisCache, BackendRedis, nil
		}
		if !cfg.FallbackToMemory {
			return nil, "", err
		}
		logger.Warn("redis unavailable, falling back to memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL),
			"error", err,
		)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), BackendMemory, nil
}

// SanitizeRedisURL masks the password of a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User == nil {
		return u.String()
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
