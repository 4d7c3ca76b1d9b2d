// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-nav/internal/cache"
	"github.com/olegiv/ocms-nav/internal/config"
	"github.com/olegiv/ocms-nav/internal/handler"
	"github.com/olegiv/ocms-nav/internal/handler/api"
	"github.com/olegiv/ocms-nav/internal/logging"
	"github.com/olegiv/ocms-nav/internal/metrics"
	"github.com/olegiv/ocms-nav/internal/middleware"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/scheduler"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	createKey := flag.Bool("create-api-key", false, "Create an API key, print it and exit")
	keyName := flag.String("api-key-name", "cli", "Name of the API key created by -create-api-key")
	keyPerms := flag.String("api-key-permissions", strings.Join(model.AllPermissions(), ","),
		"Comma-separated permissions of the API key created by -create-api-key")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ocms-nav - Navigation menu service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH              SQLite database path (default: ./data/ocms-nav.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_HOST          Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT          Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_LOG_LEVEL            debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_LOG_FORMAT           text|json (default: text)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL            Redis URL for the public menu cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ATOMIC_MENU_WRITES   Regenerate menu caches inside the item write transaction (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_RECONCILE_SCHEDULE   Cron schedule of the stale menu reconciler, \"off\" disables (default: @every 5m)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_BOOTSTRAP_API_KEY    Admin API key ensured at startup (optional, min 32 bytes)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	var err error
	if *createKey {
		err = createAPIKey(*keyName, *keyPerms)
	} else {
		err = run(info)
	}
	if err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// openDB loads the configuration and opens the migrated database.
func openDB() (*config.Config, *sql.DB, error) {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing database: %w", err)
	}

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return cfg, db, nil
}

// createAPIKey handles -create-api-key.
func createAPIKey(name, perms string) error {
	var permissions []string
	for p := range strings.SplitSeq(perms, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !model.IsValidPermission(p) {
			return fmt.Errorf("unknown permission %q", p)
		}
		permissions = append(permissions, p)
	}
	if len(permissions) == 0 {
		return errors.New("at least one permission is required")
	}

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	raw, key, err := store.CreateAPIKey(context.Background(), db, name, permissions)
	if err != nil {
		return err
	}

	_, _ = fmt.Printf("API key created\n  name:        %s\n  id:          %s\n  permissions: %s\n  key:         %s\n\n",
		key.Name, key.ID, strings.Join(permissions, ","), raw)
	_, _ = fmt.Println("Store the key now; it cannot be shown again.")
	return nil
}

func run(info version.Info) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Setup logger; WARN and ERROR records also go to the event log
	level := logging.ParseLevel(cfg.LogLevel)
	logger := slog.New(logging.NewEventLogHandler(logging.NewHandler(os.Stdout, level, cfg.LogFormat), db))
	slog.SetDefault(logger)
	logger.Info("database ready", "version", info.Version)

	ctx := context.Background()
	if cfg.BootstrapAPIKey != "" {
		if err := store.SeedAPIKey(ctx, db, cfg.BootstrapAPIKey); err != nil {
			return fmt.Errorf("seeding bootstrap api key: %w", err)
		}
	}

	m := metrics.New(nil)

	// Public menu response cache
	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisURL = cfg.RedisURL
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = cfg.CacheTTLDuration()
	cacheCfg.MaxSize = cfg.CacheMaxSize
	responseCache, backend, err := cache.NewCache(cacheCfg, logger)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = responseCache.Close() }()
	publicCache := cache.NewPublicMenuCache(responseCache, cfg.CacheTTLDuration(), logger, m)
	logger.Info("public menu cache initialized", "backend", backend)

	projector := service.NewProjector(db, publicCache, m, logger)
	events := service.NewEventService(db, logger)
	menus := service.NewMenuService(db, projector, events, logger, cfg.AtomicMenuWrites)
	logger.Info("menu service initialized", "atomic_writes", cfg.AtomicMenuWrites)

	// Catch up on menus left stale by an interrupted regeneration
	if n, err := menus.ReconcileStale(ctx); err != nil {
		logger.Warn("startup reconcile failed", "regenerated", n, "error", err)
	}

	sched := scheduler.New(logger)
	if cfg.ReconcileEnabled() {
		if err := sched.Register(scheduler.ReconcileJob(menus, cfg.ReconcileSchedule)); err != nil {
			return fmt.Errorf("registering reconciler: %w", err)
		}
	}
	if cfg.EventRetentionDays > 0 {
		retention := time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
		if err := sched.Register(scheduler.PruneEventsJob(events, retention, logger)); err != nil {
			return fmt.Errorf("registering event pruning: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	healthHandler := handler.NewHealthHandler(db, responseCache, backend, info)
	apiHandler := api.NewHandler(menus, projector, logger, info)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Timeout(cfg.RequestTimeoutDuration()))

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAPIKeyAuth(db))
		r.Get(handler.RouteHealth, healthHandler.Health)
		r.Get(handler.RouteHealthLive, healthHandler.Liveness)
		r.Get(handler.RouteHealthReady, healthHandler.Readiness)
	})
	r.Handle(handler.RouteMetrics, m.Handler())

	publicLimiter := middleware.NewGlobalRateLimiter(cfg.PublicRateLimit, cfg.PublicRateBurst, logger)
	r.Mount(handler.RouteAPIv1, apiHandler.Routes(db, api.RouteConfig{
		KeyRate:       cfg.APIRateLimit,
		KeyBurst:      cfg.APIRateBurst,
		PublicLimiter: publicLimiter,
		PublicMaxAge:  cfg.PublicCacheMaxAge,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteNotFound(w, "Route not found")
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeoutDuration() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
