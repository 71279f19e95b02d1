// Package main is the entry point for the NEWagro storefront server.
// It loads configuration, connects to services, warms the catalog
// snapshot, sets up routing, and starts the HTTP server with graceful
// shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newagro/internal/cache"
	"newagro/internal/catalog"
	"newagro/internal/config"
	"newagro/internal/database"
	"newagro/internal/handlers"
	"newagro/internal/render"
	"newagro/internal/router"
	"newagro/internal/session"
	"newagro/internal/storage"
	"newagro/internal/store"
)

func main() {
	// Structured logger — outputs text with debug level; production
	// deployments filter at the collector.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (session store + page cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient)

	// Initialize the HTML template renderer. In dev mode, templates load
	// assets from CDN; in production they use compiled local files.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	productStore := store.NewProductStore(db)

	// Connect to S3-compatible object storage (optional — the catalog
	// works without it, image uploads are just disabled).
	var objectStorage handlers.ObjectStorage
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		objectStorage = storageClient
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"bucket", cfg.S3Bucket,
		)
	} else {
		slog.Warn("s3 storage not configured — image uploads disabled")
	}

	// Initialize the L2 page cache (full-page HTML in Valkey).
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// Build the catalog loader and warm the snapshot. A slow or down
	// database does not block startup: the watchdog bounds the wait and
	// the first requests render the loading or error state.
	loader := catalog.NewLoader(productStore, cfg.CatalogTimeout, catalog.DefaultMaxAge)
	go loader.Load(context.Background())
	defer loader.Stop()

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(renderer, productStore, loader, pageCache, objectStorage)
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore)
	publicHandlers := handlers.NewPublic(renderer, loader, productStore, pageCache)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, userStore, adminHandlers, authHandlers, publicHandlers)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate a catalog load that runs up to the watchdog deadline,
	// plus sequential image upload batches.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
