package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/maneesh/lumina/internal/config"
	"github.com/maneesh/lumina/internal/gallery"
	"github.com/maneesh/lumina/internal/handlers"
	"github.com/maneesh/lumina/internal/media"
	"github.com/maneesh/lumina/internal/mediahost"
	"github.com/maneesh/lumina/internal/storage"
	"github.com/maneesh/lumina/internal/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	log.Println("Starting Lumina gallery service...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Service: %s, Port: %s", cfg.ServiceName, cfg.ServicePort)

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	// Initialize MySQL store (source of truth)
	log.Println("Connecting to MySQL...")
	store, err := storage.NewMySQLClient(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to initialize MySQL client: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.InitSchema(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := ensureDefaultTenant(ctx, store); err != nil {
		cancel()
		log.Fatalf("Failed to bootstrap default tenant: %v", err)
	}
	cancel()
	log.Println("MySQL client initialized")

	// Initialize Redis page cache. The cache is a pure optimization:
	// when it is absent or unreachable the engine serves straight from
	// the store.
	var cache gallery.PageCache
	var cachePinger handlers.Pinger
	if addr := cfg.GetRedisAddr(); addr != "" {
		log.Println("Connecting to Redis...")
		redisCache, err := storage.NewRedisCache(addr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Warning: Redis configured but unreachable, caching disabled: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
			cachePinger = redisCache
			log.Println("Redis cache initialized")
		}
	} else {
		log.Println("Redis not configured, caching disabled")
	}

	// Pick the media host: WordPress when credentials are present,
	// otherwise the self-hosted MinIO bucket.
	var host mediahost.Host
	if cfg.WPConfigured() {
		log.Printf("Using WordPress media host: %s", cfg.WPAPIURL)
		host = mediahost.NewWordPressClient(cfg.WPAPIURL, cfg.WPUser, cfg.WPPass)
	} else {
		log.Println("WordPress credentials missing, using MinIO media host")
		minioHost, err := mediahost.NewMinioHost(
			cfg.MinIOEndpoint,
			cfg.MinIOAccessKey,
			cfg.MinIOSecretKey,
			cfg.MinIOBucketName,
			cfg.MinIOUseSSL,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO media host: %v", err)
		}
		host = minioHost
	}

	// Assemble the core
	engine := gallery.NewQueryEngine(store, cache)
	coordinator := gallery.NewCoordinator(store, cache)
	albums := gallery.NewAlbumService(store)
	mediaService := media.NewService(host, coordinator, cfg.UploadWorkers)

	// Initialize handlers
	assetHandler := handlers.NewAssetHandler(engine, coordinator, albums)
	mediaHandler := handlers.NewMediaHandler(mediaService, cfg.GetMaxUploadBytes())
	albumHandler := handlers.NewAlbumHandler(albums)
	adminHandler := handlers.NewAdminHandler(store)
	proxyHandler := handlers.NewProxyHandler(store, cfg.WPAPIURL)
	healthHandler := handlers.NewHealthHandler(store, cachePinger)

	// Setup HTTP router
	router := mux.NewRouter()

	// Health check endpoint (no tracing needed)
	router.Handle("/health", healthHandler).Methods("GET")

	traced := func(name string, h http.HandlerFunc) http.Handler {
		return otelhttp.NewHandler(h, name)
	}
	router.Handle("/api/assets", traced("GET /api/assets", assetHandler.List)).Methods("GET")
	router.Handle("/api/assets/{asset_id}/visibility",
		traced("PATCH /api/assets/{asset_id}/visibility", assetHandler.UpdateVisibility)).Methods("PATCH")
	router.Handle("/api/assets/album", traced("POST /api/assets/album", assetHandler.MoveToAlbum)).Methods("POST")

	router.Handle("/upload", traced("POST /upload", mediaHandler.Upload)).Methods("POST")
	router.Handle("/delete", traced("POST /delete", mediaHandler.Delete)).Methods("POST")
	router.Handle("/proxy_download", traced("GET /proxy_download", proxyHandler.Download)).Methods("GET")

	router.Handle("/api/albums", traced("GET /api/albums", albumHandler.List)).Methods("GET")
	router.Handle("/api/albums", traced("POST /api/albums", albumHandler.Create)).Methods("POST")
	router.Handle("/api/albums/{album_id}", traced("GET /api/albums/{album_id}", albumHandler.Get)).Methods("GET")
	router.Handle("/api/albums/{album_id}", traced("PATCH /api/albums/{album_id}", albumHandler.Update)).Methods("PATCH")
	router.Handle("/api/albums/{album_id}", traced("DELETE /api/albums/{album_id}", albumHandler.Delete)).Methods("DELETE")

	router.Handle("/api/settings", traced("GET /api/settings", adminHandler.GetSettings)).Methods("GET")
	router.Handle("/api/settings", traced("PATCH /api/settings", adminHandler.UpdateSettings)).Methods("PATCH")
	router.Handle("/admin/users", traced("GET /admin/users", adminHandler.ListUsers)).Methods("GET")
	router.Handle("/admin/users", traced("POST /admin/users", adminHandler.CreateUser)).Methods("POST")
	router.Handle("/admin/users/{user_id}",
		traced("DELETE /admin/users/{user_id}", adminHandler.DeactivateUser)).Methods("DELETE")

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      router,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on port %s", cfg.ServicePort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// ensureDefaultTenant creates the default tenant on first start
func ensureDefaultTenant(ctx context.Context, store *storage.MySQLClient) error {
	tenant, err := store.GetTenantBySlug(ctx, "default")
	if err != nil {
		return err
	}
	if tenant != nil {
		return nil
	}
	id, err := store.CreateTenant(ctx, "Default", "default")
	if err == storage.ErrConflict {
		// Another replica won the race.
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("Created default tenant (id=%d)", id)
	return nil
}
