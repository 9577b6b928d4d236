package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/auth"
	"github.com/fleetops/fleet-gateway/internal/cache"
	"github.com/fleetops/fleet-gateway/internal/config"
	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
	"github.com/fleetops/fleet-gateway/internal/server"
	"github.com/fleetops/fleet-gateway/internal/services"
	"github.com/fleetops/fleet-gateway/internal/webhook"
	"github.com/fleetops/fleet-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Fleet Gateway")

	// Connect to database
	if err := database.Connect(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Initialize cache
	var cacheImpl cache.Cache
	var counter cache.Counter
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		redisCache, err := cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		cacheImpl = redisCache
		counter = redisCache
		log.Info().Msg("Redis cache initialized")
	} else {
		memCache := cache.NewMemoryCache()
		cacheImpl = memCache
		counter = memCache
		log.Info().Msg("Memory cache initialized")
	}
	defer cacheImpl.Close()

	// Initialize services
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	microsoft := auth.NewMicrosoftClient(cfg.Microsoft)

	dispatcher := webhook.NewDispatcher(cfg.Webhooks.Workers, cfg.Webhooks.MaxAttempts, cfg.Webhooks.Timeout)
	defer dispatcher.Close()

	reports := services.NewReportService(cfg.Reports.ProcessingTimeout)
	documents := services.NewDocumentService(
		repository.NewStore[models.Document, *models.Document](),
		cfg.Uploads.Dir, cfg.Uploads.OCRTimeout,
	)
	telemetry := services.NewTelemetryService(repository.NewGPSRepository(), dispatcher)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go reports.Run(workerCtx, cfg.Reports.Workers)

	// Setup router
	r := server.NewRouter(server.Deps{
		Config:      cfg,
		Cache:       cacheImpl,
		Counter:     counter,
		AuthService: authService,
		Microsoft:   microsoft,
		Events:      dispatcher,
		Reports:     reports,
		Documents:   documents,
		Telemetry:   telemetry,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
