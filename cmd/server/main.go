// Package main is the entry point for the Billy Dialogue Service.
// @title Billy Dialogue Service API
// @version 1.0
// @description Stateful billing-dialogue engine for the Billy virtual insurance agent
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/billyagent/dialogue-service

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8086
// @BasePath /api/v1/dialogue-service
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication (shared service key)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/billyagent/dialogue-service/docs"
	"github.com/billyagent/dialogue-service/internal/api/handlers"
	"github.com/billyagent/dialogue-service/internal/api/middleware"
	"github.com/billyagent/dialogue-service/internal/api/routes"
	"github.com/billyagent/dialogue-service/internal/config"
	"github.com/billyagent/dialogue-service/internal/core/cache"
	"github.com/billyagent/dialogue-service/internal/core/docdb"
	memorycache "github.com/billyagent/dialogue-service/internal/infrastructure/cache/memory"
	rediscache "github.com/billyagent/dialogue-service/internal/infrastructure/cache/redis"
	"github.com/billyagent/dialogue-service/internal/infrastructure/docdb/mongodb"
	"github.com/billyagent/dialogue-service/internal/services/augment"
	"github.com/billyagent/dialogue-service/internal/services/augment/openai"
	"github.com/billyagent/dialogue-service/internal/services/business"
	"github.com/billyagent/dialogue-service/internal/services/dialogue"
	"github.com/billyagent/dialogue-service/internal/services/flow"
	"github.com/billyagent/dialogue-service/internal/services/persona"
	"github.com/billyagent/dialogue-service/internal/services/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Log)

	ctx := context.Background()

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	defer cacheClient.Close()

	// Initialize document db client using factory pattern
	docDBClient, err := createDocDBClient(ctx, cfg.DocDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document db client")
	}
	defer docDBClient.Close(ctx)

	// Ensure database indexes
	if err := docDBClient.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// Initialize session store
	store, err := session.NewStore(&session.Config{
		Sessions:        docDBClient.Sessions(),
		Cache:           cacheClient,
		IdleTimeout:     cfg.Session.IdleTimeout,
		HistoryCap:      cfg.Session.HistoryCap,
		RepoTimeout:     cfg.DocDB.Timeout,
		RetentionWindow: cfg.Session.RetentionWindow,
		Logger:          log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}

	// Initialize persona, directory and flow controller
	agentPersona := persona.New(cfg.Persona)
	directory := createDirectory(cfg, docDBClient)
	flowController := flow.NewController(agentPersona, directory, log.Logger)

	// Initialize generative rewriter (optional)
	rewriter := createRewriter(cfg.Augment)

	// Initialize dialogue orchestrator
	orchestrator, err := dialogue.NewOrchestrator(&dialogue.Config{
		Store:          store,
		Flow:           flowController,
		Persona:        agentPersona,
		Rewriter:       rewriter,
		AugmentTimeout: cfg.Augment.Timeout,
		Logger:         log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dialogue orchestrator")
	}

	// Background sweeps: cache expiry and repository retention
	sweepCtx, stopSweeps := context.WithCancel(ctx)
	defer stopSweeps()
	go runCacheSweep(sweepCtx, store, cfg.Session.CacheSweepInterval)
	go runRetentionSweep(sweepCtx, store, cfg.Session.RetentionSweepInterval)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	router := setupRouter(cfg, cacheClient, docDBClient, orchestrator)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Cache, error) {
	cacheType := cache.Type(cfg.Type)

	switch cacheType {
	case cache.TypeMemory:
		return memorycache.NewCache(), nil
	case cache.TypeRedis:
		return rediscache.NewCache(rediscache.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported cache type")
		return nil, nil
	}
}

// createDocDBClient creates a document database client based on the configuration.
func createDocDBClient(ctx context.Context, cfg config.DocDBConfig) (docdb.Client, error) {
	docDBType := docdb.Type(cfg.Type)

	switch docDBType {
	case docdb.TypeMongoDB:
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	case docdb.TypeCosmosDB:
		// CosmosDB uses MongoDB protocol, so we can use the same client
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported docdb type")
		return nil, nil
	}
}

// createDirectory creates the customer directory based on the configuration.
func createDirectory(cfg *config.Config, docDBClient docdb.Client) business.Directory {
	switch cfg.Directory.Type {
	case "docdb":
		return business.NewDirectory(docDBClient.Customers(), cfg.DocDB.Timeout)
	default:
		return business.NewFixture()
	}
}

// createRewriter creates the generative rewriter when an API key is
// configured. Without one the service runs on template responses only.
func createRewriter(cfg config.AugmentConfig) augment.Rewriter {
	if !cfg.Enabled() {
		log.Warn().Msg("OPENAI_API_KEY not set, response augmentation disabled")
		return nil
	}

	client, err := openai.NewClient(&openai.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize rewriter, augmentation disabled")
		return nil
	}
	return client
}

// runCacheSweep periodically evicts expired cache entries.
func runCacheSweep(ctx context.Context, store *session.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.ExpireIdleCacheEntries(ctx); err != nil {
				log.Warn().Err(err).Msg("cache sweep failed")
			}
		}
	}
}

// runRetentionSweep periodically purges terminal sessions past the
// retention window.
func runRetentionSweep(ctx context.Context, store *session.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.PurgeExpired(ctx); err != nil {
				log.Warn().Err(err).Msg("retention sweep failed")
			}
		}
	}
}

// setupRouter creates and configures the Gin router.
func setupRouter(cfg *config.Config, cacheClient cache.Cache, docDBClient docdb.Client, orchestrator *dialogue.Orchestrator) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Create middleware
	loggingMw := middleware.NewLoggingMiddleware(log.Logger)
	errorMw := middleware.NewErrorMiddleware()
	authMw := middleware.NewAuthMiddleware(cfg.Auth.ServiceKey)

	// Create handlers
	healthHandler := handlers.NewHealthHandler(cacheClient, docDBClient)
	turnsHandler := handlers.NewTurnsHandler(orchestrator)
	sessionsHandler := handlers.NewSessionsHandler(orchestrator)

	// Setup routes
	routesCfg := &routes.Config{
		HealthHandler:   healthHandler,
		TurnsHandler:    turnsHandler,
		SessionsHandler: sessionsHandler,
		AuthMiddleware:  authMw,
	}

	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw)

	// Swagger documentation endpoint
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
