package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/laundry/api/internal/config"
	"github.com/stwalsh4118/laundry/api/internal/database"
	"github.com/stwalsh4118/laundry/api/internal/handlers"
	"github.com/stwalsh4118/laundry/api/internal/importer"
	"github.com/stwalsh4118/laundry/api/internal/jobs"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
	"github.com/stwalsh4118/laundry/api/internal/middleware"
	"github.com/stwalsh4118/laundry/api/internal/migration"
	"github.com/stwalsh4118/laundry/api/internal/repository"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting laundry admin API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.Migrate {
		if err := migration.RunMigrations(db.StdDB()); err != nil {
			log.Fatal("Failed to apply migrations", err, nil)
		}
		log.Info("Migrations applied", nil)
	}

	importMetrics := metrics.NewImportMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	// Redis is optional; without it the country sync runs unlocked.
	var locker jobs.Locker
	var redisPinger handlers.Pinger
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		locker = jobs.NewRedisLocker(rdb)
		redisPinger = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		log.Info("Redis job lock enabled", map[string]interface{}{"addr": cfg.Redis.Addr})
	}

	// Background jobs
	importRepo := repository.NewImportRepository(db)
	fetcher := importer.NewCountryFetcher(
		&http.Client{Timeout: cfg.Import.CountryTimeout},
		cfg.Import.UserAgent,
		importer.DefaultCountrySources(),
		log,
	)
	countryImporter := importer.NewCountryImporter(fetcher, importRepo, importMetrics, log)
	syncJob := jobs.NewCountrySyncJob(countryImporter, locker, log)

	queue := jobs.NewQueue(cfg.Jobs.QueueSize, importMetrics, log)
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	queue.Start(queueCtx)

	// Repositories, services and handlers
	countryRepo := repository.NewCountryRepository(db)
	currencyRepo := repository.NewCurrencyRepository(db)

	countryHandler := handlers.NewCountryHandler(services.NewCountryService(countryRepo, currencyRepo, queue, syncJob, log))
	currencyHandler := handlers.NewCurrencyHandler(services.NewCurrencyService(currencyRepo, log))
	pincodeHandler := handlers.NewPincodeHandler(services.NewPincodeService(repository.NewPincodeRepository(db), log))
	zoneHandler := handlers.NewZoneHandler(services.NewZoneService(repository.NewZoneRepository(db), log))
	healthHandler := handlers.NewHealthHandler(db, redisPinger, cfg.Server.Env)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Metrics -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics(httpMetrics))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", healthHandler.Info)

		countries := v1.Group("/countries")
		{
			countries.GET("", countryHandler.List)
			countries.POST("/sync", countryHandler.Sync)
			countries.GET("/:id", countryHandler.Get)
			countries.PUT("/:id", countryHandler.Update)
		}

		v1.GET("/currencies", currencyHandler.List)

		pincodes := v1.Group("/pincodes")
		{
			pincodes.GET("", pincodeHandler.List)
			pincodes.POST("", pincodeHandler.Create)
			pincodes.GET("/:id", pincodeHandler.Get)
			pincodes.PUT("/:id", pincodeHandler.Update)
			pincodes.DELETE("/:id", pincodeHandler.Delete)
		}

		zones := v1.Group("/zones")
		{
			zones.GET("", zoneHandler.List)
			zones.POST("", zoneHandler.Create)
			zones.GET("/:id", zoneHandler.Get)
			zones.PUT("/:id", zoneHandler.Update)
			zones.DELETE("/:id", zoneHandler.Delete)
			zones.POST("/:id/toggle", zoneHandler.Toggle)
			zones.PUT("/:id/pincodes", zoneHandler.AssignPincodes)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	if err := queue.Stop(shutdownCtx); err != nil {
		log.Warn("Job queue did not drain, cancelling running job", map[string]interface{}{"error": err.Error()})
		stopQueue()
	}

	log.Info("Server exited", nil)
}
