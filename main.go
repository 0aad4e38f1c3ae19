// Package main provides the main entry point for the delivery zones service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/delivery-zones/app/handlers"
	"github.com/amirphl/delivery-zones/app/middleware"
	"github.com/amirphl/delivery-zones/app/router"
	"github.com/amirphl/delivery-zones/app/scheduler"
	"github.com/amirphl/delivery-zones/app/services"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/amirphl/delivery-zones/config"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

// @title Delivery Zones API
// @version 1.0
// @description Delivery coverage, shipping quotes and zone administration
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.Println("Starting delivery zones service...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, logCloser := utils.NewRotatingLogger("", utils.LogFileOptions{
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
	defer logCloser.Close()
	log.SetOutput(appLogger.Writer())
	log.SetFlags(appLogger.Flags())

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Stop background workers after the server stops accepting writes, last started first
	for i := len(app.stopFuncs) - 1; i >= 0; i-- {
		app.stopFuncs[i]()
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(log.Default(), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	if cfg.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return nil, err
		}
		log.Println("Database schema migrated")
	}

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity.
// A nil client means the service runs uncached.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		// Redis is optional: the zone cache and revalidation lock degrade to local behavior
		log.Printf("Cache disabled: %v", err)
		rc = nil
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	location, err := time.LoadLocation(cfg.Geo.ScheduleTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone: %w", err)
	}

	// Repositories
	zoneRepo := repository.NewZoneRepository(db)
	districtRepo := repository.NewDistrictAssignmentRepository(db)
	tierRepo := repository.NewCostTierRepository(db)
	scheduleRepo := repository.NewWeeklyScheduleRepository(db)
	exceptionRepo := repository.NewDateExceptionRepository(db)
	addressRepo := repository.NewValidatedAddressRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	auditRepo := repository.NewZoneAuditLogRepository(db)
	txRunner := repository.NewTxRunner(db)
	zoneLocker := repository.NewZoneLocker()

	// Services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Business flows
	clock := utils.SystemClock{}
	zoneCache := businessflow.NewZoneCache(zoneRepo, rc, cfg.Cache)
	tierResolver := businessflow.NewTierCostResolver()
	geoResolver := businessflow.NewGeoResolver(zoneCache, districtRepo, cfg.Geo.ImplicitCatchAll)
	quoteFlow := businessflow.NewShippingQuoteFlow(geoResolver, tierResolver, businessflow.NewScheduleResolver(), exceptionRepo, location)
	addressFlow := businessflow.NewAddressValidationFlow(quoteFlow, addressRepo, auditRepo, rc, cfg.Cache, cfg.Revalidation, clock)

	revalLogger, revalLogCloser := utils.NewRotatingLogger("revalidation ", utils.LogFileOptions{
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Revalidation.LogFilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
	revalScheduler := scheduler.NewRevalidationScheduler(addressFlow, cfg.Revalidation, revalLogger, clock)

	zoneAdminFlow := businessflow.NewZoneAdminFlow(
		zoneRepo,
		districtRepo,
		tierRepo,
		scheduleRepo,
		exceptionRepo,
		auditRepo,
		txRunner,
		zoneLocker,
		tierResolver,
		zoneCache,
		revalScheduler,
	)
	adminAuthFlow := businessflow.NewAdminAuthFlow(adminRepo, auditRepo, tokenService, clock)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	if err := adminAuthFlow.EnsureBootstrapAdmin(startupCtx, cfg.Admin.BootstrapUsername, cfg.Admin.BootstrapPassword); err != nil {
		return nil, err
	}

	if cfg.Geo.ZoneSeedFile != "" {
		seeder := businessflow.NewZoneSeeder(zoneRepo, zoneAdminFlow)
		result, err := seeder.SeedFromFile(startupCtx, cfg.Geo.ZoneSeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed zones: %w", err)
		}
		log.Printf("Zone seed applied: created=%v skipped=%v", result.Created, result.Skipped)
	}

	// Handlers
	shippingHandler := handlers.NewShippingHandler(quoteFlow, addressFlow)
	addressAdminHandler := handlers.NewAddressAdminHandler(addressFlow)
	zoneAdminHandler := handlers.NewZoneAdminHandler(zoneAdminFlow)
	authAdminHandler := handlers.NewAdminHandler(adminAuthFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		shippingHandler,
		addressAdminHandler,
		zoneAdminHandler,
		authAdminHandler,
		authMiddleware,
	)

	stopFuncs = append(stopFuncs, closeQuietly(revalLogCloser))
	if cfg.Revalidation.Enabled {
		stopScheduler := revalScheduler.Start(context.Background())
		stopFuncs = append(stopFuncs, stopScheduler)
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

func closeQuietly(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Printf("Failed to close: %v", err)
		}
	}
}
