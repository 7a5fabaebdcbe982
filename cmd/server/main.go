package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apporder "github.com/oms/backend/internal/application/order"
	appshipping "github.com/oms/backend/internal/application/shipping"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared/valueobject"
	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/carrier"
	"github.com/oms/backend/internal/infrastructure/config"
	"github.com/oms/backend/internal/infrastructure/fulfillment"
	"github.com/oms/backend/internal/infrastructure/lock"
	"github.com/oms/backend/internal/infrastructure/logger"
	"github.com/oms/backend/internal/infrastructure/persistence"
	"github.com/oms/backend/internal/infrastructure/scheduler"
	"github.com/oms/backend/internal/interfaces/http/handler"
	"github.com/oms/backend/internal/interfaces/http/middleware"
	"github.com/oms/backend/internal/interfaces/http/router"
)

// Version is stamped at build time via -ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting OMS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	batchRepo := persistence.NewGormBatchHistoryRepository(db.DB)

	// Order processing lease backend. Redis keeps lease expiry out of the
	// database for deployments running multiple procurement workers.
	var (
		locker      order.Locker
		forceUnlock appshipping.ForceUnlocker
	)
	switch cfg.Lock.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		redisLocker := lock.NewRedisLocker(redisClient, cfg.Lock.TTL)
		locker, forceUnlock = redisLocker, redisLocker
		log.Info("Using redis order locker", zap.String("addr", cfg.Redis.Addr()))
	default:
		dbLocker := lock.NewDBLocker(db.DB, cfg.Lock.TTL)
		locker, forceUnlock = dbLocker, dbLocker
		log.Info("Using database order locker")
	}

	// Carrier gateway (rate quoting, label purchase, void)
	gateway, err := carrier.NewGateway(cfg.Carrier)
	if err != nil {
		log.Fatal("Failed to initialize carrier gateway", zap.Error(err))
	}
	log.Info("Carrier gateway initialized", zap.String("provider", cfg.Carrier.Provider))

	// Marketplace fulfillment webhooks
	notifier := fulfillment.NewWebhookNotifier(cfg.Fulfillment, cfg.Procurement.NotifyTimeout)

	// Shipper of record used on all outbound labels
	shipperAddr, err := valueobject.NewShippingAddress(
		cfg.Shipper.Street1, cfg.Shipper.City, cfg.Shipper.State,
		cfg.Shipper.PostalCode, cfg.Shipper.Country,
		valueobject.WithStreet2(cfg.Shipper.Street2),
		valueobject.WithPhone(cfg.Shipper.Phone),
	)
	if err != nil {
		log.Fatal("Invalid shipper address", zap.Error(err))
	}
	shipper := shipping.ShipperProfile{
		Name:    cfg.Shipper.Name,
		Company: cfg.Shipper.Company,
		Phone:   cfg.Shipper.Phone,
		Email:   cfg.Shipper.Email,
		Address: shipperAddr,
	}

	// Initialize application services
	intakeService := apporder.NewIntakeService(orderRepo)
	queueService := apporder.NewQueueService(orderRepo)
	rateShopperService := appshipping.NewRateShopperService(
		orderRepo, quoteRepo, gateway, shipper, cfg.Procurement.GatewayFailLimit,
	)
	procurementService := appshipping.NewProcurementService(
		orderRepo, quoteRepo, shipmentRepo, batchRepo,
		locker, gateway, notifier, shipper, cfg.Procurement,
	)
	reconciliationService := appshipping.NewReconciliationService(
		orderRepo, shipmentRepo, batchRepo,
		procurementService, forceUnlock, cfg.Lock.SweepAge,
	)

	// Maintenance scheduler (rate shopping, stale lease sweep, reconcile)
	schedulerConfig := scheduler.MaintenanceSchedulerConfig{
		Enabled:            cfg.Scheduler.Enabled,
		RateShopInterval:   cfg.Scheduler.RateShopInterval,
		RateShopBatchSize:  cfg.Scheduler.RateShopBatchSize,
		StaleLockInterval:  cfg.Scheduler.StaleLockInterval,
		ReconcileInterval:  cfg.Scheduler.ReconcileInterval,
		ReconcileBatchSize: cfg.Scheduler.ReconcileBatchSize,
		JobTimeout:         10 * time.Minute,
	}
	maintenanceScheduler, err := scheduler.NewMaintenanceScheduler(
		schedulerConfig, rateShopperService, reconciliationService, log,
	)
	if err != nil {
		log.Fatal("Failed to initialize maintenance scheduler", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := maintenanceScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		defer func() {
			if err := maintenanceScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping maintenance scheduler", zap.Error(err))
			}
		}()
		log.Info("Maintenance scheduler started",
			zap.Duration("rate_shop_interval", cfg.Scheduler.RateShopInterval),
			zap.Duration("stale_lock_interval", cfg.Scheduler.StaleLockInterval),
			zap.Duration("reconcile_interval", cfg.Scheduler.ReconcileInterval),
		)
	}

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(intakeService, queueService)
	rateHandler := handler.NewRateHandler(rateShopperService)
	shipmentHandler := handler.NewShipmentHandler(procurementService)
	batchHandler := handler.NewBatchHandler(procurementService, reconciliationService)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceScheduler)
	systemHandler := handler.NewSystemHandler(Version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Actor - Resolve the acting identity for audit fields
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Actor())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Register domain route groups
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.OrderRoutes(orderHandler)).
		Register(handler.RateRoutes(rateHandler)).
		Register(handler.ShipmentRoutes(shipmentHandler)).
		Register(handler.BatchRoutes(batchHandler)).
		Register(handler.MaintenanceRoutes(maintenanceHandler)).
		Register(handler.SystemRoutes(systemHandler))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
