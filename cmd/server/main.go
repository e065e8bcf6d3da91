package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	partnerapp "github.com/procura/backend/internal/application/partner"
	procurementapp "github.com/procura/backend/internal/application/procurement"
	tradeapp "github.com/procura/backend/internal/application/trade"
	"github.com/procura/backend/internal/infrastructure/auth"
	"github.com/procura/backend/internal/infrastructure/cache"
	"github.com/procura/backend/internal/infrastructure/config"
	"github.com/procura/backend/internal/infrastructure/event"
	"github.com/procura/backend/internal/infrastructure/logger"
	"github.com/procura/backend/internal/infrastructure/notification"
	"github.com/procura/backend/internal/infrastructure/persistence"
	"github.com/procura/backend/internal/infrastructure/telemetry"
	"github.com/procura/backend/internal/interfaces/http/dto"
	"github.com/procura/backend/internal/interfaces/http/handler"
	"github.com/procura/backend/internal/interfaces/http/middleware"
	"github.com/procura/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database with a GORM logger that writes through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Initialize repositories
	rfqRepo := persistence.NewGormRfqRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	awardRepo := persistence.NewGormAwardRepository(db.DB)
	auditRecorder := persistence.NewGormAuditRecorder(db.DB)

	// Initialize application services
	rfqService := procurementapp.NewRfqService(rfqRepo, supplierRepo)
	comparisonService := procurementapp.NewComparisonService(rfqRepo, log)
	finalizeService := procurementapp.NewFinalizeService(rfqRepo, orderRepo, awardRepo, log)
	supplierService := partnerapp.NewSupplierService(supplierRepo)
	orderService := tradeapp.NewPurchaseOrderService(orderRepo)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize event bus and subscribe domain event handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := procurementapp.NewAuditTrailHandler(auditRecorder, log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	notifHandler := procurementapp.NewFinalizeNotificationHandler(notification.NewLogDispatcher(log), log)
	eventBus.Subscribe(notifHandler, notifHandler.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Failed to stop event bus", zap.Error(err))
		}
	}()

	rfqService.SetEventPublisher(eventBus)
	finalizeService.SetEventPublisher(eventBus)
	supplierService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)

	// Initialize metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down meter provider", zap.Error(err))
		}
	}()
	businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("procura.business"), log)
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	rfqService.SetBusinessMetrics(businessMetrics)
	finalizeService.SetBusinessMetrics(businessMetrics)

	// Comparison read model: cache invalidation on offer submission and
	// finalize, Redis when enabled
	rfqService.SetComparisonService(comparisonService)
	finalizeService.SetComparisonService(comparisonService)
	if cfg.Cache.Enabled {
		comparisonCache, err := cache.NewRedisComparisonCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Cache.ComparisonTTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		comparisonService.SetCache(comparisonCache)
		log.Info("Comparison cache enabled", zap.String("backend", "redis"))
	} else {
		comparisonService.SetCache(cache.NewInMemoryComparisonCache(cfg.Cache.ComparisonTTL))
	}

	// Initialize HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.JWTAuthWithConfig(middleware.JWTConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/system/info",
		},
	}))

	// Liveness probe outside API versioning, for load balancers
	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("SERVICE_UNAVAILABLE", "Database is unreachable"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewRfqHandler(rfqService, finalizeService, comparisonService)).
		Register(handler.NewSupplierHandler(supplierService)).
		Register(handler.NewPurchaseOrderHandler(orderService)).
		Register(handler.NewSystemHandler(db)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
