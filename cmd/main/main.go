package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pricing-service/internal/config"
	"pricing-service/internal/events"
	"pricing-service/internal/handlers"
	"pricing-service/internal/jobs"
	"pricing-service/internal/locks"
	"pricing-service/internal/middleware"
	"pricing-service/internal/models"
	"pricing-service/internal/pricing"
	"pricing-service/internal/repository"
	"pricing-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Dynamic Pricing API
// @version 1.0.0
// @description Stock and demand driven pricing with stock alerts and supplier auto-reorder
// @termsOfService http://swagger.io/terms/

// @contact.name Pricing API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8089
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Prices are serialized as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Product{},
		&models.PricingRecord{},
		&models.PriceHistoryEntry{},
		&models.Supplier{},
		&models.StockAlert{},
		&models.StockOrder{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client (optional - caching and product locks are skipped without it)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warnf("⚠ Failed to parse Redis URL: %v (caching disabled)", err)
		} else {
			if opt.Password == "" {
				opt.Password = cfg.RedisPassword
			}
			redisClient = redis.NewClient(opt)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warnf("⚠ Failed to connect to Redis: %v (caching disabled)", err)
				redisClient = nil
			} else {
				logger.Info("✓ Redis connection established")
			}
			cancel()
		}
	} else {
		log.Println("REDIS_URL not configured, caching and distributed locks disabled")
	}

	var locker locks.Locker = locks.NoopLocker{}
	if redisClient != nil {
		locker = locks.NewRedisLocker(redisClient, logger)
	}

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	var (
		priceEvents  services.PriceEventPublisher
		stockEvents  services.StockEventPublisher
		eventsStatus handlers.EventsStatus
	)
	if cfg.NATSURL != "" {
		eventPublisher, err := events.NewEventPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS event publisher: %v", err)
			log.Println("Continuing without event publishing...")
		} else {
			log.Println("✓ Connected to NATS JetStream for event publishing")
			defer eventPublisher.Close()
			priceEvents, stockEvents, eventsStatus = eventPublisher, eventPublisher, eventPublisher
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	// Initialize repositories
	pricingRepo := repository.NewPricingRepository(db, redisClient)
	stockRepo := repository.NewStockRepository(db)

	// Initialize services
	stockService := services.NewStockService(stockRepo, stockEvents, pricingRepo, logger)

	var scorer pricing.DemandScorer
	switch cfg.DemandStrategy {
	case "orders":
		scorer = pricing.NewOrderFrequencyDemandScorer(stockService)
	case "static":
		scorer = pricing.StaticDemandScorer(0.5)
	default:
		scorer = pricing.NewRandomDemandScorer(time.Now().UnixNano())
	}
	logger.Infof("Demand strategy: %s", cfg.DemandStrategy)

	policy := pricing.DefaultPolicy()
	policy.MinUpdateInterval = cfg.MinUpdateInterval

	pricingService := services.NewPricingService(pricingRepo, scorer, services.PricingOptions{
		Policy:       policy,
		Workers:      cfg.Workers,
		BatchTimeout: cfg.BatchTimeout,
		Locker:       locker,
		Publisher:    priceEvents,
	}, logger)

	// Initialize handlers
	exposeErrors := cfg.Environment != "production"
	pricingHandler := handlers.NewPricingHandler(pricingService, exposeErrors)
	stockHandler := handlers.NewStockHandler(stockService, exposeErrors)
	importHandler := handlers.NewImportHandler(stockService)
	healthHandler := handlers.NewHealthHandler(pricingRepo, eventsStatus, redisClient != nil)
	manualTriggerLimiter := middleware.NewTenantRateLimiter(cfg.ManualTriggerRate, cfg.ManualTriggerBurst)

	// Start the pricing scheduler
	var pricingJob *jobs.PricingJob
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()
	if cfg.SchedulerEnabled {
		pricingJob = jobs.NewPricingJob(pricingService, cfg.ScheduleInterval, logger)
		go pricingJob.Start(jobCtx)
	} else {
		log.Println("PRICING_SCHEDULER_ENABLED=false, prices only update on request")
	}

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("pricing-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("pricing-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "pricing_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize RBAC middleware
	rbacMiddleware := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gosharedmw.SecurityHeaders())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("pricing-service"))

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gosharedmw.Handler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Authentication: Istio JWT claims in deployed environments, a fixed identity locally
	var authMiddleware gin.HandlerFunc
	if cfg.Environment == "development" {
		authMiddleware = middleware.DevelopmentAuthMiddleware()
		log.Println("Using development auth middleware")
	} else {
		authMiddleware = gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: false,
			SkipPaths:          []string{"/health", "/ready", "/metrics", "/swagger"},
		})
	}

	// The legacy /api prefix is served alongside /api/v1
	for _, prefix := range []string{"/api/v1", "/api"} {
		api := router.Group(prefix)
		api.Use(authMiddleware, middleware.TenantMiddleware())

		// Dynamic pricing routes with RBAC
		dynamicPricing := api.Group("/dynamic-pricing")
		{
			dynamicPricing.POST("/update-prices", rbacMiddleware.RequirePermission(rbac.PermissionProductsUpdate), middleware.RateLimit(manualTriggerLimiter), pricingHandler.UpdatePrices)
			dynamicPricing.POST("/initialize", rbacMiddleware.RequirePermission(rbac.PermissionProductsUpdate), pricingHandler.Initialize)
			dynamicPricing.POST("/set-base-prices", rbacMiddleware.RequirePermission(rbac.PermissionProductsUpdate), pricingHandler.SetBasePrices)
			dynamicPricing.GET("/price-history/:productId", rbacMiddleware.RequirePermission(rbac.PermissionProductsRead), pricingHandler.GetPriceHistory)
			dynamicPricing.GET("/price-history/:productId/export", rbacMiddleware.RequirePermission(rbac.PermissionProductsExport), pricingHandler.ExportPriceHistory)
			dynamicPricing.GET("/bulk-discounts/:productId", rbacMiddleware.RequirePermission(rbac.PermissionProductsRead), pricingHandler.GetBulkDiscounts)
			dynamicPricing.GET("/status", rbacMiddleware.RequirePermission(rbac.PermissionProductsRead), pricingHandler.GetStatus)
			dynamicPricing.POST("/test-price-calculation", rbacMiddleware.RequirePermission(rbac.PermissionProductsRead), pricingHandler.TestPriceCalculation)
		}

		// Stock routes with RBAC
		stock := api.Group("/stock")
		{
			stock.GET("/status", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), stockHandler.GetStockStatus)
			stock.GET("/alerts", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), stockHandler.ListAlerts)
			stock.GET("/demand/:productId", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), stockHandler.GetDemandLevel)
			stock.POST("/order/:productId", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), stockHandler.CreateOrder)
			stock.POST("/auto-order/:productId", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), stockHandler.EnableAutoOrder)
			stock.PUT("/update-order/:orderId", rbacMiddleware.RequirePermission(rbac.PermissionInventoryAdjust), stockHandler.UpdateOrderStatus)

			// Suppliers and import
			suppliers := stock.Group("/suppliers")
			suppliers.POST("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), stockHandler.CreateSupplier)
			suppliers.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), stockHandler.ListSuppliers)
			suppliers.GET("/import/template", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), importHandler.GetSupplierImportTemplate)
			suppliers.POST("/import", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), importHandler.ImportSuppliers)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Pricing service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down pricing-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop background job
	if pricingJob != nil {
		pricingJob.Stop()
		log.Println("✓ Pricing job stopped")
	}
	jobCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Shutdown tracer provider
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Pricing service stopped")
}
