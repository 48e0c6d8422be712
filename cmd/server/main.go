package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/auth"
	"github.com/schoolerp/backend/internal/infrastructure/cache"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/schoolerp/backend/internal/infrastructure/logger"
	"github.com/schoolerp/backend/internal/infrastructure/persistence"
	"github.com/schoolerp/backend/internal/interfaces/http/handler"
	"github.com/schoolerp/backend/internal/interfaces/http/middleware"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			School Fee Billing API
//	@version		1.0
//	@description	School fee billing backend - invoices, payments and waivers over a multi-tenant DDD core

//	@contact.name	API Support
//	@contact.url	https://github.com/schoolerp/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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

	log.Info("Starting School Fee Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
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
	feeTypeRepo := persistence.NewGormFeeTypeRepository(db.DB)
	feeStructureRepo := persistence.NewGormFeeStructureRepository(db.DB)
	invoiceRepo := persistence.NewGormFeeInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormFeePaymentRepository(db.DB)
	waiverRepo := persistence.NewGormFeeWaiverRepository(db.DB)

	// Payment reference dedup store: Redis when reachable, otherwise an
	// in-process fallback. The ledger lookup in PaymentService still catches
	// duplicates either way, this just makes the fast path cheap.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize application services
	clock := shared.SystemClock{}
	catalogService := billingapp.NewFeeCatalogService(feeTypeRepo, feeStructureRepo)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, feeStructureRepo, waiverRepo, clock)
	paymentService := billingapp.NewPaymentService(
		invoiceRepo, paymentRepo,
		idempotencyStore,
		shared.IdempotencyConfig{
			TTL:     cfg.Billing.IdempotencyTTL,
			Enabled: cfg.Billing.IdempotencyEnabled,
		},
		clock, log,
	)
	waiverService := billingapp.NewWaiverService(waiverRepo, invoiceRepo, clock)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	catalogHandler := handler.NewFeeCatalogHandler(catalogService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	waiverHandler := handler.NewWaiverHandler(waiverService)

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
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Per-client request throttling
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitMax, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Billing domain (fee types, structures, invoices, payments, waivers)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "billing service ready"})
	})

	// Fee type routes
	billingRoutes.POST("/fee-types", catalogHandler.CreateFeeType)
	billingRoutes.GET("/fee-types", catalogHandler.ListFeeTypes)
	billingRoutes.GET("/fee-types/:id", catalogHandler.GetFeeTypeByID)
	billingRoutes.PUT("/fee-types/:id/active", catalogHandler.SetFeeTypeActive)

	// Fee structure routes
	billingRoutes.POST("/fee-structures", catalogHandler.CreateFeeStructure)
	billingRoutes.GET("/fee-structures", catalogHandler.ListFeeStructures)
	billingRoutes.GET("/fee-structures/:id", catalogHandler.GetFeeStructureByID)
	billingRoutes.POST("/fee-structures/:id/deactivate", catalogHandler.DeactivateFeeStructure)

	// Invoice routes
	billingRoutes.POST("/invoices", invoiceHandler.GenerateInvoice)
	billingRoutes.GET("/invoices", invoiceHandler.ListInvoices)
	billingRoutes.GET("/invoices/overdue", invoiceHandler.ListOverdueInvoices)
	billingRoutes.GET("/invoices/number/:number", invoiceHandler.GetInvoiceByNumber)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetInvoiceByID)
	billingRoutes.POST("/invoices/:id/late-fee", invoiceHandler.AssessLateFee)

	// Payment routes
	billingRoutes.POST("/invoices/:id/payments", paymentHandler.RecordPayment)
	billingRoutes.GET("/invoices/:id/payments", paymentHandler.ListInvoicePayments)
	billingRoutes.GET("/payments/:id", paymentHandler.GetPaymentByID)
	billingRoutes.POST("/payments/:id/complete", paymentHandler.CompletePayment)
	billingRoutes.POST("/payments/:id/fail", paymentHandler.FailPayment)

	// Waiver routes
	billingRoutes.POST("/waivers", waiverHandler.GrantWaiver)
	billingRoutes.GET("/waivers/:id", waiverHandler.GetWaiverByID)
	billingRoutes.POST("/waivers/:id/revoke", waiverHandler.RevokeWaiver)
	billingRoutes.GET("/students/:student_id/waivers", waiverHandler.ListStudentWaivers)
	billingRoutes.POST("/invoices/:id/waivers", waiverHandler.ApplyWaiver)

	r.Register(billingRoutes)

	// Register system routes with swagger-documented handlers
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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
