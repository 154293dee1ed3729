package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/erp/backoffice/docs"
	financeapp "github.com/erp/backoffice/internal/application/finance"
	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/event"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/infrastructure/scheduler"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/erp/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Finance Engine API
//	@version		1.0
//	@description	Payables, receivables, installment schedules and landed-cost allocation.
//	@description	Amounts are integer cents and dates are YYYY-MM-DD.
//	@BasePath		/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
		Sampling:   cfg.Log.Sampling,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting finance engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	rootCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// Telemetry
	tel, err := telemetry.Setup(rootCtx, telemetry.Settings{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.CollectorEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		SamplingRatio:  cfg.Telemetry.SamplingRatio,
		ExportInterval: cfg.Telemetry.ExportInterval,
		Logs:           cfg.Telemetry.LogsEnabled,
		Profiling:      cfg.Profiling.Enabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = tel.BridgeLogger(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Telemetry.LogsLevel))

	profiler, err := telemetry.StartProfiler(telemetry.ProfilerSettings{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		BasicAuthUser:   cfg.Profiling.BasicAuthUser,
		BasicAuthPass:   cfg.Profiling.BasicAuthPass,
		Contention:      cfg.Profiling.Contention,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	// Database
	dbOpts := []persistence.DatabaseOption{persistence.WithDatabaseLogger(log)}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		if cfg.Database.Driver == config.DriverSQLite {
			dbTracing.DBSystem = "sqlite"
		}
		dbOpts = append(dbOpts, persistence.WithDBTracing(telemetry.NewDBTracingPlugin(dbTracing, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == config.DriverSQLite {
		// SQL migrations target postgres; sqlite gets its schema from the models
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	// Cache and lock backends
	backends, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Sweeper.UseLock),
	).Create()
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()

	// Event bus
	eventBus, err := event.NewBus(log, event.WithMeter(tel.Meter("finance.events")))
	if err != nil {
		log.Fatal("Failed to create event bus", zap.Error(err))
	}
	auditHandler := financeapp.NewDocumentAuditHandler(log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories and query services
	documentRepo := persistence.NewGormMonetaryDocumentRepository(db.DB)
	counterparties := persistence.NewGormCounterpartyQueryService(db.DB)
	displayNames := persistence.NewGormDisplayNameQueryService(db.DB)

	// Application services
	financeMetrics, err := telemetry.NewFinanceMetrics(tel.Meter("finance"))
	if err != nil {
		log.Warn("Finance metrics unavailable", zap.Error(err))
	}
	resolver := financeapp.NewDisplayNameResolver(displayNames, displayNames, backends.DisplayNames, cfg.Cache.DisplayNameTTL, log)
	documentService := financeapp.NewDocumentService(documentRepo, counterparties,
		financeapp.WithEventPublisher(eventBus),
		financeapp.WithFinanceMetrics(financeMetrics),
		financeapp.WithLogger(log),
	)
	installmentService := financeapp.NewInstallmentService(documentRepo, documentService, resolver)
	sweepService := financeapp.NewOverdueSweepService(documentRepo, cfg.Sweeper.Location(), financeMetrics, log)
	costingService := tradeapp.NewCostingService(log)

	// Overdue sweep scheduler
	var sweepScheduler *scheduler.OverdueSweepScheduler
	if cfg.Sweeper.Enabled {
		sweepScheduler = scheduler.NewOverdueSweepScheduler(cfg.Sweeper, sweepService, backends.Locker, log)
		if err := sweepScheduler.Start(rootCtx); err != nil {
			log.Fatal("Failed to start overdue sweep scheduler", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	var meter = tel.Meter("http.server")
	if !tel.Enabled() {
		meter = nil
	}
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log, logger.WithQuietPaths("/health", "/ready")),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tel.Enabled(),
			SkipPaths:   []string{"/health", "/ready"},
		}),
		middleware.HTTPMetrics(meter),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.WriteTimeout),
		middleware.TenantMiddleware(middleware.DefaultTenantConfig()),
		middleware.SpanAttributes(),
		middleware.ProfileLabels(cfg.Profiling.Enabled, "/health", "/ready"),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Failure(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	if cfg.Docs.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	readiness := []handler.ReadinessCheck{{Name: "database", Check: db.PingContext}}
	if backends.Distributed {
		readiness = append(readiness, handler.ReadinessCheck{Name: "redis", Check: backends.Ping})
	}
	systemHandler := handler.NewSystemHandler(version, readiness...)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	handlers := router.Handlers{
		Documents:    handler.NewDocumentHandler(financeapp.NewEnrichingDocumentService(documentService, resolver)),
		Installments: handler.NewInstallmentHandler(installmentService),
		Sweep:        handler.NewSweepHandler(sweepService),
		Costing:      handler.NewCostingHandler(costingService),
	}
	for _, route := range router.NewAPI(engine, handlers, router.WithAPIVersion("v1")).Setup() {
		log.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("description", route.Description),
		)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sweepScheduler != nil {
		if err := sweepScheduler.Stop(ctx); err != nil {
			log.Warn("Error stopping overdue sweep scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(ctx); err != nil {
		log.Warn("Error stopping event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := tel.Shutdown(ctx); err != nil {
		log.Warn("Error flushing telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if len(serverErr) > 0 {
		os.Exit(1)
	}
}
