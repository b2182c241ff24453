package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/infrastructure/auth"
	"github.com/erp/taxsvc/internal/infrastructure/authsvc"
	"github.com/erp/taxsvc/internal/infrastructure/cache"
	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/infrastructure/persistence"
	"github.com/erp/taxsvc/internal/infrastructure/storage"
	"github.com/erp/taxsvc/internal/infrastructure/telemetry"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/erp/taxsvc/internal/interfaces/http/handler"
	"github.com/erp/taxsvc/internal/interfaces/http/middleware"
	"github.com/erp/taxsvc/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/erp/taxsvc/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Tax Service API
//	@version		1.0
//	@description	Revisioned tax and tax category records

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: timeFormat,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log export tees every entry into the collector
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		if log, err = logger.New(logCfg, telemetry.NewZapOTELCore(loggerProvider, zapcore.InfoLevel)); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting tax service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Allocations:     true,
		Goroutines:      true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.ProfilingSpanProfiles && profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Remote lookups share one cache store
	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create cache store", zap.Error(err))
	}
	var permissionStore cache.Store
	if cfg.AuthService.CacheEnabled {
		permissionStore = store
	}
	permissionClient := authsvc.NewPermissionClient(cfg.AuthService, permissionStore)
	companyClient := authsvc.NewCompanyClient(cfg.CompanyService, store)

	jwtService := auth.NewJWTService(cfg.JWT)
	approvals, err := auth.NewApprovalVerifier(cfg.JWT.ApprovalPublicKey)
	if err != nil {
		log.Fatal("Invalid approval public key", zap.Error(err))
	}

	// Deleted chains are archived before removal
	var archiver taxapp.ChainArchiver = storage.NewNopArchiver()
	if cfg.Storage.Enabled {
		s3Archiver, err := storage.NewS3Archiver(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize chain archive", zap.Error(err))
		}
		if err := s3Archiver.EnsureBucket(ctx); err != nil {
			log.Fatal("Chain archive bucket unavailable", zap.Error(err))
		}
		archiver = s3Archiver
	}

	revisionMetrics, err := telemetry.NewRevisionMetrics(meterProvider.Meter("taxsvc"))
	if err != nil {
		log.Fatal("Failed to register revision metrics", zap.Error(err))
	}

	// Repositories and services
	categoryRepo, err := persistence.NewGormTaxCategoryRepository(db.DB)
	if err != nil {
		log.Fatal("Failed to create tax category repository", zap.Error(err))
	}
	taxRepo, err := persistence.NewGormTaxRepository(db.DB)
	if err != nil {
		log.Fatal("Failed to create tax repository", zap.Error(err))
	}

	serviceOpts := []taxapp.ServiceOption{
		taxapp.WithArchiver(archiver),
		taxapp.WithMetrics(revisionMetrics),
	}
	categoryService := taxapp.NewTaxCategoryService(categoryRepo, serviceOpts...)
	taxService := taxapp.NewTaxService(taxRepo, categoryRepo, serviceOpts...)
	onboardingService := taxapp.NewOnboardingService(taxService, categoryService)

	middleware.SetupValidator()

	base := handler.NewBaseHandler(dto.PageLimits{
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
	})
	handlers := router.TaxHandlers{
		TaxCategory: handler.NewTaxCategoryHandler(base, categoryService),
		Tax:         handler.NewTaxHandler(base, taxService),
		EMenu:       handler.NewEMenuHandler(base, categoryService, companyClient),
		Onboarding:  handler.NewOnboardingHandler(base, onboardingService),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(meterProvider))

	healthHandler := handler.NewHealthHandler(db)
	engine.GET("/health", healthHandler.Check)
	engine.GET("/api/v1/health", healthHandler.Check)

	// Swagger sits outside the api group, so it gets its own JWT check
	swaggerJWT := middleware.DefaultJWTConfig(jwtService)
	swaggerJWT.SkipPathPrefixes = nil
	swaggerJWT.Logger = log
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, middleware.JWTAuthMiddlewareWithConfig(swaggerJWT)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	permissionCfg := middleware.PermissionConfig{
		Provider:  permissionClient,
		Approvals: approvals,
		Logger:    log,
	}
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterTaxAPI(r, handlers, router.TaxGuards{
		Auth:          middleware.JWTAuthMiddleware(jwtService),
		AnonymousAuth: middleware.AnonymousJWTAuthMiddleware(jwtService),
		Permission: func(codename string) gin.HandlerFunc {
			return middleware.RequirePermissionWithConfig(codename, permissionCfg)
		},
		AfterAuth: []gin.HandlerFunc{
			middleware.TracingAttributeInjector(),
			middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()),
		},
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := store.Close(); err != nil {
		log.Warn("Error closing cache store", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing traces", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
