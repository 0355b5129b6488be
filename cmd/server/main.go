package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/erp/purchasing/docs"
	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/erp/purchasing/internal/infrastructure/auth"
	"github.com/erp/purchasing/internal/infrastructure/cache"
	"github.com/erp/purchasing/internal/infrastructure/config"
	"github.com/erp/purchasing/internal/infrastructure/event"
	"github.com/erp/purchasing/internal/infrastructure/logger"
	"github.com/erp/purchasing/internal/infrastructure/persistence"
	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"github.com/erp/purchasing/internal/interfaces/http/handler"
	"github.com/erp/purchasing/internal/interfaces/http/middleware"
	"github.com/erp/purchasing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

//	@title			Purchase Order Lifecycle API
//	@version		1.0
//	@description	Purchase order approval, payment and receiving workflow
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.

const shutdownGrace = 30 * time.Second

// providers groups the OpenTelemetry providers so they can be shut down together
type providers struct {
	tracer *telemetry.TracerProvider
	meter  *telemetry.MeterProvider
	logs   *telemetry.LoggerProvider
}

func (p providers) shutdown(ctx context.Context, log *zap.Logger) {
	if err := p.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := p.meter.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := p.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}

func initTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (providers, error) {
	t := cfg.Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		return providers{}, err
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricInterval,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		return providers{}, err
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           t.Enabled && t.LogExportEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		return providers{}, err
	}
	return providers{tracer: tp, meter: mp, logs: lp}, nil
}

// authMiddleware builds the actor resolution for the API and for the docs.
// Without a JWT secret only the X-Actor-ID header is read, which config
// validation permits outside production alone.
func authMiddleware(cfg *config.Config, log *zap.Logger) (api, docs gin.HandlerFunc) {
	if cfg.Auth.JWTSecret == "" {
		log.Warn("No JWT secret configured, actors are taken from the X-Actor-ID header")
		return middleware.ActorHeader(), nil
	}

	jwtService := auth.NewJWTService(cfg.Auth)
	apiCfg := middleware.DefaultJWTConfig(jwtService)
	apiCfg.AllowActorHeader = cfg.Auth.AllowActorHeader
	apiCfg.Logger = log

	docsCfg := apiCfg
	docsCfg.SkipPathPrefixes = nil
	return middleware.JWTAuth(apiCfg), middleware.JWTAuth(docsCfg)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelProviders, err := initTelemetry(ctx, cfg, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Tee zap into OTLP once the logger provider exists
	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		Name:           telemetry.TracerName,
		LoggerProvider: otelProviders.logs,
		Level:          zapcore.InfoLevel,
	}))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting purchase order service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	dbSystem := "postgresql"
	if db.Driver() == "sqlite" {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, otelProviders.meter, dbMetricsCfg, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	idempotency, err := cache.NewIdempotencyStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	eventBus := event.NewInMemoryEventBus(log)
	journal := event.NewJournalHandler(event.NewPurchasingSerializer(), log)
	eventBus.Subscribe(journal)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event handlers registered", zap.Strings("journal_events", journal.EventTypes()))

	lifecycle := purchasingapp.NewLifecycleService(persistence.NewGormOrderService(db.DB), purchasingapp.LifecycleConfig{
		ServiceTimeout: cfg.Purchasing.ServiceTimeout,
		IdempotencyTTL: cfg.Purchasing.IdempotencyTTL,
		Logger:         log,
	})
	lifecycle.SetEventPublisher(eventBus)
	lifecycle.SetIdempotencyStore(idempotency)
	if otelProviders.meter.IsEnabled() {
		lifecycleMetrics, err := telemetry.NewLifecycleMetrics(telemetry.LifecycleMetricsConfig{
			Meter:  otelProviders.meter.Meter(telemetry.TracerName),
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to create lifecycle metrics", zap.Error(err))
		}
		lifecycle.SetMetrics(lifecycleMetrics)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	tracing.ServiceName = cfg.Telemetry.ServiceName

	health := map[string]router.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if pinger, ok := idempotency.(interface{ Ping(context.Context) error }); ok {
		health["redis"] = pinger.Ping
	}

	apiAuth, docsAuth := authMiddleware(cfg, log)

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		CORS:           cors,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing:        tracing,
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: otelProviders.meter,
			Enabled:       true,
			Logger:        log,
		},
		Auth: apiAuth,
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.HTTP.SwaggerEnabled,
			RequireAuth: docsAuth != nil && cfg.App.Env == "production",
			AllowedIPs:  cfg.HTTP.SwaggerAllowedIPs,
		},
		SwaggerAuth: docsAuth,
		Health:      health,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}
	var routeMiddleware []gin.HandlerFunc
	if cfg.HTTP.RateLimitRequests > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		routeMiddleware = append(routeMiddleware, middleware.RateLimitMutations(limiter))
		log.Info("Mutation rate limit enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}
	router.NewRouter(engine).
		Register(router.PurchasingRoutes(handler.NewPurchaseOrderHandler(lifecycle), routeMiddleware...)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		otelProviders.shutdown(context.Background(), log)
		os.Exit(1)
	}

	otelProviders.shutdown(context.Background(), log)
	log.Info("Server exited gracefully")
}
