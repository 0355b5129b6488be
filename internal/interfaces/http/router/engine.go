package router

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/purchasing/internal/infrastructure/logger"
	"github.com/erp/purchasing/internal/interfaces/http/dto"
	"github.com/erp/purchasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// EngineConfig configures the gin engine and its middleware chain
type EngineConfig struct {
	Logger         *zap.Logger
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	Tracing        middleware.TracingConfig
	Metrics        middleware.HTTPMetricsConfig
	// Auth resolves the actor of a request, normally middleware.JWTAuth.
	// It must let /health and /swagger through.
	Auth gin.HandlerFunc
	// Swagger guards /swagger; SwaggerAuth is applied when it requires auth
	Swagger     middleware.SwaggerConfig
	SwaggerAuth gin.HandlerFunc
	// Health checks run by GET /health, keyed by component name
	Health map[string]HealthCheck
}

// NewEngine builds a gin engine with the middleware chain in order:
// request ID, logging, recovery, tracing, metrics, CORS, security
// headers, body limit and auth. It also mounts GET /health and, when
// enabled, the API docs under /swagger.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.Auth != nil {
		engine.Use(cfg.Auth)
	}

	engine.GET("/health", healthHandler(cfg.Health))
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(cfg.Swagger, cfg.SwaggerAuth),
			ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	return engine, nil
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.GetGinLogger(c).Warn("Health check failed", zap.String("component", name), zap.Error(err))
				components[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "up"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{"status": state, "components": components})
	}
}
