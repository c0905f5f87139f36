package main

import (
	"time"

	"github.com/erp/invoice/internal/infrastructure/config"
	"github.com/erp/invoice/internal/infrastructure/logger"
	"github.com/erp/invoice/internal/infrastructure/telemetry"
	"github.com/erp/invoice/internal/interfaces/http/handler"
	"github.com/erp/invoice/internal/interfaces/http/middleware"
	"github.com/erp/invoice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newEngine builds the gin engine with the middleware stack and every route
func newEngine(cfg *config.Config, log *zap.Logger, svc handler.InvoiceService, metrics *telemetry.Metrics) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID must exist before logging and tracing read it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	if cfg.Metrics.Enabled {
		engine.Use(metrics.GinMiddleware())
	}
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
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	system := handler.NewSystemHandler(cfg.App.Name, version)
	engine.GET("/health", system.Health)

	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	handler.NewBillingDocumentHandler(svc).RegisterRoutes(r)
	r.Setup()

	return engine
}
