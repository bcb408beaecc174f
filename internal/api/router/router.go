package router

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/denisAlshanov/mediaresolver/internal/api/handlers"
	"github.com/denisAlshanov/mediaresolver/internal/api/middleware"
	"github.com/denisAlshanov/mediaresolver/internal/config"
)

type Router struct {
	engine *gin.Engine
	config *config.Config
	server *http.Server
}

func NewRouter(cfg *config.Config, resolveHandler *handlers.ResolveHandler, healthHandler *handlers.HealthHandler) *Router {
	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())

	// Health endpoints (no auth required)
	health := engine.Group("/")
	{
		health.GET("/health", healthHandler.Health)
		health.GET("/ready", healthHandler.Readiness)
		health.GET("/live", healthHandler.Liveness)
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group("/api/v1")
	api.Use(middleware.APIKeyMiddleware(&cfg.API))
	api.Use(middleware.RateLimitMiddleware(&cfg.API))
	{
		api.POST("/resolve", resolveHandler.Resolve)     // /api/v1/resolve
		api.GET("/resolve", resolveHandler.ResolveQuery) // /api/v1/resolve?url=
	}

	legacy := engine.Group("/")
	legacy.Use(middleware.APIKeyMiddleware(&cfg.API))
	legacy.Use(middleware.RateLimitMiddleware(&cfg.API))
	{
		legacy.GET("/get_instagram_reel_url", resolveHandler.LegacyReel)
	}

	return &Router{
		engine: engine,
		config: cfg,
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (r *Router) Start() error {
	if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (r *Router) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
