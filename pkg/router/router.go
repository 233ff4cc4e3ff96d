package router

import (
	"net/http"
	"strings"

	"solo-persona/backend/internal/api"
	"solo-persona/backend/internal/ws"
	"solo-persona/backend/pkg/config"
	"solo-persona/backend/pkg/di"
	"solo-persona/backend/pkg/errors"
	"solo-persona/backend/pkg/logger"
	"solo-persona/backend/pkg/middleware"
	"solo-persona/backend/pkg/validator"
	"solo-persona/backend/shared/observability"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config

	limiter   *middleware.RateLimiter
	validator *validator.OpenAPIValidator
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	cfg := container.Config

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))
	engine.Use(bodyLimit(cfg.Security.MaxBodySize))

	// Only the endpoints that reach the upstream model are limited, per session
	limiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit:   rate.Limit(cfg.Security.RateLimit),
		Burst:   cfg.Security.RateLimitBurst,
		KeyFunc: middleware.SessionKey,
	})

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		limiter:   limiter,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.setupHealthRoutes()

	v1 := r.Engine.Group("/api/v1")
	api.NewSessionHandler(r.Container.Sessions).RegisterRoutes(v1, r.limiter.Middleware())

	wsHandler := ws.NewHandler(r.Container.Hub, r.Container.Sessions, r.Config.Security.AllowedOrigins)
	r.Engine.GET("/ws", wsHandler.ServeWs)

	r.Engine.GET("/metrics", gin.WrapH(observability.MetricsHandler(prometheus.DefaultGatherer)))
}

// Close stops the limiter's cleanup loop.
func (r *Router) Close() {
	r.limiter.Close()
}

func bodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

// corsMiddleware allows the browser client, including WebSocket upgrade headers
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-Request-ID, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Location, Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
