package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/config"
	"shoppa-backend/internal/shared/metrics"
	"shoppa-backend/internal/shared/server/middleware"
	"shoppa-backend/internal/shared/server/respond"
)

const (
	groupGeneration = "GENERATION"
	groupPolling    = "POLLING"
	groupDefault    = "DEFAULT"
	groupOpen       = "OPEN"
)

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries configuration and the feature handlers mounted under /api/v1.
type RouterDeps struct {
	Config   config.Config
	Handlers []RouteRegistrar
	Limiter  *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
	)
	if deps.Config.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(rateLimitConfig(deps.Config, deps.Limiter)))
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	registerMeRoutes(api)
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

// rateLimitConfig throttles model-backed routes at the configured rate and
// everything else more loosely. Health, readiness and metrics are never
// limited.
func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return middleware.RateLimitConfig{
		DefaultGroup: groupDefault,
		GroupFor:     routeGroup,
		Limiter:      limiter,
		Rules: map[string]middleware.RateLimitRule{
			groupGeneration: {Rate: cfg.RateLimitRPS, Burst: burst},
			groupPolling:    {Rate: cfg.RateLimitRPS * 10, Burst: burst * 5},
			groupDefault:    {Rate: cfg.RateLimitRPS * 5, Burst: burst * 2},
		},
	}
}

func routeGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case path == "/api/v1/health", path == "/api/v1/ready", path == "/api/v1/metrics":
		return groupOpen
	case c.Request.Method != http.MethodPost:
		return groupPolling
	case strings.HasPrefix(path, "/api/v1/recommendations"),
		path == "/api/v1/analyze",
		path == "/api/v1/onboarding":
		return groupGeneration
	default:
		return groupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
