package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insightboard/insightboard/handlers"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/oauthstate"
	"github.com/insightboard/insightboard/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// routerDeps carries everything the HTTP surface is assembled from.
type routerDeps struct {
	cfg       *config.Config
	login     handlers.LoginFlow
	authorize handlers.AuthorizeURLer
	states    oauthstate.Store
	metrics   handlers.MetricsReader
	sessions  middleware.SessionVerifier
	pingers   map[string]handlers.Pinger
	redis     *redis.Client
	startedAt time.Time
}

// rateLimiter returns nil when rate limiting is disabled.
func rateLimiter(cfg *config.Config, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if cfg.RateLimit.UseRedis && rdb != nil {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		return middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
	}
	return middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// newRouter builds the gin engine. The limiter on the auth routes is keyed by
// client IP; on the protected routes it runs after the session gate and is
// keyed by the signed-in user.
func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), corsMiddleware(d.cfg.Session.FrontendURL))

	handlers.RegisterHealth(r, d.startedAt, d.pingers)
	handlers.RegisterSwagger(r)

	limiter := rateLimiter(d.cfg, d.redis)
	var limits []gin.HandlerFunc
	if limiter != nil {
		limits = append(limits, limiter)
	}

	api := r.Group("/api")
	handlers.NewAuthHandler(d.cfg, d.login, d.authorize, d.states).Register(api.Group("", limits...))
	gate := middleware.SessionMiddleware(d.cfg.Session.CookieName, d.sessions)
	handlers.NewMetricsHandler(d.metrics).Register(api, gate, limits...)

	// Expose Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// corsMiddleware allows the frontend origin with credentials so the session
// cookie travels on XHR calls.
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Vary", "Origin")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
