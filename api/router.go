package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"dividendfetcher/api/handler"
	"dividendfetcher/api/middleware"
	"dividendfetcher/browser"
	"dividendfetcher/cache"
	"dividendfetcher/config"
	"dividendfetcher/dividend"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if keys configured) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(svc *dividend.Service, pool *browser.Pool, cc *cache.Cache, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(pool, cc, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.GET("/dividend/:ticker", handler.GetDividend(svc))
	protected.POST("/dividends/batch", handler.PostBatch(svc, cfg.Browser.MaxInstances))
	protected.DELETE("/cache/:ticker", handler.InvalidateTicker(svc))
	protected.DELETE("/cache", handler.InvalidateAll(svc))

	return r
}
