package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dividendfetcher/browser"
	"dividendfetcher/cache"
	"dividendfetcher/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of instances are
// active, plus a cache size/hit-rate snapshot.
func Health(pool *browser.Pool, cc *cache.Cache, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.MaxInstances > 0 && stats.Active > int(float64(stats.MaxInstances)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Pool:    stats,
			Cache:   cc.Stats(),
			Version: "0.1.0",
		})
	}
}
