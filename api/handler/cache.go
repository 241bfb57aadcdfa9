package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dividendfetcher/cache"
	"dividendfetcher/dividend"
	"dividendfetcher/models"
)

// InvalidateTicker returns a handler for DELETE /api/v1/cache/:ticker.
func InvalidateTicker(svc *dividend.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("ticker")
		if !ValidTicker(raw) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "ticker must match ^[A-Za-z0-9.-]{1,10}$",
				},
			})
			return
		}
		ticker := cache.Key(raw)
		svc.Invalidate(ticker)
		c.JSON(http.StatusOK, gin.H{"invalidated": ticker})
	}
}

// InvalidateAll returns a handler for DELETE /api/v1/cache.
func InvalidateAll(svc *dividend.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.InvalidateAll()
		c.JSON(http.StatusOK, gin.H{"invalidated": "all"})
	}
}
