package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"dividendfetcher/config"
)

func rateLimitRouter(cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(cfg))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func getWithIP(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	r := rateLimitRouter(config.RateLimitConfig{
		Window:      time.Hour, // refill is negligible within the test
		MaxRequests: 3,
	})

	for i := 0; i < 3; i++ {
		w := getWithIP(r, "10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code, "request %d inside the burst", i+1)
	}

	w := getWithIP(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimit_IdentitiesAreIndependent(t *testing.T) {
	r := rateLimitRouter(config.RateLimitConfig{
		Window:      time.Hour,
		MaxRequests: 1,
	})

	assert.Equal(t, http.StatusOK, getWithIP(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, getWithIP(r, "10.0.0.1").Code)

	assert.Equal(t, http.StatusOK, getWithIP(r, "10.0.0.2").Code,
		"a second client keeps its own bucket")
}

func TestRateLimit_KeyedByAPIKeyWhenPresent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("api_key", c.GetHeader("X-API-Key")) })
	r.Use(RateLimit(config.RateLimitConfig{Window: time.Hour, MaxRequests: 1}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(key string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-API-Key", key)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("alpha"))
	assert.Equal(t, http.StatusTooManyRequests, get("alpha"))
	assert.Equal(t, http.StatusOK, get("beta"), "buckets are per API key, not per IP")
}
