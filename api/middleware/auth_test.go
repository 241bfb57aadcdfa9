package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(keys))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"key": c.GetString("api_key")})
	})
	return r
}

func ping(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_OpenAccessWhenNoKeysConfigured(t *testing.T) {
	r := authRouter(nil)
	w := ping(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_MissingKey(t *testing.T) {
	r := authRouter([]string{"secret"})
	w := ping(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestAuth_InvalidKey(t *testing.T) {
	r := authRouter([]string{"secret"})
	w := ping(r, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_XAPIKeyHeader(t *testing.T) {
	r := authRouter([]string{"secret"})
	w := ping(r, map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "secret", "key is stashed for downstream middleware")
}

func TestAuth_BearerHeader(t *testing.T) {
	r := authRouter([]string{"secret"})
	w := ping(r, map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}
