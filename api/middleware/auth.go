package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dividendfetcher/models"
)

// credentialKey is the context key under which the authenticated API key is
// stored for downstream middleware (rate limiting keys off it).
const credentialKey = "api_key"

// keyring holds the configured API keys and matches candidates against them
// in constant time.
type keyring [][]byte

func newKeyring(apiKeys []string) keyring {
	var kr keyring
	for _, k := range apiKeys {
		if k != "" {
			kr = append(kr, []byte(k))
		}
	}
	return kr
}

func (kr keyring) contains(candidate string) bool {
	c := []byte(candidate)
	for _, k := range kr {
		if subtle.ConstantTimeCompare(k, c) == 1 {
			return true
		}
	}
	return false
}

// Auth returns API-key authentication middleware accepting either an
// `X-API-Key: <key>` header or `Authorization: Bearer <key>`. With no keys
// configured the middleware passes every request through (open access).
func Auth(apiKeys []string) gin.HandlerFunc {
	kr := newKeyring(apiKeys)
	if len(kr) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := bearerOrHeaderKey(c)
		switch {
		case key == "":
			unauthorized(c, "missing API key: use X-API-Key or Authorization: Bearer <key>")
		case !kr.contains(key):
			unauthorized(c, "invalid API key")
		default:
			c.Set(credentialKey, key)
			c.Next()
		}
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}

// bearerOrHeaderKey extracts the presented key, X-API-Key taking precedence.
func bearerOrHeaderKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	const prefix = "Bearer "
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, prefix) {
		return auth[len(prefix):]
	}
	return ""
}
