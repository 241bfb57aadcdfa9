package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"dividendfetcher/config"
	"dividendfetcher/models"
)

const (
	evictInterval = 5 * time.Minute
	staleAfter    = time.Hour
)

// limiterStore keeps one token bucket per caller identity and evicts buckets
// idle past staleAfter so an open endpoint cannot grow it unboundedly.
type limiterStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit rate.Limit
	burst int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	s := &limiterStore{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(cfg.MaxRequests) / cfg.Window.Seconds()),
		burst:   cfg.MaxRequests,
	}
	go s.evictLoop()
	return s
}

// allow consumes one token from the identity's bucket, creating it on first
// sight with a full burst.
func (s *limiterStore) allow(identity string) bool {
	s.mu.Lock()
	b, ok := s.buckets[identity]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[identity] = b
	}
	b.lastSeen = time.Now()
	s.mu.Unlock()
	return b.limiter.Allow()
}

func (s *limiterStore) evictLoop() {
	for range time.Tick(evictInterval) {
		cutoff := time.Now().Add(-staleAfter)
		s.mu.Lock()
		for id, b := range s.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(s.buckets, id)
			}
		}
		s.mu.Unlock()
	}
}

// RateLimit returns per-identity token-bucket rate limiting middleware. The
// window/max configuration maps to a sustained rate of max/window with a
// burst of max. Identity is the authenticated API key when present,
// otherwise the client IP.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	store := newLimiterStore(cfg)

	return func(c *gin.Context) {
		identity := c.GetString(credentialKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !store.allow(identity) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, slow down",
				},
			})
			return
		}
		c.Next()
	}
}
