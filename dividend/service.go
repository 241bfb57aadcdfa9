package dividend

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"dividendfetcher/cache"
	"dividendfetcher/models"
)

// Fetcher performs the expensive scrape for one ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (*models.DividendInfo, error)
}

// Service fronts the Fetcher with the TTL cache and coalesces concurrent
// misses for the same ticker into a single in-flight fetch, so a burst of
// identical requests costs one browser navigation.
type Service struct {
	fetcher Fetcher
	cache   *cache.Cache
	ttl     time.Duration
	sf      singleflight.Group
}

// NewService wires a Fetcher behind the cache with the given result TTL.
func NewService(fetcher Fetcher, c *cache.Cache, ttl time.Duration) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   c,
		ttl:     ttl,
	}
}

// Get returns the dividend info for a ticker. The second return value
// reports whether the result came from the cache. All callers coalesced
// onto one fetch receive the same result or the same error.
func (s *Service) Get(ctx context.Context, ticker string) (*models.DividendInfo, bool, error) {
	key := cache.Key(ticker)

	if info := s.cache.Get(key); info != nil {
		return info, true, nil
	}

	v, err, shared := s.sf.Do(key, func() (any, error) {
		// A coalesced caller may arrive just after the leader stored the
		// result; re-check before paying for a scrape.
		if info := s.cache.Get(key); info != nil {
			return info, nil
		}

		info, err := s.fetcher.Fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, info, s.ttl)
		return info, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		slog.Debug("coalesced concurrent fetch", "ticker", key)
	}
	return v.(*models.DividendInfo), false, nil
}

// Invalidate drops one ticker's cached result.
func (s *Service) Invalidate(ticker string) {
	s.cache.Invalidate(ticker)
}

// InvalidateAll drops every cached result.
func (s *Service) InvalidateAll() {
	s.cache.InvalidateAll()
}
