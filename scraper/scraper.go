package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dividendfetcher/browser"
	"dividendfetcher/config"
	"dividendfetcher/models"
)

// Instance-identifying parameters applied before every fetch. Fixed values:
// the source serves the same markup to every visitor that looks like this.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	viewportWidth  = 1920
	viewportHeight = 1080
)

// Extractor pulls the four dividend fields out of rendered page markup.
// It is injected so the scraper core stays free of site-specific DOM logic.
type Extractor interface {
	Extract(html string) (*models.DividendInfo, error)
}

// Scraper drives one pool instance through navigation and extraction.
//
// Lifecycle of a fetch:
//
//  1. Deadline guard      – RenderTimeout bounds the whole operation
//  2. Acquire instance    – may suspend while the pool is saturated
//  3. DEFER: release      – instance returns to the pool on every path
//  4. Configure           – fixed user agent + viewport
//  5. Navigate            – retried with linear backoff, navigation only
//  6. Wait for marker     – dividend table vs the hard deadline
//  7. Extract             – injected predicate over the rendered HTML
type Scraper struct {
	pool      *browser.Pool
	extractor Extractor
	cfg       config.ScraperConfig

	// sleep is the backoff primitive, replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Scraper on top of an instance pool and an extractor.
func New(pool *browser.Pool, extractor Extractor, cfg config.ScraperConfig) *Scraper {
	if cfg.NavRetries < 1 {
		cfg.NavRetries = 1
	}
	return &Scraper{
		pool:      pool,
		extractor: extractor,
		cfg:       cfg,
		sleep:     sleepCtx,
	}
}

// Fetch scrapes the dividend page for an already-validated ticker.
func (s *Scraper) Fetch(ctx context.Context, ticker string) (*models.DividendInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	defer cancel()

	inst, err := s.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, models.NewFetchError(models.ErrCodeNavTimeout,
				"timed out waiting for a browser instance", err)
		}
		return nil, err
	}
	defer s.pool.Release(inst)

	if err := inst.Configure(ctx, userAgent, viewportWidth, viewportHeight); err != nil {
		return nil, models.NewFetchError(models.ErrCodeInternal,
			"failed to configure browser instance", err)
	}

	target := fmt.Sprintf(s.cfg.SourceURLTemplate, strings.ToLower(ticker))
	if err := s.navigate(ctx, inst, target); err != nil {
		return nil, err
	}

	if err := inst.WaitVisible(ctx, s.cfg.TableSelector); err != nil {
		return nil, models.NewFetchError(models.ErrCodeExtractionTimeout,
			"dividend table did not appear before the deadline", err)
	}

	html, err := inst.HTML(ctx)
	if err != nil {
		return nil, models.NewFetchError(models.ErrCodeExtractionTimeout,
			"failed to read rendered page", err)
	}

	info, err := s.extractor.Extract(html)
	if err != nil {
		return nil, err
	}
	info.FetchedAt = time.Now()

	slog.Debug("fetch complete", "ticker", ticker, "url", target)
	return info, nil
}

// navigate attempts the page load up to NavRetries times, sleeping
// attempt × NavBackoffBase between failures. Only navigation is retried;
// extraction failures never come back here.
func (s *Scraper) navigate(ctx context.Context, inst browser.Instance, target string) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.NavRetries; attempt++ {
		err := inst.Navigate(ctx, target)
		if err == nil {
			if attempt > 1 {
				slog.Info("navigation recovered", "url", target, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		// A spent deadline cannot be retried into success.
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		slog.Warn("navigation failed", "url", target, "attempt", attempt, "error", err)

		if attempt < s.cfg.NavRetries {
			if err := s.sleep(ctx, time.Duration(attempt)*s.cfg.NavBackoffBase); err != nil {
				break
			}
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) || ctx.Err() != nil {
		return models.NewFetchError(models.ErrCodeNavTimeout,
			"navigation timed out", lastErr)
	}
	return models.NewFetchError(models.ErrCodeNavigation,
		fmt.Sprintf("navigation failed after %d attempts", s.cfg.NavRetries), lastErr)
}

// sleepCtx waits for d or until the context finishes, whichever is first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
