package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"dividendfetcher/cache"
	"dividendfetcher/dividend"
	"dividendfetcher/models"
)

// maxBatchTickers bounds one batch request.
const maxBatchTickers = 10

// PostBatch returns a handler for POST /api/v1/dividends/batch.
//
// Every ticker resolves independently: an invalid symbol or a failed fetch
// lands as an error entry in the per-ticker result map and never fails the
// batch. Fetch concurrency is bounded by maxConcurrent (the pool size), so
// one batch cannot monopolize more browsers than the pool holds.
func PostBatch(svc *dividend.Service, maxConcurrent int) gin.HandlerFunc {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "body must be {\"tickers\": [..]}",
				},
			})
			return
		}

		if len(req.Tickers) == 0 || len(req.Tickers) > maxBatchTickers {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "tickers must contain between 1 and 10 entries",
				},
			})
			return
		}

		results := make(map[string]models.BatchEntry, len(req.Tickers))
		var mu sync.Mutex
		var wg sync.WaitGroup
		sem := make(chan struct{}, maxConcurrent)

		for _, raw := range req.Tickers {
			key := raw
			if ValidTicker(raw) {
				key = cache.Key(raw)
			}

			mu.Lock()
			if _, dup := results[key]; dup {
				mu.Unlock()
				continue
			}
			results[key] = models.BatchEntry{} // reserve, filled below
			mu.Unlock()

			if !ValidTicker(raw) {
				mu.Lock()
				results[key] = models.BatchEntry{Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "ticker must match ^[A-Za-z0-9.-]{1,10}$",
				}}
				mu.Unlock()
				continue
			}

			wg.Add(1)
			go func(ticker string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				entry := fetchOne(c, svc, ticker)
				mu.Lock()
				results[ticker] = entry
				mu.Unlock()
			}(key)
		}

		wg.Wait()
		c.JSON(http.StatusOK, models.BatchResponse{Results: results})
	}
}

// fetchOne resolves a single validated ticker into a batch entry.
func fetchOne(c *gin.Context, svc *dividend.Service, ticker string) models.BatchEntry {
	info, _, err := svc.Get(c.Request.Context(), ticker)
	if err != nil {
		fetchErr, ok := err.(*models.FetchError)
		if !ok {
			fetchErr = models.NewFetchError(models.ErrCodeInternal, err.Error(), err)
		}
		return models.BatchEntry{Error: fetchErr.ToDetail()}
	}
	return models.BatchEntry{Data: info}
}
