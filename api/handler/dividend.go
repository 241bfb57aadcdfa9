package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"dividendfetcher/cache"
	"dividendfetcher/dividend"
	"dividendfetcher/models"
)

// tickerPattern is the accepted ticker format: letters, digits, dots and
// dashes, at most 10 characters.
var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.-]{1,10}$`)

// ValidTicker reports whether a raw ticker string is acceptable.
func ValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}

// GetDividend returns a handler for GET /api/v1/dividend/:ticker.
func GetDividend(svc *dividend.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		raw := c.Param("ticker")
		if !ValidTicker(raw) {
			c.JSON(http.StatusBadRequest, models.DividendResponse{
				Ticker: raw,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "ticker must match ^[A-Za-z0-9.-]{1,10}$",
				},
			})
			return
		}
		ticker := cache.Key(raw)

		fetchStart := time.Now()
		info, cached, err := svc.Get(c.Request.Context(), ticker)
		fetchMs := time.Since(fetchStart).Milliseconds()

		if err != nil {
			respondError(c, ticker, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
				FetchMs: fetchMs,
			})
			return
		}

		resp := models.DividendResponse{
			Ticker:         ticker,
			ExDate:         info.ExDate,
			PayDate:        info.PayDate,
			DividendAmount: info.DividendAmount,
			YieldValue:     info.YieldValue,
			Cached:         cached,
			FetchedAt:      info.FetchedAt.Format(time.RFC3339),
			Timing: models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			},
		}
		if !cached {
			resp.Timing.FetchMs = fetchMs
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a FetchError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, ticker string, err error, timing models.TimingInfo) {
	fetchErr, ok := err.(*models.FetchError)
	if !ok {
		fetchErr = models.NewFetchError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(fetchErr), models.DividendResponse{
		Ticker: ticker,
		Error:  fetchErr.ToDetail(),
		Timing: timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.FetchError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNoData:
		return http.StatusNotFound // 404
	case models.ErrCodeNavTimeout, models.ErrCodeExtractionTimeout:
		return http.StatusRequestTimeout // 408
	case models.ErrCodeNavigation:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
