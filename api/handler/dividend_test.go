package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dividendfetcher/cache"
	"dividendfetcher/dividend"
	"dividendfetcher/models"
)

// fakeFetcher serves per-ticker canned results or errors.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string]*models.DividendInfo
	errs    map[string]error
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, ticker string) (*models.DividendInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	if info, ok := f.results[ticker]; ok {
		return info, nil
	}
	return nil, models.NewFetchError(models.ErrCodeNoData, "no dividend data found on page", nil)
}

func koInfo() *models.DividendInfo {
	return &models.DividendInfo{
		ExDate:         "2024-01-15",
		PayDate:        "2024-02-01",
		DividendAmount: "$0.48",
		YieldValue:     "3.1%",
		FetchedAt:      time.Now(),
	}
}

func newTestService(f dividend.Fetcher) *dividend.Service {
	return dividend.NewService(f, cache.New(0), time.Minute)
}

func dividendRouter(svc *dividend.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/dividend/:ticker", GetDividend(svc))
	r.DELETE("/api/v1/cache/:ticker", InvalidateTicker(svc))
	r.DELETE("/api/v1/cache", InvalidateAll(svc))
	return r
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestValidTicker(t *testing.T) {
	for _, ok := range []string{"AAPL", "ko", "BRK.B", "RDS-A", "A1"} {
		assert.True(t, ValidTicker(ok), ok)
	}
	for _, bad := range []string{"", "TOOLONGTICKER", "AAPL$", "a b", "AAPL;rm"} {
		assert.False(t, ValidTicker(bad), bad)
	}
}

func TestGetDividend_Success(t *testing.T) {
	f := &fakeFetcher{results: map[string]*models.DividendInfo{"KO": koInfo()}}
	r := dividendRouter(newTestService(f))

	w := doRequest(r, http.MethodGet, "/api/v1/dividend/ko")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DividendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "KO", resp.Ticker, "ticker is normalized in the response")
	assert.Equal(t, "$0.48", resp.DividendAmount)
	assert.Equal(t, "3.1%", resp.YieldValue)
	assert.False(t, resp.Cached)
	assert.Nil(t, resp.Error)
}

func TestGetDividend_CachedFlagOnSecondRequest(t *testing.T) {
	f := &fakeFetcher{results: map[string]*models.DividendInfo{"KO": koInfo()}}
	r := dividendRouter(newTestService(f))

	doRequest(r, http.MethodGet, "/api/v1/dividend/KO")
	w := doRequest(r, http.MethodGet, "/api/v1/dividend/KO")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DividendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
	assert.Equal(t, 1, f.calls)
}

func TestGetDividend_InvalidTicker(t *testing.T) {
	f := &fakeFetcher{}
	r := dividendRouter(newTestService(f))

	w := doRequest(r, http.MethodGet, "/api/v1/dividend/AAPL$")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.DividendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeInvalidInput, resp.Error.Code)
	assert.Equal(t, 0, f.calls, "invalid input never reaches the fetcher")
}

func TestGetDividend_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		code   string
		status int
	}{
		{"no data", models.ErrCodeNoData, http.StatusNotFound},
		{"nav timeout", models.ErrCodeNavTimeout, http.StatusRequestTimeout},
		{"extraction timeout", models.ErrCodeExtractionTimeout, http.StatusRequestTimeout},
		{"navigation failed", models.ErrCodeNavigation, http.StatusServiceUnavailable},
		{"internal", models.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeFetcher{errs: map[string]error{
				"KO": models.NewFetchError(tc.code, tc.name, nil),
			}}
			r := dividendRouter(newTestService(f))

			w := doRequest(r, http.MethodGet, "/api/v1/dividend/KO")
			assert.Equal(t, tc.status, w.Code)

			var resp models.DividendResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestCacheInvalidation_Endpoints(t *testing.T) {
	f := &fakeFetcher{results: map[string]*models.DividendInfo{"KO": koInfo()}}
	r := dividendRouter(newTestService(f))

	doRequest(r, http.MethodGet, "/api/v1/dividend/KO")

	w := doRequest(r, http.MethodDelete, "/api/v1/cache/ko")
	require.Equal(t, http.StatusOK, w.Code)

	doRequest(r, http.MethodGet, "/api/v1/dividend/KO")
	assert.Equal(t, 2, f.calls, "invalidation forces a refetch")

	w = doRequest(r, http.MethodDelete, "/api/v1/cache/AAPL$")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/v1/cache")
	require.Equal(t, http.StatusOK, w.Code)
	doRequest(r, http.MethodGet, "/api/v1/dividend/KO")
	assert.Equal(t, 3, f.calls)
}
