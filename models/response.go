package models

// DividendResponse is the response for GET /api/v1/dividend/:ticker.
type DividendResponse struct {
	// Ticker is the normalized (upper-cased) symbol the data belongs to.
	Ticker string `json:"ticker"`

	// ExDate is the next ex-dividend date as displayed by the source.
	ExDate string `json:"ex_date,omitempty"`

	// PayDate is the next payment date as displayed by the source.
	PayDate string `json:"pay_date,omitempty"`

	// DividendAmount is the per-share amount, e.g. "$0.48".
	DividendAmount string `json:"dividend_amount,omitempty"`

	// YieldValue is the dividend yield, e.g. "3.1%".
	YieldValue string `json:"yield,omitempty"`

	// Cached indicates whether the result was served from the TTL cache.
	Cached bool `json:"cached"`

	// FetchedAt is when the data was scraped from the source.
	FetchedAt string `json:"fetched_at,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only on failure.
	Error *ErrorDetail `json:"error,omitempty"`
}

// BatchRequest is the payload for POST /api/v1/dividends/batch.
type BatchRequest struct {
	Tickers []string `json:"tickers" binding:"required"`
}

// BatchEntry is one per-ticker outcome inside a batch response.
// Exactly one of Data or Error is set.
type BatchEntry struct {
	Data  *DividendInfo `json:"data,omitempty"`
	Error *ErrorDetail  `json:"error,omitempty"`
}

// BatchResponse maps normalized tickers to their individual outcomes.
// A failed ticker never fails the whole batch.
type BatchResponse struct {
	Results map[string]BatchEntry `json:"results"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent navigating and extracting, zero on cache hits.
	FetchMs int64 `json:"fetch_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string     `json:"status"` // "healthy" or "degraded"
	Uptime  string     `json:"uptime"`
	Pool    PoolStats  `json:"pool"`
	Cache   CacheStats `json:"cache"`
	Version string     `json:"version"`
}

// PoolStats reports the state of the browser instance pool.
type PoolStats struct {
	MaxInstances int `json:"max_instances"`
	Active       int `json:"active"`
	Idle         int `json:"idle"`
	Waiting      int `json:"waiting"`
}

// CacheStats reports the state of the result cache.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
