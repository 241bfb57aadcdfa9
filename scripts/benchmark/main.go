// Benchmark tool that measures dividend API latency per ticker, cold fetch
// versus cache hit. Run against a live server:
//
//	go run ./scripts/benchmark -api-url http://localhost:8080 -runs 4
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL  = flag.String("api-url", "http://localhost:8080", "dividend API base URL")
	apiKey  = flag.String("api-key", "", "API key for authenticated requests")
	runs    = flag.Int("runs", 4, "requests per ticker; run 1 is cold, the rest hit the cache")
	output  = flag.String("output", "benchmark-results.json", "JSON output file path")
	tickers = flag.String("tickers", "AAPL,MSFT,KO,JNJ,T", "comma-separated tickers to benchmark")
)

// --- Response types (mirrors models package) ---

type dividendResponse struct {
	Ticker         string       `json:"ticker"`
	ExDate         string       `json:"ex_date"`
	PayDate        string       `json:"pay_date"`
	DividendAmount string       `json:"dividend_amount"`
	YieldValue     string       `json:"yield"`
	Cached         bool         `json:"cached"`
	Timing         timingInfo   `json:"timing"`
	Error          *errorDetail `json:"error,omitempty"`
}

type timingInfo struct {
	TotalMs int64 `json:"total_ms"`
	FetchMs int64 `json:"fetch_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	WallMs     int64  `json:"wall_ms"`
	ServerMs   int64  `json:"server_ms"`
	FetchMs    int64  `json:"fetch_ms"`
	Cached     bool   `json:"cached"`
	StatusCode int    `json:"status_code"`
	Complete   bool   `json:"complete"`
	Error      string `json:"error,omitempty"`
}

type tickerResult struct {
	Ticker       string      `json:"ticker"`
	Runs         []runResult `json:"runs"`
	ColdMs       int64       `json:"cold_ms"`
	AvgCachedMs  float64     `json:"avg_cached_ms"`
	CacheSpeedup float64     `json:"cache_speedup"`
}

type benchmarkReport struct {
	Timestamp    string         `json:"timestamp"`
	APIURL       string         `json:"api_url"`
	RunsPerQuery int            `json:"runs_per_ticker"`
	Results      []tickerResult `json:"results"`
}

func main() {
	flag.Parse()

	list := splitTickers(*tickers)

	fmt.Println("=== Dividend Fetcher Benchmark ===")
	fmt.Printf("API URL:      %s\n", *apiURL)
	fmt.Printf("Runs/ticker:  %d\n", *runs)
	fmt.Printf("Tickers:      %s\n", strings.Join(list, ", "))
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the server is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		APIURL:       *apiURL,
		RunsPerQuery: *runs,
	}

	for _, ticker := range list {
		fmt.Printf("Benchmarking %s ...\n", ticker)

		// Start from a cold cache so run 1 measures a real scrape.
		invalidate(ticker)

		tr := tickerResult{Ticker: ticker}
		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkTicker(ticker, i)
			if rr.Error == "" {
				kind := "cold"
				if rr.Cached {
					kind = "cached"
				}
				fmt.Printf("OK  %dms (%s)\n", rr.WallMs, kind)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			tr.Runs = append(tr.Runs, rr)
		}

		summarize(&tr)
		report.Results = append(report.Results, tr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func splitTickers(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func invalidate(ticker string) {
	req, err := http.NewRequest("DELETE", *apiURL+"/api/v1/cache/"+ticker, nil)
	if err != nil {
		return
	}
	authorize(req)
	client := &http.Client{Timeout: 10 * time.Second}
	if resp, err := client.Do(req); err == nil {
		resp.Body.Close()
	}
}

func authorize(req *http.Request) {
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}
}

func benchmarkTicker(ticker string, run int) runResult {
	rr := runResult{Run: run}

	req, err := http.NewRequest("GET", *apiURL+"/api/v1/dividend/"+ticker, nil)
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	authorize(req)

	client := &http.Client{Timeout: 90 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	rr.WallMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.StatusCode = resp.StatusCode

	var dr dividendResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.ServerMs = dr.Timing.TotalMs
	rr.FetchMs = dr.Timing.FetchMs
	rr.Cached = dr.Cached
	rr.Complete = dr.ExDate != "" && dr.PayDate != "" && dr.DividendAmount != "" && dr.YieldValue != ""

	if dr.Error != nil {
		rr.Error = dr.Error.Message
	}
	return rr
}

// summarize derives cold latency and the average cached latency from runs.
func summarize(tr *tickerResult) {
	var cachedSum float64
	var cachedCount int

	for _, r := range tr.Runs {
		if r.Error != "" {
			continue
		}
		if r.Cached {
			cachedSum += float64(r.WallMs)
			cachedCount++
		} else {
			tr.ColdMs = r.WallMs
		}
	}

	if cachedCount > 0 {
		tr.AvgCachedMs = cachedSum / float64(cachedCount)
		if tr.AvgCachedMs > 0 && tr.ColdMs > 0 {
			tr.CacheSpeedup = float64(tr.ColdMs) / tr.AvgCachedMs
		}
	}
}

func printTable(results []tickerResult) {
	fmt.Println(strings.Repeat("─", 60))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Ticker\tCold\tCached Avg\tSpeedup\tStatus\n")
	fmt.Fprintf(w, "──────\t────\t──────────\t───────\t──────\n")

	for _, r := range results {
		status := dominantStatus(r.Runs)
		if r.ColdMs == 0 && r.AvgCachedMs == 0 {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t%d\n", r.Ticker, status)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.1fms\t%.0fx\t%d\n",
			r.Ticker, r.ColdMs, r.AvgCachedMs, r.CacheSpeedup, status)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 60))
}

func dominantStatus(runs []runResult) int {
	counts := map[int]int{}
	for _, r := range runs {
		counts[r.StatusCode]++
	}
	best, bestCount := 0, 0
	for code, count := range counts {
		if count > bestCount {
			best = code
			bestCount = count
		}
	}
	return best
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
