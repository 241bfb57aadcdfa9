package models

import "time"

// DividendInfo holds the four fields extracted from a ticker's dividend page.
// Values are kept as the source displays them (e.g. "$0.48", "3.1%") to avoid
// lossy reformatting. Immutable once produced.
type DividendInfo struct {
	ExDate         string    `json:"ex_date"`
	PayDate        string    `json:"pay_date"`
	DividendAmount string    `json:"dividend_amount"`
	YieldValue     string    `json:"yield"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// Complete reports whether all four fields are populated.
func (d *DividendInfo) Complete() bool {
	return d.ExDate != "" && d.PayDate != "" && d.DividendAmount != "" && d.YieldValue != ""
}
