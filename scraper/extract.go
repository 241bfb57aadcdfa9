package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dividendfetcher/models"
)

// Canonical field labels as they appear on dividend pages, lower-cased with
// trailing colons stripped. Matching is by label text, not position, so
// column reshuffles on the source don't break extraction.
var (
	exDateLabels  = []string{"ex-dividend date", "ex-div date", "ex date"}
	payDateLabels = []string{"pay date", "payment date", "payout date"}
	amountLabels  = []string{"dividend amount", "cash amount", "amount", "dividend"}
	yieldLabels   = []string{"dividend yield", "yield"}
)

// placeholders are cell values that mean "no data yet".
var placeholders = map[string]struct{}{
	"": {}, "-": {}, "--": {}, "n/a": {}, "na": {}, "tbd": {},
}

// TableExtractor finds the dividend table in rendered markup and pulls the
// four fields by matching cell labels. It understands both layouts the
// source has used: label/value rows and a header row over data rows.
type TableExtractor struct {
	// Selector narrows the search to the dividend table.
	Selector string
}

// NewTableExtractor creates an extractor scoped to the given table selector.
func NewTableExtractor(selector string) *TableExtractor {
	if selector == "" {
		selector = "table"
	}
	return &TableExtractor{Selector: selector}
}

// Extract parses the markup and returns the four dividend fields.
// It fails with NO_DATA_FOUND when no matching row exists or any required
// field is empty or a placeholder.
func (e *TableExtractor) Extract(html string) (*models.DividendInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, models.NewFetchError(models.ErrCodeInternal,
			"failed to parse rendered page", err)
	}

	info := &models.DividendInfo{}
	doc.Find(e.Selector).EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if isColumnLayout(table) {
			extractColumns(table, info)
		} else {
			extractPairs(table, info)
		}
		return !info.Complete()
	})

	scrubPlaceholders(info)
	if !info.Complete() {
		return nil, models.NewFetchError(models.ErrCodeNoData,
			"no dividend data found on page", nil)
	}
	return info, nil
}

// isColumnLayout reports whether the table's first row is a header naming
// two or more known fields. Such tables carry values in the rows below,
// not beside the labels.
func isColumnLayout(table *goquery.Selection) bool {
	matches := 0
	table.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		label := normalizeLabel(cell.Text())
		for _, set := range [][]string{exDateLabels, payDateLabels, amountLabels, yieldLabels} {
			if matchesLabel(label, set) {
				matches++
				return
			}
		}
	})
	return matches >= 2
}

// extractPairs handles label/value layouts: each row's first cell names the
// field and the second carries the value.
func extractPairs(table *goquery.Selection, info *models.DividendInfo) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := normalizeLabel(cells.First().Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		assignField(info, label, value)
	})
}

// extractColumns handles header-over-rows layouts: the header names the
// columns and the first data row carries the values.
func extractColumns(table *goquery.Selection, info *models.DividendInfo) {
	header := table.Find("tr").First().Find("th, td")
	if header.Length() < 2 {
		return
	}

	data := table.Find("tr").Eq(1).Find("td")
	if data.Length() == 0 {
		return
	}

	header.Each(func(i int, cell *goquery.Selection) {
		if i >= data.Length() {
			return
		}
		label := normalizeLabel(cell.Text())
		value := strings.TrimSpace(data.Eq(i).Text())
		assignField(info, label, value)
	})
}

func assignField(info *models.DividendInfo, label, value string) {
	if value == "" {
		return
	}
	switch {
	case info.ExDate == "" && matchesLabel(label, exDateLabels):
		info.ExDate = value
	case info.PayDate == "" && matchesLabel(label, payDateLabels):
		info.PayDate = value
	case info.DividendAmount == "" && matchesLabel(label, amountLabels):
		info.DividendAmount = value
	case info.YieldValue == "" && matchesLabel(label, yieldLabels):
		info.YieldValue = value
	}
}

func matchesLabel(label string, candidates []string) bool {
	for _, c := range candidates {
		if label == c {
			return true
		}
	}
	return false
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSuffix(s, ":")
}

// scrubPlaceholders blanks fields whose value means "no data", so they fail
// the completeness check instead of leaking placeholders to clients.
func scrubPlaceholders(info *models.DividendInfo) {
	for _, f := range []*string{&info.ExDate, &info.PayDate, &info.DividendAmount, &info.YieldValue} {
		if _, ok := placeholders[strings.ToLower(strings.TrimSpace(*f))]; ok {
			*f = ""
		}
	}
}
