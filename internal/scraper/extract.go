package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/rota-merge/internal/rota"
)

// DefaultTableSelector picks the first table on the page.
const DefaultTableSelector = "table"

// Extractor converts the first matching table of an HTML document into rows.
type Extractor struct {
	selector string
}

// NewExtractor creates an Extractor for selector. An empty selector means DefaultTableSelector.
func NewExtractor(selector string) *Extractor {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultTableSelector
	}
	return &Extractor{selector: selector}
}

// Selector returns the CSS selector used to locate the table.
func (e *Extractor) Selector() string {
	return e.selector
}

// ExtractReader parses HTML from r and extracts its table rows.
func (e *Extractor) ExtractReader(r io.Reader) ([]rota.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return e.Extract(doc), nil
}

// Extract returns one row per data row of the first matching table.
// It returns an empty slice when the document has no such table.
//
// Headers come from the table's thead when it has th cells; otherwise the first
// row is the header row. Header rows are never emitted as data.
func (e *Extractor) Extract(doc *goquery.Document) []rota.RawRow {
	rows := make([]rota.RawRow, 0)

	table := doc.Find(e.selector).First()
	if table.Length() == 0 {
		return rows
	}

	trs := ownRows(table)
	if len(trs) == 0 {
		return rows
	}

	headers, isHeader := resolveHeaders(table, trs)

	for i, tr := range trs {
		if isHeader[i] {
			continue
		}
		cells := cellTexts(tr)
		if len(cells) == 0 {
			continue
		}

		var row rota.RawRow
		for j, h := range headers {
			value := ""
			if j < len(cells) {
				value = cells[j]
			}
			row.Set(h, value)
		}
		rows = append(rows, row)
	}

	return rows
}

// resolveHeaders returns the column names and marks which of trs are header-only rows.
func resolveHeaders(table *goquery.Selection, trs []*goquery.Selection) ([]string, []bool) {
	isHeader := make([]bool, len(trs))
	for i, tr := range trs {
		if tr.Parent().Is("thead") {
			isHeader[i] = true
		}
	}

	var raw []string
	table.ChildrenFiltered("thead").Find("th").Each(func(_ int, th *goquery.Selection) {
		if th.Closest("table").IsSelection(table) {
			raw = append(raw, strings.TrimSpace(th.Text()))
		}
	})

	if len(raw) == 0 {
		// No usable thead: the first row is the header row.
		raw = cellTexts(trs[0])
		isHeader[0] = true
	}

	headers := make([]string, len(raw))
	for i, h := range raw {
		if h == "" {
			h = fmt.Sprintf("Column_%d", i)
		}
		headers[i] = h
	}
	return headers, isHeader
}

// ownRows returns the table's rows in document order, skipping rows of nested tables.
func ownRows(table *goquery.Selection) []*goquery.Selection {
	var trs []*goquery.Selection
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").IsSelection(table) {
			trs = append(trs, tr)
		}
	})
	return trs
}

// cellTexts returns the trimmed text of each td/th directly under tr.
func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}
