/*
Package report derives dashboard figures from the joined sales listing.

PURPOSE:
  The repository layer returns sales as flat joined rows. This package turns
  them into what the dashboard shows: filtered listings, headline KPIs,
  period series, category and product breakdowns, and a CSV export.
  Everything here is a pure function over []sales.SaleRow.

MONEY:
  Amounts are stored as floats. Sums go through decimal.Decimal and are
  rounded to cents so totals do not drift with the number of rows.

USAGE:
  rows, _ := store.ListSales(ctx)
  rows = report.Filter{From: &from, Categories: []string{"Papeterie"}}.Apply(rows)
  kpis := report.Summarize(rows)
  series := report.Series(rows, report.Monthly)

SEE ALSO:
  - sales/types.go: SaleRow
  - api/handlers.go: /api/report and /api/export
*/
package report

import (
	"sort"
	"time"

	"github.com/warp/sales-engine/sales"
)

// Filter restricts a listing by calendar date and category. Nil bounds and
// an empty category list match everything.
type Filter struct {
	From       *time.Time
	To         *time.Time
	Categories []string
}

// Apply returns the rows inside the filter, preserving order. Both date
// bounds are inclusive at day granularity.
func (f Filter) Apply(rows []sales.SaleRow) []sales.SaleRow {
	var from, to time.Time
	if f.From != nil {
		from = day(*f.From)
	}
	if f.To != nil {
		to = day(*f.To)
	}
	cats := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		cats[c] = true
	}

	out := make([]sales.SaleRow, 0, len(rows))
	for _, r := range rows {
		d := day(r.Date)
		if f.From != nil && d.Before(from) {
			continue
		}
		if f.To != nil && d.After(to) {
			continue
		}
		if len(cats) > 0 && (r.Category == nil || !cats[*r.Category]) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Categories lists the distinct non-null categories present, sorted.
func Categories(rows []sales.SaleRow) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range rows {
		if r.Category == nil || seen[*r.Category] {
			continue
		}
		seen[*r.Category] = true
		out = append(out, *r.Category)
	}
	sort.Strings(out)
	return out
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
