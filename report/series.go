package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/sales-engine/sales"
)

// Granularity is the width of a series bucket.
type Granularity string

const (
	Daily     Granularity = "daily"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// ParseGranularity accepts the four period names, case-insensitive. Empty
// means Monthly.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Monthly, nil
	case Daily, Monthly, Quarterly, Yearly:
		return g, nil
	default:
		return "", &sales.ValidationError{
			Field:  "period",
			Value:  s,
			Reason: fmt.Sprintf("must be one of %s, %s, %s, %s", Daily, Monthly, Quarterly, Yearly),
		}
	}
}

// Bucket is one period of a series, keyed by the period's first day.
type Bucket struct {
	Start    time.Time       `json:"start"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int64           `json:"quantity"`
}

// MaxFilledBuckets bounds gap filling. A series spanning more periods than
// this lists only the periods that have sales.
const MaxFilledBuckets = 3660

// Series sums amount and quantity per period, ascending. Periods between
// the first and last sale with no sales appear with zero totals, unless the
// span exceeds MaxFilledBuckets.
func Series(rows []sales.SaleRow, g Granularity) []Bucket {
	if len(rows) == 0 {
		return []Bucket{}
	}

	byStart := make(map[time.Time]*Bucket)
	first, last := bucketStart(rows[0].Date, g), bucketStart(rows[0].Date, g)
	for _, r := range rows {
		start := bucketStart(r.Date, g)
		b, ok := byStart[start]
		if !ok {
			b = &Bucket{Start: start, Amount: decimal.Zero}
			byStart[start] = b
		}
		b.Amount = b.Amount.Add(decimal.NewFromFloat(r.Amount))
		b.Quantity += r.Quantity
		if start.Before(first) {
			first = start
		}
		if start.After(last) {
			last = start
		}
	}

	for _, b := range byStart {
		b.Amount = b.Amount.Round(2)
	}

	if bucketSpan(first, last, g) > MaxFilledBuckets {
		out := make([]Bucket, 0, len(byStart))
		for _, b := range byStart {
			out = append(out, *b)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
		return out
	}

	var out []Bucket
	for s := first; !s.After(last); s = nextBucket(s, g) {
		if b, ok := byStart[s]; ok {
			out = append(out, *b)
			continue
		}
		out = append(out, Bucket{Start: s, Amount: decimal.Zero})
	}
	return out
}

// bucketSpan counts the periods from first to last inclusive.
func bucketSpan(first, last time.Time, g Granularity) int {
	months := (last.Year()-first.Year())*12 + int(last.Month()-first.Month())
	switch g {
	case Daily:
		return int(last.Sub(first).Hours()/24) + 1
	case Quarterly:
		return months/3 + 1
	case Yearly:
		return last.Year() - first.Year() + 1
	default:
		return months + 1
	}
}

func bucketStart(t time.Time, g Granularity) time.Time {
	t = day(t)
	switch g {
	case Daily:
		return t
	case Quarterly:
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

func nextBucket(start time.Time, g Granularity) time.Time {
	switch g {
	case Daily:
		return start.AddDate(0, 0, 1)
	case Quarterly:
		return start.AddDate(0, 3, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
