package forecast

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Day is one calendar day of aggregated sales.
type Day struct {
	Date     time.Time
	Quantity int64
	Amount   float64
}

// Daily groups observations by calendar day, ascending. With fill set,
// days between the first and last observation without sales are added
// with zero totals.
func Daily(history []Observation, fill bool) []Day {
	byDay := make(map[time.Time]*Day)
	for _, o := range history {
		key := truncateDay(o.Date)
		d, ok := byDay[key]
		if !ok {
			d = &Day{Date: key}
			byDay[key] = d
		}
		d.Quantity += o.Quantity
		d.Amount += o.Amount
	}

	days := make([]Day, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	if !fill || len(days) < 2 {
		return days
	}

	filled := make([]Day, 0, len(days))
	for i, d := range days {
		if i > 0 {
			for gap := days[i-1].Date.AddDate(0, 0, 1); gap.Before(d.Date); gap = gap.AddDate(0, 0, 1) {
				filled = append(filled, Day{Date: gap})
			}
		}
		filled = append(filled, d)
	}
	return filled
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Features returns the calendar feature matrix and the amount target.
func Features(days []Day) (X [][]float64, y []float64) {
	X = make([][]float64, len(days))
	y = make([]float64, len(days))
	for i, d := range days {
		X[i] = featureRow(d.Date)
		y[i] = d.Amount
	}
	return X, y
}

// featureRow is day-of-month, month, year, weekday with Monday=0.
func featureRow(t time.Time) []float64 {
	return []float64{
		float64(t.Day()),
		float64(t.Month()),
		float64(t.Year()),
		float64(Weekday(t)),
	}
}

// Weekday numbers days Monday=0 through Sunday=6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Split shuffles n indices with the seed and holds out ceil(fraction*n) of
// them. The remaining indices train.
func Split(n int, fraction float64, seed int64) (train, test []int) {
	if n == 0 {
		return nil, nil
	}
	nTest := int(math.Ceil(fraction * float64(n)))
	if nTest > n {
		nTest = n
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}
