package forecast_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sales-engine/forecast"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestDaily_GroupsAndSorts(t *testing.T) {
	obs := []forecast.Observation{
		{Date: date(2025, 4, 8, 15), Quantity: 1, Amount: 25},
		{Date: date(2025, 2, 3, 0), Quantity: 5, Amount: 7.5},
		{Date: date(2025, 4, 8, 9), Quantity: 2, Amount: 5},
		{Date: date(2025, 4, 1, 0), Quantity: 10, Amount: 15},
	}

	days := forecast.Daily(obs, false)
	require.Len(t, days, 3, "days without sales are not filled")

	assert.Equal(t, date(2025, 2, 3, 0), days[0].Date)
	assert.Equal(t, date(2025, 4, 1, 0), days[1].Date)
	assert.Equal(t, date(2025, 4, 8, 0), days[2].Date)
	assert.Equal(t, int64(3), days[2].Quantity)
	assert.Equal(t, 30.0, days[2].Amount)
}

func TestDaily_FillMissingDays(t *testing.T) {
	obs := []forecast.Observation{
		{Date: date(2025, 2, 1, 0), Amount: 1},
		{Date: date(2025, 2, 4, 0), Amount: 2},
	}

	days := forecast.Daily(obs, true)
	require.Len(t, days, 4)
	assert.Equal(t, 0.0, days[1].Amount)
	assert.Equal(t, date(2025, 2, 3, 0), days[2].Date)
}

func TestWeekday_MondayIsZero(t *testing.T) {
	assert.Equal(t, 0, forecast.Weekday(date(2025, 2, 3, 0)))  // Monday
	assert.Equal(t, 6, forecast.Weekday(date(2025, 2, 9, 0)))  // Sunday
	assert.Equal(t, 1, forecast.Weekday(date(2025, 4, 8, 23))) // Tuesday
}

func TestFeatures(t *testing.T) {
	X, y := forecast.Features([]forecast.Day{{Date: date(2025, 3, 15, 0), Amount: 9}})
	assert.Equal(t, [][]float64{{15, 3, 2025, 5}}, X)
	assert.Equal(t, []float64{9}, y)
}

func TestSplit_SeededPartition(t *testing.T) {
	train, test := forecast.Split(10, 0.2, 42)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)

	all := append(append([]int{}, train...), test...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	train2, test2 := forecast.Split(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestSplit_RoundsHeldOutUp(t *testing.T) {
	train, test := forecast.Split(2, 0.2, 42)
	assert.Len(t, test, 1)
	assert.Len(t, train, 1)

	train, test = forecast.Split(1, 0.2, 42)
	assert.Len(t, test, 1)
	assert.Empty(t, train)
}
