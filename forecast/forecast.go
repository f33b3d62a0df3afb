/*
Package forecast projects daily sales amounts a few days ahead.

PURPOSE:
  Turns the raw sales history into a daily series, derives calendar
  features, trains a regressor on a seeded random split, reports the
  held-out mean absolute error, and predicts the next N days.

PIPELINE:
  1. Group observations by calendar day, summing quantity and amount.
     Days without sales are absent unless Config.FillMissingDays is set.
  2. Features per day: day-of-month, month, year, weekday (Monday=0).
  3. Seeded random split: ceil(TestFraction*n) days held out.
     The split is random, not chronological.
  4. Fit the regressor (default: RandomForest, 100 trees, same seed).
  5. MAE on the held-out days.
  6. Predict amount for the horizon days following the last observed day.

FAILURE CONTRACT:
  Forecast never returns an error and never panics. Any failure during
  preparation, training or prediction is reported in Result.Err with a nil
  Points slice. Callers check Result.OK().

CALLER GUARD:
  Callers should not invoke the engine with fewer than DefaultMinHistory
  sales rows; see Insufficient.

SEE ALSO:
  - forest.go: RandomForest regressor
  - series.go: Daily aggregation and features
*/
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/warp/sales-engine/sales"
)

const (
	// DefaultHorizon is the number of days projected when none is given.
	DefaultHorizon = 6

	// DefaultSeed seeds both the split and the regressor.
	DefaultSeed = 42

	// DefaultTrees is the forest size.
	DefaultTrees = 100

	// DefaultTestFraction is the share of days held out for the MAE.
	DefaultTestFraction = 0.2

	// DefaultMinHistory is the number of sales rows callers require before
	// asking for a forecast.
	DefaultMinHistory = 30
)

// Observation is one sale as seen by the engine.
type Observation struct {
	Date     time.Time
	Quantity int64
	Amount   float64
}

// Point is one projected day.
type Point struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Result is either a forecast with its held-out error or a failure reason.
type Result struct {
	Points    []Point `json:"points"`
	MAE       float64 `json:"mae"`
	TrainDays int     `json:"train_days"`
	TestDays  int     `json:"test_days"`
	Err       string  `json:"error,omitempty"`
}

// OK reports whether the forecast succeeded.
func (r Result) OK() bool { return r.Err == "" }

func failure(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Insufficient returns the soft failure callers report when the history
// holds fewer than need sales rows. ok is true when the history suffices.
func Insufficient(have, need int) (res Result, ok bool) {
	if have >= need {
		return Result{}, true
	}
	return failure("not enough sales history for a forecast: %d rows, need at least %d", have, need), false
}

// Regressor is the pluggable model. Fit receives one feature row per day.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// Config tunes the engine. Zero values take the defaults.
type Config struct {
	Seed            int64
	Trees           int
	TestFraction    float64
	FillMissingDays bool

	// NewRegressor builds the model; defaults to a RandomForest.
	NewRegressor func(trees int, seed int64) Regressor
}

// Engine runs forecasts with a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, filling unset options with defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.Trees <= 0 {
		cfg.Trees = DefaultTrees
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = DefaultTestFraction
	}
	if cfg.NewRegressor == nil {
		cfg.NewRegressor = func(trees int, seed int64) Regressor {
			return NewRandomForest(trees, seed)
		}
	}
	return &Engine{cfg: cfg}
}

// FromSales converts the joined sales listing into observations.
func FromSales(rows []sales.SaleRow) []Observation {
	obs := make([]Observation, len(rows))
	for i, r := range rows {
		obs[i] = Observation{Date: r.Date, Quantity: r.Quantity, Amount: r.Amount}
	}
	return obs
}

// ForecastSales is Forecast over the joined sales listing.
func (e *Engine) ForecastSales(rows []sales.SaleRow, horizonDays int) Result {
	return e.Forecast(FromSales(rows), horizonDays)
}

// Forecast projects horizonDays days past the last observed day.
func (e *Engine) Forecast(history []Observation, horizonDays int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure("forecast failed: %v", r)
		}
	}()

	if horizonDays < 1 {
		return failure("horizon must be at least one day, got %d", horizonDays)
	}

	days := Daily(history, e.cfg.FillMissingDays)
	if len(days) == 0 {
		return failure("no sales history")
	}

	X, y := Features(days)
	train, test := Split(len(days), e.cfg.TestFraction, e.cfg.Seed)
	if len(train) == 0 || len(test) == 0 {
		return failure("not enough distinct sales days to split: %d", len(days))
	}

	model := e.cfg.NewRegressor(e.cfg.Trees, e.cfg.Seed)
	if err := model.Fit(pickRows(X, train), pick(y, train)); err != nil {
		return failure("training failed: %v", err)
	}

	held, err := model.Predict(pickRows(X, test))
	if err != nil {
		return failure("evaluation failed: %v", err)
	}
	mae := MeanAbsoluteError(pick(y, test), held)

	last := days[len(days)-1].Date
	future := make([]time.Time, horizonDays)
	futureX := make([][]float64, horizonDays)
	for i := range future {
		future[i] = last.AddDate(0, 0, i+1)
		futureX[i] = featureRow(future[i])
	}

	predicted, err := model.Predict(futureX)
	if err != nil {
		return failure("prediction failed: %v", err)
	}
	if len(predicted) != horizonDays {
		return failure("prediction failed: got %d values for %d days", len(predicted), horizonDays)
	}

	points := make([]Point, horizonDays)
	for i, amount := range predicted {
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return failure("prediction failed: non-finite amount for %s", future[i].Format(sales.DayLayout))
		}
		points[i] = Point{Date: future[i], Amount: amount}
	}

	return Result{
		Points:    points,
		MAE:       mae,
		TrainDays: len(train),
		TestDays:  len(test),
	}
}

// MeanAbsoluteError of predictions against known values.
func MeanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

func pickRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}
