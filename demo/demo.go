/*
Package demo populates a store with demonstration data.

PURPOSE:
  Gives a fresh database something to show. The seed set is a small office
  supplies shop: 10 products, 10 clients and 20 sales between February and
  April 2025. It is too short for a forecast, so a second scenario adds a
  generated daily history on top of the same catalog.

AVAILABLE SCENARIOS:
  seed:             the 20-sale seed set
  forecast-history: seed catalog plus 120 days of generated sales
  empty:            no data

HOW SCENARIOS WORK:
  1. Reset the store (all rows deleted, id sequences restarted)
  2. Insert products, then clients, then sales through the repository
     layer, so ids start at 1 in insertion order

NOTE:
  LoadScenario resets the database. Only use in development/demo environments.

SEE ALSO:
  - api/scenarios.go: ListScenarios, LoadScenario handlers
  - cmd/server/main.go: seed command
*/
package demo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/warp/sales-engine/sales"
)

// Repository is the subset of the store the loader writes through.
type Repository interface {
	Reset(ctx context.Context) error
	InsertProduct(ctx context.Context, in sales.ProductInput) (int64, error)
	InsertClient(ctx context.Context, in sales.ClientInput) (int64, error)
	InsertSale(ctx context.Context, in sales.SaleInput) (int64, error)
}

// ErrUnknownScenario is returned for an id not in Scenarios.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario describes a loadable data set.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	ScenarioSeed            = "seed"
	ScenarioForecastHistory = "forecast-history"
	ScenarioEmpty           = "empty"
)

// Scenarios lists the loadable data sets.
var Scenarios = []Scenario{
	{
		ID:          ScenarioSeed,
		Name:        "Seed Data",
		Description: "10 products, 10 clients and 20 sales from February to April 2025",
	},
	{
		ID:          ScenarioForecastHistory,
		Name:        "Forecast History",
		Description: "Seed catalog with 120 days of generated daily sales",
	},
	{
		ID:          ScenarioEmpty,
		Name:        "Empty",
		Description: "Schema only, no rows",
	},
}

// =============================================================================
// SEED SET
// =============================================================================

// Products is the seed catalog, in insertion order.
var Products = []sales.ProductInput{
	{Name: "Stylo bleu", Category: "Papeterie", UnitPrice: 1.50},
	{Name: "Carnet A5", Category: "Papeterie", UnitPrice: 3.00},
	{Name: "Calculatrice", Category: "Électronique", UnitPrice: 15.00},
	{Name: "Clé USB 16GB", Category: "Informatique", UnitPrice: 8.00},
	{Name: "Ramette de papier", Category: "Papeterie", UnitPrice: 5.50},
	{Name: "Souris sans fil", Category: "Électronique", UnitPrice: 12.00},
	{Name: "Agrafeuse", Category: "Bureau", UnitPrice: 4.00},
	{Name: "Enveloppes x50", Category: "Papeterie", UnitPrice: 2.50},
	{Name: "Tapis de souris", Category: "Bureau", UnitPrice: 6.00},
	{Name: "Tableau blanc", Category: "Bureau", UnitPrice: 25.00},
}

// Clients is the seed client list, in insertion order.
var Clients = []sales.ClientInput{
	{Name: "Alice Dupont", Email: "alice@example.com", City: "Paris"},
	{Name: "Bob Martin", Email: "bob@example.com", City: "Lyon"},
	{Name: "Claire Morel", Email: "claire@example.com", City: "Marseille"},
	{Name: "David Leroy", Email: "david@example.com", City: "Toulouse"},
	{Name: "Emma Dubois", Email: "emma@example.com", City: "Nice"},
	{Name: "François Petit", Email: "francois@example.com", City: "Nantes"},
	{Name: "Gabrielle Chevalier", Email: "gabrielle@example.com", City: "Strasbourg"},
	{Name: "Hugo Bernard", Email: "hugo@example.com", City: "Montpellier"},
	{Name: "Isabelle Fontaine", Email: "isabelle@example.com", City: "Bordeaux"},
	{Name: "Julien Lefevre", Email: "julien@example.com", City: "Lille"},
}

type seedSale struct {
	date     string
	product  int64
	client   int64
	quantity int64
	amount   float64
}

var seedSales = []seedSale{
	{"2025-02-03", 1, 1, 5, 7.50},
	{"2025-02-05", 2, 2, 2, 6.00},
	{"2025-02-10", 3, 3, 1, 15.00},
	{"2025-02-15", 4, 4, 3, 24.00},
	{"2025-02-20", 5, 5, 1, 5.50},
	{"2025-02-25", 6, 6, 1, 12.00},
	{"2025-03-01", 7, 7, 2, 8.00},
	{"2025-03-05", 8, 8, 1, 2.50},
	{"2025-03-09", 9, 9, 1, 6.00},
	{"2025-03-12", 10, 10, 1, 25.00},
	{"2025-03-15", 3, 1, 1, 15.00},
	{"2025-03-20", 2, 4, 3, 9.00},
	{"2025-03-22", 5, 6, 2, 11.00},
	{"2025-03-27", 6, 7, 1, 12.00},
	{"2025-04-01", 1, 2, 10, 15.00},
	{"2025-04-04", 4, 5, 1, 8.00},
	{"2025-04-07", 7, 6, 1, 4.00},
	{"2025-04-08", 8, 3, 2, 5.00},
	{"2025-04-08", 9, 8, 1, 6.00},
	{"2025-04-08", 10, 9, 1, 25.00},
}

// Sales returns the seed sales as inputs. Product and client ids assume the
// catalog and clients were inserted first into an empty store.
func Sales() []sales.SaleInput {
	out := make([]sales.SaleInput, len(seedSales))
	for i, s := range seedSales {
		d, err := time.Parse(sales.DayLayout, s.date)
		if err != nil {
			panic(fmt.Sprintf("demo: bad seed date %q: %v", s.date, err))
		}
		out[i] = sales.SaleInput{
			Date:      &d,
			ProductID: s.product,
			ClientID:  s.client,
			Quantity:  s.quantity,
			Amount:    s.amount,
		}
	}
	return out
}

// Rows returns the seed sales joined with their products and clients, in
// insertion order, as the store would list them.
func Rows() []sales.SaleRow {
	inputs := Sales()
	rows := make([]sales.SaleRow, len(inputs))
	for i, in := range inputs {
		p := Products[in.ProductID-1]
		c := Clients[in.ClientID-1]
		pid, cid := in.ProductID, in.ClientID
		rows[i] = sales.SaleRow{
			ID:        int64(i + 1),
			Date:      *in.Date,
			ProductID: &pid,
			ClientID:  &cid,
			Product:   &p.Name,
			Category:  &p.Category,
			Client:    &c.Name,
			Quantity:  in.Quantity,
			Amount:    in.Amount,
		}
	}
	return rows
}

// =============================================================================
// LOADERS
// =============================================================================

// Load inserts the seed set. It does not reset the store.
func Load(ctx context.Context, repo Repository) error {
	if err := loadCatalog(ctx, repo); err != nil {
		return err
	}
	for i, in := range Sales() {
		if _, err := repo.InsertSale(ctx, in); err != nil {
			return fmt.Errorf("insert seed sale %d: %w", i+1, err)
		}
	}
	return nil
}

// LoadScenario resets the store and loads the named scenario.
func LoadScenario(ctx context.Context, repo Repository, id string) error {
	if !Known(id) {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	if err := repo.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	switch id {
	case ScenarioSeed:
		return Load(ctx, repo)
	case ScenarioForecastHistory:
		if err := loadCatalog(ctx, repo); err != nil {
			return err
		}
		return loadHistory(ctx, repo, HistoryStart, HistoryDays)
	}
	return nil
}

// Known reports whether id names a scenario.
func Known(id string) bool {
	for _, s := range Scenarios {
		if s.ID == id {
			return true
		}
	}
	return false
}

func loadCatalog(ctx context.Context, repo Repository) error {
	for _, p := range Products {
		if _, err := repo.InsertProduct(ctx, p); err != nil {
			return fmt.Errorf("insert product %q: %w", p.Name, err)
		}
	}
	for _, c := range Clients {
		if _, err := repo.InsertClient(ctx, c); err != nil {
			return fmt.Errorf("insert client %q: %w", c.Name, err)
		}
	}
	return nil
}

// =============================================================================
// GENERATED HISTORY
// =============================================================================

const (
	// HistoryDays is the length of the generated history.
	HistoryDays = 120

	historySeed = 7
)

// HistoryStart is the first day of the generated history.
var HistoryStart = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// History generates one to three sales per day for days days from start.
// Weekdays sell more than weekends. The output is the same for every call.
func History(start time.Time, days int) []sales.SaleInput {
	rng := rand.New(rand.NewSource(historySeed))
	var out []sales.SaleInput
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		perDay := 1 + rng.Intn(3)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			perDay = 1
		}
		for i := 0; i < perDay; i++ {
			product := rng.Intn(len(Products))
			qty := int64(1 + rng.Intn(4))
			at := date.Add(time.Duration(9+rng.Intn(9)) * time.Hour)
			out = append(out, sales.SaleInput{
				Date:      &at,
				ProductID: int64(product + 1),
				ClientID:  int64(1 + rng.Intn(len(Clients))),
				Quantity:  qty,
				Amount:    float64(qty) * Products[product].UnitPrice,
			})
		}
	}
	return out
}

func loadHistory(ctx context.Context, repo Repository, start time.Time, days int) error {
	for i, in := range History(start, days) {
		if _, err := repo.InsertSale(ctx, in); err != nil {
			return fmt.Errorf("insert generated sale %d: %w", i+1, err)
		}
	}
	return nil
}
