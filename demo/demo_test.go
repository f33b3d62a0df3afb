package demo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/sales-engine/demo"
	"github.com/warp/sales-engine/forecast"
	"github.com/warp/sales-engine/sales"
	"github.com/warp/sales-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoad_SeedSet(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Loading the seed set
	// THEN: Ids follow insertion order and the joins resolve

	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, demo.Load(ctx, store))

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 10)

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 10)

	count, err := store.CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count)

	first, err := store.GetSale(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Stylo bleu", first.ProductName())
	assert.Equal(t, "Papeterie", first.CategoryName())
	assert.Equal(t, "Alice Dupont", first.ClientName())
	assert.Equal(t, "2025-02-03 00:00:00", first.Date.Format(sales.DateLayout))

	listed, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 19, 18}, []int64{listed[0].ID, listed[1].ID, listed[2].ID})
}

func TestRows_MatchesStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, demo.Load(ctx, store))

	for _, want := range demo.Rows() {
		got, err := store.GetSale(ctx, want.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.ProductName(), got.ProductName(), "sale %d", want.ID)
		assert.Equal(t, want.ClientName(), got.ClientName(), "sale %d", want.ID)
		assert.True(t, want.Date.Equal(got.Date), "sale %d", want.ID)
		assert.Equal(t, want.Amount, got.Amount, "sale %d", want.ID)
	}
}

func TestLoadScenario_ResetsFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, demo.LoadScenario(ctx, store, demo.ScenarioSeed))
	require.NoError(t, demo.LoadScenario(ctx, store, demo.ScenarioSeed))

	count, err := store.CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count)

	require.NoError(t, demo.LoadScenario(ctx, store, demo.ScenarioEmpty))
	count, err = store.CountSales(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoadScenario_ForecastHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, demo.LoadScenario(ctx, store, demo.ScenarioForecastHistory))

	rows, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), demo.HistoryDays)

	_, ok := forecast.Insufficient(len(rows), forecast.DefaultMinHistory)
	assert.True(t, ok)

	res := forecast.NewEngine(forecast.Config{Trees: 20}).ForecastSales(rows, 6)
	require.True(t, res.OK(), res.Err)
	assert.Len(t, res.Points, 6)
}

func TestLoadScenario_Unknown(t *testing.T) {
	store := newStore(t)
	err := demo.LoadScenario(context.Background(), store, "black-friday")
	assert.ErrorIs(t, err, demo.ErrUnknownScenario)
}

func TestHistory_Deterministic(t *testing.T) {
	a := demo.History(demo.HistoryStart, 30)
	b := demo.History(demo.HistoryStart, 30)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, a[i].Date.Equal(*b[i].Date))
		assert.Equal(t, a[i].Amount, b[i].Amount)
		require.NoError(t, a[i].Validate())
	}
}
