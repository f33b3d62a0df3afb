package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sales-engine/sales"
	"github.com/warp/sales-engine/store/sqlite"
	"go.uber.org/zap/zaptest"
)

// writeLegacyDB creates a database in the pre-TEXT layout: date_vente is a
// TIMESTAMP column and there are no foreign keys.
func writeLegacyDB(t *testing.T, path string) {
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE clients (id INTEGER PRIMARY KEY AUTOINCREMENT, nom TEXT NOT NULL, email TEXT, ville TEXT);
		CREATE TABLE produits (id INTEGER PRIMARY KEY AUTOINCREMENT, nom TEXT NOT NULL, categorie TEXT, prix_unitaire REAL);
		CREATE TABLE ventes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date_vente TIMESTAMP NOT NULL,
			produit_id INTEGER,
			client_id INTEGER,
			quantite INTEGER,
			montant REAL
		);
		INSERT INTO clients (id, nom) VALUES (1, 'Alice Dupont');
		INSERT INTO produits (id, nom, categorie, prix_unitaire) VALUES (1, 'Stylo bleu', 'Papeterie', 1.5);
		INSERT INTO ventes (id, date_vente, produit_id, client_id, quantite, montant) VALUES
			(5, '2025-02-03', 1, 1, 5, 7.5),
			(7, '2025-02-05 10:00:00', 1, 1, 2, 3.0),
			(9, '2025-03-01', 1, 1, 1, 1.5);
	`)
	require.NoError(t, err)
}

func tableSQL(t *testing.T, path, table string) string {
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var ddl string
	err = db.QueryRow("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&ddl)
	if err == sql.ErrNoRows {
		return ""
	}
	require.NoError(t, err)
	return ddl
}

func TestEnsureSchema_MigratesLegacySalesTable(t *testing.T) {
	// GIVEN: A database whose ventes table stores dates as TIMESTAMP
	// WHEN: Opening the store
	// THEN: ventes has the TEXT shape, every row keeps its id, ventes_old is gone

	path := filepath.Join(t.TempDir(), "ventes.db")
	writeLegacyDB(t, path)

	store, err := sqlite.New(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	rows, err := store.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	ids := []int64{rows[0].ID, rows[1].ID, rows[2].ID}
	assert.Equal(t, []int64{9, 7, 5}, ids)
	assert.Equal(t, "Stylo bleu", rows[0].ProductName())
	assert.Equal(t, "2025-02-05 10:00:00", rows[1].Date.Format(sales.DateLayout))
	require.NoError(t, store.Close())

	ddl := tableSQL(t, path, "ventes")
	assert.Contains(t, ddl, "date_vente TEXT NOT NULL")
	assert.Contains(t, ddl, "FOREIGN KEY (produit_id) REFERENCES produits(id)")
	assert.Empty(t, tableSQL(t, path, "ventes_old"))
}

func TestEnsureSchema_LegacyDriverTimestampsSurvive(t *testing.T) {
	// GIVEN: A legacy database whose dates were bound as time.Time, so the
	//        driver stored them with a UTC offset
	// WHEN: Opening the store and listing sales
	// THEN: The row is listed with its original date and time

	path := filepath.Join(t.TempDir(), "ventes.db")
	writeLegacyDB(t, path)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	when := time.Date(2025, time.February, 3, 10, 0, 0, 0, time.UTC)
	_, err = db.Exec("INSERT INTO ventes (id, date_vente, produit_id, client_id, quantite, montant) VALUES (11, ?, 1, 1, 2, 3.0)", when)
	require.NoError(t, err)
	var stored string
	require.NoError(t, db.QueryRow("SELECT CAST(date_vente AS TEXT) FROM ventes WHERE id = 11").Scan(&stored))
	require.NoError(t, db.Close())
	require.Contains(t, stored, "+00:00")

	store, err := sqlite.New(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	rows, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	got, err := store.GetSale(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, when, got.Date)
	assert.Equal(t, "Alice Dupont", got.ClientName())
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	// GIVEN: A store with data
	// WHEN: Ensuring the schema twice more
	// THEN: Schema text and data are unchanged

	path := filepath.Join(t.TempDir(), "ventes.db")
	store, err := sqlite.New(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	productID, err := store.InsertProduct(ctx, sales.ProductInput{Name: "Pen", Category: "Stationery", UnitPrice: 1.5})
	require.NoError(t, err)
	clientID, err := store.InsertClient(ctx, sales.ClientInput{Name: "Alice"})
	require.NoError(t, err)
	_, err = store.InsertSale(ctx, sales.SaleInput{Date: day(2025, 2, 3), ProductID: productID, ClientID: clientID, Quantity: 5, Amount: 7.5})
	require.NoError(t, err)

	before, err := store.ListSales(ctx)
	require.NoError(t, err)
	ddlBefore := tableSQL(t, path, "ventes")

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	after, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, ddlBefore, tableSQL(t, path, "ventes"))

	// Foreign keys are enforced again after the rebuild.
	_, err = store.InsertSale(ctx, sales.SaleInput{Date: day(2025, 2, 4), ProductID: 99, ClientID: clientID, Quantity: 1, Amount: 1})
	assert.ErrorIs(t, err, sales.ErrForeignKey)
}

func TestListSales_DropsUnparseableDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ventes.db")
	writeLegacyDB(t, path)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO ventes (id, date_vente, produit_id, client_id, quantite, montant) VALUES (11, 'not a date', 1, 1, 1, 1.0)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := sqlite.New(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	rows, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	got, err := store.GetSale(ctx, 11)
	require.NoError(t, err)
	assert.Nil(t, got)

	count, err := store.CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
