package sqlite

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

const createClients = `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nom TEXT NOT NULL,
		email TEXT,
		ville TEXT
	)`

const createProducts = `
	CREATE TABLE IF NOT EXISTS produits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nom TEXT NOT NULL,
		categorie TEXT,
		prix_unitaire REAL
	)`

// date_vente is TEXT in DateLayout. Earlier versions declared it as a
// timestamp type, hence the rebuild in EnsureSchema.
const createSales = `
	CREATE TABLE IF NOT EXISTS ventes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date_vente TEXT NOT NULL,
		produit_id INTEGER,
		client_id INTEGER,
		quantite INTEGER,
		montant REAL,
		FOREIGN KEY (produit_id) REFERENCES produits(id),
		FOREIGN KEY (client_id) REFERENCES clients(id)
	)`

const createSalesDateIndex = `
	CREATE INDEX IF NOT EXISTS idx_ventes_date_vente ON ventes(date_vente DESC)`

const copyLegacySales = `
	INSERT INTO ventes (id, date_vente, produit_id, client_id, quantite, montant)
	SELECT id, date_vente, produit_id, client_id, quantite, montant FROM ventes_old`

// EnsureSchema creates the clients and produits tables when absent and
// (re)builds ventes in its current shape.
//
// When a ventes table already exists it is renamed to ventes_old, the
// current table is created, the six columns are copied with their ids, and
// ventes_old is dropped. The whole rebuild is one transaction; foreign-key
// enforcement is off during the copy so legacy rows move over verbatim.
// Calling EnsureSchema again leaves schema and data unchanged.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return storeError("ensure", "schema", err)
	}
	defer conn.Close()

	// PRAGMA foreign_keys is a no-op inside a transaction.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return storeError("ensure", "schema", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
			s.log.Error("failed to re-enable foreign keys", zap.Error(err))
		}
	}()

	migrated, err := s.rebuild(ctx, conn)
	if err != nil {
		return storeError("ensure", "schema", err)
	}
	if migrated >= 0 {
		s.log.Info("sales table migrated", zap.Int64("rows", migrated))
	}

	return s.checkForeignKeys(ctx, conn)
}

// rebuild returns the number of copied sales rows, or -1 when there was no
// prior sales table.
func (s *Store) rebuild(ctx context.Context, conn *sql.Conn) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, stmt := range []string{createClients, createProducts} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, err
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'ventes'",
	).Scan(&count); err != nil {
		return 0, err
	}
	legacy := count > 0

	if legacy {
		if _, err := tx.ExecContext(ctx, "ALTER TABLE ventes RENAME TO ventes_old"); err != nil {
			return 0, err
		}
	}
	if _, err := tx.ExecContext(ctx, createSales); err != nil {
		return 0, err
	}

	copied := int64(-1)
	if legacy {
		if copied, err = rowsAffected(tx.ExecContext(ctx, copyLegacySales)); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE ventes_old"); err != nil {
			return 0, err
		}
	}

	// The renamed table keeps its indexes until it is dropped, so the index
	// is created last.
	if _, err := tx.ExecContext(ctx, createSalesDateIndex); err != nil {
		return 0, err
	}

	return copied, tx.Commit()
}

// checkForeignKeys logs sales rows whose references do not resolve. Such
// rows can only come from data written without enforcement.
func (s *Store) checkForeignKeys(ctx context.Context, conn *sql.Conn) error {
	rows, err := conn.QueryContext(ctx, "PRAGMA foreign_key_check(ventes)")
	if err != nil {
		return storeError("check", "schema", err)
	}
	defer rows.Close()

	dangling := 0
	for rows.Next() {
		dangling++
	}
	if err := rows.Err(); err != nil {
		return storeError("check", "schema", err)
	}
	if dangling > 0 {
		s.log.Warn("sales rows reference missing products or clients", zap.Int("rows", dangling))
	}
	return nil
}
