/*
Package sqlite provides the SQLite-backed schema manager and repository for
clients, products and sales.

PURPOSE:
  Owns the table definitions and every mutation path. Each read returns a
  fresh snapshot; nothing is cached in memory.

KEY TABLES:
  clients:  id, nom, email, ville
  produits: id, nom, categorie, prix_unitaire
  ventes:   id, date_vente (TEXT), produit_id -> produits, client_id -> clients,
            quantite, montant

  Table and column names match the database files written by earlier
  versions of the dashboard, so those files open unchanged.

CONNECTION DISCIPLINE:
  Every operation checks out one dedicated connection (db.Conn) and releases
  it on every exit path. Mutations run in an explicit transaction: commit on
  success, rollback on failure, then the failure is returned as a
  *sales.StoreError carrying the cause. The pool is capped at one open
  connection, which also keeps ":memory:" databases coherent.

FOREIGN KEYS:
  Enforced on every connection (_foreign_keys=on). The schema declares no
  ON DELETE action, so deleting a client or product that sales still
  reference is rejected with sales.ErrForeignKey.

COLUMN TYPES:
  SQLite columns are dynamically typed. Reads scan raw driver values and
  normalize them per column (see normalize.go) before building records.

USAGE:
  store, err := sqlite.New("./data/ventes.db", logger)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  id, err := store.InsertClient(ctx, sales.ClientInput{Name: "Alice"})

SEE ALSO:
  - schema.go: EnsureSchema and the legacy sales-table migration
  - clients.go, products.go, ventes.go: Per-entity operations
  - sales/errors.go: Error taxonomy
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/sales-engine/sales"
	"go.uber.org/zap"
)

// Store implements the repository layer using SQLite.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	mu  sync.RWMutex
}

// New opens the database at dbPath and ensures the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, log: logger.Named("store")}
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CONNECTION SCOPE
// =============================================================================

// withConn runs fn on a dedicated connection that is always released.
// Failures come back as *sales.StoreError.
func (s *Store) withConn(ctx context.Context, op, entity string, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return storeError(op, entity, err)
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return storeError(op, entity, err)
	}
	return nil
}

// read runs a query-only operation under the read lock.
func (s *Store) read(ctx context.Context, op, entity string, fn func(conn *sql.Conn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.withConn(ctx, op, entity, fn)
}

// mutate runs fn inside a transaction and returns the affected count fn
// reports (rows affected or a new id).
func (s *Store) mutate(ctx context.Context, op, entity string, fn func(tx *sql.Tx) (int64, error)) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	err := s.withConn(ctx, op, entity, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		n, err = fn(tx)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Warn("rollback failed",
					zap.String("op", op), zap.String("entity", entity), zap.Error(rbErr))
			}
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data and restarts id sequences (demo loader only).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.mutate(ctx, "reset", "store", func(tx *sql.Tx) (int64, error) {
		for _, table := range []string{"ventes", "produits", "clients"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return 0, err
			}
		}
		_, err := tx.ExecContext(ctx,
			"DELETE FROM sqlite_sequence WHERE name IN ('ventes', 'produits', 'clients')")
		return 0, err
	})
	return err
}

func storeError(op, entity string, err error) error {
	var se *sales.StoreError
	if errors.As(err, &se) {
		return err
	}
	if isForeignKeyError(err) {
		err = fmt.Errorf("%w: %v", sales.ErrForeignKey, err)
	}
	return &sales.StoreError{Op: op, Entity: entity, Err: err}
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func lastInsertID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
