package sqlite

import (
	"context"
	"database/sql"

	"github.com/warp/sales-engine/sales"
)

const entityProduct = "product"

var productKinds = []kind{kindInt, kindText, kindText, kindFloat}

const selectProducts = "SELECT id, nom, categorie, prix_unitaire FROM produits"

// ListProducts returns all products ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]sales.Product, error) {
	products := []sales.Product{}
	err := s.read(ctx, "list", entityProduct, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectProducts+" ORDER BY nom, id")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns the product with the given id, or nil when absent.
func (s *Store) GetProduct(ctx context.Context, id int64) (*sales.Product, error) {
	var found *sales.Product
	err := s.read(ctx, "get", entityProduct, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectProducts+" WHERE id = ?", id)
		if err != nil {
			return err
		}
		defer rows.Close()

		if rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			found = &p
		}
		return rows.Err()
	})
	return found, err
}

// InsertProduct stores a new product and returns its id.
func (s *Store) InsertProduct(ctx context.Context, in sales.ProductInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "insert", entityProduct, func(tx *sql.Tx) (int64, error) {
		return lastInsertID(tx.ExecContext(ctx,
			"INSERT INTO produits (nom, categorie, prix_unitaire) VALUES (?, ?, ?)",
			in.Name, nullString(in.Category), in.UnitPrice,
		))
	})
}

// UpdateProduct rewrites a product and returns the number of rows affected.
func (s *Store) UpdateProduct(ctx context.Context, id int64, in sales.ProductInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "update", entityProduct, func(tx *sql.Tx) (int64, error) {
		return rowsAffected(tx.ExecContext(ctx,
			"UPDATE produits SET nom = ?, categorie = ?, prix_unitaire = ? WHERE id = ?",
			in.Name, nullString(in.Category), in.UnitPrice, id,
		))
	})
}

// DeleteProduct removes a product and returns the number of rows affected.
// A product still referenced by sales is rejected with sales.ErrForeignKey.
func (s *Store) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	return s.mutate(ctx, "delete", entityProduct, func(tx *sql.Tx) (int64, error) {
		return rowsAffected(tx.ExecContext(ctx, "DELETE FROM produits WHERE id = ?", id))
	})
}

func scanProduct(rows *sql.Rows) (sales.Product, error) {
	cells, err := scanCells(rows, productKinds)
	if err != nil {
		return sales.Product{}, err
	}
	return sales.Product{
		ID:        cells[0].Int,
		Name:      cells[1].Text,
		Category:  cells[2].Text,
		UnitPrice: cells[3].Float,
	}, nil
}
