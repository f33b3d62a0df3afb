package sqlite

import (
	"context"
	"database/sql"
	"sort"

	"github.com/warp/sales-engine/sales"
	"go.uber.org/zap"
)

const entitySale = "sale"

// Columns: id, date_vente, produit_id, client_id, product name, category,
// client name, quantite, montant.
var saleRowKinds = []kind{kindInt, kindText, kindInt, kindInt, kindText, kindText, kindText, kindInt, kindFloat}

const selectSaleRows = `
	SELECT v.id, v.date_vente, v.produit_id, v.client_id,
	       p.nom, p.categorie, c.nom,
	       v.quantite, v.montant
	FROM ventes v
	LEFT JOIN produits p ON v.produit_id = p.id
	LEFT JOIN clients c ON v.client_id = c.id`

// ListSales returns every sale joined with its product and client, newest
// first. Rows whose date cannot be parsed are dropped.
func (s *Store) ListSales(ctx context.Context) ([]sales.SaleRow, error) {
	out := []sales.SaleRow{}
	err := s.read(ctx, "list", entitySale, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectSaleRows+" ORDER BY v.date_vente DESC, v.id DESC")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			row, ok, err := s.scanSaleRow(rows)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, row)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	// Text ordering only matches date ordering when every row uses the same
	// layout; legacy rows may not.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// GetSale returns the joined sale with the given id, or nil when absent or
// when its date cannot be parsed.
func (s *Store) GetSale(ctx context.Context, id int64) (*sales.SaleRow, error) {
	var found *sales.SaleRow
	err := s.read(ctx, "get", entitySale, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectSaleRows+" WHERE v.id = ?", id)
		if err != nil {
			return err
		}
		defer rows.Close()

		if rows.Next() {
			row, ok, err := s.scanSaleRow(rows)
			if err != nil {
				return err
			}
			if ok {
				found = &row
			}
		}
		return rows.Err()
	})
	return found, err
}

// CountSales returns the number of stored sales, parseable or not.
func (s *Store) CountSales(ctx context.Context) (int, error) {
	var count int
	err := s.read(ctx, "count", entitySale, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM ventes").Scan(&count)
	})
	return count, err
}

// InsertSale stores a new sale and returns its id.
func (s *Store) InsertSale(ctx context.Context, in sales.SaleInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "insert", entitySale, func(tx *sql.Tx) (int64, error) {
		return lastInsertID(tx.ExecContext(ctx, `
			INSERT INTO ventes (date_vente, produit_id, client_id, quantite, montant)
			VALUES (?, ?, ?, ?, ?)`,
			saleDate(in), in.ProductID, in.ClientID, in.Quantity, in.Amount,
		))
	})
}

// UpdateSale rewrites a sale and returns the number of rows affected.
func (s *Store) UpdateSale(ctx context.Context, id int64, in sales.SaleInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "update", entitySale, func(tx *sql.Tx) (int64, error) {
		return rowsAffected(tx.ExecContext(ctx, `
			UPDATE ventes
			SET date_vente = ?, produit_id = ?, client_id = ?, quantite = ?, montant = ?
			WHERE id = ?`,
			saleDate(in), in.ProductID, in.ClientID, in.Quantity, in.Amount, id,
		))
	})
}

// DeleteSale removes a sale and returns the number of rows affected.
func (s *Store) DeleteSale(ctx context.Context, id int64) (int64, error) {
	return s.mutate(ctx, "delete", entitySale, func(tx *sql.Tx) (int64, error) {
		return rowsAffected(tx.ExecContext(ctx, "DELETE FROM ventes WHERE id = ?", id))
	})
}

func saleDate(in sales.SaleInput) sql.NullString {
	date, ok := in.FormatDate()
	return sql.NullString{String: date, Valid: ok}
}

// scanSaleRow returns ok=false for a row whose date does not parse.
func (s *Store) scanSaleRow(rows *sql.Rows) (sales.SaleRow, bool, error) {
	cells, err := scanCells(rows, saleRowKinds)
	if err != nil {
		return sales.SaleRow{}, false, err
	}

	date, err := sales.ParseDate(cells[1].Text)
	if cells[1].Null || err != nil {
		s.log.Warn("dropping sale with unparseable date",
			zap.Int64("id", cells[0].Int), zap.String("date", cells[1].Text))
		return sales.SaleRow{}, false, nil
	}

	return sales.SaleRow{
		ID:        cells[0].Int,
		Date:      date,
		ProductID: cells[2].IntPtr(),
		ClientID:  cells[3].IntPtr(),
		Product:   cells[4].TextPtr(),
		Category:  cells[5].TextPtr(),
		Client:    cells[6].TextPtr(),
		Quantity:  cells[7].Int,
		Amount:    cells[8].Float,
	}, true, nil
}
