package sqlite

import (
	"context"
	"database/sql"

	"github.com/warp/sales-engine/sales"
)

const entityClient = "client"

var clientKinds = []kind{kindInt, kindText, kindText, kindText}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]sales.Client, error) {
	clients := []sales.Client{}
	err := s.read(ctx, "list", entityClient, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, "SELECT id, nom, email, ville FROM clients ORDER BY nom, id")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				return err
			}
			clients = append(clients, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClient returns the client with the given id, or nil when absent.
func (s *Store) GetClient(ctx context.Context, id int64) (*sales.Client, error) {
	var found *sales.Client
	err := s.read(ctx, "get", entityClient, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, "SELECT id, nom, email, ville FROM clients WHERE id = ?", id)
		if err != nil {
			return err
		}
		defer rows.Close()

		if rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				return err
			}
			found = &c
		}
		return rows.Err()
	})
	return found, err
}

// InsertClient stores a new client and returns its id.
func (s *Store) InsertClient(ctx context.Context, in sales.ClientInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "insert", entityClient, func(tx *sql.Tx) (int64, error) {
		return lastInsertID(tx.ExecContext(ctx,
			"INSERT INTO clients (nom, email, ville) VALUES (?, ?, ?)",
			in.Name, nullString(in.Email), nullString(in.City),
		))
	})
}

// UpdateClient rewrites a client and returns the number of rows affected.
func (s *Store) UpdateClient(ctx context.Context, id int64, in sales.ClientInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "update", entityClient, func(tx *sql.Tx) (int64, error) {
		return rowsAffected(tx.ExecContext(ctx,
			"UPDATE clients SET nom = ?, email = ?, ville = ? WHERE id = ?",
			in.Name, nullString(in.Email), nullString(in.City), id,
		))
	})
}

// DeleteClient removes a client and returns the number of rows affected.
// A client still referenced by sales is rejected with sales.ErrForeignKey.
func (s *Store) DeleteClient(ctx context.Context, id int64) (int64, error) {
	return s.mutate(ctx, "delete", entityClient, func(tx *sql.Tx) (int64, error) {
		return rowsAffected(tx.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id))
	})
}

func scanClient(rows *sql.Rows) (sales.Client, error) {
	cells, err := scanCells(rows, clientKinds)
	if err != nil {
		return sales.Client{}, err
	}
	return sales.Client{
		ID:    cells[0].Int,
		Name:  cells[1].Text,
		Email: cells[2].Text,
		City:  cells[3].Text,
	}, nil
}
