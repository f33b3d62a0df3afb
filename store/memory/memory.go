// Package memory provides an in-memory repository with the same contract as
// the SQLite store: ordering, id sequences, foreign keys and error types.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/warp/sales-engine/sales"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	clients  map[int64]sales.Client
	products map[int64]sales.Product
	sales    map[int64]sales.SaleInput
	seq      map[string]int64

	// fail, when set, is returned wrapped as a store error by every call.
	fail error
}

func New() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

// FailWith makes every following call return err as a store error. Nil
// restores normal operation.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.storeError("reset", "store", m.fail)
	}
	m.resetLocked()
	return nil
}

func (m *Memory) resetLocked() {
	m.clients = make(map[int64]sales.Client)
	m.products = make(map[int64]sales.Product)
	m.sales = make(map[int64]sales.SaleInput)
	m.seq = make(map[string]int64)
}

func (m *Memory) next(table string) int64 {
	m.seq[table]++
	return m.seq[table]
}

func (m *Memory) storeError(op, entity string, err error) error {
	return &sales.StoreError{Op: op, Entity: entity, Err: err}
}

func (m *Memory) fkError(op, entity, detail string) error {
	return m.storeError(op, entity, fmt.Errorf("%w: %s", sales.ErrForeignKey, detail))
}

// =============================================================================
// CLIENTS
// =============================================================================

func (m *Memory) ListClients(_ context.Context) ([]sales.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.storeError("list", "client", m.fail)
	}
	out := make([]sales.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetClient(_ context.Context, id int64) (*sales.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.storeError("get", "client", m.fail)
	}
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) InsertClient(_ context.Context, in sales.ClientInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("insert", "client", m.fail)
	}
	id := m.next("clients")
	m.clients[id] = sales.Client{ID: id, Name: in.Name, Email: in.Email, City: in.City}
	return id, nil
}

func (m *Memory) UpdateClient(_ context.Context, id int64, in sales.ClientInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("update", "client", m.fail)
	}
	if _, ok := m.clients[id]; !ok {
		return 0, nil
	}
	m.clients[id] = sales.Client{ID: id, Name: in.Name, Email: in.Email, City: in.City}
	return 1, nil
}

func (m *Memory) DeleteClient(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("delete", "client", m.fail)
	}
	if _, ok := m.clients[id]; !ok {
		return 0, nil
	}
	for _, s := range m.sales {
		if s.ClientID == id {
			return 0, m.fkError("delete", "client", fmt.Sprintf("client %d is referenced by sales", id))
		}
	}
	delete(m.clients, id)
	return 1, nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (m *Memory) ListProducts(_ context.Context) ([]sales.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.storeError("list", "product", m.fail)
	}
	out := make([]sales.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetProduct(_ context.Context, id int64) (*sales.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.storeError("get", "product", m.fail)
	}
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) InsertProduct(_ context.Context, in sales.ProductInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("insert", "product", m.fail)
	}
	id := m.next("produits")
	m.products[id] = sales.Product{ID: id, Name: in.Name, Category: in.Category, UnitPrice: in.UnitPrice}
	return id, nil
}

func (m *Memory) UpdateProduct(_ context.Context, id int64, in sales.ProductInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("update", "product", m.fail)
	}
	if _, ok := m.products[id]; !ok {
		return 0, nil
	}
	m.products[id] = sales.Product{ID: id, Name: in.Name, Category: in.Category, UnitPrice: in.UnitPrice}
	return 1, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("delete", "product", m.fail)
	}
	if _, ok := m.products[id]; !ok {
		return 0, nil
	}
	for _, s := range m.sales {
		if s.ProductID == id {
			return 0, m.fkError("delete", "product", fmt.Sprintf("product %d is referenced by sales", id))
		}
	}
	delete(m.products, id)
	return 1, nil
}

// =============================================================================
// SALES
// =============================================================================

// ListSales returns joined rows, newest first, ties by descending id.
func (m *Memory) ListSales(_ context.Context) ([]sales.SaleRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.storeError("list", "sale", m.fail)
	}
	out := make([]sales.SaleRow, 0, len(m.sales))
	for id, s := range m.sales {
		out = append(out, m.joinLocked(id, s))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) GetSale(_ context.Context, id int64) (*sales.SaleRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.storeError("get", "sale", m.fail)
	}
	s, ok := m.sales[id]
	if !ok {
		return nil, nil
	}
	row := m.joinLocked(id, s)
	return &row, nil
}

func (m *Memory) CountSales(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return 0, m.storeError("count", "sale", m.fail)
	}
	return len(m.sales), nil
}

func (m *Memory) InsertSale(_ context.Context, in sales.SaleInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkSaleLocked("insert", in); err != nil {
		return 0, err
	}
	id := m.next("ventes")
	m.sales[id] = normalizeSale(in)
	return id, nil
}

func (m *Memory) UpdateSale(_ context.Context, id int64, in sales.SaleInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("update", "sale", m.fail)
	}
	// A missing id matches no row, so no constraint is evaluated.
	if _, ok := m.sales[id]; !ok {
		return 0, nil
	}
	if err := m.checkSaleLocked("update", in); err != nil {
		return 0, err
	}
	m.sales[id] = normalizeSale(in)
	return 1, nil
}

func (m *Memory) DeleteSale(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.storeError("delete", "sale", m.fail)
	}
	if _, ok := m.sales[id]; !ok {
		return 0, nil
	}
	delete(m.sales, id)
	return 1, nil
}

// checkSaleLocked applies the column constraints of the sales table.
func (m *Memory) checkSaleLocked(op string, in sales.SaleInput) error {
	if m.fail != nil {
		return m.storeError(op, "sale", m.fail)
	}
	if in.Date == nil {
		return m.storeError(op, "sale", fmt.Errorf("NOT NULL constraint failed: ventes.date_vente"))
	}
	var missing []string
	if _, ok := m.products[in.ProductID]; !ok {
		missing = append(missing, fmt.Sprintf("product %d", in.ProductID))
	}
	if _, ok := m.clients[in.ClientID]; !ok {
		missing = append(missing, fmt.Sprintf("client %d", in.ClientID))
	}
	if len(missing) > 0 {
		return m.fkError(op, "sale", strings.Join(missing, ", ")+" not found")
	}
	return nil
}

// normalizeSale keeps the date as the store reads it back: the wall clock
// at whole seconds, in UTC.
func normalizeSale(in sales.SaleInput) sales.SaleInput {
	d := sales.WallClock(*in.Date)
	in.Date = &d
	return in
}

func (m *Memory) joinLocked(id int64, s sales.SaleInput) sales.SaleRow {
	pid, cid := s.ProductID, s.ClientID
	row := sales.SaleRow{
		ID:        id,
		Date:      *s.Date,
		ProductID: &pid,
		ClientID:  &cid,
		Quantity:  s.Quantity,
		Amount:    s.Amount,
	}
	if p, ok := m.products[pid]; ok {
		row.Product = &p.Name
		if p.Category != "" {
			row.Category = &p.Category
		}
	}
	if c, ok := m.clients[cid]; ok {
		row.Client = &c.Name
	}
	return row
}
