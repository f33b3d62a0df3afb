/*
Package sales defines the records handled by the sales engine.

PURPOSE:
  Holds the three persisted entities (Client, Product, Sale), the joined
  listing row consumed by dashboards and exports, and the input shapes used
  by the repository's insert/update operations.

ENTITIES:
  Client:  Buyer. Name required, email/city optional.
  Product: Catalog item. Name required, category optional, unit price.
  Sale:    One transaction. References a product and a client.

STORAGE FORMAT:
  Sale dates are persisted as text in DateLayout ("2006-01-02 15:04:05").
  Money is float64 everywhere; identifiers are int64 surrogate keys.

SEE ALSO:
  - errors.go: Validation and store error taxonomy
  - coerce.go: String-form field coercion used by the API and CLI
  - store/sqlite: Persistence of these types
*/
package sales

import "time"

// DateLayout is the fixed text representation of a sale date in the store.
const DateLayout = "2006-01-02 15:04:05"

// DayLayout is the calendar-day form used for filters and exports.
const DayLayout = "2006-01-02"

// =============================================================================
// ENTITIES
// =============================================================================

// Client is a buyer referenced by sales.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	City  string `json:"city"`
}

// Product is a catalog item referenced by sales.
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
}

// SaleRow is a sale joined with its product and client. Product, Category
// and Client are nil when the foreign key is null or the referenced row is
// missing.
type SaleRow struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	ProductID *int64    `json:"product_id"`
	ClientID  *int64    `json:"client_id"`
	Product   *string   `json:"product"`
	Category  *string   `json:"category"`
	Client    *string   `json:"client"`
	Quantity  int64     `json:"quantity"`
	Amount    float64   `json:"amount"`
}

// ProductName returns the joined product name, or "" when absent.
func (r SaleRow) ProductName() string { return deref(r.Product) }

// CategoryName returns the joined category, or "" when absent.
func (r SaleRow) CategoryName() string { return deref(r.Category) }

// ClientName returns the joined client name, or "" when absent.
func (r SaleRow) ClientName() string { return deref(r.Client) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// =============================================================================
// INPUTS
// =============================================================================

// ClientInput carries the mutable fields of a client.
type ClientInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	City  string `json:"city"`
}

// ProductInput carries the mutable fields of a product.
type ProductInput struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
}

// SaleInput carries the mutable fields of a sale. A nil Date is stored as
// NULL, which the store rejects.
type SaleInput struct {
	Date      *time.Time `json:"date"`
	ProductID int64      `json:"product_id"`
	ClientID  int64      `json:"client_id"`
	Quantity  int64      `json:"quantity"`
	Amount    float64    `json:"amount"`
}

// FormatDate renders the input date in DateLayout. ok is false for a nil date.
func (in SaleInput) FormatDate() (s string, ok bool) {
	if in.Date == nil {
		return "", false
	}
	return in.Date.Format(DateLayout), true
}
