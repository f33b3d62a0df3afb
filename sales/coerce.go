package sales

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are accepted by ParseDate, most specific first. Date-only
// values come from older seed data and legacy tables.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04",
	DayLayout,
}

// ParseDate parses a stored or user-supplied sale date. The result is the
// wall clock of the input in UTC; a UTC offset, as written by the driver for
// TIMESTAMP columns, is dropped rather than applied.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return WallClock(t), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "date", Value: raw, Reason: "not a date"}
}

// WallClock returns t's calendar date and clock time in UTC, truncated to
// whole seconds, which is what the store keeps.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// ParseOptionalDate is ParseDate that maps a blank value to nil.
func ParseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseID coerces an identifier field.
func ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: raw, Reason: "not an integer"}
	}
	if id <= 0 {
		return 0, &ValidationError{Field: field, Value: raw, Reason: "must be positive"}
	}
	return id, nil
}

// ParseQuantity coerces an integer quantity.
func ParseQuantity(field, raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: raw, Reason: "not an integer"}
	}
	return n, nil
}

// ParseAmount coerces a monetary field.
func ParseAmount(field, raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: raw, Reason: "not a number"}
	}
	return f, checkFinite(field, f)
}

func checkFinite(field string, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &ValidationError{Field: field, Value: f, Reason: "not a finite number"}
	}
	return nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	return nil
}

func checkID(field string, id int64) error {
	if id <= 0 {
		return &ValidationError{Field: field, Value: id, Reason: "must be positive"}
	}
	return nil
}

// =============================================================================
// INPUT VALIDATION
// =============================================================================

// Validate checks a client input before it reaches the store.
func (in ClientInput) Validate() error {
	return checkName(in.Name)
}

// Validate checks a product input before it reaches the store.
func (in ProductInput) Validate() error {
	if err := checkName(in.Name); err != nil {
		return err
	}
	return checkFinite("unit_price", in.UnitPrice)
}

// Validate checks a sale input before it reaches the store. A nil date is
// not rejected here; the store's NOT NULL constraint does that.
func (in SaleInput) Validate() error {
	if err := checkID("product_id", in.ProductID); err != nil {
		return err
	}
	if err := checkID("client_id", in.ClientID); err != nil {
		return err
	}
	return checkFinite("amount", in.Amount)
}

// =============================================================================
// FORM COERCION
// =============================================================================

// ClientInputFromForm builds a client input from string fields.
func ClientInputFromForm(form map[string]string) (ClientInput, error) {
	in := ClientInput{
		Name:  strings.TrimSpace(form["name"]),
		Email: strings.TrimSpace(form["email"]),
		City:  strings.TrimSpace(form["city"]),
	}
	return in, in.Validate()
}

// ProductInputFromForm builds a product input from string fields.
func ProductInputFromForm(form map[string]string) (ProductInput, error) {
	price, err := ParseAmount("unit_price", form["unit_price"])
	if err != nil {
		return ProductInput{}, err
	}
	in := ProductInput{
		Name:      strings.TrimSpace(form["name"]),
		Category:  strings.TrimSpace(form["category"]),
		UnitPrice: price,
	}
	return in, in.Validate()
}

// SaleInputFromForm builds a sale input from string fields.
func SaleInputFromForm(form map[string]string) (SaleInput, error) {
	var (
		in  SaleInput
		err error
	)
	if in.Date, err = ParseOptionalDate(form["date"]); err != nil {
		return SaleInput{}, err
	}
	if in.ProductID, err = ParseID("product_id", form["product_id"]); err != nil {
		return SaleInput{}, err
	}
	if in.ClientID, err = ParseID("client_id", form["client_id"]); err != nil {
		return SaleInput{}, err
	}
	if in.Quantity, err = ParseQuantity("quantity", form["quantity"]); err != nil {
		return SaleInput{}, err
	}
	if in.Amount, err = ParseAmount("amount", form["amount"]); err != nil {
		return SaleInput{}, err
	}
	return in, in.Validate()
}
