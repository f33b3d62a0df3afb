package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warp/sales-engine/sales"
)

// kind is the semantic type a column is normalized to on read.
type kind int

const (
	kindInt kind = iota
	kindFloat
	kindText
)

// cell is one normalized column value.
type cell struct {
	Int   int64
	Float float64
	Text  string
	Null  bool
}

// IntPtr returns nil for NULL.
func (c cell) IntPtr() *int64 {
	if c.Null {
		return nil
	}
	v := c.Int
	return &v
}

// TextPtr returns nil for NULL.
func (c cell) TextPtr() *string {
	if c.Null {
		return nil
	}
	v := c.Text
	return &v
}

// scanCells reads the current row as raw driver values and normalizes each
// one to the kind declared for its column.
func scanCells(rows *sql.Rows, kinds []kind) ([]cell, error) {
	raw := make([]any, len(kinds))
	ptrs := make([]any, len(kinds))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	cells := make([]cell, len(kinds))
	for i, k := range kinds {
		c, err := normalize(raw[i], k)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		cells[i] = c
	}
	return cells, nil
}

func normalize(v any, k kind) (cell, error) {
	if v == nil {
		return cell{Null: true}, nil
	}
	switch k {
	case kindInt:
		n, err := toInt(v)
		return cell{Int: n}, err
	case kindFloat:
		f, err := toFloat(v)
		return cell{Float: f}, err
	default:
		return cell{Text: toText(v)}, nil
	}
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseIntText(string(x))
	case string:
		return parseIntText(x)
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

func parseIntText(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to integer", s)
	}
	return int64(f), nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case []byte:
		return parseFloatText(string(x))
	case string:
		return parseFloatText(x)
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

func parseFloatText(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to float", s)
	}
	return f, nil
}

func toText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(sales.DateLayout)
	}
	return fmt.Sprint(v)
}
