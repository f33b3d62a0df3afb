package report

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/sales-engine/sales"
)

// Summary aggregates the sales of one category or product.
type Summary struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int64           `json:"quantity"`
	Count    int             `json:"count"`
	Average  decimal.Decimal `json:"average"`
}

// ByCategory groups by category name, largest amount first. Sales of a
// deleted or uncategorized product are grouped under the empty name.
func ByCategory(rows []sales.SaleRow) []Summary {
	out := group(rows, sales.SaleRow.CategoryName)
	sortByAmount(out)
	return out
}

// ByProduct groups by product name, largest amount first.
func ByProduct(rows []sales.SaleRow) []Summary {
	out := group(rows, sales.SaleRow.ProductName)
	sortByAmount(out)
	return out
}

// TopProducts returns the n products with the highest summed quantity.
// Ties go to the alphabetically first name.
func TopProducts(rows []sales.SaleRow, n int) []Summary {
	out := group(rows, sales.SaleRow.ProductName)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return limit(out, n)
}

// BottomProducts returns the n products with the lowest summed quantity.
func BottomProducts(rows []sales.SaleRow, n int) []Summary {
	out := group(rows, sales.SaleRow.ProductName)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return limit(out, n)
}

func group(rows []sales.SaleRow, key func(sales.SaleRow) string) []Summary {
	index := make(map[string]int)
	var out []Summary
	for _, r := range rows {
		name := key(r)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Summary{Name: name, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(decimal.NewFromFloat(r.Amount))
		out[i].Quantity += r.Quantity
		out[i].Count++
	}
	for i := range out {
		out[i].Average = out[i].Amount.Div(decimal.NewFromInt(int64(out[i].Count))).Round(2)
		out[i].Amount = out[i].Amount.Round(2)
	}
	if out == nil {
		out = []Summary{}
	}
	return out
}

func sortByAmount(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if c := s[i].Amount.Cmp(s[j].Amount); c != 0 {
			return c > 0
		}
		return s[i].Name < s[j].Name
	})
}

func limit(s []Summary, n int) []Summary {
	if n >= 0 && n < len(s) {
		return s[:n]
	}
	return s
}
