package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/sales-engine/sales"
)

// CSVHeader is the first line of every export.
var CSVHeader = []string{"date", "product", "category", "client", "quantity", "amount"}

// WriteCSV writes the listing in its given order. Missing joined names are
// written as empty fields and amounts with two decimals.
func WriteCSV(w io.Writer, rows []sales.SaleRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Date.Format(sales.DateLayout),
			r.ProductName(),
			r.CategoryName(),
			r.ClientName(),
			strconv.FormatInt(r.Quantity, 10),
			decimal.NewFromFloat(r.Amount).StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
