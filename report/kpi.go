package report

import (
	"github.com/shopspring/decimal"
	"github.com/warp/sales-engine/sales"
)

// KPIs are the headline figures of a listing.
type KPIs struct {
	Total         decimal.Decimal `json:"total"`
	Count         int             `json:"count"`
	AverageBasket decimal.Decimal `json:"average_basket"`
	TopProduct    string          `json:"top_product"`
}

// Summarize computes the KPIs. An empty listing yields zeros and no top
// product.
func Summarize(rows []sales.SaleRow) KPIs {
	total := sumAmounts(rows)
	k := KPIs{
		Total:         total.Round(2),
		Count:         len(rows),
		AverageBasket: decimal.Zero,
	}
	if len(rows) == 0 {
		return k
	}
	k.AverageBasket = total.Div(decimal.NewFromInt(int64(len(rows)))).Round(2)
	if top := TopProducts(rows, 1); len(top) == 1 {
		k.TopProduct = top[0].Name
	}
	return k
}

func sumAmounts(rows []sales.SaleRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(decimal.NewFromFloat(r.Amount))
	}
	return total
}
