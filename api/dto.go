/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types from
  package sales are returned as-is where their JSON shape already fits;
  the types here cover request bodies and composite responses.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers

TYPES:
  Sales:
    SaleRequest (date as text, parsed with sales.ParseOptionalDate)

  Mutations:
    CreatedResponse, AffectedResponse

  Dashboard:
    ReportResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers through package sales, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - sales/types.go: Client, Product, SaleRow, inputs
*/
package api

import (
	"github.com/warp/sales-engine/demo"
	"github.com/warp/sales-engine/report"
	"github.com/warp/sales-engine/sales"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SaleRequest is the body of POST and PUT /api/sales. Date accepts the
// layouts of sales.ParseDate; empty means no date.
type SaleRequest struct {
	Date      string  `json:"date"`
	ProductID int64   `json:"product_id"`
	ClientID  int64   `json:"client_id"`
	Quantity  int64   `json:"quantity"`
	Amount    float64 `json:"amount"`
}

// Input converts the request into a sale input.
func (r SaleRequest) Input() (sales.SaleInput, error) {
	date, err := sales.ParseOptionalDate(r.Date)
	if err != nil {
		return sales.SaleInput{}, err
	}
	return sales.SaleInput{
		Date:      date,
		ProductID: r.ProductID,
		ClientID:  r.ClientID,
		Quantity:  r.Quantity,
		Amount:    r.Amount,
	}, nil
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// CreatedResponse carries the id of an inserted row.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// AffectedResponse carries the number of rows an update or delete touched.
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

// ReportResponse is the dashboard read model for a filtered listing.
type ReportResponse struct {
	Period         report.Granularity `json:"period"`
	KPIs           report.KPIs        `json:"kpis"`
	Series         []report.Bucket    `json:"series"`
	ByCategory     []report.Summary   `json:"by_category"`
	ByProduct      []report.Summary   `json:"by_product"`
	TopProducts    []report.Summary   `json:"top_products"`
	BottomProducts []report.Summary   `json:"bottom_products"`
	Categories     []string           `json:"categories"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO = demo.Scenario

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Sales  int    `json:"sales"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
