/*
handlers.go - HTTP API handlers for the sales dashboard

PURPOSE:
  Exposes the repository layer, the report read model and the forecast
  engine via REST API. Handles HTTP request/response, JSON serialization,
  and delegates to the core packages.

ENDPOINTS:
  Clients:
    GET    /api/clients                List clients by name
    POST   /api/clients                Create client
    GET    /api/clients/{id}           Get client
    PUT    /api/clients/{id}           Update client
    DELETE /api/clients/{id}           Delete client

  Products:
    GET    /api/products               List products by name
    POST   /api/products               Create product
    GET    /api/products/{id}          Get product
    PUT    /api/products/{id}          Update product
    DELETE /api/products/{id}          Delete product

  Sales:
    GET    /api/sales                  Joined listing, newest first (?from&to&category)
    POST   /api/sales                  Create sale
    GET    /api/sales/{id}             Get joined sale
    PUT    /api/sales/{id}             Update sale
    DELETE /api/sales/{id}             Delete sale

  Dashboard:
    GET    /api/report                 KPIs, series, breakdowns (?from&to&category&period)
    GET    /api/export/sales.csv       CSV export (same filters)
    GET    /api/forecast               Forecast (?horizon)

REQUEST BODIES:
  JSON by default. Create and update also accept form-encoded bodies, with
  the same field names, parsed through the sales.*FromForm helpers.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found, or update/delete affected no row
  - 409: Foreign key conflict
  - 422: Forecast could not be produced (body carries the reason)
  - 500: Store errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/sales-engine/forecast"
	"github.com/warp/sales-engine/report"
	"github.com/warp/sales-engine/sales"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Repository is the store surface the handlers use.
type Repository interface {
	ListClients(ctx context.Context) ([]sales.Client, error)
	GetClient(ctx context.Context, id int64) (*sales.Client, error)
	InsertClient(ctx context.Context, in sales.ClientInput) (int64, error)
	UpdateClient(ctx context.Context, id int64, in sales.ClientInput) (int64, error)
	DeleteClient(ctx context.Context, id int64) (int64, error)

	ListProducts(ctx context.Context) ([]sales.Product, error)
	GetProduct(ctx context.Context, id int64) (*sales.Product, error)
	InsertProduct(ctx context.Context, in sales.ProductInput) (int64, error)
	UpdateProduct(ctx context.Context, id int64, in sales.ProductInput) (int64, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)

	ListSales(ctx context.Context) ([]sales.SaleRow, error)
	GetSale(ctx context.Context, id int64) (*sales.SaleRow, error)
	CountSales(ctx context.Context) (int, error)
	InsertSale(ctx context.Context, in sales.SaleInput) (int64, error)
	UpdateSale(ctx context.Context, id int64, in sales.SaleInput) (int64, error)
	DeleteSale(ctx context.Context, id int64) (int64, error)

	Reset(ctx context.Context) error
}

// Options tunes the dashboard endpoints.
type Options struct {
	// Horizon is the forecast length when the request gives none.
	Horizon int
	// MinHistory is the number of sales required before forecasting.
	MinHistory int
	// TopN bounds the top and bottom product lists.
	TopN int
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Repository
	Engine *forecast.Engine
	log    *zap.Logger
	opts   Options

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store Repository, engine *forecast.Engine, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = forecast.NewEngine(forecast.Config{})
	}
	if opts.Horizon < 1 {
		opts.Horizon = forecast.DefaultHorizon
	}
	if opts.MinHistory <= 0 {
		opts.MinHistory = forecast.DefaultMinHistory
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	return &Handler{
		Store:  store,
		Engine: engine,
		log:    logger.Named("api"),
		opts:   opts,
	}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients ordered by name.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		h.writeCoreError(w, "Failed to list clients", err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// GetClient returns one client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	client, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		h.writeCoreError(w, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// CreateClient inserts a client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r, sales.ClientInputFromForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Store.InsertClient(r.Context(), in)
	if err != nil {
		h.writeCoreError(w, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// UpdateClient replaces a client's fields.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := decodeInput(r, sales.ClientInputFromForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	n, err := h.Store.UpdateClient(r.Context(), id, in)
	h.writeAffected(w, "client", "update", n, err)
}

// DeleteClient removes a client. Clients referenced by sales are kept (409).
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Store.DeleteClient(r.Context(), id)
	h.writeAffected(w, "client", "delete", n, err)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns all products ordered by name.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		h.writeCoreError(w, "Failed to list products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct returns one product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		h.writeCoreError(w, "Failed to get product", err)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProduct inserts a product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r, sales.ProductInputFromForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Store.InsertProduct(r.Context(), in)
	if err != nil {
		h.writeCoreError(w, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// UpdateProduct replaces a product's fields.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := decodeInput(r, sales.ProductInputFromForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	n, err := h.Store.UpdateProduct(r.Context(), id, in)
	h.writeAffected(w, "product", "update", n, err)
}

// DeleteProduct removes a product. Products referenced by sales are kept (409).
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Store.DeleteProduct(r.Context(), id)
	h.writeAffected(w, "product", "delete", n, err)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns the joined listing, newest first, after filters.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.filteredSales(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetSale returns one joined sale.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.Store.GetSale(r.Context(), id)
	if err != nil {
		h.writeCoreError(w, "Failed to get sale", err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// CreateSale inserts a sale.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSale(r)
	if err != nil {
		h.writeCoreError(w, "Invalid request body", err)
		return
	}
	id, err := h.Store.InsertSale(r.Context(), in)
	if err != nil {
		h.writeCoreError(w, "Failed to create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// UpdateSale replaces a sale's fields.
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := decodeSale(r)
	if err != nil {
		h.writeCoreError(w, "Invalid request body", err)
		return
	}
	n, err := h.Store.UpdateSale(r.Context(), id, in)
	h.writeAffected(w, "sale", "update", n, err)
}

// DeleteSale removes a sale.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Store.DeleteSale(r.Context(), id)
	h.writeAffected(w, "sale", "delete", n, err)
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetReport returns KPIs, the period series and breakdowns of the filtered
// listing.
// GET /api/report?from=2025-02-01&to=2025-03-31&category=Bureau&period=monthly
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	period, err := report.ParseGranularity(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	all, ok := h.allSales(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	rows := filter.Apply(all)

	writeJSON(w, http.StatusOK, ReportResponse{
		Period:         period,
		KPIs:           report.Summarize(rows),
		Series:         report.Series(rows, period),
		ByCategory:     report.ByCategory(rows),
		ByProduct:      report.ByProduct(rows),
		TopProducts:    report.TopProducts(rows, h.opts.TopN),
		BottomProducts: report.BottomProducts(rows, h.opts.TopN),
		Categories:     report.Categories(all),
	})
}

// ExportSales streams the filtered listing as CSV.
// GET /api/export/sales.csv
func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.filteredSales(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ventes.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, rows); err != nil {
		h.log.Error("csv export interrupted", zap.Error(err))
	}
}

// GetForecast projects daily amounts over the horizon. Failures to produce
// a forecast are 422 with the reason in the body.
// GET /api/forecast?horizon=6
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	horizon := h.opts.Horizon
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid horizon",
				&sales.ValidationError{Field: "horizon", Value: raw, Reason: "must be a positive integer"})
			return
		}
		horizon = n
	}

	rows, ok := h.allSales(w, r)
	if !ok {
		return
	}
	if res, ok := forecast.Insufficient(len(rows), h.opts.MinHistory); !ok {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	res := h.Engine.ForecastSales(rows, horizon)
	if !res.OK() {
		h.log.Warn("forecast failed", zap.String("reason", res.Err), zap.Int("rows", len(rows)))
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health reports liveness and the number of stored sales.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.CountSales(r.Context())
	if err != nil {
		h.writeCoreError(w, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Sales: n})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) allSales(w http.ResponseWriter, r *http.Request) ([]sales.SaleRow, bool) {
	rows, err := h.Store.ListSales(r.Context())
	if err != nil {
		h.writeCoreError(w, "Failed to list sales", err)
		return nil, false
	}
	return rows, true
}

func (h *Handler) filteredSales(w http.ResponseWriter, r *http.Request) ([]sales.SaleRow, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return nil, false
	}
	rows, ok := h.allSales(w, r)
	if !ok {
		return nil, false
	}
	return filter.Apply(rows), true
}

// parseFilter reads from, to and repeated category query parameters.
func parseFilter(r *http.Request) (report.Filter, error) {
	q := r.URL.Query()
	from, err := sales.ParseOptionalDate(q.Get("from"))
	if err != nil {
		return report.Filter{}, err
	}
	to, err := sales.ParseOptionalDate(q.Get("to"))
	if err != nil {
		return report.Filter{}, err
	}
	var cats []string
	for _, c := range q["category"] {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	return report.Filter{From: from, To: to, Categories: cats}, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := sales.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func formValues(r *http.Request) (map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	return form, nil
}

// decodeInput reads a client or product body, JSON or form-encoded.
func decodeInput[T any](r *http.Request, fromForm func(map[string]string) (T, error)) (T, error) {
	var in T
	if isForm(r) {
		form, err := formValues(r)
		if err != nil {
			return in, err
		}
		return fromForm(form)
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, err
	}
	return in, nil
}

// decodeSale reads a sale body. Malformed JSON is reported as a validation
// error on the body.
func decodeSale(r *http.Request) (sales.SaleInput, error) {
	if isForm(r) {
		form, err := formValues(r)
		if err != nil {
			return sales.SaleInput{}, &sales.ValidationError{Field: "body", Reason: err.Error()}
		}
		return sales.SaleInputFromForm(form)
	}
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return sales.SaleInput{}, &sales.ValidationError{Field: "body", Reason: err.Error()}
	}
	return req.Input()
}

// writeAffected answers an update or delete: 404 when no row matched.
func (h *Handler) writeAffected(w http.ResponseWriter, entity, op string, n int64, err error) {
	if err != nil {
		h.writeCoreError(w, fmt.Sprintf("Failed to %s %s", op, entity), err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, strings.ToUpper(entity[:1])+entity[1:]+" not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, AffectedResponse{Affected: n})
}

// writeCoreError maps the sales error taxonomy onto HTTP status codes.
func (h *Handler) writeCoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, sales.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	case sales.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
