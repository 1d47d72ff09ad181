package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/invopop/jsonschema"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/reports"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// Messages returned next to empty views.
const (
	msgNoMonthRows      = "No data available for the selected month."
	msgNoProductInMonth = "No data found for this product in the selected month."
	msgNoProductBranch  = "No data available for this product and branch."
	msgNoBranchInMonth  = "No data found for this branch in the selected month."
	msgNoQueryRows      = "No rows matched the query."
)

type monthParams struct {
	Month string `query:"month" validate:"max=64,month_label"`
}

type productMonthParams struct {
	Product string `query:"product" validate:"max=256"`
	Month   string `query:"month" validate:"max=64,month_label"`
}

type productBranchParams struct {
	Product string `query:"product" validate:"max=256"`
	Branch  string `query:"branch" validate:"max=256"`
}

type monthBranchParams struct {
	Month  string `query:"month" validate:"max=64,month_label"`
	Branch string `query:"branch" validate:"max=256"`
}

type exportCSVParams struct {
	View  string `query:"view" validate:"required,max=64"`
	Month string `query:"month" validate:"max=64,month_label"`
}

// dashboardResponse is the success envelope of every JSON dashboard endpoint
type dashboardResponse struct {
	Status     string            `json:"status"`
	Data       interface{}       `json:"data"`
	Advisories []domain.Advisory `json:"advisories"`
	Message    string            `json:"message,omitempty"`
}

// DashboardHandler serves the sales dashboard API with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	querySchema  *jsonschema.Schema
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		querySchema:  jsonschema.Reflect(&reports.Query{}),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/source", h.GetSource)
		r.Post("/reload", h.Reload)

		r.Get("/months", h.GetMonths)
		r.Get("/products", h.GetProducts)
		r.Get("/branches", h.GetBranches)

		r.Get("/overview", h.GetOverview)
		r.Get("/zero-sales", h.GetZeroSales)
		r.Get("/branches/performance", h.GetBranchPerformance)
		r.Get("/products/quantities", h.GetProductQuantities)
		r.Get("/purchase-rates", h.GetPurchaseRates)
		r.Get("/branches/averages", h.GetBranchAverages)

		r.Get("/charts/product-branches", h.GetProductBranchChart)
		r.Get("/charts/product-trend", h.GetProductTrend)
		r.Get("/popularity", h.GetPopularity)

		r.Post("/query", h.RunQuery)
		r.Get("/query/schema", h.GetQuerySchema)
	})

	r.Get("/export.xlsx", h.ExportWorkbook)
	r.Get("/export.csv", h.ExportCSV)

	return r
}

// GetSource handles GET /api/dashboard/source
func (h *DashboardHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Source(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "get source", err)
		return
	}
	respond(w, r, res, "")
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reloading source",
		slog.String("request_id", middleware.GetReqID(r.Context())))

	res, err := h.service.Reload(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "reload source", err)
		return
	}
	respond(w, r, res, "")
}

// GetMonths handles GET /api/dashboard/months
func (h *DashboardHandler) GetMonths(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Months(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "get months", err)
		return
	}
	respond(w, r, res, "")
}

// GetProducts handles GET /api/dashboard/products
func (h *DashboardHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Products(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "get products", err)
		return
	}
	respond(w, r, res, "")
}

// GetBranches handles GET /api/dashboard/branches
func (h *DashboardHandler) GetBranches(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Branches(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "get branches", err)
		return
	}
	respond(w, r, res, "")
}

// GetOverview handles GET /api/dashboard/overview?month=
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	p, ok := h.monthParams(w, r)
	if !ok {
		return
	}
	res, err := h.service.Overview(r.Context(), p.Month)
	if err != nil {
		h.handleServiceError(w, r, "get overview", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoMonthRows))
}

// GetZeroSales handles GET /api/dashboard/zero-sales?month=
func (h *DashboardHandler) GetZeroSales(w http.ResponseWriter, r *http.Request) {
	p, ok := h.monthParams(w, r)
	if !ok {
		return
	}
	res, err := h.service.ZeroSales(r.Context(), p.Month)
	if err != nil {
		h.handleServiceError(w, r, "get zero sales", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoMonthRows))
}

// GetBranchPerformance handles GET /api/dashboard/branches/performance?month=
func (h *DashboardHandler) GetBranchPerformance(w http.ResponseWriter, r *http.Request) {
	p, ok := h.monthParams(w, r)
	if !ok {
		return
	}
	res, err := h.service.BranchPerformance(r.Context(), p.Month)
	if err != nil {
		h.handleServiceError(w, r, "get branch performance", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoMonthRows))
}

// GetProductQuantities handles GET /api/dashboard/products/quantities?month=
func (h *DashboardHandler) GetProductQuantities(w http.ResponseWriter, r *http.Request) {
	p, ok := h.monthParams(w, r)
	if !ok {
		return
	}
	res, err := h.service.ProductQuantities(r.Context(), p.Month)
	if err != nil {
		h.handleServiceError(w, r, "get product quantities", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoMonthRows))
}

// GetPurchaseRates handles GET /api/dashboard/purchase-rates?month=
func (h *DashboardHandler) GetPurchaseRates(w http.ResponseWriter, r *http.Request) {
	p, ok := h.monthParams(w, r)
	if !ok {
		return
	}
	res, err := h.service.PurchaseRates(r.Context(), p.Month)
	if err != nil {
		h.handleServiceError(w, r, "get purchase rates", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoMonthRows))
}

// GetBranchAverages handles GET /api/dashboard/branches/averages?month=
func (h *DashboardHandler) GetBranchAverages(w http.ResponseWriter, r *http.Request) {
	p, ok := h.monthParams(w, r)
	if !ok {
		return
	}
	res, err := h.service.BranchAverages(r.Context(), p.Month)
	if err != nil {
		h.handleServiceError(w, r, "get branch averages", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoMonthRows))
}

// GetProductBranchChart handles GET /api/dashboard/charts/product-branches?product=&month=
func (h *DashboardHandler) GetProductBranchChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := productMonthParams{Product: q.Get("product"), Month: q.Get("month")}
	if !h.validate(w, r, p) {
		return
	}
	res, err := h.service.ProductBranchChart(r.Context(), p.Product, p.Month)
	if err != nil {
		h.handleServiceError(w, r, "get product branch chart", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoProductInMonth))
}

// GetProductTrend handles GET /api/dashboard/charts/product-trend?product=&branch=
func (h *DashboardHandler) GetProductTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := productBranchParams{Product: q.Get("product"), Branch: q.Get("branch")}
	if !h.validate(w, r, p) {
		return
	}
	res, err := h.service.ProductTrend(r.Context(), p.Product, p.Branch)
	if err != nil {
		h.handleServiceError(w, r, "get product trend", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoProductBranch))
}

// GetPopularity handles GET /api/dashboard/popularity?month=&branch=
func (h *DashboardHandler) GetPopularity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := monthBranchParams{Month: q.Get("month"), Branch: q.Get("branch")}
	if !h.validate(w, r, p) {
		return
	}
	res, err := h.service.Popularity(r.Context(), p.Month, p.Branch)
	if err != nil {
		h.handleServiceError(w, r, "get popularity", err)
		return
	}
	respond(w, r, res, emptyMessage(res.Data.Empty, msgNoBranchInMonth))
}

// RunQuery handles POST /api/dashboard/query
func (h *DashboardHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var q reports.Query
	if err := render.DecodeJSON(r.Body, &q); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	h.logger.DebugContext(r.Context(), "running query",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("predicates", len(q.Predicates)),
		slog.Int("group_by", len(q.GroupBy)))

	res, err := h.service.Query(r.Context(), q)
	if err != nil {
		h.handleServiceError(w, r, "run query", err)
		return
	}
	respond(w, r, res, emptyMessage(len(res.Data) == 0, msgNoQueryRows))
}

// GetQuerySchema handles GET /api/dashboard/query/schema
func (h *DashboardHandler) GetQuerySchema(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.querySchema)
}

// ExportWorkbook handles GET /api/dashboard/export.xlsx?month=
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	p, ok := h.monthParams(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	month, err := h.service.ExportWorkbook(r.Context(), p.Month, &buf)
	if err != nil {
		h.handleServiceError(w, r, "export workbook", err)
		return
	}

	h.writeAttachment(w, r, exporter.FileName("sales_report", month, "xlsx"), contentTypeXLSX, &buf)
}

// ExportCSV handles GET /api/dashboard/export.csv?view=&month=
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := exportCSVParams{View: q.Get("view"), Month: q.Get("month")}
	if !h.validate(w, r, p) {
		return
	}

	var buf bytes.Buffer
	month, err := h.service.ExportCSV(r.Context(), p.View, p.Month, &buf)
	if err != nil {
		h.handleServiceError(w, r, "export csv", err)
		return
	}

	h.writeAttachment(w, r, exporter.FileName(p.View, month, "csv"), contentTypeCSV, &buf)
}

func (h *DashboardHandler) writeAttachment(w http.ResponseWriter, r *http.Request, filename, contentType string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := body.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

func (h *DashboardHandler) monthParams(w http.ResponseWriter, r *http.Request) (monthParams, bool) {
	p := monthParams{Month: r.URL.Query().Get("month")}
	return p, h.validate(w, r, p)
}

func (h *DashboardHandler) validate(w http.ResponseWriter, r *http.Request, params interface{}) bool {
	if h.validator == nil {
		return true
	}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// handleServiceError maps service sentinels to API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), "failed to "+op,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	switch {
	case errors.Is(err, services.ErrNoMonthData):
		h.errorHandler.HandleError(w, r, apierrors.ErrNoMonthData)
	case errors.Is(err, services.ErrSourceNotConfigured):
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable.WithDetails(err.Error()))
	case errors.Is(err, services.ErrUnknownView):
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidParameter.WithDetails(map[string]interface{}{
			"error": err.Error(),
			"views": exporter.MonthViews,
		}))
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidParameter.WithDetails(err.Error()))
	case errors.Is(err, services.ErrExportFailed):
		h.errorHandler.HandleError(w, r, apierrors.ErrExportFailed)
	case apierrors.IsType(err, apierrors.ErrTypeStorage):
		h.errorHandler.HandleError(w, r, apierrors.SourceNotFoundError(err))
	case apierrors.IsType(err, apierrors.ErrTypeParsing):
		h.errorHandler.HandleError(w, r, apierrors.ErrUnprocessableEntity.WithDetails(err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func respond[T any](w http.ResponseWriter, r *http.Request, res services.Result[T], message string) {
	advisories := res.Advisories
	if advisories == nil {
		advisories = []domain.Advisory{}
	}
	render.JSON(w, r, dashboardResponse{
		Status:     "success",
		Data:       res.Data,
		Advisories: advisories,
		Message:    message,
	})
}

func emptyMessage(empty bool, message string) string {
	if empty {
		return message
	}
	return ""
}
