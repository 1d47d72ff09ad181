package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/middleware"
	"salespulse/internal/reports"
	"salespulse/internal/services"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func result[T any](args mock.Arguments) (services.Result[T], error) {
	res, _ := args.Get(0).(services.Result[T])
	return res, args.Error(1)
}

func (m *MockDashboardService) Source(ctx context.Context) (services.Result[domain.SourceInfo], error) {
	return result[domain.SourceInfo](m.Called())
}

func (m *MockDashboardService) Reload(ctx context.Context) (services.Result[domain.SourceInfo], error) {
	return result[domain.SourceInfo](m.Called())
}

func (m *MockDashboardService) Months(ctx context.Context) (services.Result[domain.OptionList], error) {
	return result[domain.OptionList](m.Called())
}

func (m *MockDashboardService) Products(ctx context.Context) (services.Result[domain.OptionList], error) {
	return result[domain.OptionList](m.Called())
}

func (m *MockDashboardService) Branches(ctx context.Context) (services.Result[domain.OptionList], error) {
	return result[domain.OptionList](m.Called())
}

func (m *MockDashboardService) Overview(ctx context.Context, month string) (services.Result[domain.MonthlyKPIs], error) {
	return result[domain.MonthlyKPIs](m.Called(month))
}

func (m *MockDashboardService) ZeroSales(ctx context.Context, month string) (services.Result[domain.ZeroSalesReport], error) {
	return result[domain.ZeroSalesReport](m.Called(month))
}

func (m *MockDashboardService) BranchPerformance(ctx context.Context, month string) (services.Result[domain.BranchPerformanceReport], error) {
	return result[domain.BranchPerformanceReport](m.Called(month))
}

func (m *MockDashboardService) ProductQuantities(ctx context.Context, month string) (services.Result[domain.ProductQuantityReport], error) {
	return result[domain.ProductQuantityReport](m.Called(month))
}

func (m *MockDashboardService) PurchaseRates(ctx context.Context, month string) (services.Result[domain.PurchaseRateReport], error) {
	return result[domain.PurchaseRateReport](m.Called(month))
}

func (m *MockDashboardService) BranchAverages(ctx context.Context, month string) (services.Result[domain.BranchVisitorAverageReport], error) {
	return result[domain.BranchVisitorAverageReport](m.Called(month))
}

func (m *MockDashboardService) ProductBranchChart(ctx context.Context, product, month string) (services.Result[domain.ProductBranchChart], error) {
	return result[domain.ProductBranchChart](m.Called(product, month))
}

func (m *MockDashboardService) ProductTrend(ctx context.Context, product, branch string) (services.Result[domain.ProductTrend], error) {
	return result[domain.ProductTrend](m.Called(product, branch))
}

func (m *MockDashboardService) Popularity(ctx context.Context, month, branch string) (services.Result[domain.ProductPopularityReport], error) {
	return result[domain.ProductPopularityReport](m.Called(month, branch))
}

func (m *MockDashboardService) Query(ctx context.Context, q reports.Query) (services.Result[[]reports.GroupRow], error) {
	return result[[]reports.GroupRow](m.Called(q))
}

func (m *MockDashboardService) ExportWorkbook(ctx context.Context, month string, w io.Writer) (string, error) {
	args := m.Called(month)
	if args.Error(1) == nil {
		_, _ = io.WriteString(w, "xlsx-bytes")
	}
	return args.String(0), args.Error(1)
}

func (m *MockDashboardService) ExportCSV(ctx context.Context, view, month string, w io.Writer) (string, error) {
	args := m.Called(view, month)
	if args.Error(1) == nil {
		_, _ = io.WriteString(w, "\xEF\xBB\xBFProduct;Quantity\nShirt;37\n")
	}
	return args.String(0), args.Error(1)
}

var testAdvisory = domain.Advisory{Code: domain.AdvisoryUnparsableMonth, Message: "1 row has an unparsable month", Rows: 1}

func newTestRouter(t *testing.T, svc *MockDashboardService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewDashboardHandler(svc, middleware.NewValidationMiddleware(logger, errorHandler), logger, errorHandler)
	return h.Routes()
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func TestDashboardHandler_Overview(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		setup      func(m *MockDashboardService)
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:   "default month",
			target: "/overview",
			setup: func(m *MockDashboardService) {
				m.On("Overview", "").Return(services.Result[domain.MonthlyKPIs]{
					Data:       domain.MonthlyKPIs{Month: "September 2025", ProductTypes: 3, Visitors: 205},
					Advisories: []domain.Advisory{testAdvisory},
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "success", body["status"])
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "September 2025", data["month"])
				assert.Equal(t, float64(205), data["visitors"])
				assert.Len(t, body["advisories"], 1)
				assert.NotContains(t, body, "message")
			},
		},
		{
			name:   "empty month carries a message",
			target: "/overview?month=March+2020",
			setup: func(m *MockDashboardService) {
				m.On("Overview", "March 2020").Return(services.Result[domain.MonthlyKPIs]{
					Data: domain.MonthlyKPIs{Month: "March 2020", Empty: true},
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, msgNoMonthRows, body["message"])
				assert.Equal(t, []interface{}{}, body["advisories"])
			},
		},
		{
			name:       "malformed month",
			target:     "/overview?month=2025-08",
			setup:      func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
			},
		},
		{
			name:   "no month data",
			target: "/overview",
			setup: func(m *MockDashboardService) {
				m.On("Overview", "").Return(nil, services.ErrNoMonthData)
			},
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "NO_MONTH_DATA", body["error_code"])
				assert.Equal(t, apierrors.TypeNoMonthData, body["type"])
			},
		},
		{
			name:   "source not configured",
			target: "/overview",
			setup: func(m *MockDashboardService) {
				m.On("Overview", "").Return(nil, services.ErrSourceNotConfigured)
			},
			wantStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "SERVICE_UNAVAILABLE", body["error_code"])
				assert.Equal(t, apierrors.TypeServiceDown, body["type"])
				assert.Equal(t, "no source file configured", body["details"])
			},
		},
		{
			name:   "unreadable source",
			target: "/overview",
			setup: func(m *MockDashboardService) {
				m.On("Overview", "").Return(nil, apierrors.NewParsingError("missing required columns", nil))
			},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeSourceUnreadable, body["type"])
				assert.Equal(t, "UNPROCESSABLE_ENTITY", body["error_code"])
			},
		},
		{
			name:   "missing source file",
			target: "/overview",
			setup: func(m *MockDashboardService) {
				m.On("Overview", "").Return(nil, fmt.Errorf("load: %w", apierrors.NewStorageError("source file not found", nil)))
			},
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "SOURCE_NOT_FOUND", body["error_code"])
				assert.Equal(t, apierrors.TypeSourceNotFound, body["type"])
				assert.Contains(t, body["details"], "source file not found")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setup(svc)

			rec, body := doRequest(t, newTestRouter(t, svc), http.MethodGet, tt.target, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, body)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Views(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Months").Return(services.Result[domain.OptionList]{
		Data: domain.OptionList{Values: []string{"August 2025", "September 2025"}, Default: "September 2025"},
	}, nil)
	svc.On("Products").Return(services.Result[domain.OptionList]{Data: domain.OptionList{Values: []string{"Hat"}, Default: "Hat"}}, nil)
	svc.On("Branches").Return(services.Result[domain.OptionList]{Data: domain.OptionList{Values: []string{"Mall"}, Default: "Mall"}}, nil)
	svc.On("ZeroSales", "August 2025").Return(services.Result[domain.ZeroSalesReport]{Data: domain.ZeroSalesReport{Month: "August 2025"}}, nil)
	svc.On("BranchPerformance", "").Return(services.Result[domain.BranchPerformanceReport]{}, nil)
	svc.On("ProductQuantities", "").Return(services.Result[domain.ProductQuantityReport]{}, nil)
	svc.On("PurchaseRates", "").Return(services.Result[domain.PurchaseRateReport]{}, nil)
	svc.On("BranchAverages", "").Return(services.Result[domain.BranchVisitorAverageReport]{}, nil)
	svc.On("ProductBranchChart", "Shirt", "").Return(services.Result[domain.ProductBranchChart]{
		Data: domain.ProductBranchChart{Product: "Shirt", Empty: true},
	}, nil)
	svc.On("ProductTrend", "Shirt", "Mall").Return(services.Result[domain.ProductTrend]{
		Data: domain.ProductTrend{Product: "Shirt", Branch: "Mall", Empty: true},
	}, nil)
	svc.On("Popularity", "", "Mall").Return(services.Result[domain.ProductPopularityReport]{
		Data: domain.ProductPopularityReport{Branch: "Mall", Empty: true},
	}, nil)
	svc.On("Source").Return(services.Result[domain.SourceInfo]{Data: domain.SourceInfo{Path: "/data/sales.csv", Rows: 4}}, nil)
	svc.On("Reload").Return(services.Result[domain.SourceInfo]{Data: domain.SourceInfo{Path: "/data/sales.csv", Rows: 5}}, nil)

	router := newTestRouter(t, svc)

	tests := []struct {
		method  string
		target  string
		message string
	}{
		{method: http.MethodGet, target: "/months"},
		{method: http.MethodGet, target: "/products"},
		{method: http.MethodGet, target: "/branches"},
		{method: http.MethodGet, target: "/zero-sales?month=August+2025"},
		{method: http.MethodGet, target: "/branches/performance"},
		{method: http.MethodGet, target: "/products/quantities"},
		{method: http.MethodGet, target: "/purchase-rates"},
		{method: http.MethodGet, target: "/branches/averages"},
		{method: http.MethodGet, target: "/charts/product-branches?product=Shirt", message: msgNoProductInMonth},
		{method: http.MethodGet, target: "/charts/product-trend?product=Shirt&branch=Mall", message: msgNoProductBranch},
		{method: http.MethodGet, target: "/popularity?branch=Mall", message: msgNoBranchInMonth},
		{method: http.MethodGet, target: "/source"},
		{method: http.MethodPost, target: "/reload"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec, body := doRequest(t, router, tt.method, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "success", body["status"])
			if tt.message != "" {
				assert.Equal(t, tt.message, body["message"])
			}
		})
	}

	svc.AssertExpectations(t)
}

func TestDashboardHandler_Query(t *testing.T) {
	valid := reports.Query{
		GroupBy:      []reports.Column{reports.ColumnBranch},
		Aggregations: map[reports.Column]reports.Aggregation{reports.ColumnQuantity: reports.AggSum},
	}

	tests := []struct {
		name       string
		body       string
		setup      func(m *MockDashboardService)
		wantStatus int
		wantRows   int
		wantCode   string
	}{
		{
			name: "grouped",
			body: `{"group_by":["branch"],"aggregations":{"quantity":"sum"}}`,
			setup: func(m *MockDashboardService) {
				m.On("Query", valid).Return(services.Result[[]reports.GroupRow]{Data: []reports.GroupRow{
					{Key: map[reports.Column]string{reports.ColumnBranch: "Downtown"}, Values: map[reports.Column]float64{reports.ColumnQuantity: 40}, Rows: 3},
				}}, nil)
			},
			wantStatus: http.StatusOK,
			wantRows:   1,
		},
		{
			name:       "malformed body",
			body:       `{"group_by":`,
			setup:      func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "unknown column",
			body: `{"group_by":["colour"]}`,
			setup: func(m *MockDashboardService) {
				m.On("Query", reports.Query{GroupBy: []reports.Column{"colour"}}).
					Return(nil, fmt.Errorf("%w: %w", services.ErrInvalidInput, apierrors.NewAppValidationError(`unknown group_by column "colour"`)))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_PARAMETER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setup(svc)

			rec, body := doRequest(t, newTestRouter(t, svc), http.MethodPost, "/query", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Len(t, body["data"], tt.wantRows)
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_QuerySchema(t *testing.T) {
	rec, body := doRequest(t, newTestRouter(t, new(MockDashboardService)), http.MethodGet, "/query/schema", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "$defs")
	assert.Contains(t, rec.Body.String(), "group_by")
}

func TestDashboardHandler_Exports(t *testing.T) {
	t.Run("workbook", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportWorkbook", "").Return("September 2025", nil)

		rec, _ := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/export.xlsx", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="sales_report_september_2025.xlsx"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "xlsx-bytes", rec.Body.String())
	})

	t.Run("csv", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportCSV", "products", "August 2025").Return("August 2025", nil)

		rec, _ := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/export.csv?view=products&month=August+2025", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="products_august_2025.csv"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\xEF\xBB\xBF"))
	})

	t.Run("missing view", func(t *testing.T) {
		rec, body := doRequest(t, newTestRouter(t, new(MockDashboardService)), http.MethodGet, "/export.csv", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	})

	t.Run("unknown view", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportCSV", "pie", "").Return("", fmt.Errorf("%w: pie", services.ErrUnknownView))

		rec, body := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/export.csv?view=pie", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
		details := body["details"].(map[string]interface{})
		assert.Contains(t, details["views"], "products")
	})

	t.Run("write failure", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportWorkbook", "").Return("September 2025", fmt.Errorf("%w: disk full", services.ErrExportFailed))

		rec, body := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/export.xlsx", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "EXPORT_FAILED", body["error_code"])
		assert.Equal(t, apierrors.TypeExportFailed, body["type"])
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
	})

	t.Run("no month data", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportWorkbook", "").Return("", services.ErrNoMonthData)

		rec, _ := doRequest(t, newTestRouter(t, svc), http.MethodGet, "/export.xlsx", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
