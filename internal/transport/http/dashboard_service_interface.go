package http

import (
	"context"
	"io"

	"salespulse/internal/reports"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handler serves
type DashboardServiceInterface interface {
	Source(ctx context.Context) (services.Result[domain.SourceInfo], error)
	Reload(ctx context.Context) (services.Result[domain.SourceInfo], error)

	Months(ctx context.Context) (services.Result[domain.OptionList], error)
	Products(ctx context.Context) (services.Result[domain.OptionList], error)
	Branches(ctx context.Context) (services.Result[domain.OptionList], error)

	Overview(ctx context.Context, month string) (services.Result[domain.MonthlyKPIs], error)
	ZeroSales(ctx context.Context, month string) (services.Result[domain.ZeroSalesReport], error)
	BranchPerformance(ctx context.Context, month string) (services.Result[domain.BranchPerformanceReport], error)
	ProductQuantities(ctx context.Context, month string) (services.Result[domain.ProductQuantityReport], error)
	PurchaseRates(ctx context.Context, month string) (services.Result[domain.PurchaseRateReport], error)
	BranchAverages(ctx context.Context, month string) (services.Result[domain.BranchVisitorAverageReport], error)

	ProductBranchChart(ctx context.Context, product, month string) (services.Result[domain.ProductBranchChart], error)
	ProductTrend(ctx context.Context, product, branch string) (services.Result[domain.ProductTrend], error)
	Popularity(ctx context.Context, month, branch string) (services.Result[domain.ProductPopularityReport], error)

	Query(ctx context.Context, q reports.Query) (services.Result[[]reports.GroupRow], error)

	ExportWorkbook(ctx context.Context, month string, w io.Writer) (string, error)
	ExportCSV(ctx context.Context, view, month string, w io.Writer) (string, error)
}

// StructValidator validates tagged request structs
type StructValidator interface {
	ValidateStruct(v interface{}) error
}
