package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/reports"
	"salespulse/pkg/contracts/domain"
)

// TableSource provides the canonical table for a path.
type TableSource interface {
	Get(ctx context.Context, path string) (*domain.SalesTable, domain.SourceInfo, error)
	Reload(ctx context.Context, path string) (*domain.SalesTable, domain.SourceInfo, error)
	Stats() dataprocessing.CacheStats
}

// Result carries a view together with the advisories of the table it was
// computed from.
type Result[T any] struct {
	Data       T                 `json:"data"`
	Advisories []domain.Advisory `json:"advisories"`
}

// DashboardService runs report views against the configured source file.
// Every call loads the table through the cache and recomputes the view.
type DashboardService struct {
	source   TableSource
	path     string
	workbook *exporter.WorkbookExporter
	csv      *exporter.CSVWriter
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewDashboardService creates a dashboard service reading path through source.
func NewDashboardService(source TableSource, path string, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DashboardService initialized", slog.String("source_file", path))

	return &DashboardService{
		source:   source,
		path:     path,
		workbook: exporter.NewWorkbookExporter(logger),
		csv:      exporter.NewCSVWriter("", logger),
		tracer:   otel.Tracer("salespulse/services"),
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
}

// SourcePath returns the configured source file path.
func (s *DashboardService) SourcePath() string {
	return s.path
}

// Source describes the currently loaded source file.
func (s *DashboardService) Source(ctx context.Context) (Result[domain.SourceInfo], error) {
	_, info, err := s.load(ctx)
	if err != nil {
		return Result[domain.SourceInfo]{}, err
	}
	return Result[domain.SourceInfo]{Data: info, Advisories: info.Advisories}, nil
}

// Reload forces the source file to be read and normalized again.
func (s *DashboardService) Reload(ctx context.Context) (Result[domain.SourceInfo], error) {
	if s.path == "" {
		return Result[domain.SourceInfo]{}, ErrSourceNotConfigured
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.Reload")
	defer span.End()

	_, info, err := s.source.Reload(ctx, s.path)
	if err != nil {
		recordSpanError(span, err)
		s.logger.ErrorContext(ctx, "Reload failed", slog.String("error", err.Error()))
		return Result[domain.SourceInfo]{}, err
	}

	s.logger.InfoContext(ctx, "Source reloaded",
		slog.String("path", info.Path),
		slog.Int("rows", info.Rows))
	return Result[domain.SourceInfo]{Data: info, Advisories: info.Advisories}, nil
}

// CacheStats returns the table cache counters.
func (s *DashboardService) CacheStats() dataprocessing.CacheStats {
	return s.source.Stats()
}

// Months lists the selectable months, oldest first.
func (s *DashboardService) Months(ctx context.Context) (Result[domain.OptionList], error) {
	return tableView(ctx, s, "dashboard.Months", reports.Months)
}

// Products lists the selectable products.
func (s *DashboardService) Products(ctx context.Context) (Result[domain.OptionList], error) {
	return tableView(ctx, s, "dashboard.Products", reports.Products)
}

// Branches lists the selectable branches.
func (s *DashboardService) Branches(ctx context.Context) (Result[domain.OptionList], error) {
	return tableView(ctx, s, "dashboard.Branches", reports.Branches)
}

// Overview returns the month KPIs. An empty month selects the latest month.
func (s *DashboardService) Overview(ctx context.Context, month string) (Result[domain.MonthlyKPIs], error) {
	return monthView(ctx, s, "dashboard.Overview", month, reports.MonthlyKPIs)
}

// ZeroSales lists products without sales in month.
func (s *DashboardService) ZeroSales(ctx context.Context, month string) (Result[domain.ZeroSalesReport], error) {
	return monthView(ctx, s, "dashboard.ZeroSales", month, reports.ZeroSalesProducts)
}

// BranchPerformance rolls month up per branch.
func (s *DashboardService) BranchPerformance(ctx context.Context, month string) (Result[domain.BranchPerformanceReport], error) {
	return monthView(ctx, s, "dashboard.BranchPerformance", month, reports.BranchPerformance)
}

// ProductQuantities sums quantity per product in month.
func (s *DashboardService) ProductQuantities(ctx context.Context, month string) (Result[domain.ProductQuantityReport], error) {
	return monthView(ctx, s, "dashboard.ProductQuantities", month, reports.ProductQuantities)
}

// PurchaseRates buckets products by purchase rate in month.
func (s *DashboardService) PurchaseRates(ctx context.Context, month string) (Result[domain.PurchaseRateReport], error) {
	return monthView(ctx, s, "dashboard.PurchaseRates", month, reports.PurchaseRates)
}

// BranchAverages reports products per visitor per branch in month.
func (s *DashboardService) BranchAverages(ctx context.Context, month string) (Result[domain.BranchVisitorAverageReport], error) {
	return monthView(ctx, s, "dashboard.BranchAverages", month, reports.BranchVisitorAverages)
}

// ProductBranchChart charts product's quantity per branch in month. Empty
// filters select the first product and the latest month.
func (s *DashboardService) ProductBranchChart(ctx context.Context, product, month string) (Result[domain.ProductBranchChart], error) {
	return monthView(ctx, s, "dashboard.ProductBranchChart", month,
		func(table *domain.SalesTable, month string) domain.ProductBranchChart {
			return reports.ProductBranchChart(table, orDefault(product, reports.Products(table)), month)
		})
}

// ProductTrend charts product's monthly quantity in branch. Empty filters
// select the first product and branch.
func (s *DashboardService) ProductTrend(ctx context.Context, product, branch string) (Result[domain.ProductTrend], error) {
	return tableView(ctx, s, "dashboard.ProductTrend", func(table *domain.SalesTable) domain.ProductTrend {
		return reports.ProductTrend(table,
			orDefault(product, reports.Products(table)),
			orDefault(branch, reports.Branches(table)))
	})
}

// Popularity ranks products in branch and month. Empty filters select the
// latest month and the first branch.
func (s *DashboardService) Popularity(ctx context.Context, month, branch string) (Result[domain.ProductPopularityReport], error) {
	return monthView(ctx, s, "dashboard.Popularity", month,
		func(table *domain.SalesTable, month string) domain.ProductPopularityReport {
			return reports.ProductPopularity(table, month, orDefault(branch, reports.Branches(table)))
		})
}

// Query runs an ad hoc filter and group query. Rejected queries wrap
// ErrInvalidInput.
func (s *DashboardService) Query(ctx context.Context, q reports.Query) (Result[[]reports.GroupRow], error) {
	var queryErr error
	res, err := tableView(ctx, s, "dashboard.Query", func(table *domain.SalesTable) []reports.GroupRow {
		rows, err := reports.FilterAndGroup(table, q)
		queryErr = err
		return rows
	})
	if err != nil {
		return res, err
	}
	if queryErr != nil {
		return Result[[]reports.GroupRow]{}, fmt.Errorf("%w: %w", ErrInvalidInput, queryErr)
	}
	return res, nil
}

// ExportWorkbook writes the month workbook to w and returns the resolved month.
func (s *DashboardService) ExportWorkbook(ctx context.Context, month string, w io.Writer) (string, error) {
	table, _, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	month, err = resolveMonth(table, month)
	if err != nil {
		return "", err
	}
	if err := s.workbook.MonthReport(ctx, table, month, w); err != nil {
		s.logger.ErrorContext(ctx, "Workbook export failed", slog.String("error", err.Error()))
		return month, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return month, nil
}

// ExportCSV writes one month view as CSV to w and returns the resolved month.
func (s *DashboardService) ExportCSV(ctx context.Context, view, month string, w io.Writer) (string, error) {
	table, _, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	month, err = resolveMonth(table, month)
	if err != nil {
		return "", err
	}
	t, err := exporter.ViewTable(table, view, month)
	if err != nil {
		return month, fmt.Errorf("%w: %w", ErrUnknownView, err)
	}
	if err := s.csv.WriteTable(w, t); err != nil {
		s.logger.ErrorContext(ctx, "CSV export failed",
			slog.String("view", view),
			slog.String("error", err.Error()))
		return month, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return month, nil
}

func (s *DashboardService) load(ctx context.Context) (*domain.SalesTable, domain.SourceInfo, error) {
	if s.path == "" {
		return nil, domain.SourceInfo{}, ErrSourceNotConfigured
	}
	return s.source.Get(ctx, s.path)
}

func tableView[T any](ctx context.Context, s *DashboardService, name string, view func(*domain.SalesTable) T) (Result[T], error) {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	table, info, err := s.load(ctx)
	if err != nil {
		recordSpanError(span, err)
		return Result[T]{}, err
	}

	return Result[T]{Data: view(table), Advisories: info.Advisories}, nil
}

func monthView[T any](ctx context.Context, s *DashboardService, name, month string, view func(*domain.SalesTable, string) T) (Result[T], error) {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	table, info, err := s.load(ctx)
	if err != nil {
		recordSpanError(span, err)
		return Result[T]{}, err
	}

	resolved, err := resolveMonth(table, month)
	if err != nil {
		recordSpanError(span, err)
		return Result[T]{}, err
	}
	span.SetAttributes(attribute.String("salespulse.month", resolved))

	return Result[T]{Data: view(table, resolved), Advisories: info.Advisories}, nil
}

// resolveMonth picks the latest month when month is empty. A month that is
// not in the table is kept so the view reports an empty state.
func resolveMonth(table *domain.SalesTable, month string) (string, error) {
	if !table.HasValidMonths() {
		return "", ErrNoMonthData
	}
	if month == "" {
		return reports.Months(table).Default, nil
	}
	return month, nil
}

func orDefault(value string, options domain.OptionList) string {
	if value != "" {
		return value
	}
	return options.Default
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
