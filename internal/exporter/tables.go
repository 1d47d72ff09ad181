package exporter

import (
	"fmt"
	"strings"

	"salespulse/internal/errors"
	"salespulse/internal/reports"
	"salespulse/pkg/contracts/domain"
)

// View keys accepted by ViewTable, in workbook sheet order.
const (
	ViewOverview       = "overview"
	ViewZeroSales      = "zero-sales"
	ViewBranches       = "branches"
	ViewProducts       = "products"
	ViewPurchaseRates  = "purchase-rates"
	ViewBranchAverages = "branch-averages"
)

// MonthViews lists every month-scoped view key.
var MonthViews = []string{
	ViewOverview,
	ViewZeroSales,
	ViewBranches,
	ViewProducts,
	ViewPurchaseRates,
	ViewBranchAverages,
}

// Table is a rectangular, export-ready rendering of a view. Cells hold
// string, float64, int or nil values.
type Table struct {
	Key     string
	Name    string
	Headers []string
	Rows    [][]any
}

// Records renders every row for delimited output.
func (t Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = formatCell(cell)
		}
		records[i] = record
	}
	return records
}

// FileName is the export file name for the table and a month label.
func (t Table) FileName(month, ext string) string {
	return FileName(t.Key, month, ext)
}

// FileName builds "<key>_<month slug>.<ext>", or "<key>.<ext>" without a month.
func FileName(key, month, ext string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(month), " ", "_"))
	if slug == "" {
		return fmt.Sprintf("%s.%s", key, ext)
	}
	return fmt.Sprintf("%s_%s.%s", key, slug, ext)
}

// MonthTables renders every month view of table.
func MonthTables(table *domain.SalesTable, month string) []Table {
	tables := make([]Table, 0, len(MonthViews))
	for _, key := range MonthViews {
		t, _ := ViewTable(table, key, month)
		tables = append(tables, t)
	}
	return tables
}

// ViewTable renders one month view by key.
func ViewTable(table *domain.SalesTable, view, month string) (Table, error) {
	switch view {
	case ViewOverview:
		return overviewTable(reports.MonthlyKPIs(table, month)), nil
	case ViewZeroSales:
		return zeroSalesTable(reports.ZeroSalesProducts(table, month)), nil
	case ViewBranches:
		return branchTable(reports.BranchPerformance(table, month)), nil
	case ViewProducts:
		return productTable(reports.ProductQuantities(table, month)), nil
	case ViewPurchaseRates:
		return purchaseRateTable(reports.PurchaseRates(table, month)), nil
	case ViewBranchAverages:
		return branchAverageTable(reports.BranchVisitorAverages(table, month)), nil
	}
	return Table{}, errors.NewAppValidationError(fmt.Sprintf("unknown view %q", view)).
		WithContext("field", "view").
		WithContext("allowed", strings.Join(MonthViews, ", "))
}

func overviewTable(k domain.MonthlyKPIs) Table {
	return Table{
		Key:     ViewOverview,
		Name:    "Overview",
		Headers: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Month", k.Month},
			{"Product Types", k.ProductTypes},
			{"Visitors", k.Visitors},
			{"Total Quantity", k.TotalQuantity},
			{"Total Sales", k.TotalSales},
		},
	}
}

func zeroSalesTable(r domain.ZeroSalesReport) Table {
	t := Table{Key: ViewZeroSales, Name: "Zero Sales", Headers: []string{"Product", "Sales"}}
	for _, p := range r.Products {
		t.Rows = append(t.Rows, []any{p.Product, p.Sales})
	}
	return t
}

func branchTable(r domain.BranchPerformanceReport) Table {
	t := Table{Key: ViewBranches, Name: "Branches", Headers: []string{"Branch", "Sales", "Quantity", "Visitors"}}
	for _, b := range r.Branches {
		t.Rows = append(t.Rows, []any{b.Branch, b.Sales, b.Quantity, b.Visitors})
	}
	return t
}

func productTable(r domain.ProductQuantityReport) Table {
	t := Table{Key: ViewProducts, Name: "Products", Headers: []string{"Product", "Quantity"}}
	for _, p := range r.Products {
		t.Rows = append(t.Rows, []any{p.Product, p.Quantity})
	}
	return t
}

func purchaseRateTable(r domain.PurchaseRateReport) Table {
	t := Table{
		Key:     ViewPurchaseRates,
		Name:    "Purchase Rates",
		Headers: []string{"Tier", "Product", "Total Quantity", "Unique Visitors", "Purchase %"},
	}
	for _, tier := range r.Tiers {
		for _, p := range tier.Products {
			t.Rows = append(t.Rows, []any{tier.Label, p.Product, p.Quantity, p.Visitors, p.Rate})
		}
	}
	for _, p := range r.Undefined {
		t.Rows = append(t.Rows, []any{"Undefined", p.Product, p.Quantity, p.Visitors, nil})
	}
	return t
}

func branchAverageTable(r domain.BranchVisitorAverageReport) Table {
	t := Table{
		Key:     ViewBranchAverages,
		Name:    "Branch Averages",
		Headers: []string{"Branch", "Total Quantity", "Unique Visitors", "Avg Products per Visitor"},
	}
	for _, b := range r.Branches {
		var avg any = b.Average
		if b.Undefined {
			avg = nil
		}
		t.Rows = append(t.Rows, []any{b.Branch, b.Quantity, b.Visitors, avg})
	}
	return t
}

// CanonicalTable renders the cleaned source rows.
func CanonicalTable(table *domain.SalesTable) Table {
	t := Table{
		Key:     "normalized",
		Name:    "Normalized",
		Headers: append([]string{}, domain.RequiredColumns...),
	}
	t.Headers = append(t.Headers, "Month Name")
	if table == nil {
		return t
	}
	for _, row := range table.Rows {
		var month, label any
		if row.Month != nil {
			month = row.Month.Format("2006-01-02")
			label = row.Label()
		}
		t.Rows = append(t.Rows, []any{row.Product, row.Branch, row.Sales, row.Quantity, row.Visitors, month, label})
	}
	return t
}
