package reports

import (
	"fmt"
	"sort"
	"time"

	"salespulse/pkg/contracts/domain"
)

// Months lists distinct month labels in calendar order, so "April 2025"
// follows "March 2025" rather than sorting before it as plain label text
// would. The default is the latest month. Rows without a month are ignored.
func Months(table *domain.SalesTable) domain.OptionList {
	seen := make(map[string]time.Time)
	if table != nil {
		for i := range table.Rows {
			row := &table.Rows[i]
			if row.Month == nil {
				continue
			}
			seen[row.Label()] = monthStart(*row.Month)
		}
	}

	values := make([]string, 0, len(seen))
	for label := range seen {
		values = append(values, label)
	}
	sort.Slice(values, func(i, j int) bool {
		return seen[values[i]].Before(seen[values[j]])
	})

	list := domain.OptionList{Values: values}
	if len(values) > 0 {
		list.Default = values[len(values)-1]
	}
	return list
}

// Products lists distinct non-empty product names alphabetically.
func Products(table *domain.SalesTable) domain.OptionList {
	return distinctOptions(table, func(r *domain.SalesRow) string { return r.Product })
}

// Branches lists distinct non-empty branch names alphabetically.
func Branches(table *domain.SalesTable) domain.OptionList {
	return distinctOptions(table, func(r *domain.SalesRow) string { return r.Branch })
}

func distinctOptions(table *domain.SalesTable, value func(*domain.SalesRow) string) domain.OptionList {
	seen := make(map[string]struct{})
	values := []string{}
	if table != nil {
		for i := range table.Rows {
			v := value(&table.Rows[i])
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	sort.Strings(values)

	list := domain.OptionList{Values: values}
	if len(values) > 0 {
		list.Default = values[0]
	}
	return list
}

// MonthlyKPIs returns the headline figures for month.
func MonthlyKPIs(table *domain.SalesTable, month string) domain.MonthlyKPIs {
	kpis := domain.MonthlyKPIs{Month: month}

	products := make(map[string]struct{})
	visitors := newDistinctSum()
	rows := 0
	if table != nil {
		for i := range table.Rows {
			row := &table.Rows[i]
			if row.Month == nil || row.Label() != month {
				continue
			}
			rows++
			products[row.Product] = struct{}{}
			visitors.add(row.Visitors)
			kpis.TotalQuantity += row.Quantity
			kpis.TotalSales += row.Sales
		}
	}

	kpis.ProductTypes = len(products)
	kpis.Visitors = visitors.total
	kpis.Empty = rows == 0
	return kpis
}

// ZeroSalesProducts lists products whose summed sales in month are exactly 0.
func ZeroSalesProducts(table *domain.SalesTable, month string) domain.ZeroSalesReport {
	groups := mustGroup(table, Query{
		Predicates:   map[Column]string{ColumnMonth: month},
		GroupBy:      []Column{ColumnProduct},
		Aggregations: map[Column]Aggregation{ColumnSales: AggSum},
	})

	report := domain.ZeroSalesReport{
		Month:    month,
		Products: []domain.ProductSales{},
		Empty:    len(groups) == 0,
	}
	for _, g := range groups {
		if g.Values[ColumnSales] == 0 {
			report.Products = append(report.Products, domain.ProductSales{
				Product: g.Key[ColumnProduct],
				Sales:   0,
			})
		}
	}
	return report
}

// BranchPerformance rolls month up per branch, by quantity descending.
func BranchPerformance(table *domain.SalesTable, month string) domain.BranchPerformanceReport {
	groups := mustGroup(table, Query{
		Predicates: map[Column]string{ColumnMonth: month},
		GroupBy:    []Column{ColumnBranch},
		Aggregations: map[Column]Aggregation{
			ColumnSales:    AggSum,
			ColumnQuantity: AggSum,
			ColumnVisitors: AggSumDistinct,
		},
	})

	branches := make([]domain.BranchPerformance, 0, len(groups))
	for _, g := range groups {
		branches = append(branches, domain.BranchPerformance{
			Branch:   g.Key[ColumnBranch],
			Sales:    g.Values[ColumnSales],
			Quantity: g.Values[ColumnQuantity],
			Visitors: g.Values[ColumnVisitors],
		})
	}
	sort.SliceStable(branches, func(i, j int) bool {
		return branches[i].Quantity > branches[j].Quantity
	})

	return domain.BranchPerformanceReport{
		Month:    month,
		Branches: branches,
		Empty:    len(groups) == 0,
	}
}

// ProductQuantities sums quantity per product in month, descending.
func ProductQuantities(table *domain.SalesTable, month string) domain.ProductQuantityReport {
	products := productQuantities(table, map[Column]string{ColumnMonth: month})
	return domain.ProductQuantityReport{
		Month:    month,
		Products: products,
		Empty:    len(products) == 0,
	}
}

func productQuantities(table *domain.SalesTable, predicates map[Column]string) []domain.ProductQuantity {
	groups := mustGroup(table, Query{
		Predicates:   predicates,
		GroupBy:      []Column{ColumnProduct},
		Aggregations: map[Column]Aggregation{ColumnQuantity: AggSum},
	})

	products := make([]domain.ProductQuantity, 0, len(groups))
	for _, g := range groups {
		products = append(products, domain.ProductQuantity{
			Product:  g.Key[ColumnProduct],
			Quantity: g.Values[ColumnQuantity],
		})
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Quantity > products[j].Quantity
	})
	return products
}

// BranchVisitorAverages reports products bought per distinct visitor for
// each branch in month. Branches with no visitors sort last.
func BranchVisitorAverages(table *domain.SalesTable, month string) domain.BranchVisitorAverageReport {
	groups := mustGroup(table, Query{
		Predicates: map[Column]string{ColumnMonth: month},
		GroupBy:    []Column{ColumnBranch},
		Aggregations: map[Column]Aggregation{
			ColumnQuantity: AggSum,
			ColumnVisitors: AggSumDistinct,
		},
	})

	branches := make([]domain.BranchVisitorAverage, 0, len(groups))
	for _, g := range groups {
		avg, undefined := ratio(g.Values[ColumnQuantity], g.Values[ColumnVisitors], 1)
		branches = append(branches, domain.BranchVisitorAverage{
			Branch:    g.Key[ColumnBranch],
			Quantity:  g.Values[ColumnQuantity],
			Visitors:  g.Values[ColumnVisitors],
			Average:   avg,
			Undefined: undefined,
		})
	}
	sort.SliceStable(branches, func(i, j int) bool {
		a, b := branches[i], branches[j]
		if a.Undefined != b.Undefined {
			return b.Undefined
		}
		return a.Average > b.Average
	})

	return domain.BranchVisitorAverageReport{
		Month:    month,
		Branches: branches,
		Empty:    len(groups) == 0,
	}
}

// ProductBranchChart shows product's quantity per branch in month.
func ProductBranchChart(table *domain.SalesTable, product, month string) domain.ProductBranchChart {
	groups := mustGroup(table, Query{
		Predicates:   map[Column]string{ColumnProduct: product, ColumnMonth: month},
		GroupBy:      []Column{ColumnBranch},
		Aggregations: map[Column]Aggregation{ColumnQuantity: AggSum},
	})

	view := domain.ProductBranchChart{
		Product:  product,
		Month:    month,
		Branches: make([]domain.BranchQuantity, 0, len(groups)),
		Empty:    len(groups) == 0,
	}
	for _, g := range groups {
		view.Branches = append(view.Branches, domain.BranchQuantity{
			Branch:   g.Key[ColumnBranch],
			Quantity: g.Values[ColumnQuantity],
		})
		view.Total += g.Values[ColumnQuantity]
	}
	sort.SliceStable(view.Branches, func(i, j int) bool {
		return view.Branches[i].Quantity > view.Branches[j].Quantity
	})

	points := make([]domain.ChartPoint, 0, len(view.Branches))
	for _, b := range view.Branches {
		points = append(points, domain.ChartPoint{X: b.Branch, Y: b.Quantity, Label: FormatNumber(b.Quantity)})
	}
	view.Chart = domain.ChartSeries{
		Kind:   domain.ChartBar,
		Title:  fmt.Sprintf("%s — Quantity per Branch (%s) | Total = %s", product, month, FormatNumber(view.Total)),
		XTitle: "Branch",
		YTitle: "Quantity Sold",
		Points: points,
	}
	return view
}

// ProductTrend shows product's monthly quantity in branch, oldest first.
// Rows are bucketed by calendar month, so 01/08/25 and 15/08/25 add up to
// one August point. Rows without a month are left out.
func ProductTrend(table *domain.SalesTable, product, branch string) domain.ProductTrend {
	groups := mustGroup(table, Query{
		Predicates:   map[Column]string{ColumnProduct: product, ColumnBranch: branch},
		GroupBy:      []Column{ColumnMonth},
		Aggregations: map[Column]Aggregation{ColumnQuantity: AggSum},
	})

	view := domain.ProductTrend{
		Product: product,
		Branch:  branch,
		Months:  []domain.MonthQuantity{},
	}
	points := []domain.ChartPoint{}
	for _, g := range groups {
		month := g.Month()
		if month == nil {
			continue
		}
		qty := g.Values[ColumnQuantity]
		label := g.Key[ColumnMonth]
		view.Months = append(view.Months, domain.MonthQuantity{Month: *month, Label: label, Quantity: qty})
		view.Total += qty
		points = append(points, domain.ChartPoint{X: label, Y: qty, Label: FormatNumber(qty)})
	}
	view.Empty = len(view.Months) == 0

	view.Chart = domain.ChartSeries{
		Kind:   domain.ChartLine,
		Title:  fmt.Sprintf("%s — Quantity Trend per Month (%s) | Total = %s", product, branch, FormatNumber(view.Total)),
		XTitle: "Month",
		YTitle: "Quantity Sold",
		Points: points,
	}
	return view
}

// ProductPopularity ranks products in branch and month by quantity per
// distinct branch visitor, in percent.
func ProductPopularity(table *domain.SalesTable, month, branch string) domain.ProductPopularityReport {
	predicates := map[Column]string{ColumnMonth: month, ColumnBranch: branch}
	visitors := distinctVisitors(table, predicates)
	products := productQuantities(table, predicates)

	rates, undefined := productRates(products, visitors)
	return domain.ProductPopularityReport{
		Month:     month,
		Branch:    branch,
		Visitors:  visitors,
		Products:  rates,
		Undefined: undefined && len(rates) > 0,
		Empty:     len(products) == 0,
	}
}

func distinctVisitors(table *domain.SalesTable, predicates map[Column]string) float64 {
	groups := mustGroup(table, Query{
		Predicates:   predicates,
		Aggregations: map[Column]Aggregation{ColumnVisitors: AggSumDistinct},
	})
	if len(groups) == 0 {
		return 0
	}
	return groups[0].Values[ColumnVisitors]
}

// productRates computes quantity/visitors*100 per product, by rate
// descending. undefined reports a zero denominator.
func productRates(products []domain.ProductQuantity, visitors float64) ([]domain.ProductRate, bool) {
	rates := make([]domain.ProductRate, 0, len(products))
	undefined := false
	for _, p := range products {
		rate, u := ratio(p.Quantity, visitors, 100)
		undefined = undefined || u
		rates = append(rates, domain.ProductRate{
			Product:   p.Product,
			Quantity:  p.Quantity,
			Visitors:  visitors,
			Rate:      rate,
			Undefined: u,
		})
	}
	sortRates(rates)
	return rates, undefined
}

// sortRates orders by rate descending; ties keep alphabetical order.
func sortRates(rates []domain.ProductRate) {
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Rate > rates[j].Rate
	})
}

// mustGroup runs queries built in this package, which are always valid.
func mustGroup(table *domain.SalesTable, q Query) []GroupRow {
	groups, err := FilterAndGroup(table, q)
	if err != nil {
		panic(fmt.Sprintf("reports: invalid internal query: %v", err))
	}
	return groups
}
