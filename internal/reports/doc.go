// Package reports computes the dashboard views over a canonical sales table.
//
// Every view is a pure function of the table and its scalar filters (month
// label, product, branch). Views never modify the table. Visitors are
// recorded per branch and month and repeated on every product row, so they
// are always aggregated as a sum of distinct values.
//
// Empty filter results are reported with Empty set, which is distinct from
// a computed zero. Ratios with a zero visitor denominator are 0 and flagged
// undefined.
//
// FilterAndGroup is the general building block the views are made of and is
// also exposed for ad hoc queries:
//
//	rows, err := reports.FilterAndGroup(table, reports.Query{
//		Predicates:   map[reports.Column]string{reports.ColumnMonth: "August 2025"},
//		GroupBy:      []reports.Column{reports.ColumnBranch},
//		Aggregations: map[reports.Column]reports.Aggregation{reports.ColumnVisitors: reports.AggSumDistinct},
//	})
package reports
