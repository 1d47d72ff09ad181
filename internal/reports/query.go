package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Column names a field of the canonical table in queries.
type Column string

const (
	ColumnProduct  Column = "product"
	ColumnBranch   Column = "branch"
	ColumnMonth    Column = "month"
	ColumnSales    Column = "sales"
	ColumnQuantity Column = "quantity"
	ColumnVisitors Column = "visitors"
)

// Aggregation names how a numeric column is folded within a group.
type Aggregation string

const (
	// AggSum adds every value in the group.
	AggSum Aggregation = "sum"
	// AggSumDistinct adds each distinct value once, in first-appearance order.
	AggSumDistinct Aggregation = "sum_distinct"
)

// DimensionColumns can be used in predicates and group keys.
var DimensionColumns = []Column{ColumnProduct, ColumnBranch, ColumnMonth}

// MeasureColumns can be aggregated.
var MeasureColumns = []Column{ColumnSales, ColumnQuantity, ColumnVisitors}

// Aggregations lists the supported aggregation names.
var Aggregations = []Aggregation{AggSum, AggSumDistinct}

// Query filters the table by exact match, groups the remaining rows and
// aggregates numeric columns per group. The month predicate and month group
// key use the month label ("August 2025").
type Query struct {
	Predicates   map[Column]string      `json:"predicates,omitempty" jsonschema:"description=Exact-match filters keyed by product, branch or month"`
	GroupBy      []Column               `json:"group_by,omitempty" jsonschema:"description=Group key columns in order (product, branch, month)"`
	Aggregations map[Column]Aggregation `json:"aggregations,omitempty" jsonschema:"description=Aggregation per numeric column (sales, quantity, visitors)"`
}

// GroupRow is one group of a query result.
type GroupRow struct {
	Key    map[Column]string  `json:"key"`
	Values map[Column]float64 `json:"values"`
	Rows   int                `json:"rows"`

	month *time.Time
}

// Month returns the calendar month of the group when it is keyed by month.
func (g GroupRow) Month() *time.Time {
	return g.month
}

// Validate reports the first unsupported column or aggregation in q.
func (q Query) Validate() error {
	for col := range q.Predicates {
		if !isDimension(col) {
			return unknownColumn("predicate", col)
		}
	}
	seen := make(map[Column]bool, len(q.GroupBy))
	for _, col := range q.GroupBy {
		if !isDimension(col) {
			return unknownColumn("group_by", col)
		}
		if seen[col] {
			return errors.NewAppValidationError(fmt.Sprintf("column %q is grouped more than once", col)).
				WithContext("field", "group_by")
		}
		seen[col] = true
	}
	for col, agg := range q.Aggregations {
		if !isMeasure(col) {
			return unknownColumn("aggregations", col)
		}
		if agg != AggSum && agg != AggSumDistinct {
			return errors.NewAppValidationError(fmt.Sprintf("unsupported aggregation %q for column %q", agg, col)).
				WithContext("field", "aggregations")
		}
	}
	return nil
}

// FilterAndGroup runs q over table. Groups are ordered by key ascending,
// months chronologically with a missing month last. An empty filter result
// is an empty slice, never an error.
func FilterAndGroup(table *domain.SalesTable, q Query) ([]GroupRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	result := []GroupRow{}
	if table == nil {
		return result, nil
	}

	measures := sortedMeasures(q.Aggregations)
	groups := make(map[string]*groupState)
	var order []*groupState

	for i := range table.Rows {
		row := &table.Rows[i]
		if !matches(row, q.Predicates) {
			continue
		}

		key := groupKey(row, q.GroupBy)
		g, ok := groups[key]
		if !ok {
			g = newGroupState(row, q.GroupBy, measures, q.Aggregations)
			groups[key] = g
			order = append(order, g)
		}
		g.add(row)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return compareGroups(order[i], order[j], q.GroupBy) < 0
	})

	for _, g := range order {
		result = append(result, g.result())
	}
	return result, nil
}

type groupState struct {
	key       map[Column]string
	month     *time.Time
	rows      int
	measures  []Column
	aggs      map[Column]Aggregation
	sums      map[Column]float64
	distincts map[Column]*distinctSum
}

func newGroupState(row *domain.SalesRow, groupBy, measures []Column, aggs map[Column]Aggregation) *groupState {
	g := &groupState{
		key:       make(map[Column]string, len(groupBy)),
		measures:  measures,
		aggs:      aggs,
		sums:      make(map[Column]float64, len(measures)),
		distincts: make(map[Column]*distinctSum),
	}
	for _, col := range groupBy {
		g.key[col] = dimensionValue(row, col)
		if col == ColumnMonth && row.Month != nil {
			m := monthStart(*row.Month)
			g.month = &m
		}
	}
	for _, col := range measures {
		if aggs[col] == AggSumDistinct {
			g.distincts[col] = newDistinctSum()
		}
	}
	return g
}

func (g *groupState) add(row *domain.SalesRow) {
	g.rows++
	for _, col := range g.measures {
		v := measureValue(row, col)
		if d, ok := g.distincts[col]; ok {
			d.add(v)
			continue
		}
		g.sums[col] += v
	}
}

func (g *groupState) result() GroupRow {
	values := make(map[Column]float64, len(g.measures))
	for _, col := range g.measures {
		if d, ok := g.distincts[col]; ok {
			values[col] = d.total
			continue
		}
		values[col] = g.sums[col]
	}
	return GroupRow{Key: g.key, Values: values, Rows: g.rows, month: g.month}
}

// distinctSum adds each value the first time it is seen.
type distinctSum struct {
	seen  map[float64]struct{}
	total float64
}

func newDistinctSum() *distinctSum {
	return &distinctSum{seen: make(map[float64]struct{})}
}

func (d *distinctSum) add(v float64) {
	if _, ok := d.seen[v]; ok {
		return
	}
	d.seen[v] = struct{}{}
	d.total += v
}

// SumDistinct adds each distinct value of values once.
func SumDistinct(values []float64) float64 {
	d := newDistinctSum()
	for _, v := range values {
		d.add(v)
	}
	return d.total
}

func matches(row *domain.SalesRow, predicates map[Column]string) bool {
	for col, want := range predicates {
		if col == ColumnMonth && row.Month == nil {
			return false
		}
		if dimensionValue(row, col) != want {
			return false
		}
	}
	return true
}

func groupKey(row *domain.SalesRow, groupBy []Column) string {
	if len(groupBy) == 0 {
		return ""
	}
	parts := make([]string, len(groupBy))
	for i, col := range groupBy {
		parts[i] = dimensionValue(row, col)
	}
	return strings.Join(parts, "\x1f")
}

func compareGroups(a, b *groupState, groupBy []Column) int {
	for _, col := range groupBy {
		if col == ColumnMonth {
			if c := compareMonths(a.month, b.month); c != 0 {
				return c
			}
			continue
		}
		if c := strings.Compare(a.key[col], b.key[col]); c != 0 {
			return c
		}
	}
	return 0
}

// compareMonths orders nil after every month.
func compareMonths(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func dimensionValue(row *domain.SalesRow, col Column) string {
	switch col {
	case ColumnProduct:
		return row.Product
	case ColumnBranch:
		return row.Branch
	case ColumnMonth:
		return row.Label()
	}
	return ""
}

func measureValue(row *domain.SalesRow, col Column) float64 {
	switch col {
	case ColumnSales:
		return row.Sales
	case ColumnQuantity:
		return row.Quantity
	case ColumnVisitors:
		return row.Visitors
	}
	return 0
}

func sortedMeasures(aggs map[Column]Aggregation) []Column {
	var cols []Column
	for _, col := range MeasureColumns {
		if _, ok := aggs[col]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func isDimension(col Column) bool {
	for _, c := range DimensionColumns {
		if c == col {
			return true
		}
	}
	return false
}

func isMeasure(col Column) bool {
	for _, c := range MeasureColumns {
		if c == col {
			return true
		}
	}
	return false
}

func unknownColumn(field string, col Column) error {
	return errors.NewAppValidationError(fmt.Sprintf("unknown column %q", col)).
		WithContext("field", field).
		WithContext("column", string(col))
}
